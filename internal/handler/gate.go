package handler

import (
	"github.com/abhishek622/hiregate/internal/workflow"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/abhishek622/hiregate/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type releaseRes struct {
	*workflow.ReleaseResult
	Partial bool `json:"partial"`
}

// Release exposes an application to the client. Room sharing failures do not
// fail the request; they are listed in the response.
func (h *Handler) Release(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.ReleaseReq
	if !bind(c, &req) {
		return
	}
	res, err := h.Workflow.Release(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "release", err)
		return
	}
	if res.Partial() {
		h.Logger.Warn("release: partial failure",
			zap.String("application_id", id.String()),
			zap.Int("failures", len(res.Failures)),
		)
	}
	response.OK(c, releaseRes{ReleaseResult: res, Partial: res.Partial()})
}

func (h *Handler) SendBack(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.SendBackReq
	if !bind(c, &req) {
		return
	}
	app, err := h.Workflow.SendBack(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "send_back", err)
		return
	}
	response.OK(c, app)
}

func (h *Handler) RevokeSharing(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.RevokeSharingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.Workflow.RevokeSharing(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "revoke_sharing", err)
		return
	}
	response.OK(c, releaseRes{ReleaseResult: res, Partial: res.Partial()})
}
