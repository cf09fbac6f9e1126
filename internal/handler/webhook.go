package handler

import (
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/abhishek622/hiregate/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateWebhook registers an agency endpoint. The signing secret is only
// returned here.
func (h *Handler) CreateWebhook(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req model.CreateWebhookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.Webhooks.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, "create_webhook", err)
		return
	}
	h.Logger.Info("create_webhook: created",
		zap.String("webhook_id", res.ID.String()),
		zap.String("agency_id", actor.AgencyID.String()),
	)
	response.Created(c, res)
}

func (h *Handler) ListWebhooks(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	subs, err := h.Webhooks.List(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, "list_webhooks", err)
		return
	}
	response.OK(c, subs)
}

func (h *Handler) DeleteWebhook(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Webhooks.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, "delete_webhook", err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) ListDeliveries(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dels, err := h.Webhooks.Deliveries(c.Request.Context(), actor, id, queryInt(c, "limit", 50))
	if err != nil {
		h.fail(c, "list_deliveries", err)
		return
	}
	response.OK(c, dels)
}
