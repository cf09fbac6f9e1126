package handler

import (
	"io"
	"net/http"

	"github.com/abhishek622/hiregate/internal/video"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/abhishek622/hiregate/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateVideoCall provisions a provider room and returns join credentials
func (h *Handler) CreateVideoCall(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req model.CreateSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.Workflow.CreateSession(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, "create_video_call", err)
		return
	}
	h.Logger.Info("create_video_call: created",
		zap.String("room_id", res.Room.ID.String()),
		zap.String("application_id", res.Room.ApplicationID.String()),
		zap.String("call_type", string(res.Room.CallType)),
	)
	response.Created(c, res)
}

func (h *Handler) ListVideoCalls(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rooms, err := h.Workflow.ListSessions(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "list_video_calls", err)
		return
	}
	response.OK(c, rooms)
}

func (h *Handler) EndVideoCall(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.EndSessionReq
	if !bind(c, &req) {
		return
	}
	room, err := h.Workflow.EndSession(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "end_video_call", err)
		return
	}
	response.OK(c, room)
}

// IssueTokens mints fresh join credentials for an existing room
func (h *Handler) IssueTokens(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	creds, err := h.Workflow.IssueFreshCredentials(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "issue_tokens", err)
		return
	}
	response.OK(c, creds)
}

func (h *Handler) DeleteVideoCall(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Workflow.DeleteSession(c.Request.Context(), actor, id); err != nil {
		h.fail(c, "delete_video_call", err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) AttachTranscript(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.TranscriptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	tr, err := h.Workflow.AttachTranscript(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "attach_transcript", err)
		return
	}
	response.OK(c, tr)
}

const maxProviderEventBytes = 1 << 20

func firstHeader(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := c.GetHeader(n); v != "" {
			return v
		}
	}
	return ""
}

// ProviderEvents ingests video provider callbacks. Anything that passes the
// signature check is acknowledged with 200 so the provider does not retry
// events this service cannot use.
func (h *Handler) ProviderEvents(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProviderEventBytes))
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}
	ts := firstHeader(c, "X-Webhook-Timestamp", "X-Daily-Timestamp")
	sig := firstHeader(c, "X-Webhook-Signature", "X-Daily-Signature")
	if err := video.VerifySignature(h.VideoWebhookSecret, ts, sig, body, h.now()); err != nil {
		h.Logger.Warn("provider_events: signature rejected", zap.Error(err))
		response.Unauthorized(c, "invalid signature")
		return
	}

	// Providers ping the endpoint with an empty body when it is registered.
	if len(body) == 0 {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ev, err := video.ParseEvent(body, h.now())
	if err != nil {
		h.Logger.Warn("provider_events: unparseable event", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
		return
	}
	if err := h.Workflow.HandleProviderEvent(c.Request.Context(), ev); err != nil {
		h.Logger.Error("provider_events: handling failed",
			zap.String("event", ev.Type),
			zap.String("room_name", ev.RoomName),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "handled": true})
}
