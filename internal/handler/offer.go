package handler

import (
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/abhishek622/hiregate/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SendOffer creates a job offer for an application in final interview
func (h *Handler) SendOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req model.SendOfferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	offer, err := h.Workflow.SendOffer(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, "send_offer", err)
		return
	}
	h.Logger.Info("send_offer: sent",
		zap.String("offer_id", offer.ID.String()),
		zap.String("application_id", offer.ApplicationID.String()),
	)
	response.Created(c, offer)
}

func (h *Handler) GetOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Workflow.GetOffer(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "get_offer", err)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) GetApplicationOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Workflow.GetApplicationOffer(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "get_application_offer", err)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) MarkOfferViewed(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	offer, err := h.Workflow.MarkViewed(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "mark_offer_viewed", err)
		return
	}
	response.OK(c, offer)
}

// SubmitCounterOffer records the candidate's salary counter
func (h *Handler) SubmitCounterOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.SubmitCounterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	counter, err := h.Workflow.SubmitCounterOffer(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "submit_counter_offer", err)
		return
	}
	response.Created(c, counter)
}

func (h *Handler) AcceptCounterOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.AcceptCounterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	offer, err := h.Workflow.AcceptCounterOffer(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "accept_counter_offer", err)
		return
	}
	response.OK(c, offer)
}

func (h *Handler) RejectCounterOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.RejectCounterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.Workflow.RejectCounterOffer(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "reject_counter_offer", err)
		return
	}
	response.OK(c, res)
}

// RespondToOffer is the candidate's final accept or decline
func (h *Handler) RespondToOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.RespondOfferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	offer, err := h.Workflow.RespondToOffer(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "respond_to_offer", err)
		return
	}
	h.Logger.Info("respond_to_offer: responded",
		zap.String("offer_id", offer.ID.String()),
		zap.String("status", string(offer.Status)),
	)
	response.OK(c, offer)
}

func (h *Handler) WithdrawOffer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	offer, err := h.Workflow.WithdrawOffer(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "withdraw_offer", err)
		return
	}
	response.OK(c, offer)
}
