package handler

import (
	"strconv"

	"github.com/abhishek622/hiregate/internal/workflow"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/abhishek622/hiregate/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateApplication creates an application for a candidate on a job
func (h *Handler) CreateApplication(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req model.CreateApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	app, err := h.Workflow.CreateApplication(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, "create_application", err)
		return
	}
	h.Logger.Info("create_application: created",
		zap.String("application_id", app.ID.String()),
		zap.String("job_id", app.JobID.String()),
	)
	response.Created(c, app)
}

// GetApplication returns the application as the caller's audience sees it
func (h *Handler) GetApplication(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.Workflow.GetApplication(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "get_application", err)
		return
	}
	response.OK(c, view)
}

type listApplicationsQuery struct {
	Status      string `form:"status"`
	JobID       string `form:"job_id"`
	CandidateID string `form:"candidate_id"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

// ListApplications lists applications visible to the caller
func (h *Handler) ListApplications(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q listApplicationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}

	f := workflow.ApplicationFilter{Limit: q.PageSize, Offset: (q.Page - 1) * q.PageSize}
	if q.Status != "" {
		st := model.ApplicationStatus(q.Status)
		if !st.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
		f.Status = &st
	}
	for _, p := range []struct {
		raw string
		dst **uuid.UUID
	}{{q.JobID, &f.JobID}, {q.CandidateID, &f.CandidateID}} {
		if p.raw == "" {
			continue
		}
		id, err := uuid.Parse(p.raw)
		if err != nil {
			response.BadRequest(c, "invalid id filter")
			return
		}
		*p.dst = &id
	}

	apps, total, err := h.Workflow.ListApplications(c.Request.Context(), actor, f)
	if err != nil {
		h.fail(c, "list_applications", err)
		return
	}
	response.OKWithMeta(c, apps, &response.Meta{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		HasNext:  q.Page*q.PageSize < total,
	})
}

// Advance moves an application to a new pipeline status
func (h *Handler) Advance(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.AdvanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	app, err := h.Workflow.Advance(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "advance", err)
		return
	}
	response.OK(c, app)
}

func (h *Handler) Reject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.RejectReq
	if !bind(c, &req) {
		return
	}
	app, err := h.Workflow.Reject(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "reject", err)
		return
	}
	response.OK(c, app)
}

func (h *Handler) Withdraw(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.WithdrawReq
	if !bind(c, &req) {
		return
	}
	app, err := h.Workflow.Withdraw(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "withdraw", err)
		return
	}
	response.OK(c, app)
}

func (h *Handler) UpdateHiredStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.HiredStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	app, err := h.Workflow.UpdateHiredStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "update_hired_status", err)
		return
	}
	response.OK(c, app)
}

func (h *Handler) UpdateClientFeedback(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.ClientFeedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	fb, err := h.Workflow.UpdateClientFeedback(c.Request.Context(), actor, id, req)
	if err != nil {
		h.fail(c, "update_client_feedback", err)
		return
	}
	response.OK(c, fb)
}

// ListTimeline returns an application's activity, oldest first
func (h *Handler) ListTimeline(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.Workflow.ListTimeline(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, "list_timeline", err)
		return
	}
	response.OKWithMeta(c, entries, &response.Meta{Total: len(entries)})
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
