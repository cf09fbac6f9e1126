package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

func statusPayload(app *model.Application, from model.ApplicationStatus) map[string]any {
	return map[string]any{
		"application_id":     app.ID.String(),
		"candidate_id":       app.CandidateID.String(),
		"job_id":             app.JobID.String(),
		"old_status":         string(from),
		"new_status":         string(app.Status),
		"released_to_client": app.ReleasedToClient,
	}
}

func (s *Service) CreateApplication(ctx context.Context, actor model.Actor, req model.CreateApplicationReq) (*model.Application, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleCandidate); err != nil {
		return nil, err
	}
	if actor.Role == model.RoleCandidate {
		if req.CandidateID != actor.UserID {
			return nil, apperr.New(apperr.CodeForbidden, "candidates can only apply for themselves")
		}
		req.Invited = false
	}

	owner, err := s.store.GetJobOwner(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if owner.AgencyID != actor.AgencyID {
		return nil, apperr.NotFound("job")
	}

	if _, err := s.store.FindApplication(ctx, req.CandidateID, req.JobID); err == nil {
		return nil, apperr.New(apperr.CodeConflict, "candidate already has an application for this job")
	} else if !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}

	now := s.now()
	app := &model.Application{
		ID:            uuid.New(),
		AgencyID:      owner.AgencyID,
		ClientID:      owner.ClientID,
		CandidateID:   req.CandidateID,
		JobID:         req.JobID,
		Status:        model.StatusSubmitted,
		ReleaseStatus: model.ReleaseNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Invited {
		app.Status = model.StatusInvited
	}

	err = s.commit(ctx, func(tx Store) error {
		if err := tx.CreateApplication(ctx, app); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, app.AgencyID, model.EventApplicationCreated, statusPayload(app, ""))
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, app.ID, model.ActionCreated, fmt.Sprintf("Application created with status %s", app.Status), map[string]any{
		"status": string(app.Status),
	})
	return app, nil
}

// Advance moves an application along the transition table. Force lets a
// recruiter override the table for manual corrections.
func (s *Service) Advance(ctx context.Context, actor model.Actor, id uuid.UUID, req model.AdvanceReq) (*model.Application, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperr.Invalid("invalid status", map[string]string{"status": "unknown application status " + string(req.Status)})
	}
	if req.Status == model.StatusRejected {
		return nil, apperr.Invalid("use reject to reject an application", map[string]string{"status": "rejected requires a reason"})
	}

	var app *model.Application
	var from model.ApplicationStatus
	unchanged := false
	err := s.commit(ctx, func(tx Store) error {
		var err error
		app, err = s.loadApplication(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != app.Version {
			return apperr.New(apperr.CodeConflict, "application was modified concurrently")
		}
		from = app.Status
		if from == req.Status && req.Notes == nil {
			unchanged = true
			return nil
		}
		if !CanTransition(from, req.Status) && !req.Force {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot move application from %s to %s", from, req.Status))
		}

		app.Status = req.Status
		if req.Notes != nil {
			app.StatusNotes = req.Notes
		}
		if from == model.StatusRejected && app.Status != model.StatusRejected {
			app.RejectionReason = nil
			app.RejectedBy = nil
			app.RejectedByID = nil
			app.RejectedDate = nil
		}
		// Released applications must stay at shortlisted or later.
		if app.ReleasedToClient && app.Status.Rank() >= 0 && app.Status.Rank() < model.StatusShortlisted.Rank() {
			app.ReleasedToClient = false
			app.ReleaseStatus = model.ReleaseSentBack
		}
		app.UpdatedAt = s.now()
		if err := tx.UpdateApplication(ctx, app); err != nil {
			return err
		}
		if from == app.Status {
			return nil
		}
		payload := statusPayload(app, from)
		payload["forced"] = req.Force
		return s.enqueue(ctx, tx, app.AgencyID, model.EventApplicationStatusChanged, payload)
	})
	if err != nil {
		return nil, err
	}

	if unchanged {
		return app, nil
	}

	meta := map[string]any{"from": string(from), "to": string(app.Status)}
	if req.Force {
		meta["forced"] = true
	}
	if req.Notes != nil {
		meta["notes"] = *req.Notes
	}
	desc := fmt.Sprintf("Status changed from %s to %s", from, app.Status)
	if from == app.Status {
		desc = fmt.Sprintf("Status notes updated at %s", app.Status)
	}
	s.record(ctx, actor, app.ID, model.ActionStatusChanged, desc, meta)
	return app, nil
}

func (s *Service) Reject(ctx context.Context, actor model.Actor, id uuid.UUID, req model.RejectReq) (*model.Application, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleClient); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	fields := map[string]string{}
	if reason == "" {
		fields["reason"] = "required"
	}
	if req.RejectedBy != model.RejectedByClient && req.RejectedBy != model.RejectedByRecruiter {
		fields["rejected_by"] = "must be client or recruiter"
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("invalid rejection", fields)
	}
	if actor.Role == model.RoleClient && req.RejectedBy != model.RejectedByClient {
		return nil, apperr.New(apperr.CodeForbidden, "clients can only reject as client")
	}

	var app *model.Application
	var from model.ApplicationStatus
	err := s.commit(ctx, func(tx Store) error {
		var err error
		app, err = s.loadApplication(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		from = app.Status
		if from == model.StatusRejected || !CanTransition(from, model.StatusRejected) {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot reject an application in status %s", from))
		}

		now := s.now()
		rejectedByID := req.RejectedByID
		if rejectedByID == nil && actor.UserID != uuid.Nil {
			rejectedByID = ptr(actor.UserID)
		}
		by := req.RejectedBy
		app.Status = model.StatusRejected
		app.RejectionReason = &reason
		app.RejectedBy = &by
		app.RejectedByID = rejectedByID
		app.RejectedDate = &now
		app.UpdatedAt = now
		if err := tx.UpdateApplication(ctx, app); err != nil {
			return err
		}
		payload := statusPayload(app, from)
		payload["rejection_reason"] = reason
		payload["rejected_by"] = string(by)
		return s.enqueue(ctx, tx, app.AgencyID, model.EventApplicationStatusChanged, payload)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, app.ID, model.ActionRejected, fmt.Sprintf("Rejected by %s: %s", req.RejectedBy, reason), map[string]any{
		"from":        string(from),
		"reason":      reason,
		"rejected_by": string(req.RejectedBy),
	})
	return app, nil
}

func (s *Service) Withdraw(ctx context.Context, actor model.Actor, id uuid.UUID, req model.WithdrawReq) (*model.Application, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleCandidate); err != nil {
		return nil, err
	}

	var app *model.Application
	var from model.ApplicationStatus
	err := s.commit(ctx, func(tx Store) error {
		var err error
		app, err = s.loadApplication(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		from = app.Status
		if from == model.StatusWithdrawn || !CanTransition(from, model.StatusWithdrawn) {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot withdraw an application in status %s", from))
		}
		app.Status = model.StatusWithdrawn
		if req.Reason != nil {
			app.StatusNotes = req.Reason
		}
		app.UpdatedAt = s.now()
		if err := tx.UpdateApplication(ctx, app); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, app.AgencyID, model.EventApplicationStatusChanged, statusPayload(app, from))
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"from": string(from)}
	if req.Reason != nil {
		meta["reason"] = *req.Reason
	}
	s.record(ctx, actor, app.ID, model.ActionWithdrawn, "Application withdrawn", meta)
	return app, nil
}

// UpdateHiredStatus writes only the fields present in req.
func (s *Service) UpdateHiredStatus(ctx context.Context, actor model.Actor, id uuid.UUID, req model.HiredStatusReq) (*model.Application, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	if req.StartedStatus != nil && !req.StartedStatus.Valid() {
		return nil, apperr.Invalid("invalid started status", map[string]string{"started_status": "must be hired, started or no_show"})
	}
	if req.OfferAcceptanceDate == nil && req.ContractSigned == nil && req.FirstDayDate == nil && req.StartedStatus == nil {
		return nil, apperr.Invalid("no fields to update", nil)
	}

	meta := map[string]any{}
	var app *model.Application
	err := s.commit(ctx, func(tx Store) error {
		var err error
		app, err = s.loadApplication(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if req.OfferAcceptanceDate != nil {
			app.OfferAcceptanceDate = req.OfferAcceptanceDate
			meta["offer_acceptance_date"] = req.OfferAcceptanceDate.Format("2006-01-02")
		}
		if req.ContractSigned != nil {
			app.ContractSigned = *req.ContractSigned
			meta["contract_signed"] = *req.ContractSigned
		}
		if req.FirstDayDate != nil {
			app.FirstDayDate = req.FirstDayDate
			meta["first_day_date"] = req.FirstDayDate.Format("2006-01-02")
		}
		if req.StartedStatus != nil {
			app.StartedStatus = req.StartedStatus
			meta["started_status"] = string(*req.StartedStatus)
		}
		app.UpdatedAt = s.now()
		if err := tx.UpdateApplication(ctx, app); err != nil {
			return err
		}
		if req.StartedStatus == nil {
			return nil
		}
		return s.enqueue(ctx, tx, app.AgencyID, model.EventStartedStatusChanged, map[string]any{
			"application_id": app.ID.String(),
			"candidate_id":   app.CandidateID.String(),
			"job_id":         app.JobID.String(),
			"started_status": string(*req.StartedStatus),
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, app.ID, model.ActionHiredStatusUpdated, "Hire details updated", meta)
	return app, nil
}

// UpdateClientFeedback stores the client's own notes and rating. It never
// touches the application row.
func (s *Service) UpdateClientFeedback(ctx context.Context, actor model.Actor, id uuid.UUID, req model.ClientFeedbackReq) (*model.ClientFeedback, error) {
	if err := requireRole(actor, model.RoleClient); err != nil {
		return nil, err
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, apperr.Invalid("invalid rating", map[string]string{"rating": "must be between 1 and 5"})
	}
	if req.Notes == nil && req.Rating == nil {
		return nil, apperr.Invalid("no fields to update", nil)
	}

	app, err := s.loadApplication(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}

	fb := &model.ClientFeedback{
		ApplicationID: app.ID,
		Notes:         req.Notes,
		Rating:        req.Rating,
		UpdatedBy:     ptr(actor.UserID),
		UpdatedAt:     s.now(),
	}
	err = s.commit(ctx, func(tx Store) error {
		if err := tx.UpsertClientFeedback(ctx, fb); err != nil {
			return err
		}
		payload := map[string]any{"application_id": app.ID.String()}
		if fb.Rating != nil {
			payload["rating"] = *fb.Rating
		}
		return s.enqueue(ctx, tx, app.AgencyID, model.EventClientFeedbackUpdated, payload)
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if req.Rating != nil {
		meta["rating"] = *req.Rating
	}
	s.record(ctx, actor, app.ID, model.ActionClientFeedback, "Client feedback updated", meta)
	return fb, nil
}

// GetApplication returns the application as the actor's audience may see it.
func (s *Service) GetApplication(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ApplicationView, error) {
	app, err := s.loadApplication(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}
	rooms, err := s.store.ListRoomDetails(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	view, err := FilterForAudience(app, rooms, AudienceFor(actor.Role))
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleCandidate {
		return view, nil
	}
	fb, err := s.store.GetClientFeedback(ctx, app.ID)
	switch {
	case err == nil:
		view.Feedback = fb
	case !apperr.Is(err, apperr.CodeNotFound):
		return nil, err
	}
	return view, nil
}

// ListApplications narrows f to what the actor may see before querying.
func (s *Service) ListApplications(ctx context.Context, actor model.Actor, f ApplicationFilter) ([]model.Application, int, error) {
	f.AgencyID = actor.AgencyID
	switch actor.Role {
	case model.RoleRecruiter:
	case model.RoleClient:
		if actor.ClientID == nil {
			return nil, 0, apperr.New(apperr.CodeForbidden, "client scope missing")
		}
		f.ClientID = actor.ClientID
		f.ReleasedOnly = true
	case model.RoleCandidate:
		f.CandidateID = ptr(actor.UserID)
	default:
		return nil, 0, apperr.New(apperr.CodeForbidden, "operation not permitted for role "+string(actor.Role))
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.ListApplications(ctx, f)
}
