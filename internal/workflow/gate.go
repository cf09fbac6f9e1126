package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

type Audience string

const (
	AudienceRecruiter Audience = "recruiter"
	AudienceClient    Audience = "client"
	AudienceCandidate Audience = "candidate"
)

func AudienceFor(role model.Role) Audience {
	switch role {
	case model.RoleClient:
		return AudienceClient
	case model.RoleCandidate:
		return AudienceCandidate
	default:
		return AudienceRecruiter
	}
}

// FilterForAudience builds the view of app and its rooms that audience may see.
// It has no side effects.
func FilterForAudience(app *model.Application, rooms []model.RoomDetail, audience Audience) (*model.ApplicationView, error) {
	if audience == AudienceClient && !app.ReleasedToClient {
		return nil, apperr.NotFound("application")
	}
	view := &model.ApplicationView{
		Application: *app,
		Rooms:       make([]model.RoomView, 0, len(rooms)),
	}
	for _, rd := range rooms {
		view.Rooms = append(view.Rooms, filterRoom(rd, audience))
	}
	return view, nil
}

func filterRoom(rd model.RoomDetail, audience Audience) model.RoomView {
	r := rd.Room
	v := model.RoomView{
		ID:                 r.ID,
		ApplicationID:      r.ApplicationID,
		CallType:           r.CallType,
		Title:              r.Title,
		Status:             r.Status,
		Outcome:            r.Outcome,
		ScheduledFor:       r.ScheduledFor,
		StartedAt:          r.StartedAt,
		EndedAt:            r.EndedAt,
		DurationSeconds:    r.DurationSeconds,
		ShareWithClient:    r.ShareWithClient,
		ShareWithCandidate: r.ShareWithCandidate,
		Recordings:         []model.Recording{},
		Transcripts:        []model.Transcript{},
	}

	switch audience {
	case AudienceCandidate:
		if !r.ShareWithCandidate {
			return v
		}
		if rd.Recording != nil && rd.Recording.SharedWithCandidate {
			v.Recordings = append(v.Recordings, *rd.Recording)
		}
		if rd.Transcript != nil && rd.Transcript.SharedWithCandidate {
			v.Transcripts = append(v.Transcripts, *rd.Transcript)
		}
		return v
	case AudienceClient:
		if !r.CallType.ClientLed() && !r.ShareWithClient {
			return v
		}
	}

	v.RoomName = ptr(r.ProviderRoomName)
	v.RoomURL = ptr(r.ProviderRoomURL)
	v.Notes = r.Notes
	if rd.Recording != nil {
		v.Recordings = append(v.Recordings, *rd.Recording)
	}
	if rd.Transcript != nil {
		v.Transcripts = append(v.Transcripts, *rd.Transcript)
	}
	return v
}

// ReleaseResult reports a gate operation that may have partially failed on
// individual rooms. The application write itself either fully succeeds or the
// whole call returns an error.
type ReleaseResult struct {
	Application *model.Application     `json:"application"`
	Failures    []model.PartialFailure `json:"failures"`
}

func (r *ReleaseResult) Partial() bool {
	return len(r.Failures) > 0
}

// Release exposes an application to its client and applies per-room sharing.
// Room writes are applied independently of each other; failures are collected
// and the rest still commits.
func (s *Service) Release(ctx context.Context, actor model.Actor, id uuid.UUID, req model.ReleaseReq) (*ReleaseResult, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	target := req.Status
	if target == "" {
		target = model.StatusShortlisted
	}
	if !target.Valid() || target.Rank() < model.StatusShortlisted.Rank() || target.Terminal() {
		return nil, apperr.Invalid("invalid release status", map[string]string{"status": "must be shortlisted or a later non-terminal pipeline status"})
	}
	releasedBy := req.ReleasedBy
	if releasedBy == uuid.Nil {
		releasedBy = actor.UserID
	}

	app, err := s.loadApplication(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}
	if app.Status.Terminal() {
		return nil, apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot release an application in status %s", app.Status))
	}

	res := &ReleaseResult{Failures: []model.PartialFailure{}}
	sharedClient := s.applySharing(ctx, app.ID, AudienceClient, req.ShareCallsWithClient, res)
	sharedCandidate := s.applySharing(ctx, app.ID, AudienceCandidate, req.ShareCallsWithCandidate, res)

	var from model.ApplicationStatus
	err = s.commit(ctx, func(tx Store) error {
		cur, err := s.loadApplication(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot release an application in status %s", cur.Status))
		}
		from = cur.Status
		// A release never moves an application backwards.
		if cur.Status.Rank() < target.Rank() {
			cur.Status = target
		}
		now := s.now()
		cur.ReleasedToClient = true
		cur.ReleaseStatus = model.ReleaseReleased
		cur.ReleasedAt = &now
		cur.ReleasedBy = &releasedBy
		cur.UpdatedAt = now
		if err := tx.UpdateApplication(ctx, cur); err != nil {
			return err
		}
		app = cur
		return s.enqueue(ctx, tx, cur.AgencyID, model.EventApplicationStatusChanged, statusPayload(cur, from))
	})
	if err != nil {
		return nil, err
	}
	res.Application = app

	s.record(ctx, actor, app.ID, model.ActionReleasedToClient,
		fmt.Sprintf("Released to client (%d calls shared with client, %d with candidate)", sharedClient, sharedCandidate),
		map[string]any{
			"from":                        string(from),
			"to":                          string(app.Status),
			"rooms_shared_with_client":    sharedClient,
			"rooms_shared_with_candidate": sharedCandidate,
			"failures":                    len(res.Failures),
		})
	return res, nil
}

// applySharing writes one audience flag per listed room and returns how many
// rooms ended up shared.
func (s *Service) applySharing(ctx context.Context, applicationID uuid.UUID, audience Audience, list []model.ShareFlags, res *ReleaseResult) int {
	shared := 0
	for _, f := range list {
		on := f.Shared()
		if err := s.store.SetRoomSharing(ctx, f.RoomID, applicationID, audience, on); err != nil {
			s.log.Sugar().Warnw("room sharing update failed",
				"application_id", applicationID,
				"room_id", f.RoomID,
				"audience", audience,
				"error", err,
			)
			res.Failures = append(res.Failures, model.PartialFailure{
				RoomID:   f.RoomID,
				Audience: string(audience),
				Reason:   failureReason(err),
			})
			continue
		}
		if on {
			shared++
		}
	}
	return shared
}

func failureReason(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Code != apperr.CodeInternal {
		return e.Message
	}
	return "sharing update failed"
}

// SendBack withdraws the client's access to an application. Sharing already
// applied to rooms is left untouched; RevokeSharing undoes it explicitly.
func (s *Service) SendBack(ctx context.Context, actor model.Actor, id uuid.UUID, req model.SendBackReq) (*model.Application, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleClient); err != nil {
		return nil, err
	}
	target := req.Status
	if target == "" {
		target = model.StatusUnderReview
	}
	if target.Rank() < 0 || target.Terminal() {
		return nil, apperr.Invalid("invalid send back status", map[string]string{"status": "must be a non-terminal pipeline status"})
	}
	requestedBy := req.RequestedBy
	if requestedBy == uuid.Nil {
		requestedBy = actor.UserID
	}

	var app *model.Application
	var from model.ApplicationStatus
	err := s.commit(ctx, func(tx Store) error {
		var err error
		app, err = s.loadApplication(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if app.Status.Terminal() {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot send back an application in status %s", app.Status))
		}
		from = app.Status
		app.Status = target
		app.ReleasedToClient = false
		app.ReleaseStatus = model.ReleaseSentBack
		if req.Reason != nil {
			app.StatusNotes = req.Reason
		}
		app.UpdatedAt = s.now()
		if err := tx.UpdateApplication(ctx, app); err != nil {
			return err
		}
		payload := statusPayload(app, from)
		payload["sent_back_by"] = requestedBy.String()
		return s.enqueue(ctx, tx, app.AgencyID, model.EventApplicationStatusChanged, payload)
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"from": string(from), "to": string(app.Status), "requested_by": requestedBy.String()}
	if req.Reason != nil {
		meta["reason"] = *req.Reason
	}
	s.record(ctx, actor, app.ID, model.ActionSentBack, "Sent back to recruiter", meta)
	return app, nil
}

// RevokeSharing turns sharing off on the given rooms and their artifacts.
func (s *Service) RevokeSharing(ctx context.Context, actor model.Actor, id uuid.UUID, req model.RevokeSharingReq) (*ReleaseResult, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	if len(req.RoomIDs) == 0 {
		return nil, apperr.Invalid("no rooms given", map[string]string{"room_ids": "required"})
	}
	if !req.FromClient && !req.FromCandidate {
		return nil, apperr.Invalid("nothing to revoke", map[string]string{"from_client": "from_client or from_candidate must be set"})
	}

	app, err := s.loadApplication(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}

	res := &ReleaseResult{Application: app, Failures: []model.PartialFailure{}}
	list := make([]model.ShareFlags, 0, len(req.RoomIDs))
	for _, rid := range req.RoomIDs {
		list = append(list, model.ShareFlags{RoomID: rid})
	}
	if req.FromClient {
		s.applySharing(ctx, app.ID, AudienceClient, list, res)
	}
	if req.FromCandidate {
		s.applySharing(ctx, app.ID, AudienceCandidate, list, res)
	}

	s.record(ctx, actor, app.ID, model.ActionSharingRevoked, fmt.Sprintf("Sharing revoked on %d calls", len(req.RoomIDs)), map[string]any{
		"rooms":          len(req.RoomIDs),
		"from_client":    req.FromClient,
		"from_candidate": req.FromCandidate,
		"failures":       len(res.Failures),
	})
	return res, nil
}
