package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

func TestAppendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry model.TimelineEntry
		field string
	}{
		{name: "missing application", entry: model.TimelineEntry{ActionType: "note", PerformedByType: model.ActorRecruiter, Description: "x"}, field: "application_id"},
		{name: "missing action", entry: model.TimelineEntry{ApplicationID: uuid.New(), PerformedByType: model.ActorRecruiter, Description: "x"}, field: "action_type"},
		{name: "bad actor type", entry: model.TimelineEntry{ApplicationID: uuid.New(), ActionType: "note", PerformedByType: "robot", Description: "x"}, field: "performed_by_type"},
		{name: "blank description", entry: model.TimelineEntry{ApplicationID: uuid.New(), ActionType: "note", PerformedByType: model.ActorClient, Description: " "}, field: "description"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := tc.entry
			err := f.svc.Append(ctx, &e)
			wantCode(t, err, apperr.CodeInvalidArgument)
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Fields[tc.field] == "" {
				t.Fatalf("expected field %s in %+v", tc.field, err)
			}
		})
	}
	if len(f.store.timeline) != 0 {
		t.Fatalf("invalid entries written")
	}

	e := &model.TimelineEntry{ApplicationID: uuid.New(), ActionType: "note", PerformedByType: model.ActorSystem, Description: "imported"}
	mustNoErr(t, f.svc.Append(ctx, e))
	if e.ID == uuid.Nil || !e.CreatedAt.Equal(f.now) {
		t.Fatalf("id and created_at must be set: %+v", e)
	}
}

func TestListTimelineRespectsGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.seedApplication(model.StatusSubmitted, false)
	_, err := f.svc.Advance(ctx, f.recruiter, app.ID, model.AdvanceReq{Status: model.StatusUnderReview})
	mustNoErr(t, err)

	entries, err := f.svc.ListTimeline(ctx, f.recruiter, app.ID)
	mustNoErr(t, err)
	if len(entries) != 1 || entries[0].PerformedByType != model.ActorRecruiter || *entries[0].PerformedByID != f.recruiter.UserID {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	_, err = f.svc.ListTimeline(ctx, f.client, app.ID)
	wantCode(t, err, apperr.CodeNotFound)
	_, err = f.svc.ListTimeline(ctx, f.candidate, app.ID)
	wantCode(t, err, apperr.CodeForbidden)
}

func TestDispatchKicks(t *testing.T) {
	f := newFixture(t)
	mustNoErr(t, f.svc.Dispatch(context.Background(), f.agencyID, "custom.ping", map[string]any{"ok": true}))
	if f.kicks != 1 || len(f.store.events) != 1 || f.store.events[0].AgencyID != f.agencyID {
		t.Fatalf("dispatch did not enqueue: kicks=%d events=%v", f.kicks, f.store.eventTypes())
	}
	wantCode(t, f.svc.Dispatch(context.Background(), f.agencyID, "", nil), apperr.CodeInvalidArgument)
}
