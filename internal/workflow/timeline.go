package workflow

import (
	"context"
	"strings"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

// Append validates and inserts one timeline entry. Entries are never updated
// or deleted afterwards.
func (s *Service) Append(ctx context.Context, e *model.TimelineEntry) error {
	fields := map[string]string{}
	if e.ApplicationID == uuid.Nil {
		fields["application_id"] = "required"
	}
	if strings.TrimSpace(e.ActionType) == "" {
		fields["action_type"] = "required"
	}
	if !e.PerformedByType.Valid() {
		fields["performed_by_type"] = "must be candidate, recruiter, client or system"
	}
	if strings.TrimSpace(e.Description) == "" {
		fields["description"] = "required"
	}
	if len(fields) > 0 {
		return apperr.Invalid("invalid timeline entry", fields)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	return s.store.AppendTimeline(ctx, e)
}

// ListTimeline returns the entries of an application the actor can see, oldest first.
func (s *Service) ListTimeline(ctx context.Context, actor model.Actor, applicationID uuid.UUID) ([]model.TimelineEntry, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleClient); err != nil {
		return nil, err
	}
	if _, err := s.loadApplication(ctx, s.store, actor, applicationID); err != nil {
		return nil, err
	}
	return s.store.ListTimeline(ctx, applicationID)
}

// Dispatch queues an event for webhook delivery outside of any workflow
// transaction. Delivery itself happens asynchronously in the dispatcher.
func (s *Service) Dispatch(ctx context.Context, agencyID uuid.UUID, eventType string, payload map[string]any) error {
	if err := s.enqueue(ctx, s.store, agencyID, eventType, payload); err != nil {
		return err
	}
	if s.opts.Kick != nil {
		s.opts.Kick()
	}
	return nil
}

// enqueue writes an outbox row through st, normally the transaction carrying
// the state change the event describes.
func (s *Service) enqueue(ctx context.Context, st ActivityStore, agencyID uuid.UUID, eventType string, payload map[string]any) error {
	if eventType == "" {
		return apperr.Invalid("event type is required", map[string]string{"event_type": "required"})
	}
	ev := &model.OutboxEvent{
		ID:        uuid.New(),
		AgencyID:  agencyID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	if err := st.EnqueueEvent(ctx, ev); err != nil {
		return apperr.Internal("enqueue event", err)
	}
	return nil
}
