package repository

import (
	"context"

	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

func (r *WorkflowRepository) AppendTimeline(ctx context.Context, e *model.TimelineEntry) error {
	const q = `
INSERT INTO application_timeline (
	id, application_id, action_type, performed_by_type, performed_by_id,
	description, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := r.db.Exec(ctx, q,
		e.ID, e.ApplicationID, e.ActionType, e.PerformedByType, e.PerformedByID,
		e.Description, metadata, e.CreatedAt,
	)
	return dbErr(err, "timeline entry")
}

func (r *WorkflowRepository) ListTimeline(ctx context.Context, applicationID uuid.UUID) ([]model.TimelineEntry, error) {
	const q = `
SELECT id, application_id, action_type, performed_by_type, performed_by_id,
	description, metadata, created_at
FROM application_timeline
WHERE application_id = $1
ORDER BY created_at, id
`
	rows, err := r.db.Query(ctx, q, applicationID)
	if err != nil {
		return nil, dbErr(err, "timeline")
	}
	defer rows.Close()
	out := []model.TimelineEntry{}
	for rows.Next() {
		var e model.TimelineEntry
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.ActionType, &e.PerformedByType, &e.PerformedByID,
			&e.Description, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, dbErr(err, "timeline")
		}
		out = append(out, e)
	}
	return out, dbErr(rows.Err(), "timeline")
}

func (r *WorkflowRepository) EnqueueEvent(ctx context.Context, ev *model.OutboxEvent) error {
	const q = `
INSERT INTO outbox_events (id, agency_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	payload := ev.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	_, err := r.db.Exec(ctx, q, ev.ID, ev.AgencyID, ev.EventType, payload, ev.CreatedAt)
	return dbErr(err, "event")
}

func (r *WorkflowRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, type, title, message, action_url, is_urgent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, q, n.ID, n.UserID, n.Type, n.Title, n.Message, n.ActionURL, n.IsUrgent, n.CreatedAt)
	return dbErr(err, "notification")
}
