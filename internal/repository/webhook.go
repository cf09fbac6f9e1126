package repository

import (
	"context"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/internal/webhook"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WebhookRepository is the Postgres implementation of webhook.Store.
type WebhookRepository struct {
	conn
}

var _ webhook.Store = (*WebhookRepository)(nil)

func (r *WebhookRepository) WithinTx(ctx context.Context, fn func(tx webhook.Store) error) error {
	return r.inTx(ctx, func(c conn) error {
		return fn(&WebhookRepository{conn: c})
	})
}

const subscriptionCols = `id, agency_id, url, secret, events, active, last_triggered_at, created_at`

func scanSubscription(row pgx.Row) (*model.WebhookSubscription, error) {
	var s model.WebhookSubscription
	if err := row.Scan(&s.ID, &s.AgencyID, &s.URL, &s.EncryptedSecret, &s.Events, &s.Active, &s.LastTriggeredAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *WebhookRepository) CreateSubscription(ctx context.Context, s *model.WebhookSubscription) error {
	const q = `INSERT INTO webhooks (` + subscriptionCols + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, q, s.ID, s.AgencyID, s.URL, s.EncryptedSecret, s.Events, s.Active, s.LastTriggeredAt, s.CreatedAt)
	return dbErr(err, "webhook")
}

func (r *WebhookRepository) GetSubscription(ctx context.Context, id uuid.UUID) (*model.WebhookSubscription, error) {
	s, err := scanSubscription(r.db.QueryRow(ctx, `SELECT `+subscriptionCols+` FROM webhooks WHERE id = $1`, id))
	if err != nil {
		return nil, dbErr(err, "webhook")
	}
	return s, nil
}

func (r *WebhookRepository) listSubscriptions(ctx context.Context, q string, args ...any) ([]model.WebhookSubscription, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, dbErr(err, "webhooks")
	}
	defer rows.Close()
	out := []model.WebhookSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, dbErr(err, "webhooks")
		}
		out = append(out, *s)
	}
	return out, dbErr(rows.Err(), "webhooks")
}

func (r *WebhookRepository) ListSubscriptions(ctx context.Context, agencyID uuid.UUID) ([]model.WebhookSubscription, error) {
	return r.listSubscriptions(ctx,
		`SELECT `+subscriptionCols+` FROM webhooks WHERE agency_id = $1 ORDER BY created_at`, agencyID)
}

func (r *WebhookRepository) ActiveSubscriptions(ctx context.Context, agencyID uuid.UUID) ([]model.WebhookSubscription, error) {
	return r.listSubscriptions(ctx,
		`SELECT `+subscriptionCols+` FROM webhooks WHERE agency_id = $1 AND active ORDER BY created_at`, agencyID)
}

// DeleteSubscription also drops the subscription's delivery history (ON
// DELETE CASCADE). In-flight deliveries then fail as deleted.
func (r *WebhookRepository) DeleteSubscription(ctx context.Context, agencyID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1 AND agency_id = $2`, id, agencyID)
	if err != nil {
		return dbErr(err, "webhook")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("webhook")
	}
	return nil
}

func (r *WebhookRepository) TouchSubscription(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE webhooks SET last_triggered_at = $2 WHERE id = $1`, id, at)
	return dbErr(err, "webhook")
}

// ClaimEvents must run inside WithinTx; the row locks are what keep two
// dispatchers from fanning out the same event.
func (r *WebhookRepository) ClaimEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	const q = `
SELECT id, agency_id, event_type, payload, created_at, processed_at
FROM outbox_events
WHERE processed_at IS NULL
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED
`
	rows, err := r.db.Query(ctx, q, limit)
	if err != nil {
		return nil, dbErr(err, "events")
	}
	defer rows.Close()
	var out []model.OutboxEvent
	for rows.Next() {
		var ev model.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AgencyID, &ev.EventType, &ev.Payload, &ev.CreatedAt, &ev.ProcessedAt); err != nil {
			return nil, dbErr(err, "events")
		}
		out = append(out, ev)
	}
	return out, dbErr(rows.Err(), "events")
}

func (r *WebhookRepository) MarkEventProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox_events SET processed_at = $2 WHERE id = $1`, id, at)
	return dbErr(err, "event")
}

const deliveryCols = `
	id, subscription_id, event_id, event_type, payload, status, attempts,
	max_attempts, next_attempt_at, response_code, last_error, delivered_at, created_at`

func scanDelivery(row pgx.Row) (*model.WebhookDelivery, error) {
	var d model.WebhookDelivery
	err := row.Scan(
		&d.ID, &d.SubscriptionID, &d.EventID, &d.EventType, &d.Payload, &d.Status, &d.Attempts,
		&d.MaxAttempts, &d.NextAttemptAt, &d.ResponseCode, &d.LastError, &d.DeliveredAt, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *WebhookRepository) CreateDelivery(ctx context.Context, d *model.WebhookDelivery) error {
	const q = `
INSERT INTO webhook_deliveries (` + deliveryCols + `
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.Exec(ctx, q,
		d.ID, d.SubscriptionID, d.EventID, d.EventType, d.Payload, d.Status, d.Attempts,
		d.MaxAttempts, d.NextAttemptAt, d.ResponseCode, d.LastError, d.DeliveredAt, d.CreatedAt,
	)
	return dbErr(err, "webhook delivery")
}

func (r *WebhookRepository) ClaimDueDeliveries(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.WebhookDelivery, error) {
	const q = `
WITH due AS (
	SELECT id FROM webhook_deliveries
	WHERE status IN ('pending', 'retrying') AND next_attempt_at <= $1
	ORDER BY next_attempt_at
	LIMIT $3
	FOR UPDATE SKIP LOCKED
)
UPDATE webhook_deliveries d SET next_attempt_at = $2
FROM due WHERE d.id = due.id
RETURNING d.id, d.subscription_id, d.event_id, d.event_type, d.payload, d.status, d.attempts,
	d.max_attempts, d.next_attempt_at, d.response_code, d.last_error, d.delivered_at, d.created_at
`
	rows, err := r.db.Query(ctx, q, now, now.Add(lease), limit)
	if err != nil {
		return nil, dbErr(err, "webhook deliveries")
	}
	defer rows.Close()
	var out []model.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, dbErr(err, "webhook deliveries")
		}
		out = append(out, *d)
	}
	return out, dbErr(rows.Err(), "webhook deliveries")
}

func (r *WebhookRepository) UpdateDelivery(ctx context.Context, d *model.WebhookDelivery) error {
	const q = `
UPDATE webhook_deliveries SET
	status = $2, attempts = $3, next_attempt_at = $4, response_code = $5,
	last_error = $6, delivered_at = $7
WHERE id = $1
`
	tag, err := r.db.Exec(ctx, q, d.ID, d.Status, d.Attempts, d.NextAttemptAt, d.ResponseCode, d.LastError, d.DeliveredAt)
	if err != nil {
		return dbErr(err, "webhook delivery")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("webhook delivery")
	}
	return nil
}

func (r *WebhookRepository) ListDeliveries(ctx context.Context, subscriptionID uuid.UUID, limit int) ([]model.WebhookDelivery, error) {
	q := `SELECT` + deliveryCols + ` FROM webhook_deliveries WHERE subscription_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, q, subscriptionID, limit)
	if err != nil {
		return nil, dbErr(err, "webhook deliveries")
	}
	defer rows.Close()
	out := []model.WebhookDelivery{}
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, dbErr(err, "webhook deliveries")
		}
		out = append(out, *d)
	}
	return out, dbErr(rows.Err(), "webhook deliveries")
}
