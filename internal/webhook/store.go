package webhook

import (
	"context"
	"time"

	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s *model.WebhookSubscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*model.WebhookSubscription, error)
	ListSubscriptions(ctx context.Context, agencyID uuid.UUID) ([]model.WebhookSubscription, error)
	ActiveSubscriptions(ctx context.Context, agencyID uuid.UUID) ([]model.WebhookSubscription, error)
	DeleteSubscription(ctx context.Context, agencyID, id uuid.UUID) error
	TouchSubscription(ctx context.Context, id uuid.UUID, at time.Time) error
}

type DeliveryStore interface {
	// ClaimEvents locks up to limit unprocessed outbox events for the current
	// transaction. Rows locked by another worker are skipped.
	ClaimEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateDelivery(ctx context.Context, d *model.WebhookDelivery) error
	// ClaimDueDeliveries returns pending or retrying deliveries due at now and
	// pushes their next_attempt_at forward by lease so no other worker picks
	// them up while they are in flight.
	ClaimDueDeliveries(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.WebhookDelivery, error)
	UpdateDelivery(ctx context.Context, d *model.WebhookDelivery) error
	ListDeliveries(ctx context.Context, subscriptionID uuid.UUID, limit int) ([]model.WebhookDelivery, error)
}

type Store interface {
	SubscriptionStore
	DeliveryStore
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// SecretBox encrypts subscription secrets at rest.
type SecretBox interface {
	Encrypt(plain string) (string, error)
	Decrypt(cipherText string) (string, error)
}
