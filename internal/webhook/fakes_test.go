package webhook

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

type fakeStore struct {
	mu         sync.Mutex
	subs       map[uuid.UUID]model.WebhookSubscription
	events     []model.OutboxEvent
	deliveries map[uuid.UUID]model.WebhookDelivery
	order      []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subs:       make(map[uuid.UUID]model.WebhookSubscription),
		deliveries: make(map[uuid.UUID]model.WebhookDelivery),
	}
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(f)
}

func (f *fakeStore) CreateSubscription(ctx context.Context, s *model.WebhookSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[s.ID] = *s
	return nil
}

func (f *fakeStore) GetSubscription(ctx context.Context, id uuid.UUID) (*model.WebhookSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, apperr.NotFound("webhook")
	}
	return &s, nil
}

func (f *fakeStore) ListSubscriptions(ctx context.Context, agencyID uuid.UUID) ([]model.WebhookSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WebhookSubscription
	for _, s := range f.subs {
		if s.AgencyID == agencyID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

func (f *fakeStore) ActiveSubscriptions(ctx context.Context, agencyID uuid.UUID) ([]model.WebhookSubscription, error) {
	all, _ := f.ListSubscriptions(ctx, agencyID)
	var out []model.WebhookSubscription
	for _, s := range all {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteSubscription(ctx context.Context, agencyID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok || s.AgencyID != agencyID {
		return apperr.NotFound("webhook")
	}
	delete(f.subs, id)
	return nil
}

func (f *fakeStore) TouchSubscription(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.subs[id]
	s.LastTriggeredAt = &at
	f.subs[id] = s
	return nil
}

func (f *fakeStore) ClaimEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OutboxEvent
	for _, ev := range f.events {
		if ev.ProcessedAt == nil && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkEventProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].ProcessedAt = &at
		}
	}
	return nil
}

func (f *fakeStore) CreateDelivery(ctx context.Context, d *model.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries[d.ID] = *d
	f.order = append(f.order, d.ID)
	return nil
}

func (f *fakeStore) ClaimDueDeliveries(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.WebhookDelivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WebhookDelivery
	for _, id := range f.order {
		d := f.deliveries[id]
		if d.Status != model.DeliveryPending && d.Status != model.DeliveryRetrying {
			continue
		}
		if d.NextAttemptAt.After(now) || len(out) >= limit {
			continue
		}
		out = append(out, d)
		d.NextAttemptAt = now.Add(lease)
		f.deliveries[id] = d
	}
	return out, nil
}

func (f *fakeStore) UpdateDelivery(ctx context.Context, d *model.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries[d.ID] = *d
	return nil
}

func (f *fakeStore) ListDeliveries(ctx context.Context, subscriptionID uuid.UUID, limit int) ([]model.WebhookDelivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WebhookDelivery
	for _, id := range f.order {
		if d := f.deliveries[id]; d.SubscriptionID == subscriptionID && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) only() model.WebhookDelivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deliveries[f.order[0]]
}

// plainBox stores secrets with a marker prefix so tests can tell they went
// through Encrypt.
type plainBox struct{}

func (plainBox) Encrypt(plain string) (string, error) { return "enc:" + plain, nil }

func (plainBox) Decrypt(c string) (string, error) {
	p, ok := strings.CutPrefix(c, "enc:")
	if !ok {
		return "", apperr.New(apperr.CodeInternal, "not encrypted")
	}
	return p, nil
}
