package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userAgent = "Hiregate-Webhooks/1.0"

type Options struct {
	Timeout     time.Duration
	MaxAttempts int
	BatchSize   int
	// Backoff[i] is the wait after failed attempt i+1. The last entry repeats.
	Backoff []time.Duration
	// Lease is how long a claimed delivery stays invisible to other workers.
	Lease time.Duration
	Now   func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		BatchSize:   50,
		Backoff:     []time.Duration{time.Minute, 5 * time.Minute, 30 * time.Minute},
		Lease:       2 * time.Minute,
	}
}

// Dispatcher turns outbox events into signed webhook deliveries and retries
// failed ones. Any number of dispatchers may share one database.
type Dispatcher struct {
	store   Store
	secrets SecretBox
	http    *http.Client
	log     *zap.Logger
	opts    Options

	mu   sync.Mutex
	kick chan struct{}
}

func NewDispatcher(store Store, secrets SecretBox, logger *zap.Logger, opts Options) *Dispatcher {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if len(opts.Backoff) == 0 {
		opts.Backoff = def.Backoff
	}
	if opts.Lease <= 0 {
		opts.Lease = def.Lease
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:   store,
		secrets: secrets,
		http:    &http.Client{Timeout: opts.Timeout},
		log:     logger,
		opts:    opts,
		kick:    make(chan struct{}, 1),
	}
}

// Kick asks the run loop for an immediate pass. It never blocks.
func (d *Dispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Run processes a pass every time Kick is called until ctx is done. Periodic
// passes come from the scheduler.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.kick:
			d.RunOnce(ctx)
		}
	}
}

// RunOnce fans out pending events and attempts every due delivery.
func (d *Dispatcher) RunOnce(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, err := d.Fanout(ctx); err != nil {
		d.log.Sugar().Errorw("webhook fanout failed", "error", err)
	} else if n > 0 {
		d.log.Sugar().Debugw("webhook deliveries created", "count", n)
	}
	if _, err := d.DeliverDue(ctx); err != nil {
		d.log.Sugar().Errorw("webhook delivery pass failed", "error", err)
	}
}

// Fanout claims a batch of outbox events and creates one delivery per
// matching active subscription. Events without subscribers are just marked
// processed.
func (d *Dispatcher) Fanout(ctx context.Context) (int, error) {
	created := 0
	err := d.store.WithinTx(ctx, func(tx Store) error {
		events, err := tx.ClaimEvents(ctx, d.opts.BatchSize)
		if err != nil {
			return err
		}
		now := d.opts.Now()
		for _, ev := range events {
			subs, err := tx.ActiveSubscriptions(ctx, ev.AgencyID)
			if err != nil {
				return err
			}
			body := envelope(ev)
			for _, s := range subs {
				if !s.Matches(ev.EventType) {
					continue
				}
				del := &model.WebhookDelivery{
					ID:             uuid.New(),
					SubscriptionID: s.ID,
					EventID:        ev.ID,
					EventType:      ev.EventType,
					Payload:        body,
					Status:         model.DeliveryPending,
					MaxAttempts:    d.opts.MaxAttempts,
					NextAttemptAt:  now,
					CreatedAt:      now,
				}
				if err := tx.CreateDelivery(ctx, del); err != nil {
					return err
				}
				created++
			}
			if err := tx.MarkEventProcessed(ctx, ev.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func envelope(ev model.OutboxEvent) map[string]any {
	data := ev.Payload
	if data == nil {
		data = map[string]any{}
	}
	return map[string]any{
		"event":     ev.EventType,
		"timestamp": ev.CreatedAt.UTC().Format(time.RFC3339),
		"data":      data,
	}
}

// DeliverDue attempts every delivery whose next attempt is due and returns
// how many were delivered successfully.
func (d *Dispatcher) DeliverDue(ctx context.Context) (int, error) {
	due, err := d.store.ClaimDueDeliveries(ctx, d.opts.Now(), d.opts.Lease, d.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, del := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if d.attempt(ctx, del) {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) attempt(ctx context.Context, del model.WebhookDelivery) bool {
	sub, err := d.store.GetSubscription(ctx, del.SubscriptionID)
	if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
		// Leave it claimed; the lease runs out and another pass retries.
		d.log.Sugar().Warnw("webhook subscription lookup failed", "delivery_id", del.ID, "error", err)
		return false
	}
	if sub == nil || !sub.Active {
		del.Status = model.DeliveryFailed
		del.LastError = ptr("webhook deleted or disabled")
		d.save(ctx, &del)
		return false
	}

	attempt := del.Attempts + 1
	del.Attempts = attempt
	code, sendErr := d.send(ctx, sub, &del, attempt)
	now := d.opts.Now()
	if code != 0 {
		del.ResponseCode = &code
	}

	if sendErr == nil {
		del.Status = model.DeliverySent
		del.DeliveredAt = &now
		del.LastError = nil
		d.save(ctx, &del)
		if err := d.store.TouchSubscription(ctx, sub.ID, now); err != nil {
			d.log.Sugar().Warnw("webhook last_triggered_at update failed", "subscription_id", sub.ID, "error", err)
		}
		return true
	}

	msg := sendErr.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	del.LastError = &msg
	if attempt >= del.MaxAttempts {
		del.Status = model.DeliveryFailed
		d.log.Sugar().Warnw("webhook delivery permanently failed",
			"delivery_id", del.ID,
			"url", sub.URL,
			"attempts", attempt,
			"error", msg,
		)
	} else {
		del.Status = model.DeliveryRetrying
		del.NextAttemptAt = now.Add(d.backoff(attempt))
	}
	d.save(ctx, &del)
	return false
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	i := attempt - 1
	if i >= len(d.opts.Backoff) {
		i = len(d.opts.Backoff) - 1
	}
	if i < 0 {
		i = 0
	}
	return d.opts.Backoff[i]
}

func (d *Dispatcher) save(ctx context.Context, del *model.WebhookDelivery) {
	if err := d.store.UpdateDelivery(ctx, del); err != nil {
		d.log.Sugar().Errorw("webhook delivery update failed", "delivery_id", del.ID, "error", err)
	}
}

// send posts one attempt and returns the response status, or 0 when no
// response was received.
func (d *Dispatcher) send(ctx context.Context, sub *model.WebhookSubscription, del *model.WebhookDelivery, attempt int) (int, error) {
	secret, err := d.secrets.Decrypt(sub.EncryptedSecret)
	if err != nil {
		return 0, fmt.Errorf("decrypt webhook secret: %w", err)
	}
	body, err := json.Marshal(del.Payload)
	if err != nil {
		return 0, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderSignature, Sign(secret, body))
	req.Header.Set(HeaderEvent, del.EventType)
	req.Header.Set(HeaderDeliveryID, del.ID.String())
	req.Header.Set(HeaderAttempt, strconv.Itoa(attempt))

	resp, err := d.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return resp.StatusCode, nil
}

func ptr[T any](v T) *T {
	return &v
}
