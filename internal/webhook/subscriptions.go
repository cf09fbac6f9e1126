package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

var knownEvents = map[string]bool{
	model.EventApplicationCreated:       true,
	model.EventApplicationStatusChanged: true,
	model.EventStartedStatusChanged:     true,
	model.EventClientFeedbackUpdated:    true,
	model.EventVideoCallCreated:         true,
	model.EventVideoCallStarted:         true,
	model.EventVideoCallEnded:           true,
	model.EventVideoCallDeleted:         true,
	model.EventRecordingReady:           true,
	model.EventTranscriptReady:          true,
	model.EventOfferSent:                true,
	model.EventOfferViewed:              true,
	model.EventOfferAccepted:            true,
	model.EventOfferDeclined:            true,
	model.EventOfferWithdrawn:           true,
	model.EventOfferExpired:             true,
	model.EventCounterSubmitted:         true,
	model.EventCounterAccepted:          true,
	model.EventCounterRejected:          true,
}

// Subscriptions manages an agency's webhook endpoints. Only recruiters may
// touch them.
type Subscriptions struct {
	store   Store
	secrets SecretBox
	now     func() time.Time
}

func NewSubscriptions(store Store, secrets SecretBox) *Subscriptions {
	return &Subscriptions{store: store, secrets: secrets, now: func() time.Time { return time.Now().UTC() }}
}

// Create registers an endpoint. The plaintext signing secret is only ever
// returned here.
func (s *Subscriptions) Create(ctx context.Context, actor model.Actor, req model.CreateWebhookReq) (*model.CreateWebhookRes, error) {
	if actor.Role != model.RoleRecruiter {
		return nil, apperr.New(apperr.CodeForbidden, "only recruiters manage webhooks")
	}
	fields := map[string]string{}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		fields["url"] = "must be an absolute http(s) URL"
	}
	if len(req.Events) == 0 {
		fields["events"] = "at least one event is required"
	}
	for _, e := range req.Events {
		if !validPattern(e) {
			fields["events"] = "unknown event " + e
			break
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("invalid webhook", fields)
	}

	secret, err := newSecret()
	if err != nil {
		return nil, apperr.Internal("generate webhook secret", err)
	}
	enc, err := s.secrets.Encrypt(secret)
	if err != nil {
		return nil, apperr.Internal("encrypt webhook secret", err)
	}
	sub := model.WebhookSubscription{
		ID:              uuid.New(),
		AgencyID:        actor.AgencyID,
		URL:             req.URL,
		EncryptedSecret: enc,
		Events:          req.Events,
		Active:          true,
		CreatedAt:       s.now(),
	}
	if err := s.store.CreateSubscription(ctx, &sub); err != nil {
		return nil, err
	}
	return &model.CreateWebhookRes{WebhookSubscription: sub, Secret: secret}, nil
}

func (s *Subscriptions) List(ctx context.Context, actor model.Actor) ([]model.WebhookSubscription, error) {
	if actor.Role != model.RoleRecruiter {
		return nil, apperr.New(apperr.CodeForbidden, "only recruiters manage webhooks")
	}
	return s.store.ListSubscriptions(ctx, actor.AgencyID)
}

func (s *Subscriptions) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if actor.Role != model.RoleRecruiter {
		return apperr.New(apperr.CodeForbidden, "only recruiters manage webhooks")
	}
	return s.store.DeleteSubscription(ctx, actor.AgencyID, id)
}

// Deliveries lists recent delivery attempts for one of the agency's endpoints.
func (s *Subscriptions) Deliveries(ctx context.Context, actor model.Actor, id uuid.UUID, limit int) ([]model.WebhookDelivery, error) {
	if actor.Role != model.RoleRecruiter {
		return nil, apperr.New(apperr.CodeForbidden, "only recruiters manage webhooks")
	}
	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.AgencyID != actor.AgencyID {
		return nil, apperr.NotFound("webhook")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListDeliveries(ctx, id, limit)
}

func validPattern(e string) bool {
	if e == "*" || knownEvents[e] {
		return true
	}
	if prefix, ok := strings.CutSuffix(e, ".*"); ok {
		for k := range knownEvents {
			if strings.HasPrefix(k, prefix+".") {
				return true
			}
		}
	}
	return false
}

func newSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(b), nil
}
