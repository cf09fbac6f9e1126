package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	EventApplicationStatusChanged = "application.status_changed"
	EventApplicationCreated       = "application.created"
	EventStartedStatusChanged     = "application.started_status_changed"
	EventClientFeedbackUpdated    = "application.client_feedback_updated"
	EventVideoCallCreated         = "video.call_created"
	EventVideoCallStarted         = "video.call_started"
	EventVideoCallEnded           = "video.call_ended"
	EventVideoCallDeleted         = "video.call_deleted"
	EventRecordingReady           = "video.recording_ready"
	EventTranscriptReady          = "video.transcript_ready"
	EventOfferSent                = "offer.sent"
	EventOfferViewed              = "offer.viewed"
	EventOfferAccepted            = "offer.accepted"
	EventOfferDeclined            = "offer.declined"
	EventOfferWithdrawn           = "offer.withdrawn"
	EventOfferExpired             = "offer.expired"
	EventCounterSubmitted         = "offer.counter_submitted"
	EventCounterAccepted          = "offer.counter_accepted"
	EventCounterRejected          = "offer.counter_rejected"
)

// OutboxEvent is written in the same transaction as the state change it describes.
type OutboxEvent struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	AgencyID    uuid.UUID      `json:"agency_id" db:"agency_id"`
	EventType   string         `json:"event_type" db:"event_type"`
	Payload     map[string]any `json:"payload" db:"payload"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time     `json:"processed_at" db:"processed_at"`
}

type WebhookSubscription struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	AgencyID        uuid.UUID  `json:"agency_id" db:"agency_id"`
	URL             string     `json:"url" db:"url"`
	EncryptedSecret string     `json:"-" db:"secret"`
	Events          []string   `json:"events" db:"events"`
	Active          bool       `json:"active" db:"active"`
	LastTriggeredAt *time.Time `json:"last_triggered_at" db:"last_triggered_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// Matches supports exact names, "prefix.*" wildcards and "*".
func (s WebhookSubscription) Matches(eventType string) bool {
	for _, e := range s.Events {
		switch {
		case e == "*" || e == eventType:
			return true
		case strings.HasSuffix(e, ".*") && strings.HasPrefix(eventType, strings.TrimSuffix(e, "*")):
			return true
		}
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryPending  DeliveryStatus = "pending"
	DeliverySent     DeliveryStatus = "sent"
	DeliveryRetrying DeliveryStatus = "retrying"
	DeliveryFailed   DeliveryStatus = "failed"
)

type WebhookDelivery struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	SubscriptionID uuid.UUID      `json:"webhook_id" db:"subscription_id"`
	EventID        uuid.UUID      `json:"event_id" db:"event_id"`
	EventType      string         `json:"event_type" db:"event_type"`
	Payload        map[string]any `json:"payload" db:"payload"`
	Status         DeliveryStatus `json:"status" db:"status"`
	Attempts       int            `json:"attempts" db:"attempts"`
	MaxAttempts    int            `json:"max_attempts" db:"max_attempts"`
	NextAttemptAt  time.Time      `json:"next_attempt_at" db:"next_attempt_at"`
	ResponseCode   *int           `json:"response_code" db:"response_code"`
	LastError      *string        `json:"last_error" db:"last_error"`
	DeliveredAt    *time.Time     `json:"delivered_at" db:"delivered_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

type CreateWebhookReq struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events" binding:"required,min=1"`
}

type CreateWebhookRes struct {
	WebhookSubscription
	Secret string `json:"secret"`
}
