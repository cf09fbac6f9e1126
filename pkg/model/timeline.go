package model

import (
	"time"

	"github.com/google/uuid"
)

type ActorType string

const (
	ActorCandidate ActorType = "candidate"
	ActorRecruiter ActorType = "recruiter"
	ActorClient    ActorType = "client"
	ActorSystem    ActorType = "system"
)

func (a ActorType) Valid() bool {
	switch a {
	case ActorCandidate, ActorRecruiter, ActorClient, ActorSystem:
		return true
	}
	return false
}

const (
	ActionCreated            = "application_created"
	ActionStatusChanged      = "status_changed"
	ActionRejected           = "rejected"
	ActionWithdrawn          = "withdrawn"
	ActionHiredStatusUpdated = "hired_status_updated"
	ActionClientFeedback     = "client_feedback_updated"
	ActionReleasedToClient   = "released_to_client"
	ActionSentBack           = "sent_back_to_recruiter"
	ActionSharingRevoked     = "call_sharing_revoked"
	ActionVideoCallCreated   = "video_call_created"
	ActionVideoCallStarted   = "video_call_started"
	ActionVideoCallEnded     = "video_call_ended"
	ActionVideoCallDeleted   = "video_call_deleted"
	ActionRecordingReady     = "recording_ready"
	ActionTranscriptReady    = "transcript_ready"
	ActionOfferSent          = "offer_sent"
	ActionOfferViewed        = "offer_viewed"
	ActionOfferAccepted      = "offer_accepted"
	ActionOfferDeclined      = "offer_declined"
	ActionOfferWithdrawn     = "offer_withdrawn"
	ActionOfferExpired       = "offer_expired"
	ActionCounterSubmitted   = "counter_offer_submitted"
	ActionCounterAccepted    = "counter_accepted"
	ActionCounterRejected    = "counter_rejected"
	ActionCounterSent        = "counter_sent"
)

// TimelineEntry is immutable once written.
type TimelineEntry struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	ApplicationID   uuid.UUID      `json:"application_id" db:"application_id"`
	ActionType      string         `json:"action_type" db:"action_type"`
	PerformedByType ActorType      `json:"performed_by_type" db:"performed_by_type"`
	PerformedByID   *uuid.UUID     `json:"performed_by_id" db:"performed_by_id"`
	Description     string         `json:"description" db:"description"`
	Metadata        map[string]any `json:"metadata" db:"metadata"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}
