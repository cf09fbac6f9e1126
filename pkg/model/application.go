package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	StatusInvited            ApplicationStatus = "invited"
	StatusSubmitted          ApplicationStatus = "submitted"
	StatusUnderReview        ApplicationStatus = "under_review"
	StatusShortlisted        ApplicationStatus = "shortlisted"
	StatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	StatusInterviewed        ApplicationStatus = "interviewed"
	StatusOfferPending       ApplicationStatus = "offer_pending"
	StatusOfferSent          ApplicationStatus = "offer_sent"
	StatusOfferAccepted      ApplicationStatus = "offer_accepted"
	StatusHired              ApplicationStatus = "hired"
	StatusRejected           ApplicationStatus = "rejected"
	StatusWithdrawn          ApplicationStatus = "withdrawn"
)

// Pipeline lists the ordered (non side-exit) statuses.
var Pipeline = []ApplicationStatus{
	StatusInvited,
	StatusSubmitted,
	StatusUnderReview,
	StatusShortlisted,
	StatusInterviewScheduled,
	StatusInterviewed,
	StatusOfferPending,
	StatusOfferSent,
	StatusOfferAccepted,
	StatusHired,
}

// Rank is the position of s in Pipeline, or -1 for side exits and unknown values.
func (s ApplicationStatus) Rank() int {
	for i, p := range Pipeline {
		if p == s {
			return i
		}
	}
	return -1
}

func (s ApplicationStatus) Valid() bool {
	return s.Rank() >= 0 || s == StatusRejected || s == StatusWithdrawn
}

func (s ApplicationStatus) Terminal() bool {
	return s == StatusHired || s == StatusRejected || s == StatusWithdrawn
}

type RejectedBy string

const (
	RejectedByClient    RejectedBy = "client"
	RejectedByRecruiter RejectedBy = "recruiter"
)

type StartedStatus string

const (
	StartedHired   StartedStatus = "hired"
	StartedStarted StartedStatus = "started"
	StartedNoShow  StartedStatus = "no_show"
)

func (s StartedStatus) Valid() bool {
	return s == StartedHired || s == StartedStarted || s == StartedNoShow
}

// ReleaseStatus is the application-level axis of the recruiter gate. Artifact
// sharing lives on rooms and is tracked independently.
type ReleaseStatus string

const (
	ReleaseNone     ReleaseStatus = "not_released"
	ReleaseReleased ReleaseStatus = "released"
	ReleaseSentBack ReleaseStatus = "sent_back"
)

type Application struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	AgencyID    uuid.UUID         `json:"agency_id" db:"agency_id"`
	ClientID    uuid.UUID         `json:"client_id" db:"client_id"`
	CandidateID uuid.UUID         `json:"candidate_id" db:"candidate_id"`
	JobID       uuid.UUID         `json:"job_id" db:"job_id"`
	Status      ApplicationStatus `json:"status" db:"status"`
	StatusNotes *string           `json:"status_notes" db:"status_notes"`

	ReleasedToClient bool          `json:"released_to_client" db:"released_to_client"`
	ReleaseStatus    ReleaseStatus `json:"release_status" db:"release_status"`
	ReleasedAt       *time.Time    `json:"released_at" db:"released_at"`
	ReleasedBy       *uuid.UUID    `json:"released_by" db:"released_by"`

	RejectionReason *string     `json:"rejection_reason" db:"rejection_reason"`
	RejectedBy      *RejectedBy `json:"rejected_by" db:"rejected_by"`
	RejectedByID    *uuid.UUID  `json:"rejected_by_id" db:"rejected_by_id"`
	RejectedDate    *time.Time  `json:"rejected_date" db:"rejected_date"`

	OfferAcceptanceDate *time.Time     `json:"offer_acceptance_date" db:"offer_acceptance_date"`
	ContractSigned      bool           `json:"contract_signed" db:"contract_signed"`
	FirstDayDate        *time.Time     `json:"first_day_date" db:"first_day_date"`
	StartedStatus       *StartedStatus `json:"started_status" db:"started_status"`

	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ClientFeedback struct {
	ApplicationID uuid.UUID  `json:"application_id" db:"application_id"`
	Notes         *string    `json:"notes" db:"notes"`
	Rating        *int       `json:"rating" db:"rating"`
	UpdatedBy     *uuid.UUID `json:"updated_by" db:"updated_by"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ApplicationView is an application as seen by one audience.
type ApplicationView struct {
	Application
	Feedback *ClientFeedback `json:"client_feedback"`
	Rooms    []RoomView      `json:"video_calls"`
}

type PartialFailure struct {
	RoomID   uuid.UUID `json:"room_id"`
	Audience string    `json:"audience"`
	Reason   string    `json:"reason"`
}

type CreateApplicationReq struct {
	CandidateID uuid.UUID `json:"candidate_id" binding:"required"`
	JobID       uuid.UUID `json:"job_id" binding:"required"`
	Invited     bool      `json:"invited"`
}

type AdvanceReq struct {
	Status          ApplicationStatus `json:"status" binding:"required"`
	Notes           *string           `json:"notes"`
	Force           bool              `json:"force"`
	ExpectedVersion *int64            `json:"expected_version"`
}

type RejectReq struct {
	Reason       string     `json:"reason"`
	RejectedBy   RejectedBy `json:"rejected_by"`
	RejectedByID *uuid.UUID `json:"rejected_by_id"`
}

type HiredStatusReq struct {
	OfferAcceptanceDate *time.Time     `json:"offer_acceptance_date"`
	ContractSigned      *bool          `json:"contract_signed"`
	FirstDayDate        *time.Time     `json:"first_day_date"`
	StartedStatus       *StartedStatus `json:"started_status"`
}

type ClientFeedbackReq struct {
	Notes  *string `json:"notes"`
	Rating *int    `json:"rating"`
}

type WithdrawReq struct {
	Reason *string `json:"reason"`
}

// ShareFlags is one entry of a release share list. Any true flag shares the whole room.
type ShareFlags struct {
	RoomID          uuid.UUID `json:"room_id"`
	Share           bool      `json:"share"`
	ShareAll        bool      `json:"share_all"`
	ShareVideo      bool      `json:"share_video"`
	ShareNotes      bool      `json:"share_notes"`
	ShareTranscript bool      `json:"share_transcript"`
}

func (f ShareFlags) Shared() bool {
	return f.Share || f.ShareAll || f.ShareVideo || f.ShareNotes || f.ShareTranscript
}

type ReleaseReq struct {
	ReleasedBy              uuid.UUID         `json:"released_by"`
	ShareCallsWithClient    []ShareFlags      `json:"share_calls_with_client"`
	ShareCallsWithCandidate []ShareFlags      `json:"share_calls_with_candidate"`
	Status                  ApplicationStatus `json:"status"`
}

type SendBackReq struct {
	RequestedBy uuid.UUID         `json:"requested_by"`
	Reason      *string           `json:"reason"`
	Status      ApplicationStatus `json:"status"`
}

type RevokeSharingReq struct {
	RoomIDs       []uuid.UUID `json:"room_ids" binding:"required,min=1"`
	FromClient    bool        `json:"from_client"`
	FromCandidate bool        `json:"from_candidate"`
}
