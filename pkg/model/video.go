package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CallType string

const (
	CallRecruiterPrescreen CallType = "recruiter_prescreen"
	CallRecruiterRound1    CallType = "recruiter_round_1"
	CallRecruiterRound2    CallType = "recruiter_round_2"
	CallRecruiterRound3    CallType = "recruiter_round_3"
	CallRecruiterOffer     CallType = "recruiter_offer"
	CallRecruiterGeneral   CallType = "recruiter_general"

	CallClientRound1  CallType = "client_round_1"
	CallClientRound2  CallType = "client_round_2"
	CallClientFinal   CallType = "client_final"
	CallClientGeneral CallType = "client_general"
)

var legacyCallTypes = map[string]CallType{
	"prescreen": CallRecruiterPrescreen,
	"round_1":   CallRecruiterRound1,
	"round_2":   CallRecruiterRound2,
	"round_3":   CallRecruiterRound3,
	"offer":     CallRecruiterOffer,
	"general":   CallRecruiterGeneral,
}

var callTypeLabels = map[CallType]string{
	CallRecruiterPrescreen: "Pre-Screen",
	CallRecruiterRound1:    "Round 1 Interview",
	CallRecruiterRound2:    "Round 2 Interview",
	CallRecruiterRound3:    "Round 3 Interview",
	CallRecruiterOffer:     "Offer Discussion",
	CallRecruiterGeneral:   "General Call",
	CallClientRound1:       "Client Round 1",
	CallClientRound2:       "Client Round 2",
	CallClientFinal:        "Client Final Interview",
	CallClientGeneral:      "Client Call",
}

// ParseCallType normalizes legacy unprefixed recruiter call types.
func ParseCallType(raw string) (CallType, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return CallRecruiterGeneral, true
	}
	if ct, ok := legacyCallTypes[v]; ok {
		return ct, true
	}
	ct := CallType(v)
	_, ok := callTypeLabels[ct]
	return ct, ok
}

func (c CallType) ClientLed() bool {
	return strings.HasPrefix(string(c), "client_")
}

func (c CallType) Label() string {
	if l, ok := callTypeLabels[c]; ok {
		return l
	}
	return "Call"
}

type RoomStatus string

const (
	RoomCreated RoomStatus = "created"
	RoomActive  RoomStatus = "active"
	RoomEnded   RoomStatus = "ended"
)

type CallOutcome string

const (
	OutcomeSuccessful    CallOutcome = "successful"
	OutcomeNoShow        CallOutcome = "no_show"
	OutcomeRescheduled   CallOutcome = "rescheduled"
	OutcomeCancelled     CallOutcome = "cancelled"
	OutcomeNeedsFollowup CallOutcome = "needs_followup"
)

func (o CallOutcome) Valid() bool {
	switch o {
	case OutcomeSuccessful, OutcomeNoShow, OutcomeRescheduled, OutcomeCancelled, OutcomeNeedsFollowup:
		return true
	}
	return false
}

// InterviewOutcome maps a call outcome onto a linked interview record.
func (o CallOutcome) InterviewOutcome() (string, bool) {
	switch o {
	case OutcomeSuccessful:
		return "passed", true
	case OutcomeNoShow:
		return "no_show", true
	}
	return "", false
}

type Room struct {
	ID                  uuid.UUID    `json:"id" db:"id"`
	AgencyID            uuid.UUID    `json:"agency_id" db:"agency_id"`
	ApplicationID       uuid.UUID    `json:"application_id" db:"application_id"`
	JobID               uuid.UUID    `json:"job_id" db:"job_id"`
	InterviewID         *uuid.UUID   `json:"interview_id" db:"interview_id"`
	CallType            CallType     `json:"call_type" db:"call_type"`
	Title               string       `json:"title" db:"title"`
	ProviderRoomName    string       `json:"daily_room_name" db:"provider_room_name"`
	ProviderRoomURL     string       `json:"daily_room_url" db:"provider_room_url"`
	HostUserID          *uuid.UUID   `json:"host_user_id" db:"host_user_id"`
	HostName            string       `json:"host_name" db:"host_name"`
	ParticipantName     string       `json:"participant_name" db:"participant_name"`
	Status              RoomStatus   `json:"status" db:"status"`
	Outcome             *CallOutcome `json:"outcome" db:"outcome"`
	Notes               *string      `json:"notes" db:"notes"`
	ShareWithClient     bool         `json:"share_with_client" db:"share_with_client"`
	ShareWithCandidate  bool         `json:"share_with_candidate" db:"share_with_candidate"`
	EnableRecording     bool         `json:"enable_recording" db:"enable_recording"`
	EnableTranscription bool         `json:"enable_transcription" db:"enable_transcription"`
	ScheduledFor        *time.Time   `json:"scheduled_for" db:"scheduled_for"`
	StartedAt           *time.Time   `json:"started_at" db:"started_at"`
	EndedAt             *time.Time   `json:"ended_at" db:"ended_at"`
	DurationSeconds     int          `json:"duration_seconds" db:"duration_seconds"`
	ExpiresAt           time.Time    `json:"expires_at" db:"expires_at"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}

type RecordingStatus string

const (
	RecordingPending RecordingStatus = "pending"
	RecordingReady   RecordingStatus = "ready"
	RecordingError   RecordingStatus = "error"
)

type Recording struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	RoomID              uuid.UUID       `json:"room_id" db:"room_id"`
	Status              RecordingStatus `json:"status" db:"status"`
	DurationSeconds     int             `json:"duration" db:"duration_seconds"`
	ProviderRecordingID string          `json:"provider_recording_id" db:"provider_recording_id"`
	DownloadURL         *string         `json:"download_url" db:"download_url"`
	SharedWithClient    bool            `json:"shared_with_client" db:"shared_with_client"`
	SharedWithCandidate bool            `json:"shared_with_candidate" db:"shared_with_candidate"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

type TranscriptStatus string

const (
	TranscriptPending TranscriptStatus = "pending"
	TranscriptReady   TranscriptStatus = "ready"
)

type Transcript struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	RoomID              uuid.UUID        `json:"room_id" db:"room_id"`
	Status              TranscriptStatus `json:"status" db:"status"`
	FullText            *string          `json:"full_text" db:"full_text"`
	Summary             *string          `json:"summary" db:"summary"`
	KeyPoints           []string         `json:"key_points" db:"key_points"`
	SharedWithClient    bool             `json:"shared_with_client" db:"shared_with_client"`
	SharedWithCandidate bool             `json:"shared_with_candidate" db:"shared_with_candidate"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}

// RoomDetail is a room together with the artifacts it owns.
type RoomDetail struct {
	Room       Room
	Recording  *Recording
	Transcript *Transcript
}

// RoomView is a room as seen by one audience. Stripped fields are nil/empty.
type RoomView struct {
	ID                 uuid.UUID    `json:"id"`
	ApplicationID      uuid.UUID    `json:"application_id"`
	CallType           CallType     `json:"call_type"`
	Title              string       `json:"title"`
	Status             RoomStatus   `json:"status"`
	Outcome            *CallOutcome `json:"outcome"`
	ScheduledFor       *time.Time   `json:"scheduled_for"`
	StartedAt          *time.Time   `json:"started_at"`
	EndedAt            *time.Time   `json:"ended_at"`
	DurationSeconds    int          `json:"duration_seconds"`
	ShareWithClient    bool         `json:"share_with_client"`
	ShareWithCandidate bool         `json:"share_with_candidate"`
	RoomName           *string      `json:"daily_room_name"`
	RoomURL            *string      `json:"daily_room_url"`
	Notes              *string      `json:"notes"`
	Recordings         []Recording  `json:"recordings"`
	Transcripts        []Transcript `json:"transcripts"`
}

type CredentialRole string

const (
	CredentialHost        CredentialRole = "host"
	CredentialParticipant CredentialRole = "participant"
	CredentialClient      CredentialRole = "client"
)

type Credential struct {
	Role      CredentialRole `json:"role"`
	Name      string         `json:"name"`
	Token     string         `json:"token"`
	JoinURL   string         `json:"join_url"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type CredentialSet struct {
	Host        Credential  `json:"host"`
	Participant Credential  `json:"participant"`
	Client      *Credential `json:"client,omitempty"`
}

type CreateSessionReq struct {
	ApplicationID       uuid.UUID  `json:"application_id" binding:"required"`
	CallType            string     `json:"call_type"`
	InterviewID         *uuid.UUID `json:"interview_id"`
	RecruiterUserID     *uuid.UUID `json:"recruiter_user_id"`
	RecruiterName       string     `json:"recruiter_name"`
	CandidateName       string     `json:"candidate_name"`
	Title               string     `json:"title"`
	ScheduledFor        *time.Time `json:"scheduled_for"`
	EnableRecording     *bool      `json:"enable_recording"`
	EnableTranscription *bool      `json:"enable_transcription"`
	ExpiresInHours      int        `json:"expires_in_hours"`
	IncludeClientToken  bool       `json:"include_client_token"`
	ClientName          string     `json:"client_name"`
}

type EndSessionReq struct {
	Outcome *CallOutcome `json:"outcome"`
	Notes   *string      `json:"notes"`
	Title   *string      `json:"title"`
}

type TranscriptReq struct {
	FullText  *string  `json:"full_text"`
	Summary   *string  `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// ProviderEvent is a webhook notification from the video provider.
type ProviderEvent struct {
	Type        string    `json:"event"`
	RoomName    string    `json:"room_name"`
	RecordingID string    `json:"recording_id"`
	Duration    int       `json:"duration"`
	DownloadURL string    `json:"download_url"`
	Error       string    `json:"error"`
	OccurredAt  time.Time `json:"-"`
}

// LinkedInterview is the interview record a room may be attached to.
type LinkedInterview struct {
	ID               uuid.UUID `json:"id" db:"id"`
	ApplicationID    uuid.UUID `json:"application_id" db:"application_id"`
	Status           string    `json:"status" db:"status"`
	Outcome          *string   `json:"outcome" db:"outcome"`
	InterviewerNotes *string   `json:"interviewer_notes" db:"interviewer_notes"`
}
