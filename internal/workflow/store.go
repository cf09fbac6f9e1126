package workflow

import (
	"context"
	"time"

	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

type ApplicationFilter struct {
	AgencyID     uuid.UUID
	ClientID     *uuid.UUID
	CandidateID  *uuid.UUID
	JobID        *uuid.UUID
	Status       *model.ApplicationStatus
	ReleasedOnly bool
	Limit        int
	Offset       int
}

// JobOwner is the tenant scope a job belongs to.
type JobOwner struct {
	JobID    uuid.UUID
	AgencyID uuid.UUID
	ClientID uuid.UUID
}

type ApplicationStore interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindApplication(ctx context.Context, candidateID, jobID uuid.UUID) (*model.Application, error)
	ListApplications(ctx context.Context, f ApplicationFilter) ([]model.Application, int, error)
	CreateApplication(ctx context.Context, app *model.Application) error
	// UpdateApplication writes app if its stored version still equals app.Version,
	// then bumps app.Version. A stale version yields a conflict error.
	UpdateApplication(ctx context.Context, app *model.Application) error
	GetJobOwner(ctx context.Context, jobID uuid.UUID) (*JobOwner, error)
	CandidateName(ctx context.Context, candidateID uuid.UUID) (string, error)
	AgencyName(ctx context.Context, agencyID uuid.UUID) (string, error)

	GetClientFeedback(ctx context.Context, applicationID uuid.UUID) (*model.ClientFeedback, error)
	UpsertClientFeedback(ctx context.Context, fb *model.ClientFeedback) error
}

type RoomStore interface {
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error)
	GetRoomByProviderName(ctx context.Context, name string) (*model.Room, error)
	// LockRoom reads the room and holds it until the transaction ends.
	LockRoom(ctx context.Context, id uuid.UUID) (*model.Room, error)
	// UpdateRoom writes lifecycle fields only. Sharing flags belong to
	// SetRoomSharing.
	UpdateRoom(ctx context.Context, room *model.Room) error
	DeleteRoom(ctx context.Context, id uuid.UUID) error
	ListRoomDetails(ctx context.Context, applicationID uuid.UUID) ([]model.RoomDetail, error)
	// SetRoomSharing writes one audience flag on the room and cascades it to the
	// room's recording and transcript. The room must belong to applicationID.
	SetRoomSharing(ctx context.Context, roomID, applicationID uuid.UUID, audience Audience, shared bool) error
	UpsertRecording(ctx context.Context, rec *model.Recording) error
	UpsertTranscript(ctx context.Context, tr *model.Transcript) error
	GetInterview(ctx context.Context, id uuid.UUID) (*model.LinkedInterview, error)
	// UpdateInterviewOutcome only touches the interview when it belongs to
	// applicationID.
	UpdateInterviewOutcome(ctx context.Context, interviewID, applicationID uuid.UUID, outcome, notes *string) error
}

type OfferStore interface {
	CreateOffer(ctx context.Context, offer *model.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	GetOfferByApplication(ctx context.Context, applicationID uuid.UUID) (*model.Offer, error)
	// UpdateOffer follows the same version contract as UpdateApplication.
	UpdateOffer(ctx context.Context, offer *model.Offer) error
	ListExpiredOffers(ctx context.Context, now time.Time, limit int) ([]model.Offer, error)

	CreateCounterOffer(ctx context.Context, c *model.CounterOffer) error
	GetCounterOffer(ctx context.Context, id uuid.UUID) (*model.CounterOffer, error)
	GetPendingCounterOffer(ctx context.Context, offerID uuid.UUID) (*model.CounterOffer, error)
	// ResolveCounterOffer only succeeds while the stored counter is still pending.
	ResolveCounterOffer(ctx context.Context, c *model.CounterOffer) error
	ListCounterOffers(ctx context.Context, offerID uuid.UUID) ([]model.CounterOffer, error)
}

type ActivityStore interface {
	AppendTimeline(ctx context.Context, e *model.TimelineEntry) error
	ListTimeline(ctx context.Context, applicationID uuid.UUID) ([]model.TimelineEntry, error)
	EnqueueEvent(ctx context.Context, ev *model.OutboxEvent) error
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Store is the relational store the engine runs on. WithinTx runs fn against a
// transactional view of the store and commits when fn returns nil.
type Store interface {
	ApplicationStore
	RoomStore
	OfferStore
	ActivityStore
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
