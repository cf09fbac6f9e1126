package handler

import (
	"context"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/internal/workflow"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/abhishek622/hiregate/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workflow is the engine surface the HTTP layer drives.
type Workflow interface {
	CreateApplication(ctx context.Context, actor model.Actor, req model.CreateApplicationReq) (*model.Application, error)
	GetApplication(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ApplicationView, error)
	ListApplications(ctx context.Context, actor model.Actor, f workflow.ApplicationFilter) ([]model.Application, int, error)
	Advance(ctx context.Context, actor model.Actor, id uuid.UUID, req model.AdvanceReq) (*model.Application, error)
	Reject(ctx context.Context, actor model.Actor, id uuid.UUID, req model.RejectReq) (*model.Application, error)
	Withdraw(ctx context.Context, actor model.Actor, id uuid.UUID, req model.WithdrawReq) (*model.Application, error)
	UpdateHiredStatus(ctx context.Context, actor model.Actor, id uuid.UUID, req model.HiredStatusReq) (*model.Application, error)
	UpdateClientFeedback(ctx context.Context, actor model.Actor, id uuid.UUID, req model.ClientFeedbackReq) (*model.ClientFeedback, error)

	Release(ctx context.Context, actor model.Actor, id uuid.UUID, req model.ReleaseReq) (*workflow.ReleaseResult, error)
	SendBack(ctx context.Context, actor model.Actor, id uuid.UUID, req model.SendBackReq) (*model.Application, error)
	RevokeSharing(ctx context.Context, actor model.Actor, id uuid.UUID, req model.RevokeSharingReq) (*workflow.ReleaseResult, error)

	CreateSession(ctx context.Context, actor model.Actor, req model.CreateSessionReq) (*workflow.SessionResult, error)
	EndSession(ctx context.Context, actor model.Actor, roomID uuid.UUID, req model.EndSessionReq) (*model.Room, error)
	IssueFreshCredentials(ctx context.Context, actor model.Actor, roomID uuid.UUID) (*model.CredentialSet, error)
	DeleteSession(ctx context.Context, actor model.Actor, roomID uuid.UUID) error
	ListSessions(ctx context.Context, actor model.Actor, applicationID uuid.UUID) ([]model.RoomView, error)
	AttachTranscript(ctx context.Context, actor model.Actor, roomID uuid.UUID, req model.TranscriptReq) (*model.Transcript, error)
	HandleProviderEvent(ctx context.Context, ev model.ProviderEvent) error

	SendOffer(ctx context.Context, actor model.Actor, req model.SendOfferReq) (*model.Offer, error)
	GetOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID) (*model.OfferDetail, error)
	GetApplicationOffer(ctx context.Context, actor model.Actor, applicationID uuid.UUID) (*model.OfferDetail, error)
	MarkViewed(ctx context.Context, actor model.Actor, offerID uuid.UUID) (*model.Offer, error)
	SubmitCounterOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.SubmitCounterReq) (*model.CounterOffer, error)
	AcceptCounterOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.AcceptCounterReq) (*model.Offer, error)
	RejectCounterOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.RejectCounterReq) (*workflow.RejectCounterResult, error)
	RespondToOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.RespondOfferReq) (*model.Offer, error)
	WithdrawOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID) (*model.Offer, error)

	ListTimeline(ctx context.Context, actor model.Actor, applicationID uuid.UUID) ([]model.TimelineEntry, error)
}

type Webhooks interface {
	Create(ctx context.Context, actor model.Actor, req model.CreateWebhookReq) (*model.CreateWebhookRes, error)
	List(ctx context.Context, actor model.Actor) ([]model.WebhookSubscription, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Deliveries(ctx context.Context, actor model.Actor, id uuid.UUID, limit int) ([]model.WebhookDelivery, error)
}

type Handler struct {
	Logger   *zap.Logger
	Workflow Workflow
	Webhooks Webhooks
	// VideoWebhookSecret verifies provider callbacks. Empty disables the check.
	VideoWebhookSecret string
	Now                func() time.Time
}

const actorKey = "actor"

// SetActor stores the authenticated caller on the request context.
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

// GetActorFromContext retrieves the caller set by the auth middleware.
func GetActorFromContext(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

func (h *Handler) actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := GetActorFromContext(c)
	if !ok {
		response.Unauthorized(c, "")
	}
	return actor, ok
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes an optional JSON body. An empty body leaves req untouched.
func bind(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return false
	}
	return true
}

// fail writes err as an API error. Internal errors are logged with their cause.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	if apperr.CodeOf(err) == apperr.CodeInternal {
		h.Logger.Error(op+": failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, err)
}
