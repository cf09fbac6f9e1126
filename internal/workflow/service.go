package workflow

import (
	"context"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	Video           VideoPolicy
	DefaultCurrency string
	// Kick is called after a transaction that enqueued outbox events commits.
	Kick func()
	Now  func() time.Time
}

// Service runs every workflow operation. Each method loads the aggregate it
// needs, validates the caller and the requested change, then writes the change
// and its outbox events in one transaction.
type Service struct {
	store    Store
	provider VideoProvider
	log      *zap.Logger
	opts     Options
}

func New(store Store, provider VideoProvider, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "PHP"
	}
	if opts.Video == (VideoPolicy{}) {
		opts.Video = DefaultVideoPolicy()
	}
	return &Service{store: store, provider: provider, log: logger, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now()
}

// commit runs fn in a transaction and wakes the dispatcher afterwards.
func (s *Service) commit(ctx context.Context, fn func(tx Store) error) error {
	if err := s.store.WithinTx(ctx, fn); err != nil {
		return err
	}
	if s.opts.Kick != nil {
		s.opts.Kick()
	}
	return nil
}

func requireRole(actor model.Actor, roles ...model.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return apperr.New(apperr.CodeForbidden, "operation not permitted for role "+string(actor.Role))
}

// loadApplication fetches an application the actor is allowed to see. Anything
// outside the actor's visibility is reported exactly like a missing row.
func (s *Service) loadApplication(ctx context.Context, st Store, actor model.Actor, id uuid.UUID) (*model.Application, error) {
	app, err := st.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, app) {
		return nil, apperr.NotFound("application")
	}
	return app, nil
}

func canSee(actor model.Actor, app *model.Application) bool {
	if app.AgencyID != actor.AgencyID {
		return false
	}
	switch actor.Role {
	case model.RoleRecruiter, model.RoleSystem:
		return true
	case model.RoleClient:
		return actor.ClientID != nil && *actor.ClientID == app.ClientID && app.ReleasedToClient
	case model.RoleCandidate:
		return actor.UserID == app.CandidateID
	}
	return false
}

// record appends a timeline entry after the primary write has committed. A
// failure is logged and never surfaces to the caller.
func (s *Service) record(ctx context.Context, actor model.Actor, applicationID uuid.UUID, action, description string, metadata map[string]any) {
	byType, byID := actor.TimelineActor()
	entry := &model.TimelineEntry{
		ApplicationID:   applicationID,
		ActionType:      action,
		PerformedByType: byType,
		PerformedByID:   byID,
		Description:     description,
		Metadata:        metadata,
	}
	if err := s.Append(ctx, entry); err != nil {
		s.log.Sugar().Warnw("timeline append failed",
			"application_id", applicationID,
			"action", action,
			"error", err,
		)
	}
}

// notify writes an in-app notification. Like the timeline, it is best-effort.
func (s *Service) notify(ctx context.Context, n *model.Notification) {
	if n.UserID == uuid.Nil {
		return
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.Sugar().Warnw("notification failed",
			"user_id", n.UserID,
			"type", n.Type,
			"error", err,
		)
	}
}

func ptr[T any](v T) *T {
	return &v
}
