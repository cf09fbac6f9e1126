package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

const expirySweepBatch = 100

func normalizeCurrency(raw, fallback string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "" {
		c = fallback
	}
	if len(c) != 3 {
		return "", false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return c, true
}

func offerPayload(o *model.Offer, app *model.Application) map[string]any {
	return map[string]any{
		"offer_id":       o.ID.String(),
		"application_id": o.ApplicationID.String(),
		"candidate_id":   app.CandidateID.String(),
		"job_id":         app.JobID.String(),
		"status":         string(o.Status),
		"salary_offered": o.SalaryOffered,
		"currency":       o.Currency,
	}
}

func formatSalary(currency string, amount float64) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}

// loadOffer returns the offer and its application, hiding offers whose
// application the actor cannot see.
func (s *Service) loadOffer(ctx context.Context, st Store, actor model.Actor, offerID uuid.UUID) (*model.Offer, *model.Application, error) {
	offer, err := st.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	app, err := s.loadApplication(ctx, st, actor, offer.ApplicationID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, nil, apperr.NotFound("offer")
	}
	if err != nil {
		return nil, nil, err
	}
	return offer, app, nil
}

// moveApplication sets a new pipeline status as part of an offer operation and
// queues the matching status event.
func (s *Service) moveApplication(ctx context.Context, tx Store, app *model.Application, to model.ApplicationStatus) error {
	from := app.Status
	if from == to {
		return nil
	}
	app.Status = to
	app.UpdatedAt = s.now()
	if err := tx.UpdateApplication(ctx, app); err != nil {
		return err
	}
	return s.enqueue(ctx, tx, app.AgencyID, model.EventApplicationStatusChanged, statusPayload(app, from))
}

func (s *Service) SendOffer(ctx context.Context, actor model.Actor, req model.SendOfferReq) (*model.Offer, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if req.Salary <= 0 {
		fields["salary_offered"] = "must be greater than zero"
	}
	currency, ok := normalizeCurrency(req.Currency, s.opts.DefaultCurrency)
	if !ok {
		fields["currency"] = "must be a three letter currency code"
	}
	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		fields["expires_at"] = "must be in the future"
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("invalid offer", fields)
	}

	app, err := s.loadApplication(ctx, s.store, actor, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetOfferByApplication(ctx, app.ID); err == nil {
		return nil, apperr.New(apperr.CodeConflict, "an offer already exists for this application")
	} else if !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}

	benefits := req.Benefits
	if benefits == nil {
		benefits = []string{}
	}
	offer := &model.Offer{
		ID:              uuid.New(),
		ApplicationID:   app.ID,
		AgencyID:        app.AgencyID,
		SalaryOffered:   req.Salary,
		Currency:        currency,
		StartDate:       req.StartDate,
		BenefitsOffered: benefits,
		AdditionalTerms: req.AdditionalTerms,
		Message:         req.Message,
		Status:          model.OfferSent,
		SentAt:          &now,
		ExpiresAt:       req.ExpiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.commit(ctx, func(tx Store) error {
		cur, err := s.loadApplication(ctx, tx, actor, app.ID)
		if err != nil {
			return err
		}
		if !CanTransition(cur.Status, model.StatusOfferSent) {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot send an offer for an application in status %s", cur.Status))
		}
		if err := tx.CreateOffer(ctx, offer); err != nil {
			return err
		}
		if err := s.moveApplication(ctx, tx, cur, model.StatusOfferSent); err != nil {
			return err
		}
		app = cur
		return s.enqueue(ctx, tx, app.AgencyID, model.EventOfferSent, offerPayload(offer, app))
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, app.ID, model.ActionOfferSent, "Offer sent: "+formatSalary(offer.Currency, offer.SalaryOffered), map[string]any{
		"offer_id": offer.ID.String(),
		"salary":   offer.SalaryOffered,
		"currency": offer.Currency,
	})
	s.notify(ctx, &model.Notification{
		ID:        uuid.New(),
		UserID:    app.CandidateID,
		Type:      "offer_received",
		Title:     "New Job Offer",
		Message:   "You received a job offer: " + formatSalary(offer.Currency, offer.SalaryOffered) + ".",
		ActionURL: "/candidate/offers",
		IsUrgent:  true,
		CreatedAt: now,
	})
	return offer, nil
}

// MarkViewed records the candidate's first look at a sent offer.
func (s *Service) MarkViewed(ctx context.Context, actor model.Actor, offerID uuid.UUID) (*model.Offer, error) {
	if err := requireRole(actor, model.RoleCandidate); err != nil {
		return nil, err
	}
	var offer *model.Offer
	changed := false
	err := s.commit(ctx, func(tx Store) error {
		var app *model.Application
		var err error
		offer, app, err = s.loadOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		if offer.Status != model.OfferSent {
			return nil
		}
		offer.Status = model.OfferViewed
		offer.UpdatedAt = s.now()
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		changed = true
		return s.enqueue(ctx, tx, offer.AgencyID, model.EventOfferViewed, offerPayload(offer, app))
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.record(ctx, actor, offer.ApplicationID, model.ActionOfferViewed, "Offer viewed by candidate", map[string]any{
			"offer_id": offer.ID.String(),
		})
	}
	return offer, nil
}

// SubmitCounterOffer opens a candidate counter. Only one counter may be
// pending per offer at any time.
func (s *Service) SubmitCounterOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.SubmitCounterReq) (*model.CounterOffer, error) {
	if err := requireRole(actor, model.RoleCandidate); err != nil {
		return nil, err
	}
	if req.RequestedSalary <= 0 {
		return nil, apperr.Invalid("invalid counter offer", map[string]string{"requested_salary": "must be greater than zero"})
	}

	var counter *model.CounterOffer
	var offer *model.Offer
	err := s.commit(ctx, func(tx Store) error {
		var app *model.Application
		var err error
		offer, app, err = s.loadOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		if !offer.Status.Open() {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot counter an offer with status %s", offer.Status))
		}
		if _, err := tx.GetPendingCounterOffer(ctx, offer.ID); err == nil {
			return apperr.New(apperr.CodeConflict, "a counter offer is already pending")
		} else if !apperr.Is(err, apperr.CodeNotFound) {
			return err
		}

		now := s.now()
		counter = &model.CounterOffer{
			ID:                uuid.New(),
			OfferID:           offer.ID,
			RequestedSalary:   req.RequestedSalary,
			RequestedCurrency: offer.Currency,
			CandidateMessage:  req.Message,
			Status:            model.CounterPending,
			CreatedBy:         model.CounterByCandidate,
			CreatedAt:         now,
		}
		if err := tx.CreateCounterOffer(ctx, counter); err != nil {
			return err
		}
		offer.Status = model.OfferNegotiating
		offer.UpdatedAt = now
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		payload := offerPayload(offer, app)
		payload["counter_offer_id"] = counter.ID.String()
		payload["requested_salary"] = counter.RequestedSalary
		return s.enqueue(ctx, tx, offer.AgencyID, model.EventCounterSubmitted, payload)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, offer.ApplicationID, model.ActionCounterSubmitted, "Counter offer submitted: "+formatSalary(counter.RequestedCurrency, counter.RequestedSalary), map[string]any{
		"offer_id":         offer.ID.String(),
		"counter_offer_id": counter.ID.String(),
		"requested_salary": counter.RequestedSalary,
	})
	return counter, nil
}

// pendingCounter loads a counter of offer that is still waiting for the
// actor's answer. Candidate counters are answered by the agency and employer
// counters by the candidate.
func pendingCounter(ctx context.Context, tx Store, actor model.Actor, offer *model.Offer, counterID uuid.UUID) (*model.CounterOffer, error) {
	switch offer.Status {
	case model.OfferAccepted, model.OfferRejected, model.OfferExpired, model.OfferWithdrawn:
		return nil, apperr.New(apperr.CodeInvalidState, fmt.Sprintf("offer is %s", offer.Status))
	}
	counter, err := tx.GetCounterOffer(ctx, counterID)
	if err != nil {
		return nil, err
	}
	if counter.OfferID != offer.ID {
		return nil, apperr.NotFound("counter offer")
	}
	if counter.Status != model.CounterPending {
		return nil, apperr.New(apperr.CodeInvalidState, "counter offer already responded to")
	}
	switch {
	case counter.CreatedBy == model.CounterByCandidate && actor.Role == model.RoleRecruiter:
	case counter.CreatedBy == model.CounterByEmployer && actor.Role == model.RoleCandidate:
	default:
		return nil, apperr.New(apperr.CodeForbidden, "counter offer must be answered by the other party")
	}
	return counter, nil
}

func (s *Service) AcceptCounterOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.AcceptCounterReq) (*model.Offer, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleCandidate); err != nil {
		return nil, err
	}

	var offer *model.Offer
	var app *model.Application
	var counter *model.CounterOffer
	err := s.commit(ctx, func(tx Store) error {
		var err error
		offer, app, err = s.loadOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		counter, err = pendingCounter(ctx, tx, actor, offer, req.CounterOfferID)
		if err != nil {
			return err
		}
		if app.Status.Terminal() {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("application is %s", app.Status))
		}

		now := s.now()
		counter.Status = model.CounterAccepted
		counter.ResponseType = ptr(model.ResponseAccepted)
		counter.RespondedAt = &now
		if actor.Role == model.RoleRecruiter && req.EmployerMessage != nil {
			counter.EmployerResponse = req.EmployerMessage
		}
		if err := tx.ResolveCounterOffer(ctx, counter); err != nil {
			return err
		}

		offer.SalaryOffered = counter.RequestedSalary
		offer.Currency = counter.RequestedCurrency
		offer.Status = model.OfferAccepted
		offer.RespondedAt = &now
		offer.UpdatedAt = now
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		if err := s.moveApplication(ctx, tx, app, model.StatusHired); err != nil {
			return err
		}
		payload := offerPayload(offer, app)
		payload["counter_offer_id"] = counter.ID.String()
		return s.enqueue(ctx, tx, offer.AgencyID, model.EventCounterAccepted, payload)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, app.ID, model.ActionCounterAccepted, "Counter offer accepted: "+formatSalary(offer.Currency, offer.SalaryOffered), map[string]any{
		"offer_id":         offer.ID.String(),
		"counter_offer_id": counter.ID.String(),
		"salary":           offer.SalaryOffered,
	})
	if actor.Role == model.RoleRecruiter {
		msg := "Your counter offer of " + formatSalary(offer.Currency, offer.SalaryOffered) + " was accepted."
		if req.EmployerMessage != nil && *req.EmployerMessage != "" {
			msg += " Message: " + *req.EmployerMessage
		}
		s.notify(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    app.CandidateID,
			Type:      "counter_accepted",
			Title:     "Counter Offer Accepted",
			Message:   msg,
			ActionURL: "/candidate/offers",
			IsUrgent:  true,
			CreatedAt: s.now(),
		})
	}
	return offer, nil
}

type RejectCounterResult struct {
	Offer      *model.Offer        `json:"offer"`
	Rejected   *model.CounterOffer `json:"rejected_counter_offer"`
	NewCounter *model.CounterOffer `json:"new_counter_offer,omitempty"`
}

// RejectCounterOffer declines a pending counter, optionally answering with a
// revised counter from the rejecting side.
func (s *Service) RejectCounterOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.RejectCounterReq) (*RejectCounterResult, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleCandidate); err != nil {
		return nil, err
	}
	if req.SendNewCounter && req.RevisedSalary <= 0 {
		return nil, apperr.Invalid("invalid revised counter", map[string]string{"revised_salary": "must be greater than zero when send_new_counter is true"})
	}
	if req.RevisedCurrency != "" {
		if _, ok := normalizeCurrency(req.RevisedCurrency, ""); !ok {
			return nil, apperr.Invalid("invalid revised counter", map[string]string{"revised_currency": "must be a three letter currency code"})
		}
	}
	employer := actor.Role == model.RoleRecruiter

	res := &RejectCounterResult{}
	var app *model.Application
	err := s.commit(ctx, func(tx Store) error {
		offer, a, err := s.loadOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		app = a
		counter, err := pendingCounter(ctx, tx, actor, offer, req.CounterOfferID)
		if err != nil {
			return err
		}

		now := s.now()
		counter.Status = model.CounterRejected
		counter.ResponseType = ptr(model.ResponseRejected)
		if req.SendNewCounter && employer {
			counter.ResponseType = ptr(model.ResponseEmployerCounter)
		}
		if employer {
			counter.EmployerResponse = req.EmployerMessage
		}
		counter.RespondedAt = &now
		if err := tx.ResolveCounterOffer(ctx, counter); err != nil {
			return err
		}
		res.Rejected = counter

		if req.SendNewCounter {
			currency, _ := normalizeCurrency(req.RevisedCurrency, counter.RequestedCurrency)
			if currency == "" {
				currency = s.opts.DefaultCurrency
			}
			next := &model.CounterOffer{
				ID:                uuid.New(),
				OfferID:           offer.ID,
				RequestedSalary:   req.RevisedSalary,
				RequestedCurrency: currency,
				Status:            model.CounterPending,
				CreatedAt:         now,
			}
			if employer {
				next.CreatedBy = model.CounterByEmployer
				next.ResponseType = ptr(model.ResponseEmployerCounter)
				next.EmployerResponse = req.EmployerMessage
				if next.EmployerResponse == nil {
					next.EmployerResponse = ptr("We would like to offer a revised salary.")
				}
				offer.SalaryOffered = req.RevisedSalary
				offer.Currency = currency
				offer.RespondedAt = &now
			} else {
				next.CreatedBy = model.CounterByCandidate
				next.CandidateMessage = req.EmployerMessage
			}
			if err := tx.CreateCounterOffer(ctx, next); err != nil {
				return err
			}
			res.NewCounter = next
			offer.Status = model.OfferNegotiating
		} else {
			offer.Status = model.OfferSent
		}
		offer.UpdatedAt = now
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		res.Offer = offer

		payload := offerPayload(offer, app)
		payload["counter_offer_id"] = counter.ID.String()
		payload["send_new_counter"] = req.SendNewCounter
		if res.NewCounter != nil {
			payload["new_counter_offer_id"] = res.NewCounter.ID.String()
			payload["revised_salary"] = res.NewCounter.RequestedSalary
		}
		return s.enqueue(ctx, tx, offer.AgencyID, model.EventCounterRejected, payload)
	})
	if err != nil {
		return nil, err
	}

	action, desc := model.ActionCounterRejected, "Counter offer declined"
	notifType, title := "counter_rejected", "Counter Offer Declined"
	msg := "Your counter offer was declined."
	if res.NewCounter != nil {
		action, desc = model.ActionCounterSent, "New counter offer sent: "+formatSalary(res.NewCounter.RequestedCurrency, res.NewCounter.RequestedSalary)
		notifType, title = "counter_received", "New Counter Offer Received"
		msg = "The employer sent a revised counter offer: " + formatSalary(res.NewCounter.RequestedCurrency, res.NewCounter.RequestedSalary) + "."
	}
	meta := map[string]any{
		"offer_id":         res.Offer.ID.String(),
		"counter_offer_id": res.Rejected.ID.String(),
		"send_new_counter": req.SendNewCounter,
	}
	s.record(ctx, actor, app.ID, action, desc, meta)

	if employer {
		if req.EmployerMessage != nil && *req.EmployerMessage != "" {
			msg += " Message: " + *req.EmployerMessage
		}
		s.notify(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    app.CandidateID,
			Type:      notifType,
			Title:     title,
			Message:   msg,
			ActionURL: "/candidate/offers",
			IsUrgent:  res.NewCounter != nil,
			CreatedAt: s.now(),
		})
	}
	return res, nil
}

// RespondToOffer is the candidate's answer to the offer's current terms.
func (s *Service) RespondToOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID, req model.RespondOfferReq) (*model.Offer, error) {
	if err := requireRole(actor, model.RoleCandidate); err != nil {
		return nil, err
	}

	var offer *model.Offer
	var app *model.Application
	err := s.commit(ctx, func(tx Store) error {
		var err error
		offer, app, err = s.loadOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		if !offer.Status.Open() {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot respond to an offer with status %s", offer.Status))
		}
		if _, err := tx.GetPendingCounterOffer(ctx, offer.ID); err == nil {
			return apperr.New(apperr.CodeConflict, "resolve the pending counter offer first")
		} else if !apperr.Is(err, apperr.CodeNotFound) {
			return err
		}

		now := s.now()
		offer.RespondedAt = &now
		offer.UpdatedAt = now
		event := model.EventOfferDeclined
		offer.Status = model.OfferRejected
		if req.Accept {
			offer.Status = model.OfferAccepted
			event = model.EventOfferAccepted
		}
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		if req.Accept && !app.Status.Terminal() && app.Status.Rank() < model.StatusOfferAccepted.Rank() {
			if err := s.moveApplication(ctx, tx, app, model.StatusOfferAccepted); err != nil {
				return err
			}
		}
		return s.enqueue(ctx, tx, offer.AgencyID, event, offerPayload(offer, app))
	})
	if err != nil {
		return nil, err
	}

	if req.Accept {
		s.record(ctx, actor, app.ID, model.ActionOfferAccepted, "Offer accepted by candidate", map[string]any{"offer_id": offer.ID.String()})
	} else {
		s.record(ctx, actor, app.ID, model.ActionOfferDeclined, "Offer declined by candidate", map[string]any{"offer_id": offer.ID.String()})
	}
	return offer, nil
}

// WithdrawOffer retracts an offer the candidate has not settled yet.
func (s *Service) WithdrawOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID) (*model.Offer, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}

	var offer *model.Offer
	var app *model.Application
	err := s.commit(ctx, func(tx Store) error {
		var err error
		offer, app, err = s.loadOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		if !offer.Status.Open() && offer.Status != model.OfferDraft {
			return apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot withdraw an offer with status %s", offer.Status))
		}
		now := s.now()
		if pending, err := tx.GetPendingCounterOffer(ctx, offer.ID); err == nil {
			pending.Status = model.CounterRejected
			pending.ResponseType = ptr(model.ResponseRejected)
			pending.RespondedAt = &now
			if err := tx.ResolveCounterOffer(ctx, pending); err != nil {
				return err
			}
		} else if !apperr.Is(err, apperr.CodeNotFound) {
			return err
		}
		offer.Status = model.OfferWithdrawn
		offer.UpdatedAt = now
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		if app.Status == model.StatusOfferSent {
			if err := s.moveApplication(ctx, tx, app, model.StatusOfferPending); err != nil {
				return err
			}
		}
		return s.enqueue(ctx, tx, offer.AgencyID, model.EventOfferWithdrawn, offerPayload(offer, app))
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, app.ID, model.ActionOfferWithdrawn, "Offer withdrawn", map[string]any{"offer_id": offer.ID.String()})
	s.notify(ctx, &model.Notification{
		ID:        uuid.New(),
		UserID:    app.CandidateID,
		Type:      "offer_withdrawn",
		Title:     "Offer Withdrawn",
		Message:   "A job offer sent to you has been withdrawn.",
		ActionURL: "/candidate/offers",
		CreatedAt: s.now(),
	})
	return offer, nil
}

// ExpireOffers moves open offers whose expires_at has passed to expired. It
// returns how many offers were expired; individual failures are logged.
func (s *Service) ExpireOffers(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListExpiredOffers(ctx, now, expirySweepBatch)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, o := range due {
		actor := model.SystemActor(o.AgencyID)
		var offer *model.Offer
		skipped := false
		err := s.commit(ctx, func(tx Store) error {
			var app *model.Application
			var err error
			offer, app, err = s.loadOffer(ctx, tx, actor, o.ID)
			if err != nil {
				return err
			}
			if !offer.Status.Open() || offer.ExpiresAt == nil || offer.ExpiresAt.After(now) {
				skipped = true
				return nil
			}
			offer.Status = model.OfferExpired
			offer.UpdatedAt = now
			if err := tx.UpdateOffer(ctx, offer); err != nil {
				return err
			}
			return s.enqueue(ctx, tx, offer.AgencyID, model.EventOfferExpired, offerPayload(offer, app))
		})
		if err != nil {
			s.log.Sugar().Warnw("offer expiry failed", "offer_id", o.ID, "error", err)
			continue
		}
		if skipped {
			continue
		}
		expired++
		s.record(ctx, actor, offer.ApplicationID, model.ActionOfferExpired, "Offer expired", map[string]any{"offer_id": offer.ID.String()})
	}
	return expired, nil
}

func (s *Service) GetOffer(ctx context.Context, actor model.Actor, offerID uuid.UUID) (*model.OfferDetail, error) {
	offer, _, err := s.loadOffer(ctx, s.store, actor, offerID)
	if err != nil {
		return nil, err
	}
	return s.offerDetail(ctx, offer)
}

func (s *Service) GetApplicationOffer(ctx context.Context, actor model.Actor, applicationID uuid.UUID) (*model.OfferDetail, error) {
	app, err := s.loadApplication(ctx, s.store, actor, applicationID)
	if err != nil {
		return nil, err
	}
	offer, err := s.store.GetOfferByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	return s.offerDetail(ctx, offer)
}

func (s *Service) offerDetail(ctx context.Context, offer *model.Offer) (*model.OfferDetail, error) {
	counters, err := s.store.ListCounterOffers(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		counters = []model.CounterOffer{}
	}
	return &model.OfferDetail{Offer: *offer, CounterOffers: counters}, nil
}
