package repository

import (
	"context"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const offerCols = `
	id, application_id, agency_id, salary_offered, currency, start_date,
	benefits_offered, additional_terms, message, status, sent_at, responded_at,
	expires_at, version, created_at, updated_at`

func scanOffer(row pgx.Row) (*model.Offer, error) {
	var o model.Offer
	err := row.Scan(
		&o.ID, &o.ApplicationID, &o.AgencyID, &o.SalaryOffered, &o.Currency, &o.StartDate,
		&o.BenefitsOffered, &o.AdditionalTerms, &o.Message, &o.Status, &o.SentAt, &o.RespondedAt,
		&o.ExpiresAt, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *WorkflowRepository) CreateOffer(ctx context.Context, o *model.Offer) error {
	const q = `
INSERT INTO offers (` + offerCols + `
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15)`
	benefits := o.BenefitsOffered
	if benefits == nil {
		benefits = []string{}
	}
	_, err := r.db.Exec(ctx, q,
		o.ID, o.ApplicationID, o.AgencyID, o.SalaryOffered, o.Currency, o.StartDate,
		benefits, o.AdditionalTerms, o.Message, o.Status, o.SentAt, o.RespondedAt,
		o.ExpiresAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return dbErr(err, "offer")
	}
	o.Version = 1
	return nil
}

func (r *WorkflowRepository) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	o, err := scanOffer(r.db.QueryRow(ctx, `SELECT`+offerCols+` FROM offers WHERE id = $1`, id))
	if err != nil {
		return nil, dbErr(err, "offer")
	}
	return o, nil
}

func (r *WorkflowRepository) GetOfferByApplication(ctx context.Context, applicationID uuid.UUID) (*model.Offer, error) {
	o, err := scanOffer(r.db.QueryRow(ctx, `SELECT`+offerCols+` FROM offers WHERE application_id = $1`, applicationID))
	if err != nil {
		return nil, dbErr(err, "offer")
	}
	return o, nil
}

func (r *WorkflowRepository) UpdateOffer(ctx context.Context, o *model.Offer) error {
	const q = `
UPDATE offers SET
	salary_offered = $3, currency = $4, start_date = $5, benefits_offered = $6,
	additional_terms = $7, message = $8, status = $9, sent_at = $10,
	responded_at = $11, expires_at = $12, updated_at = $13, version = version + 1
WHERE id = $1 AND version = $2
`
	benefits := o.BenefitsOffered
	if benefits == nil {
		benefits = []string{}
	}
	tag, err := r.db.Exec(ctx, q,
		o.ID, o.Version,
		o.SalaryOffered, o.Currency, o.StartDate, benefits,
		o.AdditionalTerms, o.Message, o.Status, o.SentAt,
		o.RespondedAt, o.ExpiresAt, o.UpdatedAt,
	)
	if err != nil {
		return dbErr(err, "offer")
	}
	if tag.RowsAffected() == 0 {
		return r.versionMiss(ctx, "offers", "offer", o.ID)
	}
	o.Version++
	return nil
}

// ListExpiredOffers returns open offers whose expiry has passed. The sweep
// expires each one through UpdateOffer, so a concurrent sweep loses on version.
func (r *WorkflowRepository) ListExpiredOffers(ctx context.Context, now time.Time, limit int) ([]model.Offer, error) {
	q := `SELECT` + offerCols + ` FROM offers
WHERE status IN ('sent', 'viewed', 'negotiating') AND expires_at IS NOT NULL AND expires_at <= $1
ORDER BY expires_at
LIMIT $2`
	rows, err := r.db.Query(ctx, q, now, limit)
	if err != nil {
		return nil, dbErr(err, "offers")
	}
	defer rows.Close()
	out := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, dbErr(err, "offers")
		}
		out = append(out, *o)
	}
	return out, dbErr(rows.Err(), "offers")
}

const counterCols = `
	id, offer_id, requested_salary, requested_currency, candidate_message,
	employer_response, response_type, status, created_by, created_at, responded_at`

func scanCounter(row pgx.Row) (*model.CounterOffer, error) {
	var c model.CounterOffer
	err := row.Scan(
		&c.ID, &c.OfferID, &c.RequestedSalary, &c.RequestedCurrency, &c.CandidateMessage,
		&c.EmployerResponse, &c.ResponseType, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCounterOffer relies on the partial unique index over pending counters
// to reject a second open negotiation round.
func (r *WorkflowRepository) CreateCounterOffer(ctx context.Context, c *model.CounterOffer) error {
	const q = `
INSERT INTO counter_offers (` + counterCols + `
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.Exec(ctx, q,
		c.ID, c.OfferID, c.RequestedSalary, c.RequestedCurrency, c.CandidateMessage,
		c.EmployerResponse, c.ResponseType, c.Status, c.CreatedBy, c.CreatedAt, c.RespondedAt,
	)
	if apperr.Is(dbErr(err, "counter offer"), apperr.CodeConflict) {
		return apperr.Wrap(apperr.CodeConflict, "a counter offer is already pending", err)
	}
	return dbErr(err, "counter offer")
}

func (r *WorkflowRepository) GetCounterOffer(ctx context.Context, id uuid.UUID) (*model.CounterOffer, error) {
	c, err := scanCounter(r.db.QueryRow(ctx, `SELECT`+counterCols+` FROM counter_offers WHERE id = $1`, id))
	if err != nil {
		return nil, dbErr(err, "counter offer")
	}
	return c, nil
}

func (r *WorkflowRepository) GetPendingCounterOffer(ctx context.Context, offerID uuid.UUID) (*model.CounterOffer, error) {
	q := `SELECT` + counterCols + ` FROM counter_offers WHERE offer_id = $1 AND status = 'pending'`
	c, err := scanCounter(r.db.QueryRow(ctx, q, offerID))
	if err != nil {
		return nil, dbErr(err, "counter offer")
	}
	return c, nil
}

// ResolveCounterOffer only updates a counter that is still pending, so two
// recruiters answering the same counter cannot both win.
func (r *WorkflowRepository) ResolveCounterOffer(ctx context.Context, c *model.CounterOffer) error {
	const q = `
UPDATE counter_offers SET
	employer_response = $2, response_type = $3, status = $4, responded_at = $5
WHERE id = $1 AND status = 'pending'
`
	tag, err := r.db.Exec(ctx, q, c.ID, c.EmployerResponse, c.ResponseType, c.Status, c.RespondedAt)
	if err != nil {
		return dbErr(err, "counter offer")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetCounterOffer(ctx, c.ID); err != nil {
			return err
		}
		return apperr.New(apperr.CodeConflict, "counter offer already resolved")
	}
	return nil
}

func (r *WorkflowRepository) ListCounterOffers(ctx context.Context, offerID uuid.UUID) ([]model.CounterOffer, error) {
	q := `SELECT` + counterCols + ` FROM counter_offers WHERE offer_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, q, offerID)
	if err != nil {
		return nil, dbErr(err, "counter offers")
	}
	defer rows.Close()
	out := []model.CounterOffer{}
	for rows.Next() {
		c, err := scanCounter(rows)
		if err != nil {
			return nil, dbErr(err, "counter offers")
		}
		out = append(out, *c)
	}
	return out, dbErr(rows.Err(), "counter offers")
}
