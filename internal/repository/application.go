package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/internal/workflow"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorkflowRepository is the Postgres implementation of workflow.Store.
type WorkflowRepository struct {
	conn
}

var _ workflow.Store = (*WorkflowRepository)(nil)

func (r *WorkflowRepository) WithinTx(ctx context.Context, fn func(tx workflow.Store) error) error {
	return r.inTx(ctx, func(c conn) error {
		return fn(&WorkflowRepository{conn: c})
	})
}

const applicationCols = `
	id, agency_id, client_id, candidate_id, job_id, status, status_notes,
	released_to_client, release_status, released_at, released_by,
	rejection_reason, rejected_by, rejected_by_id, rejected_date,
	offer_acceptance_date, contract_signed, first_day_date, started_status,
	version, created_at, updated_at`

func scanApplication(row pgx.Row, extra ...any) (*model.Application, error) {
	var a model.Application
	dest := []any{
		&a.ID, &a.AgencyID, &a.ClientID, &a.CandidateID, &a.JobID, &a.Status, &a.StatusNotes,
		&a.ReleasedToClient, &a.ReleaseStatus, &a.ReleasedAt, &a.ReleasedBy,
		&a.RejectionReason, &a.RejectedBy, &a.RejectedByID, &a.RejectedDate,
		&a.OfferAcceptanceDate, &a.ContractSigned, &a.FirstDayDate, &a.StartedStatus,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *WorkflowRepository) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	q := `SELECT` + applicationCols + ` FROM applications WHERE id = $1`
	app, err := scanApplication(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbErr(err, "application")
	}
	return app, nil
}

func (r *WorkflowRepository) FindApplication(ctx context.Context, candidateID, jobID uuid.UUID) (*model.Application, error) {
	q := `SELECT` + applicationCols + ` FROM applications WHERE candidate_id = $1 AND job_id = $2`
	app, err := scanApplication(r.db.QueryRow(ctx, q, candidateID, jobID))
	if err != nil {
		return nil, dbErr(err, "application")
	}
	return app, nil
}

func (r *WorkflowRepository) ListApplications(ctx context.Context, f workflow.ApplicationFilter) ([]model.Application, int, error) {
	where := []string{"agency_id = $1"}
	args := []any{f.AgencyID}
	argID := 2

	add := func(cond string, val any) {
		where = append(where, fmt.Sprintf(cond, argID))
		args = append(args, val)
		argID++
	}
	if f.ClientID != nil {
		add("client_id = $%d", *f.ClientID)
	}
	if f.CandidateID != nil {
		add("candidate_id = $%d", *f.CandidateID)
	}
	if f.JobID != nil {
		add("job_id = $%d", *f.JobID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.ReleasedOnly {
		where = append(where, "released_to_client")
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := fmt.Sprintf(`SELECT%s, count(*) OVER () FROM applications WHERE %s
ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		applicationCols, strings.Join(where, " AND "), argID, argID+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, dbErr(err, "applications")
	}
	defer rows.Close()

	out := []model.Application{}
	total := 0
	for rows.Next() {
		app, err := scanApplication(rows, &total)
		if err != nil {
			return nil, 0, dbErr(err, "applications")
		}
		out = append(out, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbErr(err, "applications")
	}
	return out, total, nil
}

func (r *WorkflowRepository) CreateApplication(ctx context.Context, app *model.Application) error {
	const q = `
INSERT INTO applications (
	id, agency_id, client_id, candidate_id, job_id, status, status_notes,
	released_to_client, release_status, version, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)
`
	_, err := r.db.Exec(ctx, q,
		app.ID, app.AgencyID, app.ClientID, app.CandidateID, app.JobID, app.Status, app.StatusNotes,
		app.ReleasedToClient, app.ReleaseStatus, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return dbErr(err, "application")
	}
	app.Version = 1
	return nil
}

func (r *WorkflowRepository) UpdateApplication(ctx context.Context, app *model.Application) error {
	const q = `
UPDATE applications SET
	status = $3, status_notes = $4,
	released_to_client = $5, release_status = $6, released_at = $7, released_by = $8,
	rejection_reason = $9, rejected_by = $10, rejected_by_id = $11, rejected_date = $12,
	offer_acceptance_date = $13, contract_signed = $14, first_day_date = $15, started_status = $16,
	updated_at = $17, version = version + 1
WHERE id = $1 AND version = $2
`
	tag, err := r.db.Exec(ctx, q,
		app.ID, app.Version,
		app.Status, app.StatusNotes,
		app.ReleasedToClient, app.ReleaseStatus, app.ReleasedAt, app.ReleasedBy,
		app.RejectionReason, app.RejectedBy, app.RejectedByID, app.RejectedDate,
		app.OfferAcceptanceDate, app.ContractSigned, app.FirstDayDate, app.StartedStatus,
		app.UpdatedAt,
	)
	if err != nil {
		return dbErr(err, "application")
	}
	if tag.RowsAffected() == 0 {
		return r.versionMiss(ctx, "applications", "application", app.ID)
	}
	app.Version++
	return nil
}

// versionMiss tells a missing row apart from a lost optimistic-lock race.
func (r *WorkflowRepository) versionMiss(ctx context.Context, table, what string, id uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return dbErr(err, what)
	}
	if !exists {
		return apperr.NotFound(what)
	}
	return apperr.New(apperr.CodeConflict, what+" was modified concurrently")
}

func (r *WorkflowRepository) GetJobOwner(ctx context.Context, jobID uuid.UUID) (*workflow.JobOwner, error) {
	const q = `SELECT id, agency_id, client_id FROM jobs WHERE id = $1`
	var o workflow.JobOwner
	if err := r.db.QueryRow(ctx, q, jobID).Scan(&o.JobID, &o.AgencyID, &o.ClientID); err != nil {
		return nil, dbErr(err, "job")
	}
	return &o, nil
}

func (r *WorkflowRepository) CandidateName(ctx context.Context, candidateID uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT full_name FROM candidates WHERE id = $1`, candidateID).Scan(&name)
	if err != nil {
		return "", dbErr(err, "candidate")
	}
	return name, nil
}

func (r *WorkflowRepository) AgencyName(ctx context.Context, agencyID uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT name FROM agencies WHERE id = $1`, agencyID).Scan(&name)
	if err != nil {
		return "", dbErr(err, "agency")
	}
	return name, nil
}

func (r *WorkflowRepository) GetClientFeedback(ctx context.Context, applicationID uuid.UUID) (*model.ClientFeedback, error) {
	const q = `
SELECT application_id, notes, rating, updated_by, updated_at
FROM client_feedback WHERE application_id = $1
`
	var fb model.ClientFeedback
	err := r.db.QueryRow(ctx, q, applicationID).Scan(&fb.ApplicationID, &fb.Notes, &fb.Rating, &fb.UpdatedBy, &fb.UpdatedAt)
	if err != nil {
		return nil, dbErr(err, "client feedback")
	}
	return &fb, nil
}

// UpsertClientFeedback merges fb into the stored row. Nil fields keep their
// stored value and fb is refreshed from the merged row.
func (r *WorkflowRepository) UpsertClientFeedback(ctx context.Context, fb *model.ClientFeedback) error {
	const q = `
INSERT INTO client_feedback (application_id, notes, rating, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (application_id) DO UPDATE SET
	notes = COALESCE(EXCLUDED.notes, client_feedback.notes),
	rating = COALESCE(EXCLUDED.rating, client_feedback.rating),
	updated_by = EXCLUDED.updated_by,
	updated_at = EXCLUDED.updated_at
RETURNING application_id, notes, rating, updated_by, updated_at
`
	err := r.db.QueryRow(ctx, q, fb.ApplicationID, fb.Notes, fb.Rating, fb.UpdatedBy, fb.UpdatedAt).
		Scan(&fb.ApplicationID, &fb.Notes, &fb.Rating, &fb.UpdatedBy, &fb.UpdatedAt)
	if err != nil {
		return dbErr(err, "client feedback")
	}
	return nil
}
