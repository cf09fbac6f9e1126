package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type conn struct {
	db querier
	// pool is nil while running inside a transaction.
	pool *pgxpool.Pool
}

// inTx runs fn in a transaction. Nested calls join the outer transaction.
func (c conn) inTx(ctx context.Context, fn func(c conn) error) error {
	if c.pool == nil {
		return fn(c)
	}
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(conn{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal("commit transaction", err)
	}
	return nil
}

type Repository struct {
	Workflow *WorkflowRepository
	Webhook  *WebhookRepository
}

func NewRepository(db *pgxpool.Pool) *Repository {
	c := conn{db: db, pool: db}
	return &Repository{
		Workflow: &WorkflowRepository{conn: c},
		Webhook:  &WebhookRepository{conn: c},
	}
}

// dbErr maps driver errors onto apperr codes. what names the entity, e.g.
// "offer".
func dbErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return apperr.Wrap(apperr.CodeConflict, what+" already exists", err)
		case "23503": // foreign_key_violation
			return apperr.Wrap(apperr.CodeNotFound, what+" references a missing row", err)
		case "23514": // check_violation
			return apperr.Wrap(apperr.CodeInvalidArgument, what+" violates a check constraint", err)
		}
	}
	return apperr.Internal(fmt.Sprintf("%s query failed", what), err)
}
