// Package ledger is the gateway's view of the product's credit store. The
// store's transactional semantics live elsewhere; the gateway only debits a
// known cost before generating and records the outcome afterwards.
package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"renderhub/internal/domain"
	"renderhub/internal/gateway"
	"renderhub/internal/infra"
	"renderhub/internal/sqlinline"
)

// Ledger is the opaque debit/record contract the HTTP layer meters with.
type Ledger interface {
	Debit(ctx context.Context, userID string, amount float64) (remaining float64, err error)
	Record(ctx context.Context, userID, method string, result *gateway.GenerationResult) error
}

// Repo implements Ledger on the product's Postgres store.
type Repo struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func NewRepo(sql infra.SQLExecutor, logger zerolog.Logger) *Repo {
	return &Repo{sql: sql, logger: logger}
}

// Debit charges the user before a generation runs. It fails with
// domain.ErrInsufficientCredits when the balance cannot cover the amount.
func (r *Repo) Debit(ctx context.Context, userID string, amount float64) (float64, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QDebitCredits, userID, amount)
	var remaining float64
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, err
	}
	return remaining, nil
}

// Grant tops up a user's balance and returns the new total.
func (r *Repo) Grant(ctx context.Context, userID string, amount float64) (float64, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGrantCredits, userID, amount)
	var remaining float64
	if err := row.Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// Record stores a completed generation's metadata. Asset bytes belong to the
// caller; only the envelope is persisted.
func (r *Repo) Record(ctx context.Context, userID, method string, result *gateway.GenerationResult) error {
	_, err := r.sql.Exec(ctx, sqlinline.QRecordCreation,
		userID, method, result.CreditCost,
		result.Width, result.Height, result.ColorHex,
		result.DurationMs, result.PollCount)
	if err != nil {
		r.logger.Error().Err(err).Str("method", method).Msg("record creation failed")
	}
	return err
}

var _ Ledger = (*Repo)(nil)
