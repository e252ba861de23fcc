package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Counter scopes
const (
	ScopeAudit            = "AUD"
	ScopeFinding          = "FND"
	ScopeCorrectiveAction = "CAR"
)

// SequenceRepo hands out document numbers from a counters table. The upsert
// increments and returns in one statement, so concurrent callers never see
// the same value.
type SequenceRepo struct {
	pool *pgxpool.Pool
}

func NewSequenceRepo(pool *pgxpool.Pool) *SequenceRepo {
	return &SequenceRepo{pool: pool}
}

func (r *SequenceRepo) next(ctx context.Context, scope string, period int) (int64, error) {
	var value int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sequence_counters (scope, period, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (scope, period) DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value
	`, scope, period).Scan(&value)
	return value, err
}

// NextAuditNumber returns AUD-<year>-NNNN, resetting each calendar year.
func (r *SequenceRepo) NextAuditNumber(ctx context.Context, now time.Time) (string, error) {
	year := now.Year()
	n, err := r.next(ctx, ScopeAudit, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AUD-%d-%04d", year, n), nil
}

// NextFindingNumber returns FND-NNNNNN from a single global counter.
func (r *SequenceRepo) NextFindingNumber(ctx context.Context) (string, error) {
	n, err := r.next(ctx, ScopeFinding, 0)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FND-%06d", n), nil
}

// NextCARNumber returns CAR-<year>-NNNN, resetting each calendar year.
func (r *SequenceRepo) NextCARNumber(ctx context.Context, now time.Time) (string, error) {
	year := now.Year()
	n, err := r.next(ctx, ScopeCorrectiveAction, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CAR-%d-%04d", year, n), nil
}
