package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// TicketCounterRepo owns the single-row ticket_counter table.  Allocate
// is the only writer; every other part of the system treats ticket
// numbers as opaque, already-assigned values.
type TicketCounterRepo struct {
	db *sql.DB
}

// NewTicketCounterRepo returns a TicketCounterRepo bound to the given database.
func NewTicketCounterRepo(db *sql.DB) *TicketCounterRepo { return &TicketCounterRepo{db: db} }

// counterSeed is the value the counter starts from when the row is
// missing; the first allocation then returns counterSeed+1.
const counterSeed = 1000

// allocateAttempts bounds the deadlock retry loop.  Lock waits on the
// counter row are serialized by InnoDB itself, so retries only fire on
// the rare deadlock/timeout errors.
const allocateAttempts = 5

// Allocate reserves and returns the next ticket number.  The
// read-modify-write runs in one transaction with the counter row locked
// (SELECT ... FOR UPDATE), so no two calls can ever observe the same
// current value regardless of concurrency.  Gaps are permitted: a
// number consumed by a reservation that later fails to persist is never
// reused.
//
// When the transaction cannot commit after retries, Allocate returns an
// error wrapping ErrAllocationFailed and no counter state is changed.
func (r *TicketCounterRepo) Allocate(ctx context.Context) (uint64, error) {
	var lastErr error
	for attempt := 0; attempt < allocateAttempts; attempt++ {
		n, err := r.allocateOnce(ctx)
		if err == nil {
			return n, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
		// Brief backoff before re-running the transaction.
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("%w: %v", ErrAllocationFailed, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrAllocationFailed, lastErr)
}

func (r *TicketCounterRepo) allocateOnce(ctx context.Context) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current uint64
	err = tx.QueryRowContext(ctx,
		`SELECT current FROM ticket_counter WHERE id = 1 FOR UPDATE`,
	).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Counter row missing (fresh database without the seed); start
		// from the seed value, mirroring `(current ?? 1000) + 1`.
		current = counterSeed
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO ticket_counter (id, current) VALUES (1, ?)`, current+1,
		); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		if _, err = tx.ExecContext(ctx,
			`UPDATE ticket_counter SET current = ? WHERE id = 1`, current+1,
		); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return current + 1, nil
}

// retryable reports whether the allocation transaction should be
// re-run.  MySQL signals deadlock as 1213 and lock wait timeout as
// 1205; both mean a conflicting writer won and the transaction can be
// retried safely because nothing was committed.
func retryable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}
