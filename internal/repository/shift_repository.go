package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/examhall/booking-api/internal/model"
)

// ShiftRepo provides CRUD operations for shifts and is the sole mutator
// of a shift's booked counter.  AdjustBooked is the capacity ledger:
// every status transition, deletion and reservation funnels its +1/-1
// through that single method.
type ShiftRepo struct {
	db *sql.DB
}

// NewShiftRepo returns a new ShiftRepo bound to the given database.
func NewShiftRepo(db *sql.DB) *ShiftRepo { return &ShiftRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning several repositories.
func (r *ShiftRepo) DB() *sql.DB { return r.db }

// Create inserts a new shift.  The booked counter always starts at
// zero regardless of what the caller set on the struct.  The generated
// ID and timestamps are populated on the provided record.
func (r *ShiftRepo) Create(ctx context.Context, s *model.Shift) error {
	const q = `INSERT INTO shifts (date, start_time, end_time, capacity, booked, price_cents)
	           VALUES (?, ?, ?, ?, 0, ?)`
	result, err := r.db.ExecContext(ctx, q, s.Date, s.StartTime, s.EndTime, s.Capacity, s.PriceCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.Booked = 0
	// Query back the full row to populate timestamps and defaults.
	fresh, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// GetByID returns a single shift or ErrShiftNotFound.
func (r *ShiftRepo) GetByID(ctx context.Context, id uint64) (*model.Shift, error) {
	const q = `SELECT id, date, start_time, end_time, capacity, booked, price_cents, created_at, updated_at
	           FROM shifts WHERE id = ?`
	var s model.Shift
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.Capacity, &s.Booked,
		&s.PriceCents, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShiftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all shifts ordered by date and start time.  When no
// shifts exist an empty slice is returned.
func (r *ShiftRepo) List(ctx context.Context) ([]model.Shift, error) {
	const q = `SELECT id, date, start_time, end_time, capacity, booked, price_cents, created_at, updated_at
	           FROM shifts ORDER BY date, start_time`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shifts := make([]model.Shift, 0)
	for rows.Next() {
		var s model.Shift
		if err := rows.Scan(
			&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.Capacity, &s.Booked,
			&s.PriceCents, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

// Update rewrites the admin-editable fields of a shift: date, times,
// capacity and price.  The booked counter is deliberately not part of
// the statement; only AdjustBooked touches it.  Returns
// ErrShiftNotFound when the id does not exist.
func (r *ShiftRepo) Update(ctx context.Context, s *model.Shift) error {
	const q = `UPDATE shifts SET date = ?, start_time = ?, end_time = ?, capacity = ?, price_cents = ?
	           WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, s.Date, s.StartTime, s.EndTime, s.Capacity, s.PriceCents, s.ID)
	if err != nil {
		return err
	}
	// RowsAffected is zero both for a missing row and for a no-op
	// update, so verify existence explicitly before reporting not found.
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	fresh, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Delete removes a shift.  Bookings referencing it are left in place;
// the original system treats orphaned bookings as a presentation
// concern, not a data error.  Returns ErrShiftNotFound when no row was
// deleted.
func (r *ShiftRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrShiftNotFound
	}
	return nil
}

// AdjustBooked applies a +1/-1 delta to a shift's booked counter as a
// single atomic statement.  The read-modify-write happens inside the
// database (`booked = booked + ?`), so concurrent adjustments can never
// lose updates the way a read-then-write pair would.
//
// The method does not enforce booked <= capacity; availability checks
// happen earlier, at shift selection, and the counter is allowed to
// overshoot transiently under race.  Adjusting a shift that no longer
// exists affects zero rows and returns nil: deletions do not
// retroactively invalidate in-flight adjustments.
func (r *ShiftRepo) AdjustBooked(ctx context.Context, shiftID uint64, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE shifts SET booked = booked + ? WHERE id = ?`, delta, shiftID)
	return err
}
