package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/examhall/booking-api/internal/model"
)

// BookingRepo provides persistence for booking records.  Status and
// attendance writes here are deliberately plain single-row updates:
// the capacity consequences of a transition are the lifecycle
// manager's job, not the repository's.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, shift_id, full_name, national_id, phone_number, exam_group,
	application_number, notes, transaction_id, sender_phone, status, ticket_number, attended, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var notes sql.NullString
	err := row.Scan(
		&b.ID, &b.ShiftID, &b.FullName, &b.NationalID, &b.PhoneNumber, &b.ExamGroup,
		&b.ApplicationNumber, &notes, &b.TransactionID, &b.SenderPhone,
		&b.Status, &b.TicketNumber, &b.Attended, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		b.Notes = notes.String
	}
	return &b, nil
}

// Create inserts a new booking carrying an already-allocated ticket
// number.  The generated ID and the database-side creation timestamp
// are populated on the provided record.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (shift_id, full_name, national_id, phone_number, exam_group, application_number,
	            notes, transaction_id, sender_phone, status, ticket_number)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		b.ShiftID, b.FullName, b.NationalID, b.PhoneNumber, b.ExamGroup, b.ApplicationNumber,
		b.Notes, b.TransactionID, b.SenderPhone, b.Status, b.TicketNumber,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	fresh, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *fresh
	return nil
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// BookingFilter narrows List results.  Zero values mean "no filter".
type BookingFilter struct {
	ShiftID uint64
	Status  model.BookingStatus
}

// List returns bookings matching the filter, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	var conds []string
	var args []any
	if f.ShiftID != 0 {
		conds = append(conds, "shift_id = ?")
		args = append(args, f.ShiftID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus persists a new status for a booking.  It does not check
// the previous value; last writer wins, matching the rest of the
// booking record's concurrency model.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return err
}

// SetAttended flips the attended flag to true, guarded in SQL so the
// transition only happens from (CONFIRMED, attended=false).  The
// returned boolean reports whether this call performed the flip; false
// means another caller won the race or the precondition no longer
// holds.
func (r *BookingRepo) SetAttended(ctx context.Context, id uint64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET attended = 1 WHERE id = ? AND status = 'CONFIRMED' AND attended = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes a booking.  Returns ErrBookingNotFound when no row was
// deleted.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// FindByTicketNumber returns the booking holding the given ticket
// number, for entry-check scans.  ErrBookingNotFound when no booking
// carries that number.
func (r *BookingRepo) FindByTicketNumber(ctx context.Context, ticket uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE ticket_number = ?`, ticket))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// FindByPhone returns the most recent booking for a phone number, the
// manual fallback when a ticket cannot be scanned at the door.
func (r *BookingRepo) FindByPhone(ctx context.Context, phone string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE phone_number = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// Stats aggregates dashboard totals.  Revenue counts confirmed bookings
// at their shift's current price; bookings whose shift was deleted
// contribute no revenue.
func (r *BookingRepo) Stats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(b.status = 'CONFIRMED'), 0),
		       COALESCE(SUM(CASE WHEN b.status = 'CONFIRMED' THEN s.price_cents ELSE 0 END), 0)
		FROM bookings b
		LEFT JOIN shifts s ON s.id = b.shift_id`,
	).Scan(&st.TotalBookings, &st.ConfirmedBookings, &st.TotalRevenueCents)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
