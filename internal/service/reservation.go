// Package service implements the reservation core: ticket allocation,
// the booking status lifecycle and the capacity ledger calls that keep
// a shift's booked counter in step with its bookings.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/examhall/booking-api/internal/feed"
	"github.com/examhall/booking-api/internal/metrics"
	"github.com/examhall/booking-api/internal/model"
	"github.com/examhall/booking-api/internal/queue"
)

// ErrInvalidTransition is returned for lifecycle operations whose
// preconditions do not hold: an unknown status value, or a check-in on
// a booking that is not CONFIRMED.  The operation has no side effects.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrAlreadyAttended is returned when checking in a booking whose
// attended flag is already set.  The flag stays true; the caller may
// treat this as success-with-warning.  It wraps ErrInvalidTransition
// so callers matching only the broad class still catch it.
var ErrAlreadyAttended = fmt.Errorf("%w: already attended", ErrInvalidTransition)

// ErrShiftFull is returned when a reservation targets a shift whose
// booked counter has reached capacity at the time of the read.  This is
// an advisory pre-check, not a hard guarantee: two reservations racing
// past it can overshoot the counter, which converges but may briefly
// exceed capacity.
var ErrShiftFull = errors.New("shift is full")

// TicketAllocator issues unique, strictly increasing ticket numbers.
type TicketAllocator interface {
	Allocate(ctx context.Context) (uint64, error)
}

// CapacityLedger applies atomic +1/-1 deltas to a shift's booked
// counter.  Adjusting a missing shift is a silent no-op.
type CapacityLedger interface {
	AdjustBooked(ctx context.Context, shiftID uint64, delta int) error
}

// BookingStore persists booking records.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error
	SetAttended(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
	FindByTicketNumber(ctx context.Context, ticket uint64) (*model.Booking, error)
	FindByPhone(ctx context.Context, phone string) (*model.Booking, error)
}

// ShiftReader loads shifts for the reservation pre-check.
type ShiftReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Shift, error)
}

// ConfirmPublisher delivers a booking-confirmed event to the message
// broker.  May be nil, in which case confirmations are not announced.
type ConfirmPublisher func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// BookingDraft carries the applicant-supplied fields of a reservation
// request.  Status, ticket number and timestamps are assigned by
// Reserve.
type BookingDraft struct {
	ShiftID           uint64 `json:"shift_id"`
	FullName          string `json:"full_name"`
	NationalID        string `json:"national_id"`
	PhoneNumber       string `json:"phone_number"`
	ExamGroup         string `json:"exam_group"`
	ApplicationNumber string `json:"application_number"`
	Notes             string `json:"notes"`
	TransactionID     string `json:"transaction_id"`
	SenderPhone       string `json:"sender_phone"`
}

// ReservationService composes the ticket allocator, the capacity ledger
// and the booking store into the booking operations exposed to the
// public flow and the admin dashboard.
type ReservationService struct {
	alloc    TicketAllocator
	ledger   CapacityLedger
	bookings BookingStore
	shifts   ShiftReader
	feed     *feed.Feed
	confirm  ConfirmPublisher
}

// NewReservationService constructs the service.  The allocator, ledger,
// booking store and shift reader are required; feed and confirm may be
// nil.
func NewReservationService(alloc TicketAllocator, ledger CapacityLedger, bookings BookingStore, shifts ShiftReader, fd *feed.Feed, confirm ConfirmPublisher) *ReservationService {
	if alloc == nil || ledger == nil || bookings == nil || shifts == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{
		alloc:    alloc,
		ledger:   ledger,
		bookings: bookings,
		shifts:   shifts,
		feed:     fd,
		confirm:  confirm,
	}
}

// Reserve performs one logical booking: allocate a ticket number,
// persist a PENDING booking carrying it, then increment the shift's
// booked counter.  The ordering is deliberate: a failure after
// allocation burns a ticket number (numbers need not be contiguous),
// and a failure after the insert leaves a booking the counter does not
// yet reflect, corrected the next time the shift is adjusted.  Neither
// gap is rolled back.
func (s *ReservationService) Reserve(ctx context.Context, draft BookingDraft) (*model.Booking, error) {
	shift, err := s.shifts.GetByID(ctx, draft.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift.Booked >= int32(shift.Capacity) {
		return nil, ErrShiftFull
	}

	ticket, err := s.alloc.Allocate(ctx)
	if err != nil {
		return nil, err
	}
	metrics.TicketAllocations.Inc()

	b := &model.Booking{
		ShiftID:           draft.ShiftID,
		FullName:          draft.FullName,
		NationalID:        draft.NationalID,
		PhoneNumber:       draft.PhoneNumber,
		ExamGroup:         draft.ExamGroup,
		ApplicationNumber: draft.ApplicationNumber,
		Notes:             draft.Notes,
		TransactionID:     draft.TransactionID,
		SenderPhone:       draft.SenderPhone,
		Status:            model.StatusPending,
		TicketNumber:      ticket,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	metrics.ReservationsCreated.Inc()

	s.adjust(ctx, b.ShiftID, +1)
	s.feed.Publish(feed.Event{Collection: feed.CollectionBookings, Action: feed.ActionCreated, ID: b.ID, Payload: b})
	return b, nil
}

// ChangeStatus moves a booking to a new status and applies the capacity
// consequence.  The status write and the ledger adjustment are two
// separate steps: the status is the record of truth and always lands
// first; the counter is an eventually-consistent derived value whose
// failure does not undo the transition.
func (s *ReservationService) ChangeStatus(ctx context.Context, id uint64, status model.BookingStatus) (*model.Booking, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidTransition
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := b.Status
	if err := s.bookings.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	b.Status = status

	if delta := CapacityDelta(old, status); delta != 0 {
		s.adjust(ctx, b.ShiftID, delta)
	}
	s.feed.Publish(feed.Event{Collection: feed.CollectionBookings, Action: feed.ActionUpdated, ID: b.ID, Payload: b})

	if status == model.StatusConfirmed && old != model.StatusConfirmed && s.confirm != nil {
		ev := queue.BookingConfirmedEvent{
			BookingID:    b.ID,
			TicketNumber: b.TicketNumber,
			ShiftID:      b.ShiftID,
			FullName:     b.FullName,
			PhoneNumber:  b.PhoneNumber,
			ExamGroup:    b.ExamGroup,
			ConfirmedAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.confirm(ctx, ev); err != nil {
			log.Printf("reservation: publish booking.confirmed failed: %v", err)
		}
	}
	return b, nil
}

// Delete removes a booking.  A booking that still occupies a slot
// (status != REJECTED) releases it before the record goes away; a
// rejected booking's slot was already released at rejection time.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if OccupiesSlot(b.Status) {
		s.adjust(ctx, b.ShiftID, -1)
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	s.feed.Publish(feed.Event{Collection: feed.CollectionBookings, Action: feed.ActionDeleted, ID: id})
	return nil
}

// MarkAttended records hall entry for a confirmed booking.  The flag is
// one-way: a second check-in returns ErrAlreadyAttended and leaves the
// record untouched, and check-in on a non-confirmed booking returns
// ErrInvalidTransition with no side effects.
func (s *ReservationService) MarkAttended(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusConfirmed {
		return nil, ErrInvalidTransition
	}
	if b.Attended {
		return b, ErrAlreadyAttended
	}
	updated, err := s.bookings.SetAttended(ctx, id)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost a race: someone else flipped the flag or changed the
		// status between our read and the guarded write.
		return b, ErrAlreadyAttended
	}
	b.Attended = true
	s.feed.Publish(feed.Event{Collection: feed.CollectionBookings, Action: feed.ActionUpdated, ID: b.ID, Payload: b})
	return b, nil
}

// Lookup finds a booking for the entry-check flow, by ticket number
// first and by phone number as the manual fallback.
func (s *ReservationService) Lookup(ctx context.Context, ticket uint64, phone string) (*model.Booking, error) {
	if ticket != 0 {
		return s.bookings.FindByTicketNumber(ctx, ticket)
	}
	return s.bookings.FindByPhone(ctx, phone)
}

// adjust issues a best-effort ledger write.  Failures are logged and
// counted, never propagated: the booking record already reflects the
// operation, and the counter catches up on the next adjustment or a
// manual shift edit.
func (s *ReservationService) adjust(ctx context.Context, shiftID uint64, delta int) {
	if err := s.ledger.AdjustBooked(ctx, shiftID, delta); err != nil {
		metrics.LedgerFailures.Inc()
		log.Printf("reservation: capacity adjust shift=%d delta=%+d failed: %v", shiftID, delta, err)
		return
	}
	metrics.LedgerAdjustments.WithLabelValues(metrics.AdjustmentDirection(delta)).Inc()
}
