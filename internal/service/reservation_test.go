package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/examhall/booking-api/internal/model"
	"github.com/examhall/booking-api/internal/queue"
	"github.com/examhall/booking-api/internal/repository"
)

// ----- fakes -----

type fakeAllocator struct {
	mu   sync.Mutex
	next uint64
	err  error
}

func newFakeAllocator() *fakeAllocator { return &fakeAllocator{next: 1000} }

func (f *fakeAllocator) Allocate(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.next++
	return f.next, nil
}

type fakeLedger struct {
	mu     sync.Mutex
	deltas map[uint64][]int
	err    error
}

func newFakeLedger() *fakeLedger { return &fakeLedger{deltas: map[uint64][]int{}} }

func (f *fakeLedger) AdjustBooked(ctx context.Context, shiftID uint64, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deltas[shiftID] = append(f.deltas[shiftID], delta)
	return nil
}

func (f *fakeLedger) net(shiftID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.deltas[shiftID] {
		n += d
	}
	return n
}

type fakeBookings struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Booking
}

func newFakeBookings() *fakeBookings { return &fakeBookings{rows: map[uint64]model.Booking{}} }

func (f *fakeBookings) Create(ctx context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = f.nextID
	f.rows[b.ID] = *b
	return nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := b
	return &cp, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = status
	f.rows[id] = b
	return nil
}

func (f *fakeBookings) SetAttended(ctx context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok || b.Status != model.StatusConfirmed || b.Attended {
		return false, nil
	}
	b.Attended = true
	f.rows[id] = b
	return true, nil
}

func (f *fakeBookings) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeBookings) FindByTicketNumber(ctx context.Context, ticket uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.rows {
		if b.TicketNumber == ticket {
			cp := b
			return &cp, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (f *fakeBookings) FindByPhone(ctx context.Context, phone string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *model.Booking
	for _, b := range f.rows {
		if b.PhoneNumber == phone && (found == nil || b.ID > found.ID) {
			cp := b
			found = &cp
		}
	}
	if found == nil {
		return nil, repository.ErrBookingNotFound
	}
	return found, nil
}

type fakeShifts struct {
	mu   sync.Mutex
	rows map[uint64]model.Shift
}

func (f *fakeShifts) GetByID(ctx context.Context, id uint64) (*model.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrShiftNotFound
	}
	cp := s
	return &cp, nil
}

// ----- helpers -----

type fixture struct {
	alloc    *fakeAllocator
	ledger   *fakeLedger
	bookings *fakeBookings
	shifts   *fakeShifts
	svc      *ReservationService
}

func newFixture(t *testing.T, shifts ...model.Shift) *fixture {
	t.Helper()
	f := &fixture{
		alloc:    newFakeAllocator(),
		ledger:   newFakeLedger(),
		bookings: newFakeBookings(),
		shifts:   &fakeShifts{rows: map[uint64]model.Shift{}},
	}
	for _, s := range shifts {
		f.shifts.rows[s.ID] = s
	}
	f.svc = NewReservationService(f.alloc, f.ledger, f.bookings, f.shifts, nil, nil)
	return f
}

func draft(shiftID uint64) BookingDraft {
	return BookingDraft{
		ShiftID:     shiftID,
		FullName:    "Sara Ali",
		NationalID:  "29901011234567",
		PhoneNumber: "01000000001",
		ExamGroup:   "A",
	}
}

// ----- tests -----

func TestReserveAssignsTicketAndIncrements(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 7, Capacity: 30})

	b, err := f.svc.Reserve(context.Background(), draft(7))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.TicketNumber != 1001 {
		t.Errorf("ticket = %d, want 1001", b.TicketNumber)
	}
	if b.Status != model.StatusPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
	if got := f.ledger.net(7); got != 1 {
		t.Errorf("ledger net = %d, want 1", got)
	}
}

func TestReserveConcurrentTicketsDistinct(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 100})

	const n = 20
	var wg sync.WaitGroup
	tickets := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := f.svc.Reserve(context.Background(), draft(1))
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			tickets <- b.TicketNumber
		}()
	}
	wg.Wait()
	close(tickets)

	seen := map[uint64]bool{}
	for tk := range tickets {
		if seen[tk] {
			t.Fatalf("ticket %d issued twice", tk)
		}
		seen[tk] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d tickets, want %d", len(seen), n)
	}
	if got := f.ledger.net(1); got != n {
		t.Errorf("ledger net = %d, want %d", got, n)
	}
}

func TestReserveShiftFull(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 3, Capacity: 2, Booked: 2})

	_, err := f.svc.Reserve(context.Background(), draft(3))
	if !errors.Is(err, ErrShiftFull) {
		t.Fatalf("err = %v, want ErrShiftFull", err)
	}
	if f.alloc.next != 1000 {
		t.Errorf("allocator advanced to %d on a full shift", f.alloc.next)
	}
	if len(f.bookings.rows) != 0 {
		t.Errorf("booking created on a full shift")
	}
}

func TestReserveUnknownShift(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reserve(context.Background(), draft(99))
	if !errors.Is(err, repository.ErrShiftNotFound) {
		t.Fatalf("err = %v, want ErrShiftNotFound", err)
	}
}

func TestReserveAllocationFailureCreatesNothing(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})
	f.alloc.err = repository.ErrAllocationFailed

	_, err := f.svc.Reserve(context.Background(), draft(1))
	if !errors.Is(err, repository.ErrAllocationFailed) {
		t.Fatalf("err = %v, want ErrAllocationFailed", err)
	}
	if len(f.bookings.rows) != 0 {
		t.Errorf("booking created despite allocation failure")
	}
	if got := f.ledger.net(1); got != 0 {
		t.Errorf("ledger net = %d, want 0", got)
	}
}

func TestChangeStatusAppliesCapacityDelta(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})
	b, err := f.svc.Reserve(context.Background(), draft(1))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	// Creation counted +1.
	if got := f.ledger.net(1); got != 1 {
		t.Fatalf("after reserve ledger net = %d, want 1", got)
	}

	// PENDING -> CONFIRMED does not move the counter.
	if _, err := f.svc.ChangeStatus(context.Background(), b.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := f.ledger.net(1); got != 1 {
		t.Errorf("after confirm ledger net = %d, want 1", got)
	}

	// CONFIRMED -> REJECTED releases the slot.
	if _, err := f.svc.ChangeStatus(context.Background(), b.ID, model.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := f.ledger.net(1); got != 0 {
		t.Errorf("after reject ledger net = %d, want 0", got)
	}

	// REJECTED -> CONFIRMED re-occupies it.
	if _, err := f.svc.ChangeStatus(context.Background(), b.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if got := f.ledger.net(1); got != 1 {
		t.Errorf("after re-confirm ledger net = %d, want 1", got)
	}
}

func TestChangeStatusInvalidValue(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})
	b, _ := f.svc.Reserve(context.Background(), draft(1))

	_, err := f.svc.ChangeStatus(context.Background(), b.ID, "CANCELLED")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	got, _ := f.bookings.GetByID(context.Background(), b.ID)
	if got.Status != model.StatusPending {
		t.Errorf("status changed to %s by invalid transition", got.Status)
	}
}

func TestChangeStatusLedgerFailureDoesNotUndoStatus(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})
	b, _ := f.svc.Reserve(context.Background(), draft(1))

	f.ledger.err = errors.New("mysql gone away")
	updated, err := f.svc.ChangeStatus(context.Background(), b.ID, model.StatusRejected)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != model.StatusRejected {
		t.Errorf("status = %s, want REJECTED", updated.Status)
	}
	stored, _ := f.bookings.GetByID(context.Background(), b.ID)
	if stored.Status != model.StatusRejected {
		t.Errorf("stored status = %s, want REJECTED", stored.Status)
	}
}

func TestConfirmPublisherFiresOnceAndFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})

	var mu sync.Mutex
	var events []queue.BookingConfirmedEvent
	f.svc.confirm = func(ctx context.Context, ev queue.BookingConfirmedEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		return errors.New("broker down")
	}

	b, _ := f.svc.Reserve(context.Background(), draft(1))
	if _, err := f.svc.ChangeStatus(context.Background(), b.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// Re-confirming an already confirmed booking must not re-announce.
	if _, err := f.svc.ChangeStatus(context.Background(), b.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("publisher called %d times, want 1", len(events))
	}
	if events[0].TicketNumber != b.TicketNumber || events[0].BookingID != b.ID {
		t.Errorf("event = %+v, does not match booking %d/%d", events[0], b.ID, b.TicketNumber)
	}
}

func TestDeleteReleasesOccupiedSlotOnly(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})

	pending, _ := f.svc.Reserve(context.Background(), draft(1))
	rejected, _ := f.svc.Reserve(context.Background(), draft(1))
	if _, err := f.svc.ChangeStatus(context.Background(), rejected.ID, model.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	// Two creations (+2), one rejection (-1).
	if got := f.ledger.net(1); got != 1 {
		t.Fatalf("ledger net = %d, want 1", got)
	}

	// Deleting the pending booking frees its slot.
	if err := f.svc.Delete(context.Background(), pending.ID); err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	if got := f.ledger.net(1); got != 0 {
		t.Errorf("after deleting pending ledger net = %d, want 0", got)
	}

	// Deleting the rejected booking must not double-free.
	if err := f.svc.Delete(context.Background(), rejected.ID); err != nil {
		t.Fatalf("delete rejected: %v", err)
	}
	if got := f.ledger.net(1); got != 0 {
		t.Errorf("after deleting rejected ledger net = %d, want 0", got)
	}
}

func TestMarkAttended(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})
	b, _ := f.svc.Reserve(context.Background(), draft(1))

	// Check-in before confirmation is refused.
	if _, err := f.svc.MarkAttended(context.Background(), b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	if _, err := f.svc.ChangeStatus(context.Background(), b.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, err := f.svc.MarkAttended(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("MarkAttended: %v", err)
	}
	if !got.Attended {
		t.Errorf("attended = false after check-in")
	}

	// Second check-in reports the duplicate and changes nothing.
	if _, err := f.svc.MarkAttended(context.Background(), b.ID); !errors.Is(err, ErrAlreadyAttended) {
		t.Fatalf("err = %v, want ErrAlreadyAttended", err)
	}
	stored, _ := f.bookings.GetByID(context.Background(), b.ID)
	if !stored.Attended {
		t.Errorf("attended flag lost after duplicate check-in")
	}
}

// Walks a two-seat shift through the full review flow: two
// reservations fill it, confirming one holds the count, rejecting the
// other releases a seat, and deleting the confirmed one empties it.
func TestTwoSeatShiftFullReviewFlow(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 2})
	ctx := context.Background()

	a, err := f.svc.Reserve(ctx, draft(1))
	if err != nil {
		t.Fatalf("reserve A: %v", err)
	}
	b, err := f.svc.Reserve(ctx, draft(1))
	if err != nil {
		t.Fatalf("reserve B: %v", err)
	}
	if a.TicketNumber != 1001 || b.TicketNumber != 1002 {
		t.Fatalf("tickets = %d, %d, want 1001, 1002", a.TicketNumber, b.TicketNumber)
	}
	if got := f.ledger.net(1); got != 2 {
		t.Fatalf("after reserves ledger net = %d, want 2", got)
	}

	if _, err := f.svc.ChangeStatus(ctx, a.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm A: %v", err)
	}
	if got := f.ledger.net(1); got != 2 {
		t.Errorf("after confirming A ledger net = %d, want 2", got)
	}

	if _, err := f.svc.ChangeStatus(ctx, b.ID, model.StatusRejected); err != nil {
		t.Fatalf("reject B: %v", err)
	}
	if got := f.ledger.net(1); got != 1 {
		t.Errorf("after rejecting B ledger net = %d, want 1", got)
	}

	if err := f.svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete A: %v", err)
	}
	if got := f.ledger.net(1); got != 0 {
		t.Errorf("after deleting A ledger net = %d, want 0", got)
	}
}

func TestLookupTicketFirstPhoneFallback(t *testing.T) {
	f := newFixture(t, model.Shift{ID: 1, Capacity: 10})
	b, _ := f.svc.Reserve(context.Background(), draft(1))

	byTicket, err := f.svc.Lookup(context.Background(), b.TicketNumber, "")
	if err != nil || byTicket.ID != b.ID {
		t.Fatalf("lookup by ticket: %v, got %+v", err, byTicket)
	}
	byPhone, err := f.svc.Lookup(context.Background(), 0, b.PhoneNumber)
	if err != nil || byPhone.ID != b.ID {
		t.Fatalf("lookup by phone: %v, got %+v", err, byPhone)
	}
	if _, err := f.svc.Lookup(context.Background(), 424242, ""); !errors.Is(err, repository.ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}
