package service

import "github.com/examhall/booking-api/internal/model"

// OccupiesSlot reports whether a booking in the given status counts
// against its shift's capacity.  Every status except REJECTED occupies
// a slot, including PENDING: a slot is taken from the moment the
// reservation is made, not when it is confirmed.
func OccupiesSlot(s model.BookingStatus) bool {
	return s != model.StatusRejected
}

// CapacityDelta returns the booked-counter adjustment a status change
// requires.  Only transitions across the REJECTED boundary move the
// counter: entering REJECTED releases the slot (-1), leaving it
// re-occupies one (+1).  PENDING<->CONFIRMED moves are free because the
// slot was counted at creation.
func CapacityDelta(from, to model.BookingStatus) int {
	switch {
	case OccupiesSlot(from) && !OccupiesSlot(to):
		return -1
	case !OccupiesSlot(from) && OccupiesSlot(to):
		return +1
	default:
		return 0
	}
}

// ValidStatus reports whether s is one of the three booking statuses.
func ValidStatus(s model.BookingStatus) bool {
	switch s {
	case model.StatusPending, model.StatusConfirmed, model.StatusRejected:
		return true
	}
	return false
}
