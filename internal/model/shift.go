// Package model defines the data structures persisted by the booking
// service.  Each struct mirrors a database table; JSON tags shape the
// API responses.
package model

import "time"

// Shift represents one bookable exam session.  Date holds an ISO date
// (YYYY-MM-DD); StartTime and EndTime hold wall-clock times (HH:MM).
// Capacity is the number of seats the hall offers for this session and
// Booked counts the bookings currently occupying a seat.  Booked is
// signed: best-effort ledger adjustments can transiently undershoot
// zero and the value converges rather than being clamped in storage.
type Shift struct {
	ID         uint64    `json:"id"`          // primary key
	Date       string    `json:"date"`        // exam date, YYYY-MM-DD
	StartTime  string    `json:"start_time"`  // session start, HH:MM
	EndTime    string    `json:"end_time"`    // session end, HH:MM
	Capacity   uint32    `json:"capacity"`    // seats offered
	Booked     int32     `json:"booked"`      // seats currently occupied
	PriceCents uint32    `json:"price_cents"` // exam fee in cents
	CreatedAt  time.Time `json:"created_at"`  // row creation time
	UpdatedAt  time.Time `json:"updated_at"`  // last modification time
}

// Remaining returns the number of free seats, clamped at zero for
// presentation when the counter has overshot capacity.
func (s *Shift) Remaining() uint32 {
	if s.Booked >= int32(s.Capacity) {
		return 0
	}
	if s.Booked < 0 {
		return s.Capacity
	}
	return s.Capacity - uint32(s.Booked)
}
