package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

// Booking lifecycle states.  A booking is created PENDING and moves to
// CONFIRMED or REJECTED by admin review; any direct move between the
// three states is permitted.
const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusRejected  BookingStatus = "REJECTED"
)

// Booking represents one applicant's reservation for a shift.  The
// ticket number is allocated before insert and never changes; Attended
// is a one-way flag set at the hall entrance.
type Booking struct {
	ID                uint64        `json:"id"`                 // primary key
	ShiftID           uint64        `json:"shift_id"`           // the reserved shift
	FullName          string        `json:"full_name"`          // applicant full name
	NationalID        string        `json:"national_id"`        // applicant national id number
	PhoneNumber       string        `json:"phone_number"`       // applicant contact phone
	ExamGroup         string        `json:"exam_group"`         // exam group or subject
	ApplicationNumber string        `json:"application_number"` // external application reference
	Notes             string        `json:"notes,omitempty"`    // free-form admin notes
	TransactionID     string        `json:"transaction_id"`     // payment transaction reference
	SenderPhone       string        `json:"sender_phone"`       // phone the payment was sent from
	Status            BookingStatus `json:"status"`             // lifecycle state
	TicketNumber      uint64        `json:"ticket_number"`      // unique sequential ticket
	Attended          bool          `json:"attended"`           // hall entry recorded
	CreatedAt         time.Time     `json:"created_at"`         // reservation time
}

// Stats aggregates dashboard totals across all bookings.
type Stats struct {
	TotalBookings     uint64 `json:"total_bookings"`      // all bookings regardless of status
	ConfirmedBookings uint64 `json:"confirmed_bookings"`  // bookings in CONFIRMED state
	TotalRevenueCents uint64 `json:"total_revenue_cents"` // confirmed bookings priced at their shift fee
}
