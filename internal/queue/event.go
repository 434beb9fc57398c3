// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when an administrator confirms a
// booking.  It carries enough context for downstream consumers to log
// or notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID    uint64 `json:"booking_id"`
	TicketNumber uint64 `json:"ticket_number"`
	ShiftID      uint64 `json:"shift_id"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	ExamGroup    string `json:"exam_group"`
	ConfirmedAt  string `json:"confirmed_at"`
}
