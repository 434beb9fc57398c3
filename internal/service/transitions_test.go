package service

import (
	"testing"

	"github.com/examhall/booking-api/internal/model"
)

func TestOccupiesSlot(t *testing.T) {
	cases := []struct {
		status model.BookingStatus
		want   bool
	}{
		{model.StatusPending, true},
		{model.StatusConfirmed, true},
		{model.StatusRejected, false},
	}
	for _, tc := range cases {
		if got := OccupiesSlot(tc.status); got != tc.want {
			t.Errorf("OccupiesSlot(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestCapacityDelta(t *testing.T) {
	cases := []struct {
		from, to model.BookingStatus
		want     int
	}{
		{model.StatusPending, model.StatusPending, 0},
		{model.StatusPending, model.StatusConfirmed, 0},
		{model.StatusPending, model.StatusRejected, -1},
		{model.StatusConfirmed, model.StatusPending, 0},
		{model.StatusConfirmed, model.StatusConfirmed, 0},
		{model.StatusConfirmed, model.StatusRejected, -1},
		{model.StatusRejected, model.StatusPending, +1},
		{model.StatusRejected, model.StatusConfirmed, +1},
		{model.StatusRejected, model.StatusRejected, 0},
	}
	for _, tc := range cases {
		if got := CapacityDelta(tc.from, tc.to); got != tc.want {
			t.Errorf("CapacityDelta(%s, %s) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

// A full round trip across the rejected boundary must net to zero so
// the booked counter converges no matter how often a booking is
// reviewed back and forth.
func TestCapacityDeltaRoundTrip(t *testing.T) {
	sum := CapacityDelta(model.StatusConfirmed, model.StatusRejected) +
		CapacityDelta(model.StatusRejected, model.StatusConfirmed)
	if sum != 0 {
		t.Fatalf("round trip delta = %d, want 0", sum)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []model.BookingStatus{model.StatusPending, model.StatusConfirmed, model.StatusRejected} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false, want true", s)
		}
	}
	for _, s := range []model.BookingStatus{"", "pending", "CANCELLED", "confirmed "} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}
