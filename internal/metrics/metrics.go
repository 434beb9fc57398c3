// Package metrics registers the Prometheus counters exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketAllocations counts successful ticket-number allocations.
	TicketAllocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "examhall_ticket_allocations_total",
		Help: "Number of ticket numbers allocated.",
	})

	// ReservationsCreated counts bookings created through the public flow.
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "examhall_reservations_created_total",
		Help: "Number of bookings created.",
	})

	// LedgerAdjustments counts capacity ledger writes by direction.
	LedgerAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examhall_ledger_adjustments_total",
		Help: "Number of booked-counter adjustments applied.",
	}, []string{"direction"})

	// LedgerFailures counts adjustments that could not commit.  These are
	// best-effort writes; a failure leaves the counter stale by one until
	// an admin corrects the shift.
	LedgerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "examhall_ledger_adjust_failures_total",
		Help: "Number of booked-counter adjustments that failed.",
	})
)

// AdjustmentDirection maps a ledger delta to its metric label.
func AdjustmentDirection(delta int) string {
	if delta > 0 {
		return "up"
	}
	return "down"
}
