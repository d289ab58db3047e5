package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restops",
			Name:      "booking_created_total",
			Help:      "Count of bookings created, by resource kind.",
		},
		[]string{"kind"},
	)

	bookingDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restops",
			Name:      "booking_decision_total",
			Help:      "Count of lifecycle decisions over bookings.",
		},
		[]string{"kind", "decision"},
	)

	schedulingConflict = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restops",
			Name:      "scheduling_conflict_total",
			Help:      "Count of requests rejected by the overlap check.",
		},
		[]string{"kind", "op"},
	)

	lockContention = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restops",
			Name:      "lock_contention_total",
			Help:      "Count of per-resource lock waits that timed out.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingDecision, schedulingConflict, lockContention)
	})
}

func IncBookingCreated(kind string) {
	bookingCreated.WithLabelValues(kind).Inc()
}

func IncDecision(kind, decision string) {
	bookingDecision.WithLabelValues(kind, decision).Inc()
}

func IncConflict(kind, op string) {
	schedulingConflict.WithLabelValues(kind, op).Inc()
}

func IncContention(kind string) {
	lockContention.WithLabelValues(kind).Inc()
}
