package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationAdmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "reservation_admitted_total",
			Help:      "Count of reservations admitted.",
		},
	)

	reservationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "reservation_rejected_total",
			Help:      "Count of admission attempts refused by error kind.",
		},
		[]string{"kind"},
	)

	reservationTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "reservation_transition_total",
			Help:      "Count of lifecycle transitions by target status.",
		},
		[]string{"status"},
	)

	availabilityLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "availability_lookup_total",
			Help:      "Count of availability lookups by cache result.",
		},
		[]string{"cache"},
	)

	activityDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "activity_dropped_total",
			Help:      "Count of audit records that failed to persist.",
		},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "notification_total",
			Help:      "Count of manager notifications by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationAdmitted,
			reservationRejected,
			reservationTransition,
			availabilityLookups,
			activityDropped,
			notificationsSent,
			httpRequests,
		)
	})
}

func IncReservationAdmitted() {
	reservationAdmitted.Inc()
}

func IncReservationRejected(kind string) {
	reservationRejected.WithLabelValues(kind).Inc()
}

func IncTransition(status string) {
	reservationTransition.WithLabelValues(status).Inc()
}

func IncAvailabilityLookup(cacheResult string) {
	availabilityLookups.WithLabelValues(cacheResult).Inc()
}

func IncActivityDropped() {
	activityDropped.Inc()
}

func IncNotification(result string) {
	notificationsSent.WithLabelValues(result).Inc()
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
