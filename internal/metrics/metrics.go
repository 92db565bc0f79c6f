package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schedula"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	chatIntents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_intents_total",
			Help:      "Classified chat messages by intent.",
		},
		[]string{"intent"},
	)

	bookingMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_mutations_total",
			Help:      "Booking writes triggered by chat, by action and result.",
		},
		[]string{"action", "result"},
	)

	sheetsSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_sync_total",
			Help:      "Google Sheets sync tasks by type and result.",
		},
		[]string{"task", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, chatIntents, bookingMutations, sheetsSync)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncIntent(intent string) {
	chatIntents.WithLabelValues(intent).Inc()
}

// IncMutation records a booking write; ok selects the "success"/"error" result label.
func IncMutation(action string, ok bool) {
	bookingMutations.WithLabelValues(action, result(ok)).Inc()
}

func IncSheetsSync(task string, ok bool) {
	sheetsSync.WithLabelValues(task, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
