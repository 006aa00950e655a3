// Package metrics provides Prometheus instrumentation for the chat client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequestDuration tracks /chat round trips by outcome.
	ChatRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estoque_chat_request_duration_seconds",
			Help:    "Chat request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 4, 5},
		},
		[]string{"outcome"},
	)

	// ChatRequestsTotal counts /chat calls by outcome.
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estoque_chat_requests_total",
			Help: "Total chat requests",
		},
		[]string{"outcome"},
	)

	// StatusProbesTotal counts /status probes by result.
	StatusProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estoque_status_probes_total",
			Help: "Total status probes",
		},
		[]string{"result"},
	)

	// BackendOnline mirrors the visible online/offline indicator.
	BackendOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "estoque_backend_online",
			Help: "1 when the last status probe reported the chatbot available",
		},
	)

	// DeliveryAttemptsTotal counts delivery ladder attempts by strategy and result.
	DeliveryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estoque_delivery_attempts_total",
			Help: "Delivery ladder attempts",
		},
		[]string{"strategy", "result"},
	)

	// MessagesTotal counts transcript entries by sender.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estoque_messages_total",
			Help: "Transcript messages appended",
		},
		[]string{"sender"},
	)
)

// RecordChat records one chat round trip.
func RecordChat(outcome string, seconds float64) {
	ChatRequestDuration.WithLabelValues(outcome).Observe(seconds)
	ChatRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordProbe records a status probe and updates the online gauge.
func RecordProbe(online bool, failed bool) {
	result := "online"
	switch {
	case failed:
		result = "error"
	case !online:
		result = "offline"
	}
	StatusProbesTotal.WithLabelValues(result).Inc()
	if online {
		BackendOnline.Set(1)
	} else {
		BackendOnline.Set(0)
	}
}

// RecordDelivery records a single delivery ladder attempt.
func RecordDelivery(strategy, result string) {
	DeliveryAttemptsTotal.WithLabelValues(strategy, result).Inc()
}

// RecordMessage records a transcript append.
func RecordMessage(sender string) {
	MessagesTotal.WithLabelValues(sender).Inc()
}
