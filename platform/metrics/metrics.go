// Package metrics exposes Prometheus collectors for the ingestion pipeline.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadintel"

// Ingestion outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	leadsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_ingested_total",
		Help:      "Ingestion calls by outcome.",
	}, []string{"outcome"})

	alertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_alerts_raised_total",
		Help:      "Alerts persisted by priority.",
	}, []string{"priority"})

	intentScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lead_intent_score",
		Help:      "Distribution of computed intent scores.",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 85, 90, 100},
	})

	ingestWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_ingest_warnings_total",
		Help:      "Side effects that failed after the lead was committed.",
	}, []string{"step"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alert_notifications_total",
		Help:      "Alert fan-out deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})

	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alert_stream_clients",
		Help:      "Connected alert stream clients.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// LeadIngested counts one ingestion outcome.
func LeadIngested(outcome string) {
	leadsIngested.WithLabelValues(outcome).Inc()
}

// AlertRaised counts one persisted alert.
func AlertRaised(priority string) {
	alertsRaised.WithLabelValues(priority).Inc()
}

// ObserveScore records a computed intent score.
func ObserveScore(score int) {
	intentScore.Observe(float64(score))
}

// IngestWarning counts a failed post-commit step.
func IngestWarning(step string) {
	ingestWarnings.WithLabelValues(step).Inc()
}

// NotificationDelivered counts one fan-out attempt. outcome is "sent" or "failed".
func NotificationDelivered(channel, outcome string) {
	notifications.WithLabelValues(channel, outcome).Inc()
}

// SetStreamClients reports the number of connected alert stream clients.
func SetStreamClients(n int) {
	sseClients.Set(float64(n))
}

// ObserveHTTPRequest records request latency.
func ObserveHTTPRequest(method, route string, status int, latency time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(latency.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
