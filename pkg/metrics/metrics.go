package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	bookingTransitions   *prometheus.CounterVec
	slotConflicts        prometheus.Counter
	availabilityDegraded prometheus.Counter
	availabilityCache    *prometheus.CounterVec
	sideEffectFailures   *prometheus.CounterVec
	webhookEvents        *prometheus.CounterVec
	expiredBookings      prometheus.Counter
	manualRefunds        *prometheus.CounterVec

	registerer prometheus.Registerer
	namespace  string
}

// New регистрирует метрики в reg. Если метрики выключены, передаём отдельный
// prometheus.NewRegistry(), который никуда не экспортируется
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	ns := sanitize(serviceName)

	return &Metrics{
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		bookingTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target status",
		}, []string{"status"}),

		slotConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "slot_conflicts_total",
			Help:      "Reservations rejected because the slot was already taken",
		}),

		availabilityDegraded: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "availability_degraded_total",
			Help:      "Availability responses served without the external calendar",
		}),

		availabilityCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by result",
		}, []string{"result"}),

		sideEffectFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "side_effect_failures_total",
			Help:      "Post-payment side effect failures by step",
		}, []string{"step"}),

		webhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "payment_webhook_events_total",
			Help:      "Payment webhook events by type and outcome",
		}, []string{"type", "outcome"}),

		expiredBookings: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "expired_pending_bookings_total",
			Help:      "Pending bookings cancelled by the reaper",
		}),

		manualRefunds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "manual_refunds_required_total",
			Help:      "Payments that need a manual refund, by reason",
		}, []string{"reason"}),

		registerer: reg,
		namespace:  ns,
	}
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) IncBookingTransition(status string) {
	m.bookingTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncSlotConflict() {
	m.slotConflicts.Inc()
}

func (m *Metrics) IncAvailabilityDegraded() {
	m.availabilityDegraded.Inc()
}

// IncAvailabilityCache result: hit, miss, error
func (m *Metrics) IncAvailabilityCache(result string) {
	m.availabilityCache.WithLabelValues(result).Inc()
}

func (m *Metrics) IncSideEffectFailure(step string) {
	m.sideEffectFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) AddExpiredBookings(n int) {
	m.expiredBookings.Add(float64(n))
}

// IncManualRefund reason: cancelled_booking, double_payment, cancelled_paid
func (m *Metrics) IncManualRefund(reason string) {
	m.manualRefunds.WithLabelValues(reason).Inc()
}

// RegisterDBStats экспортирует статистику connection pool
func (m *Metrics) RegisterDBStats(db *sql.DB, dbName string) error {
	return m.registerer.Register(collectors.NewDBStatsCollector(db, dbName))
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
