package monitoring

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets issued per event",
		},
		[]string{"event_id"},
	)

	checkinOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkins_total",
			Help: "Total check-in scan operations by result",
		},
		[]string{"result"},
	)

	soldSeats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_sold_seats",
			Help: "Current sold-seat count per event",
		},
		[]string{"event_id"},
	)

	issuanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_issuance_duration_seconds",
			Help:    "Duration of the full join-event workflow",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	paymentSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_sessions_total",
			Help: "Payment session operations by status",
		},
		[]string{"status"},
	)
)

// TrackIssuance records a completed join-event workflow.
func TrackIssuance(eventID string, duration time.Duration) {
	ticketsIssued.WithLabelValues(eventID).Inc()
	issuanceDuration.Observe(duration.Seconds())
}

// TrackCheckin counts a scan phase outcome (verified, confirmed,
// already_used, not_found, invalid_payload, confirm_failed).
func TrackCheckin(result string) {
	checkinOps.WithLabelValues(result).Inc()
}

// SetSoldSeats updates the live sold-seat gauge for an event.
func SetSoldSeats(eventID string, sold int) {
	soldSeats.WithLabelValues(eventID).Set(float64(sold))
}

// TrackPaymentSession counts payment session transitions.
func TrackPaymentSession(status string) {
	paymentSessions.WithLabelValues(status).Inc()
}

// Monitor periodically samples the Redis stats mirror so the gauges
// survive process restarts.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	if redisClient != nil {
		go monitor.collectMetrics()
	}

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectEventStats(context.Background())
	}
}

func (m *Monitor) collectEventStats(ctx context.Context) {
	keys, err := m.redis.Keys(ctx, "event:stats:*").Result()
	if err != nil {
		return
	}

	for _, key := range keys {
		eventID := key[len("event:stats:"):]
		value, err := m.redis.HGet(ctx, key, "sold_seats").Result()
		if err != nil {
			continue
		}
		if sold, err := strconv.Atoi(value); err == nil {
			soldSeats.WithLabelValues(eventID).Set(float64(sold))
		}
	}
}
