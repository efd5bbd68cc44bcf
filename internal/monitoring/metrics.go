package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bilet/internal/database"
)

var (
	reservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Reservation operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	reservationsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservations_expired_total",
			Help: "Reservations expired by sweep or lazy check",
		},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets minted by the settlement engine",
		},
	)

	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_transfers_total",
			Help: "Ticket transfer operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	settlementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Duration of reservation settlement",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	dbOpenConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "Open database connections",
		},
	)

	dbInUseConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_in_use_connections",
			Help: "Database connections currently in use",
		},
	)

	dbWaitCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_wait_count",
			Help: "Cumulative connections waited for",
		},
	)
)

// ObserveReservation records a reservation engine operation outcome.
func ObserveReservation(operation, outcome string) {
	reservationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveExpired records reservations released by a sweep or lazy check.
func ObserveExpired(count int) {
	reservationsExpired.Add(float64(count))
}

// ObserveSettlement records a completed settlement and its ticket count.
func ObserveSettlement(tickets int, elapsed time.Duration) {
	ticketsIssued.Add(float64(tickets))
	settlementDuration.Observe(elapsed.Seconds())
}

// ObserveTransfer records a transfer protocol operation outcome.
func ObserveTransfer(operation, outcome string) {
	transfersTotal.WithLabelValues(operation, outcome).Inc()
}

// Monitor periodically exports database pool statistics.
type Monitor struct {
	db   *database.DB
	done chan struct{}
}

func NewMonitor(db *database.DB) *Monitor {
	m := &Monitor{db: db, done: make(chan struct{})}
	go m.collect()
	return m
}

func (m *Monitor) collect() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := m.db.GetPoolStats()
			dbOpenConns.Set(float64(stats.OpenConns))
			dbInUseConns.Set(float64(stats.InUse))
			dbWaitCount.Set(float64(stats.WaitCount))
		case <-m.done:
			return
		}
	}
}

func (m *Monitor) Stop() {
	close(m.done)
}
