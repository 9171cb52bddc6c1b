package metrics

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campuslink_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	SocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campuslink_socket_connections",
			Help: "Open socket connections on this instance",
		},
	)

	// SocketEvents counts events by name; direction is "in" for client events
	// and "out" for events delivered to local room members.
	SocketEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campuslink_socket_events_total",
			Help: "Total number of socket events handled",
		},
		[]string{"event", "direction"},
	)

	SlowClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campuslink_socket_slow_clients_dropped_total",
			Help: "Connections dropped because their send queue was full",
		},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campuslink_notifications_dispatched_total",
			Help: "Notifications persisted per recipient, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campuslink_messages_sent_total",
			Help: "Chat messages stored",
		},
	)
)

// RegisterPoolStats exposes connection pool gauges read from stat at scrape time.
// Registering a second pool is a no-op.
func RegisterPoolStats(stat func() *pgxpool.Stat) {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "campuslink_db_pool_acquired_connections",
			Help: "Database connections currently in use",
		}, func() float64 { return float64(stat().AcquiredConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "campuslink_db_pool_idle_connections",
			Help: "Idle database connections in the pool",
		}, func() float64 { return float64(stat().IdleConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "campuslink_db_pool_max_connections",
			Help: "Configured maximum pool size",
		}, func() float64 { return float64(stat().MaxConns()) }),
	}

	for _, g := range gauges {
		if err := prometheus.Register(g); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}
}
