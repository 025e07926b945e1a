package swap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics holds the aggregate engine statistics. Counters are the only
// cross-order shared state in the engine and prometheus counters are safe
// for concurrent use, so independent per-order workers can update them
// without extra coordination.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ordersCreated   prometheus.Counter
	ordersCompleted prometheus.Counter
	ordersRefunded  prometheus.Counter
	ordersCancelled prometheus.Counter
	ordersExpired   prometheus.Counter
	fillsCreated    prometheus.Counter
	volumeTotal     prometheus.Counter
	deniedActions   *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics with given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "orders_created_total",
			Help:      "Total number of swap orders created",
		}),
		ordersCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "orders_completed_total",
			Help:      "Total number of swap orders settled successfully",
		}),
		ordersRefunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "orders_refunded_total",
			Help:      "Total number of swap orders refunded after expiry",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "orders_cancelled_total",
			Help:      "Total number of swap orders cancelled before settlement",
		}),
		ordersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "orders_expired_total",
			Help:      "Total number of swap orders that hit a leg timelock",
		}),
		fillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "fills_created_total",
			Help:      "Total number of partial fills accepted",
		}),
		volumeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "volume_total",
			Help:      "Total source leg volume of created orders",
		}),
		deniedActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swapcore",
			Subsystem: "engine",
			Name:      "denied_actions_total",
			Help:      "Total number of denied settlement attempts",
		}, []string{"action"}),
	}
	reg.MustRegister(
		m.ordersCreated,
		m.ordersCompleted,
		m.ordersRefunded,
		m.ordersCancelled,
		m.ordersExpired,
		m.fillsCreated,
		m.volumeTotal,
		m.deniedActions,
	)
	return m
}

func (m *Metrics) orderCreated(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	f, _ := amount.Float64()
	m.volumeTotal.Add(f)
}

func (m *Metrics) orderStatus(s Status) {
	if m == nil {
		return
	}
	switch s {
	case StatusCompleted:
		m.ordersCompleted.Inc()
	case StatusRefunded:
		m.ordersRefunded.Inc()
	case StatusCancelled:
		m.ordersCancelled.Inc()
	case StatusExpired:
		m.ordersExpired.Inc()
	}
}

func (m *Metrics) fillCreated() {
	if m == nil {
		return
	}
	m.fillsCreated.Inc()
}

func (m *Metrics) denied(action string) {
	if m == nil {
		return
	}
	m.deniedActions.WithLabelValues(action).Inc()
}
