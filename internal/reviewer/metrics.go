package reviewer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — счетчики очереди ревью.
type Metrics struct {
	// Поступившие пометки по статусу заказа на момент пометки
	FlaggedTotal *prometheus.CounterVec

	// Текущий размер очереди ревью
	PendingReview prometheus.Gauge

	// Решения человека
	ApprovalsTotal prometheus.Counter
	RevertsTotal   prometheus.Counter

	// Время от создания заказа до решения
	ResolutionDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern: без регистратора метрики живут в изолированном
	// локальном реестре (удобно в тестах)
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		FlaggedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "reviewer_flagged_orders_total",
			Help: "Total number of orders flagged for review by order status.",
		}, []string{"status"}),

		PendingReview: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "reviewer_pending_review",
			Help: "Current number of orders awaiting a human decision.",
		}),

		ApprovalsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "reviewer_approvals_total",
			Help: "Total number of approve decisions forwarded to the seller.",
		}),

		RevertsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "reviewer_reverts_total",
			Help: "Total number of revert decisions forwarded to the seller.",
		}),

		ResolutionDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewer_resolution_duration_seconds",
			Help:    "Time from order creation to the human decision.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}
}
