package seller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — счетчики событий продавца.
type Metrics struct {
	// Traffic: заказы по итоговому статусу размещения
	OrdersTotal *prometheus.CounterVec

	// Сработки политик по типу (auto_approve, auto_reject, manual_review)
	PolicyTriggeredTotal *prometheus.CounterVec

	// Срабатывания fuzz-гейтов
	FuzzTotal *prometheus.CounterVec

	// Потерянные уведомления ревьюера (fire-and-forget без ретраев)
	NotifyFailuresTotal prometheus.Counter

	// Переходы автомата approve/revert
	TransitionsTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern: без регистратора метрики живут в изолированном
	// локальном реестре (удобно в тестах)
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		OrdersTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "seller_orders_total",
			Help: "Total number of placed orders by resulting status.",
		}, []string{"status"}),

		PolicyTriggeredTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "seller_policy_triggered_total",
			Help: "Total number of policy hits by policy type.",
		}, []string{"type"}),

		FuzzTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "seller_fuzz_total",
			Help: "Total number of fuzz gate hits by gate.",
		}, []string{"gate"}), // gate: simulated_error, agent_review

		NotifyFailuresTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "seller_notify_failures_total",
			Help: "Total number of failed reviewer notifications.",
		}),

		TransitionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "seller_order_transitions_total",
			Help: "Total number of order state transitions.",
		}, []string{"transition"}), // transition: approve, revert
	}
}
