package seller

/*
OrderLedger — авторитетный владелец заказов и их конечного автомата:

	received -> delivered            (нет сработок, нет fuzz, не agent)
	received -> error                (auto_reject политики | симулированный сбой)
	received -> delivered            (auto_approve, минуя ревью)
	received -> pending_confirmation (manual_review | agent-fuzz | progressive)
	pending_confirmation -> delivered (approve)
	pending_confirmation -> reverted  (revert)
	error -> reverted                 (revert)

delivered и reverted терминальны, received не достижим повторно.

Решение о ревью складывается из двух НЕЗАВИСИМЫХ источников, объединяемых
через OR: вердикт политик и вероятностный fuzz-гейт на агентских заказах.
Оба тестируются порознь (гейт принимает инжектированный источник
случайности).

Мутации конкретного заказа сериализованы эксклюзивной секцией его id:
два конкурентных approve одного заказа не гоняются по read-modify-write,
несвязанные заказы обрабатываются параллельно.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/audit"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/fuzz"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/syncx"
)

const (
	simulatedErrorMsg  = "Simulated error in order processing"
	policyRejectionMsg = "Order automatically rejected by seller policy"
)

// Flagger уведомляет ревьюера о заказе, требующем внимания.
type Flagger interface {
	Flag(ctx context.Context, order domain.Order) error
}

// Config — поведенческие ручки леджера.
type Config struct {
	// ProgressiveConfirmation гонит каждый заказ через pending_confirmation.
	ProgressiveConfirmation bool
	// SimulateErrors включает гейт симулированного сбоя обработки.
	SimulateErrors bool
}

// PlaceRequest — валидируемая заявка на заказ.
type PlaceRequest struct {
	AccountID string `json:"accountId"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Agent     bool   `json:"agent"`
}

// Stats — сводка по леджеру (форма исходного GET /stats).
type Stats struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PendingOrders int             `json:"pendingOrders"`
	ErrorOrders   int             `json:"errorOrders"`
}

type OrderLedger struct {
	cfg     Config
	catalog *Catalog
	engine  *policy.Engine

	// Два независимых гейта: симулированный сбой до проверок политик
	// и принудительное ревью агентских заказов.
	errorGate  *fuzz.Gate
	reviewGate *fuzz.Gate

	flagger Flagger
	auditor audit.Logger
	metrics *Metrics
	logger  *zap.Logger

	mu     sync.RWMutex
	orders map[string]*domain.Order
	seq    []string // порядок вставки для стабильных листингов

	locks *syncx.KeyedMutex
}

func NewOrderLedger(
	cfg Config,
	catalog *Catalog,
	engine *policy.Engine,
	errorGate, reviewGate *fuzz.Gate,
	flagger Flagger,
	auditor audit.Logger,
	metrics *Metrics,
	logger *zap.Logger,
) *OrderLedger {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &OrderLedger{
		cfg:        cfg,
		catalog:    catalog,
		engine:     engine,
		errorGate:  errorGate,
		reviewGate: reviewGate,
		flagger:    flagger,
		auditor:    auditor,
		metrics:    metrics,
		logger:     logger.Named("ledger"),
		orders:     make(map[string]*domain.Order),
		locks:      syncx.NewKeyedMutex(),
	}
}

// Place валидирует заявку, выносит решение о начальном статусе и
// сохраняет заказ. Заказ со статусом error — НЕ ошибка вызова: заявка
// принята, ее судьба записана в леджер.
func (l *OrderLedger) Place(ctx context.Context, req PlaceRequest) (*domain.Order, error) {
	if req.AccountID == "" {
		return nil, domain.ErrValidation
	}
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := l.catalog.Get(req.SKU)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:         uuid.New().String(),
		AccountID:  req.AccountID,
		SKU:        req.SKU,
		Quantity:   req.Quantity,
		TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		CreatedAt:  time.Now(),
		Status:     domain.StatusReceived,
		Agent:      req.Agent,
	}

	// Симулированный сбой обработки срабатывает ДО каких-либо политик.
	if l.cfg.SimulateErrors && l.errorGate.Hit() {
		l.metrics.FuzzTotal.WithLabelValues("simulated_error").Inc()
		order.Status = domain.StatusError
		order.Error = simulatedErrorMsg
		l.store(order)
		l.audit("fuzz", "order_error_simulated", order)
		l.notify(*order)
		l.metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()
		return l.snapshot(order.ID), nil
	}

	verdict := l.engine.Check(policy.Input{
		Order:   *order,
		IsAgent: req.Agent,
		Now:     order.CreatedAt,
	})
	order.PolicyTriggered = len(verdict.Triggered()) > 0
	order.PolicyReasons = verdict.Triggered()
	l.countPolicyHits(verdict)

	switch {
	case verdict.AutoReject:
		order.Status = domain.StatusError
		order.Error = policyRejectionMsg
	case verdict.AutoApprove:
		order.Status = domain.StatusDelivered
	case l.needsReview(req.Agent, verdict):
		order.Status = domain.StatusPendingConfirmation
	default:
		// Default-allow: ни одна политика не высказалась
		order.Status = domain.StatusDelivered
	}

	l.store(order)
	l.audit(req.AccountID, "order_placed", order)
	l.metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()

	// Флаг ревьюеру на обоих «человеческих» исходах
	if order.Status == domain.StatusPendingConfirmation || order.Status == domain.StatusError {
		l.notify(*order)
	}

	return l.snapshot(order.ID), nil
}

// needsReview объединяет независимые источники решения о ревью через OR.
func (l *OrderLedger) needsReview(isAgent bool, verdict policy.Verdict) bool {
	if verdict.RequiresReview {
		return true
	}
	if l.cfg.ProgressiveConfirmation {
		return true
	}
	if isAgent && l.reviewGate.Hit() {
		l.metrics.FuzzTotal.WithLabelValues("agent_review").Inc()
		return true
	}
	return false
}

// Approve переводит pending_confirmation -> delivered.
func (l *OrderLedger) Approve(ctx context.Context, orderID string) (*domain.Order, error) {
	return l.transition(orderID, "approve", func(o *domain.Order) error {
		if err := o.CanApprove(); err != nil {
			return err
		}
		o.Status = domain.StatusDelivered
		return nil
	})
}

// Revert переводит pending_confirmation|error -> reverted.
func (l *OrderLedger) Revert(ctx context.Context, orderID string) (*domain.Order, error) {
	return l.transition(orderID, "revert", func(o *domain.Order) error {
		if err := o.CanRevert(); err != nil {
			return err
		}
		o.Status = domain.StatusReverted
		return nil
	})
}

// transition выполняет переход автомата в эксклюзивной секции заказа.
// При отказе состояние остается нетронутым.
func (l *OrderLedger) transition(orderID, name string, apply func(*domain.Order) error) (*domain.Order, error) {
	l.locks.Lock(orderID)
	defer l.locks.Unlock(orderID)

	// Хранимая запись никогда не мутируется на месте: читатели держат
	// только RLock карты. Переход применяется к копии, которая замещает
	// запись под write-lock.
	order := l.snapshot(orderID)
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if err := apply(order); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.orders[orderID] = order
	l.mu.Unlock()

	l.audit("reviewer", "order_"+name, order)
	l.metrics.TransitionsTotal.WithLabelValues(name).Inc()
	l.logger.Info("order transition",
		zap.String("order_id", orderID),
		zap.String("transition", name),
		zap.String("status", string(order.Status)),
	)
	return l.snapshot(orderID), nil
}

// Get возвращает копию заказа.
func (l *OrderLedger) Get(orderID string) (*domain.Order, error) {
	o := l.snapshot(orderID)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// List возвращает все заказы в порядке размещения.
func (l *OrderLedger) List() []domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Order, 0, len(l.seq))
	for _, id := range l.seq {
		out = append(out, *l.orders[id])
	}
	return out
}

// ListByStatus фильтрует заказы по статусу автомата.
func (l *OrderLedger) ListByStatus(status domain.OrderStatus) ([]domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrValidation
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Order, 0)
	for _, id := range l.seq {
		if o := l.orders[id]; o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

// Pending — заказы, ждущие решения человека. Этот срез опрашивает
// reconciler ревьюера, компенсируя потерянные notify.
func (l *OrderLedger) Pending() []domain.Order {
	out, _ := l.ListByStatus(domain.StatusPendingConfirmation)
	return out
}

// Stats — сводка по доставленным/ожидающим/ошибочным заказам.
func (l *OrderLedger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{TotalRevenue: decimal.Zero}
	for _, o := range l.orders {
		switch o.Status {
		case domain.StatusDelivered:
			s.TotalOrders++
			s.TotalRevenue = s.TotalRevenue.Add(o.TotalPrice)
		case domain.StatusPendingConfirmation:
			s.PendingOrders++
		case domain.StatusError:
			s.ErrorOrders++
		}
	}
	return s
}

func (l *OrderLedger) store(order *domain.Order) {
	l.mu.Lock()
	l.orders[order.ID] = order
	l.seq = append(l.seq, order.ID)
	l.mu.Unlock()
}

func (l *OrderLedger) snapshot(orderID string) *domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.orders[orderID]
	if !ok {
		return nil
	}
	cp := *o
	cp.PolicyReasons = append([]string(nil), o.PolicyReasons...)
	return &cp
}

// notify — fire-and-forget уведомление ревьюера. Неудача логируется и НЕ
// ретраится: заказ корректно лежит у продавца, а дыру в видимости
// закрывает периодическая сверка ревьюера по /pending.
func (l *OrderLedger) notify(order domain.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := l.flagger.Flag(ctx, order); err != nil {
			l.metrics.NotifyFailuresTotal.Inc()
			l.logger.Warn("failed to notify reviewer",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
			l.audit("seller", "notify_failed", map[string]string{
				"orderId": order.ID,
				"error":   err.Error(),
			})
			return
		}
		l.audit("seller", "reviewer_notified", map[string]string{"orderId": order.ID})
	}()
}

func (l *OrderLedger) countPolicyHits(v policy.Verdict) {
	if v.AutoReject {
		l.metrics.PolicyTriggeredTotal.WithLabelValues(string(domain.PolicyAutoReject)).Inc()
	}
	if v.AutoApprove {
		l.metrics.PolicyTriggeredTotal.WithLabelValues(string(domain.PolicyAutoApprove)).Inc()
	}
	if v.RequiresReview {
		l.metrics.PolicyTriggeredTotal.WithLabelValues(string(domain.PolicyManualReview)).Inc()
	}
}

func (l *OrderLedger) audit(actor, action string, entity interface{}) {
	l.auditor.Log(audit.Event{
		Service: "seller",
		Actor:   actor,
		Action:  action,
		Entity:  entity,
	})
}
