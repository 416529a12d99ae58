package reviewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/audit"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/syncx"
)

// SellerGateway — исходящие вызовы к продавцу, нужные ревьюеру.
type SellerGateway interface {
	Approve(ctx context.Context, orderID string) (*domain.Order, error)
	Revert(ctx context.Context, orderID string) (*domain.Order, error)
	Pending(ctx context.Context) ([]domain.Order, error)
}

// Decision — решение человека по помеченному заказу.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionRevert  Decision = "revert"
)

// Service — очередь ревью: прием пометок, решения человека, сверка.
type Service struct {
	store   *FlagStore
	seller  SellerGateway
	auditor audit.Logger
	metrics *Metrics
	logger  *zap.Logger

	// Сериализация решений по одному заказу
	locks *syncx.KeyedMutex

	now func() time.Time
}

func NewService(
	store *FlagStore,
	seller SellerGateway,
	auditor audit.Logger,
	metrics *Metrics,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		store:   store,
		seller:  seller,
		auditor: auditor,
		metrics: metrics,
		logger:  logger.Named("reviewer"),
		locks:   syncx.NewKeyedMutex(),
		now:     time.Now,
	}
}

// Flag принимает уведомление продавца. Повторная пометка замещает
// предыдущую запись целиком.
func (s *Service) Flag(order domain.Order) *domain.FlaggedOrder {
	at := s.now()
	fresh := s.store.Upsert(order, at)
	s.metrics.FlaggedTotal.WithLabelValues(string(order.Status)).Inc()
	s.metrics.PendingReview.Set(float64(s.store.Len()))

	s.logger.Info("order flagged for review",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.Bool("fresh", fresh),
	)
	s.auditor.Log(audit.Event{
		Service: "reviewer",
		Actor:   "seller",
		Action:  "order_flagged",
		Entity:  order,
	})

	f, _ := s.store.Get(order.ID)
	return f
}

// Flags возвращает текущую очередь ревью.
func (s *Service) Flags() []domain.FlaggedOrder {
	return s.store.List()
}

// Resolve применяет решение человека: пересылает его продавцу и только
// при успехе снимает пометку. При отказе продавца пометка остается,
// заказ можно решить повторно.
func (s *Service) Resolve(ctx context.Context, orderID string, decision Decision) (*domain.Order, error) {
	s.locks.Lock(orderID)
	defer s.locks.Unlock(orderID)

	// Локальной пометки может не быть: уведомление продавца отправляется
	// без ретраев и могло потеряться. Решение все равно пересылается —
	// человек не обязан ждать следующей сверки.
	flagged, ok := s.store.Get(orderID)

	var (
		order *domain.Order
		err   error
	)
	switch decision {
	case DecisionApprove:
		order, err = s.seller.Approve(ctx, orderID)
	case DecisionRevert:
		order, err = s.seller.Revert(ctx, orderID)
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", domain.ErrValidation, decision)
	}
	if err != nil {
		s.logger.Warn("seller rejected decision",
			zap.String("order_id", orderID),
			zap.String("decision", string(decision)),
			zap.Error(err),
		)
		return nil, err
	}

	s.store.Delete(orderID)
	s.metrics.PendingReview.Set(float64(s.store.Len()))

	// Длительность решения считается от создания заказа; без локальной
	// записи точка отсчета — текущий момент.
	createdAt := s.now()
	if ok {
		createdAt = flagged.CreatedAt
	}
	s.metrics.ResolutionDuration.Observe(s.now().Sub(createdAt).Seconds())

	switch decision {
	case DecisionApprove:
		s.metrics.ApprovalsTotal.Inc()
	case DecisionRevert:
		s.metrics.RevertsTotal.Inc()
	}

	s.logger.Info("decision forwarded",
		zap.String("order_id", orderID),
		zap.String("decision", string(decision)),
		zap.String("status", string(order.Status)),
	)
	s.auditor.Log(audit.Event{
		Service: "reviewer",
		Actor:   "human",
		Action:  "order_" + string(decision) + "d",
		Entity:  order,
	})
	return order, nil
}

// Reconcile подтягивает от продавца заказы, ожидающие решения, и
// дозаполняет очередь пропущенными (уведомление могло потеряться —
// оно отправляется без ретраев).
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	pending, err := s.seller.Pending(ctx)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, order := range pending {
		if _, ok := s.store.Get(order.ID); ok {
			continue
		}
		s.Flag(order)
		recovered++
	}
	if recovered > 0 {
		s.logger.Info("reconciliation recovered lost flags", zap.Int("count", recovered))
	}
	return recovered, nil
}
