package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/audit"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/client"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
)

const policyHoldMsg = "Order held by agent policy, approval required"

// SellerGateway — исходящие вызовы агента к продавцу.
type SellerGateway interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Pending(ctx context.Context) ([]domain.Order, error)
	PlaceOrder(ctx context.Context, req client.OrderRequest) (*domain.Order, error)
}

// PlaceRequest — заявка на покупку от пользователя или автономного цикла.
type PlaceRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Agent    bool   `json:"agent"`
}

// PlaceResult — итог подачи: заказ продавца либо локальный hold.
type PlaceResult struct {
	Order *domain.Order `json:"order"`

	// Held = true: заказ задержан политикой агента и ждет явного
	// одобрения через /order/approve; продавцу он еще не отправлен.
	Held bool `json:"held"`
}

// Service — агент покупателя: предпроверка политик, резервирование
// средств, пересылка продавцу, компенсация при отказах.
type Service struct {
	wallet  *Wallet
	holds   *HeldOrders
	engine  *policy.Engine
	seller  SellerGateway
	auditor audit.Logger
	logger  *zap.Logger

	now func() time.Time
}

func NewService(
	wallet *Wallet,
	holds *HeldOrders,
	engine *policy.Engine,
	seller SellerGateway,
	auditor audit.Logger,
	logger *zap.Logger,
) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		wallet:  wallet,
		holds:   holds,
		engine:  engine,
		seller:  seller,
		auditor: auditor,
		logger:  logger.Named("agent"),
		now:     time.Now,
	}
}

// PlaceOrder проводит заявку через полный локальный конвейер:
// каталог → стоимость → средства → политики → hold или пересылка.
// Средства списываются в момент подачи; при терминальной ошибке
// продавца или несостоявшейся пересылке выполняется компенсирующий
// возврат.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidQuantity)
	}

	account, err := s.wallet.Account()
	if err != nil {
		return nil, err
	}

	product, err := s.findProduct(ctx, req.SKU)
	if err != nil {
		return nil, err
	}

	cost := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
	if account.WalletBalance.LessThan(cost) {
		return nil, fmt.Errorf("%w: balance %s, order cost %s",
			domain.ErrInsufficientFunds, account.WalletBalance, cost)
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		AccountID:  account.ID,
		SKU:        req.SKU,
		Quantity:   req.Quantity,
		TotalPrice: cost,
		CreatedAt:  s.now(),
		Status:     domain.StatusReceived,
		Agent:      req.Agent,
	}

	verdict := s.engine.Check(policy.Input{
		Order:       order,
		WalletAfter: account.WalletBalance.Sub(cost),
		IsAgent:     req.Agent,
		Now:         order.CreatedAt,
	})
	order.PolicyTriggered = len(verdict.Triggered()) > 0
	order.PolicyReasons = verdict.Triggered()

	if verdict.AutoReject {
		s.logger.Info("order rejected by agent policy",
			zap.String("sku", req.SKU),
			zap.Strings("policies", verdict.Triggered()),
		)
		s.auditor.Log(audit.Event{
			Service: "agent",
			Actor:   s.actor(req.Agent),
			Action:  "order_rejected_by_policy",
			Entity:  order,
		})
		return nil, fmt.Errorf("%w: order rejected by agent policy", domain.ErrValidation)
	}

	// Списание в момент подачи, до вердикта продавца
	if err := s.wallet.ReserveForOrder(cost); err != nil {
		return nil, err
	}

	if verdict.RequiresReview {
		order.Status = domain.StatusPendingConfirmation
		order.Error = ""
		s.holds.Put(&order)

		s.logger.Info("order held by agent policy",
			zap.String("order_id", order.ID),
			zap.Strings("policies", verdict.Triggered()),
		)
		s.auditor.Log(audit.Event{
			Service: "agent",
			Actor:   s.actor(req.Agent),
			Action:  "order_held",
			Entity:  order,
			Detail:  policyHoldMsg,
		})
		return &PlaceResult{Order: &order, Held: true}, nil
	}

	placed, err := s.forward(ctx, account.ID, req, cost)
	if err != nil {
		return nil, err
	}
	return &PlaceResult{Order: placed}, nil
}

// ApproveHeld пересылает задержанный заказ продавцу. Средства уже
// зарезервированы; при неудаче пересылки hold и резерв сохраняются,
// заказ можно одобрить повторно.
func (s *Service) ApproveHeld(ctx context.Context, orderID string) (*domain.Order, error) {
	held, ok := s.holds.Get(orderID)
	if !ok {
		return nil, fmt.Errorf("%w: no held order %s", domain.ErrOrderNotFound, orderID)
	}

	placed, err := s.seller.PlaceOrder(ctx, client.OrderRequest{
		AccountID: held.AccountID,
		SKU:       held.SKU,
		Quantity:  held.Quantity,
		Agent:     held.Agent,
	})
	if err != nil {
		s.logger.Warn("held order forwarding failed",
			zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	s.holds.Remove(orderID)
	s.settle(placed)

	s.auditor.Log(audit.Event{
		Service: "agent",
		Actor:   "human",
		Action:  "held_order_forwarded",
		Entity:  placed,
	})
	return placed, nil
}

// Pending объединяет локальные hold-ы с ожидающими заказами продавца.
func (s *Service) Pending(ctx context.Context) ([]domain.Order, error) {
	remote, err := s.seller.Pending(ctx)
	if err != nil {
		return nil, err
	}
	return append(s.holds.List(), remote...), nil
}

func (s *Service) findProduct(ctx context.Context, sku string) (*domain.Product, error) {
	products, err := s.seller.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].SKU == sku {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, sku)
}

// forward отправляет заказ продавцу; резерв уже удержан. Если продавец
// недоступен или заказ пришел терминальной ошибкой — возврат резерва.
func (s *Service) forward(ctx context.Context, accountID string, req PlaceRequest, cost decimal.Decimal) (*domain.Order, error) {
	placed, err := s.seller.PlaceOrder(ctx, client.OrderRequest{
		AccountID: accountID,
		SKU:       req.SKU,
		Quantity:  req.Quantity,
		Agent:     req.Agent,
	})
	if err != nil {
		if refundErr := s.wallet.Refund(cost); refundErr != nil {
			s.logger.Error("refund after failed forward failed", zap.Error(refundErr))
		}
		return nil, err
	}

	s.settle(placed)

	s.logger.Info("order forwarded to seller",
		zap.String("order_id", placed.ID),
		zap.String("status", string(placed.Status)),
		zap.String("total", placed.TotalPrice.String()),
	)
	s.auditor.Log(audit.Event{
		Service: "agent",
		Actor:   s.actor(req.Agent),
		Action:  "order_placed",
		Entity:  placed,
	})
	return placed, nil
}

// settle выполняет компенсирующий возврат, если продавец сразу вернул
// терминальную ошибку: заказ не состоялся, деньги возвращаются.
func (s *Service) settle(order *domain.Order) {
	if order.Status != domain.StatusError {
		return
	}
	if err := s.wallet.Refund(order.TotalPrice); err != nil {
		s.logger.Error("compensating refund failed",
			zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	s.logger.Info("compensating refund applied",
		zap.String("order_id", order.ID),
		zap.String("amount", order.TotalPrice.String()),
	)
	s.auditor.Log(audit.Event{
		Service: "agent",
		Actor:   "agent",
		Action:  "order_refunded",
		Entity:  order,
	})
}

func (s *Service) actor(agent bool) string {
	if agent {
		return "agent"
	}
	return "user"
}
