package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/client"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
)

// fakeSeller имитирует продавца: каталог статичен, судьба заказа задается
// полем placeStatus, ошибки транспорта — полем placeErr. Мьютекс нужен
// тестам автономного цикла, которые читают placed из другой горутины.
type fakeSeller struct {
	mu          sync.Mutex
	products    []domain.Product
	placeStatus domain.OrderStatus
	placeErr    error
	pending     []domain.Order

	placed []client.OrderRequest
}

func newFakeSeller() *fakeSeller {
	return &fakeSeller{
		products: []domain.Product{
			{SKU: "X", Description: "Test widget", Price: decimal.NewFromInt(10)},
			{SKU: "Y", Description: "Another widget", Price: decimal.NewFromInt(25)},
		},
		placeStatus: domain.StatusDelivered,
	}
}

func (f *fakeSeller) Products(context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeSeller) Pending(context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeSeller) placedOrders() []client.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.OrderRequest(nil), f.placed...)
}

func (f *fakeSeller) PlaceOrder(_ context.Context, req client.OrderRequest) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.placeErr != nil {
		return nil, f.placeErr
	}
	f.placed = append(f.placed, req)

	var price decimal.Decimal
	for _, p := range f.products {
		if p.SKU == req.SKU {
			price = p.Price
		}
	}
	order := &domain.Order{
		ID:         uuid.NewString(),
		AccountID:  req.AccountID,
		SKU:        req.SKU,
		Quantity:   req.Quantity,
		TotalPrice: price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Status:     f.placeStatus,
		Agent:      req.Agent,
	}
	if f.placeStatus == domain.StatusError {
		order.Error = "Simulated error in order processing"
	}
	return order, nil
}

type serviceFixture struct {
	service  *Service
	wallet   *Wallet
	holds    *HeldOrders
	seller   *fakeSeller
	policies *policy.Store
}

func newServiceFixture(t *testing.T, balance int64) *serviceFixture {
	t.Helper()

	wallet := newFundedWallet(t, balance)
	holds := NewHeldOrders()
	policies := policy.NewStore()
	seller := newFakeSeller()
	logger := zap.NewNop()

	service := NewService(
		wallet, holds,
		policy.NewEngine(policies, policy.AgentFields, logger),
		seller, nil, logger,
	)
	return &serviceFixture{service: service, wallet: wallet, holds: holds, seller: seller, policies: policies}
}

func (fx *serviceFixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := fx.wallet.Balance()
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b
}

func addPolicy(t *testing.T, store *policy.Store, pt domain.PolicyType, field domain.Field, op domain.Operator, value interface{}) {
	t.Helper()
	_, err := store.Create(domain.Policy{
		Name:      string(pt) + "-" + string(field),
		Type:      pt,
		Enabled:   true,
		Condition: domain.Condition{Field: field, Operator: op, Value: value},
	})
	if err != nil {
		t.Fatalf("create policy: %v", err)
	}
}

func TestServicePlaceOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("forwards and debits the wallet", func(t *testing.T) {
		fx := newServiceFixture(t, 100)

		result, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		if result.Held {
			t.Fatalf("clean order must be forwarded, not held")
		}
		if result.Order.Status != domain.StatusDelivered {
			t.Fatalf("expected delivered, got %s", result.Order.Status)
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(70)) {
			t.Fatalf("expected balance 70 after 30 debit, got %s", got)
		}
		if len(fx.seller.placed) != 1 {
			t.Fatalf("expected one forwarded order")
		}
	})

	t.Run("insufficient funds leaves wallet untouched", func(t *testing.T) {
		// Кошелек 50, заказ на 60
		fx := newServiceFixture(t, 50)

		_, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 6})
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected insufficient funds, got %v", err)
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(50)) {
			t.Fatalf("wallet must be unchanged, got %s", got)
		}
		if len(fx.seller.placed) != 0 {
			t.Fatalf("nothing must reach the seller")
		}
	})

	t.Run("unknown sku", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		if _, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "NOPE", Quantity: 1}); !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected product not found, got %v", err)
		}
	})

	t.Run("manual review policy holds locally with funds reserved", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		addPolicy(t, fx.policies, domain.PolicyManualReview, domain.FieldTotalPrice, domain.OpGreaterThan, 20.0)

		result, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		if !result.Held {
			t.Fatalf("expected a local hold")
		}
		if result.Order.Status != domain.StatusPendingConfirmation {
			t.Fatalf("expected pending_confirmation, got %s", result.Order.Status)
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(70)) {
			t.Fatalf("funds must be reserved at submission, got %s", got)
		}
		if len(fx.seller.placed) != 0 {
			t.Fatalf("held order must not reach the seller yet")
		}
		if _, ok := fx.holds.Get(result.Order.ID); !ok {
			t.Fatalf("held order must be stored locally")
		}
	})

	t.Run("auto reject refuses without debiting", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		addPolicy(t, fx.policies, domain.PolicyAutoReject, domain.FieldQuantity, domain.OpGreaterThan, 2.0)

		_, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected rejection error, got %v", err)
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("rejected order must not debit the wallet, got %s", got)
		}
	})

	t.Run("wallet balance policy sees post-order balance", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		// После заказа на 30 останется 70 — политика на < 80 сработает
		addPolicy(t, fx.policies, domain.PolicyManualReview, domain.FieldWallet, domain.OpLessThan, 80.0)

		result, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		if !result.Held {
			t.Fatalf("expected hold on low post-order balance")
		}
	})

	t.Run("refund when forwarding fails", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		fx.seller.placeErr = domain.ErrUpstreamUnavailable

		_, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Fatalf("expected upstream error, got %v", err)
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("reservation must be refunded after failed forward, got %s", got)
		}
	})

	t.Run("refund when seller returns terminal error", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		fx.seller.placeStatus = domain.StatusError

		result, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
		if err != nil {
			t.Fatalf("terminal error status is a valid placement: %v", err)
		}
		if result.Order.Status != domain.StatusError {
			t.Fatalf("expected error status, got %s", result.Order.Status)
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("terminal error must trigger a compensating refund, got %s", got)
		}
	})
}

func TestServiceApproveHeld(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	hold := func(t *testing.T, fx *serviceFixture) *domain.Order {
		t.Helper()
		addPolicy(t, fx.policies, domain.PolicyManualReview, domain.FieldTotalPrice, domain.OpGreaterThan, 20.0)
		result, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
		if err != nil || !result.Held {
			t.Fatalf("expected a hold, got %v %v", result, err)
		}
		return result.Order
	}

	t.Run("forwards held order and clears the hold", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		held := hold(t, fx)

		order, err := fx.service.ApproveHeld(ctx, held.ID)
		if err != nil {
			t.Fatalf("approve held: %v", err)
		}
		if order.Status != domain.StatusDelivered {
			t.Fatalf("expected delivered, got %s", order.Status)
		}
		if _, ok := fx.holds.Get(held.ID); ok {
			t.Fatalf("hold must be cleared after forwarding")
		}
		// Резерв уже был удержан при подаче, повторного списания нет
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(70)) {
			t.Fatalf("expected balance 70, got %s", got)
		}
	})

	t.Run("keeps hold and reservation when seller is down", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		held := hold(t, fx)
		fx.seller.placeErr = domain.ErrUpstreamUnavailable

		if _, err := fx.service.ApproveHeld(ctx, held.ID); !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Fatalf("expected upstream error, got %v", err)
		}
		if _, ok := fx.holds.Get(held.ID); !ok {
			t.Fatalf("hold must survive a failed forward for retry")
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(70)) {
			t.Fatalf("reservation must stay while the hold is alive, got %s", got)
		}
	})

	t.Run("refunds when forwarded held order errors", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		held := hold(t, fx)
		fx.seller.placeStatus = domain.StatusError

		order, err := fx.service.ApproveHeld(ctx, held.ID)
		if err != nil {
			t.Fatalf("approve held: %v", err)
		}
		if order.Status != domain.StatusError {
			t.Fatalf("expected error status, got %s", order.Status)
		}
		if got := fx.balance(t); !got.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("terminal error must refund the reservation, got %s", got)
		}
	})

	t.Run("unknown hold", func(t *testing.T) {
		fx := newServiceFixture(t, 100)
		if _, err := fx.service.ApproveHeld(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestServicePending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fx := newServiceFixture(t, 200)
	addPolicy(t, fx.policies, domain.PolicyManualReview, domain.FieldTotalPrice, domain.OpGreaterThan, 20.0)

	result, err := fx.service.PlaceOrder(ctx, PlaceRequest{SKU: "X", Quantity: 3})
	if err != nil || !result.Held {
		t.Fatalf("expected a hold, got %v %v", result, err)
	}

	fx.seller.pending = []domain.Order{{ID: "remote-1", Status: domain.StatusPendingConfirmation}}

	pending, err := fx.service.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected local hold merged with remote pending, got %d entries", len(pending))
	}
}
