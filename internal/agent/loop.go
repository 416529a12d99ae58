package agent

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// LoopConfig — параметры автономного цикла покупок.
type LoopConfig struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxQuantity int
}

// Loop — автономный покупатель: кооперативный однопоточный цикл,
// останавливается только между итерациями, запрос в полете не прерывает.
type Loop struct {
	cfg     LoopConfig
	service *Service
	logger  *zap.Logger

	// Intn инжектируется в тестах для детерминированного выбора
	// товара, количества и задержки
	intn func(n int) int

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewLoop(cfg LoopConfig, service *Service, logger *zap.Logger, intn func(n int) int) *Loop {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = 5
	}
	if intn == nil {
		intn = rand.Intn
	}
	return &Loop{
		cfg:     cfg,
		service: service,
		logger:  logger.Named("loop"),
		intn:    intn,
	}
}

// Start запускает цикл. Повторный Start при работающем цикле — no-op.
func (l *Loop) Start(parent context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true

	go l.run(ctx)
	l.logger.Info("autonomous loop started")
	return true
}

// Stop сигналит остановку и дожидается завершения текущей итерации.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return false
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done

	l.mu.Lock()
	l.running = false
	l.mu.Unlock()

	l.logger.Info("autonomous loop stopped")
	return true
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	for {
		// Остановка проверяется только между итерациями
		if !l.sleep(ctx) {
			return
		}
		l.iterate(ctx)
	}
}

// sleep ждет случайный интервал [MinDelay, MaxDelay]; false при отмене.
func (l *Loop) sleep(ctx context.Context) bool {
	span := l.cfg.MaxDelay - l.cfg.MinDelay
	delay := l.cfg.MinDelay
	if span > 0 {
		delay += time.Duration(l.intn(int(span) + 1))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// iterate — одна покупка: случайный товар, случайное количество,
// пропуск при нехватке средств, любые ошибки только логируются.
func (l *Loop) iterate(ctx context.Context) {
	products, err := l.service.seller.Products(ctx)
	if err != nil {
		l.logger.Warn("catalog fetch failed", zap.Error(err))
		return
	}
	if len(products) == 0 {
		l.logger.Warn("catalog is empty, skipping iteration")
		return
	}

	product := products[l.intn(len(products))]
	quantity := l.intn(l.cfg.MaxQuantity) + 1

	result, err := l.service.PlaceOrder(ctx, PlaceRequest{
		SKU:      product.SKU,
		Quantity: quantity,
		Agent:    true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			l.logger.Info("skipping purchase, insufficient funds",
				zap.String("sku", product.SKU),
				zap.Int("quantity", quantity),
			)
			return
		}
		l.logger.Warn("autonomous purchase failed",
			zap.String("sku", product.SKU), zap.Error(err))
		return
	}

	l.logger.Info("autonomous purchase submitted",
		zap.String("order_id", result.Order.ID),
		zap.String("sku", product.SKU),
		zap.Int("quantity", quantity),
		zap.String("status", string(result.Order.Status)),
		zap.Bool("held", result.Held),
	)
}
