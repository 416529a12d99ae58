package reviewer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler периодически опрашивает продавца и восстанавливает
// пометки, потерянные из-за fire-and-forget доставки уведомлений.
type Reconciler struct {
	service  *Service
	interval time.Duration
	logger   *zap.Logger
}

func NewReconciler(service *Service, interval time.Duration, logger *zap.Logger) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{
		service:  service,
		interval: interval,
		logger:   logger.Named("reconciler"),
	}
}

// Run крутит цикл сверки до отмены контекста. Первый проход — сразу,
// чтобы не ждать целый интервал после рестарта.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler started", zap.Duration("interval", r.interval))

	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	if _, err := r.service.Reconcile(ctx); err != nil {
		// Продавец может быть временно недоступен, догоним на следующем тике
		r.logger.Warn("reconciliation sweep failed", zap.Error(err))
	}
}
