package client

import (
	"context"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Reliability оборачивает исходящие межсервисные вызовы: rate limiter,
// затем circuit breaker, затем (только для идемпотентных чтений) ретраи
// с экспоненциальным бэкоффом.
//
// Мутации (POST /order, /approve, /revert, /flag) идут строго одним
// выстрелом: протокол флаггинга — fire-and-forget без ретраев, а повтор
// place/approve без идемпотентного ключа породил бы дубль.
type Reliability struct {
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewReliability(name string) *Reliability {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	limiter := rate.NewLimiter(rate.Limit(100), 20)

	return &Reliability{cb: cb, limiter: limiter}
}

// Do выполняет вызов однократно под лимитером и предохранителем.
func (r *Reliability) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// DoIdempotent добавляет до трех попыток. Применимо только к чтениям.
func (r *Reliability) DoIdempotent(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := r.cb.Execute(func() (interface{}, error) {
		rt := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
		)
		return nil, rt.Do(func() error {
			return fn(ctx)
		})
	})
	return err
}
