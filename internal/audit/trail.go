package audit

/*
Trail — неблокирующий аудит-коллектор. Горячий путь сервисов не должен
ждать диска: события уходят в буферизованный канал, воркер собирает их в
пачки и сбрасывает в Sink по таймеру или при заполнении пачки.

Остановка — через Drain Pattern: Stop() запирает вход атомарным флагом,
закрывает канал и ждет, пока воркер вычитает остатки и выполнит финальный
flush. Перезапуск сервиса не теряет уже принятые события.

При переполнении буфера применяется Load Shedding: событие не блокирует
вызывающего, а уходит предупреждением в обычный лог.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sink — физическое место назначения аудита.
type Sink interface {
	WriteBatch(ctx context.Context, events []Event) error
}

// Logger — то, что видят компоненты: только Log.
type Logger interface {
	Log(event Event)
}

const (
	bufferSize    = 10000
	batchSize     = 100
	flushInterval = 500 * time.Millisecond
)

type Trail struct {
	ch     chan Event
	sink   Sink
	logger *zap.Logger
	wg     sync.WaitGroup

	// Атомарный флаг (0 - открыт, 1 - закрыт): защита от Log после Stop
	closed int32
}

func NewTrail(sink Sink, logger *zap.Logger) *Trail {
	return &Trail{
		ch:     make(chan Event, bufferSize),
		sink:   sink,
		logger: logger.With(zap.String("mod", "audit")),
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop запирает вход и дожидается полного сброса буфера.
func (t *Trail) Stop() {
	atomic.StoreInt32(&t.closed, 1)

	// Крошечная пауза: текущие Log успевают проскочить в канал
	time.Sleep(10 * time.Millisecond)

	t.logger.Info("stopping audit trail: draining buffer")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("audit trail stopped")
}

func (t *Trail) Log(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	if atomic.LoadInt32(&t.closed) == 1 {
		t.logger.Warn("audit event dropped: trail is stopping",
			zap.String("action", event.Action))
		return
	}

	select {
	case t.ch <- event:
	default:
		t.logger.Error("audit_buffer_overflow",
			zap.String("service", event.Service),
			zap.String("action", event.Action),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст на этом этапе может быть закрыт
		if err := t.sink.WriteBatch(context.Background(), batch); err != nil {
			t.logger.Error("audit flush failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop(): воркер уже вычитал остатки,
				// остается финальный сброс
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Nop — заглушка для тестов и выключенного аудита.
type Nop struct{}

func (Nop) Log(Event) {}
