package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// FileSink пишет события построчно в append-only файл:
//
//	2026-01-02T15:04:05Z - seller policy order_rejected {...}
//
// Формат строки повторяет исходные audit.log / agent_audit.log.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) WriteBatch(ctx context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", s.path, err)
	}
	defer f.Close()

	for _, e := range events {
		entity, err := json.Marshal(e.Entity)
		if err != nil {
			entity = []byte(`"unserializable"`)
		}
		line := fmt.Sprintf("%s - %s %s %s %s",
			e.Time.UTC().Format("2006-01-02T15:04:05.000Z"),
			e.Service, e.Actor, e.Action, entity)
		if e.Detail != "" {
			line += " " + e.Detail
		}
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("audit: write %s: %w", s.path, err)
		}
	}
	return nil
}

// ZapSink дублирует аудит в обычный лог (режим мониторинга).
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("monitor")}
}

func (s *ZapSink) WriteBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		s.logger.Info(e.Action,
			zap.String("service", e.Service),
			zap.String("actor", e.Actor),
			zap.Any("entity", e.Entity),
			zap.String("detail", e.Detail),
		)
	}
	return nil
}

// MultiSink — веер в несколько приемников; первая ошибка возвращается,
// но не прерывает остальные записи.
type MultiSink []Sink

func (m MultiSink) WriteBatch(ctx context.Context, events []Event) error {
	var first error
	for _, s := range m {
		if err := s.WriteBatch(ctx, events); err != nil && first == nil {
			first = err
		}
	}
	return first
}
