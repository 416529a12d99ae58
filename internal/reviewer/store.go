package reviewer

import (
	"sort"
	"sync"
	"time"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// FlagStore — потокобезопасное in-memory хранилище помеченных заказов.
// Повторная пометка того же заказа полностью замещает запись (upsert).
type FlagStore struct {
	mu    sync.RWMutex
	flags map[string]*domain.FlaggedOrder
}

func NewFlagStore() *FlagStore {
	return &FlagStore{flags: make(map[string]*domain.FlaggedOrder)}
}

// Upsert добавляет или замещает пометку заказа. Возвращает true,
// если заказ был помечен впервые.
func (s *FlagStore) Upsert(order domain.Order, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.flags[order.ID]
	s.flags[order.ID] = &domain.FlaggedOrder{Order: order, FlaggedAt: at}
	return !existed
}

func (s *FlagStore) Get(orderID string) (*domain.FlaggedOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flags[orderID]
	if !ok {
		return nil, false
	}
	cp := *f
	return &cp, true
}

// Delete снимает пометку. Отсутствующий заказ — не ошибка.
func (s *FlagStore) Delete(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, orderID)
}

// List возвращает пометки, отсортированные по времени пометки.
func (s *FlagStore) List() []domain.FlaggedOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.FlaggedOrder, 0, len(s.flags))
	for _, f := range s.flags {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FlaggedAt.Equal(out[j].FlaggedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FlaggedAt.Before(out[j].FlaggedAt)
	})
	return out
}

func (s *FlagStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags)
}
