package agent

import (
	"sort"
	"sync"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// HeldOrders — локальные заказы, задержанные политикой агента до явного
// одобрения. Средства под них уже зарезервированы в кошельке.
type HeldOrders struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewHeldOrders() *HeldOrders {
	return &HeldOrders{orders: make(map[string]*domain.Order)}
}

func (h *HeldOrders) Put(order *domain.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := *order
	h.orders[order.ID] = &cp
}

func (h *HeldOrders) Get(orderID string) (*domain.Order, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	o, ok := h.orders[orderID]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}

func (h *HeldOrders) Remove(orderID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.orders, orderID)
}

func (h *HeldOrders) List() []domain.Order {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Order, 0, len(h.orders))
	for _, o := range h.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
