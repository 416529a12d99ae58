package seller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/httpx"
)

// Handler — HTTP-обработчики продавца поверх леджера и каталога.
type Handler struct {
	ledger  *OrderLedger
	catalog *Catalog
}

func NewHandler(ledger *OrderLedger, catalog *Catalog) *Handler {
	return &Handler{ledger: ledger, catalog: catalog}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "seller"})
}

// --- Каталог ---

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	if err := h.catalog.Add(p); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	p, err := h.catalog.Update(chi.URLParam(r, "sku"), body.Description, body.Price)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if err := h.catalog.Delete(sku); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "product " + sku + " deleted"})
}

// --- Заказы ---

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	order, err := h.ledger.Place(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.ledger.List())
}

func (h *Handler) ListOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(chi.URLParam(r, "status"))
	orders, err := h.ledger.ListByStatus(status)
	if err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.ledger.Pending())
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.ledger.Stats())
}

// --- Переходы автомата ---

type resolveRequest struct {
	OrderID string `json:"orderId"`
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.ledger.Approve, "Order approved")
}

func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.ledger.Revert, "Order reverted")
}

func (h *Handler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id string) (*domain.Order, error),
	message string,
) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		httpx.WriteError(w, fmt.Errorf("%w: orderId is required", domain.ErrValidation))
		return
	}

	order, err := apply(r.Context(), req.OrderID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"order":   order,
	})
}
