package reviewer

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/httpx"
)

// Handler — HTTP-обработчики ревьюера.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "reviewer"})
}

// Flag — входящее уведомление продавца о заказе, требующем внимания.
func (h *Handler) Flag(w http.ResponseWriter, r *http.Request) {
	var order domain.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil || order.ID == "" {
		httpx.WriteError(w, fmt.Errorf("%w: order with id is required", domain.ErrValidation))
		return
	}

	flagged := h.service.Flag(order)
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order flagged for review",
		"order":   flagged,
	})
}

func (h *Handler) ListFlags(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.service.Flags())
}

type decisionRequest struct {
	OrderID string `json:"orderId"`
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionApprove, "Order approved")
}

func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionRevert, "Order reverted")
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision Decision, message string) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		httpx.WriteError(w, fmt.Errorf("%w: orderId is required", domain.ErrValidation))
		return
	}

	order, err := h.service.Resolve(r.Context(), req.OrderID, decision)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"order":   order,
	})
}
