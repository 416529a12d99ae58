package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/httpx"
)

// Handler — HTTP-обработчики агента.
type Handler struct {
	service *Service
	wallet  *Wallet
	loop    *Loop

	// baseCtx — контекст жизни процесса: цикл переживает HTTP-запрос,
	// которым его запустили
	baseCtx context.Context

	startingBalance decimal.Decimal
}

func NewHandler(baseCtx context.Context, service *Service, wallet *Wallet, loop *Loop, startingBalance decimal.Decimal) *Handler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Handler{
		service:         service,
		wallet:          wallet,
		loop:            loop,
		baseCtx:         baseCtx,
		startingBalance: startingBalance,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "agent"})
}

// --- Счет и кошелек ---

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Deposit *decimal.Decimal `json:"deposit"`
	}
	// Тело опционально: без него берется стартовый депозит из конфига
	_ = json.NewDecoder(r.Body).Decode(&body)

	initial := h.startingBalance
	if body.Deposit != nil {
		initial = *body.Deposit
	}

	account, err := h.wallet.CreateAccount(initial)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, account)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.wallet.Account()
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, account)
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutateWallet(w, r, h.wallet.Deposit)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutateWallet(w, r, h.wallet.Withdraw)
}

func (h *Handler) mutateWallet(
	w http.ResponseWriter,
	r *http.Request,
	apply func(decimal.Decimal) (decimal.Decimal, error),
) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	balance, err := apply(req.Amount)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"wallet": balance})
}

// --- Заказы ---

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	result, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ApproveHeld(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		httpx.WriteError(w, fmt.Errorf("%w: orderId is required", domain.ErrValidation))
		return
	}

	order, err := h.service.ApproveHeld(r.Context(), req.OrderID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order approved and forwarded",
		"order":   order,
	})
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Pending(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orders)
}

// --- Автономный режим ---

func (h *Handler) StartLoop(w http.ResponseWriter, r *http.Request) {
	if _, err := h.wallet.Account(); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: create an account first", domain.ErrAccountNotFound))
		return
	}

	if !h.loop.Start(h.baseCtx) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Agent already running"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Agent started"})
}

func (h *Handler) StopLoop(w http.ResponseWriter, r *http.Request) {
	if !h.loop.Stop() {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Agent is not running"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Agent stopped"})
}

func (h *Handler) LoopStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"running": h.loop.Running()})
}
