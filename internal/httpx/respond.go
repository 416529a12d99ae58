// Package httpx — общие помощники транспортного слоя: JSON-ответы и
// маппинг доменной таксономии ошибок в HTTP-статусы (400 валидация и
// недопустимые переходы, 404 отсутствующие сущности, 500 недоступность
// соседнего сервиса).
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError переводит доменную ошибку в статус и JSON-тело {"error": ...}.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrSKUExists):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPolicyNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
