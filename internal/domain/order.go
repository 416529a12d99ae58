package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — состояние заказа в конечном автомате продавца.
type OrderStatus string

const (
	StatusReceived            OrderStatus = "received"             // Принят, решение еще не вынесено
	StatusPendingConfirmation OrderStatus = "pending_confirmation" // Ждет решения ревьюера (HITL)
	StatusDelivered           OrderStatus = "delivered"            // Терминальный: исполнен
	StatusError               OrderStatus = "error"                // Отклонен политикой или симулированным сбоем
	StatusReverted            OrderStatus = "reverted"             // Терминальный: отменен ревьюером
)

// Valid сообщает, известен ли статус автомату.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusPendingConfirmation, StatusDelivered, StatusError, StatusReverted:
		return true
	}
	return false
}

// Order — каноническая запись заказа. Владелец — сервис продавца;
// агент и ревьюер хранят только частичные зеркала (холды и флаги).
type Order struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"accountId"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	Status     OrderStatus     `json:"status"`
	Error      string          `json:"error,omitempty"`

	// Agent = true означает автономную транзакцию: к ней применяется
	// вероятностный fuzz-гейт продавца.
	Agent bool `json:"agent"`

	// Метаданные срабатывания политик (для пост-анализа ответственности)
	PolicyTriggered bool     `json:"policyTriggered"`
	PolicyReasons   []string `json:"policyReasons,omitempty"`
}

// CanApprove проверяет правило автомата: approve валиден только из pending_confirmation.
func (o *Order) CanApprove() error {
	if o.Status != StatusPendingConfirmation {
		return ErrInvalidTransition
	}
	return nil
}

// CanRevert проверяет правило автомата: revert валиден из pending_confirmation и error.
func (o *Order) CanRevert() error {
	if o.Status != StatusPendingConfirmation && o.Status != StatusError {
		return ErrInvalidTransition
	}
	return nil
}

// Terminal — из delivered и reverted переходов больше нет.
func (o *Order) Terminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusReverted
}
