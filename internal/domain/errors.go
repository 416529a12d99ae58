package domain

import "errors"

// Таксономия ошибок. Транспортный слой каждого сервиса маппит их в HTTP:
// валидация и недопустимые переходы — 400, отсутствующие сущности — 404,
// недоступность соседнего сервиса — 500.
var (
	// Обобщенные классы для проброса чужих отказов (клиентский слой не
	// знает, какая именно сущность отсутствовала у соседнего сервиса).
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPolicyNotFound    = errors.New("policy not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrSKUExists         = errors.New("product with this sku already exists")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUpstreamUnavailable — транспортный сбой или не-2xx от соседнего
	// сервиса, включая истекший таймаут исходящего вызова.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
