package domain

import "time"

// FlaggedOrder — локальная запись ревьюера о заказе, требующем внимания.
// Upsert по id (replace-if-exists), удаляется при разрешении.
type FlaggedOrder struct {
	Order
	FlaggedAt time.Time `json:"flaggedAt"`
}
