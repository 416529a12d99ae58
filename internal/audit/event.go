package audit

import "time"

// Event — одна строка audit trail. Обязательна для каждой мутирующей
// операции: actor, действие и результирующее состояние сущности нужны
// для пост-анализа ответственности, ради которого система и существует.
// Пути auto_approve / auto_reject не исключение.
type Event struct {
	Time    time.Time   `json:"time"`
	Service string      `json:"service"` // seller | agent | reviewer
	Actor   string      `json:"actor"`   // accountId, "policy", "reviewer", "fuzz"
	Action  string      `json:"action"`  // order_placed, order_approved, wallet_debit, ...
	Entity  interface{} `json:"entity"`  // состояние сущности после мутации
	Detail  string      `json:"detail,omitempty"`
}
