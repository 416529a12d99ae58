package policy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// Input — снапшот контекста заказа, против которого проверяются политики.
// Проверка — чистая функция этого снапшота и набора включенных политик;
// скрытого состояния нет.
type Input struct {
	Order domain.Order

	// WalletAfter — баланс, который останется на счете ПОСЛЕ заказа.
	// Заполняется только агентом; у продавца кошелька нет.
	WalletAfter decimal.Decimal

	// IsAgent — автономная транзакция (флаг agent в заявке).
	IsAgent bool

	// Now подставляется вызывающим, чтобы time_of_day был детерминирован
	// в тестах.
	Now time.Time
}

// FieldSet — легальный словарь полей для конкретного места вызова.
type FieldSet map[domain.Field]bool

// SellerFields — заказо-центричный словарь продавца.
var SellerFields = FieldSet{
	domain.FieldTotalPrice: true,
	domain.FieldQuantity:   true,
	domain.FieldSKU:        true,
	domain.FieldAccountID:  true,
}

// AgentFields — словарь агента: к полям заказа добавляются счет и время.
var AgentFields = FieldSet{
	domain.FieldTotalPrice: true,
	domain.FieldQuantity:   true,
	domain.FieldSKU:        true,
	domain.FieldAccountID:  true,
	domain.FieldWallet:     true,
	domain.FieldTimeOfDay:  true,
	domain.FieldAgentTx:    true,
}

// extractField достает значение поля из снапшота. Второй результат false,
// если поле неизвестно или нелегально в данном словаре — такая политика
// не срабатывает.
func extractField(f domain.Field, set FieldSet, in Input) (interface{}, bool) {
	if !set[f] {
		return nil, false
	}
	switch f {
	case domain.FieldTotalPrice:
		return in.Order.TotalPrice, true
	case domain.FieldQuantity:
		return in.Order.Quantity, true
	case domain.FieldSKU:
		return in.Order.SKU, true
	case domain.FieldAccountID:
		return in.Order.AccountID, true
	case domain.FieldWallet:
		return in.WalletAfter, true
	case domain.FieldTimeOfDay:
		// Формат ЧЧММ: 14:30 -> 1430
		return in.Now.Hour()*100 + in.Now.Minute(), true
	case domain.FieldAgentTx:
		return in.IsAgent, true
	default:
		return nil, false
	}
}
