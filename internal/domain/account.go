package domain

import "github.com/shopspring/decimal"

// Account — счет агента. Инвариант: WalletBalance >= 0 после каждой
// зафиксированной мутации. Владелец — исключительно сервис агента.
type Account struct {
	ID            string          `json:"id"`
	WalletBalance decimal.Decimal `json:"wallet"`
}
