package domain

import "github.com/shopspring/decimal"

// Product — неизменяемая позиция каталога продавца.
type Product struct {
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}
