package seller

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// Catalog — in-memory каталог продавца. Позиции неизменяемы с точки
// зрения заказа (цена фиксируется в totalPrice при размещении), но сам
// каталог управляем через CRUD.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]domain.Product)}
}

// SeedCatalog — демонстрационный набор из исходной системы.
func SeedCatalog() *Catalog {
	c := NewCatalog()
	for _, p := range []domain.Product{
		{SKU: "SKU001", Description: "Widget A", Price: decimal.NewFromInt(50)},
		{SKU: "SKU002", Description: "Widget B", Price: decimal.NewFromInt(30)},
		{SKU: "SKU003", Description: "Gadget C", Price: decimal.NewFromInt(100)},
	} {
		c.products[p.SKU] = p
	}
	return c
}

func (c *Catalog) List() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (c *Catalog) Get(sku string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[sku]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (c *Catalog) Add(p domain.Product) error {
	if p.SKU == "" || !p.Price.IsPositive() {
		return domain.ErrValidation
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.products[p.SKU]; ok {
		return domain.ErrSKUExists
	}
	c.products[p.SKU] = p
	return nil
}

// Update меняет описание и/или цену существующей позиции.
func (c *Catalog) Update(sku string, description *string, price *decimal.Decimal) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[sku]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if description != nil {
		p.Description = *description
	}
	if price != nil {
		if !price.IsPositive() {
			return domain.Product{}, domain.ErrValidation
		}
		p.Price = *price
	}
	c.products[sku] = p
	return p, nil
}

func (c *Catalog) Delete(sku string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.products[sku]; !ok {
		return domain.ErrProductNotFound
	}
	delete(c.products, sku)
	return nil
}
