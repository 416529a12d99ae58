package seller

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	t.Run("seeded catalog", func(t *testing.T) {
		c := SeedCatalog()
		list := c.List()
		if len(list) != 3 {
			t.Fatalf("expected 3 seeded products, got %d", len(list))
		}
		// Отсортировано по SKU
		if list[0].SKU != "SKU001" || list[2].SKU != "SKU003" {
			t.Fatalf("expected sorted listing, got %v", list)
		}

		p, err := c.Get("SKU003")
		if err != nil || !p.Price.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("expected Gadget C at 100, got %+v %v", p, err)
		}
	})

	t.Run("duplicate sku rejected", func(t *testing.T) {
		c := SeedCatalog()
		err := c.Add(domain.Product{SKU: "SKU001", Description: "Clone", Price: decimal.NewFromInt(1)})
		if !errors.Is(err, domain.ErrSKUExists) {
			t.Fatalf("expected sku exists error, got %v", err)
		}
	})

	t.Run("add validates shape", func(t *testing.T) {
		c := NewCatalog()
		if err := c.Add(domain.Product{Description: "No sku", Price: decimal.NewFromInt(1)}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for empty sku, got %v", err)
		}
		if err := c.Add(domain.Product{SKU: "A", Price: decimal.NewFromInt(-1)}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for negative price, got %v", err)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		c := SeedCatalog()
		newPrice := decimal.NewFromInt(55)

		p, err := c.Update("SKU001", nil, &newPrice)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !p.Price.Equal(newPrice) || p.Description != "Widget A" {
			t.Fatalf("price must change and description stay, got %+v", p)
		}

		if _, err := c.Update("NOPE", nil, &newPrice); !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		c := SeedCatalog()
		if err := c.Delete("SKU002"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := c.Get("SKU002"); !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected product gone, got %v", err)
		}
		if err := c.Delete("SKU002"); !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected not found on double delete, got %v", err)
		}
	})
}
