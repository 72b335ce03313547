package core

import (
	"time"

	"github.com/google/uuid"
)

type (
	Product struct {
		ID                uuid.UUID
		BusinessID        uuid.UUID
		Name              string
		IndirectCostCents int64
		MarginPct         float64
		Price             Money
		CreatedAt         time.Time
	}

	Ingredient struct {
		ID            uuid.UUID
		BusinessID    uuid.UUID
		Name          string
		Unit          string
		UnitCostCents int64
		CreatedAt     time.Time
	}

	// RecipeItem is one ingredient line of a product's recipe.
	RecipeItem struct {
		IngredientID uuid.UUID
		Quantity     float64
		UnitCost     Money
	}
)

func (p Product) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.IndirectCostCents < 0 {
		return ErrInvalidAmount
	}
	if p.MarginPct < 0 || p.MarginPct >= 100 {
		return ErrInvalidMargin
	}
	return nil
}

func (i Ingredient) Validate() error {
	if i.Name == "" {
		return ErrEmptyName
	}
	if i.UnitCostCents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// UnitCost is the product's cost: sum of quantity times ingredient cost
// over the recipe, plus the indirect cost allocation. Fractions of a
// cent round half up.
func UnitCost(items []RecipeItem, indirect Money) Money {
	total := float64(indirect.Cents)
	for _, it := range items {
		total += it.Quantity * float64(it.UnitCost.Cents)
	}
	return Money{Cents: int64(total + 0.5)}
}

// SuggestedPrice derives the sale price that yields the target margin
// as a percentage of price: price = cost / (1 - margin/100).
func SuggestedPrice(cost Money, marginPct float64) Money {
	if marginPct <= 0 || marginPct >= 100 {
		return cost
	}
	price := float64(cost.Cents) / (1 - marginPct/100)
	return Money{Cents: int64(price + 0.5)}
}

// ActualMargin is the margin obtained selling at price with the given
// cost, as a percentage of price. Zero when price is zero.
func ActualMargin(price, cost Money) float64 {
	if price.Cents == 0 {
		return 0
	}
	return float64(price.Cents-cost.Cents) / float64(price.Cents) * 100
}
