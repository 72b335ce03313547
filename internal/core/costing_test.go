package core

import "testing"

func TestUnitCost(t *testing.T) {
	items := []RecipeItem{
		{Quantity: 2, UnitCost: Money{Cents: 1550}},  // 31.00
		{Quantity: 0.5, UnitCost: Money{Cents: 800}}, // 4.00
	}
	got := UnitCost(items, Money{Cents: 500})
	if got.Cents != 4000 {
		t.Fatalf("got %d cents, want 4000", got.Cents)
	}
	if UnitCost(nil, Money{}).Cents != 0 {
		t.Fatalf("empty recipe with no indirect cost must be zero")
	}
}

func TestSuggestedPrice(t *testing.T) {
	// 40.00 cost at 60% margin on price: 100.00.
	got := SuggestedPrice(Money{Cents: 4000}, 60)
	if got.Cents != 10000 {
		t.Fatalf("got %d cents, want 10000", got.Cents)
	}
	// Out-of-range margins return the cost unchanged.
	if SuggestedPrice(Money{Cents: 4000}, 100).Cents != 4000 {
		t.Fatalf("margin 100 must fall back to cost")
	}
	if SuggestedPrice(Money{Cents: 4000}, 0).Cents != 4000 {
		t.Fatalf("margin 0 must fall back to cost")
	}
}

func TestActualMargin(t *testing.T) {
	if got := ActualMargin(Money{Cents: 10000}, Money{Cents: 4000}); !almostEqual(got, 60) {
		t.Fatalf("got %v, want 60", got)
	}
	if got := ActualMargin(Money{}, Money{Cents: 4000}); got != 0 {
		t.Fatalf("zero price must yield zero margin, got %v", got)
	}
}

func TestProductValidate(t *testing.T) {
	good := Product{Name: "Pastel", IndirectCostCents: 100, MarginPct: 40}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Product{Name: "", MarginPct: 40}).Validate(); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName")
	}
	if err := (Product{Name: "x", MarginPct: 100}).Validate(); err != ErrInvalidMargin {
		t.Fatalf("expected ErrInvalidMargin")
	}
}
