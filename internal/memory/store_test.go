package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/ledger"
)

func TestStoreTransactionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	biz := uuid.New()

	cat := core.Category{ID: uuid.New(), BusinessID: biz, Type: core.Expense, Name: "Insumos", Color: "#f87171", CostType: core.CostGoods}
	if err := s.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}

	tx := core.Transaction{
		ID:         uuid.New(),
		BusinessID: biz,
		Type:       core.Expense,
		Amount:     core.Money{Cents: 2500},
		Date:       core.NewDate(2024, 3, 10),
		CategoryID: &cat.ID,
		CreatedAt:  time.Now(),
	}
	if err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	got, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.Category == nil || got.Category.Name != "Insumos" || got.Category.CostType != core.CostGoods {
		t.Fatalf("category not resolved: %+v", got.Category)
	}

	rng := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	list, err := s.ListByRange(ctx, biz, rng)
	if err != nil || len(list) != 1 {
		t.Fatalf("list in range: n=%d err=%v", len(list), err)
	}

	outside := core.DateRange{Start: core.NewDate(2024, 4, 1), End: core.NewDate(2024, 4, 30)}
	list, err = s.ListByRange(ctx, biz, outside)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list outside range, got %d", len(list))
	}

	if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, tx.ID); err != ledger.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreDeleteCategoryDetachesTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()
	biz := uuid.New()

	cat := core.Category{ID: uuid.New(), BusinessID: biz, Type: core.Expense, Name: "Renta", Color: "#60a5fa"}
	s.CreateCategory(ctx, cat)

	tx := core.Transaction{
		ID: uuid.New(), BusinessID: biz, Type: core.Expense,
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 5, 1), CategoryID: &cat.ID,
	}
	s.CreateTransaction(ctx, tx)

	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.CategoryID != nil || got.Category != nil {
		t.Fatalf("transaction still references deleted category: %+v", got)
	}
}

func TestStoreBusinessSeedsDefaultCategories(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := uuid.New()

	b := core.Business{ID: uuid.New(), OwnerID: owner, Name: "Panadería Luna", Currency: "MXN", CreatedAt: time.Now()}
	defaults := []core.Category{
		{ID: uuid.New(), Type: core.Income, Name: "Ventas", Color: "#34d399"},
		{ID: uuid.New(), Type: core.Expense, Name: "Insumos", Color: "#f87171", CostType: core.CostGoods},
	}
	if err := s.CreateBusiness(ctx, b, defaults); err != nil {
		t.Fatalf("create business: %v", err)
	}

	cats, err := s.ListCategories(ctx, b.ID)
	if err != nil || len(cats) != 2 {
		t.Fatalf("expected 2 seeded categories, got %d err=%v", len(cats), err)
	}
	for _, c := range cats {
		if c.BusinessID != b.ID {
			t.Fatalf("seeded category not bound to business: %+v", c)
		}
	}

	owned, err := s.ListBusinesses(ctx, owner)
	if err != nil || len(owned) != 1 {
		t.Fatalf("list businesses: n=%d err=%v", len(owned), err)
	}
}

func TestStoreRecipeUsesCurrentIngredientCost(t *testing.T) {
	s := New()
	ctx := context.Background()
	biz := uuid.New()

	ing := core.Ingredient{ID: uuid.New(), BusinessID: biz, Name: "Harina", Unit: "kg", UnitCostCents: 1800}
	s.CreateIngredient(ctx, ing)

	p := core.Product{ID: uuid.New(), BusinessID: biz, Name: "Pan dulce", MarginPct: 40}
	recipe := []core.RecipeItem{{IngredientID: ing.ID, Quantity: 0.5}}
	if err := s.CreateProduct(ctx, p, recipe); err != nil {
		t.Fatalf("create product: %v", err)
	}

	items, err := s.GetRecipe(ctx, p.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("get recipe: n=%d err=%v", len(items), err)
	}
	if items[0].UnitCost.Cents != 1800 {
		t.Fatalf("unit cost = %d, want 1800", items[0].UnitCost.Cents)
	}
}

func TestStoreExportQueue(t *testing.T) {
	s := New()
	ctx := context.Background()
	biz := uuid.New()

	a := core.Transaction{ID: uuid.New(), BusinessID: biz, Type: core.Income, Amount: core.Money{Cents: 10}, Date: core.NewDate(2024, 1, 1), CreatedAt: time.Now()}
	b := core.Transaction{ID: uuid.New(), BusinessID: biz, Type: core.Income, Amount: core.Money{Cents: 20}, Date: core.NewDate(2024, 1, 2), CreatedAt: time.Now().Add(time.Second)}
	s.CreateTransaction(ctx, a)
	s.CreateTransaction(ctx, b)

	pending, err := s.PendingExport(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending: n=%d err=%v", len(pending), err)
	}

	s.MarkExported(ctx, a.ID)
	pending, _ = s.PendingExport(ctx, 10)
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("expected only second transaction pending, got %+v", pending)
	}

	s.MarkExportError(ctx, b.ID)
	pending, _ = s.PendingExport(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d", len(pending))
	}
}
