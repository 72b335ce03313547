package export

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"costeo/internal/core"
)

func TestTransactionRow(t *testing.T) {
	biz := uuid.New()

	t.Run("expense with category", func(t *testing.T) {
		tx := core.Transaction{
			ID:         uuid.New(),
			BusinessID: biz,
			Type:       core.Expense,
			Amount:     core.Money{Cents: 12550},
			Date:       core.NewDate(2024, 6, 15),
			Category:   &core.CategoryRef{Name: "Insumos", Color: "#f87171"},
			Note:       "harina y azúcar",
		}

		row := TransactionRow(tx)
		want := []any{"2024-06-15", "Gasto", "125.50", "Insumos", "harina y azúcar", biz.String()}
		if len(row) != len(want) {
			t.Fatalf("row has %d cells, want %d", len(row), len(want))
		}
		for i := range want {
			if row[i] != want[i] {
				t.Errorf("cell %d = %v, want %v", i, row[i], want[i])
			}
		}
	})

	t.Run("income without category uses fallback", func(t *testing.T) {
		tx := core.Transaction{
			ID:         uuid.New(),
			BusinessID: biz,
			Type:       core.Income,
			Amount:     core.Money{Cents: 100000},
			Date:       core.NewDate(2024, 6, 1),
		}

		row := TransactionRow(tx)
		if row[1] != "Ingreso" {
			t.Errorf("type cell = %v, want Ingreso", row[1])
		}
		if row[3] != core.FallbackCategoryName {
			t.Errorf("category cell = %v, want %q", row[3], core.FallbackCategoryName)
		}
	})
}

func TestNewSheetsExporterValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewSheetsExporter(ctx, Config{}); err == nil {
		t.Error("expected error for missing spreadsheet ID")
	}

	_, err := NewSheetsExporter(ctx, Config{SpreadsheetID: "sheet-id"})
	if err == nil {
		t.Error("expected error for missing credentials")
	}
}
