package services

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/memory"
)

func seedTx(t *testing.T, store *memory.Store, businessID uuid.UUID, typ core.TxType, cents int64, d core.Date) {
	t.Helper()
	err := store.CreateTransaction(context.Background(), core.Transaction{
		ID:         uuid.New(),
		BusinessID: businessID,
		Type:       typ,
		Amount:     core.Money{Cents: cents},
		Date:       d,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func TestReportServiceDashboard(t *testing.T) {
	store := memory.New()
	svc := NewReportService(store)
	biz := uuid.New()

	// Previous calendar month.
	seedTx(t, store, biz, core.Income, 50000, core.NewDate(2024, 2, 10))
	seedTx(t, store, biz, core.Expense, 30000, core.NewDate(2024, 2, 12))

	// Current period.
	seedTx(t, store, biz, core.Income, 100000, core.NewDate(2024, 3, 5))
	seedTx(t, store, biz, core.Expense, 40000, core.NewDate(2024, 3, 8))

	rng := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	dash, err := svc.Dashboard(context.Background(), biz, rng, core.NewDate(2024, 3, 15))
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if dash.Summary.Income != 1000 {
		t.Errorf("income = %v, want 1000", dash.Summary.Income)
	}
	if dash.Summary.Profit != 600 {
		t.Errorf("profit = %v, want 600", dash.Summary.Profit)
	}
	// Income doubled versus the previous month.
	if math.Abs(dash.Comparison.IncomeChange-100) > 1e-9 {
		t.Errorf("income change = %v, want 100", dash.Comparison.IncomeChange)
	}
	// 15 of 31 days elapsed, so the projection extrapolates upward.
	if dash.Projected.Income <= dash.Summary.Income {
		t.Errorf("projected income %v should exceed actual %v", dash.Projected.Income, dash.Summary.Income)
	}
	if len(dash.Weekly) == 0 {
		t.Error("expected weekly series")
	}
	if dash.BurnRate <= 0 {
		t.Errorf("burn rate = %v, want > 0", dash.BurnRate)
	}
}

func TestReportServiceDashboardEmptyPeriodAlert(t *testing.T) {
	store := memory.New()
	svc := NewReportService(store)
	biz := uuid.New()

	rng := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	dash, err := svc.Dashboard(context.Background(), biz, rng, core.NewDate(2024, 3, 15))
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	found := false
	for _, a := range dash.Alerts {
		if a.Severity == core.SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning alert for an empty period, got %+v", dash.Alerts)
	}
}

func TestReportServiceReportCostSplit(t *testing.T) {
	store := memory.New()
	svc := NewReportService(store)
	biz := uuid.New()

	goods := core.Category{ID: uuid.New(), BusinessID: biz, Type: core.Expense, Name: "Materia prima", Color: "#f87171", CostType: core.CostGoods}
	operating := core.Category{ID: uuid.New(), BusinessID: biz, Type: core.Expense, Name: "Renta", Color: "#60a5fa", CostType: core.CostOperating}
	store.CreateCategory(context.Background(), goods)
	store.CreateCategory(context.Background(), operating)

	create := func(typ core.TxType, cents int64, catID *uuid.UUID) {
		store.CreateTransaction(context.Background(), core.Transaction{
			ID: uuid.New(), BusinessID: biz, Type: typ,
			Amount: core.Money{Cents: cents}, Date: core.NewDate(2024, 3, 10), CategoryID: catID,
		})
	}
	create(core.Income, 100000, nil)
	create(core.Expense, 35000, &goods.ID)
	create(core.Expense, 25000, &operating.ID)

	rng := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	rep, err := svc.Report(context.Background(), biz, rng, core.NewDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if rep.CostSplit.GoodsCost != 350 {
		t.Errorf("goods cost = %v, want 350", rep.CostSplit.GoodsCost)
	}
	if rep.CostSplit.GrossProfit != 650 {
		t.Errorf("gross profit = %v, want 650", rep.CostSplit.GrossProfit)
	}
	if rep.CostSplit.NetProfit != 400 {
		t.Errorf("net profit = %v, want 400", rep.CostSplit.NetProfit)
	}
	if len(rep.Cumulative) != len(rep.Weekly) {
		t.Errorf("cumulative and weekly series lengths differ: %d vs %d", len(rep.Cumulative), len(rep.Weekly))
	}
}

func TestReportServiceProjectionsScenarios(t *testing.T) {
	store := memory.New()
	svc := NewReportService(store)
	biz := uuid.New()

	seedTx(t, store, biz, core.Income, 100000, core.NewDate(2024, 3, 5))
	seedTx(t, store, biz, core.Expense, 40000, core.NewDate(2024, 3, 8))

	rng := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	proj, err := svc.Projections(context.Background(), biz, rng, core.NewDate(2024, 3, 15))
	if err != nil {
		t.Fatalf("Projections: %v", err)
	}

	sc := proj.Scenarios
	if sc.Optimistic.Income <= sc.Base.Income {
		t.Errorf("optimistic income %v should exceed base %v", sc.Optimistic.Income, sc.Base.Income)
	}
	if sc.Conservative.Income >= sc.Base.Income {
		t.Errorf("conservative income %v should be under base %v", sc.Conservative.Income, sc.Base.Income)
	}
	wantGoal := sc.Base.Income * 1.10
	if math.Abs(sc.Goal-wantGoal) > 1e-6 {
		t.Errorf("goal income = %v, want %v", sc.Goal, wantGoal)
	}
	if proj.Projected.Income <= proj.Actual.Income {
		t.Errorf("projected income %v should exceed actual %v mid-period", proj.Projected.Income, proj.Actual.Income)
	}
}
