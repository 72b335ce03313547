package core

import (
	"math"
	"testing"
)

func tx(t TxType, cents int64, date Date) Transaction {
	return Transaction{Type: t, Amount: Money{Cents: cents}, Date: date}
}

func txCat(t TxType, cents int64, date Date, name, color string, cost CostType) Transaction {
	out := tx(t, cents, date)
	out.Category = &CategoryRef{Name: name, Color: color, CostType: cost}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestSummarizeProfitIdentity(t *testing.T) {
	cases := [][]Transaction{
		nil,
		{tx(Income, 100000, NewDate(2024, 1, 5))},
		{tx(Income, 100000, NewDate(2024, 1, 5)), tx(Expense, 40000, NewDate(2024, 1, 10))},
		{tx(Expense, 40000, NewDate(2024, 1, 10))},
	}
	for i, txs := range cases {
		s := Summarize(txs)
		if !almostEqual(s.Profit, s.Income-s.Expense) {
			t.Fatalf("case %d: profit %v != income %v - expense %v", i, s.Profit, s.Income, s.Expense)
		}
	}
}

func TestSummarizeMarginZeroWithoutIncome(t *testing.T) {
	s := Summarize([]Transaction{tx(Expense, 99900, NewDate(2024, 3, 1))})
	if s.Margin != 0 {
		t.Fatalf("expected margin 0 with no income, got %v", s.Margin)
	}
}

func TestSummarizeExample(t *testing.T) {
	// Two transactions in January: income 1000 on the 5th, expense 400
	// on the 10th.
	txs := []Transaction{
		tx(Income, 100000, NewDate(2024, 1, 5)),
		tx(Expense, 40000, NewDate(2024, 1, 10)),
	}
	s := Summarize(txs)
	if !almostEqual(s.Income, 1000) || !almostEqual(s.Expense, 400) {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if !almostEqual(s.Profit, 600) {
		t.Fatalf("expected profit 600, got %v", s.Profit)
	}
	if !almostEqual(s.Margin, 60) {
		t.Fatalf("expected margin 60, got %v", s.Margin)
	}
}

func TestExpenseBreakdownTopFiveSorted(t *testing.T) {
	var txs []Transaction
	names := []string{"Renta", "Luz", "Agua", "Gas", "Internet", "Papelería", "Limpieza"}
	for i, n := range names {
		txs = append(txs, txCat(Expense, int64((i+1)*1000), NewDate(2024, 2, 1), n, "#123456", CostOperating))
	}
	// Income rows must never appear in the breakdown.
	txs = append(txs, txCat(Income, 999999, NewDate(2024, 2, 2), "Ventas", "#00ff00", CostUnset))

	out := ExpenseBreakdown(txs)
	if len(out) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Amount > out[i-1].Amount {
			t.Fatalf("breakdown not sorted descending at %d: %+v", i, out)
		}
	}
	if out[0].Name != "Limpieza" {
		t.Fatalf("expected largest bucket Limpieza, got %s", out[0].Name)
	}
}

func TestExpenseBreakdownFallbackBucket(t *testing.T) {
	txs := []Transaction{
		tx(Expense, 5000, NewDate(2024, 2, 1)),
		tx(Expense, 2500, NewDate(2024, 2, 3)),
	}
	out := ExpenseBreakdown(txs)
	if len(out) != 1 {
		t.Fatalf("expected a single fallback bucket, got %d", len(out))
	}
	if out[0].Name != FallbackCategoryName || out[0].Color != FallbackCategoryColor {
		t.Fatalf("unexpected fallback bucket: %+v", out[0])
	}
	if !almostEqual(out[0].Amount, 75) {
		t.Fatalf("expected 75, got %v", out[0].Amount)
	}
}

func TestWeeklySeriesBuckets(t *testing.T) {
	// 2024-01-01 is a Monday; the range spans exactly five weeks.
	r := DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 31)}
	txs := []Transaction{
		tx(Income, 100000, NewDate(2024, 1, 1)),  // week 1
		tx(Income, 50000, NewDate(2024, 1, 7)),   // week 1 (Sunday)
		tx(Expense, 20000, NewDate(2024, 1, 8)),  // week 2 (Monday)
		tx(Expense, 30000, NewDate(2024, 1, 31)), // week 5
	}
	points := WeeklySeries(txs, r)
	if len(points) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(points))
	}
	if !almostEqual(points[0].Income, 1500) {
		t.Fatalf("week 1 income: got %v", points[0].Income)
	}
	if !almostEqual(points[1].Expense, 200) {
		t.Fatalf("week 2 expense: got %v", points[1].Expense)
	}
	if !almostEqual(points[4].Expense, 300) {
		t.Fatalf("week 5 expense: got %v", points[4].Expense)
	}
	if points[0].Label != "Sem 1" || points[4].Label != "Sem 5" {
		t.Fatalf("unexpected labels: %q %q", points[0].Label, points[4].Label)
	}
}

func TestCumulativeSeriesRunsTotals(t *testing.T) {
	r := DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 14)}
	txs := []Transaction{
		tx(Income, 10000, NewDate(2024, 1, 2)),
		tx(Income, 10000, NewDate(2024, 1, 9)),
	}
	points := CumulativeSeries(txs, r)
	if len(points) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(points))
	}
	if !almostEqual(points[0].Income, 100) || !almostEqual(points[1].Income, 200) {
		t.Fatalf("expected running totals 100, 200; got %v, %v", points[0].Income, points[1].Income)
	}
}

func TestSplitCosts(t *testing.T) {
	txs := []Transaction{
		txCat(Income, 100000, NewDate(2024, 1, 5), "Ventas", "", CostUnset),
		txCat(Expense, 30000, NewDate(2024, 1, 6), "Materia prima", "", CostUnset), // substring fallback
		txCat(Expense, 10000, NewDate(2024, 1, 7), "Renta", "", CostOperating),
		txCat(Expense, 5000, NewDate(2024, 1, 8), "Empaques", "", CostGoods), // explicit tag wins
	}
	cs := SplitCosts(txs)
	if !almostEqual(cs.GoodsCost, 350) {
		t.Fatalf("goods cost: got %v", cs.GoodsCost)
	}
	if !almostEqual(cs.OperatingExpense, 100) {
		t.Fatalf("operating expense: got %v", cs.OperatingExpense)
	}
	if !almostEqual(cs.GrossProfit, 650) || !almostEqual(cs.NetProfit, 550) {
		t.Fatalf("profit lines: %+v", cs)
	}
}

func TestBurnRateAndBreakEven(t *testing.T) {
	s := Summary{Income: 1000, Expense: 400}
	if !almostEqual(BurnRate(s, 10), 40) {
		t.Fatalf("burn rate: got %v", BurnRate(s, 10))
	}
	// Income rate 100/day; 400 of expense covered in 4 days.
	if !almostEqual(BreakEvenDays(s, 10), 4) {
		t.Fatalf("break-even: got %v", BreakEvenDays(s, 10))
	}
	if BreakEvenDays(Summary{Expense: 400}, 10) != 0 {
		t.Fatalf("expected 0 break-even days with no income")
	}
	if BurnRate(s, 0) != s.Expense {
		t.Fatalf("expected day clamp to 1")
	}
}
