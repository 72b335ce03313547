package core

import (
	"sort"
	"strconv"
)

// Summary is the KPI snapshot for one (business, range) query. Values
// are currency units; it is derived fresh on every read, never stored.
type Summary struct {
	Income  float64 `json:"ingresos"`
	Expense float64 `json:"gastos"`
	Profit  float64 `json:"utilidad"`
	Margin  float64 `json:"margen"`
}

// WeekPoint is one chart bucket: either a single week's sums or a
// running total, depending on which series produced it.
type WeekPoint struct {
	Label   string  `json:"name"`
	Income  float64 `json:"ingresos"`
	Expense float64 `json:"gastos"`
}

// CategoryAmount is an expense total for one category bucket.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Amount float64 `json:"amount"`
}

// CostSplit separates expenses into cost of goods and operating expense.
type CostSplit struct {
	Income           float64 `json:"ingresos"`
	GoodsCost        float64 `json:"costoVentas"`
	GrossProfit      float64 `json:"utilidadBruta"`
	OperatingExpense float64 `json:"gastosOperativos"`
	NetProfit        float64 `json:"utilidadNeta"`
}

// Summarize reduces transactions to the KPI snapshot.
// Margin is zero whenever income is zero.
func Summarize(txs []Transaction) Summary {
	var incomeCents, expenseCents int64
	for _, t := range txs {
		switch t.Type {
		case Income:
			incomeCents += t.Amount.Cents
		case Expense:
			expenseCents += t.Amount.Cents
		}
	}
	s := Summary{
		Income:  Money{Cents: incomeCents}.Units(),
		Expense: Money{Cents: expenseCents}.Units(),
	}
	s.Profit = s.Income - s.Expense
	if s.Income > 0 {
		s.Margin = s.Profit / s.Income * 100
	}
	return s
}

// WeeklySeries buckets transactions into the range's Monday-aligned
// weeks, each point holding that week's sums only. Feeds bar charts.
func WeeklySeries(txs []Transaction, r DateRange) []WeekPoint {
	weeks := r.Weeks()
	points := make([]WeekPoint, len(weeks))
	for i, w := range weeks {
		points[i].Label = weekLabel(i)
		for _, t := range txs {
			if !w.Contains(t.Date) {
				continue
			}
			switch t.Type {
			case Income:
				points[i].Income += t.Amount.Units()
			case Expense:
				points[i].Expense += t.Amount.Units()
			}
		}
	}
	return points
}

// CumulativeSeries is the projection consumer's variant: the same weekly
// buckets carrying running totals instead of per-week sums.
func CumulativeSeries(txs []Transaction, r DateRange) []WeekPoint {
	points := WeeklySeries(txs, r)
	for i := 1; i < len(points); i++ {
		points[i].Income += points[i-1].Income
		points[i].Expense += points[i-1].Expense
	}
	return points
}

func weekLabel(i int) string {
	return "Sem " + strconv.Itoa(i+1)
}

// ExpenseBreakdown groups expense transactions by category name,
// sorted by amount descending and truncated to the top five buckets.
// Uncategorized rows land in the "Sin categoría" bucket.
func ExpenseBreakdown(txs []Transaction) []CategoryAmount {
	type bucket struct {
		color string
		cents int64
	}
	buckets := make(map[string]*bucket)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		name := FallbackCategoryName
		color := FallbackCategoryColor
		if t.Category != nil && t.Category.Name != "" {
			name = t.Category.Name
			if t.Category.Color != "" {
				color = t.Category.Color
			}
		}
		b, ok := buckets[name]
		if !ok {
			b = &bucket{color: color}
			buckets[name] = b
		}
		b.cents += t.Amount.Cents
	}

	out := make([]CategoryAmount, 0, len(buckets))
	for name, b := range buckets {
		out = append(out, CategoryAmount{Name: name, Color: b.color, Amount: Money{Cents: b.cents}.Units()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// SplitCosts classifies expenses into goods cost versus operating
// expense and derives the gross/net profit lines.
func SplitCosts(txs []Transaction) CostSplit {
	var incomeCents, goodsCents, operatingCents int64
	for _, t := range txs {
		switch {
		case t.Type == Income:
			incomeCents += t.Amount.Cents
		case t.IsGoodsCost():
			goodsCents += t.Amount.Cents
		default:
			operatingCents += t.Amount.Cents
		}
	}
	cs := CostSplit{
		Income:           Money{Cents: incomeCents}.Units(),
		GoodsCost:        Money{Cents: goodsCents}.Units(),
		OperatingExpense: Money{Cents: operatingCents}.Units(),
	}
	cs.GrossProfit = cs.Income - cs.GoodsCost
	cs.NetProfit = cs.GrossProfit - cs.OperatingExpense
	return cs
}

// BurnRate is the average daily expense over the elapsed days.
func BurnRate(s Summary, daysElapsed int) float64 {
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	return s.Expense / float64(daysElapsed)
}

// BreakEvenDays estimates how many days of the current income rate are
// needed to cover the period's total expense. Zero when there is no
// income yet.
func BreakEvenDays(s Summary, daysElapsed int) float64 {
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	incomeRate := s.Income / float64(daysElapsed)
	if incomeRate <= 0 {
		return 0
	}
	return s.Expense / incomeRate
}
