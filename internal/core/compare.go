package core

import "math"

// Comparison holds the signed percentage deltas between the current and
// previous period snapshots. MarginChange is absolute points, not a
// relative change.
type Comparison struct {
	IncomeChange  float64 `json:"ingresosCambio"`
	ExpenseChange float64 `json:"gastosCambio"`
	ProfitChange  float64 `json:"utilidadCambio"`
	MarginChange  float64 `json:"margenCambio"`
}

// Delta is the signed percentage change from prev to curr. A zero
// baseline maps to +100 when the current value is positive and to 0
// when both are zero, so a first period with data reads as full growth
// instead of NaN.
func Delta(prev, curr float64) float64 {
	if prev == 0 {
		if curr > 0 {
			return 100
		}
		return 0
	}
	return (curr - prev) / prev * 100
}

// SignedDelta keeps the sign meaningful when the baseline is negative,
// dividing by the baseline's magnitude. Used for profit, which can dip
// below zero.
func SignedDelta(prev, curr float64) float64 {
	if prev == 0 {
		if curr > 0 {
			return 100
		}
		return 0
	}
	return (curr - prev) / math.Abs(prev) * 100
}

// Compare derives all period-over-period deltas for the dashboard.
func Compare(curr, prev Summary) Comparison {
	return Comparison{
		IncomeChange:  Delta(prev.Income, curr.Income),
		ExpenseChange: Delta(prev.Expense, curr.Expense),
		ProfitChange:  SignedDelta(prev.Profit, curr.Profit),
		MarginChange:  curr.Margin - prev.Margin,
	}
}
