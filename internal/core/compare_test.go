package core

import "testing"

func TestDelta(t *testing.T) {
	cases := []struct {
		prev, curr, want float64
	}{
		{0, 0, 0},
		{0, 50, 100},
		{100, 150, 50},
		{100, 50, -50},
		{100, 100, 0},
	}
	for i, tc := range cases {
		if got := Delta(tc.prev, tc.curr); !almostEqual(got, tc.want) {
			t.Fatalf("case %d: Delta(%v, %v) = %v, want %v", i, tc.prev, tc.curr, got, tc.want)
		}
	}
}

func TestSignedDeltaNegativeBaseline(t *testing.T) {
	// Going from -100 to -50 is an improvement: +50%.
	if got := SignedDelta(-100, -50); !almostEqual(got, 50) {
		t.Fatalf("got %v, want 50", got)
	}
	// From -100 to 100 is a 200% swing upward.
	if got := SignedDelta(-100, 100); !almostEqual(got, 200) {
		t.Fatalf("got %v, want 200", got)
	}
}

func TestCompareMarginIsPointDifference(t *testing.T) {
	curr := Summary{Income: 1000, Expense: 400, Profit: 600, Margin: 60}
	prev := Summary{Income: 500, Expense: 250, Profit: 250, Margin: 50}
	cmp := Compare(curr, prev)
	if !almostEqual(cmp.MarginChange, 10) {
		t.Fatalf("margin change should be 10 points, got %v", cmp.MarginChange)
	}
	if !almostEqual(cmp.IncomeChange, 100) {
		t.Fatalf("income change: got %v", cmp.IncomeChange)
	}
	if !almostEqual(cmp.ProfitChange, 140) {
		t.Fatalf("profit change: got %v", cmp.ProfitChange)
	}
}
