package core

import "testing"

func TestProjectTotalLinear(t *testing.T) {
	// 1000 over 15 of 31 days: rate 66.67/day, 16 days remaining.
	got := ProjectTotal(1000, 15, 31)
	if !almostEqual2(got, 2066.67, 0.5) {
		t.Fatalf("got %v, want ≈2066.7", got)
	}
}

func TestProjectTotalFullyElapsed(t *testing.T) {
	if got := ProjectTotal(1234, 31, 31); got != 1234 {
		t.Fatalf("fully elapsed period must project the actual total, got %v", got)
	}
	if got := ProjectTotal(1234, 40, 31); got != 1234 {
		t.Fatalf("past-end evaluation must project the actual total, got %v", got)
	}
}

func TestProjectTotalZeroActivity(t *testing.T) {
	if got := ProjectTotal(0, 0, 31); got != 0 {
		t.Fatalf("no transactions must project zero, got %v", got)
	}
}

func TestHistoryRateFloorsDenominator(t *testing.T) {
	// 700 over 2 active days would be 350/day; the 7-day floor caps it.
	if got := HistoryRate(700, 2); !almostEqual(got, 100) {
		t.Fatalf("got %v, want 100", got)
	}
	if got := HistoryRate(300, 30); !almostEqual(got, 10) {
		t.Fatalf("got %v, want 10", got)
	}
}

func TestScenarioOrdering(t *testing.T) {
	current := Summary{Income: 1500, Expense: 900}
	set := ProjectScenarios(current, 10, 31, nil)
	if set.Optimistic.Profit < set.Base.Profit {
		t.Fatalf("optimistic %v < base %v", set.Optimistic.Profit, set.Base.Profit)
	}
	if set.Base.Profit < set.Conservative.Profit {
		t.Fatalf("base %v < conservative %v", set.Base.Profit, set.Conservative.Profit)
	}
}

func TestScenarioProfitIdentityAndGoal(t *testing.T) {
	current := Summary{Income: 3100, Expense: 1550}
	set := ProjectScenarios(current, 10, 31, nil)
	for name, s := range map[string]Scenario{
		"optimistic":   set.Optimistic,
		"base":         set.Base,
		"conservative": set.Conservative,
	} {
		if !almostEqual(s.Profit, s.Income-s.Expense) {
			t.Fatalf("%s: profit %v != income-expense %v", name, s.Profit, s.Income-s.Expense)
		}
	}
	if !almostEqual(set.Goal, set.Base.Income*1.10) {
		t.Fatalf("goal %v != base income +10%%", set.Goal)
	}
}

func TestScenarioElapsedPortionKeepsActuals(t *testing.T) {
	// Fully elapsed: nothing remains to adjust, all scenarios converge.
	current := Summary{Income: 2000, Expense: 800}
	set := ProjectScenarios(current, 31, 31, nil)
	if !almostEqual(set.Optimistic.Income, 2000) || !almostEqual(set.Conservative.Income, 2000) {
		t.Fatalf("elapsed totals must stay actual: %+v", set)
	}
}

func TestScenarioBlendsHistory(t *testing.T) {
	current := Summary{Income: 310, Expense: 0} // 10/day over 31... see below
	history := []Transaction{
		tx(Income, 42000, NewDate(2023, 12, 10)), // 420 over floor of 7 days = 60/day
	}
	// Current rate 310/31 = 10/day, history rate 60/day, blended 35/day.
	set := ProjectScenarios(current, 31, 31, history)
	_ = set // fully elapsed: blend has no remaining days to act on
	set = ProjectScenarios(current, 1, 2, history)
	// current rate 310/day, history 60/day, blended 185/day over 1 remaining day
	if !almostEqual(set.Base.Income, 495) {
		t.Fatalf("blended base income: got %v, want 495", set.Base.Income)
	}
}

func almostEqual2(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}
