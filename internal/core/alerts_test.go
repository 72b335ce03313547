package core

import (
	"strings"
	"testing"
)

func TestAlertsDeficitOnly(t *testing.T) {
	// income 500, expense 600: only the deficit rule fires. Profit is
	// negative so the growth rule is out, and margin is negative.
	curr := Summarize([]Transaction{
		tx(Income, 50000, NewDate(2024, 1, 5)),
		tx(Expense, 60000, NewDate(2024, 1, 10)),
	})
	alerts := EvaluateAlerts(curr, Comparison{}, 2)
	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d: %+v", len(alerts), alerts)
	}
	if alerts[0].Severity != SeverityDanger {
		t.Fatalf("expected danger, got %s", alerts[0].Severity)
	}
	if !strings.Contains(alerts[0].Message, "100.00") {
		t.Fatalf("expected deficit of 100 in message, got %q", alerts[0].Message)
	}
}

func TestAlertsMultipleFire(t *testing.T) {
	curr := Summary{Income: 1000, Expense: 400, Profit: 600, Margin: 60}
	cmp := Comparison{ExpenseChange: 25, ProfitChange: 15}
	alerts := EvaluateAlerts(curr, cmp, 3)
	// Expense spike warning, profit growth success, margin success.
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d: %+v", len(alerts), alerts)
	}
	var warnings, successes int
	for _, a := range alerts {
		switch a.Severity {
		case SeverityWarning:
			warnings++
		case SeveritySuccess:
			successes++
		}
	}
	if warnings != 1 || successes != 2 {
		t.Fatalf("expected 1 warning and 2 successes, got %d/%d", warnings, successes)
	}
}

func TestAlertsEmptyPeriod(t *testing.T) {
	alerts := EvaluateAlerts(Summary{}, Comparison{}, 0)
	if len(alerts) != 1 || alerts[0].Severity != SeverityWarning {
		t.Fatalf("expected the first-entry prompt, got %+v", alerts)
	}
}

func TestAlertsQuietWhenHealthy(t *testing.T) {
	curr := Summary{Income: 1000, Expense: 800, Profit: 200, Margin: 20}
	if alerts := EvaluateAlerts(curr, Comparison{}, 5); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}
