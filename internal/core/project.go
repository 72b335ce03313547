package core

// Scenario is one projected end-of-period outcome.
type Scenario struct {
	Income  float64 `json:"ingresos"`
	Expense float64 `json:"gastos"`
	Profit  float64 `json:"utilidad"`
}

// ScenarioSet bundles the three named scenarios plus the stretch goal
// (base income plus ten percent), used only as a chart reference line.
type ScenarioSet struct {
	Optimistic   Scenario `json:"optimista"`
	Base         Scenario `json:"base"`
	Conservative Scenario `json:"conservador"`
	Goal         float64  `json:"meta"`
}

// Fixed multipliers applied to the remaining-days portion of each
// scenario. Elapsed days always keep their actual totals.
const (
	optimisticIncomeFactor    = 1.20
	optimisticExpenseFactor   = 0.90
	conservativeIncomeFactor  = 0.85
	conservativeExpenseFactor = 1.10
	goalFactor                = 1.10
)

// minHistoryDays is the floor for the trailing-window denominator, so a
// couple of transaction dates don't produce a wildly noisy daily rate.
const minHistoryDays = 7

// ProjectTotal extrapolates a period-to-date total linearly to the end
// of the period. daysElapsed is clamped to at least one; a fully
// elapsed period projects to the actual total.
func ProjectTotal(toDate float64, daysElapsed, daysInPeriod int) float64 {
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	remaining := daysInPeriod - daysElapsed
	if remaining <= 0 {
		return toDate
	}
	dailyRate := toDate / float64(daysElapsed)
	return toDate + dailyRate*float64(remaining)
}

// HistoryRate is the daily rate over a trailing window of history,
// with the denominator floored at minHistoryDays.
func HistoryRate(total float64, activeDays int) float64 {
	if activeDays < minHistoryDays {
		activeDays = minHistoryDays
	}
	return total / float64(activeDays)
}

// ProjectScenarios extrapolates the current period into optimistic,
// base and conservative outcomes. The daily rate blends the current
// period's own rate with the trailing-history rate when history exists;
// with no history the current rate stands alone.
func ProjectScenarios(current Summary, daysElapsed, daysInPeriod int, history []Transaction) ScenarioSet {
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	remaining := daysInPeriod - daysElapsed
	if remaining < 0 {
		remaining = 0
	}

	incomeRate := current.Income / float64(daysElapsed)
	expenseRate := current.Expense / float64(daysElapsed)

	if len(history) > 0 {
		hist := Summarize(history)
		days := DistinctDates(history)
		incomeRate = (incomeRate + HistoryRate(hist.Income, days)) / 2
		expenseRate = (expenseRate + HistoryRate(hist.Expense, days)) / 2
	}

	project := func(incomeFactor, expenseFactor float64) Scenario {
		s := Scenario{
			Income:  current.Income + incomeRate*incomeFactor*float64(remaining),
			Expense: current.Expense + expenseRate*expenseFactor*float64(remaining),
		}
		s.Profit = s.Income - s.Expense
		return s
	}

	set := ScenarioSet{
		Optimistic:   project(optimisticIncomeFactor, optimisticExpenseFactor),
		Base:         project(1, 1),
		Conservative: project(conservativeIncomeFactor, conservativeExpenseFactor),
	}
	set.Goal = set.Base.Income * goalFactor
	return set
}
