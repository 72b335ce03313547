package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/ledger"
)

// ReportService composes the period aggregation pipeline: it resolves
// the requested range, pulls the transactions, and runs the summary,
// comparison, projection, and alert calculations on top.
type ReportService struct {
	store ledger.TransactionStore
}

func NewReportService(store ledger.TransactionStore) *ReportService {
	return &ReportService{store: store}
}

// Dashboard is the payload behind the main screen.
type Dashboard struct {
	Summary    core.Summary          `json:"resumen"`
	Comparison core.Comparison       `json:"comparacion"`
	Weekly     []core.WeekPoint      `json:"semanal"`
	Breakdown  []core.CategoryAmount `json:"categorias"`
	Alerts     []core.Alert          `json:"alertas"`
	Projected  core.Summary          `json:"proyectado"`
	BurnRate   float64               `json:"gastoDiario"`
	BreakEven  float64               `json:"diasEquilibrio"`
}

// Report is the payload behind the reports screen.
type Report struct {
	Summary    core.Summary          `json:"resumen"`
	Comparison core.Comparison       `json:"comparacion"`
	Weekly     []core.WeekPoint      `json:"semanal"`
	Cumulative []core.WeekPoint      `json:"acumulado"`
	Breakdown  []core.CategoryAmount `json:"categorias"`
	CostSplit  core.CostSplit        `json:"estructuraCostos"`
	BurnRate   float64               `json:"gastoDiario"`
	BreakEven  float64               `json:"diasEquilibrio"`
}

// Projection is the payload behind the projections screen.
type Projection struct {
	Actual     core.Summary     `json:"actual"`
	Projected  core.Summary     `json:"proyectado"`
	Scenarios  core.ScenarioSet `json:"escenarios"`
	Cumulative []core.WeekPoint `json:"acumulado"`
}

// Dashboard builds the dashboard for a business over a period. asOf
// bounds the elapsed-days clamp so partially elapsed periods project
// correctly.
func (s *ReportService) Dashboard(ctx context.Context, businessID uuid.UUID, rng core.DateRange, asOf core.Date) (Dashboard, error) {
	current, previous, err := s.loadPeriods(ctx, businessID, rng)
	if err != nil {
		return Dashboard{}, err
	}

	summary := core.Summarize(current)
	prevSummary := core.Summarize(previous)
	comparison := core.Compare(summary, prevSummary)

	daysElapsed := rng.DaysElapsed(asOf)
	daysInPeriod := rng.Days()

	projected := core.Summary{
		Income:  core.ProjectTotal(summary.Income, daysElapsed, daysInPeriod),
		Expense: core.ProjectTotal(summary.Expense, daysElapsed, daysInPeriod),
	}
	projected.Profit = projected.Income - projected.Expense
	if projected.Income > 0 {
		projected.Margin = projected.Profit / projected.Income * 100
	}

	return Dashboard{
		Summary:    summary,
		Comparison: comparison,
		Weekly:     core.WeeklySeries(current, rng),
		Breakdown:  core.ExpenseBreakdown(current),
		Alerts:     core.EvaluateAlerts(summary, comparison, len(current)),
		Projected:  projected,
		BurnRate:   core.BurnRate(summary, daysElapsed),
		BreakEven:  core.BreakEvenDays(summary, daysElapsed),
	}, nil
}

// Report builds the full report for a business over a period.
func (s *ReportService) Report(ctx context.Context, businessID uuid.UUID, rng core.DateRange, asOf core.Date) (Report, error) {
	current, previous, err := s.loadPeriods(ctx, businessID, rng)
	if err != nil {
		return Report{}, err
	}

	summary := core.Summarize(current)
	daysElapsed := rng.DaysElapsed(asOf)

	return Report{
		Summary:    summary,
		Comparison: core.Compare(summary, core.Summarize(previous)),
		Weekly:     core.WeeklySeries(current, rng),
		Cumulative: core.CumulativeSeries(current, rng),
		Breakdown:  core.ExpenseBreakdown(current),
		CostSplit:  core.SplitCosts(current),
		BurnRate:   core.BurnRate(summary, daysElapsed),
		BreakEven:  core.BreakEvenDays(summary, daysElapsed),
	}, nil
}

// Projections builds the scenario projections. Trailing history before
// the period start blends into the daily rates so a quiet first week
// does not wreck the outlook.
func (s *ReportService) Projections(ctx context.Context, businessID uuid.UUID, rng core.DateRange, asOf core.Date) (Projection, error) {
	current, err := s.store.ListByRange(ctx, businessID, rng)
	if err != nil {
		return Projection{}, fmt.Errorf("load current period: %w", err)
	}

	history, err := s.store.ListByRange(ctx, businessID, rng.TrailingWindow(30))
	if err != nil {
		return Projection{}, fmt.Errorf("load trailing history: %w", err)
	}

	summary := core.Summarize(current)
	daysElapsed := rng.DaysElapsed(asOf)
	daysInPeriod := rng.Days()

	projected := core.Summary{
		Income:  core.ProjectTotal(summary.Income, daysElapsed, daysInPeriod),
		Expense: core.ProjectTotal(summary.Expense, daysElapsed, daysInPeriod),
	}
	projected.Profit = projected.Income - projected.Expense
	if projected.Income > 0 {
		projected.Margin = projected.Profit / projected.Income * 100
	}

	return Projection{
		Actual:     summary,
		Projected:  projected,
		Scenarios:  core.ProjectScenarios(summary, daysElapsed, daysInPeriod, history),
		Cumulative: core.CumulativeSeries(current, rng),
	}, nil
}

func (s *ReportService) loadPeriods(ctx context.Context, businessID uuid.UUID, rng core.DateRange) (current, previous []core.Transaction, err error) {
	current, err = s.store.ListByRange(ctx, businessID, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("load current period: %w", err)
	}

	previous, err = s.store.ListByRange(ctx, businessID, rng.PreviousPeriod())
	if err != nil {
		return nil, nil, fmt.Errorf("load previous period: %w", err)
	}

	return current, previous, nil
}
