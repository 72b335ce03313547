package core

import (
	"fmt"
	"strconv"
)

const (
	SeverityDanger  AlertSeverity = "danger"
	SeverityWarning AlertSeverity = "warning"
	SeveritySuccess AlertSeverity = "success"
)

type (
	AlertSeverity string

	Alert struct {
		Severity AlertSeverity `json:"type"`
		Message  string        `json:"message"`
	}
)

// EvaluateAlerts runs the fixed rule list against the current snapshot.
// Every rule is evaluated; several can fire at once. Stateless, no
// retries, recomputed on every aggregate change.
func EvaluateAlerts(curr Summary, cmp Comparison, txCount int) []Alert {
	var alerts []Alert

	if curr.Expense > curr.Income && curr.Income > 0 {
		deficit := curr.Expense - curr.Income
		alerts = append(alerts, Alert{
			Severity: SeverityDanger,
			Message:  fmt.Sprintf("Tus gastos superan tus ingresos por $%s. Revisa tus gastos del periodo.", formatAmount(deficit)),
		})
	}

	if cmp.ExpenseChange > 20 {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Tus gastos aumentaron %s%% respecto al periodo anterior.", formatAmount(cmp.ExpenseChange)),
		})
	}

	if cmp.ProfitChange > 10 && curr.Profit > 0 {
		alerts = append(alerts, Alert{
			Severity: SeveritySuccess,
			Message:  fmt.Sprintf("Tu utilidad creció %s%% respecto al periodo anterior. ¡Sigue así!", formatAmount(cmp.ProfitChange)),
		})
	}

	if curr.Margin > 30 {
		alerts = append(alerts, Alert{
			Severity: SeveritySuccess,
			Message:  fmt.Sprintf("Excelente margen de ganancia (%s%%).", formatAmount(curr.Margin)),
		})
	}

	if txCount == 0 {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning,
			Message:  "Aún no registras movimientos en este periodo. Registra tu primera venta o gasto.",
		})
	}

	return alerts
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
