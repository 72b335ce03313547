package http

import (
	"log/slog"
	"net/http"
	"time"

	"costeo/internal/subscription"
)

type subscriptionResponse struct {
	Plan   string             `json:"plan"`
	Limits subscriptionLimits `json:"limites"`
	Usage  subscriptionUsage  `json:"uso"`
}

type subscriptionLimits struct {
	TransactionsPerMonth int  `json:"transaccionesPorMes"`
	Businesses           int  `json:"negocios"`
	Products             int  `json:"productos"`
	Ingredients          int  `json:"ingredientes"`
	SheetExport          bool `json:"exportacion"`
	Projections          bool `json:"proyecciones"`
}

type subscriptionUsage struct {
	TransactionsThisMonth int `json:"transaccionesEsteMes"`
	Businesses            int `json:"negocios"`
	Products              int `json:"productos"`
	Ingredients           int `json:"ingredientes"`
}

// handleSubscription reports the caller's plan, its limits and the
// current usage. Usage counters best-effort: a failed count reads as
// zero rather than failing the whole payload.
func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	plan := planOf(u.Plan)
	limits := subscription.LimitsFor(plan)

	var usage subscriptionUsage

	businesses, err := s.backend.ListBusinesses(r.Context(), u.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List businesses failed", "error", err, "user_id", u.ID)
	}
	usage.Businesses = len(businesses)

	now := time.Now().UTC()
	for _, b := range businesses {
		if n, err := s.backend.CountInMonth(r.Context(), b.ID, now.Year(), now.Month()); err == nil {
			usage.TransactionsThisMonth += n
		}
		if n, err := s.backend.CountProducts(r.Context(), b.ID); err == nil {
			usage.Products += n
		}
		if n, err := s.backend.CountIngredients(r.Context(), b.ID); err == nil {
			usage.Ingredients += n
		}
	}

	respondJSON(w, http.StatusOK, subscriptionResponse{
		Plan: string(plan),
		Limits: subscriptionLimits{
			TransactionsPerMonth: limits.TransactionsPerMonth,
			Businesses:           limits.Businesses,
			Products:             limits.Products,
			Ingredients:          limits.Ingredients,
			SheetExport:          limits.SheetExport,
			Projections:          limits.Projections,
		},
		Usage: usage,
	})
}
