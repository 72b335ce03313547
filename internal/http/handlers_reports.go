package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"costeo/internal/core"
	"costeo/internal/services"
)

// Aggregation reads run under a short timeout so an abandoned request
// cancels its query instead of hanging the store.
const reportTimeout = 7 * time.Second

func rangeKey(businessID string, rng core.DateRange) string {
	return businessID + "|" + rng.Start.ISO() + "|" + rng.End.ISO()
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "rango de fechas inválido")
		return
	}

	key := rangeKey(b.ID.String(), rng)
	if dash, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "business_id", b.ID)
		respondJSON(w, http.StatusOK, dash)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	asOf := core.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
	dash, err := s.reports.Dashboard(ctx, b.ID, rng, asOf)
	if err != nil {
		// Failed reads degrade to an empty dashboard instead of a 5xx:
		// the client renders zeros and the next poll retries.
		slog.ErrorContext(r.Context(), "Dashboard read failed", "error", err, "business_id", b.ID)
		respondJSON(w, http.StatusOK, services.Dashboard{
			Weekly:    []core.WeekPoint{},
			Breakdown: []core.CategoryAmount{},
			Alerts:    []core.Alert{},
		})
		return
	}

	s.dashboardCache.Set(key, dash)
	respondJSON(w, http.StatusOK, dash)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "rango de fechas inválido")
		return
	}

	key := rangeKey(b.ID.String(), rng)
	if rep, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "business_id", b.ID)
		respondJSON(w, http.StatusOK, rep)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	asOf := core.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
	rep, err := s.reports.Report(ctx, b.ID, rng, asOf)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report read failed", "error", err, "business_id", b.ID)
		respondJSON(w, http.StatusOK, services.Report{
			Weekly:     []core.WeekPoint{},
			Cumulative: []core.WeekPoint{},
			Breakdown:  []core.CategoryAmount{},
		})
		return
	}

	s.reportCache.Set(key, rep)
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if !s.gate.AllowProjections(planOf(u.Plan)) {
		respondError(w, http.StatusForbidden, "las proyecciones requieren un plan de pago")
		return
	}

	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "rango de fechas inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	asOf := core.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
	proj, err := s.reports.Projections(ctx, b.ID, rng, asOf)
	if err != nil {
		slog.ErrorContext(r.Context(), "Projections read failed", "error", err, "business_id", b.ID)
		respondJSON(w, http.StatusOK, services.Projection{})
		return
	}

	respondJSON(w, http.StatusOK, proj)
}
