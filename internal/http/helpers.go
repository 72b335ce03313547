package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/ledger"
	"costeo/internal/subscription"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userKey      contextKey = "user"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondStoreError maps store failures on writes: missing rows are
// 404, everything else is a 500 with a generic message.
func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no encontrado")
		return
	}
	respondError(w, http.StatusInternalServerError, "error interno")
}

// respondGateError maps plan-limit failures to 403 with usage details.
func respondGateError(w http.ResponseWriter, err error) {
	var limitErr *subscription.ErrLimitReached
	if errors.As(err, &limitErr) {
		respondJSON(w, http.StatusForbidden, map[string]any{
			"error":  "límite del plan alcanzado",
			"limite": limitErr.Limit,
			"plan":   limitErr.Plan,
		})
		return
	}
	respondError(w, http.StatusInternalServerError, "error interno")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func planOf(plan string) subscription.Plan {
	return subscription.Plan(plan)
}

// currentUser returns the authenticated user placed by requireAuth.
func currentUser(r *http.Request) ledger.User {
	u, _ := r.Context().Value(userKey).(ledger.User)
	return u
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

// parseRange resolves the requested period. Missing bounds default to
// the current calendar month.
func parseRange(r *http.Request) (core.DateRange, error) {
	startStr := strings.TrimSpace(r.URL.Query().Get("start"))
	endStr := strings.TrimSpace(r.URL.Query().Get("end"))

	if startStr == "" && endStr == "" {
		now := time.Now().UTC()
		start := core.NewDate(now.Year(), int(now.Month()), 1)
		end := core.Date{Time: start.AddDate(0, 1, -1)}
		return core.DateRange{Start: start, End: end}, nil
	}

	start, err := core.ParseDate(startStr)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := core.ParseDate(endStr)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("parse end: %w", err)
	}

	rng := core.DateRange{Start: start, End: end}
	if err := rng.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return rng, nil
}

// businessFromQuery parses business_id and verifies the caller owns it.
func (s *Server) businessFromQuery(w http.ResponseWriter, r *http.Request) (core.Business, bool) {
	id, err := uuid.Parse(r.URL.Query().Get("business_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "business_id inválido")
		return core.Business{}, false
	}
	return s.ownedBusiness(w, r, id)
}

// ownedBusiness loads a business and enforces ownership. A business
// that exists but belongs to someone else reads as not found.
func (s *Server) ownedBusiness(w http.ResponseWriter, r *http.Request, id uuid.UUID) (core.Business, bool) {
	b, err := s.backend.GetBusiness(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondError(w, http.StatusNotFound, "negocio no encontrado")
		} else {
			respondError(w, http.StatusInternalServerError, "error interno")
		}
		return core.Business{}, false
	}
	if b.OwnerID != currentUser(r).ID {
		respondError(w, http.StatusNotFound, "negocio no encontrado")
		return core.Business{}, false
	}
	return b, true
}
