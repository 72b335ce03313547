package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
)

// defaultCategories seeds every new business with the starter set the
// onboarding flow expects.
func defaultCategories(businessID uuid.UUID) []core.Category {
	seed := []struct {
		typ      core.TxType
		name     string
		color    string
		costType core.CostType
	}{
		{core.Income, "Ventas", "#34d399", core.CostUnset},
		{core.Income, "Otros ingresos", "#2dd4bf", core.CostUnset},
		{core.Expense, "Materia prima", "#f87171", core.CostGoods},
		{core.Expense, "Renta", "#fbbf24", core.CostOperating},
		{core.Expense, "Servicios", "#60a5fa", core.CostOperating},
		{core.Expense, "Sueldos", "#a78bfa", core.CostOperating},
		{core.Expense, "Otros gastos", "#94a3b8", core.CostOperating},
	}

	cats := make([]core.Category, 0, len(seed))
	for _, s := range seed {
		cats = append(cats, core.Category{
			ID:         uuid.New(),
			BusinessID: businessID,
			Type:       s.typ,
			Name:       s.name,
			Color:      s.color,
			CostType:   s.costType,
		})
	}
	return cats
}

type businessRequest struct {
	Name     string `json:"nombre"`
	Currency string `json:"moneda,omitempty"`
}

type businessResponse struct {
	ID       string `json:"id"`
	Name     string `json:"nombre"`
	Currency string `json:"moneda"`
}

func toBusinessResponse(b core.Business) businessResponse {
	return businessResponse{
		ID:       b.ID.String(),
		Name:     b.Name,
		Currency: b.Currency,
	}
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	businesses, err := s.backend.ListBusinesses(r.Context(), u.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List businesses failed", "error", err, "user_id", u.ID)
		respondJSON(w, http.StatusOK, []businessResponse{})
		return
	}

	out := make([]businessResponse, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, toBusinessResponse(b))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	var req businessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	b := core.Business{
		ID:        uuid.New(),
		OwnerID:   u.ID,
		Name:      req.Name,
		Currency:  req.Currency,
		CreatedAt: time.Now().UTC(),
	}
	if b.Currency == "" {
		b.Currency = "MXN"
	}
	if err := b.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "datos inválidos: "+err.Error())
		return
	}

	if err := s.gate.AllowBusiness(r.Context(), planOf(u.Plan), u.ID); err != nil {
		respondGateError(w, err)
		return
	}

	if err := s.backend.CreateBusiness(r.Context(), b, defaultCategories(b.ID)); err != nil {
		slog.ErrorContext(r.Context(), "Create business failed", "error", err, "user_id", u.ID)
		respondError(w, http.StatusInternalServerError, "error interno")
		return
	}

	respondJSON(w, http.StatusCreated, toBusinessResponse(b))
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	b, ok := s.ownedBusiness(w, r, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toBusinessResponse(b))
}

func (s *Server) handleDeleteBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	b, ok := s.ownedBusiness(w, r, id)
	if !ok {
		return
	}

	// Cascades across transactions, categories, products and recipes.
	if err := s.backend.DeleteBusiness(r.Context(), b.ID); err != nil {
		respondStoreError(w, err)
		return
	}

	s.invalidateBusiness(b.ID.String())
	w.WriteHeader(http.StatusNoContent)
}
