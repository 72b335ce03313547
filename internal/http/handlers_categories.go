package http

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"costeo/internal/core"
)

type categoryRequest struct {
	Type     string `json:"tipo"`
	Name     string `json:"nombre"`
	Color    string `json:"color,omitempty"`
	CostType string `json:"tipoCosto,omitempty"`
}

type categoryResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"negocioId"`
	Type       string `json:"tipo"`
	Name       string `json:"nombre"`
	Color      string `json:"color,omitempty"`
	CostType   string `json:"tipoCosto,omitempty"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:         c.ID.String(),
		BusinessID: c.BusinessID.String(),
		Type:       string(c.Type),
		Name:       c.Name,
		Color:      c.Color,
		CostType:   string(c.CostType),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	cats, err := s.backend.ListCategories(r.Context(), b.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err, "business_id", b.ID)
		respondJSON(w, http.StatusOK, []categoryResponse{})
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	c := core.Category{
		ID:         uuid.New(),
		BusinessID: b.ID,
		Type:       core.TxType(req.Type),
		Name:       req.Name,
		Color:      req.Color,
		CostType:   core.CostType(req.CostType),
	}
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "datos inválidos: "+err.Error())
		return
	}

	if err := s.backend.CreateCategory(r.Context(), c); err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "error", err, "business_id", b.ID)
		respondError(w, http.StatusInternalServerError, "error interno")
		return
	}

	s.invalidateBusiness(b.ID.String())
	respondJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	c := core.Category{
		ID:         id,
		BusinessID: b.ID,
		Type:       core.TxType(req.Type),
		Name:       req.Name,
		Color:      req.Color,
		CostType:   core.CostType(req.CostType),
	}
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "datos inválidos: "+err.Error())
		return
	}

	if err := s.backend.UpdateCategory(r.Context(), c); err != nil {
		respondStoreError(w, err)
		return
	}

	s.invalidateBusiness(b.ID.String())
	respondJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	// Transactions referencing the category are detached, not deleted.
	if err := s.backend.DeleteCategory(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	s.invalidateBusiness(b.ID.String())
	w.WriteHeader(http.StatusNoContent)
}
