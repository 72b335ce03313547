package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"costeo/internal/core"
)

type transactionRequest struct {
	Type       string `json:"tipo"`
	Amount     string `json:"monto"`
	Date       string `json:"fecha"`
	CategoryID string `json:"categoriaId,omitempty"`
	Note       string `json:"nota,omitempty"`
}

type transactionResponse struct {
	ID         string  `json:"id"`
	BusinessID string  `json:"negocioId"`
	Type       string  `json:"tipo"`
	Amount     float64 `json:"monto"`
	Date       string  `json:"fecha"`
	CategoryID string  `json:"categoriaId,omitempty"`
	Category   string  `json:"categoria,omitempty"`
	Color      string  `json:"color,omitempty"`
	Note       string  `json:"nota,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:         tx.ID.String(),
		BusinessID: tx.BusinessID.String(),
		Type:       string(tx.Type),
		Amount:     tx.Amount.Units(),
		Date:       tx.Date.ISO(),
		Note:       tx.Note,
	}
	if tx.CategoryID != nil {
		resp.CategoryID = tx.CategoryID.String()
	}
	if tx.Category != nil {
		resp.Category = tx.Category.Name
		resp.Color = tx.Category.Color
	} else {
		resp.Category = core.FallbackCategoryName
		resp.Color = core.FallbackCategoryColor
	}
	return resp
}

// parseTransaction converts the wire format to the domain type.
func parseTransaction(req transactionRequest, businessID uuid.UUID) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		BusinessID: businessID,
		Type:       core.TxType(req.Type),
		Amount:     core.Money{Cents: cents},
		Date:       date,
		Note:       req.Note,
	}
	if req.CategoryID != "" {
		catID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return core.Transaction{}, errors.New("invalid category id")
		}
		tx.CategoryID = &catID
	}
	return tx, tx.Validate()
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "rango de fechas inválido")
		return
	}

	txs, err := s.backend.ListByRange(r.Context(), b.ID, rng)
	if err != nil {
		// Degrade to an empty list; the client treats it as "no data".
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err, "business_id", b.ID)
		respondJSON(w, http.StatusOK, []transactionResponse{})
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	tx, err := parseTransaction(req, b.ID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "datos inválidos: "+err.Error())
		return
	}

	u := currentUser(r)
	if err := s.gate.AllowTransaction(r.Context(), planOf(u.Plan), b.ID, tx.Date.Time); err != nil {
		respondGateError(w, err)
		return
	}

	created, err := s.transactions.CreateTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err, "business_id", b.ID)
		respondError(w, http.StatusInternalServerError, "error interno")
		return
	}

	s.invalidateBusiness(b.ID.String())
	s.httpLog.LogTransactionRecorded(r.Context(), created.ID.String(), b.ID.String(), string(created.Type), created.Amount.Cents)

	// Re-read so the response carries the joined category fields.
	if stored, err := s.backend.GetTransaction(r.Context(), created.ID); err == nil {
		created = stored
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	existing, ok := s.ownedTransaction(w, r, id)
	if !ok {
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	tx, err := parseTransaction(req, existing.BusinessID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "datos inválidos: "+err.Error())
		return
	}
	tx.ID = id
	tx.CreatedAt = existing.CreatedAt

	if err := s.transactions.UpdateTransaction(r.Context(), tx); err != nil {
		respondStoreError(w, err)
		return
	}

	s.invalidateBusiness(existing.BusinessID.String())

	if stored, err := s.backend.GetTransaction(r.Context(), id); err == nil {
		tx = stored
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	existing, ok := s.ownedTransaction(w, r, id)
	if !ok {
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	s.invalidateBusiness(existing.BusinessID.String())
	w.WriteHeader(http.StatusNoContent)
}

// ownedTransaction loads a transaction and checks the caller owns the
// business it belongs to.
func (s *Server) ownedTransaction(w http.ResponseWriter, r *http.Request, id uuid.UUID) (core.Transaction, bool) {
	tx, err := s.backend.GetTransaction(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return core.Transaction{}, false
	}
	if _, ok := s.ownedBusiness(w, r, tx.BusinessID); !ok {
		return core.Transaction{}, false
	}
	return tx, true
}
