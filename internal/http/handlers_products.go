package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
)

type recipeItemRequest struct {
	IngredientID string  `json:"ingredienteId"`
	Quantity     float64 `json:"cantidad"`
}

type productRequest struct {
	Name         string              `json:"nombre"`
	IndirectCost string              `json:"costoIndirecto,omitempty"`
	MarginPct    float64             `json:"margenObjetivo,omitempty"`
	Price        string              `json:"precio,omitempty"`
	Recipe       []recipeItemRequest `json:"receta,omitempty"`
}

type productResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"nombre"`
	UnitCost        float64 `json:"costoUnitario"`
	SuggestedPrice  float64 `json:"precioSugerido"`
	Price           float64 `json:"precio,omitempty"`
	TargetMarginPct float64 `json:"margenObjetivo"`
	ActualMarginPct float64 `json:"margenReal"`
}

type ingredientRequest struct {
	Name     string `json:"nombre"`
	Unit     string `json:"unidad,omitempty"`
	UnitCost string `json:"costoUnitario"`
}

type ingredientResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"nombre"`
	Unit     string  `json:"unidad,omitempty"`
	UnitCost float64 `json:"costoUnitario"`
}

// toProductResponse computes the costing fields from the product's
// recipe at current ingredient prices.
func toProductResponse(p core.Product, recipe []core.RecipeItem) productResponse {
	cost := core.UnitCost(recipe, core.Money{Cents: p.IndirectCostCents})
	suggested := core.SuggestedPrice(cost, p.MarginPct)
	price := p.Price
	if price.Cents == 0 {
		price = suggested
	}
	return productResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		UnitCost:        cost.Units(),
		SuggestedPrice:  suggested.Units(),
		Price:           p.Price.Units(),
		TargetMarginPct: p.MarginPct,
		ActualMarginPct: core.ActualMargin(price, cost),
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	products, err := s.backend.ListProducts(r.Context(), b.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List products failed", "error", err, "business_id", b.ID)
		respondJSON(w, http.StatusOK, []productResponse{})
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		recipe, err := s.backend.GetRecipe(r.Context(), p.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "Load recipe failed", "error", err, "product_id", p.ID)
			recipe = nil
		}
		out = append(out, toProductResponse(p, recipe))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	p := core.Product{
		ID:         uuid.New(),
		BusinessID: b.ID,
		Name:       req.Name,
		MarginPct:  req.MarginPct,
		CreatedAt:  time.Now().UTC(),
	}
	if req.IndirectCost != "" {
		cents, err := core.ParseDecimalToCents(req.IndirectCost)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "costo indirecto inválido")
			return
		}
		p.IndirectCostCents = cents
	}
	if req.Price != "" {
		cents, err := core.ParseDecimalToCents(req.Price)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "precio inválido")
			return
		}
		p.Price = core.Money{Cents: cents}
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "datos inválidos: "+err.Error())
		return
	}

	recipe := make([]core.RecipeItem, 0, len(req.Recipe))
	for _, item := range req.Recipe {
		ingID, err := uuid.Parse(item.IngredientID)
		if err != nil || item.Quantity <= 0 {
			respondError(w, http.StatusUnprocessableEntity, "receta inválida")
			return
		}
		recipe = append(recipe, core.RecipeItem{IngredientID: ingID, Quantity: item.Quantity})
	}

	u := currentUser(r)
	if err := s.gate.AllowProduct(r.Context(), planOf(u.Plan), b.ID); err != nil {
		respondGateError(w, err)
		return
	}

	if err := s.backend.CreateProduct(r.Context(), p, recipe); err != nil {
		slog.ErrorContext(r.Context(), "Create product failed", "error", err, "business_id", b.ID)
		respondError(w, http.StatusInternalServerError, "error interno")
		return
	}

	// Re-read the recipe so the response carries current unit costs.
	stored, err := s.backend.GetRecipe(r.Context(), p.ID)
	if err != nil {
		stored = nil
	}
	respondJSON(w, http.StatusCreated, toProductResponse(p, stored))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	if _, ok := s.businessFromQuery(w, r); !ok {
		return
	}

	if err := s.backend.DeleteProduct(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	ingredients, err := s.backend.ListIngredients(r.Context(), b.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List ingredients failed", "error", err, "business_id", b.ID)
		respondJSON(w, http.StatusOK, []ingredientResponse{})
		return
	}

	out := make([]ingredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, ingredientResponse{
			ID:       i.ID.String(),
			Name:     i.Name,
			Unit:     i.Unit,
			UnitCost: core.Money{Cents: i.UnitCostCents}.Units(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	b, ok := s.businessFromQuery(w, r)
	if !ok {
		return
	}

	var req ingredientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	cents, err := core.ParseDecimalToCents(req.UnitCost)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "costo unitario inválido")
		return
	}

	i := core.Ingredient{
		ID:            uuid.New(),
		BusinessID:    b.ID,
		Name:          req.Name,
		Unit:          req.Unit,
		UnitCostCents: cents,
		CreatedAt:     time.Now().UTC(),
	}
	if err := i.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "datos inválidos: "+err.Error())
		return
	}

	u := currentUser(r)
	if err := s.gate.AllowIngredient(r.Context(), planOf(u.Plan), b.ID); err != nil {
		respondGateError(w, err)
		return
	}

	if err := s.backend.CreateIngredient(r.Context(), i); err != nil {
		slog.ErrorContext(r.Context(), "Create ingredient failed", "error", err, "business_id", b.ID)
		respondError(w, http.StatusInternalServerError, "error interno")
		return
	}

	respondJSON(w, http.StatusCreated, ingredientResponse{
		ID:       i.ID.String(),
		Name:     i.Name,
		Unit:     i.Unit,
		UnitCost: core.Money{Cents: cents}.Units(),
	})
}

func (s *Server) handleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id inválido")
		return
	}

	if _, ok := s.businessFromQuery(w, r); !ok {
		return
	}

	if err := s.backend.DeleteIngredient(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
