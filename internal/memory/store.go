// Package memory implements the ledger ports with an in-process store.
// It backs local development and handler tests where a real database
// would only add noise.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]ledger.User
	businesses   map[uuid.UUID]core.Business
	categories   map[uuid.UUID]core.Category
	transactions map[uuid.UUID]core.Transaction
	products     map[uuid.UUID]core.Product
	recipes      map[uuid.UUID][]core.RecipeItem
	ingredients  map[uuid.UUID]core.Ingredient
	exported     map[uuid.UUID]int
}

func New() *Store {
	return &Store{
		users:        map[uuid.UUID]ledger.User{},
		businesses:   map[uuid.UUID]core.Business{},
		categories:   map[uuid.UUID]core.Category{},
		transactions: map[uuid.UUID]core.Transaction{},
		products:     map[uuid.UUID]core.Product{},
		recipes:      map[uuid.UUID][]core.RecipeItem{},
		ingredients:  map[uuid.UUID]core.Ingredient{},
		exported:     map[uuid.UUID]int{},
	}
}

// --- transactions ---

func (s *Store) ListByRange(_ context.Context, businessID uuid.UUID, rng core.DateRange) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.BusinessID == businessID && rng.Contains(t.Date) {
			out = append(out, s.withCategory(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	s.exported[tx.ID] = 0
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[tx.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	tx.BusinessID = old.BusinessID
	tx.CreatedAt = old.CreatedAt
	s.transactions[tx.ID] = tx
	s.exported[tx.ID] = 0
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.transactions, id)
	delete(s.exported, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return s.withCategory(t), nil
}

func (s *Store) CountInMonth(_ context.Context, businessID uuid.UUID, year int, month time.Month) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.transactions {
		if t.BusinessID == businessID && t.Date.Year() == year && t.Date.Month() == month {
			n++
		}
	}
	return n, nil
}

// withCategory resolves the category reference at read time, so edits
// to a category are visible on old transactions. Caller holds the lock.
func (s *Store) withCategory(t core.Transaction) core.Transaction {
	if t.CategoryID == nil {
		t.Category = nil
		return t
	}
	c, ok := s.categories[*t.CategoryID]
	if !ok {
		t.CategoryID = nil
		t.Category = nil
		return t
	}
	t.Category = &core.CategoryRef{Name: c.Name, Color: c.Color, CostType: c.CostType}
	return t
}

// --- categories ---

func (s *Store) ListCategories(_ context.Context, businessID uuid.UUID) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.BusinessID == businessID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.categories[c.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	c.BusinessID = old.BusinessID
	c.Type = old.Type
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.categories, id)
	for txID, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			t.Category = nil
			s.transactions[txID] = t
		}
	}
	return nil
}

// --- businesses ---

func (s *Store) CreateBusiness(_ context.Context, b core.Business, defaults []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses[b.ID] = b
	for _, c := range defaults {
		c.BusinessID = b.ID
		s.categories[c.ID] = c
	}
	return nil
}

func (s *Store) ListBusinesses(_ context.Context, ownerID uuid.UUID) ([]core.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Business
	for _, b := range s.businesses {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetBusiness(_ context.Context, id uuid.UUID) (core.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return core.Business{}, ledger.ErrNotFound
	}
	return b, nil
}

func (s *Store) DeleteBusiness(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.businesses, id)
	for k, v := range s.categories {
		if v.BusinessID == id {
			delete(s.categories, k)
		}
	}
	for k, v := range s.transactions {
		if v.BusinessID == id {
			delete(s.transactions, k)
			delete(s.exported, k)
		}
	}
	for k, v := range s.products {
		if v.BusinessID == id {
			delete(s.products, k)
			delete(s.recipes, k)
		}
	}
	for k, v := range s.ingredients {
		if v.BusinessID == id {
			delete(s.ingredients, k)
		}
	}
	return nil
}

// --- products and ingredients ---

func (s *Store) ListProducts(_ context.Context, businessID uuid.UUID) ([]core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Product
	for _, p := range s.products {
		if p.BusinessID == businessID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, p core.Product, recipe []core.RecipeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.recipes[p.ID] = append([]core.RecipeItem(nil), recipe...)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.products, id)
	delete(s.recipes, id)
	return nil
}

func (s *Store) GetRecipe(_ context.Context, productID uuid.UUID) ([]core.RecipeItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.recipes[productID]
	out := make([]core.RecipeItem, 0, len(items))
	for _, it := range items {
		if ing, ok := s.ingredients[it.IngredientID]; ok {
			it.UnitCost = core.Money{Cents: ing.UnitCostCents}
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) CountProducts(_ context.Context, businessID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.products {
		if p.BusinessID == businessID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListIngredients(_ context.Context, businessID uuid.UUID) ([]core.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Ingredient
	for _, i := range s.ingredients {
		if i.BusinessID == businessID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (s *Store) CreateIngredient(_ context.Context, i core.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingredients[i.ID] = i
	return nil
}

func (s *Store) DeleteIngredient(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ingredients[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.ingredients, id)
	for pid, items := range s.recipes {
		kept := items[:0]
		for _, it := range items {
			if it.IngredientID != id {
				kept = append(kept, it)
			}
		}
		s.recipes[pid] = kept
	}
	return nil
}

func (s *Store) CountIngredients(_ context.Context, businessID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, i := range s.ingredients {
		if i.BusinessID == businessID {
			n++
		}
	}
	return n, nil
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, u ledger.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return ledger.User{}, ledger.ErrNotFound
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ledger.User{}, ledger.ErrNotFound
	}
	return u, nil
}

// --- export queue ---

func (s *Store) PendingExport(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for id, state := range s.exported {
		if state != 0 {
			continue
		}
		if t, ok := s.transactions[id]; ok {
			out = append(out, s.withCategory(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exported[id] = 1
	return nil
}

func (s *Store) MarkExportError(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exported[id] = 2
	return nil
}
