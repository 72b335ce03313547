// Package ledger defines the ports the HTTP layer and workers use to
// reach the transaction store, whatever backs it.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
)

var ErrNotFound = errors.New("not found")

type (
	// TransactionStore is the aggregation module's sole external
	// dependency: dated, typed, amount-bearing rows queried by range.
	TransactionStore interface {
		// ListByRange returns the business's transactions with date in
		// [start, end], category joined when present.
		ListByRange(ctx context.Context, businessID uuid.UUID, r core.DateRange) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id uuid.UUID) error
		GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
		// CountInMonth supports plan gating on monthly activity.
		CountInMonth(ctx context.Context, businessID uuid.UUID, year int, month time.Month) (int, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, businessID uuid.UUID) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id uuid.UUID) error
	}

	BusinessStore interface {
		// CreateBusiness creates the business and its default
		// categories in one atomic operation.
		CreateBusiness(ctx context.Context, b core.Business, defaults []core.Category) error
		ListBusinesses(ctx context.Context, ownerID uuid.UUID) ([]core.Business, error)
		GetBusiness(ctx context.Context, id uuid.UUID) (core.Business, error)
		DeleteBusiness(ctx context.Context, id uuid.UUID) error
	}

	ProductStore interface {
		ListProducts(ctx context.Context, businessID uuid.UUID) ([]core.Product, error)
		CreateProduct(ctx context.Context, p core.Product, recipe []core.RecipeItem) error
		DeleteProduct(ctx context.Context, id uuid.UUID) error
		GetRecipe(ctx context.Context, productID uuid.UUID) ([]core.RecipeItem, error)
		CountProducts(ctx context.Context, businessID uuid.UUID) (int, error)

		ListIngredients(ctx context.Context, businessID uuid.UUID) ([]core.Ingredient, error)
		CreateIngredient(ctx context.Context, i core.Ingredient) error
		DeleteIngredient(ctx context.Context, id uuid.UUID) error
		CountIngredients(ctx context.Context, businessID uuid.UUID) (int, error)
	}

	User struct {
		ID           uuid.UUID
		Email        string
		Name         string
		PasswordHash string
		Plan         string
		CreatedAt    time.Time
	}

	UserStore interface {
		CreateUser(ctx context.Context, u User) error
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUser(ctx context.Context, id uuid.UUID) (User, error)
	}

	// ExportQueue lists and marks transactions pending export, the
	// worker's backup path when queue messages are lost.
	ExportQueue interface {
		PendingExport(ctx context.Context, limit int) ([]core.Transaction, error)
		MarkExported(ctx context.Context, id uuid.UUID) error
		MarkExportError(ctx context.Context, id uuid.UUID) error
	}
)
