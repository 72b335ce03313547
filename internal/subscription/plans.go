// Package subscription enforces per-plan usage limits.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"costeo/internal/ledger"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

const Unlimited = -1

// Limits describes what a plan allows. Unlimited disables a cap.
type Limits struct {
	TransactionsPerMonth int
	Businesses           int
	Products             int
	Ingredients          int
	SheetExport          bool
	Projections          bool
}

var planLimits = map[Plan]Limits{
	PlanFree: {
		TransactionsPerMonth: 100,
		Businesses:           1,
		Products:             10,
		Ingredients:          20,
		SheetExport:          false,
		Projections:          false,
	},
	PlanPro: {
		TransactionsPerMonth: 1000,
		Businesses:           3,
		Products:             100,
		Ingredients:          200,
		SheetExport:          true,
		Projections:          true,
	},
	PlanPremium: {
		TransactionsPerMonth: Unlimited,
		Businesses:           Unlimited,
		Products:             Unlimited,
		Ingredients:          Unlimited,
		SheetExport:          true,
		Projections:          true,
	},
}

// LimitsFor returns the limits for a plan. Unknown plans get the free
// tier so a bad row never unlocks paid features.
func LimitsFor(plan Plan) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[PlanFree]
}

func (p Plan) IsValid() bool {
	_, ok := planLimits[p]
	return ok
}

// ErrLimitReached is returned when an operation would exceed the plan.
type ErrLimitReached struct {
	Resource string
	Limit    int
	Plan     Plan
}

func (e *ErrLimitReached) Error() string {
	return fmt.Sprintf("plan %s allows at most %d %s", e.Plan, e.Limit, e.Resource)
}

// Gate checks plan limits against current usage.
type Gate struct {
	transactions ledger.TransactionStore
	businesses   ledger.BusinessStore
	products     ledger.ProductStore
}

func NewGate(transactions ledger.TransactionStore, businesses ledger.BusinessStore, products ledger.ProductStore) *Gate {
	return &Gate{
		transactions: transactions,
		businesses:   businesses,
		products:     products,
	}
}

// AllowTransaction checks the monthly transaction cap for the month of
// the given date.
func (g *Gate) AllowTransaction(ctx context.Context, plan Plan, businessID uuid.UUID, at time.Time) error {
	limits := LimitsFor(plan)
	if limits.TransactionsPerMonth == Unlimited {
		return nil
	}

	count, err := g.transactions.CountInMonth(ctx, businessID, at.Year(), at.Month())
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if count >= limits.TransactionsPerMonth {
		return &ErrLimitReached{Resource: "transactions per month", Limit: limits.TransactionsPerMonth, Plan: plan}
	}
	return nil
}

// AllowBusiness checks the business cap for an owner.
func (g *Gate) AllowBusiness(ctx context.Context, plan Plan, ownerID uuid.UUID) error {
	limits := LimitsFor(plan)
	if limits.Businesses == Unlimited {
		return nil
	}

	owned, err := g.businesses.ListBusinesses(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list businesses: %w", err)
	}
	if len(owned) >= limits.Businesses {
		return &ErrLimitReached{Resource: "businesses", Limit: limits.Businesses, Plan: plan}
	}
	return nil
}

// AllowProduct checks the product cap for a business.
func (g *Gate) AllowProduct(ctx context.Context, plan Plan, businessID uuid.UUID) error {
	limits := LimitsFor(plan)
	if limits.Products == Unlimited {
		return nil
	}

	count, err := g.products.CountProducts(ctx, businessID)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count >= limits.Products {
		return &ErrLimitReached{Resource: "products", Limit: limits.Products, Plan: plan}
	}
	return nil
}

// AllowIngredient checks the ingredient cap for a business.
func (g *Gate) AllowIngredient(ctx context.Context, plan Plan, businessID uuid.UUID) error {
	limits := LimitsFor(plan)
	if limits.Ingredients == Unlimited {
		return nil
	}

	count, err := g.products.CountIngredients(ctx, businessID)
	if err != nil {
		return fmt.Errorf("count ingredients: %w", err)
	}
	if count >= limits.Ingredients {
		return &ErrLimitReached{Resource: "ingredients", Limit: limits.Ingredients, Plan: plan}
	}
	return nil
}

// AllowProjections reports whether the plan includes scenario
// projections.
func (g *Gate) AllowProjections(plan Plan) bool {
	return LimitsFor(plan).Projections
}
