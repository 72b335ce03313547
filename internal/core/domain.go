package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	CostUnset     CostType = ""
	CostGoods     CostType = "goods"
	CostOperating CostType = "operating"
)

// FallbackCategoryName is the bucket for transactions without a category.
const FallbackCategoryName = "Sin categoría"

// FallbackCategoryColor is the color used for the fallback bucket.
const FallbackCategoryColor = "#94a3b8"

type (
	TxType   string
	CostType string

	Date struct {
		time.Time
	}

	DateRange struct {
		Start Date
		End   Date
	}

	Money struct {
		Cents int64
	}

	// CategoryRef is the category data joined onto a transaction row.
	CategoryRef struct {
		Name     string
		Color    string
		CostType CostType
	}

	Transaction struct {
		ID         uuid.UUID
		BusinessID uuid.UUID
		Type       TxType
		Amount     Money
		Date       Date
		CategoryID *uuid.UUID
		Category   *CategoryRef
		Note       string
		CreatedAt  time.Time
	}

	Category struct {
		ID         uuid.UUID
		BusinessID uuid.UUID
		Type       TxType
		Name       string
		Color      string
		CostType   CostType
	}

	Business struct {
		ID        uuid.UUID
		OwnerID   uuid.UUID
		Name      string
		Currency  string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidRange    = errors.New("start date after end date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("type must be 'income' or 'expense'")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidCostType = errors.New("invalid cost type")
	ErrInvalidMargin   = errors.New("margin must be in [0, 100)")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (c CostType) Valid() bool {
	switch c {
	case CostUnset, CostGoods, CostOperating:
		return true
	default:
		return false
	}
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO renders the date as YYYY-MM-DD for query bounds and payloads.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (r DateRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return err
	}
	if err := r.End.Validate(); err != nil {
		return err
	}
	if r.Start.After(r.End.Time) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether d falls inside the range, bounds included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the amount in currency units for KPI payloads.
// Keep cents for arithmetic on stored amounts.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.CostType.Valid() {
		return ErrInvalidCostType
	}
	return nil
}

func (b Business) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// IsGoodsCost classifies an expense transaction as cost of goods.
// The explicit cost type on the category wins; rows from before the
// cost_type column exist only with a name, so fall back to the legacy
// substring heuristic ("materia"/"costo").
func (t Transaction) IsGoodsCost() bool {
	if t.Type != Expense || t.Category == nil {
		return false
	}
	switch t.Category.CostType {
	case CostGoods:
		return true
	case CostOperating:
		return false
	}
	name := strings.ToLower(t.Category.Name)
	return strings.Contains(name, "materia") || strings.Contains(name, "costo")
}
