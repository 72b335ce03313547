package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/ledger"
)

const timeLayout = time.RFC3339

// Exported flag states on transactions.
const (
	exportPending = 0
	exportDone    = 1
	exportFailed  = 2
)

// ListByRange implements ledger.TransactionStore. Dates are stored as
// ISO strings, so the BETWEEN comparison is lexicographic and correct.
func (r *Repository) ListByRange(ctx context.Context, businessID uuid.UUID, rng core.DateRange) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT t.id, t.business_id, t.type, t.amount_cents, t.date, t.category_id, t.note, t.created_at,
		       c.name, c.color, c.cost_type
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.business_id = ? AND t.date BETWEEN ? AND ?
		ORDER BY t.date, t.created_at`),
		businessID.String(), rng.Start.ISO(), rng.End.ISO())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	var categoryID any
	if tx.CategoryID != nil {
		categoryID = tx.CategoryID.String()
	}
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO transactions (id, business_id, type, amount_cents, date, category_id, note, created_at, exported)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		tx.ID.String(), tx.BusinessID.String(), string(tx.Type), tx.Amount.Cents,
		tx.Date.ISO(), categoryID, tx.Note, tx.CreatedAt.UTC().Format(timeLayout), exportPending)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID, "business_id", tx.BusinessID, "type", tx.Type, "amount_cents", tx.Amount.Cents)
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	var categoryID any
	if tx.CategoryID != nil {
		categoryID = tx.CategoryID.String()
	}
	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE transactions SET type = ?, amount_cents = ?, date = ?, category_id = ?, note = ?, exported = ?
		WHERE id = ?`),
		string(tx.Type), tx.Amount.Cents, tx.Date.ISO(), categoryID, tx.Note, exportPending, tx.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM transactions WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT t.id, t.business_id, t.type, t.amount_cents, t.date, t.category_id, t.note, t.created_at,
		       c.name, c.color, c.cost_type
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ?`), id.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()
	txs, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txs) == 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return txs[0], nil
}

func (r *Repository) CountInMonth(ctx context.Context, businessID uuid.UUID, year int, month time.Month) (int, error) {
	start := core.NewDate(year, int(month), 1)
	end := core.Date{Time: start.AddDate(0, 1, -1)}
	var n int
	err := r.db.QueryRowContext(ctx, r.q(`
		SELECT COUNT(*) FROM transactions WHERE business_id = ? AND date BETWEEN ? AND ?`),
		businessID.String(), start.ISO(), end.ISO()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions in month: %w", err)
	}
	return n, nil
}

// --- categories ---

func (r *Repository) ListCategories(ctx context.Context, businessID uuid.UUID) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, business_id, type, name, color, cost_type
		FROM categories WHERE business_id = ? ORDER BY type, name`), businessID.String())
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var id, bid, typ, costType string
		if err := rows.Scan(&id, &bid, &typ, &c.Name, &c.Color, &costType); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID, _ = uuid.Parse(id)
		c.BusinessID, _ = uuid.Parse(bid)
		c.Type = core.TxType(typ)
		c.CostType = core.CostType(costType)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO categories (id, business_id, type, name, color, cost_type)
		VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID.String(), c.BusinessID.String(), string(c.Type), c.Name, c.Color, string(c.CostType))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE categories SET name = ?, color = ?, cost_type = ? WHERE id = ?`),
		c.Name, c.Color, string(c.CostType), c.ID.String())
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

// DeleteCategory detaches the category from its transactions first so
// historical rows fall into the "Sin categoría" bucket instead of
// breaking the join.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.q(`UPDATE transactions SET category_id = NULL WHERE category_id = ?`), id.String()); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM categories WHERE id = ?`), id.String()); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

// --- businesses ---

// CreateBusiness inserts the business and its default categories in a
// single database transaction, so a failed seed never leaves a
// business without categories.
func (r *Repository) CreateBusiness(ctx context.Context, b core.Business, defaults []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.q(`
		INSERT INTO businesses (id, owner_id, name, currency, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		b.ID.String(), b.OwnerID.String(), b.Name, b.Currency, b.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create business: %w", err)
	}

	for _, c := range defaults {
		_, err = tx.ExecContext(ctx, r.q(`
			INSERT INTO categories (id, business_id, type, name, color, cost_type)
			VALUES (?, ?, ?, ?, ?, ?)`),
			c.ID.String(), b.ID.String(), string(c.Type), c.Name, c.Color, string(c.CostType))
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Business created", "id", b.ID, "name", b.Name, "default_categories", len(defaults))
	return nil
}

func (r *Repository) ListBusinesses(ctx context.Context, ownerID uuid.UUID) ([]core.Business, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, owner_id, name, currency, created_at
		FROM businesses WHERE owner_id = ? ORDER BY created_at`), ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var out []core.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) GetBusiness(ctx context.Context, id uuid.UUID) (core.Business, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, owner_id, name, currency, created_at FROM businesses WHERE id = ?`), id.String())
	if err != nil {
		return core.Business{}, fmt.Errorf("get business: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return core.Business{}, ledger.ErrNotFound
	}
	return scanBusiness(rows)
}

func (r *Repository) DeleteBusiness(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM product_ingredients WHERE product_id IN (SELECT id FROM products WHERE business_id = ?)`,
		`DELETE FROM products WHERE business_id = ?`,
		`DELETE FROM ingredients WHERE business_id = ?`,
		`DELETE FROM transactions WHERE business_id = ?`,
		`DELETE FROM categories WHERE business_id = ?`,
		`DELETE FROM businesses WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, r.q(stmt), id.String()); err != nil {
			return fmt.Errorf("delete business data: %w", err)
		}
	}
	return tx.Commit()
}

// --- products and ingredients ---

func (r *Repository) ListProducts(ctx context.Context, businessID uuid.UUID) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, business_id, name, indirect_cost_cents, margin_pct, price_cents, created_at
		FROM products WHERE business_id = ? ORDER BY name`), businessID.String())
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		var p core.Product
		var id, bid, createdAt string
		var priceCents int64
		if err := rows.Scan(&id, &bid, &p.Name, &p.IndirectCostCents, &p.MarginPct, &priceCents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ID, _ = uuid.Parse(id)
		p.BusinessID, _ = uuid.Parse(bid)
		p.Price = core.Money{Cents: priceCents}
		p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) CreateProduct(ctx context.Context, p core.Product, recipe []core.RecipeItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.q(`
		INSERT INTO products (id, business_id, name, indirect_cost_cents, margin_pct, price_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID.String(), p.BusinessID.String(), p.Name, p.IndirectCostCents, p.MarginPct,
		p.Price.Cents, p.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	for _, it := range recipe {
		_, err = tx.ExecContext(ctx, r.q(`
			INSERT INTO product_ingredients (product_id, ingredient_id, quantity) VALUES (?, ?, ?)`),
			p.ID.String(), it.IngredientID.String(), it.Quantity)
		if err != nil {
			return fmt.Errorf("create recipe item: %w", err)
		}
	}
	return tx.Commit()
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM product_ingredients WHERE product_id = ?`), id.String()); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM products WHERE id = ?`), id.String()); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return tx.Commit()
}

// GetRecipe joins the current ingredient costs onto the recipe rows so
// the caller can run the costing math directly.
func (r *Repository) GetRecipe(ctx context.Context, productID uuid.UUID) ([]core.RecipeItem, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT pi.ingredient_id, pi.quantity, i.unit_cost_cents
		FROM product_ingredients pi
		JOIN ingredients i ON i.id = pi.ingredient_id
		WHERE pi.product_id = ?`), productID.String())
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	defer rows.Close()

	var out []core.RecipeItem
	for rows.Next() {
		var it core.RecipeItem
		var iid string
		var unitCost int64
		if err := rows.Scan(&iid, &it.Quantity, &unitCost); err != nil {
			return nil, fmt.Errorf("scan recipe item: %w", err)
		}
		it.IngredientID, _ = uuid.Parse(iid)
		it.UnitCost = core.Money{Cents: unitCost}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) CountProducts(ctx context.Context, businessID uuid.UUID) (int, error) {
	return r.countBy(ctx, `SELECT COUNT(*) FROM products WHERE business_id = ?`, businessID)
}

func (r *Repository) ListIngredients(ctx context.Context, businessID uuid.UUID) ([]core.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, business_id, name, unit, unit_cost_cents, created_at
		FROM ingredients WHERE business_id = ? ORDER BY name`), businessID.String())
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var out []core.Ingredient
	for rows.Next() {
		var i core.Ingredient
		var id, bid, createdAt string
		if err := rows.Scan(&id, &bid, &i.Name, &i.Unit, &i.UnitCostCents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		i.ID, _ = uuid.Parse(id)
		i.BusinessID, _ = uuid.Parse(bid)
		i.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *Repository) CreateIngredient(ctx context.Context, i core.Ingredient) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO ingredients (id, business_id, name, unit, unit_cost_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		i.ID.String(), i.BusinessID.String(), i.Name, i.Unit, i.UnitCostCents,
		i.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create ingredient: %w", err)
	}
	return nil
}

func (r *Repository) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM product_ingredients WHERE ingredient_id = ?`), id.String()); err != nil {
		return fmt.Errorf("delete recipe rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM ingredients WHERE id = ?`), id.String()); err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	return tx.Commit()
}

func (r *Repository) CountIngredients(ctx context.Context, businessID uuid.UUID) (int, error) {
	return r.countBy(ctx, `SELECT COUNT(*) FROM ingredients WHERE business_id = ?`, businessID)
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u ledger.User) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO users (id, email, name, password_hash, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		u.ID.String(), u.Email, u.Name, u.PasswordHash, u.Plan, u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (ledger.User, error) {
	return r.getUser(ctx, `SELECT id, email, name, password_hash, plan, created_at FROM users WHERE email = ?`, email)
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (ledger.User, error) {
	return r.getUser(ctx, `SELECT id, email, name, password_hash, plan, created_at FROM users WHERE id = ?`, id.String())
}

func (r *Repository) getUser(ctx context.Context, query string, arg any) (ledger.User, error) {
	var u ledger.User
	var id, createdAt string
	err := r.db.QueryRowContext(ctx, r.q(query), arg).Scan(&id, &u.Email, &u.Name, &u.PasswordHash, &u.Plan, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.User{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, fmt.Errorf("get user: %w", err)
	}
	u.ID, _ = uuid.Parse(id)
	u.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return u, nil
}

// --- export queue ---

func (r *Repository) PendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT t.id, t.business_id, t.type, t.amount_cents, t.date, t.category_id, t.note, t.created_at,
		       c.name, c.color, c.cost_type
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.exported = ?
		ORDER BY t.created_at
		LIMIT ?`), exportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *Repository) MarkExported(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, r.q(`UPDATE transactions SET exported = ? WHERE id = ?`), exportDone, id.String())
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked exported", "id", id)
	return nil
}

func (r *Repository) MarkExportError(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, r.q(`UPDATE transactions SET exported = ? WHERE id = ?`), exportFailed, id.String())
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

// --- helpers ---

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var id, bid, typ, date, createdAt string
		var categoryID, catName, catColor, catCostType sql.NullString
		if err := rows.Scan(&id, &bid, &typ, &t.Amount.Cents, &date, &categoryID, &t.Note, &createdAt,
			&catName, &catColor, &catCostType); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ID, _ = uuid.Parse(id)
		t.BusinessID, _ = uuid.Parse(bid)
		t.Type = core.TxType(typ)
		var err error
		t.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		t.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if categoryID.Valid {
			cid, err := uuid.Parse(categoryID.String)
			if err == nil {
				t.CategoryID = &cid
			}
			t.Category = &core.CategoryRef{
				Name:     catName.String,
				Color:    catColor.String,
				CostType: core.CostType(catCostType.String),
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanBusiness(rows *sql.Rows) (core.Business, error) {
	var b core.Business
	var id, oid, createdAt string
	if err := rows.Scan(&id, &oid, &b.Name, &b.Currency, &createdAt); err != nil {
		return core.Business{}, fmt.Errorf("scan business: %w", err)
	}
	b.ID, _ = uuid.Parse(id)
	b.OwnerID, _ = uuid.Parse(oid)
	b.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return b, nil
}

func (r *Repository) countBy(ctx context.Context, query string, businessID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.q(query), businessID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver without RowsAffected support: assume success
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
