package reports

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL ledger store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const productColumns = `p.id, p.name, p.purchase_price, p.selling_price, p.unit_type, p.category, p.stock, p.created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PurchasePrice, &p.SellingPrice, &p.UnitType, &p.Category, &p.Stock, &p.CreatedAt)
	return p, err
}

type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// products applies the product filter. Category uses equality semantics:
// LOWER() on both sides, so LIKE wildcards in the input are literal.
func (w *whereBuilder) products(filter ProductFilter) {
	if filter.ProductID > 0 {
		w.add("p.id = ?", filter.ProductID)
	}
	if filter.Category != "" {
		w.add("LOWER(p.category) = LOWER(?)", filter.Category)
	}
}

func (r *pgRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	var where whereBuilder
	where.products(filter)
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products p`+where.sql()+` ORDER BY p.id`, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *pgRepository) Purchases(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	return r.entries(ctx, "purchases", "total_cost", "purchase_date", filter)
}

func (r *pgRepository) Sales(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	return r.entries(ctx, "sales", "total_amount", "sale_date", filter)
}

func (r *pgRepository) entries(ctx context.Context, table, amountCol, dateCol string, filter EntryFilter) ([]Entry, error) {
	var where whereBuilder
	where.products(filter.ProductFilter)
	if filter.From != nil {
		where.add("e."+dateCol+" >= ?", *filter.From)
	}
	if filter.To != nil {
		op := " < ?"
		if filter.ToInclusive {
			op = " <= ?"
		}
		where.add("e."+dateCol+op, *filter.To)
	}
	query := `SELECT e.id, e.product_id, p.name, p.category, e.quantity, e.` + amountCol + `, e.` + dateCol + `
FROM ` + table + ` e
JOIN products p ON p.id = e.product_id` + where.sql() + `
ORDER BY e.` + dateCol + `, e.id`
	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.ProductName, &e.ProductCategory, &e.Quantity, &e.Amount, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgRepository) LedgerProducts(ctx context.Context) ([]LedgerProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.stock, p.selling_price,
	(SELECT COUNT(*) FROM purchases WHERE product_id = p.id),
	(SELECT COUNT(*) FROM sales WHERE product_id = p.id)
FROM products p
ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerProduct
	for rows.Next() {
		var lp LedgerProduct
		if err := rows.Scan(&lp.ProductID, &lp.ProductName, &lp.CurrentStock, &lp.Price, &lp.TotalPurchases, &lp.TotalSales); err != nil {
			return nil, err
		}
		lp.HasActivity = lp.TotalPurchases > 0 || lp.TotalSales > 0
		out = append(out, lp)
	}
	return out, rows.Err()
}

func (r *pgRepository) SummaryCounts(ctx context.Context, since time.Time, lowStock float64) (SummaryCounts, error) {
	var c SummaryCounts
	err := r.pool.QueryRow(ctx, `SELECT
	(SELECT COUNT(*) FROM products),
	(SELECT COUNT(*) FROM purchases),
	(SELECT COUNT(*) FROM sales),
	(SELECT COUNT(*) FROM purchases WHERE purchase_date >= $1),
	(SELECT COUNT(*) FROM sales WHERE sale_date >= $1),
	(SELECT COALESCE(SUM(quantity), 0) FROM purchases),
	(SELECT COALESCE(SUM(quantity), 0) FROM sales),
	(SELECT COUNT(*) FROM products WHERE stock <= $2)`, since, lowStock).
		Scan(&c.TotalProducts, &c.TotalPurchases, &c.TotalSales, &c.RecentPurchases, &c.RecentSales,
			&c.TotalPurchaseQuantity, &c.TotalSaleQuantity, &c.LowStockProducts)
	return c, err
}

func (r *pgRepository) LowStock(ctx context.Context, threshold float64) ([]LowStockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, stock, unit_type FROM products WHERE stock <= $1 ORDER BY stock, id`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Stock, &item.UnitType); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
