package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirana-store/kirana/internal/platform/db"
	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/shared"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Category string
	Search   string
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id int64) (DeleteResult, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const productColumns = `id, name, purchase_price, selling_price, unit_type, category, stock, initial_stock, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PurchasePrice, &p.SellingPrice, &p.UnitType, &p.Category, &p.Stock, &p.InitialStock, &p.CreatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filter.Category != "" {
		argCount++
		query += ` AND category ILIKE $` + strconv.Itoa(argCount)
		args = append(args, db.EscapeLike(filter.Category))
	}
	if filter.Search != "" {
		argCount++
		query += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+db.EscapeLike(filter.Search)+"%")
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// Create inserts the product and, when it names a category no existing
// category matches ignoring case, creates that category in the same transaction.
func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	var created Product
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if product.Category != nil && *product.Category != "" {
			if _, err := tx.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT ((LOWER(name))) DO NOTHING`, *product.Category); err != nil {
				return err
			}
		}
		var err error
		created, err = scanProduct(tx.QueryRow(ctx, `INSERT INTO products (name, purchase_price, selling_price, unit_type, category, stock, initial_stock)
VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING `+productColumns,
			product.Name, product.PurchasePrice, product.SellingPrice, product.UnitType, product.Category, product.Stock))
		return err
	})
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Product{}, httpx.Errorf(httpx.ErrValidation, "Product with this name already exists")
		}
		return Product{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, product Product) (Product, error) {
	updated, err := scanProduct(r.db.QueryRow(ctx, `UPDATE products SET name = $2, purchase_price = $3, selling_price = $4, unit_type = $5, stock = $6
WHERE id = $1 RETURNING `+productColumns,
		product.ID, product.Name, product.PurchasePrice, product.SellingPrice, product.UnitType, product.Stock))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if shared.IsUniqueViolation(err) {
		return Product{}, httpx.Errorf(httpx.ErrValidation, "Product with this name already exists")
	}
	return updated, err
}

// Delete removes the product with its sales and purchases. Remaining ids are
// left untouched.
func (r *repository) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	var res DeleteResult
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		res.Product = p
		tag, err := tx.Exec(ctx, `DELETE FROM sales WHERE product_id = $1`, id)
		if err != nil {
			return err
		}
		res.SalesDeleted = tag.RowsAffected()
		tag, err = tx.Exec(ctx, `DELETE FROM purchases WHERE product_id = $1`, id)
		if err != nil {
			return err
		}
		res.PurchasesDeleted = tag.RowsAffected()
		_, err = tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		return err
	})
	return res, err
}
