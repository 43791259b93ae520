package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirana-store/kirana/internal/platform/db"
)

// Repository persists sales and purchases in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (StockItem, error)
	FindProductByNameForUpdate(ctx context.Context, name string) (StockItem, error)
	UpdateStock(ctx context.Context, productID int64, stock float64) error
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertPurchase(ctx context.Context, purchase Purchase) (int64, error)
	GetSaleForUpdate(ctx context.Context, id int64) (Sale, error)
	GetPurchaseForUpdate(ctx context.Context, id int64) (Purchase, error)
	DeleteSale(ctx context.Context, id int64) error
	DeletePurchase(ctx context.Context, id int64) error
	LookupUserID(ctx context.Context, username string) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a read-committed transaction; product
// rows are serialised by SELECT ... FOR UPDATE.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (StockItem, error) {
	var item StockItem
	err := r.tx.QueryRow(ctx, `SELECT id, name, selling_price, stock FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&item.ID, &item.Name, &item.SellingPrice, &item.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrProductNotFound
	}
	return item, err
}

// FindProductByNameForUpdate matches name case-insensitively and without wildcards.
func (r *txRepository) FindProductByNameForUpdate(ctx context.Context, name string) (StockItem, error) {
	var item StockItem
	err := r.tx.QueryRow(ctx, `SELECT id, name, selling_price, stock FROM products
WHERE name ILIKE $1
ORDER BY id
LIMIT 1
FOR UPDATE`, db.EscapeLike(name)).
		Scan(&item.ID, &item.Name, &item.SellingPrice, &item.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrProductNotFound
	}
	return item, err
}

func (r *txRepository) UpdateStock(ctx context.Context, productID int64, stock float64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET stock=$2 WHERE id=$1`, productID, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (product_id, quantity, total_amount, sale_date, created_by)
VALUES ($1,$2,$3,COALESCE($4, NOW()),$5) RETURNING id`, sale.ProductID, sale.Quantity, sale.TotalAmount, nullTime(sale.SaleDate), nullInt(sale.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertPurchase(ctx context.Context, purchase Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchases (product_id, quantity, total_cost, purchase_date, created_by)
VALUES ($1,$2,$3,COALESCE($4, NOW()),$5) RETURNING id`, purchase.ProductID, purchase.Quantity, purchase.TotalCost, nullTime(purchase.PurchaseDate), nullInt(purchase.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) GetSaleForUpdate(ctx context.Context, id int64) (Sale, error) {
	var (
		sale      Sale
		createdBy *int64
	)
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, quantity, total_amount, sale_date, created_by FROM sales WHERE id=$1 FOR UPDATE`, id).
		Scan(&sale.ID, &sale.ProductID, &sale.Quantity, &sale.TotalAmount, &sale.SaleDate, &createdBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if createdBy != nil {
		sale.CreatedBy = *createdBy
	}
	return sale, err
}

func (r *txRepository) GetPurchaseForUpdate(ctx context.Context, id int64) (Purchase, error) {
	var (
		purchase  Purchase
		createdBy *int64
	)
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, quantity, total_cost, purchase_date, created_by FROM purchases WHERE id=$1 FOR UPDATE`, id).
		Scan(&purchase.ID, &purchase.ProductID, &purchase.Quantity, &purchase.TotalCost, &purchase.PurchaseDate, &createdBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, ErrPurchaseNotFound
	}
	if createdBy != nil {
		purchase.CreatedBy = *createdBy
	}
	return purchase, err
}

func (r *txRepository) DeleteSale(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func (r *txRepository) DeletePurchase(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM purchases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

// LookupUserID returns 0 when username does not exist.
func (r *txRepository) LookupUserID(ctx context.Context, username string) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM users WHERE username=$1`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
