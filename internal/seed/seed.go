// Package seed loads the demo catalog and bootstrap accounts.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kirana-store/kirana/internal/platform/db"
	"github.com/kirana-store/kirana/internal/users"
)

// CustomerUsername owns sales placed through WhatsApp orders.
const CustomerUsername = "customer"

// Product is one demo catalog entry.
type Product struct {
	Name          string
	PurchasePrice float64
	SellingPrice  float64
	UnitType      string
	Category      string
	Stock         float64
}

// Categories lists the demo categories.
func Categories() []string {
	return []string{"Fruits", "Vegetables", "Dairy", "Bakery", "Groceries", "Beverages", "Snacks", "Meat & Fish"}
}

// Products lists the demo catalog.
func Products() []Product {
	return []Product{
		{Name: "Apple", PurchasePrice: 80, SellingPrice: 100, UnitType: "kgs", Category: "Fruits", Stock: 50},
		{Name: "Banana", PurchasePrice: 40, SellingPrice: 50, UnitType: "kgs", Category: "Fruits", Stock: 30},
		{Name: "Orange", PurchasePrice: 60, SellingPrice: 80, UnitType: "kgs", Category: "Fruits", Stock: 25},
		{Name: "Milk", PurchasePrice: 50, SellingPrice: 65, UnitType: "ltr", Category: "Dairy", Stock: 20},
		{Name: "Bread", PurchasePrice: 30, SellingPrice: 40, UnitType: "pcs", Category: "Bakery", Stock: 15},
		{Name: "Eggs", PurchasePrice: 70, SellingPrice: 90, UnitType: "pcs", Category: "Meat & Fish", Stock: 40},
		{Name: "Rice", PurchasePrice: 100, SellingPrice: 120, UnitType: "kgs", Category: "Groceries", Stock: 60},
		{Name: "Sugar", PurchasePrice: 45, SellingPrice: 55, UnitType: "kgs", Category: "Groceries", Stock: 35},
	}
}

// Pool is what the seeder needs from the database.
type Pool interface {
	db.Beginner
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Options names the bootstrap admin. Without a password no admin is created.
type Options struct {
	AdminUsername string
	AdminPassword string
}

// Result reports what a seed run did.
type Result struct {
	Message    string `json:"message"`
	Products   int    `json:"products"`
	Categories int    `json:"categories"`
}

// Seeder writes demo data into an empty store.
type Seeder struct {
	pool Pool
	opts Options
}

// New builds a seeder.
func New(pool Pool, opts Options) *Seeder {
	return &Seeder{pool: pool, opts: opts}
}

// Run seeds categories, the customer account, the admin and the catalog. A
// store that already has products is left untouched.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var existing int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&existing); err != nil {
		return Result{}, fmt.Errorf("seed: count products: %w", err)
	}
	if existing > 0 {
		return Result{Message: fmt.Sprintf("Database already has %d products. No seeding needed.", existing)}, nil
	}

	customerHash, err := users.HashPassword(CustomerUsername)
	if err != nil {
		return Result{}, err
	}
	var adminHash string
	if s.opts.AdminUsername != "" && s.opts.AdminPassword != "" {
		if adminHash, err = users.HashPassword(s.opts.AdminPassword); err != nil {
			return Result{}, err
		}
	}

	categories := Categories()
	catalog := Products()
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, name := range categories {
			if _, err := tx.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT ((LOWER(name))) DO NOTHING`, name); err != nil {
				return fmt.Errorf("seed: category %s: %w", name, err)
			}
		}
		if _, err := tx.Exec(ctx, `INSERT INTO users (username, email, password_hash, sales, purchase, create_product, delete_product,
			create_category, delete_category, sales_ledger, purchase_ledger, stock_ledger, profit_loss, opening_stock, user_management)
			VALUES ($1, $2, $3, FALSE, FALSE, FALSE, FALSE, FALSE, FALSE, FALSE, FALSE, FALSE, FALSE, FALSE, FALSE)
			ON CONFLICT (username) DO NOTHING`,
			CustomerUsername, CustomerUsername+"@kirana.store", customerHash); err != nil {
			return fmt.Errorf("seed: customer user: %w", err)
		}
		if adminHash != "" {
			if _, err := tx.Exec(ctx, `INSERT INTO users (username, email, password_hash, role, sales, purchase, create_product, delete_product,
				create_category, delete_category, sales_ledger, purchase_ledger, stock_ledger, profit_loss, opening_stock, user_management)
				VALUES ($1, $2, $3, 'ADMIN', TRUE, TRUE, TRUE, TRUE, TRUE, TRUE, TRUE, TRUE, TRUE, TRUE, TRUE, TRUE)
				ON CONFLICT (username) DO NOTHING`,
				s.opts.AdminUsername, s.opts.AdminUsername+"@example.com", adminHash); err != nil {
				return fmt.Errorf("seed: admin user: %w", err)
			}
		}
		for _, p := range catalog {
			if _, err := tx.Exec(ctx, `INSERT INTO products (name, purchase_price, selling_price, unit_type, category, stock, initial_stock)
				VALUES ($1, $2, $3, $4, $5, $6, $6) ON CONFLICT (name) DO NOTHING`,
				p.Name, p.PurchasePrice, p.SellingPrice, p.UnitType, p.Category, p.Stock); err != nil {
				return fmt.Errorf("seed: product %s: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message:    fmt.Sprintf("Seeded database with %d products and %d categories.", len(catalog), len(categories)),
		Products:   len(catalog),
		Categories: len(categories),
	}, nil
}
