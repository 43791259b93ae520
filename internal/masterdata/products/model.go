package products

import (
	"time"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

// Unit types a product may be sold in.
const (
	UnitKgs = "kgs"
	UnitLtr = "ltr"
	UnitPcs = "pcs"
)

// Product is a catalog entry with its live stock level.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	PurchasePrice float64   `json:"purchase_price"`
	SellingPrice  float64   `json:"selling_price"`
	UnitType      string    `json:"unit_type"`
	Category      *string   `json:"category"`
	Stock         float64   `json:"stock"`
	InitialStock  float64   `json:"initial_stock"`
	CreatedAt     time.Time `json:"created_at"`
}

// StorefrontItem is the shape the shop front renders.
type StorefrontItem struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PurchasePrice float64 `json:"purchase_price"`
	SellingPrice  float64 `json:"selling_price"`
	UnitType      string  `json:"unit_type"`
	ImageURL      string  `json:"imageUrl"`
	Stock         float64 `json:"stock"`
	Category      *string `json:"category"`
}

// Storefront renders p for the shop front; price is the selling price.
func (p Product) Storefront() StorefrontItem {
	return StorefrontItem{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.SellingPrice,
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
		UnitType:      p.UnitType,
		Stock:         p.Stock,
		Category:      p.Category,
	}
}

// DeleteResult reports what a product delete removed.
type DeleteResult struct {
	Product          Product
	SalesDeleted     int64
	PurchasesDeleted int64
}

// ErrProductNotFound is returned for unknown product ids.
var ErrProductNotFound = httpx.Errorf(httpx.ErrNotFound, "Product not found")
