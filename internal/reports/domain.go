// Package reports builds the stock, ledger and profit & loss reports of the
// store from its purchase and sale history.
package reports

import (
	"time"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

// Product is the catalog slice a report needs.
type Product struct {
	ID            int64
	Name          string
	PurchasePrice float64
	SellingPrice  float64
	UnitType      string
	Category      *string
	Stock         float64
	CreatedAt     time.Time
}

// Entry is a purchase or sale row joined with its product.
type Entry struct {
	ID              int64
	ProductID       int64
	ProductName     string
	ProductCategory *string
	Quantity        float64
	Amount          float64
	At              time.Time
}

// UnitAmount is the per unit price or cost of the entry.
func (e Entry) UnitAmount() float64 {
	if e.Quantity <= 0 {
		return 0
	}
	return e.Amount / e.Quantity
}

// ProductFilter narrows the products a report covers. Category matches
// case-insensitively on the whole name.
type ProductFilter struct {
	ProductID int64
	Category  string
}

// EntryFilter narrows purchase and sale rows. From is inclusive; To is
// inclusive when ToInclusive is set and exclusive otherwise.
type EntryFilter struct {
	ProductFilter
	From        *time.Time
	To          *time.Time
	ToInclusive bool
}

// SnapshotFilter selects the stock snapshot. Dates are anchored in the store
// timezone; the snapshot is taken one day after DateTo, or after DateFrom
// when DateTo is absent.
type SnapshotFilter struct {
	ProductFilter
	DateFrom *time.Time
	DateTo   *time.Time
}

// SnapshotRow is one product in the stock snapshot.
type SnapshotRow struct {
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Price       float64   `json:"price"`
	Stock       int64     `json:"stock"`
	StockValue  float64   `json:"stock_value"`
	UnitType    string    `json:"unit_type"`
	LastUpdated time.Time `json:"last_updated"`

	// Quantity is the untruncated point-in-time stock.
	Quantity float64 `json:"-"`
}

// RegisterRow is one product in the opening stock register. Quantity is the
// total ever purchased, never netted with sales.
type RegisterRow struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	PurchasePrice float64   `json:"purchase_price"`
	SellingPrice  float64   `json:"selling_price"`
	UnitType      string    `json:"unit_type"`
	Quantity      int64     `json:"quantity"`
	StockValue    float64   `json:"stock_value"`
	CreatedAt     time.Time `json:"created_at"`
}

// PLFilter selects the profit & loss window [Start, End+1 day).
type PLFilter struct {
	ProductFilter
	Start *time.Time
	End   *time.Time
}

// PLRow is the profit & loss of one product, or the totals.
type PLRow struct {
	ProductID         int64   `json:"product_id,omitempty"`
	ProductName       string  `json:"product_name"`
	UnitsSold         float64 `json:"units_sold"`
	OpeningStockValue float64 `json:"opening_stock_value"`
	PurchaseCost      float64 `json:"purchase_cost"`
	SalesAmount       float64 `json:"sales_amount"`
	ClosingStockValue float64 `json:"closing_stock_value"`
	GrossProfit       float64 `json:"gross_profit"`
	Margin            string  `json:"margin"`
}

// PLReport is the per product breakdown and its straight-summed totals.
type PLReport struct {
	Rows  []PLRow `json:"rows"`
	Total PLRow   `json:"total"`
}

// SalesLedgerEntry is one row of the sales ledger.
type SalesLedgerEntry struct {
	SaleID          int64     `json:"sale_id"`
	Date            time.Time `json:"date"`
	ProductID       int64     `json:"product_id"`
	ProductName     string    `json:"product_name"`
	ProductCategory *string   `json:"product_category"`
	Quantity        float64   `json:"quantity"`
	UnitPrice       float64   `json:"unit_price"`
	TotalAmount     float64   `json:"total_amount"`
	CustomerInfo    string    `json:"customer_info"`
}

// PurchaseLedgerEntry is one row of the purchase ledger.
type PurchaseLedgerEntry struct {
	PurchaseID   int64     `json:"purchase_id"`
	Date         time.Time `json:"date"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Quantity     float64   `json:"quantity"`
	UnitCost     float64   `json:"unit_cost"`
	TotalCost    float64   `json:"total_cost"`
	SupplierInfo string    `json:"supplier_info"`
}

// Transaction types in a stock ledger.
const (
	TxOpening  = "OPENING"
	TxPurchase = "PURCHASE"
	TxSale     = "SALE"
)

// StockHistoryEntry is one line of a product stock ledger.
type StockHistoryEntry struct {
	Date                  time.Time `json:"date"`
	TransactionType       string    `json:"transaction_type"`
	Reference             string    `json:"reference"`
	Quantity              float64   `json:"quantity"`
	StockAfterTransaction float64   `json:"stock_after_transaction"`
	Details               string    `json:"details"`
}

// StockLedger is the full movement history of one product.
type StockLedger struct {
	ProductID      int64               `json:"product_id"`
	ProductName    string              `json:"product_name"`
	CurrentStock   float64             `json:"current_stock"`
	OpeningStock   float64             `json:"opening_stock"`
	TotalPurchases float64             `json:"total_purchases"`
	TotalSales     float64             `json:"total_sales"`
	History        []StockHistoryEntry `json:"history"`
}

// LedgerProduct lists a product for stock ledger selection.
type LedgerProduct struct {
	ProductID      int64   `json:"product_id"`
	ProductName    string  `json:"product_name"`
	CurrentStock   float64 `json:"current_stock"`
	Price          float64 `json:"price"`
	TotalPurchases int64   `json:"total_purchases"`
	TotalSales     int64   `json:"total_sales"`
	HasActivity    bool    `json:"has_activity"`
}

// SummaryCounts are the ledger dashboard figures.
type SummaryCounts struct {
	TotalProducts         int64   `json:"total_products"`
	TotalPurchases        int64   `json:"total_purchases"`
	TotalSales            int64   `json:"total_sales"`
	RecentPurchases       int64   `json:"recent_purchases"`
	RecentSales           int64   `json:"recent_sales"`
	TotalPurchaseQuantity float64 `json:"total_purchase_quantity"`
	TotalSaleQuantity     float64 `json:"total_sale_quantity"`
	LowStockProducts      int64   `json:"low_stock_products"`
}

// Summary is the ledger dashboard.
type Summary struct {
	Summary     SummaryCounts `json:"summary"`
	LastUpdated time.Time     `json:"last_updated"`
}

// LowStockItem is a product at or below the low stock threshold.
type LowStockItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Stock     float64 `json:"stock"`
	UnitType  string  `json:"unit_type"`
}

// ErrProductNotFound is returned by the stock ledger for unknown products.
var ErrProductNotFound = httpx.Errorf(httpx.ErrNotFound, "Product not found")
