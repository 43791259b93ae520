package reports

import (
	"context"
	"time"
)

// Repository is the read side of the ledger store. Entries come back in
// ascending date order, ties broken by id.
type Repository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	Purchases(ctx context.Context, filter EntryFilter) ([]Entry, error)
	Sales(ctx context.Context, filter EntryFilter) ([]Entry, error)
	LedgerProducts(ctx context.Context) ([]LedgerProduct, error)
	SummaryCounts(ctx context.Context, since time.Time, lowStock float64) (SummaryCounts, error)
	LowStock(ctx context.Context, threshold float64) ([]LowStockItem, error)
}
