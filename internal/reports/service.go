package reports

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kirana-store/kirana/internal/stock"
)

// recentWindow is how far back the summary counts recent activity.
const recentWindow = 30 * 24 * time.Hour

// BuildObserver counts report builds; cache is "hit", "miss" or "none".
type BuildObserver interface {
	ObserveReportBuild(report, cache string)
}

// Config tunes the report service.
type Config struct {
	Location          *time.Location
	LowStockThreshold float64
	Metrics           BuildObserver
	Logger            *slog.Logger
}

// Service builds reports from the ledger store.
type Service struct {
	repo     Repository
	cache    *Cache
	loc      *time.Location
	lowStock float64
	metrics  BuildObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the report service. cache may be nil.
func NewService(repo Repository, cache *Cache, cfg Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = 10
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		loc:      loc,
		lowStock: threshold,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// Dates returns a parser anchored to the store timezone.
func (s *Service) Dates() DateParser {
	return NewDateParser(s.loc, s.logger)
}

// histories loads purchase and sale movements for every product in filter.
func (s *Service) histories(ctx context.Context, filter ProductFilter) (purchases, sales map[int64][]Entry, err error) {
	ps, err := s.repo.Purchases(ctx, EntryFilter{ProductFilter: filter})
	if err != nil {
		return nil, nil, fmt.Errorf("reports: load purchases: %w", err)
	}
	ss, err := s.repo.Sales(ctx, EntryFilter{ProductFilter: filter})
	if err != nil {
		return nil, nil, fmt.Errorf("reports: load sales: %w", err)
	}
	return groupByProduct(ps), groupByProduct(ss), nil
}

func groupByProduct(entries []Entry) map[int64][]Entry {
	out := make(map[int64][]Entry)
	for _, e := range entries {
		out[e.ProductID] = append(out[e.ProductID], e)
	}
	return out
}

func movements(entries []Entry) []stock.Movement {
	out := make([]stock.Movement, len(entries))
	for i, e := range entries {
		out[i] = stock.Movement{Quantity: e.Quantity, At: e.At}
	}
	return out
}

func history(p Product, purchases, sales []Entry) stock.History {
	return stock.History{
		CurrentStock:  p.Stock,
		PurchasePrice: p.PurchasePrice,
		Purchases:     movements(purchases),
		Sales:         movements(sales),
	}
}

// StockSnapshot reports the stock of each product at the end of DateTo, or
// of DateFrom when only that is given, or now.
func (s *Service) StockSnapshot(ctx context.Context, filter SnapshotFilter) ([]SnapshotRow, error) {
	products, err := s.repo.ListProducts(ctx, filter.ProductFilter)
	if err != nil {
		return nil, fmt.Errorf("reports: list products: %w", err)
	}
	var target *time.Time
	switch {
	case filter.DateTo != nil:
		t := nextDay(*filter.DateTo)
		target = &t
	case filter.DateFrom != nil:
		t := nextDay(*filter.DateFrom)
		target = &t
	}
	var purchases, sales map[int64][]Entry
	if target != nil {
		if purchases, sales, err = s.histories(ctx, filter.ProductFilter); err != nil {
			return nil, err
		}
	}
	generated := s.now().In(s.loc)
	rows := make([]SnapshotRow, 0, len(products))
	for _, p := range products {
		pos := stock.At(history(p, purchases[p.ID], sales[p.ID]), target)
		rows = append(rows, SnapshotRow{
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.PurchasePrice,
			Stock:       int64(pos.Stock),
			StockValue:  pos.Value,
			UnitType:    p.UnitType,
			LastUpdated: generated,
			Quantity:    pos.Stock,
		})
	}
	s.observe("stock_snapshot", "none")
	return rows, nil
}

// OpeningStockRegister lists, per product, the total quantity ever purchased
// valued at purchase price.
func (s *Service) OpeningStockRegister(ctx context.Context) ([]RegisterRow, error) {
	products, err := s.repo.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("reports: list products: %w", err)
	}
	purchases, err := s.repo.Purchases(ctx, EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("reports: load purchases: %w", err)
	}
	byProduct := groupByProduct(purchases)
	rows := make([]RegisterRow, 0, len(products))
	for _, p := range products {
		qty := int64(stock.Total(movements(byProduct[p.ID])))
		rows = append(rows, RegisterRow{
			ID:            p.ID,
			Name:          p.Name,
			PurchasePrice: p.PurchasePrice,
			SellingPrice:  p.SellingPrice,
			UnitType:      p.UnitType,
			Quantity:      qty,
			StockValue:    float64(qty) * p.PurchasePrice,
			CreatedAt:     p.CreatedAt,
		})
	}
	s.observe("opening_stock_register", "none")
	return rows, nil
}

// ProfitLoss computes gross profit per product over [Start, End+1 day).
// Opening stock value is reported but, as in the books this replaces, not
// subtracted from gross profit.
func (s *Service) ProfitLoss(ctx context.Context, filter PLFilter) (PLReport, error) {
	products, err := s.repo.ListProducts(ctx, filter.ProductFilter)
	if err != nil {
		return PLReport{}, fmt.Errorf("reports: list products: %w", err)
	}
	purchases, sales, err := s.histories(ctx, filter.ProductFilter)
	if err != nil {
		return PLReport{}, err
	}
	var windowEnd *time.Time
	if filter.End != nil {
		t := nextDay(*filter.End)
		windowEnd = &t
	}
	inWindow := func(at time.Time) bool {
		if filter.Start != nil && at.Before(*filter.Start) {
			return false
		}
		return windowEnd == nil || at.Before(*windowEnd)
	}

	report := PLReport{Rows: make([]PLRow, 0, len(products))}
	for _, p := range products {
		h := history(p, purchases[p.ID], sales[p.ID])
		row := PLRow{ProductID: p.ID, ProductName: p.Name}
		if filter.Start != nil {
			at := nextDay(*filter.Start)
			row.OpeningStockValue = stock.ValueAt(h, &at)
		}
		row.ClosingStockValue = stock.ValueAt(h, windowEnd)
		for _, e := range sales[p.ID] {
			if inWindow(e.At) {
				row.SalesAmount += e.Amount
				row.UnitsSold += e.Quantity
			}
		}
		for _, e := range purchases[p.ID] {
			if inWindow(e.At) {
				row.PurchaseCost += e.Amount
			}
		}
		row.GrossProfit = row.SalesAmount - row.PurchaseCost + row.ClosingStockValue
		row.Margin = Margin(row.GrossProfit, row.SalesAmount)
		report.Rows = append(report.Rows, row)

		report.Total.UnitsSold += row.UnitsSold
		report.Total.OpeningStockValue += row.OpeningStockValue
		report.Total.PurchaseCost += row.PurchaseCost
		report.Total.SalesAmount += row.SalesAmount
		report.Total.ClosingStockValue += row.ClosingStockValue
		report.Total.GrossProfit += row.GrossProfit
	}
	report.Total.ProductName = "ALL PRODUCTS"
	report.Total.Margin = Margin(report.Total.GrossProfit, report.Total.SalesAmount)
	s.observe("profit_loss", "none")
	return report, nil
}

// Margin renders profit as a percentage of sales, "0.00%" without sales.
func Margin(profit, sales float64) string {
	if sales <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", profit/sales*100)
}

// SalesLedger lists sales newest first.
func (s *Service) SalesLedger(ctx context.Context, filter EntryFilter) ([]SalesLedgerEntry, error) {
	sales, err := s.repo.Sales(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("reports: sales ledger: %w", err)
	}
	out := make([]SalesLedgerEntry, 0, len(sales))
	for _, e := range slices.Backward(sales) {
		out = append(out, SalesLedgerEntry{
			SaleID:          e.ID,
			Date:            e.At.In(s.loc),
			ProductID:       e.ProductID,
			ProductName:     e.ProductName,
			ProductCategory: e.ProductCategory,
			Quantity:        e.Quantity,
			UnitPrice:       e.UnitAmount(),
			TotalAmount:     e.Amount,
			CustomerInfo:    "Customer for " + e.ProductName,
		})
	}
	s.observe("sales_ledger", "none")
	return out, nil
}

// PurchaseLedger lists purchases newest first.
func (s *Service) PurchaseLedger(ctx context.Context, filter EntryFilter) ([]PurchaseLedgerEntry, error) {
	purchases, err := s.repo.Purchases(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("reports: purchase ledger: %w", err)
	}
	out := make([]PurchaseLedgerEntry, 0, len(purchases))
	for _, e := range slices.Backward(purchases) {
		out = append(out, PurchaseLedgerEntry{
			PurchaseID:   e.ID,
			Date:         e.At.In(s.loc),
			ProductID:    e.ProductID,
			ProductName:  e.ProductName,
			Quantity:     e.Quantity,
			UnitCost:     e.UnitAmount(),
			TotalCost:    e.Amount,
			SupplierInfo: "Supplier for " + e.ProductName,
		})
	}
	s.observe("purchase_ledger", "none")
	return out, nil
}

// StockLedger replays the movements of one product from its reconstructed
// opening stock, keeping a running balance.
func (s *Service) StockLedger(ctx context.Context, productID int64) (StockLedger, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return StockLedger{}, err
	}
	purchases, sales, err := s.histories(ctx, ProductFilter{ProductID: productID})
	if err != nil {
		return StockLedger{}, err
	}
	h := history(p, purchases[p.ID], sales[p.ID])

	var moves []StockHistoryEntry
	for _, e := range purchases[p.ID] {
		moves = append(moves, StockHistoryEntry{
			Date:            e.At.In(s.loc),
			TransactionType: TxPurchase,
			Reference:       fmt.Sprintf("Purchase #%d", e.ID),
			Quantity:        e.Quantity,
			Details:         fmt.Sprintf("Purchased %s units at ₹%.2f each", formatQty(e.Quantity), e.UnitAmount()),
		})
	}
	for _, e := range sales[p.ID] {
		moves = append(moves, StockHistoryEntry{
			Date:            e.At.In(s.loc),
			TransactionType: TxSale,
			Reference:       fmt.Sprintf("Sale #%d", e.ID),
			Quantity:        -e.Quantity,
			Details:         fmt.Sprintf("Sold %s units at ₹%.2f each", formatQty(e.Quantity), e.UnitAmount()),
		})
	}
	slices.SortStableFunc(moves, func(a, b StockHistoryEntry) int {
		return a.Date.Compare(b.Date)
	})

	opening := stock.OpeningStock(h)
	openingDate := s.now().In(s.loc)
	if len(moves) > 0 {
		openingDate = moves[0].Date
	}
	ledger := StockLedger{
		ProductID:      p.ID,
		ProductName:    p.Name,
		CurrentStock:   p.Stock,
		OpeningStock:   opening,
		TotalPurchases: stock.Total(h.Purchases),
		TotalSales:     stock.Total(h.Sales),
		History: []StockHistoryEntry{{
			Date:                  openingDate,
			TransactionType:       TxOpening,
			Reference:             "Opening Stock",
			Quantity:              opening,
			StockAfterTransaction: opening,
			Details:               "Opening stock balance",
		}},
	}
	balance := opening
	for _, m := range moves {
		balance += m.Quantity
		m.StockAfterTransaction = balance
		ledger.History = append(ledger.History, m)
	}
	s.observe("stock_ledger", "none")
	return ledger, nil
}

// LedgerProducts lists products with their activity counts. The list is cached.
func (s *Service) LedgerProducts(ctx context.Context) ([]LedgerProduct, error) {
	var out []LedgerProduct
	err := s.cached(ctx, "ledger_products", []string{"ledger", "products"}, &out, func(ctx context.Context) (any, error) {
		return s.repo.LedgerProducts(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("reports: ledger products: %w", err)
	}
	return out, nil
}

// Summary builds the ledger dashboard. The counts are cached until the next
// stock movement.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var counts SummaryCounts
	err := s.cached(ctx, "ledger_summary", []string{"ledger", "summary"}, &counts, func(ctx context.Context) (any, error) {
		since := s.now().In(s.loc).Add(-recentWindow)
		return s.repo.SummaryCounts(ctx, since, s.lowStock)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("reports: ledger summary: %w", err)
	}
	return Summary{Summary: counts, LastUpdated: s.now().In(s.loc)}, nil
}

// LowStock lists products at or below the configured threshold.
func (s *Service) LowStock(ctx context.Context) ([]LowStockItem, error) {
	items, err := s.repo.LowStock(ctx, s.lowStock)
	if err != nil {
		return nil, fmt.Errorf("reports: low stock: %w", err)
	}
	return items, nil
}

// LowStockThreshold is the stock level at or below which a product is low.
func (s *Service) LowStockThreshold() float64 {
	return s.lowStock
}

func (s *Service) cached(ctx context.Context, report string, parts []string, dest any, loader func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return err
	}
	hit, err := s.cache.FetchJSON(ctx, key, dest, loader)
	if err != nil {
		return err
	}
	if hit {
		s.observe(report, "hit")
	} else {
		s.observe(report, "miss")
	}
	return nil
}

func (s *Service) observe(report, cache string) {
	if s.metrics != nil {
		s.metrics.ObserveReportBuild(report, cache)
	}
}
