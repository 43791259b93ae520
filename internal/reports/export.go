package reports

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
	csvDateLayout = "02/01/2006 15:04"
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	return &csvStreamer{buf: buf, csv: csv.NewWriter(buf), flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row ...string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer.
func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	s.pendingLines = 0
	return s.buf.Flush()
}

// formatMoney renders v with two decimals.
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// formatQty prints whole quantities without a fractional part.
func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(csvDateLayout)
}

// WriteSalesLedgerCSV writes the sales ledger with a leading SUMMARY row.
func WriteSalesLedgerCSV(w io.Writer, entries []SalesLedgerEntry, loc *time.Location) error {
	s := newCSVStreamer(w)
	if err := s.writeRow("Sale ID", "Date", "Product ID", "Product Name", "Quantity", "Unit Price (₹)", "Total Amount (₹)", "Customer Info"); err != nil {
		return err
	}
	if len(entries) > 0 {
		total := decimal.Zero
		for _, e := range entries {
			total = total.Add(decimal.NewFromFloat(e.TotalAmount))
		}
		if err := s.writeRow("SUMMARY", "", "", fmt.Sprintf("Total Sales: %d", len(entries)), "", "", total.StringFixed(2), ""); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := s.writeRow(
			strconv.FormatInt(e.SaleID, 10),
			formatDate(e.Date, loc),
			strconv.FormatInt(e.ProductID, 10),
			e.ProductName,
			formatQty(e.Quantity),
			formatMoney(e.UnitPrice),
			formatMoney(e.TotalAmount),
			e.CustomerInfo,
		); err != nil {
			return err
		}
	}
	return s.Flush()
}

// WritePurchaseLedgerCSV writes the purchase ledger with a leading SUMMARY row.
func WritePurchaseLedgerCSV(w io.Writer, entries []PurchaseLedgerEntry, loc *time.Location) error {
	s := newCSVStreamer(w)
	if err := s.writeRow("Purchase ID", "Date", "Product ID", "Product Name", "Quantity", "Unit Cost (₹)", "Total Cost (₹)", "Supplier Info"); err != nil {
		return err
	}
	if len(entries) > 0 {
		total := decimal.Zero
		for _, e := range entries {
			total = total.Add(decimal.NewFromFloat(e.TotalCost))
		}
		if err := s.writeRow("SUMMARY", "", "", fmt.Sprintf("Total Purchases: %d", len(entries)), "", "", total.StringFixed(2), ""); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := s.writeRow(
			strconv.FormatInt(e.PurchaseID, 10),
			formatDate(e.Date, loc),
			strconv.FormatInt(e.ProductID, 10),
			e.ProductName,
			formatQty(e.Quantity),
			formatMoney(e.UnitCost),
			formatMoney(e.TotalCost),
			e.SupplierInfo,
		); err != nil {
			return err
		}
	}
	return s.Flush()
}

// WriteStockLedgerCSV writes current stock and value per product.
func WriteStockLedgerCSV(w io.Writer, rows []SnapshotRow) error {
	s := newCSVStreamer(w)
	if err := s.writeRow("Product ID", "Product Name", "Purchase Price (₹)", "Current Stock", "Stock Value (₹)", "Unit Type"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := s.writeRow(
			strconv.FormatInt(r.ProductID, 10),
			r.ProductName,
			formatMoney(r.Price),
			formatQty(r.Quantity),
			formatMoney(r.StockValue),
			r.UnitType,
		); err != nil {
			return err
		}
	}
	return s.Flush()
}

// WriteAllProductsStockCSV writes the stock snapshot with a totals line and a
// blank separator ahead of the products. Products without stock are left out
// unless the snapshot carries any value at all.
func WriteAllProductsStockCSV(w io.Writer, rows []SnapshotRow, loc *time.Location) error {
	s := newCSVStreamer(w)
	if err := s.writeRow("Product Name", "Unit Type", "Purchase Price (₹)", "Stock Quantity", "Stock Value (₹)", "Last Updated"); err != nil {
		return err
	}
	var totalQty int64
	totalValue := decimal.Zero
	for _, r := range rows {
		totalQty += r.Stock
		totalValue = totalValue.Add(decimal.NewFromFloat(r.StockValue))
	}
	if err := s.writeRow(
		fmt.Sprintf("Total Products: %d", len(rows)),
		fmt.Sprintf("Total Stock Quantity: %d", totalQty),
		"Total Stock Value: ₹"+totalValue.StringFixed(2),
		"", "", "",
	); err != nil {
		return err
	}
	if err := s.writeRow("", "", "", "", "", ""); err != nil {
		return err
	}
	for _, r := range rows {
		if r.Stock <= 0 && !totalValue.IsPositive() {
			continue
		}
		if err := s.writeRow(
			r.ProductName,
			r.UnitType,
			formatMoney(r.Price),
			strconv.FormatInt(r.Stock, 10),
			formatMoney(r.StockValue),
			formatDate(r.LastUpdated, loc),
		); err != nil {
			return err
		}
	}
	return s.Flush()
}

// WriteProfitLossCSV writes the profit & loss rows and a trailing Total: row.
func WriteProfitLossCSV(w io.Writer, report PLReport) error {
	s := newCSVStreamer(w)
	if err := s.writeRow("Product", "Units Sold", "Opening Stock (₹)", "Purchase (₹)", "Sales (₹)", "Closing Stock (₹)", "Gross Profit (₹)", "Margin (%)"); err != nil {
		return err
	}
	write := func(name string, r PLRow) error {
		return s.writeRow(
			name,
			formatQty(r.UnitsSold),
			formatMoney(r.OpeningStockValue),
			formatMoney(r.PurchaseCost),
			formatMoney(r.SalesAmount),
			formatMoney(r.ClosingStockValue),
			formatMoney(r.GrossProfit),
			r.Margin,
		)
	}
	for _, r := range report.Rows {
		if err := write(r.ProductName, r); err != nil {
			return err
		}
	}
	if err := write("Total:", report.Total); err != nil {
		return err
	}
	return s.Flush()
}
