package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	r := csv.NewReader(buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestSalesLedgerCSVHasSummaryRow(t *testing.T) {
	entries := []SalesLedgerEntry{
		{SaleID: 2, Date: time.Date(2025, 3, 6, 9, 5, 0, 0, ist), ProductID: 1, ProductName: "Rice", Quantity: 2, UnitPrice: 55, TotalAmount: 110, CustomerInfo: "Customer for Rice"},
		{SaleID: 1, Date: time.Date(2025, 3, 4, 18, 0, 0, 0, ist), ProductID: 1, ProductName: "Rice", Quantity: 0.5, UnitPrice: 55, TotalAmount: 27.5, CustomerInfo: "Customer for Rice"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSalesLedgerCSV(&buf, entries, ist))

	records := readCSV(t, &buf)
	require.Len(t, records, 4)
	require.Equal(t, "Unit Price (₹)", records[0][5])
	require.Equal(t, []string{"SUMMARY", "", "", "Total Sales: 2", "", "", "137.50", ""}, records[1])
	require.Equal(t, []string{"2", "06/03/2025 09:05", "1", "Rice", "2", "55.00", "110.00", "Customer for Rice"}, records[2])
	require.Equal(t, "0.5", records[3][4])
}

func TestPurchaseLedgerCSVWithoutEntries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePurchaseLedgerCSV(&buf, nil, ist))

	records := readCSV(t, &buf)
	require.Len(t, records, 1)
	require.Equal(t, "Purchase ID", records[0][0])
}

func TestProfitLossCSVEndsWithTotal(t *testing.T) {
	report := PLReport{
		Rows:  []PLRow{{ProductName: "Tea", UnitsSold: 20, PurchaseCost: 600, SalesAmount: 1000, ClosingStockValue: 200, GrossProfit: 600, Margin: "60.00%"}},
		Total: PLRow{ProductName: "ALL PRODUCTS", UnitsSold: 20, PurchaseCost: 600, SalesAmount: 1000, ClosingStockValue: 200, GrossProfit: 600, Margin: "60.00%"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteProfitLossCSV(&buf, report))

	records := readCSV(t, &buf)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Tea", "20", "0.00", "600.00", "1000.00", "200.00", "600.00", "60.00%"}, records[1])
	require.Equal(t, "Total:", records[2][0])
}

func TestAllProductsStockCSV(t *testing.T) {
	updated := time.Date(2025, 3, 10, 12, 0, 0, 0, ist)
	rows := []SnapshotRow{
		{ProductID: 1, ProductName: "Rice", Price: 40, Stock: 50, StockValue: 2000, UnitType: "kgs", LastUpdated: updated},
		{ProductID: 2, ProductName: "Oil", Price: 120, Stock: 0, StockValue: 0, UnitType: "ltr", LastUpdated: updated},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAllProductsStockCSV(&buf, rows, ist))

	records := readCSV(t, &buf)
	require.Len(t, records, 5)
	require.Equal(t, "Total Products: 2", records[1][0])
	require.Equal(t, "Total Stock Quantity: 50", records[1][1])
	require.Equal(t, "Total Stock Value: ₹2000.00", records[1][2])
	require.Equal(t, []string{"", "", "", "", "", ""}, records[2])
	require.Equal(t, []string{"Rice", "kgs", "40.00", "50", "2000.00", "10/03/2025 12:00"}, records[3])
	require.Equal(t, "Oil", records[4][0])
}

func TestAllProductsStockCSVSkipsEmptyStockWithoutValue(t *testing.T) {
	rows := []SnapshotRow{{ProductID: 2, ProductName: "Oil", Price: 120, UnitType: "ltr"}}
	var buf bytes.Buffer
	require.NoError(t, WriteAllProductsStockCSV(&buf, rows, ist))

	records := readCSV(t, &buf)
	require.Len(t, records, 3)
}
