package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return base.Add(d) }

func ptr(t time.Time) *time.Time { return &t }

func TestNoHistoryKeepsCurrentStock(t *testing.T) {
	h := History{CurrentStock: 42, PurchasePrice: 10}

	require.InDelta(t, 42, OpeningStock(h), 1e-9)
	for _, target := range []*time.Time{nil, ptr(at(-time.Hour)), ptr(at(24 * time.Hour))} {
		pos := At(h, target)
		require.InDelta(t, 42, pos.Stock, 1e-9)
		require.InDelta(t, 420, pos.Value, 1e-9)
	}
}

func TestReconstructionAfterAllHistory(t *testing.T) {
	h := History{
		CurrentStock:  50,
		PurchasePrice: 80,
		Purchases:     []Movement{{Quantity: 30, At: at(time.Hour)}},
		Sales:         []Movement{{Quantity: 10, At: at(2 * time.Hour)}},
	}

	pos := At(h, ptr(at(3*time.Hour)))
	require.InDelta(t, 30, pos.PurchasesEver, 1e-9)
	require.InDelta(t, 10, pos.SalesEver, 1e-9)
	require.InDelta(t, 30, pos.Opening, 1e-9)
	require.InDelta(t, 50, pos.Stock, 1e-9)
	require.InDelta(t, 4000, pos.Value, 1e-9)
}

func TestReconstructionBetweenPurchaseAndSale(t *testing.T) {
	h := History{
		CurrentStock:  50,
		PurchasePrice: 80,
		Purchases:     []Movement{{Quantity: 30, At: at(time.Hour)}},
		Sales:         []Movement{{Quantity: 10, At: at(3 * time.Hour)}},
	}

	pos := At(h, ptr(at(2*time.Hour)))
	require.InDelta(t, 60, pos.Stock, 1e-9)
}

func TestBoundaryIsExclusive(t *testing.T) {
	h := History{
		CurrentStock: 5,
		Purchases:    []Movement{{Quantity: 5, At: at(time.Hour)}},
	}

	require.InDelta(t, 0, At(h, ptr(at(time.Hour))).Stock, 1e-9)
	require.InDelta(t, 5, At(h, ptr(at(time.Hour+time.Nanosecond))).Stock, 1e-9)
}

func TestFastPathMatchesExplicitNow(t *testing.T) {
	h := History{
		CurrentStock:  17.5,
		PurchasePrice: 3,
		Purchases: []Movement{
			{Quantity: 10, At: at(-48 * time.Hour)},
			{Quantity: 12.5, At: at(-24 * time.Hour)},
		},
		Sales: []Movement{
			{Quantity: 4, At: at(-30 * time.Hour)},
			{Quantity: 6, At: at(-time.Hour)},
		},
	}

	fast := At(h, nil)
	explicit := At(h, ptr(base.Add(time.Nanosecond)))
	require.InDelta(t, fast.Stock, explicit.Stock, 1e-9)
	require.InDelta(t, fast.Value, explicit.Value, 1e-9)
}

func TestOpeningInvariant(t *testing.T) {
	h := History{
		CurrentStock: 7,
		Purchases:    []Movement{{Quantity: 3}, {Quantity: 9}},
		Sales:        []Movement{{Quantity: 2}},
	}

	opening := OpeningStock(h)
	require.InDelta(t, h.CurrentStock, opening+Total(h.Purchases)-Total(h.Sales), 1e-9)
}

func TestNegativeStockIsNotClamped(t *testing.T) {
	h := History{
		CurrentStock:  0,
		PurchasePrice: 10,
		Purchases:     []Movement{{Quantity: 10, At: at(5 * time.Hour)}},
		Sales:         []Movement{{Quantity: 10, At: at(time.Hour)}},
	}

	pos := At(h, ptr(at(2*time.Hour)))
	require.InDelta(t, -10, pos.Stock, 1e-9)
	require.InDelta(t, -100, pos.Value, 1e-9)
}

func TestAtIsDeterministic(t *testing.T) {
	h := History{
		CurrentStock:  11,
		PurchasePrice: 2.5,
		Purchases:     []Movement{{Quantity: 4, At: at(time.Hour)}},
		Sales:         []Movement{{Quantity: 1, At: at(2 * time.Hour)}},
	}
	target := ptr(at(90 * time.Minute))

	require.Equal(t, At(h, target), At(h, target))
}

func BenchmarkAtYearOfHistory(b *testing.B) {
	h := History{CurrentStock: 500, PurchasePrice: 42}
	for i := 0; i < 365; i++ {
		h.Purchases = append(h.Purchases, Movement{Quantity: 20, At: at(time.Duration(i) * 24 * time.Hour)})
		h.Sales = append(h.Sales, Movement{Quantity: 18, At: at(time.Duration(i)*24*time.Hour + 6*time.Hour)})
	}
	target := ptr(at(180 * 24 * time.Hour))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = At(h, target)
	}
}
