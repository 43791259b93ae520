// Package stock derives point-in-time stock quantities and valuations from a
// product's purchase and sale history.
//
// Every function here is pure: callers fetch the history, the package only
// does arithmetic over it, so it is safe to call from concurrent handlers.
package stock

import "time"

// Movement is a single purchase or sale quantity at an instant.
type Movement struct {
	Quantity float64
	At       time.Time
}

// History is everything needed to reconstruct a product's stock at any instant.
type History struct {
	CurrentStock  float64
	PurchasePrice float64
	Purchases     []Movement
	Sales         []Movement
}

// Position is the stock of a product at an instant together with the totals
// used to derive it.
type Position struct {
	Stock         float64
	Value         float64
	Opening       float64
	PurchasesEver float64
	SalesEver     float64
}

// Total sums the quantity of every movement.
func Total(movements []Movement) float64 {
	var sum float64
	for _, m := range movements {
		sum += m.Quantity
	}
	return sum
}

// TotalBefore sums the quantity of movements strictly before t.
func TotalBefore(movements []Movement, t time.Time) float64 {
	var sum float64
	for _, m := range movements {
		if m.At.Before(t) {
			sum += m.Quantity
		}
	}
	return sum
}

// OpeningStock reconstructs the stock level before the first recorded
// movement by undoing all history from the current stock.
func OpeningStock(h History) float64 {
	return h.CurrentStock + Total(h.Sales) - Total(h.Purchases)
}

// At returns the stock position at t. A nil t means "now" and returns the
// current stock directly without replaying history. Negative results are
// reported as-is.
func At(h History, t *time.Time) Position {
	pos := Position{
		PurchasesEver: Total(h.Purchases),
		SalesEver:     Total(h.Sales),
	}
	pos.Opening = h.CurrentStock + pos.SalesEver - pos.PurchasesEver
	if t == nil {
		pos.Stock = h.CurrentStock
	} else {
		pos.Stock = pos.Opening + TotalBefore(h.Purchases, *t) - TotalBefore(h.Sales, *t)
	}
	pos.Value = h.PurchasePrice * pos.Stock
	return pos
}

// ValueAt is shorthand for At(h, t).Value.
func ValueAt(h History, t *time.Time) float64 {
	return At(h, t).Value
}
