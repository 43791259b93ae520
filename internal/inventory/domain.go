package inventory

import (
	"fmt"
	"time"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

// Movement kinds reported to metrics and audit.
const (
	KindSale     = "sale"
	KindPurchase = "purchase"
	KindOrder    = "whatsapp_order"
)

// Sale is a recorded sale of a single product.
type Sale struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Quantity    float64   `json:"quantity"`
	TotalAmount float64   `json:"total_amount"`
	SaleDate    time.Time `json:"sale_date"`
	CreatedBy   int64     `json:"-"`
}

// Purchase is a recorded stock purchase of a single product.
type Purchase struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	Quantity     float64   `json:"quantity"`
	TotalCost    float64   `json:"total_cost"`
	PurchaseDate time.Time `json:"purchase_date"`
	CreatedBy    int64     `json:"-"`
}

// StockItem is the locked view of a product row a movement works on.
type StockItem struct {
	ID           int64
	Name         string
	SellingPrice float64
	Stock        float64
}

// SaleInput captures a sale request.
type SaleInput struct {
	ProductID      int64
	Quantity       float64
	ActorID        int64
	IdempotencyKey string
}

// PurchaseInput captures a purchase request.
type PurchaseInput struct {
	ProductID      int64
	Quantity       float64
	UnitCost       float64
	ActorID        int64
	IdempotencyKey string
}

// OrderItem is one line of a WhatsApp order, matched to a product by name.
type OrderItem struct {
	ProductName string  `json:"product_name" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
}

// OrderInput is an order received over WhatsApp.
type OrderInput struct {
	CustomerName string      `json:"customer_name" validate:"required"`
	PhoneNumber  string      `json:"phone_number" validate:"required"`
	Items        []OrderItem `json:"items" validate:"required,min=1,dive"`
}

// OrderResult is returned to the WhatsApp caller.
type OrderResult struct {
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	TotalBill float64 `json:"total_bill"`
	Reference string  `json:"reference,omitempty"`
}

// DeleteResult reports the stock effect of removing a sale or purchase.
type DeleteResult struct {
	ID          int64
	ProductName string
	Quantity    float64
}

var (
	ErrProductNotFound   = httpx.Errorf(httpx.ErrNotFound, "Product not found")
	ErrSaleNotFound      = httpx.Errorf(httpx.ErrNotFound, "Sale record not found")
	ErrPurchaseNotFound  = httpx.Errorf(httpx.ErrNotFound, "Purchase record not found")
	ErrInsufficientStock = httpx.Errorf(httpx.ErrValidation, "Not enough stock available")
	ErrInvalidQuantity   = httpx.Errorf(httpx.ErrValidation, "Quantity must be positive")
	ErrInvalidUnitCost   = httpx.Errorf(httpx.ErrValidation, "Cost per unit must be positive")
	ErrAlreadyProcessed  = httpx.Errorf(httpx.ErrDuplicate, "Request already processed")
)

// OrderRejectedError is a business rejection of a WhatsApp order. It is
// reported to the caller as a status=error body rather than an HTTP error.
type OrderRejectedError struct {
	Message string
}

func (e *OrderRejectedError) Error() string { return e.Message }

func productMissing(name string) error {
	return &OrderRejectedError{Message: fmt.Sprintf("Product '%s' not found.", name)}
}

func stockShort(name string) error {
	return &OrderRejectedError{Message: fmt.Sprintf("Insufficient stock for '%s'.", name)}
}

// stockGuardError refuses a purchase delete that would drive stock negative.
func stockGuardError(stock, qty float64) error {
	return httpx.Errorf(httpx.ErrValidation, fmt.Sprintf(
		"Cannot delete purchase. Current stock (%s) is less than purchase quantity (%s)",
		formatQty(stock), formatQty(qty)))
}

// formatQty prints whole quantities without a fractional part.
func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%g", q)
}
