package products

// CreateRequest is the body of POST /products.
type CreateRequest struct {
	Name          string   `json:"name" validate:"required"`
	PurchasePrice float64  `json:"purchase_price" validate:"gt=0"`
	SellingPrice  float64  `json:"selling_price" validate:"gt=0"`
	UnitType      string   `json:"unit_type" validate:"required"`
	Category      *string  `json:"category"`
	Stock         *float64 `json:"stock" validate:"omitempty,gte=0"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	PurchasePrice *float64 `json:"purchase_price" validate:"omitempty,gt=0"`
	SellingPrice  *float64 `json:"selling_price" validate:"omitempty,gt=0"`
	UnitType      *string  `json:"unit_type"`
	Stock         *float64 `json:"stock" validate:"omitempty,gte=0"`
}
