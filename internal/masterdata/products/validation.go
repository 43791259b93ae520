package products

import (
	"strings"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

func normalizeUnit(unit string) (string, error) {
	switch u := strings.ToLower(strings.TrimSpace(unit)); u {
	case UnitKgs, UnitLtr, UnitPcs:
		return u, nil
	default:
		return "", httpx.Errorf(httpx.ErrValidation, "Unit type must be one of kgs, ltr, pcs")
	}
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return httpx.Errorf(httpx.ErrValidation, "Product name is required")
	}
	if p.PurchasePrice <= 0 {
		return httpx.Errorf(httpx.ErrValidation, "Purchase price must be a positive number")
	}
	if p.SellingPrice <= 0 {
		return httpx.Errorf(httpx.ErrValidation, "Selling price must be a positive number")
	}
	if p.Stock < 0 {
		return httpx.Errorf(httpx.ErrValidation, "Stock cannot be negative")
	}
	_, err := normalizeUnit(p.UnitType)
	return err
}
