package categories

import (
	"time"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

// Category groups products on the storefront. Products reference it by name.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrCategoryNotFound is returned for unknown category ids.
	ErrCategoryNotFound = httpx.Errorf(httpx.ErrNotFound, "Category not found")
	// ErrCategoryExists is returned when the name is already used, ignoring case.
	ErrCategoryExists = httpx.Errorf(httpx.ErrValidation, "Category with this name already exists")
	// ErrNameRequired is returned for blank names.
	ErrNameRequired = httpx.Errorf(httpx.ErrValidation, "Category name is required")
)
