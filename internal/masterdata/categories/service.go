package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Create adds a category unless one with the same name exists, ignoring case.
func (s *Service) Create(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrNameRequired
	}
	if _, found, err := s.repo.FindByName(ctx, name); err != nil {
		return Category{}, fmt.Errorf("categories: lookup: %w", err)
	} else if found {
		return Category{}, ErrCategoryExists
	}
	return s.repo.Create(ctx, name)
}

// Delete removes a category no product refers to.
func (s *Service) Delete(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, ErrCategoryNotFound
	}
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	inUse, err := s.repo.CountProducts(ctx, category.Name)
	if err != nil {
		return Category{}, fmt.Errorf("categories: count products: %w", err)
	}
	if inUse > 0 {
		return Category{}, httpx.Errorf(httpx.ErrValidation, fmt.Sprintf(
			"Cannot delete category '%s' because it is used by %d product(s)", category.Name, inUse))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return Category{}, err
	}
	return category, nil
}
