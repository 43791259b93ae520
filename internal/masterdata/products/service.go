package products

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirana-store/kirana/internal/shared"
)

// AuditPort records catalog changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator is told when catalog changes make cached reports stale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	cache CacheInvalidator
}

func NewService(repo Repository, audit AuditPort, cache CacheInvalidator) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrProductNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates and stores a product; its initial stock equals its stock.
func (s *Service) Create(ctx context.Context, actorID int64, req CreateRequest) (Product, error) {
	product := Product{
		Name:          strings.TrimSpace(req.Name),
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		UnitType:      req.UnitType,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		cat := strings.TrimSpace(*req.Category)
		product.Category = &cat
	}
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	product.UnitType, _ = normalizeUnit(product.UnitType)
	product.InitialStock = product.Stock

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.changed(ctx, actorID, "product.create", created.ID, map[string]any{"name": created.Name, "stock": created.Stock})
	return created, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, actorID, id int64, req UpdateRequest) (Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if req.UnitType != nil {
		product.UnitType = *req.UnitType
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	product.UnitType, _ = normalizeUnit(product.UnitType)

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.changed(ctx, actorID, "product.update", updated.ID, map[string]any{"name": updated.Name, "stock": updated.Stock})
	return updated, nil
}

// Delete removes the product together with its sales and purchases.
func (s *Service) Delete(ctx context.Context, actorID, id int64) (DeleteResult, error) {
	if id <= 0 {
		return DeleteResult{}, ErrProductNotFound
	}
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	s.changed(ctx, actorID, "product.delete", id, map[string]any{
		"name":              res.Product.Name,
		"sales_deleted":     res.SalesDeleted,
		"purchases_deleted": res.PurchasesDeleted,
	})
	return res, nil
}

// Message renders the confirmation shown after a delete.
func (r DeleteResult) Message() string {
	return fmt.Sprintf("Product '%s' deleted successfully. Removed %d sales and %d purchases.",
		r.Product.Name, r.SalesDeleted, r.PurchasesDeleted)
}

func (s *Service) changed(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "product",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     meta,
		})
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}
