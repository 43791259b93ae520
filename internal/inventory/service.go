package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kirana-store/kirana/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort claims and releases request keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// MovementObserver receives committed stock movements.
type MovementObserver interface {
	ObserveStockMovement(kind string, quantity float64)
}

// CacheInvalidator is told when stock changes make cached reports stale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service coordinates sales, purchases and WhatsApp orders.
type Service struct {
	repo          RepositoryPort
	audit         AuditPort
	idempotency   IdempotencyPort
	notifier      OrderNotifier
	metrics       MovementObserver
	cache         CacheInvalidator
	logger        *slog.Logger
	loc           *time.Location
	orderUsername string
	now           func() time.Time
}

// ServiceConfig groups optional settings and collaborators.
type ServiceConfig struct {
	Location      *time.Location
	OrderUsername string
	Metrics       MovementObserver
	Cache         CacheInvalidator
	Logger        *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig, notifier OrderNotifier) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	orderUser := cfg.OrderUsername
	if orderUser == "" {
		orderUser = "customer"
	}
	return &Service{
		repo:          repo,
		audit:         audit,
		idempotency:   idem,
		notifier:      notifier,
		metrics:       cfg.Metrics,
		cache:         cfg.Cache,
		logger:        cfg.Logger,
		loc:           loc,
		orderUsername: orderUser,
		now:           time.Now,
	}
}

// RecordSale books a sale at the product's selling price and takes the
// quantity out of stock.
func (s *Service) RecordSale(ctx context.Context, input SaleInput) (Sale, error) {
	if input.ProductID <= 0 {
		return Sale{}, ErrProductNotFound
	}
	if input.Quantity <= 0 {
		return Sale{}, ErrInvalidQuantity
	}
	release, err := s.claim(ctx, input.IdempotencyKey, "sales")
	if err != nil {
		return Sale{}, err
	}
	var sale Sale
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if item.Stock < input.Quantity {
			return ErrInsufficientStock
		}
		sale = Sale{
			ProductID:   item.ID,
			Quantity:    input.Quantity,
			TotalAmount: item.SellingPrice * input.Quantity,
			SaleDate:    s.now().In(s.loc),
			CreatedBy:   input.ActorID,
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		return tx.UpdateStock(ctx, item.ID, item.Stock-input.Quantity)
	})
	if err != nil {
		release()
		return Sale{}, err
	}
	s.committed(ctx, input.ActorID, KindSale, "sale.create", sale.ID, input.Quantity, map[string]any{
		"product_id":   sale.ProductID,
		"quantity":     sale.Quantity,
		"total_amount": sale.TotalAmount,
	})
	return sale, nil
}

// RecordPurchase books a purchase at unit cost and adds the quantity to stock.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (Purchase, error) {
	if input.ProductID <= 0 {
		return Purchase{}, ErrProductNotFound
	}
	if input.Quantity <= 0 {
		return Purchase{}, ErrInvalidQuantity
	}
	if input.UnitCost <= 0 {
		return Purchase{}, ErrInvalidUnitCost
	}
	release, err := s.claim(ctx, input.IdempotencyKey, "purchases")
	if err != nil {
		return Purchase{}, err
	}
	var purchase Purchase
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		purchase = Purchase{
			ProductID:    item.ID,
			Quantity:     input.Quantity,
			TotalCost:    input.UnitCost * input.Quantity,
			PurchaseDate: s.now().In(s.loc),
			CreatedBy:    input.ActorID,
		}
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = id
		return tx.UpdateStock(ctx, item.ID, item.Stock+input.Quantity)
	})
	if err != nil {
		release()
		return Purchase{}, err
	}
	s.committed(ctx, input.ActorID, KindPurchase, "purchase.create", purchase.ID, input.Quantity, map[string]any{
		"product_id": purchase.ProductID,
		"quantity":   purchase.Quantity,
		"total_cost": purchase.TotalCost,
	})
	return purchase, nil
}

// DeleteSale removes a sale and puts its quantity back into stock.
func (s *Service) DeleteSale(ctx context.Context, actorID, id int64) (DeleteResult, error) {
	if id <= 0 {
		return DeleteResult{}, ErrSaleNotFound
	}
	var res DeleteResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		item, err := tx.GetProductForUpdate(ctx, sale.ProductID)
		if err != nil {
			return err
		}
		if err := tx.UpdateStock(ctx, item.ID, item.Stock+sale.Quantity); err != nil {
			return err
		}
		res = DeleteResult{ID: id, ProductName: item.Name, Quantity: sale.Quantity}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}
	s.committed(ctx, actorID, KindSale+"_reversal", "sale.delete", id, res.Quantity, map[string]any{
		"product":  res.ProductName,
		"restored": res.Quantity,
	})
	return res, nil
}

// DeletePurchase removes a purchase and takes its quantity back out of stock.
// It is refused when the current stock is below the purchased quantity.
func (s *Service) DeletePurchase(ctx context.Context, actorID, id int64) (DeleteResult, error) {
	if id <= 0 {
		return DeleteResult{}, ErrPurchaseNotFound
	}
	var res DeleteResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchaseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		item, err := tx.GetProductForUpdate(ctx, purchase.ProductID)
		if err != nil {
			return err
		}
		if item.Stock < purchase.Quantity {
			return stockGuardError(item.Stock, purchase.Quantity)
		}
		if err := tx.UpdateStock(ctx, item.ID, item.Stock-purchase.Quantity); err != nil {
			return err
		}
		res = DeleteResult{ID: id, ProductName: item.Name, Quantity: purchase.Quantity}
		return tx.DeletePurchase(ctx, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}
	s.committed(ctx, actorID, KindPurchase+"_reversal", "purchase.delete", id, res.Quantity, map[string]any{
		"product": res.ProductName,
		"removed": res.Quantity,
	})
	return res, nil
}

// PlaceOrder books every line of a WhatsApp order as a sale in a single
// transaction. Any unknown product or short line rejects the whole order.
func (s *Service) PlaceOrder(ctx context.Context, input OrderInput) (OrderResult, error) {
	if len(input.Items) == 0 {
		return OrderResult{}, &OrderRejectedError{Message: "Order has no items."}
	}
	var (
		total    float64
		names    []string
		sales    []Sale
		placedAt = s.now().In(s.loc)
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		actorID, err := tx.LookupUserID(ctx, s.orderUsername)
		if err != nil {
			return err
		}
		for _, line := range input.Items {
			if line.Quantity <= 0 {
				return ErrInvalidQuantity
			}
			item, err := tx.FindProductByNameForUpdate(ctx, line.ProductName)
			if errors.Is(err, ErrProductNotFound) {
				return productMissing(line.ProductName)
			}
			if err != nil {
				return err
			}
			if item.Stock < line.Quantity {
				return stockShort(line.ProductName)
			}
			sale := Sale{
				ProductID:   item.ID,
				Quantity:    line.Quantity,
				TotalAmount: item.SellingPrice * line.Quantity,
				SaleDate:    placedAt,
				CreatedBy:   actorID,
			}
			id, err := tx.InsertSale(ctx, sale)
			if err != nil {
				return err
			}
			sale.ID = id
			if err := tx.UpdateStock(ctx, item.ID, item.Stock-line.Quantity); err != nil {
				return err
			}
			total += sale.TotalAmount
			names = append(names, line.ProductName)
			sales = append(sales, sale)
		}
		return nil
	})
	if err != nil {
		return OrderResult{}, err
	}

	ref := uuid.NewString()
	bill := decimal.NewFromFloat(total).StringFixed(2)
	if s.logger != nil {
		s.logger.Info("online order received",
			slog.String("reference", ref),
			slog.String("customer", input.CustomerName),
			slog.String("phone", input.PhoneNumber),
			slog.String("total_bill", bill))
	}
	for _, sale := range sales {
		s.committed(ctx, sale.CreatedBy, KindOrder, "sale.whatsapp_order", sale.ID, sale.Quantity, map[string]any{
			"reference":  ref,
			"product_id": sale.ProductID,
			"quantity":   sale.Quantity,
		})
	}
	if s.notifier != nil {
		evt := OrderPlacedEvent{
			Reference:    ref,
			CustomerName: input.CustomerName,
			PhoneNumber:  input.PhoneNumber,
			Items:        input.Items,
			TotalBill:    total,
			PlacedAt:     placedAt,
		}
		if err := s.notifier.NotifyOrderPlaced(ctx, evt); err != nil && s.logger != nil {
			s.logger.Warn("order notification not queued", slog.String("reference", ref), slog.Any("error", err))
		}
	}
	return OrderResult{
		Status: "success",
		Message: fmt.Sprintf("Thank you, %s! Your order for %s has been placed. Your total bill is Rs. %s. "+
			"We will notify you once the payment is confirmed and the delivery is on its way.",
			input.CustomerName, strings.Join(names, ", "), bill),
		TotalBill: total,
		Reference: ref,
	}, nil
}

// claim registers an idempotency key and returns a func that releases it.
func (s *Service) claim(ctx context.Context, key, module string) (func(), error) {
	if key == "" || s.idempotency == nil {
		return func() {}, nil
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, module); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("inventory: claim idempotency key: %w", err)
	}
	return func() { _ = s.idempotency.Delete(ctx, key, module) }, nil
}

func (s *Service) committed(ctx context.Context, actorID int64, kind, action string, id int64, qty float64, meta map[string]any) {
	entity, _, _ := strings.Cut(action, ".")
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   entity,
			EntityID: strconv.FormatInt(id, 10),
			Meta:     meta,
		})
	}
	if s.metrics != nil {
		s.metrics.ObserveStockMovement(kind, qty)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
			s.logger.Warn("report cache invalidation failed", slog.Any("error", err))
		}
	}
}
