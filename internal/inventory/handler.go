package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/shared"
)

// Handler wires HTTP endpoints for stock movements.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      func(http.Handler) http.Handler
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auth: authn, rbac: rbac, validator: validator.New()}
}

// MountSales registers /sales routes.
func (h *Handler) MountSales(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth, h.rbac.Require(rbac.Sales))
		r.Post("/", h.handleRecordSale)
		r.Delete("/{id}", h.handleDeleteSale)
	})
}

// MountPurchases registers /purchases routes.
func (h *Handler) MountPurchases(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth, h.rbac.Require(rbac.Purchase))
		r.Post("/", h.handleRecordPurchase)
		r.Delete("/{id}", h.handleDeletePurchase)
	})
}

type saleRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
}

type purchaseRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gt=0"`
}

func (h *Handler) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	sale, err := h.service.RecordSale(r.Context(), SaleInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		ActorID:        actor.UserID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "record sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleRecordPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	purchase, err := h.service.RecordPurchase(r.Context(), PurchaseInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		UnitCost:       req.UnitCost,
		ActorID:        actor.UserID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "record purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	res, err := h.service.DeleteSale(r.Context(), actor.UserID, id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Sale record deleted successfully. Restored %s units to %s stock.", formatQty(res.Quantity), res.ProductName),
		"sale_id": id,
	})
}

func (h *Handler) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	res, err := h.service.DeletePurchase(r.Context(), actor.UserID, id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"message":     fmt.Sprintf("Purchase record deleted successfully. Removed %s units from %s stock.", formatQty(res.Quantity), res.ProductName),
		"purchase_id": id,
	})
}

// WhatsAppOrder accepts an order from the WhatsApp webhook. Business
// rejections come back as 200 with status=error.
func (h *Handler) WhatsAppOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderInput
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		var rejected *OrderRejectedError
		if errors.As(err, &rejected) {
			httpx.JSON(w, http.StatusOK, map[string]string{"status": "error", "message": rejected.Message})
			return
		}
		httpx.RespondErrorLogged(w, h.logger, "whatsapp order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
