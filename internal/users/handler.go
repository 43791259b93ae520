package users

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.UserManagement))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type flagsPayload struct {
	Sales          *bool `json:"sales"`
	Purchase       *bool `json:"purchase"`
	CreateProduct  *bool `json:"create_product"`
	DeleteProduct  *bool `json:"delete_product"`
	CreateCategory *bool `json:"create_category"`
	DeleteCategory *bool `json:"delete_category"`
	SalesLedger    *bool `json:"sales_ledger"`
	PurchaseLedger *bool `json:"purchase_ledger"`
	StockLedger    *bool `json:"stock_ledger"`
	ProfitLoss     *bool `json:"profit_loss"`
	OpeningStock   *bool `json:"opening_stock"`
	UserManagement *bool `json:"user_management"`
}

func (p flagsPayload) toMap() map[rbac.Capability]*bool {
	return map[rbac.Capability]*bool{
		rbac.Sales:          p.Sales,
		rbac.Purchase:       p.Purchase,
		rbac.CreateProduct:  p.CreateProduct,
		rbac.DeleteProduct:  p.DeleteProduct,
		rbac.CreateCategory: p.CreateCategory,
		rbac.DeleteCategory: p.DeleteCategory,
		rbac.SalesLedger:    p.SalesLedger,
		rbac.PurchaseLedger: p.PurchaseLedger,
		rbac.StockLedger:    p.StockLedger,
		rbac.ProfitLoss:     p.ProfitLoss,
		rbac.OpeningStock:   p.OpeningStock,
		rbac.UserManagement: p.UserManagement,
	}
}

type createRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required"`
	flagsPayload
}

type updateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
	flagsPayload
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list users", err)
		return
	}
	out := make([]Response, 0, len(users))
	for _, u := range users {
		out = append(out, ToResponse(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	granted := make(map[rbac.Capability]bool)
	for c, v := range req.toMap() {
		granted[c] = v != nil && *v
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	user, err := h.service.Create(r.Context(), actor.UserID, CreateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Flags:    granted,
	})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(user))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	user, err := h.service.Update(r.Context(), actor.UserID, id, UpdateInput{
		Email:    req.Email,
		Password: req.Password,
		IsActive: req.IsActive,
		Flags:    req.toMap(),
	})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(user))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	user, err := h.service.Delete(r.Context(), actor, id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("User %s deleted successfully", user.Username),
	})
}
