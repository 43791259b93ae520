package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      func(http.Handler) http.Handler
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds the products handler. authn must place the caller's
// principal in the request context.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auth: authn, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers catalog routes. Ids are numeric so sibling static
// routes such as /stock-snapshot can share the prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id:[0-9]+}", h.Show)
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.rbac.Require(rbac.CreateProduct)).Post("/", h.Create)
		r.With(h.rbac.Require(rbac.CreateProduct)).Put("/{id:[0-9]+}", h.Update)
		r.With(h.rbac.Require(rbac.DeleteProduct)).Delete("/{id:[0-9]+}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(), ListFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list products", err)
		return
	}
	items := make([]StorefrontItem, 0, len(products))
	for _, p := range products {
		items = append(items, p.Storefront())
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	created, err := h.service.Create(r.Context(), actor.UserID, req)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), actor.UserID, id, req)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	res, err := h.service.Delete(r.Context(), actor.UserID, id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"message":           res.Message(),
		"product_id":        id,
		"sales_deleted":     res.SalesDeleted,
		"purchases_deleted": res.PurchasesDeleted,
	})
}

// SMS answers an inbound text message with a TwiML price reply.
func (h *Handler) SMS(w http.ResponseWriter, r *http.Request) {
	reply := smsFallback
	if err := r.ParseForm(); err == nil {
		catalog, err := h.service.List(r.Context(), ListFilter{})
		if err != nil {
			if h.logger != nil {
				h.logger.Error("sms catalog lookup", slog.Any("error", err))
			}
			reply = "Sorry, something went wrong. Please try again later."
		} else {
			reply = PriceReply(catalog, r.PostFormValue("Body"))
		}
		if h.logger != nil {
			h.logger.Info("sms received", slog.String("from", r.PostFormValue("From")))
		}
	}
	body, err := TwiML(reply)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "render twiml", err)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
