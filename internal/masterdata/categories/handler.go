package categories

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	auth      func(http.Handler) http.Handler
	validator *validator.Validate
}

// NewHandler builds the categories handler. authn must place the caller's
// principal in the request context.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auth: authn, rbac: rbac, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.rbac.Require(rbac.CreateCategory)).Post("/", h.Create)
		r.With(h.rbac.Require(rbac.DeleteCategory)).Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list categories", err)
		return
	}
	if list == nil {
		list = []Category{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

type createRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create category", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"message":     fmt.Sprintf("Category '%s' deleted successfully.", deleted.Name),
		"category_id": deleted.ID,
	})
}
