package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/shared"
	"github.com/kirana-store/kirana/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(h.service.RequireToken)
		r.Get("/me", h.handleMe)
		r.Post("/logout", h.handleLogout)
		r.Get("/permissions", h.handlePermissions)
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form credentials
	if err := httpx.Bind(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form credentials
	if err := httpx.Bind(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), form.Username, form.Password)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "register", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users.ToResponse(user))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	user, err := h.service.Me(r.Context(), principal.Username)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "me", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users.ToResponse(user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	view, err := h.service.Permissions(r.Context(), principal.Username)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
