package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirana-store/kirana/internal/auth"
	"github.com/kirana-store/kirana/internal/inventory"
	"github.com/kirana-store/kirana/internal/masterdata/categories"
	"github.com/kirana-store/kirana/internal/masterdata/products"
	"github.com/kirana-store/kirana/internal/observability"
	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/reports"
	"github.com/kirana-store/kirana/internal/seed"
	"github.com/kirana-store/kirana/internal/users"
	"github.com/kirana-store/kirana/jobs"
)

// SeedRunner loads demo data.
type SeedRunner interface {
	Run(ctx context.Context) (seed.Result, error)
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Health            *HealthHandler
	Authenticate      func(http.Handler) http.Handler
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	ProductsHandler   *products.Handler
	CategoriesHandler *categories.Handler
	InventoryHandler  *inventory.Handler
	ReportsHandler    *reports.Handler
	JobHandler        *jobs.Handler
	Seeder            SeedRunner
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the store defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	health := params.Health
	if health == nil {
		health = &HealthHandler{Logger: params.Logger}
	}
	r.Get("/", health.Root)
	r.Get("/health", health.Health)
	r.Get("/healthz", health.Health)

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", func(r chi.Router) {
		r.Use(params.Authenticate)
		params.UsersHandler.MountRoutes(r)
	})
	r.Route("/products", func(r chi.Router) {
		params.ProductsHandler.MountRoutes(r)
		params.ReportsHandler.MountSnapshot(r)
	})
	r.Route("/categories", params.CategoriesHandler.MountRoutes)
	r.Route("/sales", params.InventoryHandler.MountSales)
	r.Route("/purchases", params.InventoryHandler.MountPurchases)
	r.Post("/whatsapp-order", params.InventoryHandler.WhatsAppOrder)
	r.Post("/sms", params.ProductsHandler.SMS)
	params.ReportsHandler.MountRoutes(r)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Seeder != nil && params.Config != nil && params.Config.SeedEndpointEnabled {
		r.Post("/seed", seedHandler(params.Seeder, params.Logger))
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func seedHandler(seeder SeedRunner, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := seeder.Run(r.Context())
		if err != nil {
			httpx.RespondErrorLogged(w, logger, "seed", err)
			return
		}
		httpx.JSON(w, http.StatusOK, res)
	}
}
