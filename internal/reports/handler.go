package reports

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
)

// Handler exposes reports over HTTP as JSON and CSV downloads.
type Handler struct {
	logger  *slog.Logger
	service *Service
	auth    func(http.Handler) http.Handler
	rbac    rbac.Middleware
	loc     *time.Location
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auth: authn, rbac: rbac, loc: service.loc}
}

// MountSnapshot registers the public stock snapshot under the products router.
func (h *Handler) MountSnapshot(r chi.Router) {
	r.Get("/stock-snapshot", h.handleSnapshot)
}

// MountRoutes registers the guarded report routes at the root router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.rbac.Require(rbac.OpeningStock)).Get("/opening-stock-register", h.handleOpeningRegister)
		r.With(h.rbac.Require(rbac.ProfitLoss)).Get("/profit-loss-data", h.handleProfitLoss)

		r.Route("/ledger", func(r chi.Router) {
			r.With(h.rbac.Require(rbac.SalesLedger)).Get("/sales", h.handleSalesLedger)
			r.With(h.rbac.Require(rbac.PurchaseLedger)).Get("/purchases", h.handlePurchaseLedger)
			r.Group(func(r chi.Router) {
				r.Use(h.rbac.Require(rbac.StockLedger))
				r.Get("/stock/{id}", h.handleStockLedger)
				r.Get("/products", h.handleLedgerProducts)
				r.Get("/summary", h.handleSummary)
			})
		})

		r.Route("/download", func(r chi.Router) {
			r.With(h.rbac.Require(rbac.SalesLedger)).Get("/sales-ledger", h.downloadSalesLedger)
			r.With(h.rbac.Require(rbac.PurchaseLedger)).Get("/purchase-ledger", h.downloadPurchaseLedger)
			r.With(h.rbac.Require(rbac.StockLedger)).Get("/stock-ledger", h.downloadStockLedger)
			r.With(h.rbac.Require(rbac.StockLedger)).Get("/all-products-stock", h.downloadAllProductsStock)
			r.With(h.rbac.Require(rbac.ProfitLoss)).Get("/profit-loss", h.downloadProfitLoss)
		})
	})
}

func productFilter(r *http.Request) ProductFilter {
	return ProductFilter{
		ProductID: httpx.QueryInt64(r, "product_id"),
		Category:  strings.TrimSpace(r.URL.Query().Get("category")),
	}
}

func (h *Handler) snapshotFilter(r *http.Request) SnapshotFilter {
	q := r.URL.Query()
	dates := h.service.Dates()
	return SnapshotFilter{
		ProductFilter: productFilter(r),
		DateFrom:      dates.Instant("date_from", q.Get("date_from")),
		DateTo:        dates.Instant("date_to", q.Get("date_to")),
	}
}

// entryFilter reads start_date/end_date. Both ends are inclusive; a date-only
// end_date covers that whole day.
func (h *Handler) entryFilter(r *http.Request) EntryFilter {
	q := r.URL.Query()
	dates := h.service.Dates()
	filter := EntryFilter{ProductFilter: productFilter(r)}
	if start := dates.Parse("start_date", q.Get("start_date")); start != nil {
		filter.From = &start.Time
	}
	if end := dates.Parse("end_date", q.Get("end_date")); end != nil {
		to := end.Time
		if end.DateOnly {
			to = nextDay(to)
		} else {
			filter.ToInclusive = true
		}
		filter.To = &to
	}
	return filter
}

func (h *Handler) plFilter(r *http.Request) PLFilter {
	q := r.URL.Query()
	dates := h.service.Dates()
	return PLFilter{
		ProductFilter: productFilter(r),
		Start:         dates.Instant("start_date", q.Get("start_date")),
		End:           dates.Instant("end_date", q.Get("end_date")),
	}
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StockSnapshot(r.Context(), h.snapshotFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "stock snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleOpeningRegister(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.OpeningStockRegister(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "opening stock register", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ProfitLoss(r.Context(), h.plFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "profit and loss", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleSalesLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.SalesLedger(r.Context(), h.entryFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "sales ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) handlePurchaseLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.PurchaseLedger(r.Context(), h.entryFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "purchase ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) handleStockLedger(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ledger, err := h.service.StockLedger(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "stock ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) handleLedgerProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LedgerProducts(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "ledger products", err)
		return
	}
	if products == nil {
		products = []LedgerProduct{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "ledger summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) downloadSalesLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.SalesLedger(r.Context(), h.entryFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "sales ledger csv", err)
		return
	}
	var buf bytes.Buffer
	if err := WriteSalesLedgerCSV(&buf, entries, h.loc); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "sales ledger csv", err)
		return
	}
	h.sendCSV(w, "sales_ledger.csv", buf.Bytes())
}

func (h *Handler) downloadPurchaseLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.PurchaseLedger(r.Context(), h.entryFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "purchase ledger csv", err)
		return
	}
	var buf bytes.Buffer
	if err := WritePurchaseLedgerCSV(&buf, entries, h.loc); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "purchase ledger csv", err)
		return
	}
	h.sendCSV(w, "purchase_ledger.csv", buf.Bytes())
}

func (h *Handler) downloadStockLedger(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StockSnapshot(r.Context(), SnapshotFilter{ProductFilter: productFilter(r)})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "stock ledger csv", err)
		return
	}
	var buf bytes.Buffer
	if err := WriteStockLedgerCSV(&buf, rows); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "stock ledger csv", err)
		return
	}
	h.sendCSV(w, "product_stock_ledger.csv", buf.Bytes())
}

func (h *Handler) downloadAllProductsStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StockSnapshot(r.Context(), h.snapshotFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "all products stock csv", err)
		return
	}
	var buf bytes.Buffer
	if err := WriteAllProductsStockCSV(&buf, rows, h.loc); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "all products stock csv", err)
		return
	}
	h.sendCSV(w, "all_products_stock.csv", buf.Bytes())
}

func (h *Handler) downloadProfitLoss(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ProfitLoss(r.Context(), h.plFilter(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "profit and loss csv", err)
		return
	}
	var buf bytes.Buffer
	if err := WriteProfitLossCSV(&buf, report); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "profit and loss csv", err)
		return
	}
	h.sendCSV(w, "profit_loss_analysis.csv", buf.Bytes())
}

func (h *Handler) sendCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
