package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness probes with the database state.
type HealthHandler struct {
	DB     Pinger
	Loc    *time.Location
	Logger *slog.Logger
	now    func() time.Time
}

func (h *HealthHandler) timestamp() string {
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	loc := h.Loc
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc).Format(time.RFC3339Nano)
}

// Root greets API clients.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message":   "Kirana Store API is running",
		"status":    "active",
		"timestamp": h.timestamp(),
	})
}

// Health pings the database. An unreachable database is still reported with
// 200 so the body carries the error.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			if h.Logger != nil {
				h.Logger.Warn("health check failed", slog.Any("error", err))
			}
			httpx.JSON(w, http.StatusOK, map[string]string{
				"status":   "unhealthy",
				"database": "disconnected",
				"error":    err.Error(),
			})
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.timestamp(),
	})
}
