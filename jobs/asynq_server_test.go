package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kirana-store/kirana/internal/inventory"
)

func TestJobsHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"scheduled":0,"retry":0}`, rec.Body.String())
}

func TestUnconfiguredClientRefusesNotify(t *testing.T) {
	var c *Client
	require.Error(t, c.NotifyOrderPlaced(context.Background(), inventory.OrderPlacedEvent{}))
}

func TestWorkerRequiresConfiguration(t *testing.T) {
	var w *Worker
	require.Error(t, w.Run(context.Background()))
}
