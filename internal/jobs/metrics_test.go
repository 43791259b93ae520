package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("low_stock_scan").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("low_stock_scan").End(boom), boom)

	require.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("low_stock_scan", "success")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("low_stock_scan", "failure")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(m.failures.WithLabelValues("low_stock_scan")), 1e-9)
}

func TestNotificationAndLowStock(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddNotification("whatsapp", true)
	m.AddNotification("whatsapp", true)
	m.SetLowStock(3)

	require.InDelta(t, 2, testutil.ToFloat64(m.notifications.WithLabelValues("whatsapp", "true")), 1e-9)
	require.InDelta(t, 3, testutil.ToFloat64(m.lowStock), 1e-9)
}

func TestNilTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("x").End(boom), boom)
}
