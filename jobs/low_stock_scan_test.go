package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/kirana-store/kirana/internal/jobs"
	"github.com/kirana-store/kirana/internal/reports"
)

type stubLowStock struct {
	items []reports.LowStockItem
	err   error
}

func (s stubLowStock) LowStock(context.Context) ([]reports.LowStockItem, error) {
	return s.items, s.err
}

func (s stubLowStock) LowStockThreshold() float64 { return 10 }

func TestLowStockScanSetsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	job := NewLowStockScanJob(stubLowStock{items: []reports.LowStockItem{
		{ProductID: 1, Name: "Oil", Stock: 5, UnitType: "ltr"},
		{ProductID: 2, Name: "Salt", Stock: 0, UnitType: "kgs"},
	}}, nil, metrics)

	task, err := NewLowStockScanTask("cron")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "kirana_low_stock_products" {
			found = true
			require.InDelta(t, 2, mf.GetMetric()[0].GetGauge().GetValue(), 1e-9)
		}
	}
	require.True(t, found)
}

func TestLowStockScanPropagatesErrors(t *testing.T) {
	job := NewLowStockScanJob(stubLowStock{err: errors.New("db down")}, nil, nil)

	task, err := NewLowStockScanTask("manual")
	require.NoError(t, err)
	require.EqualError(t, job.Handle(context.Background(), task), "db down")
}

type stubPruner struct{ olderThan time.Duration }

func (s *stubPruner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	s.olderThan = olderThan
	return 3, nil
}

func TestIdempotencyCleanupDefaultsRetention(t *testing.T) {
	pruner := &stubPruner{}
	job := NewIdempotencyCleanupJob(pruner, 0, nil, nil)

	require.NoError(t, job.Handle(context.Background(), NewIdempotencyCleanupTask()))
	require.Equal(t, 7*24*time.Hour, pruner.olderThan)
}
