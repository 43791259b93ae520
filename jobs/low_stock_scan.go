package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/kirana-store/kirana/internal/jobs"
	"github.com/kirana-store/kirana/internal/reports"
)

// LowStockSource lists products at or below the threshold.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]reports.LowStockItem, error)
	LowStockThreshold() float64
}

// LowStockScanJob logs products that need restocking.
type LowStockScanJob struct {
	Source  LowStockSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockScanJob initialises the low stock scan handler.
func NewLowStockScanJob(source LowStockSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Source: source, Logger: logger, Metrics: metrics}
}

// Handle runs one scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	start := time.Now()
	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(
		slog.String("trigger", payload.Trigger),
		slog.Float64("threshold", j.Source.LowStockThreshold()),
	)
	items, err := j.Source.LowStock(ctx)
	if err != nil {
		logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	for _, item := range items {
		logger.Warn("product low on stock",
			slog.Int64("product_id", item.ProductID),
			slog.String("name", item.Name),
			slog.Float64("stock", item.Stock),
			slog.String("unit_type", item.UnitType),
		)
	}
	j.Metrics.SetLowStock(len(items))
	logger.Info("completed low stock scan",
		slog.Int("products", len(items)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
