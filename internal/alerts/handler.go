package alerts

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-inventaris/internal/obs"
)

// Recorder keeps processed alerts for later inspection.
type Recorder interface {
	Record(ctx context.Context, a Alert) error
}

// Handler processes alert tasks.
type Handler struct {
	Recorder Recorder
	Logger   zerolog.Logger
}

// ProcessTask implements asynq.Handler. Malformed payloads are not retried.
func (h Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	alert, err := Decode(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if h.Recorder != nil {
		if err := h.Recorder.Record(ctx, alert); err != nil {
			return fmt.Errorf("alerts: record: %w", err)
		}
	}
	obs.ObserveLowStockAlert(alert.Topic)
	h.Logger.Warn().
		Str("topic", alert.Topic).
		Str("code", alert.Code).
		Int("stock", alert.Stock).
		Int("min_stock", alert.MinStock).
		Str("event_id", alert.EventID).
		Msg("stock_alert")
	return nil
}

// NewServeMux routes alert tasks to h.
func NewServeMux(h Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeLowStock, h)
	return mux
}
