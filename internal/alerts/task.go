// Package alerts turns low stock events into asynq tasks and processes them in the worker.
package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/toko-inventaris/internal/events"
)

// TypeLowStock is the asynq task type for stock alerts.
const TypeLowStock = "inventory:low_stock"

// Alert is the task payload.
type Alert struct {
	EventID    string    `json:"eventId"`
	Topic      string    `json:"topic"`
	Code       string    `json:"code"`
	Stock      int       `json:"stock"`
	MinStock   int       `json:"minStock"`
	OccurredAt time.Time `json:"occurredAt"`
}

type movement struct {
	Stock    int `json:"stock"`
	MinStock int `json:"minStock"`
}

// FromEvent builds an Alert from a stock event.
func FromEvent(ev events.Event) (Alert, error) {
	var m movement
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &m); err != nil {
			return Alert{}, fmt.Errorf("alerts: decode event payload: %w", err)
		}
	}
	return Alert{
		EventID:    ev.ID.String(),
		Topic:      ev.Topic,
		Code:       ev.AggregateID,
		Stock:      m.Stock,
		MinStock:   m.MinStock,
		OccurredAt: ev.OccurredAt,
	}, nil
}

// NewTask encodes an Alert as an asynq task.
func NewTask(a Alert) (*asynq.Task, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLowStock, data), nil
}

// Decode extracts the Alert carried by t.
func Decode(t *asynq.Task) (Alert, error) {
	var a Alert
	if err := json.Unmarshal(t.Payload(), &a); err != nil {
		return Alert{}, fmt.Errorf("alerts: decode task: %w", err)
	}
	return a, nil
}
