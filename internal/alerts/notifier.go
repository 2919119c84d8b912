package alerts

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/toko-inventaris/internal/events"
)

// Enqueuer is implemented by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier enqueues an alert task for every low stock or depleted event.
type Notifier struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
}

// Notify implements events.Notifier.
func (n Notifier) Notify(ctx context.Context, ev events.Event) error {
	if n.Client == nil || !slices.Contains(events.AlertTopics(), ev.Topic) {
		return nil
	}
	alert, err := FromEvent(ev)
	if err != nil {
		return err
	}
	task, err := NewTask(alert)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(alert.EventID)}
	if n.Queue != "" {
		opts = append(opts, asynq.Queue(n.Queue))
	}
	if n.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(n.MaxRetry))
	}
	if _, err := n.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("alerts: enqueue: %w", err)
	}
	return nil
}
