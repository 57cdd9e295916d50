package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/medalkraft/backend-medal/internal/store"
)

// Enqueuer publishes notification tasks onto the asynq queue. It implements
// events.Notifier so it can hang off the event bus directly.
type Enqueuer struct {
	Client      *asynq.Client
	MaxRetry    int
	RetainDone  time.Duration
	TopicFilter map[string]bool
	Logger      *zerolog.Logger
}

// Notify enqueues an email task for the event. The event ID doubles as the
// task ID so redelivered events do not fan out twice.
func (e Enqueuer) Notify(ctx context.Context, event store.DomainEvent) error {
	if e.Client == nil {
		return nil
	}
	if e.TopicFilter != nil {
		if enabled, ok := e.TopicFilter[event.Topic]; ok && !enabled {
			return nil
		}
	}
	task, err := NewEmailTask(event)
	if err != nil {
		return err
	}
	maxRetry := e.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 5
	}
	retain := e.RetainDone
	if retain <= 0 {
		retain = 24 * time.Hour
	}
	opts := []asynq.Option{
		asynq.Queue(QueueName),
		asynq.TaskID(event.ID.String()),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(retain),
	}
	info, err := e.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("notify: enqueue %s: %w", event.Topic, err)
	}
	if e.Logger != nil {
		e.Logger.Debug().
			Str("task_id", info.ID).
			Str("topic", event.Topic).
			Msg("notification task enqueued")
	}
	return nil
}
