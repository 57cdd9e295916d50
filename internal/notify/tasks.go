package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/medalkraft/backend-medal/internal/store"
)

// TypeEmailEvent is the asynq task type for transactional event emails.
const TypeEmailEvent = "notify:email"

// QueueName is the asynq queue notification tasks are routed to.
const QueueName = "notify"

// emailTaskPayload is the wire form of a domain event carried by a task.
type emailTaskPayload struct {
	EventID     string          `json:"eventId"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// NewEmailTask wraps a domain event into an asynq task.
func NewEmailTask(event store.DomainEvent) (*asynq.Task, error) {
	body, err := json.Marshal(emailTaskPayload{
		EventID:     event.ID.String(),
		Topic:       event.Topic,
		AggregateID: event.AggregateID.String(),
		Payload:     event.Payload,
		OccurredAt:  event.OccurredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("notify: encode task: %w", err)
	}
	return asynq.NewTask(TypeEmailEvent, body), nil
}
