package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/medalkraft/backend-medal/internal/common"
	"github.com/medalkraft/backend-medal/internal/events"
	"github.com/medalkraft/backend-medal/internal/store"
)

func TestEmailWorkerSendsForOrderPaid(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	worker := EmailWorker{Mail: outbox}

	event := store.DomainEvent{
		ID:          uuid.New(),
		Topic:       events.TopicOrderPaid,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{"email":"minji@example.com","orderId":"ord-1","grandTotal":615000}`),
		OccurredAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	task, err := NewEmailTask(event)
	require.NoError(t, err)

	require.NoError(t, worker.HandleEmailTask(context.Background(), task))
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "minji@example.com", outbox.Outbox[0].To)
	require.Equal(t, "Payment confirmed", outbox.Outbox[0].Subject)
	require.Contains(t, outbox.Outbox[0].HTML, "ord-1")
	require.Contains(t, outbox.Outbox[0].HTML, "615000 KRW")
}

func TestEmailWorkerSkipsWithoutRecipient(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	worker := EmailWorker{Mail: outbox}

	event := store.DomainEvent{
		ID:          uuid.New(),
		Topic:       events.TopicOrderCreated,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{"orderId":"ord-2"}`),
		OccurredAt:  time.Now(),
	}
	task, err := NewEmailTask(event)
	require.NoError(t, err)

	require.NoError(t, worker.HandleEmailTask(context.Background(), task))
	require.Empty(t, outbox.Outbox)
}

func TestEmailWorkerRejectsMalformedTask(t *testing.T) {
	worker := EmailWorker{Mail: &common.InMemoryEmail{}}
	task := asynq.NewTask(TypeEmailEvent, []byte("not json"))
	require.Error(t, worker.HandleEmailTask(context.Background(), task))
}

func TestSubjectForCoversAllTopics(t *testing.T) {
	for _, topic := range events.DefaultTopics() {
		subject := subjectFor(topic)
		require.NotEmpty(t, subject)
		require.NotContains(t, subject, "Notification:")
	}
	require.Contains(t, subjectFor("shipping.delayed"), "shipping.delayed")
}

func TestEnqueuerHonoursTopicFilter(t *testing.T) {
	enq := Enqueuer{
		Client:      nil,
		TopicFilter: map[string]bool{events.TopicQuoteRequested: false},
	}
	event := store.DomainEvent{ID: uuid.New(), Topic: events.TopicQuoteRequested}
	require.NoError(t, enq.Notify(context.Background(), event))
}
