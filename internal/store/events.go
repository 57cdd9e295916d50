package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InsertDomainEvent persists a business event before it is fanned out.
func (s *Store) InsertDomainEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (DomainEvent, error) {
	ev := DomainEvent{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.Topic, ev.AggregateID, ev.Payload, ev.OccurredAt,
	)
	return ev, err
}

// ListDomainEvents returns events for one aggregate, oldest first.
func (s *Store) ListDomainEvents(ctx context.Context, aggregateID uuid.UUID) ([]DomainEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, topic, aggregate_id, payload, occurred_at
		FROM domain_events WHERE aggregate_id = $1 ORDER BY occurred_at`, aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []DomainEvent
	for rows.Next() {
		var ev DomainEvent
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
