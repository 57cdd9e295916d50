package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/medalkraft/backend-medal/internal/common"
	"github.com/medalkraft/backend-medal/internal/events"
)

// EmailWorker turns queued domain events into transactional emails.
type EmailWorker struct {
	Mail   common.EmailSender
	From   string
	Logger *zerolog.Logger
}

// HandleEmailTask processes one TypeEmailEvent task.
func (w EmailWorker) HandleEmailTask(_ context.Context, task *asynq.Task) error {
	if w.Mail == nil {
		return nil
	}
	var envelope emailTaskPayload
	if err := json.Unmarshal(task.Payload(), &envelope); err != nil {
		return fmt.Errorf("notify: decode task: %w", err)
	}
	payload := map[string]any{}
	if len(envelope.Payload) > 0 {
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("notify: decode event payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		// Guest checkouts without an email on the payload are skipped.
		return nil
	}
	subject := subjectFor(envelope.Topic)
	body := bodyFor(envelope.Topic, payload, envelope.OccurredAt)
	if err := w.Mail.Send(to, subject, body); err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	if w.Logger != nil {
		w.Logger.Info().
			Str("topic", envelope.Topic).
			Str("aggregate_id", envelope.AggregateID).
			Msg("notification email sent")
	}
	return nil
}

func extractRecipient(payload map[string]any) string {
	for _, key := range []string{"email", "recipient", "userEmail", "customerEmail"} {
		if val, ok := payload[key]; ok {
			if s, ok := val.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicOrderCreated:
		return "Your badge order has been received"
	case events.TopicOrderPaid:
		return "Payment confirmed"
	case events.TopicOrderCanceled:
		return "Your order has been canceled"
	case events.TopicPaymentFailed:
		return "Payment failed"
	case events.TopicPaymentExpired:
		return "Payment window expired"
	case events.TopicQuoteRequested:
		return "Your quotation is ready"
	default:
		return fmt.Sprintf("Notification: %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	summary := fmt.Sprintf("Event %s occurred at %s.", topic, occurred.Format(time.RFC3339))
	if orderID, ok := payload["orderId"].(string); ok && orderID != "" {
		summary += fmt.Sprintf("\nOrder ID: %s", orderID)
	}
	if amount, ok := payload["grandTotal"].(float64); ok && amount > 0 {
		summary += fmt.Sprintf("\nTotal: %.0f KRW", amount)
	}
	if note, ok := payload["message"].(string); ok && note != "" {
		summary += "\n" + note
	}
	return summary
}
