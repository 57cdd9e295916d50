package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/events"
	"github.com/medalkraft/backend-medal/internal/obs"
	"github.com/medalkraft/backend-medal/internal/store"
)

// Service coordinates payment registration and approval against the gateway.
type Service struct {
	Store           *store.Store
	Catalog         *catalog.Catalog
	Provider        Provider
	Events          *events.Bus
	IntentTTL       time.Duration
	CallbackBaseURL string
}

// Register creates (or reuses) a gateway registration for the provided order.
// The registered amount is always the server-side recomputation of the order,
// never a client-supplied figure.
func (s *Service) Register(ctx context.Context, orderID string) (store.Payment, error) {
	var zero store.Payment
	if s == nil || s.Store == nil || s.Provider == nil {
		return zero, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.Register")
	defer span.End()

	start := time.Now()
	providerName := inferProviderName(s.Provider)
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.provider", providerName),
			attribute.Float64("payment.register.duration_ms", obs.DurationMillis(time.Since(start))),
			attribute.String("payment.register.result", result),
		)
		if obs.PaymentRegisterTotal != nil {
			obs.PaymentRegisterTotal.WithLabelValues(providerName, result).Inc()
		}
	}()

	ttl := s.IntentTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		return zero, fmt.Errorf("invalid order id: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", orderID))
	order, err := s.Store.GetOrderByID(ctx, orderUUID)
	if err != nil {
		return zero, err
	}
	if order.Status != store.OrderStatusPendingPayment {
		return zero, fmt.Errorf("order status %s does not allow payment registration", order.Status)
	}
	items, err := s.Store.ListOrderItems(ctx, orderUUID)
	if err != nil {
		return zero, err
	}
	expected, err := ExpectedTotal(s.Catalog, items)
	if err != nil {
		return zero, err
	}

	existing, err := s.Store.GetLatestPaymentByOrder(ctx, orderUUID)
	if err == nil {
		if existing.Status == store.PaymentStatusApproved {
			return zero, errors.New("order already paid")
		}
		if existing.Status == store.PaymentStatusPending {
			if existing.ExpiresAt == nil || existing.ExpiresAt.After(time.Now()) {
				result = "reused"
				return existing, nil
			}
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return zero, err
	}

	req := RegisterRequest{
		OrderID:         orderID,
		Amount:          expected,
		Currency:        order.Currency,
		OrderName:       orderName(items),
		ExpiresAtSec:    int(ttl.Seconds()),
		CallbackBaseURL: s.CallbackBaseURL,
	}
	resp, err := s.Provider.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	if resp.Provider != "" {
		providerName = normaliseLabel(resp.Provider)
	}
	result = "success"
	payload := toJSON(map[string]any{"request": req, "response": resp})
	expiresAt := time.Now().Add(ttl)
	if resp.ExpiresAt > 0 {
		expiresAt = time.Unix(resp.ExpiresAt, 0)
	}
	var key *string
	if strings.TrimSpace(resp.PaymentKey) != "" {
		key = &resp.PaymentKey
	}
	var redirect *string
	if strings.TrimSpace(resp.CheckoutURL) != "" {
		redirect = &resp.CheckoutURL
	}
	p, err := s.Store.CreatePayment(ctx, store.CreatePaymentParams{
		OrderID:     orderUUID,
		Provider:    providerName,
		Status:      store.PaymentStatusPending,
		Amount:      expected,
		PaymentKey:  key,
		RedirectURL: redirect,
		Payload:     payload,
		ExpiresAt:   &expiresAt,
	})
	if err != nil {
		return zero, err
	}
	_ = s.Store.InsertPaymentEvent(ctx, p.ID, store.PaymentStatusPending, payload)
	return p, nil
}

// Approve confirms a registered payment against the gateway. The gateway's
// reported amount is compared by exact integer equality with a fresh
// recomputation of the order; any mismatch fails both the payment and the
// order, and is never corrected.
func (s *Service) Approve(ctx context.Context, orderID, paymentKey string, amount int64) (store.Payment, error) {
	var zero store.Payment
	if s == nil || s.Store == nil || s.Provider == nil {
		return zero, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.Approve")
	defer span.End()

	providerName := inferProviderName(s.Provider)
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.provider", providerName),
			attribute.String("payment.approval.result", result),
		)
		if obs.PaymentApprovalTotal != nil {
			obs.PaymentApprovalTotal.WithLabelValues(providerName, result).Inc()
		}
	}()

	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		return zero, fmt.Errorf("invalid order id: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", orderID))
	order, err := s.Store.GetOrderByID(ctx, orderUUID)
	if err != nil {
		return zero, err
	}
	if order.Status != store.OrderStatusPendingPayment {
		return zero, fmt.Errorf("order status %s does not allow approval", order.Status)
	}
	p, err := s.Store.GetLatestPaymentByOrder(ctx, orderUUID)
	if err != nil {
		return zero, err
	}
	if p.Status != store.PaymentStatusPending {
		return zero, fmt.Errorf("payment status %s does not allow approval", p.Status)
	}
	if p.PaymentKey != nil && paymentKey != "" && *p.PaymentKey != paymentKey {
		return zero, errors.New("payment key mismatch")
	}

	items, err := s.Store.ListOrderItems(ctx, orderUUID)
	if err != nil {
		return zero, err
	}
	expected, err := ExpectedTotal(s.Catalog, items)
	if err != nil {
		return zero, err
	}
	if err := VerifyAmount(expected, amount); err != nil {
		result = "amount_mismatch"
		s.failPayment(ctx, p, order, err)
		return zero, err
	}

	res, err := s.Provider.Approve(ctx, ApproveRequest{OrderID: orderID, PaymentKey: paymentKey, Amount: expected})
	if err != nil {
		span.RecordError(err)
		s.failPayment(ctx, p, order, err)
		return zero, err
	}
	if !res.Approved {
		s.failPayment(ctx, p, order, fmt.Errorf("gateway declined: %s", res.Status))
		return zero, fmt.Errorf("gateway declined: %s", res.Status)
	}

	var key *string
	if paymentKey != "" {
		key = &paymentKey
	}
	if err := s.Store.UpdatePaymentStatus(ctx, p.ID, store.PaymentStatusApproved, key, res.Payload); err != nil {
		return zero, err
	}
	_ = s.Store.InsertPaymentEvent(ctx, p.ID, store.PaymentStatusApproved, res.Payload)
	if err := s.Store.UpdateOrderStatus(ctx, order.ID, store.OrderStatusPaid); err != nil {
		return zero, err
	}
	result = "success"
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderPaid, order.ID, map[string]any{
			"orderId":   order.ID.String(),
			"paymentId": p.ID.String(),
			"userId":    order.UserID.String(),
			"amount":    expected,
		})
	}
	p.Status = store.PaymentStatusApproved
	p.PaymentKey = key
	return p, nil
}

// failPayment marks the payment and its order FAILED. A failed order stays
// failed; recovery means placing a new order.
func (s *Service) failPayment(ctx context.Context, p store.Payment, order store.Order, cause error) {
	payload := toJSON(map[string]any{"error": cause.Error()})
	_ = s.Store.UpdatePaymentStatus(ctx, p.ID, store.PaymentStatusFailed, nil, payload)
	_ = s.Store.InsertPaymentEvent(ctx, p.ID, store.PaymentStatusFailed, payload)
	_ = s.Store.UpdateOrderStatus(ctx, order.ID, store.OrderStatusFailed)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicPaymentFailed, order.ID, map[string]any{
			"orderId":   order.ID.String(),
			"paymentId": p.ID.String(),
			"userId":    order.UserID.String(),
			"reason":    cause.Error(),
		})
	}
}

// ConsolidatedStatus returns the best-known status for an order payment.
func (s *Service) ConsolidatedStatus(ctx context.Context, orderID string) (string, error) {
	if s == nil || s.Store == nil {
		return "", errors.New("payment service not configured")
	}
	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		return "", fmt.Errorf("invalid order id: %w", err)
	}
	p, err := s.Store.GetLatestPaymentByOrder(ctx, orderUUID)
	if err == nil {
		return p.Status, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	ord, err := s.Store.GetOrderByID(ctx, orderUUID)
	if err != nil {
		return "", err
	}
	switch ord.Status {
	case store.OrderStatusPaid:
		return store.PaymentStatusApproved, nil
	case store.OrderStatusCanceled, store.OrderStatusFailed:
		return store.PaymentStatusFailed, nil
	default:
		return store.PaymentStatusPending, nil
	}
}

func orderName(items []store.OrderItem) string {
	if len(items) == 0 {
		return ""
	}
	name := items[0].DesignName
	if name == "" {
		name = fmt.Sprintf("%s %dmm badge", items[0].FinishTypeID, items[0].SizeMM)
	}
	if len(items) > 1 {
		name = fmt.Sprintf("%s and %d more", name, len(items)-1)
	}
	return name
}

func inferProviderName(p Provider) string {
	switch p.(type) {
	case Toss:
		return "toss"
	default:
		return "unknown"
	}
}

func normaliseLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func toJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
