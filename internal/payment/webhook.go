package payment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/common"
	"github.com/medalkraft/backend-medal/internal/events"
	"github.com/medalkraft/backend-medal/internal/store"
)

// Webhook handles asynchronous gateway callbacks, including signature
// verification, replay suppression and settlement.
type Webhook struct {
	Store     *store.Store
	Pool      *pgxpool.Pool
	Catalog   *catalog.Catalog
	Providers map[string]Provider
	Replay    *redis.Client
	ReplayTTL time.Duration
	Events    *events.Bus
}

// Handle processes webhook callbacks for the configured payment provider(s).
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil || h.Providers == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	providerKey := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "provider")))
	provider, ok := h.Providers[providerKey]
	if !ok {
		common.JSONError(w, http.StatusNotFound, "PROVIDER_NOT_SUPPORTED", "unknown provider", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	result, err := provider.VerifyWebhook(r, body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "WEBHOOK_INVALID", err.Error(), nil)
		return
	}
	if !result.Valid {
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}
	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("wh:%s:%s", providerKey, common.Sha256Hex(string(body)))
		ok, err := h.Replay.SetNX(r.Context(), key, "1", h.ReplayTTL).Result()
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error(), nil)
			return
		}
		if !ok {
			common.JSONError(w, http.StatusConflict, "REPLAY", "duplicate webhook", nil)
			return
		}
	}
	if result.ProviderPayload == nil {
		result.ProviderPayload = body
	}
	orderUUID, err := uuid.Parse(result.OrderID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ORDER_ID", "invalid order identifier", nil)
		return
	}
	ctx := r.Context()
	st := h.Store
	var tx pgx.Tx
	if h.Pool != nil {
		tx, err = h.Pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "TX_ERROR", err.Error(), nil)
			return
		}
		defer func() { _ = tx.Rollback(ctx) }()
		st = h.Store.WithTx(tx)
	}

	p, err := st.GetLatestPaymentByOrder(ctx, orderUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "PAYMENT_NOT_FOUND", "payment not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_FETCH_ERROR", err.Error(), nil)
		return
	}
	order, err := st.GetOrderByID(ctx, p.OrderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ORDER_FETCH_ERROR", err.Error(), nil)
		return
	}

	newStatus := normaliseWebhookStatus(result.Status)

	if newStatus == store.PaymentStatusApproved {
		items, err := st.ListOrderItems(ctx, order.ID)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "ORDER_ITEMS_ERROR", err.Error(), nil)
			return
		}
		status, payload, err := approvalStatus(h.Catalog, items, result.Amount, body)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "PRICING_ERROR", err.Error(), nil)
			return
		}
		newStatus = status
		if payload != nil {
			result.ProviderPayload = payload
		}
	}

	shouldSettle := newStatus == store.PaymentStatusApproved && p.Status != store.PaymentStatusApproved

	if err := st.UpdatePaymentStatus(ctx, p.ID, newStatus, nil, result.ProviderPayload); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_UPDATE_ERROR", err.Error(), nil)
		return
	}
	_ = st.InsertPaymentEvent(ctx, p.ID, newStatus, result.ProviderPayload)

	orderCanceled := false
	orderFailed := false
	switch newStatus {
	case store.PaymentStatusApproved:
		if shouldSettle {
			if err := st.UpdateOrderStatus(ctx, order.ID, store.OrderStatusPaid); err != nil {
				common.JSONError(w, http.StatusInternalServerError, "ORDER_UPDATE_ERROR", err.Error(), nil)
				return
			}
			order.Status = store.OrderStatusPaid
		}
	case store.PaymentStatusFailed:
		if order.Status == store.OrderStatusPendingPayment {
			if err := st.UpdateOrderStatus(ctx, order.ID, store.OrderStatusFailed); err == nil {
				orderFailed = true
				order.Status = store.OrderStatusFailed
			}
		}
	case store.PaymentStatusExpired:
		if order.Status == store.OrderStatusPendingPayment {
			if err := st.UpdateOrderStatus(ctx, order.ID, store.OrderStatusCanceled); err == nil {
				orderCanceled = true
				order.Status = store.OrderStatusCanceled
			}
		}
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			common.JSONError(w, http.StatusInternalServerError, "TX_COMMIT_ERROR", err.Error(), nil)
			return
		}
	}
	if h.Events != nil {
		payload := map[string]any{
			"orderId":   order.ID.String(),
			"paymentId": p.ID.String(),
			"userId":    order.UserID.String(),
			"status":    newStatus,
		}
		if user, err := h.Store.GetUserByID(ctx, order.UserID); err == nil && user.Email != "" {
			payload["email"] = user.Email
		}
		switch newStatus {
		case store.PaymentStatusApproved:
			_, _ = h.Events.Emit(ctx, events.TopicOrderPaid, order.ID, payload)
		case store.PaymentStatusFailed:
			_, _ = h.Events.Emit(ctx, events.TopicPaymentFailed, order.ID, payload)
			if orderFailed {
				_, _ = h.Events.Emit(ctx, events.TopicOrderCanceled, order.ID, payload)
			}
		case store.PaymentStatusExpired:
			_, _ = h.Events.Emit(ctx, events.TopicPaymentExpired, order.ID, payload)
			if orderCanceled {
				_, _ = h.Events.Emit(ctx, events.TopicOrderCanceled, order.ID, payload)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// approvalStatus decides the final payment status for an approved webhook.
// The reported amount must equal the recomputed order total exactly. A
// webhook that omits the amount cannot be verified and fails the payment the
// same way a mismatch does; the replacement payload records the disagreement.
func approvalStatus(cat *catalog.Catalog, items []store.OrderItem, reported int64, rawBody []byte) (string, []byte, error) {
	if reported <= 0 {
		return store.PaymentStatusFailed, toJSON(map[string]any{
			"error":    "approved webhook missing amount",
			"reported": reported,
			"payload":  string(rawBody),
		}), nil
	}
	expected, err := ExpectedTotal(cat, items)
	if err != nil {
		return "", nil, err
	}
	if verr := VerifyAmount(expected, reported); verr != nil {
		// Amount disagreement fails the order outright. It is never
		// adjusted to the reported figure.
		return store.PaymentStatusFailed, toJSON(map[string]any{
			"error":    verr.Error(),
			"reported": reported,
			"payload":  string(rawBody),
		}), nil
	}
	return store.PaymentStatusApproved, nil, nil
}

func normaliseWebhookStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "APPROVED", "PAID", "SUCCESS", "DONE":
		return store.PaymentStatusApproved
	case "FAILED", "CANCELED", "ABORTED":
		return store.PaymentStatusFailed
	case "EXPIRED":
		return store.PaymentStatusExpired
	default:
		return store.PaymentStatusPending
	}
}
