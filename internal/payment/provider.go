package payment

import (
	"context"
	"net/http"
)

// RegisterRequest captures the information required to register a payment with a gateway.
type RegisterRequest struct {
	OrderID         string
	Amount          int64
	Currency        string
	OrderName       string
	ExpiresAtSec    int
	CallbackBaseURL string
}

// RegisterResponse represents the minimal information returned by a gateway when registering a payment.
type RegisterResponse struct {
	Provider    string
	PaymentKey  string
	CheckoutURL string
	ExpiresAt   int64
}

// ApproveRequest carries the gateway confirmation call for a registered payment.
type ApproveRequest struct {
	OrderID    string
	PaymentKey string
	Amount     int64
}

// ApproveResult is the gateway's answer to an approval attempt.
type ApproveResult struct {
	Approved bool
	Status   string
	Payload  []byte
}

// WebhookVerifyResult contains the normalised data extracted from a webhook notification after signature verification.
type WebhookVerifyResult struct {
	Valid           bool
	OrderID         string
	Amount          int64
	Status          string
	ProviderPayload []byte
	Err             error
}

// Provider abstracts the operations required from an upstream payment gateway.
type Provider interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	Approve(ctx context.Context, req ApproveRequest) (ApproveResult, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error)
}
