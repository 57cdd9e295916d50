package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestTossRegisterRequiresOrder(t *testing.T) {
	p := Toss{SecretKey: "sk_test"}
	_, err := p.Register(context.Background(), RegisterRequest{Amount: 1000})
	require.Error(t, err)

	_, err = p.Register(context.Background(), RegisterRequest{OrderID: "o-1", Amount: 0})
	require.Error(t, err)

	resp, err := p.Register(context.Background(), RegisterRequest{OrderID: "o-1", Amount: 96500, ExpiresAtSec: 900})
	require.NoError(t, err)
	require.Equal(t, "toss", resp.Provider)
	require.NotEmpty(t, resp.PaymentKey)
	require.Contains(t, resp.CheckoutURL, resp.PaymentKey)
}

func TestTossWebhookSignature(t *testing.T) {
	p := Toss{SecretKey: "sk_test"}
	body := []byte(`{"orderId":"3f1c0b9e-9f53-4c3e-8f4b-2f0a8f6d5e11","totalAmount":96500,"status":"DONE"}`)

	req := httptest.NewRequest("POST", "/webhooks/payment/toss", strings.NewReader(string(body)))
	req.Header.Set("X-Webhook-Signature", signBody("sk_test", body))
	result, err := p.VerifyWebhook(req, body)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, int64(96500), result.Amount)
	require.Equal(t, "APPROVED", result.Status)

	// Tampered body fails verification.
	tampered := []byte(`{"orderId":"3f1c0b9e-9f53-4c3e-8f4b-2f0a8f6d5e11","totalAmount":1,"status":"DONE"}`)
	req = httptest.NewRequest("POST", "/webhooks/payment/toss", strings.NewReader(string(tampered)))
	req.Header.Set("X-Webhook-Signature", signBody("sk_test", body))
	result, err = p.VerifyWebhook(req, tampered)
	require.NoError(t, err)
	require.False(t, result.Valid)

	// Missing signature fails verification.
	req = httptest.NewRequest("POST", "/webhooks/payment/toss", strings.NewReader(string(body)))
	result, err = p.VerifyWebhook(req, body)
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestNormaliseTossStatus(t *testing.T) {
	cases := map[string]string{
		"DONE":                "APPROVED",
		"done":                "APPROVED",
		"READY":               "PENDING",
		"IN_PROGRESS":         "PENDING",
		"WAITING_FOR_DEPOSIT": "PENDING",
		"CANCELED":            "FAILED",
		"ABORTED":             "FAILED",
		"EXPIRED":             "EXPIRED",
		"anything-else":       "PENDING",
	}
	for in, want := range cases {
		require.Equal(t, want, normaliseTossStatus(in), "status %q", in)
	}
}

func TestNormaliseWebhookStatus(t *testing.T) {
	require.Equal(t, "APPROVED", normaliseWebhookStatus("done"))
	require.Equal(t, "FAILED", normaliseWebhookStatus("CANCELED"))
	require.Equal(t, "EXPIRED", normaliseWebhookStatus(" expired "))
	require.Equal(t, "PENDING", normaliseWebhookStatus(""))
}
