package checkout

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/medalkraft/backend-medal/internal/common"
)

func TestCheckoutRequiresAuth(t *testing.T) {
	h := &Handler{Svc: &Service{}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutRejectsMalformedJSON(t *testing.T) {
	h := &Handler{Svc: &Service{}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{`))
	req = req.WithContext(common.WithUserID(req.Context(), "95b4cf5c-9d1a-4f87-9e2e-3f4d4f9f2a10"))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutValidatesAddress(t *testing.T) {
	h := &Handler{Svc: &Service{}, Validate: validator.New()}
	body := `{"cartId":"0e6f9a1e-75c9-4c0f-9300-5a6ad70a2f4a","address":{"receiverName":"","phone":"","postalCode":"","addressLine1":""}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(common.WithUserID(req.Context(), "95b4cf5c-9d1a-4f87-9e2e-3f4d4f9f2a10"))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "BAD_REQUEST")
}
