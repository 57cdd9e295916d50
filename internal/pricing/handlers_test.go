package pricing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medalkraft/backend-medal/internal/catalog"
)

func TestPreviewMatchesEngine(t *testing.T) {
	h := &PreviewHandler{Engine: Engine{Catalog: catalog.Default()}, Currency: "KRW"}
	body := `{"lines":[{"finishTypeId":"normal","sizeMm":50,"qty":150,"newMold":true}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Lines []struct {
				UnitPrice     int64 `json:"unitPrice"`
				LineTotal     int64 `json:"lineTotal"`
				DiscountTotal int64 `json:"discountTotal"`
			} `json:"lines"`
			Summary struct {
				ProductSubtotal int64 `json:"productSubtotal"`
				MoldFeeTotal    int64 `json:"moldFeeTotal"`
				ShippingFee     int64 `json:"shippingFee"`
				GrandTotal      int64 `json:"grandTotal"`
			} `json:"summary"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Lines, 1)
	require.Equal(t, int64(4100), resp.Data.Lines[0].UnitPrice)
	require.Equal(t, int64(615000), resp.Data.Lines[0].LineTotal)
	require.Equal(t, int64(45000), resp.Data.Lines[0].DiscountTotal)
	require.Equal(t, int64(615000), resp.Data.Summary.ProductSubtotal)
	require.Equal(t, int64(90000), resp.Data.Summary.MoldFeeTotal)
	require.Equal(t, int64(0), resp.Data.Summary.ShippingFee)
	require.Equal(t, int64(705000), resp.Data.Summary.GrandTotal)
	require.Equal(t, "KRW", resp.Data.Currency)
}

func TestPreviewRejectsInvalidQuantity(t *testing.T) {
	h := &PreviewHandler{Engine: Engine{Catalog: catalog.Default()}, Currency: "KRW"}
	body := `{"lines":[{"finishTypeId":"normal","sizeMm":30,"qty":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_QUANTITY")
}

func TestPreviewRejectsOversizedQuantity(t *testing.T) {
	h := &PreviewHandler{Engine: Engine{Catalog: catalog.Default()}, Currency: "KRW"}
	body := `{"lines":[{"finishTypeId":"normal","sizeMm":30,"qty":2305843009213693952}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_QUANTITY")
}

func TestPreviewEmptyLines(t *testing.T) {
	h := &PreviewHandler{Engine: Engine{Catalog: catalog.Default()}, Currency: "KRW"}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(`{"lines":[]}`))
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"grandTotal":0`)
}
