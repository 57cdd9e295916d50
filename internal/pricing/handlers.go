package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medalkraft/backend-medal/internal/common"
	"github.com/medalkraft/backend-medal/internal/obs"
)

// PreviewHandler serves the configurator's price preview. It runs the same
// engine as cart, checkout and payment verification, so a preview is always
// exactly what the customer would be charged.
type PreviewHandler struct {
	Engine   Engine
	Currency string
}

type previewLine struct {
	FinishTypeID string `json:"finishTypeId"`
	PlatingColor string `json:"platingColor"`
	SizeMM       int    `json:"sizeMm"`
	Qty          int    `json:"qty"`
	NewMold      bool   `json:"newMold"`
}

type previewRequest struct {
	Lines []previewLine `json:"lines"`
}

// Preview handles POST /api/v1/pricing/preview.
func (h *PreviewHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	lines := make([]Line, 0, len(req.Lines))
	results := make([]map[string]any, 0, len(req.Lines))
	for _, pl := range req.Lines {
		res, err := h.Engine.Compute(pl.FinishTypeID, pl.SizeMM, pl.Qty)
		if err != nil {
			if errors.Is(err, ErrInvalidQuantity) {
				common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), nil)
				return
			}
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		results = append(results, map[string]any{
			"finishTypeId":    pl.FinishTypeID,
			"platingColor":    pl.PlatingColor,
			"sizeMm":          pl.SizeMM,
			"qty":             pl.Qty,
			"newMold":         pl.NewMold,
			"baseUnitPrice":   res.BaseUnitPrice,
			"sizeSurcharge":   res.SizeSurcharge,
			"discountPerUnit": res.DiscountPerUnit,
			"unitPrice":       res.UnitPrice,
			"discountTotal":   res.DiscountTotal,
			"lineTotal":       res.Total,
		})
		lines = append(lines, Line{
			FinishTypeID: pl.FinishTypeID,
			PlatingColor: pl.PlatingColor,
			SizeMM:       pl.SizeMM,
			Qty:          pl.Qty,
			NewMold:      pl.NewMold,
		})
	}
	summary, err := h.Engine.Aggregate(lines)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if obs.PricingPreviewTotal != nil {
		obs.PricingPreviewTotal.Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"lines": results,
			"summary": map[string]any{
				"productSubtotal": summary.ProductSubtotal,
				"moldFeeTotal":    summary.MoldFeeTotal,
				"shippingFee":     summary.ShippingFee,
				"grandTotal":      summary.GrandTotal,
			},
			"currency": h.Currency,
		},
	})
}
