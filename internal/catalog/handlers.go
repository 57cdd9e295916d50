package catalog

import (
	"net/http"

	"github.com/medalkraft/backend-medal/internal/common"
)

// Handler exposes the public catalog endpoint the configurator reads its
// options from.
type Handler struct {
	Catalog  *Catalog
	Currency string
}

// Options handles GET /api/v1/catalog. The full price table is public; the
// configurator mirrors the server computation for instant feedback, and the
// server remains authoritative for every total that is charged.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	finishes := make([]map[string]any, 0, len(h.Catalog.FinishTypes))
	for _, ft := range h.Catalog.FinishTypes {
		finishes = append(finishes, map[string]any{
			"id":          ft.ID,
			"displayName": ft.DisplayName,
			"basePrice":   ft.BasePrice,
			"addon":       ft.Addon,
		})
	}
	sizes := make([]map[string]any, 0, len(h.Catalog.SizeTiers))
	for _, st := range h.Catalog.SizeTiers {
		sizes = append(sizes, map[string]any{
			"sizeMm":    st.SizeMM,
			"surcharge": st.Surcharge,
		})
	}
	tiers := make([]map[string]any, 0, len(h.Catalog.QuantityTiers))
	for _, qt := range h.Catalog.QuantityTiers {
		tiers = append(tiers, map[string]any{
			"min":             qt.Min,
			"max":             qt.Max,
			"discountPerUnit": qt.DiscountPerUnit,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"finishTypes":           finishes,
			"defaultFinishId":       h.Catalog.DefaultFinishID,
			"platingColors":         h.Catalog.PlatingColors,
			"sizeTiers":             sizes,
			"quantityTiers":         tiers,
			"moldFee":               h.Catalog.MoldFee,
			"flatShippingFee":       h.Catalog.FlatShippingFee,
			"freeShippingThreshold": h.Catalog.FreeShippingThreshold,
			"currency":              h.Currency,
		},
	})
}
