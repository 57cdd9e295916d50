package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/common"
	"github.com/medalkraft/backend-medal/internal/events"
	"github.com/medalkraft/backend-medal/internal/obs"
	"github.com/medalkraft/backend-medal/internal/pricing"
	"github.com/medalkraft/backend-medal/internal/quote"
	"github.com/medalkraft/backend-medal/internal/store"
)

// Handler exposes order listing, retrieval, cancellation and quote export.
type Handler struct {
	Store    *store.Store
	Catalog  *catalog.Catalog
	Quotes   *quote.Builder
	Events   *events.Bus
	Currency string
}

// List returns the authenticated user's orders, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	uID, ok := h.userID(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	total, err := h.Store.CountOrdersByUser(r.Context(), uID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Store.ListOrdersByUser(r.Context(), uID, perPage, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]map[string]any, 0, len(orders))
	for _, ord := range orders {
		response = append(response, map[string]any{
			"id":              ord.ID.String(),
			"status":          ord.Status,
			"productSubtotal": ord.ProductSubtotal,
			"moldFeeTotal":    ord.MoldFeeTotal,
			"shippingFee":     ord.ShippingFee,
			"grandTotal":      ord.GrandTotal,
			"currency":        ord.Currency,
			"createdAt":       ord.CreatedAt,
		})
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": response,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns one order with itemised lines. Line amounts are the snapshot
// taken at checkout; a fresh engine computation is included so clients can
// surface catalog drift before reordering.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ord, items, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	engine := pricing.Engine{Catalog: h.Catalog}
	responseItems := make([]map[string]any, 0, len(items))
	for _, it := range items {
		entry := map[string]any{
			"id":           it.ID.String(),
			"finishTypeId": it.FinishTypeID,
			"platingColor": it.PlatingColor,
			"sizeMm":       it.SizeMM,
			"qty":          it.Qty,
			"newMold":      it.NewMold,
			"designName":   it.DesignName,
			"unitPrice":    it.UnitPrice,
			"lineTotal":    it.LineTotal,
		}
		if res, err := engine.Compute(it.FinishTypeID, it.SizeMM, it.Qty); err == nil {
			entry["currentUnitPrice"] = res.UnitPrice
			entry["currentLineTotal"] = res.Total
		}
		responseItems = append(responseItems, entry)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":              ord.ID.String(),
			"status":          ord.Status,
			"productSubtotal": ord.ProductSubtotal,
			"moldFeeTotal":    ord.MoldFeeTotal,
			"shippingFee":     ord.ShippingFee,
			"grandTotal":      ord.GrandTotal,
			"currency":        ord.Currency,
			"createdAt":       ord.CreatedAt,
			"items":           responseItems,
			"notes":           ord.Notes,
			"shippingAddress": jsonValue(ord.ShippingAddress),
		},
	})
}

// Cancel voids an order that has not been paid yet.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ord, _, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	if ord.Status != store.OrderStatusPendingPayment {
		common.JSONError(w, http.StatusBadRequest, "INVALID_STATE", "only pending orders can be canceled", nil)
		return
	}
	if err := h.Store.UpdateOrderStatus(r.Context(), ord.ID, store.OrderStatusCanceled); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		return
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicOrderCanceled, ord.ID, map[string]any{
			"orderId": ord.ID.String(),
			"userId":  ord.UserID.String(),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": store.OrderStatusCanceled}})
}

// QuotePDF renders the order as a quotation document. All figures come from
// a fresh engine computation over the persisted configuration tuples, so the
// PDF always matches what checkout and payment verification would produce.
func (h *Handler) QuotePDF(w http.ResponseWriter, r *http.Request) {
	if h.Quotes == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote builder not configured", nil)
		return
	}
	ord, items, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	engine := pricing.Engine{Catalog: h.Catalog}
	lines := make([]quote.Line, 0, len(items))
	aggLines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		res, err := engine.Compute(it.FinishTypeID, it.SizeMM, it.Qty)
		if err != nil {
			h.countQuote("error")
			common.JSONError(w, http.StatusInternalServerError, "PRICING_ERROR", err.Error(), nil)
			return
		}
		lines = append(lines, quote.Line{
			DesignName:   it.DesignName,
			FinishLabel:  h.Catalog.FinishTypeFor(it.FinishTypeID).DisplayName,
			PlatingColor: it.PlatingColor,
			SizeMM:       it.SizeMM,
			Qty:          it.Qty,
			NewMold:      it.NewMold,
			Result:       res,
		})
		aggLines = append(aggLines, pricing.Line{
			FinishTypeID: it.FinishTypeID,
			PlatingColor: it.PlatingColor,
			SizeMM:       it.SizeMM,
			Qty:          it.Qty,
			NewMold:      it.NewMold,
		})
	}
	summary, err := engine.Aggregate(aggLines)
	if err != nil {
		h.countQuote("error")
		common.JSONError(w, http.StatusInternalServerError, "PRICING_ERROR", err.Error(), nil)
		return
	}
	user, _ := h.Store.GetUserByID(r.Context(), ord.UserID)
	doc := quote.Document{
		QuoteNumber: fmt.Sprintf("Q-%s", shortID(ord.ID)),
		IssuedAt:    time.Now(),
		ValidUntil:  time.Now().AddDate(0, 1, 0),
		ClientName:  user.Name,
		Currency:    ord.Currency,
		Lines:       lines,
		Summary:     summary,
	}
	pdf, err := h.Quotes.Render(doc)
	if err != nil {
		h.countQuote("error")
		common.JSONError(w, http.StatusInternalServerError, "RENDER_ERROR", "failed to render quote", nil)
		return
	}
	h.countQuote("success")
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicQuoteRequested, ord.ID, map[string]any{
			"orderId":     ord.ID.String(),
			"userId":      ord.UserID.String(),
			"quoteNumber": doc.QuoteNumber,
		})
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.QuoteNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) countQuote(result string) {
	if obs.QuoteRenderTotal != nil {
		obs.QuoteRenderTotal.WithLabelValues(result).Inc()
	}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return uuid.Nil, false
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return uuid.Nil, false
	}
	return uID, true
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (store.Order, []store.OrderItem, bool) {
	var zero store.Order
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return zero, nil, false
	}
	uID, ok := h.userID(w, r)
	if !ok {
		return zero, nil, false
	}
	oID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return zero, nil, false
	}
	ord, err := h.Store.GetOrderByID(r.Context(), oID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return zero, nil, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return zero, nil, false
	}
	if ord.UserID != uID {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return zero, nil, false
	}
	items, err := h.Store.ListOrderItems(r.Context(), oID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return zero, nil, false
	}
	return ord, items, true
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}

func jsonValue(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return json.RawMessage(clone)
}
