package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medalkraft/backend-medal/internal/common"
)

// Handler exposes HTTP endpoints for payment registration, approval and
// status polling.
type Handler struct {
	Svc *Service
}

type registerReq struct {
	OrderID string `json:"orderId"`
}

type registerResp struct {
	Provider    string     `json:"provider"`
	PaymentKey  string     `json:"paymentKey,omitempty"`
	CheckoutURL string     `json:"checkoutUrl,omitempty"`
	Amount      int64      `json:"amount"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Register opens a gateway registration for the authenticated user's order.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	orderID, ok := h.authorisedOrder(w, r, "")
	if !ok {
		return
	}
	p, err := h.Svc.Register(r.Context(), orderID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = http.StatusGatewayTimeout
		}
		common.JSONError(w, status, "REGISTER_FAILED", err.Error(), nil)
		return
	}
	resp := registerResp{Provider: p.Provider, Amount: p.Amount}
	if p.PaymentKey != nil {
		resp.PaymentKey = *p.PaymentKey
	}
	if p.RedirectURL != nil {
		resp.CheckoutURL = *p.RedirectURL
	}
	if p.ExpiresAt != nil {
		resp.ExpiresAt = p.ExpiresAt
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

type approveReq struct {
	OrderID    string `json:"orderId"`
	PaymentKey string `json:"paymentKey"`
	Amount     int64  `json:"amount"`
}

// Approve confirms a registered payment. A mismatch between the submitted
// amount and the recomputed order total fails the order.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	var req approveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	orderID, ok := h.authorisedOrderFromBody(w, r, req.OrderID)
	if !ok {
		return
	}
	p, err := h.Svc.Approve(r.Context(), orderID, strings.TrimSpace(req.PaymentKey), req.Amount)
	if err != nil {
		if errors.Is(err, ErrAmountMismatch) {
			common.JSONError(w, http.StatusConflict, "AMOUNT_MISMATCH", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "APPROVE_FAILED", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"paymentId": p.ID.String(),
		"status":    p.Status,
	}})
}

// Status reports the consolidated payment status for an order belonging to
// the authenticated user.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	orderID, ok := h.authorisedOrder(w, r, strings.TrimSpace(chi.URLParam(r, "orderId")))
	if !ok {
		return
	}
	status, err := h.Svc.ConsolidatedStatus(r.Context(), orderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "STATUS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": status}})
}

// authorisedOrder resolves the order id from the URL (or the provided value)
// and checks it belongs to the authenticated user.
func (h *Handler) authorisedOrder(w http.ResponseWriter, r *http.Request, orderID string) (string, bool) {
	if orderID == "" {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
			return "", false
		}
		orderID = strings.TrimSpace(req.OrderID)
	}
	return h.authorisedOrderFromBody(w, r, orderID)
}

func (h *Handler) authorisedOrderFromBody(w http.ResponseWriter, r *http.Request, orderID string) (string, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return "", false
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "orderId is required", nil)
		return "", false
	}
	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid orderId", nil)
		return "", false
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user", nil)
		return "", false
	}
	order, err := h.Svc.Store.GetOrderByID(r.Context(), orderUUID)
	if err != nil || order.UserID != userUUID {
		common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
		return "", false
	}
	return orderID, true
}
