package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/events"
	"github.com/medalkraft/backend-medal/internal/pricing"
	"github.com/medalkraft/backend-medal/internal/store"
)

// Addr is the shipping destination captured at checkout.
type Addr struct {
	ReceiverName string `json:"receiverName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	PostalCode   string `json:"postalCode" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2"`
}

// Input is the checkout request payload.
type Input struct {
	CartID  string  `json:"cartId" validate:"required,uuid4"`
	Address Addr    `json:"address" validate:"required"`
	Notes   *string `json:"notes"`
}

// Output reports the created order and its authoritative totals.
type Output struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Summary struct {
		ProductSubtotal int64 `json:"productSubtotal"`
		MoldFeeTotal    int64 `json:"moldFeeTotal"`
		ShippingFee     int64 `json:"shippingFee"`
		GrandTotal      int64 `json:"grandTotal"`
	} `json:"summary"`
	Currency string `json:"currency"`
}

// Service converts a cart into an order. All amounts on the order are
// recomputed from the catalog at checkout time; nothing client-supplied is
// trusted.
type Service struct {
	Store    *store.Store
	Pool     *pgxpool.Pool
	Catalog  *catalog.Catalog
	Currency string
	Events   *events.Bus
}

// Create snapshots the cart into an order within one transaction.
func (s *Service) Create(ctx context.Context, userID *string, in Input) (Output, error) {
	if s == nil || s.Store == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if userID == nil || *userID == "" {
		return Output{}, errors.New("user is required for checkout")
	}
	if in.CartID == "" {
		return Output{}, errors.New("cartId is required")
	}
	cID, err := uuid.Parse(in.CartID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid cart id: %w", err)
	}
	uID, err := uuid.Parse(*userID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid user id: %w", err)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	stx := s.Store.WithTx(tx)
	cartRow, err := stx.GetCartByID(ctx, cID)
	if err != nil {
		return Output{}, err
	}
	if cartRow.UserID != nil && *cartRow.UserID != uID {
		return Output{}, errors.New("cart does not belong to user")
	}
	items, err := stx.ListCartItems(ctx, cID)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, errors.New("cart is empty")
	}

	engine := pricing.Engine{Catalog: s.Catalog}
	lines := make([]pricing.Line, 0, len(items))
	results := make([]pricing.Result, 0, len(items))
	for _, it := range items {
		res, err := engine.Compute(it.FinishTypeID, it.SizeMM, it.Qty)
		if err != nil {
			return Output{}, fmt.Errorf("price cart line %s: %w", it.ID, err)
		}
		results = append(results, res)
		lines = append(lines, pricing.Line{
			FinishTypeID: it.FinishTypeID,
			PlatingColor: it.PlatingColor,
			SizeMM:       it.SizeMM,
			Qty:          it.Qty,
			NewMold:      it.NewMold,
		})
	}
	summary, err := engine.Aggregate(lines)
	if err != nil {
		return Output{}, err
	}

	order, err := stx.CreateOrder(ctx, store.CreateOrderParams{
		UserID:          uID,
		CartID:          cID,
		Status:          store.OrderStatusPendingPayment,
		Currency:        s.Currency,
		ProductSubtotal: summary.ProductSubtotal,
		MoldFeeTotal:    summary.MoldFeeTotal,
		ShippingFee:     summary.ShippingFee,
		GrandTotal:      summary.GrandTotal,
		ShippingAddress: toJSON(in.Address),
		Notes:           in.Notes,
	})
	if err != nil {
		return Output{}, err
	}
	for i, it := range items {
		if err := stx.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:      order.ID,
			FinishTypeID: it.FinishTypeID,
			PlatingColor: it.PlatingColor,
			SizeMM:       it.SizeMM,
			Qty:          it.Qty,
			NewMold:      it.NewMold,
			DesignName:   it.DesignName,
			UnitPrice:    results[i].UnitPrice,
			LineTotal:    results[i].Total,
		}); err != nil {
			return Output{}, err
		}
	}
	if err := stx.DeleteCartItems(ctx, cID); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if s.Events != nil {
		user, _ := s.Store.GetUserByID(ctx, uID)
		payload := map[string]any{
			"orderId":    order.ID.String(),
			"userId":     *userID,
			"grandTotal": summary.GrandTotal,
		}
		if user.Email != "" {
			payload["email"] = user.Email
		}
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, order.ID, payload)
	}

	var out Output
	out.OrderID = order.ID.String()
	out.Status = order.Status
	out.Summary.ProductSubtotal = summary.ProductSubtotal
	out.Summary.MoldFeeTotal = summary.MoldFeeTotal
	out.Summary.ShippingFee = summary.ShippingFee
	out.Summary.GrandTotal = summary.GrandTotal
	out.Currency = s.Currency
	return out, nil
}

func toJSON(v any) []byte {
	if v == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return b
}
