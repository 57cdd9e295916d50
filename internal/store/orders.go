package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateOrderParams snapshots the cart and its engine-derived totals.
type CreateOrderParams struct {
	UserID          uuid.UUID
	CartID          uuid.UUID
	Status          string
	Currency        string
	ProductSubtotal int64
	MoldFeeTotal    int64
	ShippingFee     int64
	GrandTotal      int64
	ShippingAddress []byte
	Notes           *string
}

// CreateOrder inserts an order header.
func (s *Store) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	o := Order{
		ID:              uuid.New(),
		UserID:          arg.UserID,
		CartID:          arg.CartID,
		Status:          arg.Status,
		Currency:        arg.Currency,
		ProductSubtotal: arg.ProductSubtotal,
		MoldFeeTotal:    arg.MoldFeeTotal,
		ShippingFee:     arg.ShippingFee,
		GrandTotal:      arg.GrandTotal,
		ShippingAddress: arg.ShippingAddress,
		Notes:           arg.Notes,
		CreatedAt:       time.Now().UTC(),
	}
	o.UpdatedAt = o.CreatedAt
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (id, user_id, cart_id, status, currency, product_subtotal, mold_fee_total, shipping_fee, grand_total, shipping_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.UserID, o.CartID, o.Status, o.Currency, o.ProductSubtotal, o.MoldFeeTotal, o.ShippingFee, o.GrandTotal, o.ShippingAddress, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	return o, err
}

// GetOrderByID loads an order header.
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	var o Order
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, cart_id, status, currency, product_subtotal, mold_fee_total, shipping_fee, grand_total, shipping_address, notes, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &o.CartID, &o.Status, &o.Currency, &o.ProductSubtotal, &o.MoldFeeTotal, &o.ShippingFee, &o.GrandTotal, &o.ShippingAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// ListOrdersByUser returns a user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, cart_id, status, currency, product_subtotal, mold_fee_total, shipping_fee, grand_total, shipping_address, notes, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CartID, &o.Status, &o.Currency, &o.ProductSubtotal, &o.MoldFeeTotal, &o.ShippingFee, &o.GrandTotal, &o.ShippingAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountOrdersByUser counts a user's orders for pagination.
func (s *Store) CountOrdersByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

// UpdateOrderStatus transitions an order.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

// CreateOrderItemParams snapshots a badge line into an order.
type CreateOrderItemParams struct {
	OrderID      uuid.UUID
	FinishTypeID string
	PlatingColor string
	SizeMM       int
	Qty          int
	NewMold      bool
	DesignName   string
	UnitPrice    int64
	LineTotal    int64
}

// CreateOrderItem inserts an order line.
func (s *Store) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_items (id, order_id, finish_type_id, plating_color, size_mm, qty, new_mold, design_name, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(), arg.OrderID, arg.FinishTypeID, arg.PlatingColor, arg.SizeMM, arg.Qty, arg.NewMold, arg.DesignName, arg.UnitPrice, arg.LineTotal,
	)
	return err
}

// ListOrderItems returns the lines of an order in insertion order.
func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, finish_type_id, plating_color, size_mm, qty, new_mold, design_name, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.FinishTypeID, &it.PlatingColor, &it.SizeMM, &it.Qty, &it.NewMold, &it.DesignName, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
