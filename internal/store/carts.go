package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateCartParams identifies the owner of a new cart.
type CreateCartParams struct {
	UserID    *uuid.UUID
	AnonID    *string
	ExpiresAt time.Time
}

// CreateCart inserts a cart for a user or a guest.
func (s *Store) CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error) {
	c := Cart{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		AnonID:    arg.AnonID,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	c.UpdatedAt = c.CreatedAt
	_, err := s.db.Exec(ctx, `
		INSERT INTO carts (id, user_id, anon_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.AnonID, c.ExpiresAt, c.CreatedAt, c.UpdatedAt,
	)
	return c, err
}

// GetCartByID loads a cart.
func (s *Store) GetCartByID(ctx context.Context, id uuid.UUID) (Cart, error) {
	var c Cart
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, anon_id, expires_at, created_at, updated_at
		FROM carts WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetActiveCartByUser returns the newest unexpired cart for a user.
func (s *Store) GetActiveCartByUser(ctx context.Context, userID uuid.UUID) (Cart, error) {
	var c Cart
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, anon_id, expires_at, created_at, updated_at
		FROM carts WHERE user_id = $1 AND expires_at > now()
		ORDER BY created_at DESC LIMIT 1`, userID,
	).Scan(&c.ID, &c.UserID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetActiveCartByAnon returns the newest unexpired cart for a guest id.
func (s *Store) GetActiveCartByAnon(ctx context.Context, anonID string) (Cart, error) {
	var c Cart
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, anon_id, expires_at, created_at, updated_at
		FROM carts WHERE anon_id = $1 AND expires_at > now()
		ORDER BY created_at DESC LIMIT 1`, anonID,
	).Scan(&c.ID, &c.UserID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// TouchCart extends a cart's expiry.
func (s *Store) TouchCart(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	return err
}

// TransferCartToUser reassigns a guest cart to a user after merge.
func (s *Store) TransferCartToUser(ctx context.Context, id, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE carts SET user_id = $2, anon_id = NULL, updated_at = now() WHERE id = $1`, id, userID)
	return err
}

// CreateCartItemParams carries a badge configuration for insertion.
type CreateCartItemParams struct {
	CartID       uuid.UUID
	FinishTypeID string
	PlatingColor string
	SizeMM       int
	Qty          int
	NewMold      bool
	DesignName   string
}

// CreateCartItem inserts a configured badge line.
func (s *Store) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	it := CartItem{
		ID:           uuid.New(),
		CartID:       arg.CartID,
		FinishTypeID: arg.FinishTypeID,
		PlatingColor: arg.PlatingColor,
		SizeMM:       arg.SizeMM,
		Qty:          arg.Qty,
		NewMold:      arg.NewMold,
		DesignName:   arg.DesignName,
		CreatedAt:    time.Now().UTC(),
	}
	it.UpdatedAt = it.CreatedAt
	_, err := s.db.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, finish_type_id, plating_color, size_mm, qty, new_mold, design_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		it.ID, it.CartID, it.FinishTypeID, it.PlatingColor, it.SizeMM, it.Qty, it.NewMold, it.DesignName, it.CreatedAt, it.UpdatedAt,
	)
	return it, err
}

// GetCartItemByID loads a single cart line.
func (s *Store) GetCartItemByID(ctx context.Context, id uuid.UUID) (CartItem, error) {
	var it CartItem
	err := s.db.QueryRow(ctx, `
		SELECT id, cart_id, finish_type_id, plating_color, size_mm, qty, new_mold, design_name, created_at, updated_at
		FROM cart_items WHERE id = $1`, id,
	).Scan(&it.ID, &it.CartID, &it.FinishTypeID, &it.PlatingColor, &it.SizeMM, &it.Qty, &it.NewMold, &it.DesignName, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// ListCartItems returns the lines of a cart in insertion order.
func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, cart_id, finish_type_id, plating_color, size_mm, qty, new_mold, design_name, created_at, updated_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.FinishTypeID, &it.PlatingColor, &it.SizeMM, &it.Qty, &it.NewMold, &it.DesignName, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateCartItemParams mutates quantity and mold status of a line.
type UpdateCartItemParams struct {
	ID      uuid.UUID
	Qty     int
	NewMold bool
}

// UpdateCartItem updates the mutable fields of a cart line.
func (s *Store) UpdateCartItem(ctx context.Context, arg UpdateCartItemParams) error {
	_, err := s.db.Exec(ctx, `
		UPDATE cart_items SET qty = $2, new_mold = $3, updated_at = now() WHERE id = $1`,
		arg.ID, arg.Qty, arg.NewMold)
	return err
}

// DeleteCartItem removes a line, scoped to its cart.
func (s *Store) DeleteCartItem(ctx context.Context, id, cartID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, id, cartID)
	return err
}

// DeleteCartItems clears a cart after checkout.
func (s *Store) DeleteCartItems(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
