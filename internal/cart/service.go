package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/pricing"
	"github.com/medalkraft/backend-medal/internal/store"
)

// ErrNotFound indicates the requested cart or line could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Service encapsulates cart domain operations. Carts persist only badge
// configuration tuples; prices are recomputed from the catalog on every read.
type Service struct {
	Store   *store.Store
	Catalog *catalog.Catalog
	TTL     time.Duration
	Now     func() time.Time
}

// ItemInput is one badge configuration as submitted by a client.
type ItemInput struct {
	FinishTypeID string
	PlatingColor string
	SizeMM       int
	Qty          int
	NewMold      bool
	DesignName   string
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads or creates a cart for the provided identifiers.
func (s *Service) EnsureCart(ctx context.Context, userID *string, anonID *string) (store.Cart, error) {
	if s == nil || s.Store == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	expires := s.now().Add(s.ttl())

	if userID != nil && *userID != "" {
		uid, err := uuid.Parse(*userID)
		if err != nil {
			return store.Cart{}, fmt.Errorf("parse user id: %w", err)
		}
		cart, err := s.Store.GetActiveCartByUser(ctx, uid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Store.CreateCart(ctx, store.CreateCartParams{UserID: &uid, ExpiresAt: expires})
			}
			return store.Cart{}, err
		}
		_ = s.Store.TouchCart(ctx, cart.ID, expires)
		return cart, nil
	}

	if anonID != nil && *anonID != "" {
		cart, err := s.Store.GetActiveCartByAnon(ctx, *anonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Store.CreateCart(ctx, store.CreateCartParams{AnonID: anonID, ExpiresAt: expires})
			}
			return store.Cart{}, err
		}
		_ = s.Store.TouchCart(ctx, cart.ID, expires)
		return cart, nil
	}

	return store.Cart{}, ErrInvalidInput
}

// validateItem checks a badge configuration against the catalog. The pricing
// engine itself tolerates unknown finishes and sizes, but a cart line is user
// input and gets rejected early instead of silently falling back.
func (s *Service) validateItem(in ItemInput) error {
	if in.Qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FinishTypeID) == "" {
		return fmt.Errorf("finishTypeId is required: %w", ErrInvalidInput)
	}
	if in.SizeMM <= 0 {
		return fmt.Errorf("sizeMm must be positive: %w", ErrInvalidInput)
	}
	if in.PlatingColor != "" && !s.Catalog.KnownPlatingColor(in.PlatingColor) {
		return fmt.Errorf("unknown plating color %q: %w", in.PlatingColor, ErrInvalidInput)
	}
	engine := pricing.Engine{Catalog: s.Catalog}
	if _, err := engine.Compute(in.FinishTypeID, in.SizeMM, in.Qty); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidInput)
	}
	return nil
}

// AddItem appends a configured badge line to the cart. Lines are never
// merged: each configuration corresponds to a distinct design and mold.
func (s *Service) AddItem(ctx context.Context, cartID string, in ItemInput) (store.CartItem, error) {
	if s == nil || s.Store == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	cID, err := uuid.Parse(cartID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("parse cart id: %w", err)
	}
	if err := s.validateItem(in); err != nil {
		return store.CartItem{}, err
	}
	if _, err := s.Store.GetCartByID(ctx, cID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartItem{}, ErrNotFound
		}
		return store.CartItem{}, err
	}
	item, err := s.Store.CreateCartItem(ctx, store.CreateCartItemParams{
		CartID:       cID,
		FinishTypeID: in.FinishTypeID,
		PlatingColor: in.PlatingColor,
		SizeMM:       in.SizeMM,
		Qty:          in.Qty,
		NewMold:      in.NewMold,
		DesignName:   strings.TrimSpace(in.DesignName),
	})
	if err != nil {
		return store.CartItem{}, err
	}
	_ = s.Store.TouchCart(ctx, cID, s.now().Add(s.ttl()))
	return item, nil
}

// UpdateItem changes the quantity and mold flag of an existing line.
func (s *Service) UpdateItem(ctx context.Context, itemID string, qty int, newMold bool) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 || qty > pricing.MaxQty {
		return fmt.Errorf("qty out of range: %w", ErrInvalidInput)
	}
	id, err := uuid.Parse(itemID)
	if err != nil {
		return fmt.Errorf("parse item id: %w", err)
	}
	item, err := s.Store.GetCartItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Store.UpdateCartItem(ctx, store.UpdateCartItemParams{ID: item.ID, Qty: qty, NewMold: newMold}); err != nil {
		return err
	}
	_ = s.Store.TouchCart(ctx, item.CartID, s.now().Add(s.ttl()))
	return nil
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID string, itemID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	cID, err := uuid.Parse(cartID)
	if err != nil {
		return fmt.Errorf("parse cart id: %w", err)
	}
	iID, err := uuid.Parse(itemID)
	if err != nil {
		return fmt.Errorf("parse item id: %w", err)
	}
	if err := s.Store.DeleteCartItem(ctx, iID, cID); err != nil {
		return err
	}
	_ = s.Store.TouchCart(ctx, cID, s.now().Add(s.ttl()))
	return nil
}

// Merge moves guest cart lines into the user's active cart and expires the
// guest cart. Configurations are distinct designs, so lines are copied as-is.
func (s *Service) Merge(ctx context.Context, guestCartID string, userID string) (string, error) {
	if s == nil || s.Store == nil {
		return "", errors.New("cart service not configured")
	}
	gID, err := uuid.Parse(guestCartID)
	if err != nil {
		return "", fmt.Errorf("parse guest cart id: %w", err)
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("parse user id: %w", err)
	}
	guestCart, err := s.Store.GetCartByID(ctx, gID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	userIDCopy := userID
	userCart, err := s.EnsureCart(ctx, &userIDCopy, nil)
	if err != nil {
		return "", err
	}
	guestItems, err := s.Store.ListCartItems(ctx, gID)
	if err != nil {
		return "", err
	}
	for _, item := range guestItems {
		if _, err := s.Store.CreateCartItem(ctx, store.CreateCartItemParams{
			CartID:       userCart.ID,
			FinishTypeID: item.FinishTypeID,
			PlatingColor: item.PlatingColor,
			SizeMM:       item.SizeMM,
			Qty:          item.Qty,
			NewMold:      item.NewMold,
			DesignName:   item.DesignName,
		}); err != nil {
			return "", err
		}
	}
	_ = s.Store.TouchCart(ctx, userCart.ID, s.now().Add(s.ttl()))
	_ = s.Store.TouchCart(ctx, guestCart.ID, s.now())
	_ = s.Store.TransferCartToUser(ctx, guestCart.ID, uID)
	return userCart.ID.String(), nil
}

// PricedLines recomputes per-line prices and the order summary for a cart.
// Every surface that shows cart totals goes through here, so the numbers a
// customer sees in the configurator, the cart and checkout always agree.
func (s *Service) PricedLines(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, []pricing.Result, pricing.Summary, error) {
	items, err := s.Store.ListCartItems(ctx, cartID)
	if err != nil {
		return nil, nil, pricing.Summary{}, err
	}
	engine := pricing.Engine{Catalog: s.Catalog}
	results := make([]pricing.Result, 0, len(items))
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		res, err := engine.Compute(it.FinishTypeID, it.SizeMM, it.Qty)
		if err != nil {
			return nil, nil, pricing.Summary{}, err
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
		return nil, nil, pricing.Summary{}, err
	}
	return items, results, summary, nil
}
