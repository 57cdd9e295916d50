package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreatePaymentParams registers a gateway attempt for an order.
type CreatePaymentParams struct {
	OrderID     uuid.UUID
	Provider    string
	Status      string
	Amount      int64
	PaymentKey  *string
	RedirectURL *string
	Payload     []byte
	ExpiresAt   *time.Time
}

// CreatePayment inserts a payment row.
func (s *Store) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	p := Payment{
		ID:          uuid.New(),
		OrderID:     arg.OrderID,
		Provider:    arg.Provider,
		Status:      arg.Status,
		Amount:      arg.Amount,
		PaymentKey:  arg.PaymentKey,
		RedirectURL: arg.RedirectURL,
		Payload:     arg.Payload,
		ExpiresAt:   arg.ExpiresAt,
		CreatedAt:   time.Now().UTC(),
	}
	p.UpdatedAt = p.CreatedAt
	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (id, order_id, provider, status, amount, payment_key, redirect_url, payload, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.OrderID, p.Provider, p.Status, p.Amount, p.PaymentKey, p.RedirectURL, p.Payload, p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	)
	return p, err
}

// GetPaymentByID loads one payment row.
func (s *Store) GetPaymentByID(ctx context.Context, id uuid.UUID) (Payment, error) {
	return s.scanPayment(ctx, `
		SELECT id, order_id, provider, status, amount, payment_key, redirect_url, payload, expires_at, created_at, updated_at
		FROM payments WHERE id = $1`, id)
}

// GetLatestPaymentByOrder returns the newest payment attempt for an order.
func (s *Store) GetLatestPaymentByOrder(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	return s.scanPayment(ctx, `
		SELECT id, order_id, provider, status, amount, payment_key, redirect_url, payload, expires_at, created_at, updated_at
		FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`, orderID)
}

func (s *Store) scanPayment(ctx context.Context, query string, args ...any) (Payment, error) {
	var p Payment
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.OrderID, &p.Provider, &p.Status, &p.Amount, &p.PaymentKey, &p.RedirectURL, &p.Payload, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// UpdatePaymentStatus transitions a payment and records the gateway key and
// payload captured at that transition.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string, paymentKey *string, payload []byte) error {
	_, err := s.db.Exec(ctx, `
		UPDATE payments
		SET status = $2,
		    payment_key = COALESCE($3, payment_key),
		    payload = COALESCE($4, payload),
		    updated_at = now()
		WHERE id = $1`, id, status, paymentKey, payload)
	return err
}

// InsertPaymentEvent appends a status transition to the payment audit trail.
func (s *Store) InsertPaymentEvent(ctx context.Context, paymentID uuid.UUID, status string, payload []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO payment_events (id, payment_id, status, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), paymentID, status, payload, time.Now().UTC(),
	)
	return err
}
