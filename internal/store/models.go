package store

import (
	"time"

	"github.com/google/uuid"
)

// Order and payment statuses persisted in the database.
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusPaid           = "PAID"
	OrderStatusInProduction   = "IN_PRODUCTION"
	OrderStatusCanceled       = "CANCELED"
	OrderStatusFailed         = "FAILED"

	PaymentStatusPending  = "PENDING"
	PaymentStatusApproved = "APPROVED"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusExpired  = "EXPIRED"
)

// User is an account row.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Cart groups configured badge lines for a guest or a user.
type Cart struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	AnonID    *string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one configured badge line. Only the configuration tuple is
// persisted; prices are recomputed from the catalog on every read.
type CartItem struct {
	ID           uuid.UUID
	CartID       uuid.UUID
	FinishTypeID string
	PlatingColor string
	SizeMM       int
	Qty          int
	NewMold      bool
	DesignName   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Order is a checked-out cart with totals snapshotted at creation time.
// The configuration tuple on each item remains the source of truth for
// server-side amount verification.
type Order struct {
	ID              uuid.UUID
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
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem snapshots one badge line of an order.
type OrderItem struct {
	ID           uuid.UUID
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

// Payment tracks one gateway registration for an order.
type Payment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Provider    string
	Status      string
	Amount      int64
	PaymentKey  *string
	RedirectURL *string
	Payload     []byte
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentEvent is an append-only record of payment status transitions.
type PaymentEvent struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	Status    string
	Payload   []byte
	CreatedAt time.Time
}

// DomainEvent is a persisted business event consumed by notifiers.
type DomainEvent struct {
	ID          uuid.UUID
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
	OccurredAt  time.Time
}

// Session is a refresh-token session. The refresh token is stored hashed.
type Session struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	RefreshToken string
	UserAgent    *string
	IP           *string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordReset is a single-use password reset token.
type PasswordReset struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
