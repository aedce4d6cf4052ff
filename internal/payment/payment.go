// Package payment creates and verifies hosted checkout sessions.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutRequest describes the single order being paid.
type CheckoutRequest struct {
	OrderID       string
	BookID        string
	BookTitle     string
	BookImage     string
	Price         decimal.Decimal
	CustomerName  string
	CustomerEmail string
}

// Checkout is a created hosted payment page.
type Checkout struct {
	ID  string
	URL string
}

// Verification is the processor's view of a checkout session.
type Verification struct {
	SessionID     string
	Paid          bool
	OrderID       string
	TransactionID string
	AmountMinor   int64
	Currency      string
}

// Gateway talks to a payment processor.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	Verify(ctx context.Context, sessionID string) (*Verification, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinor converts a major-unit amount to minor units, rounding half away from zero.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinor converts minor units back to a major-unit amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
