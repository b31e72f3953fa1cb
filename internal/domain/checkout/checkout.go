// Package checkout implements the paid-download flow: hosted checkout
// session creation with server-side pricing, and the authoritative payment
// verification that gates purchase recording and file access.
package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Session metadata keys. The session metadata is the only durable record
// linking a provider-owned session to business intent, and the only input
// the verifier trusts for price and coupon data.
const (
	MetaGameID         = "game_id"
	MetaUserID         = "user_id"
	MetaCouponCode     = "coupon_code"
	MetaOriginalPrice  = "original_price"
	MetaDiscountAmount = "discount_amount"
	MetaPricePaid      = "price_paid"
)

// PaymentStatusPaid is the provider's payment_status value for a settled
// session. Anything else means the payment has not completed.
const PaymentStatusPaid = "paid"

// Session is the provider-neutral view of a hosted checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	Metadata      map[string]string
	CustomerEmail string
}

// CreateSessionParams describes the single line item and round-trip URLs for
// a new hosted checkout session.
type CreateSessionParams struct {
	Title       string
	Description string
	// AmountMinor is the charge in minor currency units (centavos).
	AmountMinor int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// PaymentProvider is the narrow interface to the hosted payment provider.
type PaymentProvider interface {
	CreateSession(ctx context.Context, p CreateSessionParams) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

// VerificationLog records which sessions have already been verified.
// MarkVerified must be atomic: exactly one caller per session id observes
// first == true and performs the verification side effects.
type VerificationLog interface {
	MarkVerified(ctx context.Context, sessionID, gameID string) (first bool, err error)
}

// Sale carries the details of a verified sale to the notification dispatcher.
type Sale struct {
	GameTitle      string
	PricePaid      decimal.Decimal
	CustomerEmail  string
	CouponCode     string
	DiscountAmount decimal.Decimal
	DownloadURL    string
}

// Notifier dispatches post-sale notifications. Implementations must not
// block: failures are logged and swallowed, never surfaced to the buyer.
type Notifier interface {
	SaleCompleted(sale Sale)
}

// ProviderError wraps a payment-provider failure. The underlying message is
// surfaced for diagnostics; the caller must re-initiate, there is no retry.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s: %s", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
