package purchase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is one verified sale, recorded only when the buyer was
// authenticated at checkout time. SessionID carries the provider checkout
// session id and is unique, so a duplicate verification cannot insert a
// second row.
type Purchase struct {
	ID             string
	GameID         string
	UserID         string
	SessionID      string
	PricePaid      decimal.Decimal
	CouponCode     string
	DiscountAmount decimal.Decimal
	CreatedAt      time.Time
}

// CouponUsage aggregates how a single coupon performed across all sales.
type CouponUsage struct {
	Code          string
	Uses          int
	TotalDiscount decimal.Decimal
}

// SalesReport summarizes the full purchase history for the admin dashboard.
type SalesReport struct {
	TotalRevenue  decimal.Decimal
	TotalDiscount decimal.Decimal
	PurchaseCount int
	CouponUsage   []CouponUsage
}

// Repository defines persistence operations for purchases.
type Repository interface {
	// Create inserts a purchase row. Inserting a session id that is
	// already recorded is a no-op.
	Create(ctx context.Context, p *Purchase) error
	ListByUser(ctx context.Context, userID string) ([]Purchase, error)
	Report(ctx context.Context) (*SalesReport, error)
}
