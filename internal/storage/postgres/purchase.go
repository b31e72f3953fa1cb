package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/indiejz/storefront/internal/domain/purchase"
)

const (
	purchaseColumns = `id, game_id, user_id, session_id, price_paid, coupon_code, discount_amount, created_at`

	createPurchaseSQL = `INSERT INTO purchases
		(id, game_id, user_id, session_id, price_paid, coupon_code, discount_amount)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		ON CONFLICT (session_id) DO NOTHING`

	listPurchasesByUserSQL = `SELECT ` + purchaseColumns + `
		FROM purchases WHERE user_id = $1 ORDER BY created_at DESC`

	salesTotalsSQL = `SELECT
		COALESCE(SUM(price_paid), 0),
		COALESCE(SUM(discount_amount), 0),
		COUNT(*)
		FROM purchases`

	couponUsageSQL = `SELECT coupon_code, COUNT(*), COALESCE(SUM(discount_amount), 0)
		FROM purchases
		WHERE coupon_code IS NOT NULL
		GROUP BY coupon_code
		ORDER BY COUNT(*) DESC, coupon_code`
)

var _ purchase.Repository = (*PurchaseRepository)(nil)

// PurchaseRepository implements purchase.Repository backed by PostgreSQL.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository returns a PurchaseRepository that uses the given pool.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Create inserts a purchase row. A session id that was already recorded is
// left untouched, so re-running a verification cannot duplicate a sale.
func (r *PurchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, createPurchaseSQL,
		p.ID, p.GameID, p.UserID, p.SessionID,
		p.PricePaid, p.CouponCode, p.DiscountAmount,
	)
	if err != nil {
		return fmt.Errorf("creating purchase for session %q: %w", p.SessionID, err)
	}
	return nil
}

// ListByUser returns the purchase history of one buyer, newest first.
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID string) ([]purchase.Purchase, error) {
	rows, err := r.pool.Query(ctx, listPurchasesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing purchases for user %q: %w", userID, err)
	}

	purchases, err := pgx.CollectRows(rows, scanPurchase)
	if err != nil {
		return nil, fmt.Errorf("listing purchases for user %q: %w", userID, err)
	}
	return purchases, nil
}

// Report aggregates revenue, discount and per-coupon usage across all sales.
func (r *PurchaseRepository) Report(ctx context.Context) (*purchase.SalesReport, error) {
	var report purchase.SalesReport
	err := r.pool.QueryRow(ctx, salesTotalsSQL).Scan(
		&report.TotalRevenue, &report.TotalDiscount, &report.PurchaseCount,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating sales totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, couponUsageSQL)
	if err != nil {
		return nil, fmt.Errorf("aggregating coupon usage: %w", err)
	}
	report.CouponUsage, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (purchase.CouponUsage, error) {
		var u purchase.CouponUsage
		err := row.Scan(&u.Code, &u.Uses, &u.TotalDiscount)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating coupon usage: %w", err)
	}
	return &report, nil
}

func scanPurchase(row pgx.CollectableRow) (purchase.Purchase, error) {
	var (
		p          purchase.Purchase
		couponCode *string
		discount   *decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.GameID, &p.UserID, &p.SessionID,
		&p.PricePaid, &couponCode, &discount, &p.CreatedAt,
	)
	if couponCode != nil {
		p.CouponCode = *couponCode
	}
	if discount != nil {
		p.DiscountAmount = *discount
	}
	return p, err
}
