package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/indiejz/storefront/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_percent, discount_amount, max_uses,
		current_uses, expires_at, is_active, game_id, created_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE code = $1 AND is_active = TRUE`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	createCouponSQL = `INSERT INTO coupons
		(id, code, discount_percent, discount_amount, max_uses, expires_at, is_active, game_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))`

	updateCouponSQL = `UPDATE coupons SET
		code = $2, discount_percent = $3, discount_amount = $4, max_uses = $5,
		expires_at = $6, is_active = $7, game_id = NULLIF($8, '')
		WHERE id = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`

	// Atomic increment, consumed only on verified payment.
	incrementCouponUsesSQL = `UPDATE coupons SET current_uses = current_uses + 1 WHERE code = $1`
)

var _ coupon.AdminRepository = (*CouponRepository)(nil)

// CouponRepository implements coupon.AdminRepository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its normalized (uppercase) code.
// Returns coupon.ErrNotFound when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// IncrementUses bumps the usage counter for the given coupon code.
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	if _, err := r.pool.Exec(ctx, incrementCouponUsesSQL, code); err != nil {
		return fmt.Errorf("incrementing uses for coupon %q: %w", code, err)
	}
	return nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}

// Create inserts a new coupon. Codes are stored uppercase.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	percent, amount := discountParams(c)
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.ID, coupon.Normalize(c.Code), percent, amount,
		maxUsesParam(c), c.ExpiresAt, c.Active, c.GameID,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update rewrites a coupon's rule and status.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	percent, amount := discountParams(c)
	tag, err := r.pool.Exec(ctx, updateCouponSQL,
		c.ID, coupon.Normalize(c.Code), percent, amount,
		maxUsesParam(c), c.ExpiresAt, c.Active, c.GameID,
	)
	if err != nil {
		return fmt.Errorf("updating coupon %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// discountParams maps the percent-xor-amount pair onto nullable columns.
func discountParams(c *coupon.Coupon) (percent, amount *decimal.Decimal) {
	if c.Percent.IsPositive() {
		percent = &c.Percent
	} else if c.Amount.IsPositive() {
		amount = &c.Amount
	}
	return percent, amount
}

func maxUsesParam(c *coupon.Coupon) *int32 {
	if c.MaxUses <= 0 {
		return nil
	}
	v := int32(c.MaxUses)
	return &v
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c         coupon.Coupon
		percent   *decimal.Decimal
		amount    *decimal.Decimal
		maxUses   *int32
		expiresAt *time.Time
		gameID    *string
	)
	err := row.Scan(
		&c.ID, &c.Code, &percent, &amount, &maxUses,
		&c.CurrentUses, &expiresAt, &c.Active, &gameID, &c.CreatedAt,
	)
	if percent != nil {
		c.Percent = *percent
	}
	if amount != nil {
		c.Amount = *amount
	}
	if maxUses != nil {
		c.MaxUses = int(*maxUses)
	}
	c.ExpiresAt = expiresAt
	if gameID != nil {
		c.GameID = *gameID
	}
	return c, err
}
