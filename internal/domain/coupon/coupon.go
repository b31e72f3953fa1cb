package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no active coupon matches the code.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotApplicable is returned when a coupon is restricted to a
	// different game than the one it is being applied to.
	ErrNotApplicable = errors.New("coupon not applicable to this game")
	// ErrExpired is returned when a coupon is past its expiry time.
	ErrExpired = errors.New("coupon expired")
	// ErrExhausted is returned when a coupon has reached its usage limit.
	ErrExhausted = errors.New("coupon usage limit reached")
)

// Coupon is a named discount rule with usage and time constraints.
// Exactly one of Percent and Amount is positive: Percent in (0,100] applies
// a percentage discount, Amount a fixed one capped at the base price.
type Coupon struct {
	ID          string
	Code        string
	Percent     decimal.Decimal
	Amount      decimal.Decimal
	MaxUses     int // 0 means unlimited
	CurrentUses int
	ExpiresAt   *time.Time
	Active      bool
	GameID      string // empty means valid for any game
	CreatedAt   time.Time
}

// Repository provides lookup and mutation of coupons.
type Repository interface {
	// FindByCode looks up an active coupon by its normalized code.
	// Returns ErrNotFound when no active coupon matches.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// IncrementUses bumps the usage counter by one with a single atomic
	// UPDATE. Called only on verified payment, never at validation time.
	IncrementUses(ctx context.Context, code string) error
}

// AdminRepository extends Repository with the management operations used by
// the admin surface.
type AdminRepository interface {
	Repository
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
}

// Normalize canonicalizes a user-entered code: trimmed, uppercased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
