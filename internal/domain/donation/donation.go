package donation

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a donation amount is zero or negative.
var ErrInvalidAmount = errors.New("donation amount must be positive")

// Donation is a voluntary supporter contribution.
type Donation struct {
	ID        string
	Name      string
	Email     string
	Amount    decimal.Decimal
	Message   string
	IsPublic  bool
	CreatedAt time.Time
}

// Supporter is one leaderboard entry: a public donor's accumulated total.
type Supporter struct {
	Name  string
	Total decimal.Decimal
	Count int
}

// Repository defines persistence operations for donations.
type Repository interface {
	Create(ctx context.Context, d *Donation) error
	// Leaderboard returns the top public supporters by accumulated amount.
	Leaderboard(ctx context.Context, limit int) ([]Supporter, error)
}
