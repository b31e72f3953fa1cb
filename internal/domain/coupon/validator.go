package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks a user-entered coupon code against the coupon store and
// returns the matching rule. Validation is read-only: the usage counter is
// incremented by the payment verifier, not here, so two concurrent
// validations near the usage limit may both succeed.
type Validator interface {
	Validate(ctx context.Context, code, gameID string) (*Coupon, error)
}

// RepoValidator implements Validator with lookups from a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate normalizes the code, looks up an active coupon, and checks game
// scope, expiry, and usage limit. On success the coupon is returned
// unmodified.
func (v *RepoValidator) Validate(ctx context.Context, code, gameID string) (*Coupon, error) {
	c, err := v.repo.FindByCode(ctx, Normalize(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if c.GameID != "" && c.GameID != gameID {
		return nil, ErrNotApplicable
	}
	if c.ExpiresAt != nil && v.now().After(*c.ExpiresAt) {
		return nil, ErrExpired
	}
	if c.MaxUses > 0 && c.CurrentUses >= c.MaxUses {
		return nil, ErrExhausted
	}

	return c, nil
}
