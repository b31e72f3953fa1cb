package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	c          *Coupon
	err        error
	lookedUp   string
	increments []string
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	m.lookedUp = code
	return m.c, m.err
}

func (m *mockCouponRepo) IncrementUses(_ context.Context, code string) error {
	m.increments = append(m.increments, code)
	return nil
}

func TestRepoValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name    string
		repo    *mockCouponRepo
		code    string
		gameID  string
		wantErr error
	}{
		{
			name:   "active percent coupon succeeds",
			repo:   &mockCouponRepo{c: &Coupon{Code: "SAVE10", Percent: decimal.NewFromInt(10), Active: true}},
			code:   "SAVE10",
			gameID: "g1",
		},
		{
			name:    "unknown code returns ErrNotFound",
			repo:    &mockCouponRepo{err: ErrNotFound},
			code:    "BOGUS",
			gameID:  "g1",
			wantErr: ErrNotFound,
		},
		{
			name:    "coupon scoped to another game is not applicable",
			repo:    &mockCouponRepo{c: &Coupon{Code: "ONLYG2", Percent: decimal.NewFromInt(10), Active: true, GameID: "g2"}},
			code:    "ONLYG2",
			gameID:  "g1",
			wantErr: ErrNotApplicable,
		},
		{
			name:   "coupon scoped to the matching game succeeds",
			repo:   &mockCouponRepo{c: &Coupon{Code: "ONLYG1", Percent: decimal.NewFromInt(10), Active: true, GameID: "g1"}},
			code:   "ONLYG1",
			gameID: "g1",
		},
		{
			name:    "expired coupon rejected",
			repo:    &mockCouponRepo{c: &Coupon{Code: "OLD", Percent: decimal.NewFromInt(10), Active: true, ExpiresAt: &pastTime}},
			code:    "OLD",
			gameID:  "g1",
			wantErr: ErrExpired,
		},
		{
			name:   "coupon expiring in the future succeeds",
			repo:   &mockCouponRepo{c: &Coupon{Code: "FRESH", Percent: decimal.NewFromInt(10), Active: true, ExpiresAt: &futureTime}},
			code:   "FRESH",
			gameID: "g1",
		},
		{
			name:   "coupon with no expiry never expires",
			repo:   &mockCouponRepo{c: &Coupon{Code: "FOREVER", Amount: decimal.NewFromInt(5), Active: true}},
			code:   "FOREVER",
			gameID: "g1",
		},
		{
			name:    "usage at limit is exhausted",
			repo:    &mockCouponRepo{c: &Coupon{Code: "LIMITED", Percent: decimal.NewFromInt(10), Active: true, MaxUses: 100, CurrentUses: 100}},
			code:    "LIMITED",
			gameID:  "g1",
			wantErr: ErrExhausted,
		},
		{
			name:   "usage under limit succeeds",
			repo:   &mockCouponRepo{c: &Coupon{Code: "HASROOM", Percent: decimal.NewFromInt(10), Active: true, MaxUses: 100, CurrentUses: 99}},
			code:   "HASROOM",
			gameID: "g1",
		},
		{
			name:   "zero max uses means unlimited",
			repo:   &mockCouponRepo{c: &Coupon{Code: "UNLIMITED", Amount: decimal.NewFromInt(5), Active: true, CurrentUses: 9999}},
			code:   "UNLIMITED",
			gameID: "g1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRepoValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			got, err := v.Validate(context.Background(), tt.code, tt.gameID)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
			}

			// Validation must never consume a use.
			assert.Empty(t, tt.repo.increments)
		})
	}
}

func TestRepoValidator_NormalizesCode(t *testing.T) {
	repo := &mockCouponRepo{c: &Coupon{Code: "SAVE10", Percent: decimal.NewFromInt(10), Active: true}}
	v := NewRepoValidator(repo)

	_, err := v.Validate(context.Background(), "  save10 ", "g1")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", repo.lookedUp)
}
