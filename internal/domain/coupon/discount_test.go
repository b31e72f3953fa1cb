package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name string
		base string
		c    *Coupon
		want string
	}{
		{
			name: "ten percent of 20.00",
			base: "20.00",
			c:    &Coupon{Code: "SAVE10", Percent: dec("10")},
			want: "2.00",
		},
		{
			name: "percent rounds to 2 decimal places",
			base: "19.90",
			c:    &Coupon{Code: "THIRD", Percent: dec("33")},
			want: "6.57",
		},
		{
			name: "hundred percent",
			base: "14.90",
			c:    &Coupon{Code: "FREEBIE", Percent: dec("100")},
			want: "14.90",
		},
		{
			name: "fixed amount below base",
			base: "20.00",
			c:    &Coupon{Code: "5OFF", Amount: dec("5")},
			want: "5.00",
		},
		{
			name: "fixed amount above base is capped",
			base: "10.00",
			c:    &Coupon{Code: "BIG", Amount: dec("50")},
			want: "10.00",
		},
		{
			name: "nil coupon grants nothing",
			base: "20.00",
			c:    nil,
			want: "0",
		},
		{
			name: "zero base",
			base: "0",
			c:    &Coupon{Code: "SAVE10", Percent: dec("10")},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discount(dec(tt.base), tt.c)
			assert.True(t, dec(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name string
		base string
		c    *Coupon
		want string
	}{
		{
			name: "percent discount applied",
			base: "20.00",
			c:    &Coupon{Code: "SAVE10", Percent: dec("10")},
			want: "18.00",
		},
		{
			name: "fixed discount larger than base floors at zero",
			base: "10.00",
			c:    &Coupon{Code: "BIG", Amount: dec("50")},
			want: "0",
		},
		{
			name: "no coupon keeps base price",
			base: "19.90",
			c:    nil,
			want: "19.90",
		},
		{
			name: "full percent discount reaches zero exactly",
			base: "19.90",
			c:    &Coupon{Code: "FREEBIE", Percent: dec("100")},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalPrice(dec(tt.base), tt.c)
			assert.True(t, dec(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
			assert.False(t, got.IsNegative(), "final price must never be negative")
		})
	}
}

// Repeated application over the same base must be stable: rendering a price
// many times cannot accumulate rounding drift.
func TestFinalPriceStableAcrossRenders(t *testing.T) {
	c := &Coupon{Code: "ODD", Percent: dec("33.33")}
	base := dec("19.99")

	first := FinalPrice(base, c)
	for range 100 {
		assert.True(t, first.Equal(FinalPrice(base, c)))
	}
}
