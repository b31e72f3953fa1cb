package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Discount calculates the discount a coupon grants on the given base price.
// Percentage coupons take base * percent / 100; fixed-amount coupons are
// capped at the base price so the buyer never goes below zero. A nil coupon
// grants nothing. Results are rounded to 2 decimal places.
func Discount(base decimal.Decimal, c *Coupon) decimal.Decimal {
	if c == nil || base.IsNegative() {
		return decimal.Zero
	}
	if c.Percent.IsPositive() {
		return base.Mul(c.Percent).Div(hundred).Round(2)
	}
	if c.Amount.IsPositive() {
		return decimal.Min(c.Amount, base).Round(2)
	}
	return decimal.Zero
}

// FinalPrice returns the payable amount after applying the coupon,
// floored at zero and rounded to 2 decimal places.
func FinalPrice(base decimal.Decimal, c *Coupon) decimal.Decimal {
	final := base.Sub(Discount(base, c))
	if final.IsNegative() {
		final = decimal.Zero
	}
	return final.Round(2)
}
