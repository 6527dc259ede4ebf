package domain

import (
	"fmt"
	"time"
)

// Coupon discount type constants.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Coupon is a redeemable discount code. UsedCount is mutated only inside a
// successful order commit, never by preview calls.
type Coupon struct {
	ID                    string    `json:"id"`
	Code                  string    `json:"code"`
	DiscountType          string    `json:"discount_type"`
	DiscountValue         int64     `json:"discount_value"`
	MinimumOrderAmount    int64     `json:"minimum_order_amount"`
	MaximumDiscountAmount int64     `json:"maximum_discount_amount"`
	UsageLimit            int       `json:"usage_limit"`
	UsedCount             int       `json:"used_count"`
	ValidFrom             time.Time `json:"valid_from"`
	ValidTo               time.Time `json:"valid_to"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Validate checks the coupon's validity predicate against the given subtotal
// at the given instant. It returns nil when the coupon can be applied.
func (c *Coupon) Validate(subtotal int64, now time.Time) *CouponError {
	if !c.IsActive {
		return NewCouponError(CouponErrInvalid, "coupon is not active")
	}
	if now.Before(c.ValidFrom) {
		return NewCouponError(CouponErrInvalid, "coupon is not yet valid")
	}
	if now.After(c.ValidTo) {
		return NewCouponError(CouponErrInvalid, "coupon has expired")
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return NewCouponError(CouponErrInvalid, "coupon usage limit reached")
	}
	if subtotal < c.MinimumOrderAmount {
		return NewCouponError(CouponErrBelowMinimum,
			fmt.Sprintf("order subtotal %d is below the coupon minimum of %d", subtotal, c.MinimumOrderAmount))
	}
	return nil
}

// Discount computes the discount amount (in cents) for the given subtotal.
// Percentage values are whole percent units; the result is capped at
// MaximumDiscountAmount when set. Fixed discounts are capped at the subtotal
// so a coupon alone can never push the order total negative.
func (c *Coupon) Discount(subtotal int64) int64 {
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount := subtotal * c.DiscountValue / 100
		if c.MaximumDiscountAmount > 0 && discount > c.MaximumDiscountAmount {
			discount = c.MaximumDiscountAmount
		}
		return discount

	case DiscountTypeFixed:
		if c.DiscountValue > subtotal {
			return subtotal
		}
		return c.DiscountValue

	default:
		return 0
	}
}

// DiscountResult is the outcome of a successful coupon evaluation. It is a
// pure value; producing it has no side effects on the coupon.
type DiscountResult struct {
	Code           string `json:"code"`
	DiscountType   string `json:"discount_type"`
	DiscountAmount int64  `json:"discount_amount"`
}
