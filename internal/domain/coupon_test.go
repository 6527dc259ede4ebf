package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCoupon() *Coupon {
	now := time.Now().UTC()
	return &Coupon{
		ID:            "coupon-1",
		Code:          "SAVE20",
		DiscountType:  DiscountTypePercentage,
		DiscountValue: 20,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidTo:       now.Add(24 * time.Hour),
		IsActive:      true,
	}
}

// ============================================================================
// Coupon.Validate Tests
// ============================================================================

func TestCouponValidate_Valid(t *testing.T) {
	c := validCoupon()
	assert.Nil(t, c.Validate(10000, time.Now().UTC()))
}

func TestCouponValidate_Inactive(t *testing.T) {
	c := validCoupon()
	c.IsActive = false

	err := c.Validate(10000, time.Now().UTC())
	require.NotNil(t, err)
	assert.Equal(t, CouponErrInvalid, err.Code)
}

func TestCouponValidate_NotYetValid(t *testing.T) {
	c := validCoupon()
	c.ValidFrom = time.Now().UTC().Add(time.Hour)

	err := c.Validate(10000, time.Now().UTC())
	require.NotNil(t, err)
	assert.Equal(t, CouponErrInvalid, err.Code)
}

func TestCouponValidate_Expired(t *testing.T) {
	c := validCoupon()
	c.ValidTo = time.Now().UTC().Add(-time.Hour)

	err := c.Validate(10000, time.Now().UTC())
	require.NotNil(t, err)
	assert.Equal(t, CouponErrInvalid, err.Code)
	assert.Contains(t, err.Message, "expired")
}

func TestCouponValidate_UsageLimitReached(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = 10
	c.UsedCount = 10

	err := c.Validate(10000, time.Now().UTC())
	require.NotNil(t, err)
	assert.Equal(t, CouponErrInvalid, err.Code)
}

func TestCouponValidate_UsageBelowLimit(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = 10
	c.UsedCount = 9

	assert.Nil(t, c.Validate(10000, time.Now().UTC()))
}

func TestCouponValidate_NoUsageLimit(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = 0
	c.UsedCount = 1000000

	assert.Nil(t, c.Validate(10000, time.Now().UTC()))
}

func TestCouponValidate_BelowMinimum(t *testing.T) {
	c := validCoupon()
	c.MinimumOrderAmount = 5000

	err := c.Validate(4999, time.Now().UTC())
	require.NotNil(t, err)
	assert.Equal(t, CouponErrBelowMinimum, err.Code)
}

func TestCouponValidate_ExactlyAtMinimum(t *testing.T) {
	c := validCoupon()
	c.MinimumOrderAmount = 5000

	assert.Nil(t, c.Validate(5000, time.Now().UTC()))
}

// ============================================================================
// Coupon.Discount Tests
// ============================================================================

func TestCouponDiscount_Percentage(t *testing.T) {
	c := &Coupon{DiscountType: DiscountTypePercentage, DiscountValue: 20}
	// 20% of 100.00 = 20.00
	assert.Equal(t, int64(2000), c.Discount(10000))
}

func TestCouponDiscount_PercentageClampedToMax(t *testing.T) {
	c := &Coupon{
		DiscountType:          DiscountTypePercentage,
		DiscountValue:         20,
		MaximumDiscountAmount: 1000,
	}
	// Raw discount 20.00, clamped to the 10.00 cap.
	assert.Equal(t, int64(1000), c.Discount(10000))
}

func TestCouponDiscount_PercentageBelowMaxNotClamped(t *testing.T) {
	c := &Coupon{
		DiscountType:          DiscountTypePercentage,
		DiscountValue:         10,
		MaximumDiscountAmount: 5000,
	}
	assert.Equal(t, int64(1000), c.Discount(10000))
}

func TestCouponDiscount_Fixed(t *testing.T) {
	c := &Coupon{DiscountType: DiscountTypeFixed, DiscountValue: 1500}
	assert.Equal(t, int64(1500), c.Discount(10000))
}

func TestCouponDiscount_FixedClampedToSubtotal(t *testing.T) {
	c := &Coupon{DiscountType: DiscountTypeFixed, DiscountValue: 5000}
	assert.Equal(t, int64(3000), c.Discount(3000))
}

func TestCouponDiscount_UnknownType(t *testing.T) {
	c := &Coupon{DiscountType: "bogus", DiscountValue: 5000}
	assert.Equal(t, int64(0), c.Discount(10000))
}
