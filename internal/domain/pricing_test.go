package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultPolicy() PricingPolicy {
	return PricingPolicy{
		TaxRateBasisPoints:    800,
		ShippingFlatFee:       500,
		FreeShippingThreshold: 5000,
	}
}

func TestPrice_BelowFreeShippingThreshold(t *testing.T) {
	// Subtotal 45.00 with a 50.00 threshold charges the 5.00 flat fee.
	q := defaultPolicy().Price(4500, 0)

	assert.Equal(t, int64(4500), q.Subtotal)
	assert.Equal(t, int64(360), q.TaxAmount)
	assert.Equal(t, int64(500), q.ShippingCost)
	assert.Equal(t, int64(5360), q.TotalAmount)
}

func TestPrice_AboveFreeShippingThreshold(t *testing.T) {
	// Subtotal 60.00 ships free.
	q := defaultPolicy().Price(6000, 0)

	assert.Equal(t, int64(480), q.TaxAmount)
	assert.Equal(t, int64(0), q.ShippingCost)
	assert.Equal(t, int64(6480), q.TotalAmount)
}

func TestPrice_ExactlyAtThreshold(t *testing.T) {
	q := defaultPolicy().Price(5000, 0)
	assert.Equal(t, int64(0), q.ShippingCost)
}

func TestPrice_WithDiscount(t *testing.T) {
	q := defaultPolicy().Price(10000, 1000)

	assert.Equal(t, int64(1000), q.DiscountAmount)
	// 10000 + 800 tax + 0 shipping - 1000 discount
	assert.Equal(t, int64(9800), q.TotalAmount)
}

func TestPrice_TotalIdentityHolds(t *testing.T) {
	for _, subtotal := range []int64{1, 999, 4500, 5000, 123456} {
		for _, discount := range []int64{0, 100, 2500} {
			q := defaultPolicy().Price(subtotal, discount)
			expected := q.Subtotal + q.TaxAmount + q.ShippingCost - q.DiscountAmount
			if expected < 0 {
				expected = 0
			}
			assert.Equal(t, expected, q.TotalAmount,
				"subtotal=%d discount=%d", subtotal, discount)
		}
	}
}

func TestPrice_TotalFlooredAtZero(t *testing.T) {
	q := defaultPolicy().Price(1000, 500000)
	assert.Equal(t, int64(0), q.TotalAmount)
}

func TestPrice_EmptyCartIsAllZero(t *testing.T) {
	q := defaultPolicy().Price(0, 0)
	assert.Equal(t, Quote{}, q)
}

func TestPrice_ZeroTaxRate(t *testing.T) {
	p := PricingPolicy{TaxRateBasisPoints: 0, ShippingFlatFee: 500, FreeShippingThreshold: 5000}
	q := p.Price(10000, 0)
	assert.Equal(t, int64(0), q.TaxAmount)
	assert.Equal(t, int64(10000), q.TotalAmount)
}
