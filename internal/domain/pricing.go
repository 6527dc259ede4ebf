package domain

// PricingPolicy holds the configurable tax and shipping rules. Amounts are in
// cents, the tax rate in basis points (800 = 8%).
type PricingPolicy struct {
	TaxRateBasisPoints    int64
	ShippingFlatFee       int64
	FreeShippingThreshold int64
}

// Quote is the priced breakdown for a cart.
type Quote struct {
	Subtotal       int64 `json:"subtotal"`
	TaxAmount      int64 `json:"tax_amount"`
	ShippingCost   int64 `json:"shipping_cost"`
	DiscountAmount int64 `json:"discount_amount"`
	TotalAmount    int64 `json:"total_amount"`
}

// Price computes the full quote for a subtotal and an already-computed
// discount. The total is floored at zero. An empty cart (zero subtotal)
// yields an all-zero quote so previews of empty carts don't charge shipping.
func (p PricingPolicy) Price(subtotal, discount int64) Quote {
	if subtotal <= 0 {
		return Quote{}
	}

	tax := subtotal * p.TaxRateBasisPoints / 10000

	var shipping int64
	if subtotal < p.FreeShippingThreshold {
		shipping = p.ShippingFlatFee
	}

	total := subtotal + tax + shipping - discount
	if total < 0 {
		total = 0
	}

	return Quote{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingCost:   shipping,
		DiscountAmount: discount,
		TotalAmount:    total,
	}
}
