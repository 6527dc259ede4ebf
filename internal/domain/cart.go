package domain

import "time"

// MaxQuantityPerLine is the upper bound on a single cart line's quantity.
const MaxQuantityPerLine = 100

// Cart is the mutable collection of lines owned by one customer. One cart per
// customer; created lazily on the first add and emptied, not deleted, when an
// order commits.
type Cart struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem is one (variant, quantity) line. UnitPrice and the descriptor
// fields are resolved from the catalog at read time, never stored.
type CartItem struct {
	ID          string    `json:"id"`
	VariantID   string    `json:"variant_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	ColorName   string    `json:"color_name"`
	SizeName    string    `json:"size_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TotalPrice returns the line total (in cents), recomputed from the current
// unit price.
func (i *CartItem) TotalPrice() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// TotalAmount returns the cart subtotal in cents.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for i := range c.Items {
		total += c.Items[i].TotalPrice()
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for i := range c.Items {
		count += c.Items[i].Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the line for the given variant, or -1.
func (c *Cart) FindItemIndex(variantID string) int {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}
