package domain

import "time"

// Variant is a purchasable unit of a product at a specific color/size
// combination with its own stock level. FinalPrice is resolved at read time
// from the product's current price plus the variant adjustment.
type Variant struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	ColorName   string    `json:"color_name"`
	SizeName    string    `json:"size_name"`
	FinalPrice  int64     `json:"final_price"`
	StockQty    int       `json:"stock_quantity"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InStock reports whether the requested quantity can currently be fulfilled.
func (v *Variant) InStock(qty int) bool {
	return qty > 0 && qty <= v.StockQty
}
