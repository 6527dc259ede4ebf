package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// Order is immutable after creation except for its status. Address and line
// item data are snapshots taken at commit time; later catalog or address-book
// edits never alter a persisted order.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      string          `json:"customer_id"`
	Status          string          `json:"status"`
	Subtotal        int64           `json:"subtotal"`
	TaxAmount       int64           `json:"tax_amount"`
	ShippingCost    int64           `json:"shipping_cost"`
	DiscountAmount  int64           `json:"discount_amount"`
	TotalAmount     int64           `json:"total_amount"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	BillingAddress  AddressSnapshot `json:"billing_address"`
	ShippingAddress AddressSnapshot `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a value copy of one cart line at commit time.
type OrderItem struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	VariantID   string `json:"variant_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	ColorName   string `json:"color_name"`
	SizeName    string `json:"size_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TotalPrice  int64  `json:"total_price"`
}

// AddressSnapshot is the fixed set of address fields carried into an order.
// Phone and company from the live address are deliberately not included.
type AddressSnapshot struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// Address is a customer's stored address. Only the snapshot subset of its
// fields ever reaches an order.
type Address struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	AddressLine1 string    `json:"address_line_1"`
	AddressLine2 string    `json:"address_line_2"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot copies the address fields that are carried into an order.
func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
}

// NewOrderNumber generates a human-shareable order number of the form
// ORD-1A2B3C4D. Uniqueness is enforced by the orders table; callers retry on
// the rare collision.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

// CanTransitionTo reports whether the order status may move to the target
// status.
func (o *Order) CanTransitionTo(status string) bool {
	allowed, ok := orderTransitions[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCanceled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCanceled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCanceled:   {},
}
