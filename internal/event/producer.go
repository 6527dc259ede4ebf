package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftwear/storefront/internal/domain"
	pkgkafka "github.com/driftwear/storefront/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicOrderCreated     = "storefront.order.created"
	TopicCouponRedeemed   = "storefront.coupon.redeemed"
	TopicStockDecremented = "storefront.stock.decremented"
	TopicCartUpdated      = "storefront.cart.updated"
	TopicCartCleared      = "storefront.cart.cleared"
)

// Aggregate type constants.
const (
	AggregateTypeOrder  = "order"
	AggregateTypeCart   = "cart"
	AggregateTypeCoupon = "coupon"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// OrderCreatedData is the payload for an order.created event (full snapshot).
type OrderCreatedData struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	CustomerID      string                 `json:"customer_id"`
	Status          string                 `json:"status"`
	Items           []OrderItemData        `json:"items"`
	Subtotal        int64                  `json:"subtotal"`
	TaxAmount       int64                  `json:"tax_amount"`
	ShippingCost    int64                  `json:"shipping_cost"`
	DiscountAmount  int64                  `json:"discount_amount"`
	TotalAmount     int64                  `json:"total_amount"`
	CouponCode      string                 `json:"coupon_code,omitempty"`
	BillingAddress  domain.AddressSnapshot `json:"billing_address"`
	ShippingAddress domain.AddressSnapshot `json:"shipping_address"`
}

// OrderItemData is the event payload for an order item.
type OrderItemData struct {
	ID          string `json:"id"`
	VariantID   string `json:"variant_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TotalPrice  int64  `json:"total_price"`
}

// CouponRedeemedData is the payload for a coupon.redeemed event.
type CouponRedeemedData struct {
	Code           string `json:"code"`
	OrderID        string `json:"order_id"`
	CustomerID     string `json:"customer_id"`
	DiscountAmount int64  `json:"discount_amount"`
}

// StockDecrementedData is the payload for a stock.decremented event.
type StockDecrementedData struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	OrderID   string `json:"order_id"`
}

// CartUpdatedData is the payload for cart.updated and cart.cleared events.
type CartUpdatedData struct {
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id"`
	ItemCount  int    `json:"item_count"`
	Subtotal   int64  `json:"subtotal"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event with the full order
// snapshot, followed by stock.decremented events per line and a
// coupon.redeemed event when a coupon was applied.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			ID:          item.ID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}

	data := OrderCreatedData{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		Status:          order.Status,
		Items:           items,
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		ShippingCost:    order.ShippingCost,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		CouponCode:      order.CouponCode,
		BillingAddress:  order.BillingAddress,
		ShippingAddress: order.ShippingAddress,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
	)

	return nil
}

// PublishStockDecremented publishes one stock.decremented event per order line.
func (p *Producer) PublishStockDecremented(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		data := StockDecrementedData{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			OrderID:   order.ID,
		}

		event, err := pkgkafka.NewEvent(TopicStockDecremented, item.VariantID, AggregateTypeOrder, SourceStorefront, data)
		if err != nil {
			return fmt.Errorf("create stock.decremented event: %w", err)
		}

		if err := p.kafka.Publish(ctx, TopicStockDecremented, event); err != nil {
			return fmt.Errorf("publish stock.decremented event: %w", err)
		}
	}

	return nil
}

// PublishCouponRedeemed publishes a coupon.redeemed event.
func (p *Producer) PublishCouponRedeemed(ctx context.Context, order *domain.Order) error {
	data := CouponRedeemedData{
		Code:           order.CouponCode,
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		DiscountAmount: order.DiscountAmount,
	}

	event, err := pkgkafka.NewEvent(TopicCouponRedeemed, order.CouponCode, AggregateTypeCoupon, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create coupon.redeemed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCouponRedeemed, event); err != nil {
		return fmt.Errorf("publish coupon.redeemed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published coupon.redeemed event",
		slog.String("code", order.CouponCode),
		slog.String("order_id", order.ID),
	)

	return nil
}

// PublishCartUpdated publishes a cart.updated event with the new totals.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		CartID:     cart.ID,
		CustomerID: cart.CustomerID,
		ItemCount:  cart.ItemCount(),
		Subtotal:   cart.TotalAmount(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.ID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	return nil
}

// PublishCartCleared publishes a cart.cleared event after a successful
// checkout empties the cart.
func (p *Producer) PublishCartCleared(ctx context.Context, cartID, customerID string) error {
	data := CartUpdatedData{
		CartID:     cartID,
		CustomerID: customerID,
	}

	event, err := pkgkafka.NewEvent(TopicCartCleared, cartID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	return nil
}
