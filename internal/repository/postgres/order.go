package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/internal/repository"
	"github.com/driftwear/storefront/pkg/database"
	apperrors "github.com/driftwear/storefront/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Commit converts a cart into a persisted order as one transaction: it locks
// and re-checks every variant's stock, re-validates the coupon under its row
// lock, decrements stock, increments coupon usage, inserts the order with its
// items, and clears the cart. Any failure rolls back with zero writes.
func (r *OrderRepository) Commit(ctx context.Context, input *repository.CommitInput) (*repository.CommitResult, error) {
	order := input.Order

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin commit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock variant rows in a stable order to avoid deadlocks between
	// concurrent checkouts touching overlapping variants.
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].VariantID < items[j].VariantID })

	lockQuery := `
		SELECT stock_quantity
		FROM product_variants
		WHERE id = $1
		FOR UPDATE`

	for i := range items {
		var stock int
		if err := tx.QueryRow(ctx, lockQuery, items[i].VariantID).Scan(&stock); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NotFound("variant", items[i].VariantID)
			}
			return nil, mapTxError(fmt.Errorf("lock variant row: %w", err))
		}
		if stock < items[i].Quantity {
			return nil, &domain.OutOfStockError{
				VariantID: items[i].VariantID,
				Requested: items[i].Quantity,
				Available: stock,
			}
		}
	}

	result := &repository.CommitResult{}

	// Re-validate the coupon under its row lock. Concurrent commits race on
	// used_count; the one that loses re-checks against the updated counter
	// and drops the discount rather than failing the order.
	if input.CouponCode != "" {
		applied, err := r.applyCouponLocked(ctx, tx, input)
		if err != nil {
			return nil, err
		}
		result.CouponApplied = applied
		if !applied {
			q := input.FallbackQuote
			order.Subtotal = q.Subtotal
			order.TaxAmount = q.TaxAmount
			order.ShippingCost = q.ShippingCost
			order.DiscountAmount = 0
			order.TotalAmount = q.TotalAmount
			order.CouponCode = ""
		}
	}

	decrementQuery := `
		UPDATE product_variants
		SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2`

	for i := range items {
		if _, err := tx.Exec(ctx, decrementQuery, items[i].Quantity, items[i].VariantID); err != nil {
			return nil, mapTxError(fmt.Errorf("decrement stock: %w", err))
		}
	}

	billingJSON, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return nil, fmt.Errorf("marshal billing address: %w", err)
	}
	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("marshal shipping address: %w", err)
	}

	var couponCode *string
	if order.CouponCode != "" {
		couponCode = &order.CouponCode
	}

	orderQuery := `
		INSERT INTO orders (id, order_number, customer_id, status, subtotal, tax_amount, shipping_cost,
		                    discount_amount, total_amount, coupon_code, billing_address, shipping_address,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, orderQuery,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.Status,
		order.Subtotal,
		order.TaxAmount,
		order.ShippingCost,
		order.DiscountAmount,
		order.TotalAmount,
		couponCode,
		billingJSON,
		shippingJSON,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return nil, mapTxError(fmt.Errorf("insert order: %w", err))
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, variant_id, product_name, sku, color_name, size_name,
		                         quantity, unit_price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.VariantID,
			item.ProductName,
			item.SKU,
			item.ColorName,
			item.SizeName,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			order.CreatedAt,
		)
		if err != nil {
			return nil, mapTxError(fmt.Errorf("insert order item: %w", err))
		}
	}

	clearQuery := `
		DELETE FROM cart_items
		WHERE cart_id = $1`

	if _, err := tx.Exec(ctx, clearQuery, input.CartID); err != nil {
		return nil, mapTxError(fmt.Errorf("clear cart items: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapTxError(fmt.Errorf("commit transaction: %w", err))
	}

	return result, nil
}

// applyCouponLocked locks the coupon row, re-validates it against the order
// subtotal, and increments used_count when still valid. It returns false when
// the coupon is gone or became invalid, which drops the discount without
// failing the commit.
func (r *OrderRepository) applyCouponLocked(ctx context.Context, tx pgx.Tx, input *repository.CommitInput) (bool, error) {
	lockQuery := `
		SELECT id, code, discount_type, discount_value, minimum_order_amount,
		       COALESCE(maximum_discount_amount, 0), COALESCE(usage_limit, 0), used_count,
		       valid_from, valid_to, is_active, created_at, updated_at
		FROM coupons
		WHERE code = $1
		FOR UPDATE`

	var c domain.Coupon
	err := tx.QueryRow(ctx, lockQuery, input.CouponCode).Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinimumOrderAmount,
		&c.MaximumDiscountAmount,
		&c.UsageLimit,
		&c.UsedCount,
		&c.ValidFrom,
		&c.ValidTo,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapTxError(fmt.Errorf("lock coupon row: %w", err))
	}

	if cerr := c.Validate(input.FallbackQuote.Subtotal, time.Now().UTC()); cerr != nil {
		return false, nil
	}

	incrementQuery := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1`

	if _, err := tx.Exec(ctx, incrementQuery, c.ID); err != nil {
		return false, mapTxError(fmt.Errorf("increment coupon usage: %w", err))
	}

	return true, nil
}

// GetByID retrieves an order with its items, scoped to the customer.
func (r *OrderRepository) GetByID(ctx context.Context, id, customerID string) (*domain.Order, error) {
	return r.getOne(ctx, "o.id = $1 AND o.customer_id = $2", id, customerID)
}

// GetByNumber retrieves an order by its order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.getOne(ctx, "o.order_number = $1", orderNumber)
}

func (r *OrderRepository) getOne(ctx context.Context, where string, args ...any) (*domain.Order, error) {
	// Fetch the order and its items in one query via LEFT JOIN + JSONB_AGG
	// to avoid a second round trip.
	query := `
		SELECT
			o.id, o.order_number, o.customer_id, o.status, o.subtotal, o.tax_amount,
			o.shipping_cost, o.discount_amount, o.total_amount, COALESCE(o.coupon_code, ''),
			o.billing_address, o.shipping_address, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'variant_id', oi.variant_id,
						'product_name', oi.product_name,
						'sku', oi.sku,
						'color_name', oi.color_name,
						'size_name', oi.size_name,
						'quantity', oi.quantity,
						'unit_price', oi.unit_price,
						'total_price', oi.total_price
					)
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE ` + where + `
		GROUP BY o.id`

	var (
		o            domain.Order
		billingJSON  []byte
		shippingJSON []byte
		itemsJSON    []byte
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&o.Status,
		&o.Subtotal,
		&o.TaxAmount,
		&o.ShippingCost,
		&o.DiscountAmount,
		&o.TotalAmount,
		&o.CouponCode,
		&billingJSON,
		&shippingJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := json.Unmarshal(billingJSON, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal billing address: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}

	return &o, nil
}

// ListByCustomer returns a page of the customer's orders without items,
// newest first, along with the total count.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string, page, perPage int) ([]domain.Order, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	query := `
		SELECT o.id, o.order_number, o.customer_id, o.status, o.subtotal, o.tax_amount,
		       o.shipping_cost, o.discount_amount, o.total_amount, COALESCE(o.coupon_code, ''),
		       o.created_at, o.updated_at,
		       count(*) OVER() AS total_count
		FROM orders o
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, customerID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders     []domain.Order
		totalCount int
	)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.CustomerID,
			&o.Status,
			&o.Subtotal,
			&o.TaxAmount,
			&o.ShippingCost,
			&o.DiscountAmount,
			&o.TotalAmount,
			&o.CouponCode,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, totalCount, nil
}

// mapTxError converts PostgreSQL contention errors into a retryable conflict
// and unique violations into AlreadyExists so callers can regenerate order
// numbers.
func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "55P03":
			return apperrors.Conflict("checkout conflicted with a concurrent request, please retry")
		case "23505":
			return apperrors.AlreadyExists("order", "order_number", pgErr.ConstraintName)
		}
	}
	return err
}
