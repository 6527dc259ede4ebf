package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/driftwear/storefront/internal/domain"
	"github.com/driftwear/storefront/pkg/database"
)

// CouponRepository implements repository.CouponRepository using PostgreSQL.
type CouponRepository struct {
	pool database.DBTX
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool database.DBTX) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// GetByCode retrieves a coupon by its code (case-insensitive). A missing
// coupon is a domain-level CouponError, not an infrastructure error, so
// callers can degrade gracefully.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, minimum_order_amount,
		       COALESCE(maximum_discount_amount, 0), COALESCE(usage_limit, 0), used_count,
		       valid_from, valid_to, is_active, created_at, updated_at
		FROM coupons
		WHERE code = $1`

	var c domain.Coupon
	err := r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))).Scan(
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
			return nil, domain.NewCouponError(domain.CouponErrNotFound, "coupon not found")
		}
		return nil, fmt.Errorf("get coupon by code: %w", err)
	}

	return &c, nil
}
