package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout outcome labels.
const (
	outcomeCommitted     = "committed"
	outcomeOutOfStock    = "out_of_stock"
	outcomeConflict      = "conflict"
	outcomeRejected      = "rejected"
	outcomeError         = "error"
	outcomeIdempotentHit = "idempotent_hit"
)

var (
	checkoutCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_commits_total",
			Help: "Total number of checkout commit attempts by outcome",
		},
		[]string{"outcome"},
	)

	couponWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_checkout_coupon_warnings_total",
			Help: "Total number of checkouts that committed with a degraded coupon",
		},
	)
)
