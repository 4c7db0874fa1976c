package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Total number of cart operations by operation and realm",
	}, []string{"operation", "realm"})

	CartOperationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_failed_total",
		Help: "Total number of failed cart operations",
	}, []string{"operation", "realm"})

	GuestCartRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guest_cart_recoveries_total",
		Help: "Times a corrupt or unreadable guest cart was recovered as empty",
	})

	GuestCartMergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guest_cart_merges_total",
		Help: "Total number of guest carts merged into server carts at login",
	})

	PromotionEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promotion_evaluations_total",
		Help: "Total number of promotion evaluations by outcome",
	}, []string{"discounted"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	OrderTotalAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_total_guaranies",
		Help:    "Distribution of placed order totals in guaraníes",
		Buckets: prometheus.ExponentialBuckets(50000, 2, 10),
	})

	NotificationRelayTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_relay_total",
		Help: "Total number of checkout notification relay submissions",
	}, []string{"status"})

	CatalogCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_requests_total",
		Help: "Catalog cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
