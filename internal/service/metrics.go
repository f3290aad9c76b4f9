package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_remote_fetch_total",
			Help: "Partition loads from the shop API by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	wishlistTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_wishlist_toggles_total",
			Help: "Wishlist toggle attempts by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)
