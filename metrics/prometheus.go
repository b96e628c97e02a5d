// Package metrics registers the core's Prometheus instruments. Nothing
// here starts an HTTP exporter; wiring /metrics up to promhttp is left to
// whatever process embeds this module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersAcceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobcore_orders_accepted_total",
			Help: "Total number of orders accepted into the mailbox",
		},
		[]string{"instrument", "side", "traits"},
	)

	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobcore_orders_rejected_total",
			Help: "Total number of orders rejected before entering the book",
		},
		[]string{"instrument", "reason"},
	)

	OrdersUnmatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobcore_orders_unmatched_total",
			Help: "Total number of orders or residuals dropped to the unmatched queue",
		},
		[]string{"instrument", "reason"},
	)

	OrderLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lobcore_order_latency_seconds",
			Help:    "Time taken to process a single mailbox command",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
		[]string{"instrument", "kind"},
	)

	CurrentOrderbookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lobcore_orderbook_depth",
			Help: "Current number of resting orders on one side of the book",
		},
		[]string{"instrument", "side"},
	)

	CurrentOrderbookLevels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lobcore_orderbook_levels",
			Help: "Current number of distinct resting prices on one side of the book",
		},
		[]string{"instrument", "side"},
	)

	BestBidPrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lobcore_best_bid_price",
			Help: "Current best bid price",
		},
		[]string{"instrument"},
	)

	BestAskPrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lobcore_best_ask_price",
			Help: "Current best ask price",
		},
		[]string{"instrument"},
	)

	OrderbookSpread = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lobcore_orderbook_spread",
			Help: "Current spread between best ask and best bid",
		},
		[]string{"instrument"},
	)

	TradesExecutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobcore_trades_executed_total",
			Help: "Total number of trades executed",
		},
		[]string{"instrument"},
	)

	TradedVolumeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobcore_traded_volume_total",
			Help: "Total size traded",
		},
		[]string{"instrument"},
	)

	TradeSizeDistribution = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lobcore_trade_size_distribution",
			Help:    "Distribution of trade sizes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"instrument"},
	)

	MailboxQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lobcore_mailbox_queue_depth",
			Help: "Current number of commands queued in an engine's mailbox",
		},
		[]string{"instrument"},
	)
)

// RecordOrderAccepted increments the accepted-orders counter.
func RecordOrderAccepted(instrument, side, traits string) {
	OrdersAcceptedTotal.WithLabelValues(instrument, side, traits).Inc()
}

// RecordOrderRejected increments the rejected-orders counter.
func RecordOrderRejected(instrument, reason string) {
	OrdersRejectedTotal.WithLabelValues(instrument, reason).Inc()
}

// RecordOrderUnmatched increments the unmatched-orders counter.
func RecordOrderUnmatched(instrument, reason string) {
	OrdersUnmatchedTotal.WithLabelValues(instrument, reason).Inc()
}

// RecordOrderLatency observes how long a mailbox command took to process.
func RecordOrderLatency(instrument, kind string, seconds float64) {
	OrderLatencySeconds.WithLabelValues(instrument, kind).Observe(seconds)
}

// UpdateOrderbookDepth sets the resting order count gauge for one side.
func UpdateOrderbookDepth(instrument, side string, depth float64) {
	CurrentOrderbookDepth.WithLabelValues(instrument, side).Set(depth)
}

// UpdateOrderbookLevels sets the distinct-price-count gauge for one side.
func UpdateOrderbookLevels(instrument, side string, levels float64) {
	CurrentOrderbookLevels.WithLabelValues(instrument, side).Set(levels)
}

// UpdateBestPrices sets the best bid/ask gauges and derives the spread.
func UpdateBestPrices(instrument string, bestBid float64, hasBid bool, bestAsk float64, hasAsk bool) {
	if hasBid {
		BestBidPrice.WithLabelValues(instrument).Set(bestBid)
	}
	if hasAsk {
		BestAskPrice.WithLabelValues(instrument).Set(bestAsk)
	}
	if hasBid && hasAsk {
		OrderbookSpread.WithLabelValues(instrument).Set(bestAsk - bestBid)
	}
}

// RecordTrade records one execution's contribution to the trade counters.
func RecordTrade(instrument string, size float64) {
	TradesExecutedTotal.WithLabelValues(instrument).Inc()
	TradedVolumeTotal.WithLabelValues(instrument).Add(size)
	TradeSizeDistribution.WithLabelValues(instrument).Observe(size)
}

// UpdateMailboxDepth sets the current mailbox queue depth gauge.
func UpdateMailboxDepth(instrument string, depth float64) {
	MailboxQueueDepth.WithLabelValues(instrument).Set(depth)
}
