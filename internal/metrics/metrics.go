// Package metrics exposes the bot's Prometheus instrumentation:
//   - bot_orders_total{side}        – market orders placed (BUY|SELL)
//   - bot_trades_closed_total{reason} – closed positions by close reason
//   - bot_position_open             – 1 while a position is held, 0 otherwise
//   - bot_monitor_ticks_total       – monitor loop iterations
//   - bot_feed_errors_total         – failed order book fetches
//   - bot_notify_errors_total       – failed notification deliveries
//   - bot_realized_profit           – cumulative realized profit
//
// Metrics are registered in init() and served at /metrics when a listen
// address is configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Market orders placed",
		},
		[]string{"side"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_trades_closed_total",
			Help: "Closed positions by close reason",
		},
		[]string{"reason"},
	)

	PositionOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_position_open",
			Help: "Whether a position is currently held",
		},
	)

	MonitorTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_monitor_ticks_total",
			Help: "Monitor loop iterations",
		},
	)

	FeedErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_feed_errors_total",
			Help: "Failed order book fetches",
		},
	)

	NotifyErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_notify_errors_total",
			Help: "Failed notification deliveries",
		},
	)

	RealizedProfit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_realized_profit",
			Help: "Cumulative realized profit in amount units",
		},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersPlaced,
		TradesClosed,
		PositionOpen,
		MonitorTicks,
		FeedErrors,
		NotifyErrors,
		RealizedProfit,
	)
}

// Handler returns the HTTP handler serving the Prometheus text exposition.
func Handler() http.Handler {
	return promhttp.Handler()
}
