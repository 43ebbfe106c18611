// Package metrics exposes the core's prometheus instruments. They are served
// at /metrics on the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hourbank_sessions_opened_total",
		Help: "Clock-in operations committed.",
	})

	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hourbank_sessions_closed_total",
		Help: "Clock-out operations committed.",
	})

	HoursCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hourbank_hours_credited_total",
		Help: "Hours credited to balances, session and manual combined.",
	})

	HoursRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hourbank_hours_redeemed_total",
		Help: "Hours deducted by store redemptions.",
	})

	Redemptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hourbank_redemptions_total",
		Help: "Redemption receipts written.",
	})
)
