// Package metrics exposes Prometheus instrumentation for the trading core:
//   - atc_orders_submitted_total{side,path} – accepted submissions
//   - atc_orders_rejected_total{side,path}  – venue rejections
//   - atc_quote_gate_aborts_total           – orders aborted by the quote gate
//   - atc_cancels_total{kind}               – cancels (single|replace|all)
//   - atc_commands_total{command}           – operator commands
//   - atc_session_state{state}              – BUY/SELL gate indicator
//   - atc_working_orders                    – occupied tracker slots
//
// Registered in init() and served from /metrics by the HTTP handler started
// in main.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atc_orders_submitted_total",
			Help: "Orders accepted by the venue",
		},
		[]string{"side", "path"}, // path: simple|book
	)

	ordersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atc_orders_rejected_total",
			Help: "Order submissions rejected by the venue",
		},
		[]string{"side", "path"},
	)

	gateAborts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atc_quote_gate_aborts_total",
			Help: "Orders aborted because the top quote was unusable",
		},
	)

	cancels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atc_cancels_total",
			Help: "Cancel actions sent to the venue",
		},
		[]string{"kind"}, // single|replace|all
	)

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atc_commands_total",
			Help: "Operator commands received",
		},
		[]string{"command"},
	)

	// Two labeled series flipped between 0/1 to keep dashboards simple.
	sessionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atc_session_state",
			Help: "Daily session gate state (BUY/SELL as separate labeled series)",
		},
		[]string{"state"},
	)

	workingOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atc_working_orders",
			Help: "Number of instruments with a working order tracked",
		},
	)
)

func init() {
	prometheus.MustRegister(ordersSubmitted, ordersRejected, gateAborts)
	prometheus.MustRegister(cancels, commands, sessionState, workingOrders)
}

func OrderSubmitted(side, path string) { ordersSubmitted.WithLabelValues(side, path).Inc() }
func OrderRejected(side, path string)  { ordersRejected.WithLabelValues(side, path).Inc() }
func GateAbort()                       { gateAborts.Inc() }
func Cancel(kind string)               { cancels.WithLabelValues(kind).Inc() }
func Command(command string)           { commands.WithLabelValues(command).Inc() }

func SessionState(state string) {
	for _, s := range []string{"BUY", "SELL"} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		sessionState.WithLabelValues(s).Set(value)
	}
}

func WorkingOrders(count int) { workingOrders.Set(float64(count)) }
