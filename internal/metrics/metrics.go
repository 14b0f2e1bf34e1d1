package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vd_quotes_total", Help: "Quote updates applied to the store"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vd_trades_total", Help: "Trades classified, by outcome"},
		[]string{"outcome"},
	)
	FilteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vd_trades_filtered_total", Help: "Trades dropped below the minimum notional"},
	)
	LargeTradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vd_trades_large_total", Help: "Trades at or above the large notional threshold"},
	)
	LateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vd_trades_late_total", Help: "Trades dropped for preceding the open window"},
	)
	MalformedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vd_events_malformed_total", Help: "Events dropped for missing price, size, or timestamp"},
	)
	WindowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vd_windows_total", Help: "Finalized windows emitted"},
	)
	ResultsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vd_results_dropped_total", Help: "Finalized windows dropped because the consumer lagged"},
	)
)

func init() {
	prometheus.MustRegister(
		QuotesTotal, TradesTotal, FilteredTotal, LargeTradesTotal,
		LateTotal, MalformedTotal, WindowsTotal, ResultsDroppedTotal,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
