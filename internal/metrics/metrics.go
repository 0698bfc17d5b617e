package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignalsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "connector_signals_received_total", Help: "Pending signals fetched from the backend"},
	)
	SignalsReported = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "connector_signals_reported_total", Help: "Signal status reports sent"},
		[]string{"status"},
	)
	OrdersExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "connector_orders_executed_total", Help: "Orders executed on the terminal"},
		[]string{"symbol", "side"},
	)
	ReportsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "connector_reports_sent_total", Help: "State reports pushed to the backend"},
		[]string{"kind"},
	)
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "connector_errors_total", Help: "Failed backend calls by class"},
		[]string{"class"},
	)
)

func init() {
	prometheus.MustRegister(SignalsReceived, SignalsReported, OrdersExecuted, ReportsSent, Errors)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
