// Package metrics exposes Prometheus collectors for the till and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

const namespace = "patio"

// Metrics holds the collectors on a private registry. It implements ledger.Observer.
type Metrics struct {
	Registry *prometheus.Registry

	movements     *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	settledAmount prometheus.Counter
	settledItems  prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		movements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "movements_total",
				Help:      "Movements recorded, by kind and method.",
			},
			[]string{"kind", "method"},
		),
		settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "settlements_total",
				Help:      "Settlement attempts, by result.",
			},
			[]string{"result"},
		),
		settledAmount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "settled_amount_total",
				Help:      "Sum of all settlement payments in reais.",
			},
		),
		settledItems: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "settled_items",
				Help:      "Number of sales consolidated per settlement.",
				Buckets:   prometheus.LinearBuckets(1, 2, 8),
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "route"},
		),
	}

	m.Registry.MustRegister(
		m.movements,
		m.settlements,
		m.settledAmount,
		m.settledItems,
		m.httpRequests,
		m.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) MovementRecorded(mv *ledger.Movement) {
	m.movements.WithLabelValues(string(mv.Kind), string(mv.Method)).Inc()
}

func (m *Metrics) Settled(s *ledger.Settlement) {
	m.settlements.WithLabelValues("ok").Inc()
	m.movements.WithLabelValues(string(s.Payment.Kind), string(s.Payment.Method)).Inc()
	m.settledAmount.Add(s.Payment.Amount.InexactFloat64())
	m.settledItems.Observe(float64(len(s.Settled)))
}

func (m *Metrics) SettlementRejected(*ledger.ValidationError) {
	m.settlements.WithLabelValues("rejected").Inc()
}

func (m *Metrics) SettlementFailed(*ledger.StorageError) {
	m.settlements.WithLabelValues("failed").Inc()
}
