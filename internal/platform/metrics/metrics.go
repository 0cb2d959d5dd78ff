package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process registry. Every method is safe on a nil receiver
// so services can be built without metrics in tests.
type Collector struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	slipsProcessed   *prometheus.CounterVec
	transfers        *prometheus.CounterVec
	numbersAllocated *prometheus.CounterVec
	localWrites      *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestao_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gestao_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		slipsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestao_payroll_slips_total",
			Help: "Salary slips by outcome (processed, voided).",
		}, []string{"outcome"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestao_settlement_transfers_total",
			Help: "Cash-transfer settlements by result.",
		}, []string{"result"}),
		numbersAllocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestao_series_numbers_allocated_total",
			Help: "Document numbers issued by document type.",
		}, []string{"doc_type"}),
		localWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestao_fallback_local_writes_total",
			Help: "Writes kept only in the local cache after a remote failure.",
		}, []string{"collection"}),
	}
	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.slipsProcessed,
		c.transfers,
		c.numbersAllocated,
		c.localWrites,
		collectors.NewGoCollector(),
	)
	c.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return c.handler
}

// Middleware records one sample per request labelled by the chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		c.Record(routePattern(r), recorder.status, time.Since(start))
	})
}

func (c *Collector) Record(route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (c *Collector) SlipProcessed() {
	if c == nil {
		return
	}
	c.slipsProcessed.WithLabelValues("processed").Inc()
}

func (c *Collector) SlipsVoided(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.slipsProcessed.WithLabelValues("voided").Add(float64(n))
}

func (c *Collector) Transfer(result string) {
	if c == nil {
		return
	}
	c.transfers.WithLabelValues(result).Inc()
}

func (c *Collector) NumberAllocated(docType string) {
	if c == nil {
		return
	}
	c.numbersAllocated.WithLabelValues(docType).Inc()
}

func (c *Collector) LocalWrite(collection string) {
	if c == nil {
		return
	}
	c.localWrites.WithLabelValues(collection).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
