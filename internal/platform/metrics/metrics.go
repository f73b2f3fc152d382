package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "storefront_"

	resultOK    = "ok"
	resultError = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	pricingQuotes       prometheus.Counter
	invoiceRenders      *prometheus.CounterVec
	subscriptionToggles *prometheus.CounterVec
)

// Init registers the service metrics with the default prometheus registry.
// Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		pricingQuotes = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "pricing_quotes_total",
				Help: "Total pricing breakdowns computed",
			},
		)
		invoiceRenders = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_renders_total",
				Help: "Total invoice documents rendered by format",
			},
			[]string{"format"},
		)
		subscriptionToggles = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stock_subscription_toggles_total",
				Help: "Total stock subscription toggles by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			pricingQuotes,
			invoiceRenders,
			subscriptionToggles,
		)
	})
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePricingQuote counts one pricing engine evaluation.
func ObservePricingQuote() {
	if pricingQuotes != nil {
		pricingQuotes.Inc()
	}
}

// ObserveInvoiceRender counts one invoice render in the given format ("json", "pdf", "share").
func ObserveInvoiceRender(format string) {
	if invoiceRenders != nil {
		invoiceRenders.WithLabelValues(format).Inc()
	}
}

// ObserveSubscriptionToggle counts one subscription toggle outcome.
func ObserveSubscriptionToggle(err error) {
	if subscriptionToggles == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	subscriptionToggles.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency per chi route pattern.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpRequests == nil {
				next.ServeHTTP(w, r)
				return
			}
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
			httpLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if status >= 100 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}
