package metrics

import (
	"net/http"
	"strconv"
	"time"

	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faultwatch"

// Registry is what Collector needs from a prometheus registry.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Collector exposes cycle outcomes and API traffic as prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	cycles            prometheus.Counter
	sourceUnavailable prometheus.Counter
	defaulted         *prometheus.CounterVec
	inferenceErrors   prometheus.Counter
	predictions       *prometheus.CounterVec
	reading           *prometheus.GaugeVec
	stale             prometheus.Gauge

	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg.
func New(reg Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		gatherer: reg,

		cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of poll cycles",
		}),
		sourceUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_unavailable_total",
			Help:      "Total number of cycles without telemetry from the source",
		}),
		defaulted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defaulted_fields_total",
			Help:      "Total number of reading fields replaced by their default",
		}, []string{"field"}),
		inferenceErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_errors_total",
			Help:      "Total number of failed inference calls",
		}),
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of predictions by fault label",
		}, []string{"label"}),
		reading: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading",
			Help:      "Last normalized reading by field",
		}, []string{"field"}),
		stale: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "prediction_stale",
			Help:      "1 when the reported prediction is from an earlier cycle",
		}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveCycle records the outcome of one poll cycle.
func (c *Collector) ObserveCycle(e history.Entry) {
	c.cycles.Inc()

	if !e.SourceOK {
		c.sourceUnavailable.Inc()
	}
	for _, name := range e.Defaulted {
		c.defaulted.WithLabelValues(name).Inc()
	}
	for _, f := range telemetry.Schema {
		c.reading.WithLabelValues(f.String()).Set(e.Reading.Get(f))
	}

	if e.InferenceError != "" {
		c.inferenceErrors.Inc()
	}
	if e.Stale {
		c.stale.Set(1)
	} else {
		c.stale.Set(0)
		if e.Label != "" {
			c.predictions.WithLabelValues(e.Label).Inc()
		}
	}
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
