// Package metrics instruments the DSpace transport with Prometheus metrics.
//
//	m := metrics.New("dspace")
//	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
//	    return err
//	}
//	tr := transport.NewHTTPTransport(transport.WithMiddleware(m.Middleware()))
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smnsjas/go-dspace/transport"
)

// Collector holds the client request metrics. Labels are the HTTP method,
// the REST resource (see Resource) and the response status.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// New creates a collector whose metric names start with namespace.
func New(namespace string) *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total REST requests by method, resource and status.",
			},
			[]string{"method", "resource", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "REST request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "resource", "status"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "transport_errors_total",
				Help:      "Requests that failed without an HTTP response.",
			},
			[]string{"method", "resource"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_in_flight",
				Help:      "Requests currently waiting for a response.",
			},
		),
	}
}

// Register registers every metric with reg. When an identical metric is
// already registered, for example by another client sharing the registry,
// the collector adopts the existing one.
func (c *Collector) Register(reg prometheus.Registerer) error {
	var err error
	if c.requests, err = register(reg, c.requests); err != nil {
		return err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return err
	}
	if c.failures, err = register(reg, c.failures); err != nil {
		return err
	}
	if c.inFlight, err = register(reg, c.inFlight); err != nil {
		return err
	}
	return nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	err := reg.Register(col)
	if err == nil {
		return col, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return col, err
}

// Middleware records every request passing through the transport.
func (c *Collector) Middleware() transport.Middleware {
	return func(req *http.Request, next transport.RoundTripFunc) (*http.Response, error) {
		resource := Resource(req.URL.Path)

		c.inFlight.Inc()
		start := time.Now()
		resp, err := next(req)
		elapsed := time.Since(start)
		c.inFlight.Dec()

		if err != nil {
			c.failures.WithLabelValues(req.Method, resource).Inc()
			return resp, err
		}

		status := strconv.Itoa(resp.StatusCode)
		c.requests.WithLabelValues(req.Method, resource, status).Inc()
		c.duration.WithLabelValues(req.Method, resource, status).Observe(elapsed.Seconds())
		return resp, nil
	}
}

// resources are the top-level REST resources used as label values.
var resources = map[string]bool{
	"communities":          true,
	"collections":          true,
	"items":                true,
	"bitstreams":           true,
	"handle":               true,
	"hierarchy":            true,
	"login":                true,
	"logout":               true,
	"status":               true,
	"test":                 true,
	"filtered-items":       true,
	"filtered-collections": true,
}

// Resource maps a request path to a bounded label value: the first path
// segment naming a known REST resource, "root" for a path without one that
// ends in a slash, and "other" otherwise. IDs never appear in labels.
func Resource(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if resources[seg] {
			return seg
		}
	}
	if strings.HasSuffix(path, "/") {
		return "root"
	}
	return "other"
}
