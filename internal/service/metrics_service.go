package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the change feed. It implements feed.Metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	feedSubscribers prometheus.Gauge
	feedDelivered   prometheus.Counter
	feedDropped     prometheus.Counter
	pushDispatched  prometheus.Counter
}

// NewMetricsService registers the core collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	feedSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_subscribers",
		Help: "Currently attached change feed subscribers",
	})

	feedDelivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_events_delivered_total",
		Help: "Change feed events delivered to subscribers",
	})

	feedDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_events_dropped_total",
		Help: "Change feed events dropped for slow subscribers",
	})

	pushDispatched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_dispatches_total",
		Help: "Push delivery fan-outs enqueued",
	})

	registry.MustRegister(requestDuration, requestTotal, feedSubscribers, feedDelivered, feedDropped, pushDispatched)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		feedSubscribers: feedSubscribers,
		feedDelivered:   feedDelivered,
		feedDropped:     feedDropped,
		pushDispatched:  pushDispatched,
	}
}

// Handler exposes the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one HTTP request.
func (s *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// FeedSubscribers adjusts the live subscriber gauge.
func (s *MetricsService) FeedSubscribers(delta int) {
	s.feedSubscribers.Add(float64(delta))
}

// FeedDelivered counts one delivered feed event.
func (s *MetricsService) FeedDelivered() {
	s.feedDelivered.Inc()
}

// FeedDropped counts one dropped feed event.
func (s *MetricsService) FeedDropped() {
	s.feedDropped.Inc()
}

// PushDispatched counts one push fan-out.
func (s *MetricsService) PushDispatched() {
	s.pushDispatched.Inc()
}
