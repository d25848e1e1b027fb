package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	shares   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "home_services",
			Subsystem: "grpc",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight RPCs.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "home_services",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Total number of RPCs handled.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "home_services",
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPCs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method"}),
		shares: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "home_services",
			Subsystem: "referrals",
			Name:      "shares_total",
			Help:      "Referral card shares recorded.",
		}),
	}
	m.Registry.MustRegister(
		m.inFlight,
		m.requests,
		m.duration,
		m.shares,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// UnaryInterceptor records count, latency and in-flight RPCs.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		resp, err := next(ctx, req)
		m.requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.duration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// RecordShare counts one referral share.
func (m *Metrics) RecordShare() {
	if m == nil {
		return
	}
	m.shares.Inc()
}
