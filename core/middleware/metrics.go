package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/miladsoleymani/mqtttester/core"
)

// MetricsCollector is the interface that metrics backends must implement.
type MetricsCollector interface {
	// MessageProcessed records that a publication received on topic was
	// handled in duration; err is nil on success.
	MessageProcessed(topic string, duration time.Duration, err error)
}

// Metrics returns middleware that reports processing metrics to the given collector.
func Metrics(collector MetricsCollector) core.Middleware {
	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx context.Context, msg core.ReceivedMessage) error {
			start := time.Now()
			err := next.Handle(ctx, msg)
			collector.MessageProcessed(msg.Topic, time.Since(start), err)
			return err
		})
	}
}

// PrometheusCollector is a MetricsCollector backed by Prometheus meters.
type PrometheusCollector struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewPrometheusCollector creates the tester meters and registers them with reg.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mqtt_tester_handle_duration_seconds",
		Help:    "Duration of publication handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic", "status"})

	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mqtt_tester_messages_total",
		Help: "Total number of handled publications.",
	}, []string{"topic", "status"})

	for _, c := range []prometheus.Collector{duration, total} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &PrometheusCollector{duration: duration, total: total}, nil
}

func (c *PrometheusCollector) MessageProcessed(topic string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.duration.WithLabelValues(topic, status).Observe(d.Seconds())
	c.total.WithLabelValues(topic, status).Inc()
}
