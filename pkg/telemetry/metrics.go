package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce             sync.Once
	metricsInitErr          error
	requestCounter          metric.Int64Counter
	requestLatencyHistogram metric.Float64Histogram
	upstreamCounter         metric.Int64Counter
	upstreamLatencyHisto    metric.Float64Histogram
)

// RequestMetrics captures one handled request.
type RequestMetrics struct {
	// Stage is the last lifecycle stage completed before the response was sent.
	Stage      string
	Outcome    string
	ErrorKind  string
	StatusCode int
	Duration   time.Duration
}

// UpstreamMetrics captures one pdforge call.
type UpstreamMetrics struct {
	StatusCode  int
	Unreachable bool
	Duration    time.Duration
}

// RecordRequest emits the request counter and latency histogram.
func RecordRequest(ctx context.Context, m RequestMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("adapter.stage", m.Stage),
		attribute.String("adapter.outcome", m.Outcome),
		attribute.Int("http.response.status_code", m.StatusCode),
	}
	if m.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error.type", m.ErrorKind))
	}

	requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.Duration > 0 {
		requestLatencyHistogram.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}
}

// RecordUpstream emits the pdforge call counter and latency histogram.
func RecordUpstream(ctx context.Context, m UpstreamMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("upstream.unreachable", m.Unreachable),
	}
	if !m.Unreachable {
		attrs = append(attrs, attribute.Int("http.response.status_code", m.StatusCode))
	}

	upstreamCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.Duration > 0 {
		upstreamLatencyHisto.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("pdforge.adapter")

		requestCounter, metricsInitErr = meter.Int64Counter(
			"adapter.requests_total",
			metric.WithDescription("Handled requests partitioned by final stage and outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		requestLatencyHistogram, metricsInitErr = meter.Float64Histogram(
			"adapter.request.duration_ms",
			metric.WithDescription("Time from request receipt to response commit"),
			metric.WithUnit("ms"),
		)
		if metricsInitErr != nil {
			return
		}

		upstreamCounter, metricsInitErr = meter.Int64Counter(
			"adapter.upstream.calls_total",
			metric.WithDescription("pdforge calls partitioned by status"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		upstreamLatencyHisto, metricsInitErr = meter.Float64Histogram(
			"adapter.upstream.duration_ms",
			metric.WithDescription("Observed pdforge latency"),
			metric.WithUnit("ms"),
		)
	})

	return metricsInitErr
}
