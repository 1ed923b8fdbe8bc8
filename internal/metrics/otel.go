package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var (
	promReaderFactory = prometheusComponents
	otlpReaderFactory = buildOTLPReader
	instrumentFactory = newOtelInstruments
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	Port         string
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and optional OTLP exporter.
// It returns a Recorder, the Prometheus HTTP handler, and a shutdown function.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "padel-score-service"
	}

	promReader, promHandler, err := promReaderFactory()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(promReader)}

	if cfg.OtlpEndpoint != "" {
		otlpReader, err := otlpReaderFactory(ctx, cfg.OtlpEndpoint, cfg.OtlpInsecure)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(otlpReader))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)

	otelInst, err := instrumentFactory(provider)
	if err != nil {
		return nil, nil, nil, err
	}

	rec := newRecorder(otelInst)
	shutdown := func(c context.Context) error {
		return provider.Shutdown(c)
	}

	return rec, promHandler, shutdown, nil
}

func buildOTLPReader(ctx context.Context, endpoint string, insecure bool) (sdkmetric.Reader, error) {
	otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
	}
	otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second)), nil
}

type otelInstruments struct {
	ctx                context.Context
	meter              metric.Meter
	requests           metric.Int64Counter
	requestLatencyMs   metric.Float64Histogram
	pointsApplied      metric.Int64Counter
	pointErrors        metric.Int64Counter
	pointLatencyMs     metric.Float64Histogram
	replays            metric.Int64Counter
	busyRejections     metric.Int64Counter
	lockWaitMs         metric.Float64Histogram
	snapshotsPublished metric.Int64Counter
	liveSubscribers    metric.Int64UpDownCounter
}

func prometheusComponents() (sdkmetric.Reader, http.Handler, error) {
	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	return promExp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func newOtelInstruments(provider metric.MeterProvider) (*otelInstruments, error) {
	meter := provider.Meter("padel-score-service")
	ctx := context.Background()

	requests, err := meter.Int64Counter("http_requests_total")
	if err != nil {
		return nil, err
	}
	requestLatency, err := meter.Float64Histogram("http_request_duration_ms")
	if err != nil {
		return nil, err
	}

	pointsApplied, err := meter.Int64Counter("points_applied_total")
	if err != nil {
		return nil, err
	}
	pointErrors, err := meter.Int64Counter("point_errors_total")
	if err != nil {
		return nil, err
	}
	pointLatency, err := meter.Float64Histogram("point_apply_duration_ms")
	if err != nil {
		return nil, err
	}
	replays, err := meter.Int64Counter("idempotent_replays_total")
	if err != nil {
		return nil, err
	}
	busyRejections, err := meter.Int64Counter("busy_rejections_total")
	if err != nil {
		return nil, err
	}
	lockWait, err := meter.Float64Histogram("lock_wait_duration_ms")
	if err != nil {
		return nil, err
	}
	snapshotsPublished, err := meter.Int64Counter("snapshots_published_total")
	if err != nil {
		return nil, err
	}
	liveSubscribers, err := meter.Int64UpDownCounter("live_subscribers")
	if err != nil {
		return nil, err
	}

	return &otelInstruments{
		ctx:                ctx,
		meter:              meter,
		requests:           requests,
		requestLatencyMs:   requestLatency,
		pointsApplied:      pointsApplied,
		pointErrors:        pointErrors,
		pointLatencyMs:     pointLatency,
		replays:            replays,
		busyRejections:     busyRejections,
		lockWaitMs:         lockWait,
		snapshotsPublished: snapshotsPublished,
		liveSubscribers:    liveSubscribers,
	}, nil
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	}
	o.recordCounter(o.requests, 1, attrs...)
	o.recordHistogram(o.requestLatencyMs, float64(duration.Milliseconds()), attrs...)
}

func (o *otelInstruments) recordPointApplied(matchID string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrMatch, matchID)}
	o.recordHistogram(o.pointLatencyMs, float64(duration.Milliseconds()), attrs...)
	if err != nil {
		o.recordCounter(o.pointErrors, 1, attrs...)
		return
	}
	o.recordCounter(o.pointsApplied, 1, attrs...)
}

func (o *otelInstruments) recordReplay(matchID string) {
	if o == nil {
		return
	}
	o.recordCounter(o.replays, 1, attribute.String(AttrMatch, matchID))
}

func (o *otelInstruments) recordLockWait(matchID string, waited time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrMatch, matchID)}
	o.recordHistogram(o.lockWaitMs, float64(waited.Milliseconds()), attrs...)
	if err != nil {
		o.recordCounter(o.busyRejections, 1, attrs...)
	}
}

func (o *otelInstruments) recordSnapshotPublished(matchID string) {
	if o == nil {
		return
	}
	o.recordCounter(o.snapshotsPublished, 1, attribute.String(AttrMatch, matchID))
}

func (o *otelInstruments) addLiveSubscribers(matchID string, delta int64) {
	if o == nil {
		return
	}
	o.liveSubscribers.Add(o.ctx, delta, metric.WithAttributes(attribute.String(AttrMatch, matchID)))
}

func (o *otelInstruments) recordCounter(counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	counter.Add(o.ctx, value, metric.WithAttributes(attrs...))
}

func (o *otelInstruments) recordHistogram(hist metric.Float64Histogram, value float64, attrs ...attribute.KeyValue) {
	hist.Record(o.ctx, value, metric.WithAttributes(attrs...))
}
