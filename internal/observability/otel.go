package observability

import (
	"context"
	"fmt"
	"net/http"

	"interviewai/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Manager owns the tracer and meter providers and the custom metrics.
// A nil or disabled Manager is valid and records nothing.
type Manager struct {
	opts           Options
	logger         *errors.Logger
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	prometheus     *prometheusEndpoint
	shutdownFuncs  []func(context.Context) error
}

// NewManager sets up tracing and metrics according to opts.
func NewManager(opts Options, logger *errors.Logger) (*Manager, error) {
	return newManager(opts, logger)
}

// NewManagerWithReader builds an enabled Manager whose metrics are collected
// by the given reader in addition to the configured exporters.
func NewManagerWithReader(opts Options, logger *errors.Logger, reader sdkmetric.Reader) (*Manager, error) {
	opts.Enabled = true
	return newManager(opts, logger, reader)
}

func newManager(opts Options, logger *errors.Logger, extra ...sdkmetric.Reader) (*Manager, error) {
	m := &Manager{opts: opts, logger: logger}
	if !opts.Enabled {
		return m, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
			attribute.String("service.instance.id", opts.instanceID()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	m.resource = res

	if err := m.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := m.initMetrics(extra); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return m, nil
}

// Enabled reports whether telemetry is being recorded.
func (m *Manager) Enabled() bool {
	return m != nil && m.opts.Enabled
}

func (m *Manager) initTracing() error {
	var (
		exporter trace.SpanExporter
		err      error
	)
	switch {
	case m.opts.ConsoleOutput:
		var opts []stdouttrace.Option
		if m.opts.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case m.opts.OTLP.Enabled:
		exporter, err = m.otlpTraceExporter()
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tpOpts := []trace.TracerProviderOption{
		trace.WithResource(m.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(m.opts.SampleRate))),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, trace.WithBatcher(exporter))
	}
	tp := trace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)
	return nil
}

func (m *Manager) initMetrics(extra []sdkmetric.Reader) error {
	readers := append([]sdkmetric.Reader{}, extra...)

	if m.opts.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.opts.Interval)))
	}

	if m.opts.OTLP.Enabled {
		reader, err := m.otlpMetricsReader()
		if err != nil {
			return err
		}
		readers = append(readers, reader)
	}

	if m.opts.Prometheus.Enabled {
		endpoint, err := newPrometheusEndpoint(m.opts.Prometheus, m.logger)
		if err != nil {
			return err
		}
		m.prometheus = endpoint
		readers = append(readers, endpoint.reader)
		m.shutdownFuncs = append(m.shutdownFuncs, endpoint.shutdown)
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(m.resource)}
	for _, reader := range readers {
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)

	otel.SetMeterProvider(mp)
	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	metrics, err := newMetrics(mp.Meter(m.opts.ServiceName))
	if err != nil {
		return err
	}
	m.metrics = metrics
	return nil
}

func (m *Manager) otlpTraceExporter() (trace.SpanExporter, error) {
	otlp := m.opts.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (m *Manager) otlpMetricsReader() (sdkmetric.Reader, error) {
	otlp := m.opts.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
	}
	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.opts.Interval)), nil
}

// HTTPMiddleware instruments handlers with otelhttp.
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !m.Enabled() {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(
		m.opts.ServiceName,
		otelhttp.WithTracerProvider(m.tracerProvider),
		otelhttp.WithMeterProvider(m.meterProvider),
	)
}

// MetricsHandler returns the Prometheus scrape handler when it should be
// mounted on the main server, which is the case when no dedicated port is set.
func (m *Manager) MetricsHandler() (string, http.Handler, bool) {
	if !m.Enabled() || m.prometheus == nil || m.prometheus.dedicated() {
		return "", nil, false
	}
	return m.prometheus.path, m.prometheus.handler, true
}

// Tracer returns a tracer for the service.
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	if !m.Enabled() {
		return noop.NewTracerProvider().Tracer(name)
	}
	return m.tracerProvider.Tracer(name)
}

// Shutdown flushes and stops all exporters.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	var firstErr error
	for i := len(m.shutdownFuncs) - 1; i >= 0; i-- {
		if err := m.shutdownFuncs[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.shutdownFuncs = nil
	return firstErr
}
