package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// prometheusEndpoint serves metrics from a private registry, either on the
// main server or on a dedicated port.
type prometheusEndpoint struct {
	reader  sdkmetric.Reader
	path    string
	handler http.Handler
	server  *http.Server
}

func newPrometheusEndpoint(cfg config.PrometheusConfig, logger *errors.Logger) (*prometheusEndpoint, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	path := cfg.Endpoint
	if path == "" {
		path = "/metrics"
	}
	endpoint := &prometheusEndpoint{
		reader:  exporter,
		path:    path,
		handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}

	if cfg.Port != "" {
		mux := http.NewServeMux()
		mux.Handle(path, endpoint.handler)
		endpoint.server = &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			if logger != nil {
				logger.Info("Starting Prometheus metrics server", "address", endpoint.server.Addr, "path", path)
			}
			if err := endpoint.server.ListenAndServe(); err != nil && err != http.ErrServerClosed && logger != nil {
				logger.LogError(err, "Prometheus metrics server failed")
			}
		}()
	}
	return endpoint, nil
}

func (p *prometheusEndpoint) dedicated() bool {
	return p.server != nil
}

func (p *prometheusEndpoint) shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}
