package observability

import (
	"time"

	"interviewai/internal/config"
)

// Options is the subset of configuration the Manager needs.
type Options struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64
	Interval        time.Duration
	Prometheus      config.PrometheusConfig
	OTLP            config.OTLPConfig
	Metrics         config.CustomMetricsConfig
}

// OptionsFromConfig derives Options from the application config.
func OptionsFromConfig(cfg *config.Config, version string) Options {
	if cfg == nil {
		return Options{
			ServiceName:    "interviewai",
			ServiceVersion: version,
			SampleRate:     1.0,
			Interval:       15 * time.Second,
			Metrics:        AllMetrics(),
		}
	}

	obs := cfg.Observability
	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}
	sampleRate := obs.SampleRate
	if obs.Tracing.SampleRate > 0 {
		sampleRate = obs.Tracing.SampleRate
	}
	interval := obs.Metrics.CollectionInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return Options{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.ConsoleOutput || obs.Console.Enabled,
		PrettyPrint:     obs.Console.PrettyPrint,
		SampleRate:      sampleRate,
		Interval:        interval,
		Prometheus:      obs.Prometheus,
		OTLP:            obs.OTLP,
		Metrics:         obs.CustomMetrics,
	}
}

func (o Options) instanceID() string {
	if o.ServiceInstance != "" {
		return o.ServiceInstance
	}
	return o.ServiceName + "-1"
}

// AllMetrics enables every custom metric group.
func AllMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackSuccessRates: true, TrackContentSizes: true},
		Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackSessions: true},
	}
}
