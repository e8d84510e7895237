package cli

import (
	"fmt"

	"interviewai/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview HTTP server",
	Long: `Start an HTTP server exposing the interview wizard. The session is kept
in the 'interviewai_session' cookie.

Available endpoints:
- GET  /session and POST /session/{continue,resume,prepare,start,question,answer,next,finish,reset}
- GET  /session/report?format=json|markdown|text|yaml
- GET  /jobs: job catalog
- GET  /health: health check with model status
- GET  /stats: sessions, rate limiting and circuit breakers
- GET  /metrics: Prometheus metrics (when enabled)

TLS Configuration:
- Use --tls-mode server with --cert-file and --key-file`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled or server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			value, _ := cmd.Flags().GetString(name)
			*target = value
		}
	}

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	a, err := newApp(cfg, logger, appOptions{
		telemetry:    true,
		sessionTTL:   cfg.Interview.SessionTTL,
		sweepEvery:   cfg.Interview.CleanupInterval,
		watchPrompts: cfg.Interview.WatchPrompts,
	})
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewServer(cfg, server.ServerConfigFromConfig(cfg, Version), server.Dependencies{
		Wizard:    a.wizard,
		Gateways:  a.gateways,
		Catalog:   a.catalog(),
		Telemetry: a.telemetry,
	}, logger)
	return srv.Start(cmd.Context())
}
