package cli

import (
	"context"
	"time"

	"interviewai/internal/ai"
	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/extract"
	"interviewai/internal/interview"
	"interviewai/internal/observability"
	"interviewai/internal/session"
)

// app holds the process-wide services shared by serve and practice.
type app struct {
	cfg       *config.Config
	logger    *errors.Logger
	telemetry *observability.Manager
	gateways  *ai.Gateways
	store     *session.Store
	watcher   *config.PromptWatcher
	wizard    *interview.Wizard
}

type appOptions struct {
	telemetry    bool
	sessionTTL   time.Duration
	sweepEvery   time.Duration
	watchPrompts bool
}

func newApp(cfg *config.Config, logger *errors.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if opts.telemetry {
		telemetry, err := observability.NewManager(observability.OptionsFromConfig(cfg, Version), logger)
		if err != nil {
			return nil, err
		}
		a.telemetry = telemetry
	}

	gateways, err := ai.NewGateways(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.gateways = gateways

	a.store = session.NewStore(opts.sessionTTL, opts.sweepEvery, logger)
	if err := a.telemetry.ObserveSessions(a.sessionsByStage); err != nil {
		a.close()
		return nil, err
	}

	if opts.watchPrompts && cfg.Prompts != nil {
		a.watcher = config.NewPromptWatcher(cfg.Prompts, 0, logger)
		a.watcher.OnReload(func(key config.PromptKey, err error) {
			if err != nil {
				logger.LogError(err, "Prompt reload failed", "prompt", string(key))
				return
			}
			logger.Info("Prompt reloaded", "prompt", string(key))
		})
		if err := a.watcher.Start(); err != nil {
			logger.LogError(err, "Prompt watcher disabled")
			a.watcher = nil
		}
	}

	orchestrator := interview.NewOrchestrator(gateways, ai.NewPromptSource(cfg.Prompts), a.telemetry, logger)
	a.wizard = interview.NewWizard(a.store, extract.New(cfg.App.MaxFileSize, logger), orchestrator, a.telemetry, logger)
	return a, nil
}

func (a *app) sessionsByStage() map[string]int {
	counts := make(map[string]int)
	for stage, n := range a.store.CountByStage() {
		counts[string(stage)] = n
	}
	return counts
}

func (a *app) catalog() *config.JobCatalog {
	if a.cfg.Catalog != nil {
		return a.cfg.Catalog
	}
	return config.DefaultJobCatalog()
}

// close releases everything newApp started, in reverse order.
func (a *app) close() {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.LogError(err, "Failed to stop prompt watcher")
		}
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.gateways != nil {
		if err := a.gateways.Close(); err != nil {
			a.logger.LogError(err, "Failed to close AI gateways")
		}
	}
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.logger.LogError(err, "Failed to shutdown observability")
		}
	}
}
