package cli

import (
	"context"

	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/spf13/cobra"
)

type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "interviewai",
	Short: "Practice job interviews with an AI interviewer",
	Long: `InterviewAI walks you through a mock interview: pick a role and company,
upload your resume, get an analysis and company research, then answer ten
questions with feedback on each answer.

Run it as an HTTP service with 'serve' or in the terminal with 'practice'.`,
	SilenceUsage: true,
}

// Execute runs the root command with config and logger attached to ctx.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(versionCmd)
}
