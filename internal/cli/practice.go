package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"interviewai/internal/common"
	"interviewai/internal/errors"
	"interviewai/internal/practice"

	"github.com/spf13/cobra"
)

type practiceFlags struct {
	practice.Options
	LogFile string
}

var practiceConfig practiceFlags

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a mock interview in the terminal",
	Long: `Run the interview wizard in the terminal: pick a job category and role,
name the company, point at your resume (PDF, DOCX or TXT), then answer ten
questions. Each answer is finished with an empty line; type :quit to stop early.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if practiceConfig.ReportFile == "" {
			return nil
		}
		if practiceConfig.ReportFormat == "" {
			practiceConfig.ReportFormat = formatFromExtension(practiceConfig.ReportFile)
		}
		cfg := getConfigFromContext(cmd.Context())
		return common.ValidateOutputFormat(practiceConfig.ReportFormat, cfg.App.SupportedFormats)
	},
	RunE: runPractice,
}

func init() {
	practiceCmd.Flags().StringVar(&practiceConfig.JobRole, "role", "", "Job role (skips the category and role picker)")
	practiceCmd.Flags().StringVar(&practiceConfig.CompanyName, "company", "", "Company name")
	practiceCmd.Flags().StringVarP(&practiceConfig.ResumePath, "resume", "r", "", "Resume file (PDF, DOCX or TXT)")
	practiceCmd.Flags().StringVarP(&practiceConfig.ReportFile, "report", "o", "", "Write the interview report to this file")
	practiceCmd.Flags().StringVar(&practiceConfig.ReportFormat, "report-format", "", "Report format: markdown, text, json or yaml (default from file extension)")
	practiceCmd.Flags().StringVar(&practiceConfig.LogFile, "log-file", "", "Write JSON logs to this file instead of discarding them")
}

func runPractice(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	appLogger := getLoggerFromContext(cmd.Context())

	// JSON logs would interleave with the terminal UI
	logOut := io.Discard
	if practiceConfig.LogFile != "" {
		f, err := os.OpenFile(filepath.Clean(practiceConfig.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return errors.NewIOError("FILE_WRITE_FAILED", fmt.Sprintf("Cannot open log file: %s", practiceConfig.LogFile), err)
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}
	level, err := errors.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		appLogger.Warn("Falling back to info logging", "error", err)
	}
	logger := errors.NewLoggerWithWriter(logOut, level)

	a, err := newApp(cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	prompter := practice.Terminal{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	runner := practice.NewRunner(a.wizard, a.catalog(), prompter, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	if _, err := runner.Run(cmd.Context(), practiceConfig.Options); err != nil {
		if stderrors.Is(err, practice.ErrInterrupted) || stderrors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Practice cancelled.")
			return nil
		}
		return err
	}
	if practiceConfig.ReportFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", practiceConfig.ReportFile)
	}
	return nil
}

func formatFromExtension(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".txt":
		return "text"
	default:
		return "markdown"
	}
}
