package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"interviewai/internal/errors"
	"interviewai/internal/formatters"
)

// CommandConfig holds common output options for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler formats command results and writes them to a file or stdout
type OutputHandler struct {
	registry *formatters.FormatterRegistry
	stdout   io.Writer
	logger   *errors.Logger
}

// NewOutputHandler creates an output handler printing to stdout when no file is set
func NewOutputHandler(stdout io.Writer, logger *errors.Logger) *OutputHandler {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &OutputHandler{
		registry: formatters.NewFormatterRegistry(),
		stdout:   stdout,
		logger:   logger,
	}
}

// HandleOutput formats data and writes it to the configured output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		_, err := io.WriteString(oh.stdout, output)
		return err
	}

	if err := WriteFile(config.OutputFile, output); err != nil {
		return err
	}
	if oh.logger != nil {
		oh.logger.Info("Output written successfully",
			"file", config.OutputFile, "format", config.OutputFormat)
	}
	return nil
}

// SupportedFormats returns every format the registry can render
func (oh *OutputHandler) SupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}

// WriteFile writes content to a file, creating its directory when needed
func WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}
