package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"interviewai/internal/common"
	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	jobsConfig = common.CommandConfig{}
	// cobra only hands the root context to subcommands without one
	for _, sub := range rootCmd.Commands() {
		sub.SetContext(nil)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	logger := errors.NewLoggerWithWriter(io.Discard, 0)
	err := Execute(context.Background(), cfg, logger)
	return out.String(), err
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{SupportedFormats: []string{"json", "yaml", "text", "markdown"}}}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, testConfig(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "interviewai version "+Version)
	assert.Contains(t, out, "Git commit: "+GitCommit)
}

func TestJobsCommand(t *testing.T) {
	t.Run("text by default", func(t *testing.T) {
		out, err := execute(t, testConfig(), "jobs")
		require.NoError(t, err)
		assert.Contains(t, out, "Technology:\n  - Software Engineer\n")
		assert.Contains(t, out, "Sales:")
	})

	t.Run("json from the configured catalog", func(t *testing.T) {
		cfg := testConfig()
		cfg.Catalog = &config.JobCatalog{Categories: []config.JobCategory{{Name: "Trades", Roles: []string{"Electrician"}}}}

		out, err := execute(t, cfg, "jobs", "--format", "json")
		require.NoError(t, err)

		var catalog config.JobCatalog
		require.NoError(t, json.Unmarshal([]byte(out), &catalog))
		assert.Equal(t, cfg.Catalog.Categories, catalog.Categories)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := execute(t, testConfig(), "jobs", "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format 'xml'")
	})
}

func TestFormatFromExtension(t *testing.T) {
	tests := map[string]string{
		"report.json": "json",
		"report.yml":  "yaml",
		"report.yaml": "yaml",
		"report.txt":  "text",
		"report.md":   "markdown",
		"report":      "markdown",
	}
	for path, want := range tests {
		assert.Equal(t, want, formatFromExtension(path), path)
	}
}
