package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown", "yaml"}
	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "yaml", format: "yaml", supported: supported},
		{name: "uppercase", format: "MARKDOWN", supported: supported},
		{name: "xml", format: "xml", supported: supported,
			expectedError: "unsupported output format 'xml'. Supported formats: [json text markdown yaml]"},
		{name: "empty format", format: "", supported: supported,
			expectedError: "unsupported output format ''. Supported formats: [json text markdown yaml]"},
		{name: "no restrictions", format: "xml", supported: nil},
		{name: "single format", format: "text", supported: []string{"json"},
			expectedError: "unsupported output format 'text'. Supported formats: [json]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedError)
		})
	}
}

func TestHandleOutputToWriter(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandler(&buf, nil)

	require.NoError(t, oh.HandleOutput(config.DefaultJobCatalog(), CommandConfig{OutputFormat: "text"}))
	assert.Contains(t, buf.String(), "Technology:\n  - Software Engineer")

	err := oh.HandleOutput(config.DefaultJobCatalog(), CommandConfig{OutputFormat: "pdf"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFormat))

	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, oh.SupportedFormats())
}

func TestHandleOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobs.md")
	oh := NewOutputHandler(&bytes.Buffer{}, nil)

	require.NoError(t, oh.HandleOutput(config.DefaultJobCatalog(), CommandConfig{OutputFile: path, OutputFormat: "markdown"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Job Roles")
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
