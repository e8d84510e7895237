package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"interviewai/internal/config"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

const anyType = "any"

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
	ContentType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, &JSONFormatter{})
	registry.RegisterFormatter(FormatYAML, &YAMLFormatter{})
	registry.RegisterFormatter(FormatText, &ReportTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, &ReportMarkdownFormatter{})
	registry.RegisterFormatter(FormatText, &CatalogTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, &CatalogMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a formatter for format and its supported type
func (fr *FormatterRegistry) RegisterFormatter(format string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][formatter.SupportedType()] = formatter
}

// Lookup finds the formatter for data in format, falling back to the generic one.
func (fr *FormatterRegistry) Lookup(data any, format string) (Formatter, error) {
	dataType := getDataType(data)
	if formatters, exists := fr.formatters[strings.ToLower(format)]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter, nil
		}
		if formatter, exists := formatters[anyType]; exists {
			return formatter, nil
		}
	}
	return nil, fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	formatter, err := fr.Lookup(data, format)
	if err != nil {
		return "", err
	}
	return formatter.Format(data)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// FileExtension returns the download extension for format.
func FileExtension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return strings.ToLower(format)
	}
}

func getDataType(data any) string {
	switch data.(type) {
	case *Report, Report:
		return "Report"
	case *config.JobCatalog, config.JobCatalog:
		return "JobCatalog"
	default:
		return anyType
	}
}

func asReport(data any) (*Report, error) {
	switch r := data.(type) {
	case *Report:
		return r, nil
	case Report:
		return &r, nil
	}
	return nil, fmt.Errorf("expected Report, got %T", data)
}

func asCatalog(data any) (*config.JobCatalog, error) {
	switch c := data.(type) {
	case *config.JobCatalog:
		return c, nil
	case config.JobCatalog:
		return &c, nil
	}
	return nil, fmt.Errorf("expected JobCatalog, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string { return anyType }
func (jf *JSONFormatter) ContentType() string   { return "application/json" }

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string { return anyType }
func (yf *YAMLFormatter) ContentType() string   { return "application/yaml" }

// ReportTextFormatter renders a report as plain text
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("=== INTERVIEW REPORT ===\n")
	fmt.Fprintf(&output, "Role: %s\n", report.JobRole)
	fmt.Fprintf(&output, "Company: %s\n", report.CompanyName)
	fmt.Fprintf(&output, "Status: %s (%d of %d answered)\n", report.status(), report.AnsweredQuestions, report.TotalQuestions)
	fmt.Fprintf(&output, "Started: %s\n", formatTime(report.StartedAt))
	fmt.Fprintf(&output, "Completed: %s\n\n", formatTime(report.CompletedAt))

	output.WriteString("=== RESUME ANALYSIS ===\n")
	output.WriteString(report.ResumeAnalysis)
	output.WriteString("\n\n")

	output.WriteString("=== COMPANY RESEARCH ===\n")
	output.WriteString(report.Research)
	output.WriteString("\n\n")

	output.WriteString("=== QUESTIONS ===\n")
	if len(report.Entries) == 0 {
		output.WriteString("No questions answered yet.\n")
	}
	for _, entry := range report.Entries {
		fmt.Fprintf(&output, "\nQuestion %d: %s\n", entry.QuestionNumber, entry.Question)
		fmt.Fprintf(&output, "Answer: %s\n", entry.Answer)
		fmt.Fprintf(&output, "Feedback:\n%s\n", entry.Feedback)
	}
	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string { return "Report" }
func (rtf *ReportTextFormatter) ContentType() string   { return "text/plain; charset=utf-8" }

// ReportMarkdownFormatter renders a report as markdown
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Interview Report: %s at %s\n\n", report.JobRole, report.CompanyName)
	fmt.Fprintf(&output, "- **Status:** %s (%d of %d answered)\n", report.status(), report.AnsweredQuestions, report.TotalQuestions)
	fmt.Fprintf(&output, "- **Started:** %s\n", formatTime(report.StartedAt))
	fmt.Fprintf(&output, "- **Completed:** %s\n", formatTime(report.CompletedAt))
	if report.ResumeFileName != "" {
		fmt.Fprintf(&output, "- **Resume:** %s\n", report.ResumeFileName)
	}
	output.WriteString("\n")

	output.WriteString("## Resume Analysis\n\n")
	output.WriteString(report.ResumeAnalysis)
	output.WriteString("\n\n")

	output.WriteString("## Company Research\n\n")
	output.WriteString(report.Research)
	output.WriteString("\n\n")

	output.WriteString("## Questions\n")
	if len(report.Entries) == 0 {
		output.WriteString("\nNo questions answered yet.\n")
	}
	for _, entry := range report.Entries {
		fmt.Fprintf(&output, "\n### Question %d\n\n", entry.QuestionNumber)
		output.WriteString(entry.Question)
		output.WriteString("\n\n**Your answer:**\n\n")
		output.WriteString(quote(entry.Answer))
		output.WriteString("\n\n**Feedback:**\n\n")
		output.WriteString(entry.Feedback)
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string { return "Report" }
func (rmf *ReportMarkdownFormatter) ContentType() string   { return "text/markdown; charset=utf-8" }

func quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// CatalogTextFormatter lists job categories as plain text
type CatalogTextFormatter struct{}

func (ctf *CatalogTextFormatter) Format(data any) (string, error) {
	catalog, err := asCatalog(data)
	if err != nil {
		return "", err
	}
	var output strings.Builder
	for i, cat := range catalog.Categories {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "%s:\n", cat.Name)
		for _, role := range cat.Roles {
			fmt.Fprintf(&output, "  - %s\n", role)
		}
	}
	return output.String(), nil
}

func (ctf *CatalogTextFormatter) SupportedType() string { return "JobCatalog" }
func (ctf *CatalogTextFormatter) ContentType() string   { return "text/plain; charset=utf-8" }

// CatalogMarkdownFormatter lists job categories as markdown
type CatalogMarkdownFormatter struct{}

func (cmf *CatalogMarkdownFormatter) Format(data any) (string, error) {
	catalog, err := asCatalog(data)
	if err != nil {
		return "", err
	}
	var output strings.Builder
	output.WriteString("# Job Roles\n")
	for _, cat := range catalog.Categories {
		fmt.Fprintf(&output, "\n## %s\n\n", cat.Name)
		for _, role := range cat.Roles {
			fmt.Fprintf(&output, "- %s\n", role)
		}
	}
	return output.String(), nil
}

func (cmf *CatalogMarkdownFormatter) SupportedType() string { return "JobCatalog" }
func (cmf *CatalogMarkdownFormatter) ContentType() string   { return "text/markdown; charset=utf-8" }
