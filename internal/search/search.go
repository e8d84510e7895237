package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ToolName is the function name the models call to search the web.
const ToolName = "web_search"

// ToolDescription is shown to the model alongside the tool.
const ToolDescription = `Search the web for current information. Use this tool to look up a company's
interview process, culture, products and recent news, or typical interview questions for a role.
Returns results with titles, URLs and content snippets.`

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Response is the outcome of one query.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Provider is a web search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (*Response, error)
}

// QueryParameter is the tool's single argument.
const QueryParameter = "query"

// ParametersSchema returns the JSON schema of the tool arguments.
func ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			QueryParameter: map[string]any{
				"type":        "string",
				"description": "Search query, e.g. 'Acme Corp software engineer interview questions'",
			},
		},
		"required": []string{QueryParameter},
	}
}

// Tool executes web_search calls issued by a model.
type Tool struct {
	provider Provider
}

// NewTool wraps a provider as a model tool.
func NewTool(provider Provider) *Tool {
	return &Tool{provider: provider}
}

// Provider returns the backing provider name.
func (t *Tool) Provider() string {
	return t.provider.Name()
}

// Exec runs the call and returns JSON content for the model. Search failures
// are reported to the model as content so it can continue without results;
// only malformed arguments return an error.
func (t *Tool) Exec(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args[QueryParameter].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%s is required and must be a string", QueryParameter)
	}

	resp, err := t.provider.Search(ctx, query)
	if err != nil {
		return marshal(map[string]any{
			"success": false,
			"query":   query,
			"error":   err.Error(),
		})
	}

	result := map[string]any{
		"success":      true,
		"query":        query,
		"provider":     t.provider.Name(),
		"result_count": len(resp.Results),
		"results":      resp.Results,
	}
	if resp.Answer != "" {
		result["answer"] = resp.Answer
	}
	if len(resp.Results) == 0 {
		result["note"] = "No results found. Try a different query."
	}
	return marshal(result)
}

// ExecJSON decodes raw JSON arguments and runs the call.
func (t *Tool) ExecJSON(ctx context.Context, raw []byte) (string, error) {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", fmt.Errorf("invalid %s arguments: %w", ToolName, err)
		}
	}
	return t.Exec(ctx, args)
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal search result: %w", err)
	}
	return string(b), nil
}
