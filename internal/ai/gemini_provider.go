package ai

import (
	"context"
	"fmt"
	"strings"

	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/search"

	"google.golang.org/genai"
)

// GeminiGateway implements Gateway for Google Gemini.
type GeminiGateway struct {
	executor
	client *genai.Client

	// tool backs the web_search function; googleSearch selects built-in
	// grounding instead.
	tool         *search.Tool
	googleSearch bool
	maxToolCalls int
}

var _ Gateway = (*GeminiGateway)(nil)

// NewGeminiGateway creates a Gemini gateway for one role.
func NewGeminiGateway(cfg config.OperationAIConfig, tools ToolSet, logger *errors.Logger) (*GeminiGateway, error) {
	return newGeminiGateway(cfg, tools, logger, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func newGeminiGateway(cfg config.OperationAIConfig, tools ToolSet, logger *errors.Logger, clientCfg *genai.ClientConfig) (*GeminiGateway, error) {
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return &GeminiGateway{
		executor:     newExecutor(config.ProviderGemini, cfg, logger),
		client:       client,
		tool:         tools.Search,
		googleSearch: tools.GoogleSearch,
		maxToolCalls: tools.maxCalls(),
	}, nil
}

// Generate implements Gateway.
func (g *GeminiGateway) Generate(ctx context.Context, req Request) (*Response, error) {
	return g.run(ctx, req, func(ctx context.Context) (*Response, error) {
		return g.generate(ctx, req)
	})
}

func (g *GeminiGateway) buildConfig(req Request) (*genai.GenerateContentConfig, string) {
	genCfg := &genai.GenerateContentConfig{}
	if temp := g.temperature(); temp > 0 {
		genCfg.Temperature = genai.Ptr(temp)
	}
	if limit := g.maxOutputTokens(); limit > 0 {
		genCfg.MaxOutputTokens = limit
	}

	userPrompt := req.UserPrompt
	if req.SystemPrompt != "" {
		if g.useSystemPrompts() {
			genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
		} else {
			userPrompt = req.SystemPrompt + "\n\n" + userPrompt
		}
	}

	if req.WebSearch {
		switch {
		case g.googleSearch:
			genCfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		case g.tool != nil:
			genCfg.Tools = []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{webSearchDeclaration()}}}
		}
	}
	return genCfg, userPrompt
}

func webSearchDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        search.ToolName,
		Description: search.ToolDescription,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				search.QueryParameter: {
					Type:        genai.TypeString,
					Description: "Search query string",
				},
			},
			Required: []string{search.QueryParameter},
		},
	}
}

// generate runs the function calling loop until the model answers in text.
func (g *GeminiGateway) generate(ctx context.Context, req Request) (*Response, error) {
	genCfg, userPrompt := g.buildConfig(req)
	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}

	out := &Response{Usage: &TokenUsage{}}
	for round := 0; ; round++ {
		result, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, genCfg)
		if err != nil {
			return nil, err
		}
		if result.UsageMetadata != nil {
			out.Usage.add(int64(result.UsageMetadata.PromptTokenCount), int64(result.UsageMetadata.CandidatesTokenCount))
		}
		out.SearchQueries = append(out.SearchQueries, groundingQueries(result)...)

		calls := result.FunctionCalls()
		if len(calls) == 0 || g.tool == nil || round > g.maxToolCalls {
			out.Text = result.Text()
			return out, nil
		}

		if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			contents = append(contents, result.Candidates[0].Content)
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			payload := g.execTool(ctx, call, round >= g.maxToolCalls)
			if q, ok := call.Args[search.QueryParameter].(string); ok {
				out.SearchQueries = append(out.SearchQueries, q)
			}
			part := genai.NewPartFromFunctionResponse(call.Name, payload)
			part.FunctionResponse.ID = call.ID
			parts = append(parts, part)
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
}

func (g *GeminiGateway) execTool(ctx context.Context, call *genai.FunctionCall, limitReached bool) map[string]any {
	if call.Name != search.ToolName {
		return map[string]any{"error": fmt.Sprintf("unknown function %q", call.Name)}
	}
	if limitReached {
		return map[string]any{"error": "search limit reached, answer with the information you already have"}
	}
	content, err := g.tool.Exec(ctx, call.Args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if g.logger != nil {
		g.logger.Debug("Executed web search for model", "operation", g.cfg.Name, "args", call.Args)
	}
	return map[string]any{"output": content}
}

func groundingQueries(result *genai.GenerateContentResponse) []string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return result.Candidates[0].GroundingMetadata.WebSearchQueries
}

// ModelInfo checks the readiness and availability of the configured model
func (g *GeminiGateway) ModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.cfg.Model, Provider: g.provider}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.client.Models.Get(checkCtx, g.cfg.Model, &genai.GetModelConfig{})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		if g.logger != nil {
			g.logger.Warn("Model availability check failed",
				"model", g.cfg.Model,
				"provider", g.provider,
				"error", err.Error())
		}
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	if g.logger != nil {
		g.logger.Debug("Model availability check successful",
			"model", g.cfg.Model,
			"display_name", strings.TrimSpace(info.DisplayName),
			"version", info.Version)
	}
	return info
}

// Close implements Gateway.
func (g *GeminiGateway) Close() error {
	return nil
}
