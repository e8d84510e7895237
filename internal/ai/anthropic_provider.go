package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/search"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 2048

// AnthropicGateway implements Gateway for Anthropic Claude models.
type AnthropicGateway struct {
	executor
	client       anthropic.Client
	tool         *search.Tool
	maxToolCalls int
}

var _ Gateway = (*AnthropicGateway)(nil)

// NewAnthropicGateway creates an Anthropic gateway for one role.
func NewAnthropicGateway(cfg config.OperationAIConfig, tools ToolSet, logger *errors.Logger) (*AnthropicGateway, error) {
	return newAnthropicGateway(cfg, tools, logger)
}

func newAnthropicGateway(cfg config.OperationAIConfig, tools ToolSet, logger *errors.Logger, opts ...option.RequestOption) (*AnthropicGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("anthropic API key is required for %s", cfg.Name), nil)
	}
	return &AnthropicGateway{
		executor:     newExecutor(config.ProviderAnthropic, cfg, logger),
		client:       anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)...),
		tool:         tools.Search,
		maxToolCalls: tools.maxCalls(),
	}, nil
}

// Generate implements Gateway.
func (a *AnthropicGateway) Generate(ctx context.Context, req Request) (*Response, error) {
	return a.run(ctx, req, func(ctx context.Context) (*Response, error) {
		return a.generate(ctx, req)
	})
}

func (a *AnthropicGateway) buildParams(req Request) anthropic.MessageNewParams {
	maxTokens := int64(defaultAnthropicMaxTokens)
	if limit := a.maxOutputTokens(); limit > 0 {
		maxTokens = int64(limit)
	}

	userPrompt := req.UserPrompt
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		if a.useSystemPrompts() {
			params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
		} else {
			userPrompt = req.SystemPrompt + "\n\n" + userPrompt
		}
	}
	if temp := a.temperature(); temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}
	if req.WebSearch && a.tool != nil {
		params.Tools = []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        search.ToolName,
				Description: anthropic.String(search.ToolDescription),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: search.ParametersSchema()["properties"],
					Required:   []string{search.QueryParameter},
				},
			},
		}}
	}
	params.Messages = []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt))}
	return params
}

// generate runs the tool use loop until the model stops for a reason other than tool use.
func (a *AnthropicGateway) generate(ctx context.Context, req Request) (*Response, error) {
	params := a.buildParams(req)
	out := &Response{Usage: &TokenUsage{}}

	for round := 0; ; round++ {
		message, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return nil, err
		}
		out.Usage.add(message.Usage.InputTokens, message.Usage.OutputTokens)

		if message.StopReason != anthropic.StopReasonToolUse || a.tool == nil || round > a.maxToolCalls {
			out.Text = textContent(message)
			return out, nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		var results []anthropic.ContentBlockParamUnion
		for _, block := range message.Content {
			if block.Type != "tool_use" {
				continue
			}
			content, isError := a.execTool(ctx, block.Name, block.Input, round >= a.maxToolCalls)
			if query := queryArg(block.Input); query != "" {
				out.SearchQueries = append(out.SearchQueries, query)
			}
			results = append(results, anthropic.NewToolResultBlock(block.ID, content, isError))
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(results...))
	}
}

func (a *AnthropicGateway) execTool(ctx context.Context, name string, input json.RawMessage, limitReached bool) (string, bool) {
	if name != search.ToolName {
		return fmt.Sprintf("unknown tool %q", name), true
	}
	if limitReached {
		return "search limit reached, answer with the information you already have", true
	}
	content, err := a.tool.ExecJSON(ctx, input)
	if err != nil {
		return err.Error(), true
	}
	return content, false
}

func textContent(message *anthropic.Message) string {
	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String()
}

func queryArg(input json.RawMessage) string {
	var args map[string]any
	if err := json.Unmarshal(input, &args); err != nil {
		return ""
	}
	query, _ := args[search.QueryParameter].(string)
	return query
}

// ModelInfo checks that the configured model is available.
func (a *AnthropicGateway) ModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: a.cfg.Model, Provider: a.provider}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := a.client.Models.Get(checkCtx, a.cfg.Model, anthropic.ModelGetParams{})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		if a.logger != nil {
			a.logger.Warn("Model availability check failed", "model", a.cfg.Model, "provider", a.provider, "error", err.Error())
		}
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	return info
}

// Close implements Gateway.
func (a *AnthropicGateway) Close() error {
	return nil
}
