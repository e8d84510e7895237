package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/resilience"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 4096

// TavilyProvider searches through the Tavily REST API.
type TavilyProvider struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	maxResults  int
	searchDepth string
	breaker     *resilience.Breaker[*Response]
	logger      *errors.Logger
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"`
	MaxResults    int    `json:"max_results,omitempty"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewTavilyProvider builds a provider from the search configuration.
func NewTavilyProvider(cfg config.SearchConfig, logger *errors.Logger) *TavilyProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TavilyProvider{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxResults:  cfg.MaxResults,
		searchDepth: cfg.SearchDepth,
		breaker:     resilience.NewBreaker[*Response]("search-tavily", cfg.CircuitBreaker, logger),
		logger:      logger,
	}
}

// Name returns the provider name.
func (p *TavilyProvider) Name() string {
	return config.SearchProviderTavily
}

// BreakerStats reports the circuit breaker state.
func (p *TavilyProvider) BreakerStats() map[string]any {
	return p.breaker.Stats()
}

// Search performs one Tavily query.
func (p *TavilyProvider) Search(ctx context.Context, query string) (*Response, error) {
	start := time.Now()
	resp, err := p.breaker.Execute(func() (*Response, error) {
		return p.search(ctx, query)
	})
	if p.logger != nil {
		if err != nil {
			p.logger.LogError(err, "Web search failed", "query", query)
		} else {
			p.logger.Debug("Web search completed", "query", query, "results", len(resp.Results), "duration", time.Since(start))
		}
	}
	return resp, err
}

func (p *TavilyProvider) search(ctx context.Context, query string) (*Response, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:         query,
		SearchDepth:   p.searchDepth,
		MaxResults:    p.maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeSearchFailed, "failed to encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeSearchFailed, "failed to create search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeSearchFailed, "web search request failed", err).MarkRetryable()
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		appErr := errors.NewNetworkError(errors.ErrCodeSearchFailed,
			fmt.Sprintf("web search returned status %d", httpResp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(detail)))).
			WithContext("status", httpResp.StatusCode)
		if resilience.RetryableStatus(httpResp.StatusCode) {
			appErr.MarkRetryable()
		}
		return nil, appErr
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeSearchFailed, "failed to parse search response", err)
	}

	out := &Response{Query: query, Answer: decoded.Answer, Results: make([]Result, 0, len(decoded.Results))}
	for _, r := range decoded.Results {
		out.Results = append(out.Results, Result{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return out, nil
}
