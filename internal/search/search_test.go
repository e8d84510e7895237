package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTavilyServer(t *testing.T, handler http.HandlerFunc) *TavilyProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewTavilyProvider(config.SearchConfig{
		APIKey:      "tvly-test",
		BaseURL:     server.URL + "/",
		MaxResults:  3,
		SearchDepth: "basic",
		Timeout:     5 * time.Second,
	}, nil)
}

func TestTavilySearch(t *testing.T) {
	provider := newTavilyServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Acme interview process", req.Query)
		assert.Equal(t, 3, req.MaxResults)
		assert.Equal(t, "basic", req.SearchDepth)
		assert.True(t, req.IncludeAnswer)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"query": "Acme interview process",
			"answer": "Acme runs a four stage loop.",
			"results": [{"title": "Acme careers", "url": "https://acme.example/careers", "content": "We hire engineers", "score": 0.9}]
		}`))
	})

	resp, err := provider.Search(context.Background(), "Acme interview process")
	require.NoError(t, err)
	assert.Equal(t, "Acme runs a four stage loop.", resp.Answer)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://acme.example/careers", resp.Results[0].URL)
}

func TestTavilyErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, retryable: false},
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "server error", status: http.StatusBadGateway, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTavilyServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"detail":{"error":"nope"}}`))
			})

			_, err := provider.Search(context.Background(), "query")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeSearchFailed))
			assert.Equal(t, tt.retryable, errors.IsRetryable(err))
		})
	}
}

func TestTavilyMalformedBody(t *testing.T) {
	provider := newTavilyServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := provider.Search(context.Background(), "query")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchFailed))
}

type fakeProvider struct {
	resp    *Response
	err     error
	queries []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(_ context.Context, query string) (*Response, error) {
	f.queries = append(f.queries, query)
	return f.resp, f.err
}

func TestToolExec(t *testing.T) {
	provider := &fakeProvider{resp: &Response{Answer: "summary", Results: []Result{{Title: "t", URL: "u", Content: "c"}}}}
	tool := NewTool(provider)

	out, err := tool.ExecJSON(context.Background(), []byte(`{"query":"  Acme culture "}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme culture"}, provider.queries)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "summary", decoded["answer"])
	assert.EqualValues(t, 1, decoded["result_count"])
}

func TestToolExecReportsSearchFailureAsContent(t *testing.T) {
	tool := NewTool(&fakeProvider{err: fmt.Errorf("upstream down")})

	out, err := tool.Exec(context.Background(), map[string]any{"query": "Acme"})
	require.NoError(t, err)
	assert.Contains(t, out, `"success":false`)
	assert.Contains(t, out, "upstream down")
}

func TestToolExecRejectsBadArguments(t *testing.T) {
	tool := NewTool(&fakeProvider{resp: &Response{}})

	_, err := tool.Exec(context.Background(), map[string]any{"query": 42})
	assert.Error(t, err)
	_, err = tool.ExecJSON(context.Background(), []byte(`{`))
	assert.Error(t, err)
}

func TestParametersSchema(t *testing.T) {
	schema := ParametersSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{QueryParameter}, schema["required"])
}
