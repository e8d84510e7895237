package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interviewai/internal/ai"
	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/extract"
	"interviewai/internal/interview"
	"interviewai/internal/observability"
	"interviewai/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type testEnv struct {
	server  *Server
	handler http.Handler
	conduct *ai.StaticGateway
}

func newTestEnv(t *testing.T, cfg ServerConfig, maxFileSize int64, telemetry *observability.Manager) *testEnv {
	t.Helper()
	conduct := ai.NewStaticGateway(ai.DemoResponder)
	gateways := &ai.Gateways{
		Analysis: ai.NewStaticGateway(ai.DemoResponder),
		Research: ai.NewStaticGateway(ai.DemoResponder),
		Conduct:  conduct,
	}

	store := session.NewStore(0, 0, nil)
	t.Cleanup(func() { _ = store.Close() })

	orchestrator := interview.NewOrchestrator(gateways, nil, telemetry, nil)
	wizard := interview.NewWizard(store, extract.New(maxFileSize, nil), orchestrator, telemetry, nil)

	logger := errors.NewLoggerWithWriter(&bytes.Buffer{}, 0)
	srv := NewServer(nil, cfg, Dependencies{
		Wizard:    wizard,
		Gateways:  gateways,
		Telemetry: telemetry,
	}, logger)
	t.Cleanup(srv.closeRateLimiter)

	return &testEnv{server: srv, handler: srv.Handler(), conduct: conduct}
}

// client replays the session cookie like a browser would.
type client struct {
	t      *testing.T
	env    *testEnv
	cookie *http.Cookie
	header http.Header
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, env: e, header: http.Header{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	c.env.handler.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookie {
			c.cookie = cookie
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(fileName string, data []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/session/resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func defaultConfig() ServerConfig {
	return ServerConfig{Version: "test", MaxRequestSize: extract.DefaultMaxFileSize + multipartOverhead}
}

// prepare drives a client through to the start of the interview.
func (c *client) prepare() {
	c.t.Helper()
	decodeSession(c.t, c.get("/session"))
	decodeSession(c.t, c.post("/session/continue", ContinueRequest{JobRole: "Software Engineer", CompanyName: "Acme"}))
	decodeSession(c.t, c.upload("resume.txt", []byte("5 years Python, led 2 teams.")))
	decodeSession(c.t, c.post("/session/prepare", nil))
	decodeSession(c.t, c.post("/session/start", nil))
}

func TestWizardFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), 0, nil)
	c := env.client(t)

	resp := decodeSession(t, c.get("/session"))
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)
	assert.Equal(t, c.cookie.Value, resp.Session.ID)
	assert.Equal(t, session.StageJobSelection, resp.Session.Stage)

	resp = decodeSession(t, c.post("/session/continue", ContinueRequest{JobRole: "Software Engineer", CompanyName: "Acme"}))
	assert.Equal(t, session.StageResumeUpload, resp.Session.Stage)
	assert.Equal(t, "Acme", resp.Session.CompanyName)

	resp = decodeSession(t, c.upload("resume.txt", []byte("5 years Python, led 2 teams.")))
	assert.Equal(t, "5 years Python, led 2 teams.", resp.Session.ResumePreview)
	assert.Equal(t, "resume.txt", resp.Session.ResumeFileName)

	resp = decodeSession(t, c.post("/session/prepare", nil))
	assert.Equal(t, session.StagePreparationComplete, resp.Session.Stage)
	assert.NotEmpty(t, resp.Session.ResumeAnalysis)
	assert.NotEmpty(t, resp.Session.InterviewQuestions)

	resp = decodeSession(t, c.post("/session/start", nil))
	assert.Equal(t, session.StageInterview, resp.Session.Stage)
	assert.Equal(t, "Question 1 of 10", resp.Session.Progress)

	resp = decodeSession(t, c.post("/session/question", nil))
	assert.Contains(t, resp.Session.CurrentQuestion, "Welcome")
	assert.Equal(t, session.PhaseAwaitingAnswer, resp.Session.Phase)

	resp = decodeSession(t, c.post("/session/answer", AnswerRequest{Answer: "I used async pipelines to cut latency 30%"}))
	assert.Nil(t, resp.Error)
	assert.Equal(t, session.PhaseAwaitingAdvance, resp.Session.Phase)
	require.Len(t, resp.Session.History, 1)
	assert.Contains(t, resp.Session.History[0].Feedback, "Score")

	resp = decodeSession(t, c.post("/session/next", nil))
	assert.Equal(t, 2, resp.Session.CurrentQuestionNumber)
	assert.Empty(t, resp.Session.CurrentQuestion)
}

func TestErrorStatusMapping(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), 64, nil)

	t.Run("unknown session", func(t *testing.T) {
		c := env.client(t)
		rec := c.post("/session/continue", ContinueRequest{JobRole: "Nurse", CompanyName: "Clinic"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errors.ErrCodeSessionNotFound, decodeError(t, rec).Error)
	})

	t.Run("invalid transition", func(t *testing.T) {
		c := env.client(t)
		decodeSession(t, c.get("/session"))
		rec := c.post("/session/continue", ContinueRequest{JobRole: "", CompanyName: "Acme"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidTransition, decodeError(t, rec).Error)

		rec = c.post("/session/prepare", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		c := env.client(t)
		decodeSession(t, c.get("/session"))
		req := httptest.NewRequest(http.MethodPost, "/session/continue", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := c.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidRequest, decodeError(t, rec).Error)
	})

	t.Run("upload errors", func(t *testing.T) {
		c := env.client(t)
		decodeSession(t, c.get("/session"))
		decodeSession(t, c.post("/session/continue", ContinueRequest{JobRole: "Data Scientist", CompanyName: "Acme"}))

		rec := c.upload("resume.txt", bytes.Repeat([]byte("a"), 100))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, errors.ErrCodeFileTooLarge, decodeError(t, rec).Error)

		rec = c.upload("resume.odt", []byte{0x00, 0x01, 0x02, 0x03})
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

		rec = c.upload("resume.pdf", []byte("%PDF-1.4 garbage"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, errors.ErrCodeExtractionFailed, decodeError(t, rec).Error)

		rec = c.post("/session/resume", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := env.client(t).get("/session/start")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errors.NewValidationError(errors.ErrCodeInvalidRequest, "empty", nil), http.StatusBadRequest},
		{"session", errors.NewValidationError(errors.ErrCodeSessionNotFound, "gone", nil), http.StatusNotFound},
		{"transition", errors.NewValidationError(errors.ErrCodeInvalidTransition, "no", nil), http.StatusConflict},
		{"too large", errors.NewValidationError(errors.ErrCodeFileTooLarge, "big", nil), http.StatusRequestEntityTooLarge},
		{"unsupported", errors.NewValidationError(errors.ErrCodeUnsupportedFileType, "odt", nil), http.StatusUnsupportedMediaType},
		{"extraction", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "bad", nil), http.StatusUnprocessableEntity},
		{"ai", errors.NewAIError(errors.ErrCodeAIServiceFailed, "down", nil), http.StatusBadGateway},
		{"empty ai", errors.NewAIError(errors.ErrCodeEmptyAIResponse, "empty", nil), http.StatusBadGateway},
		{"ai timeout", errors.NewAIError(errors.ErrCodeAITimeout, "slow", nil), http.StatusGatewayTimeout},
		{"search", errors.NewNetworkError(errors.ErrCodeSearchFailed, "search", nil), http.StatusBadGateway},
		{"config", errors.NewConfigError(errors.ErrCodeInvalidConfig, "cfg", nil), http.StatusInternalServerError},
		{"plain", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestFailedEvaluationStillRecordsAnswer(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), 0, nil)
	c := env.client(t)
	c.prepare()
	decodeSession(t, c.post("/session/question", nil))

	env.conduct.SetResponder(func(ai.Request) (string, error) {
		return "", errors.NewAIError(errors.ErrCodeAIServiceFailed, "the AI service is unavailable", nil)
	})

	resp := decodeSession(t, c.post("/session/answer", AnswerRequest{Answer: "My answer"}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrCodeAIServiceFailed, resp.Error.Error)
	require.Len(t, resp.Session.History, 1)
	assert.True(t, resp.Session.History[0].FeedbackUnavailable)

	rec := c.post("/session/answer", AnswerRequest{Answer: "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReportDownload(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), 0, nil)
	c := env.client(t)
	decodeSession(t, c.get("/session"))

	rec := c.get("/session/report")
	assert.Equal(t, http.StatusConflict, rec.Code)

	c.prepare()
	decodeSession(t, c.post("/session/question", nil))
	decodeSession(t, c.post("/session/answer", AnswerRequest{Answer: "I built a queue."}))

	rec = c.get("/session/report?format=markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".md")
	assert.Contains(t, rec.Body.String(), "# Interview Report: Software Engineer at Acme")
	assert.Contains(t, rec.Body.String(), "> I built a queue.")

	rec = c.get("/session/report?format=json")
	require.Equal(t, http.StatusOK, rec.Code)
	var report map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, float64(1), report["answeredQuestions"])

	rec = c.get("/session/report?format=pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Error)
}

func TestFinishOverHTTP(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), 0, nil)
	c := env.client(t)
	c.prepare()

	rec := c.post("/session/finish", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp SessionResponse
	for n := 1; n <= session.TotalQuestions; n++ {
		decodeSession(t, c.post("/session/question", nil))
		decodeSession(t, c.post("/session/answer", AnswerRequest{Answer: "answer"}))
		if n == session.TotalQuestions {
			resp = decodeSession(t, c.post("/session/finish", nil))
		} else {
			resp = decodeSession(t, c.post("/session/next", nil))
		}
	}
	assert.Equal(t, session.StageInterviewComplete, resp.Session.Stage)
	assert.Len(t, resp.Session.History, session.TotalQuestions)

	resp = decodeSession(t, c.post("/session/reset", nil))
	assert.Equal(t, session.StageJobSelection, resp.Session.Stage)
	assert.Empty(t, resp.Session.History)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := defaultConfig()
	cfg.APIKeys = []string{"secret-key-123456"}
	env := newTestEnv(t, cfg, 0, nil)

	c := env.client(t)
	rec := c.get("/session")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c.header.Set("X-API-Key", "wrong")
	rec = c.get("/session")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c.header.Del("X-API-Key")
	c.header.Set("Authorization", "Bearer secret-key-123456")
	decodeSession(t, c.get("/session"))

	// health stays public
	rec = env.client(t).get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitRecordsHits(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	telemetry, err := observability.NewManagerWithReader(observability.Options{
		ServiceName: "interviewai-test",
		SampleRate:  1.0,
		Interval:    time.Second,
		Metrics:     observability.AllMetrics(),
	}, nil, reader)
	require.NoError(t, err)
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background()) })

	cfg := defaultConfig()
	cfg.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
	env := newTestEnv(t, cfg, 0, telemetry)
	c := env.client(t)

	assert.Equal(t, http.StatusOK, c.get("/session").Code)
	assert.Equal(t, http.StatusOK, c.get("/session").Code)
	rec := c.get("/session")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Error)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var hits int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "interviewai_rate_limit_hits_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				hits += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), hits)
}

func TestRateLimiterBuckets(t *testing.T) {
	rl := NewRateLimiter(60, 1, nil)
	t.Cleanup(rl.Close)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	ok, _ := rl.Reserve("ip:a")
	assert.True(t, ok)
	ok, wait := rl.Reserve("ip:a")
	assert.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)

	ok, _ = rl.Reserve("ip:b")
	assert.True(t, ok, "buckets are per caller")

	clock = clock.Add(time.Second)
	ok, _ = rl.Reserve("ip:a")
	assert.True(t, ok, "a token refills after a second at 60/min")

	stats := rl.Stats()
	assert.Equal(t, 2, stats["tracked_clients"])
	assert.Equal(t, int64(1), stats["rejected_requests"])

	clock = clock.Add(limiterIdleEviction + time.Second)
	assert.Equal(t, 2, rl.evictIdle(limiterIdleEviction))
	assert.Equal(t, 0, rl.Stats()["tracked_clients"])
}

func TestRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1", getRateLimitKey(req, false, true))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "ip:203.0.113.7", getRateLimitKey(req, false, true))

	req.Header.Set("X-API-Key", "abc")
	assert.Equal(t, "api:abc", getRateLimitKey(req, true, true))
	assert.Equal(t, "", getRateLimitKey(req, false, false))
}

func TestHealthStatsAndJobs(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), 0, nil)
	c := env.client(t)
	decodeSession(t, c.get("/session"))

	rec := c.get("/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health, "ai_models")

	rec = c.get("/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	sessions, ok := stats["sessions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), sessions["active"])

	rec = c.get("/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Software Engineer")

	rec = c.get("/jobs?format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Technology:\n  - Software Engineer")
}

func TestServerConfigFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = "9090"
	cfg.Server.CookieSecure = true
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 30, BurstCapacity: 5}
	cfg.App.MaxFileSize = 1024

	sc := ServerConfigFromConfig(cfg, "1.0.0")
	assert.Equal(t, "9090", sc.Port)
	assert.Equal(t, int64(1024+multipartOverhead), sc.MaxRequestSize)
	assert.True(t, sc.CookieSecure)
	require.NotNil(t, sc.RateLimit)
	assert.Equal(t, 30, sc.RateLimit.RequestsPerMin)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"
	env := newTestEnv(t, cfg, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestStartReportsListenError(t *testing.T) {
	cfg := defaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = "not-a-port"
	env := newTestEnv(t, cfg, 0, nil)

	err := env.server.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
