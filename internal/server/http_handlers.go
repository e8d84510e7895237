package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"interviewai/internal/errors"
	"interviewai/internal/formatters"
	"interviewai/internal/interview"
	"interviewai/internal/session"
)

const defaultHealthCheckTimeout = 10 * time.Second

// SessionView is the session as rendered to the client.
type SessionView struct {
	ID    string        `json:"id"`
	Stage session.Stage `json:"stage"`
	Phase session.Phase `json:"phase,omitempty"`

	SelectedJob        string `json:"selectedJob,omitempty"`
	CompanyName        string `json:"companyName,omitempty"`
	ResumeFileName     string `json:"resumeFileName,omitempty"`
	ResumePreview      string `json:"resumePreview,omitempty"`
	ResumeAnalysis     string `json:"resumeAnalysis,omitempty"`
	InterviewQuestions string `json:"interviewQuestions,omitempty"`

	Progress              string  `json:"progress,omitempty"`
	ProgressRatio         float64 `json:"progressRatio"`
	CurrentQuestionNumber int     `json:"currentQuestionNumber"`
	CurrentQuestion       string  `json:"currentQuestion,omitempty"`
	CurrentAnswer         string  `json:"currentAnswer,omitempty"`
	CurrentFeedback       string  `json:"currentFeedback,omitempty"`
	IsLastQuestion        bool    `json:"isLastQuestion"`

	History []session.QAEntry `json:"history"`
}

// SessionResponse wraps the session view. Error is set when the action
// changed the session but part of it failed.
type SessionResponse struct {
	Session SessionView    `json:"session"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

func newSessionView(s *session.Session) SessionView {
	view := SessionView{
		ID:                    s.ID,
		Stage:                 s.Stage,
		Phase:                 s.Phase(),
		SelectedJob:           s.SelectedJob,
		CompanyName:           s.CompanyName,
		ResumeFileName:        s.ResumeFileName,
		ResumePreview:         s.ResumePreview(session.ResumePreviewLimit),
		ResumeAnalysis:        s.ResumeAnalysis,
		InterviewQuestions:    s.InterviewQuestions,
		ProgressRatio:         s.ProgressRatio(),
		CurrentQuestionNumber: s.CurrentQuestionNumber,
		CurrentQuestion:       s.CurrentQuestion,
		CurrentAnswer:         s.CurrentAnswer,
		CurrentFeedback:       s.CurrentFeedback,
		IsLastQuestion:        s.Stage == session.StageInterview && s.IsLastQuestion(),
		History:               s.History,
	}
	if s.Stage == session.StageInterview {
		view.Progress = s.Progress()
	}
	return view
}

// healthHandler reports model availability and breaker state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "interviewai",
		"version": s.Version,
	}

	status := http.StatusOK
	if s.Gateways != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.healthCheckTimeout())
		defer cancel()

		models := s.Gateways.ModelInfo(ctx)
		response["ai_models"] = models
		response["circuit_breakers"] = s.Gateways.BreakerStats()

		for _, info := range models {
			if info == nil || !info.Available {
				response["status"] = "degraded"
				status = http.StatusServiceUnavailable
				break
			}
		}
	}

	writeJSON(w, status, response)
}

func (s *Server) healthCheckTimeout() time.Duration {
	if s.AppConfig != nil {
		if timeout := s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout; timeout > 0 {
			return timeout
		}
		if timeout := s.AppConfig.Observability.HealthCheck.Timeout; timeout > 0 {
			return timeout
		}
	}
	return defaultHealthCheckTimeout
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "interviewai",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.Stats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.Wizard != nil {
		response["sessions"] = s.Wizard.Store().Stats()
	}
	if s.Gateways != nil {
		response["circuit_breakers"] = s.Gateways.BreakerStats()
	}

	writeJSON(w, http.StatusOK, response)
}

// jobsHandler lists the job catalog, as JSON unless ?format= says otherwise
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" || strings.EqualFold(format, formatters.FormatJSON) {
		writeJSON(w, http.StatusOK, s.Catalog)
		return
	}
	s.writeFormatted(w, s.Catalog, format, "")
}

// sessionHandler returns the caller's session, creating one when needed
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, created := s.Wizard.Session(sessionID(r))
	if created {
		s.setSessionCookie(w, sess.ID)
		s.Logger.Debug("Issued session cookie", "session_id", sess.ID)
	}
	writeJSON(w, http.StatusOK, SessionResponse{Session: newSessionView(sess)})
}

func (s *Server) continueHandler(w http.ResponseWriter, r *http.Request) {
	var req ContinueRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeRequestError(w, err)
		return
	}
	sess, err := s.Wizard.Continue(r.Context(), sessionID(r), req.JobRole, req.CompanyName)
	s.respond(w, sess, err)
}

// resumeHandler accepts a multipart upload in the "file" field
func (s *Server) resumeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
		s.writeRequestError(w, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorResponse(w, errors.ErrCodeInvalidRequest, "a resume file is required in the 'file' form field", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeRequestError(w, err)
		return
	}

	sess, err := s.Wizard.UploadResume(r.Context(), sessionID(r), interview.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	s.respond(w, sess, err)
}

func (s *Server) prepareHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizard.Prepare(r.Context(), sessionID(r))
	s.respond(w, sess, err)
}

func (s *Server) startHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizard.Start(r.Context(), sessionID(r))
	s.respond(w, sess, err)
}

func (s *Server) questionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizard.Question(r.Context(), sessionID(r))
	s.respond(w, sess, err)
}

// answerHandler evaluates the answer. A failed evaluation still records the
// answer, so the response is 200 with the failure attached.
func (s *Server) answerHandler(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeRequestError(w, err)
		return
	}
	sess, err := s.Wizard.Answer(r.Context(), sessionID(r), req.Answer)
	if err != nil && sess != nil && !errors.IsType(err, errors.ErrorTypeValidation) {
		code, message := errorFields(err)
		writeJSON(w, http.StatusOK, SessionResponse{
			Session: newSessionView(sess),
			Error:   &ErrorResponse{Error: code, Message: message},
		})
		return
	}
	s.respond(w, sess, err)
}

func (s *Server) nextHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizard.Next(r.Context(), sessionID(r))
	s.respond(w, sess, err)
}

func (s *Server) finishHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizard.Finish(r.Context(), sessionID(r))
	s.respond(w, sess, err)
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizard.Reset(r.Context(), sessionID(r))
	s.respond(w, sess, err)
}

// reportHandler downloads the interview report in ?format=
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Wizard.Store().Get(sessionID(r))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	report, err := formatters.NewReport(sess)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.defaultFormat()
	}
	filename := fmt.Sprintf("interview-report-%s.%s", shortID(sess.ID), formatters.FileExtension(format))
	s.writeFormatted(w, report, format, filename)
}

func (s *Server) defaultFormat() string {
	if s.AppConfig != nil && s.AppConfig.App.DefaultFormat != "" {
		return s.AppConfig.App.DefaultFormat
	}
	return formatters.FormatMarkdown
}

// writeFormatted renders data through the formatter registry. A non-empty
// filename turns the response into a download.
func (s *Server) writeFormatted(w http.ResponseWriter, data any, format, filename string) {
	formatter, err := s.Formatters.Lookup(data, format)
	if err != nil {
		writeErrorResponse(w, errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported format %q, use one of %s", format, strings.Join(s.Formatters.GetSupportedFormats(), ", ")),
			http.StatusBadRequest)
		return
	}
	body, err := formatter.Format(data)
	if err != nil {
		s.Logger.LogError(err, "Failed to format response", "format", format)
		writeErrorResponse(w, "INTERNAL_ERROR", "failed to render the response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", formatter.ContentType())
	if filename != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		s.Logger.LogError(err, "Failed to write response")
	}
}

func (s *Server) respond(w http.ResponseWriter, sess *session.Session, err error) {
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Session: newSessionView(sess)})
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	code, message := errorFields(err)
	writeErrorResponse(w, code, message, statusForError(err))
}

// writeRequestError reports a malformed or oversized request body.
func (s *Server) writeRequestError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		writeErrorResponse(w, errors.ErrCodeFileTooLarge,
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	writeErrorResponse(w, errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
}

func errorFields(err error) (string, string) {
	if appErr, ok := errors.As(err); ok {
		return appErr.Code, appErr.Message
	}
	return "INTERNAL_ERROR", errors.UserMessage(err)
}

// statusForError maps an error to its HTTP status.
func statusForError(err error) int {
	appErr, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidTransition:
		return http.StatusConflict
	case errors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeAITimeout, errors.ErrCodeNetworkTimeout:
		return http.StatusGatewayTimeout
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeExtraction:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return err
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
