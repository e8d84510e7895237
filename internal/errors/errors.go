package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrorType groups errors by how the caller is expected to react.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError is the structured error passed between layers and rendered to users.
type AppError struct {
	Type      ErrorType      `json:"type"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Cause     error          `json:"-"`
	Context   map[string]any `json:"context,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewExtractionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeExtraction, code, message, cause)
}

func NewAIError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAI, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// MarkRetryable flags the error as safe for the user to retry unchanged.
func (e *AppError) MarkRetryable() *AppError {
	e.Retryable = true
	return e
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == typ
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether the failed action may be repeated as-is.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Retryable
}

// UserMessage is the text shown to an end user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a JSON logger writing to stdout.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stdout, level)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{logger: slog.New(handler)}
}

// LogError logs err, flattening AppError fields into attributes.
func (l *Logger) LogError(err error, message string, args ...any) {
	appErr, ok := As(err)
	if !ok {
		logArgs := append([]any{"error", err.Error()}, args...)
		l.logger.Error(message, logArgs...)
		return
	}

	logArgs := []any{
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	}
	if appErr.Cause != nil {
		logArgs = append(logArgs, "error_cause", appErr.Cause.Error())
	}
	if appErr.Retryable {
		logArgs = append(logArgs, "retryable", true)
	}
	for key, value := range appErr.Context {
		logArgs = append(logArgs, key, value)
	}
	logArgs = append(logArgs, args...)

	l.logger.Error(message, logArgs...)
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// Slog exposes the underlying slog logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// New creates a logger from a level name.
func New(level string) (*Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewLogger(slogLevel), nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// Common error codes
const (
	ErrCodeFileNotFound        = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable     = "FILE_NOT_READABLE"
	ErrCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrCodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	ErrCodeExtractionFailed    = "EXTRACTION_FAILED"
	ErrCodeInvalidFormat       = "INVALID_FORMAT"
	ErrCodeAIServiceFailed     = "AI_SERVICE_FAILED"
	ErrCodeAITimeout           = "AI_TIMEOUT"
	ErrCodeEmptyAIResponse     = "EMPTY_AI_RESPONSE"
	ErrCodeSearchFailed        = "SEARCH_FAILED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
	ErrCodeMissingAPIKey       = "MISSING_API_KEY"
	ErrCodeNetworkTimeout      = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig       = "INVALID_CONFIG"
)
