package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// rate limit, then auth, then body size
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware()(s.authMiddleware(s.requestSizeLimitMiddleware()(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.HandleFunc("GET /jobs", s.jobsHandler)

	if path, handler, ok := s.Telemetry.MetricsHandler(); ok {
		mux.Handle("GET "+path, handler)
	}

	mux.HandleFunc("GET /session", protect(s.sessionHandler))
	mux.HandleFunc("POST /session/continue", protect(s.continueHandler))
	mux.HandleFunc("POST /session/resume", protect(s.resumeHandler))
	mux.HandleFunc("POST /session/prepare", protect(s.prepareHandler))
	mux.HandleFunc("POST /session/start", protect(s.startHandler))
	mux.HandleFunc("POST /session/question", protect(s.questionHandler))
	mux.HandleFunc("POST /session/answer", protect(s.answerHandler))
	mux.HandleFunc("POST /session/next", protect(s.nextHandler))
	mux.HandleFunc("POST /session/finish", protect(s.finishHandler))
	mux.HandleFunc("POST /session/reset", protect(s.resetHandler))
	mux.HandleFunc("GET /session/report", protect(s.reportHandler))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "UNAUTHORIZED", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "UNAUTHORIZED", "Invalid API key", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// sessionID returns the session ID from the request cookie, or "".
func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
