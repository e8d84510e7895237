package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health             - Health check with model status")
	fmt.Println("  GET  /stats              - Server statistics")
	fmt.Println("  GET  /jobs               - Job catalog")
	if path, _, ok := s.Telemetry.MetricsHandler(); ok {
		fmt.Printf("  GET  %-18s - Prometheus metrics\n", path)
	}
	fmt.Println("  GET  /session            - Current interview session")
	fmt.Println("  POST /session/continue   - Select job role and company")
	fmt.Println("  POST /session/resume     - Upload resume (multipart 'file')")
	fmt.Println("  POST /session/prepare    - Analyze resume and research questions")
	fmt.Println("  POST /session/start      - Start the interview")
	fmt.Println("  POST /session/question   - Generate the current question")
	fmt.Println("  POST /session/answer     - Submit an answer for feedback")
	fmt.Println("  POST /session/next       - Next question")
	fmt.Println("  POST /session/finish     - Finish the interview")
	fmt.Println("  POST /session/reset      - Start a new interview")
	fmt.Println("  GET  /session/report     - Download report (?format=json|markdown|text|yaml)")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /session endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
