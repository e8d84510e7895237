package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"interviewai/internal/config"
)

// Responder produces a static reply for a request.
type Responder func(Request) (string, error)

// StaticGateway answers from a Responder without calling a model. It records
// every request and backs tests and the offline demo.
type StaticGateway struct {
	mu        sync.Mutex
	responder Responder
	requests  []Request
}

var _ Gateway = (*StaticGateway)(nil)

// NewStaticGateway creates a gateway answering with responder.
func NewStaticGateway(responder Responder) *StaticGateway {
	return &StaticGateway{responder: responder}
}

// NewFixedGateway answers each operation with a fixed text. Unknown
// operations get an empty reply.
func NewFixedGateway(replies map[string]string) *StaticGateway {
	return NewStaticGateway(func(req Request) (string, error) {
		return replies[req.Operation], nil
	})
}

// Generate implements Gateway.
func (s *StaticGateway) Generate(ctx context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	responder := s.responder
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := responder(req)
	if err != nil {
		return nil, err
	}
	return &Response{Text: text, Usage: &TokenUsage{}}, nil
}

// SetResponder replaces the responder.
func (s *StaticGateway) SetResponder(responder Responder) {
	s.mu.Lock()
	s.responder = responder
	s.mu.Unlock()
}

// Requests returns a copy of the recorded requests.
func (s *StaticGateway) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request for operation.
func (s *StaticGateway) LastRequest(operation string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Operation == operation {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

// ModelInfo implements Gateway.
func (s *StaticGateway) ModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Name: "static", Provider: config.ProviderStatic, Available: true}
}

// Close implements Gateway.
func (s *StaticGateway) Close() error {
	return nil
}

var questionNumberPattern = regexp.MustCompile(`Question Number: (\d+)`)

var demoQuestions = []string{
	"Welcome! Thanks for joining us today. To start, could you walk me through your background and what drew you to this role?",
	"Which project on your resume are you proudest of, and what was your specific contribution?",
	"Tell me about a time you disagreed with a teammate. How did you resolve it?",
	"How do you prioritise when several urgent requests arrive at once?",
	"Describe a technical or domain problem you solved recently. What alternatives did you consider?",
	"What do you know about our products, and how would you improve one of them?",
	"Tell me about a time a project failed. What did you learn?",
	"How would you approach your first 90 days in this position?",
	"Describe a situation where you had to learn something new quickly under pressure.",
	"Why are you the right person for this role, and what questions do you have for us?",
}

// DemoResponder serves canned content for running without model credentials.
func DemoResponder(req Request) (string, error) {
	switch req.Operation {
	case OpAnalyzeResume:
		return "Offline demo analysis: the resume shows relevant experience, clear progression and room to quantify achievements.", nil
	case OpResearchQuestions:
		return "Offline demo research:\n- Technical: explain a system you built.\n- Behavioral: describe a conflict.\n- Company: why do you want to join?", nil
	case OpGenerateQuestion:
		n := 1
		if m := questionNumberPattern.FindStringSubmatch(req.UserPrompt); m != nil {
			n, _ = strconv.Atoi(m[1])
		}
		if n < 1 || n > len(demoQuestions) {
			return "", fmt.Errorf("no demo question for number %d", n)
		}
		return demoQuestions[n-1], nil
	case OpEvaluateAnswer:
		return "Score: 7/10\nStrengths: clear structure.\nImprovements: add measurable results.\nSuggestion: use the STAR method.\nRecommendation: continue.", nil
	}
	return "", fmt.Errorf("unknown operation %q", req.Operation)
}
