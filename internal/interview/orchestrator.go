package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"interviewai/internal/ai"
	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/observability"
	"interviewai/internal/session"

	"golang.org/x/sync/errgroup"
)

// Context limits applied to prompt inputs, in characters.
const (
	AnalysisContextLimit   = 500
	ResearchContextLimit   = 1000
	EvaluationContextLimit = 300
)

// QuestionInput is everything question generation needs from the session.
type QuestionInput struct {
	JobRole            string
	CompanyName        string
	ResumeAnalysis     string
	InterviewQuestions string
	QuestionNumber     int
	RecentHistory      []session.QAEntry
}

// QuestionInputFrom builds the input for the session's current question.
func QuestionInputFrom(s *session.Session) QuestionInput {
	return QuestionInput{
		JobRole:            s.SelectedJob,
		CompanyName:        s.CompanyName,
		ResumeAnalysis:     s.ResumeAnalysis,
		InterviewQuestions: s.InterviewQuestions,
		QuestionNumber:     s.CurrentQuestionNumber,
		RecentHistory:      s.RecentHistory(session.RecentHistorySize),
	}
}

// Preparation is the result of Prepare.
type Preparation struct {
	Analysis string
	Research string
}

// Orchestrator runs the four interview operations. It holds no per-user
// state and is safe for concurrent use.
type Orchestrator struct {
	analysis  ai.Gateway
	research  ai.Gateway
	conduct   ai.Gateway
	prompts   *ai.PromptSource
	telemetry *observability.Manager
	logger    *errors.Logger
}

// NewOrchestrator creates an orchestrator over the role gateways. The
// telemetry manager may be nil.
func NewOrchestrator(gateways *ai.Gateways, prompts *ai.PromptSource, telemetry *observability.Manager, logger *errors.Logger) *Orchestrator {
	if prompts == nil {
		prompts = ai.NewPromptSource(nil)
	}
	return &Orchestrator{
		analysis:  gateways.Analysis,
		research:  gateways.Research,
		conduct:   gateways.Conduct,
		prompts:   prompts,
		telemetry: telemetry,
		logger:    logger,
	}
}

type analyzePrompt struct {
	JobRole    string
	ResumeText string
}

type researchPrompt struct {
	CompanyName string
	JobRole     string
}

type questionPrompt struct {
	JobRole            string
	CompanyName        string
	ResumeAnalysis     string
	InterviewQuestions string
	QuestionNumber     int
	TotalQuestions     int
	FirstQuestion      bool
	RecentHistory      []session.QAEntry
}

type evaluatePrompt struct {
	Question       string
	Answer         string
	JobRole        string
	ResumeAnalysis string
}

// AnalyzeResume asks the analysis model to assess the resume for jobRole.
func (o *Orchestrator) AnalyzeResume(ctx context.Context, resumeText, jobRole string) (string, error) {
	return o.call(ctx, o.analysis, ai.OpAnalyzeResume, config.SystemResumeAnalysis, config.UserAnalyzeResume,
		analyzePrompt{JobRole: jobRole, ResumeText: resumeText}, false)
}

// ResearchQuestions compiles likely interview questions for the company and
// role. Web search is enabled.
func (o *Orchestrator) ResearchQuestions(ctx context.Context, companyName, jobRole string) (string, error) {
	return o.call(ctx, o.research, ai.OpResearchQuestions, config.SystemQuestionResearch, config.UserResearchQuestions,
		researchPrompt{CompanyName: companyName, JobRole: jobRole}, true)
}

// GenerateQuestion produces the text of question in.QuestionNumber.
func (o *Orchestrator) GenerateQuestion(ctx context.Context, in QuestionInput) (string, error) {
	if in.QuestionNumber < 1 || in.QuestionNumber > session.TotalQuestions {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("question number must be between 1 and %d", session.TotalQuestions), nil)
	}

	history := in.RecentHistory
	if len(history) > session.RecentHistorySize {
		history = history[len(history)-session.RecentHistorySize:]
	}

	return o.call(ctx, o.conduct, ai.OpGenerateQuestion, config.SystemInterviewConduct, config.UserGenerateQuestion,
		questionPrompt{
			JobRole:            in.JobRole,
			CompanyName:        in.CompanyName,
			ResumeAnalysis:     Truncate(in.ResumeAnalysis, AnalysisContextLimit),
			InterviewQuestions: Truncate(in.InterviewQuestions, ResearchContextLimit),
			QuestionNumber:     in.QuestionNumber,
			TotalQuestions:     session.TotalQuestions,
			FirstQuestion:      in.QuestionNumber == 1,
			RecentHistory:      history,
		}, true)
}

// EvaluateAnswer scores the candidate's answer and returns written feedback.
func (o *Orchestrator) EvaluateAnswer(ctx context.Context, question, answer, resumeAnalysis, jobRole string) (string, error) {
	return o.call(ctx, o.conduct, ai.OpEvaluateAnswer, config.SystemInterviewConduct, config.UserEvaluateAnswer,
		evaluatePrompt{
			Question:       question,
			Answer:         answer,
			JobRole:        jobRole,
			ResumeAnalysis: Truncate(resumeAnalysis, EvaluationContextLimit),
		}, false)
}

// Prepare runs resume analysis and company research concurrently and returns
// both results, or the first error. The first failure cancels the other call.
func (o *Orchestrator) Prepare(ctx context.Context, resumeText, jobRole, companyName string) (*Preparation, error) {
	var prep Preparation
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		analysis, err := o.AnalyzeResume(ctx, resumeText, jobRole)
		prep.Analysis = analysis
		return err
	})
	g.Go(func() error {
		research, err := o.ResearchQuestions(ctx, companyName, jobRole)
		prep.Research = research
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &prep, nil
}

func (o *Orchestrator) call(ctx context.Context, gateway ai.Gateway, op string, systemKey, userKey config.PromptKey, data any, webSearch bool) (string, error) {
	userPrompt, err := o.prompts.Render(userKey, data)
	if err != nil {
		return "", err
	}

	req := ai.Request{
		Operation:    op,
		SystemPrompt: o.prompts.System(systemKey),
		UserPrompt:   userPrompt,
		WebSearch:    webSearch,
	}

	start := time.Now()
	var resp *ai.Response
	err = o.telemetry.TrackAIOperation(ctx, op, func(ctx context.Context) (*observability.TokenUsage, error) {
		var genErr error
		resp, genErr = gateway.Generate(ctx, req)
		if resp == nil {
			return nil, genErr
		}
		return (*observability.TokenUsage)(resp.Usage), genErr
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.NewAIError(errors.ErrCodeEmptyAIResponse,
			"The AI service returned an empty response, please try again", nil).
			WithContext("operation", op).
			MarkRetryable()
	}

	if o.logger != nil {
		o.logger.Debug("AI operation completed",
			"operation", op,
			"duration", time.Since(start).String(),
			"response_chars", len([]rune(text)),
			"search_queries", len(resp.SearchQueries))
	}
	return text, nil
}

// Truncate keeps the first limit characters (runes) of s. When text was cut
// it appends "...", which is not counted against limit, so the result can be
// up to limit+3 characters long.
func Truncate(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
