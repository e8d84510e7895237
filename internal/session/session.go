package session

import (
	"fmt"
	"strings"
	"time"

	"interviewai/internal/errors"
)

// Stage is a step of the interview wizard.
type Stage string

const (
	StageJobSelection        Stage = "job_selection"
	StageResumeUpload        Stage = "resume_upload"
	StagePreparationComplete Stage = "preparation_complete"
	StageInterview           Stage = "interview"
	StageInterviewComplete   Stage = "interview_complete"
)

// Phase is the sub-state of the interview stage.
type Phase string

const (
	PhaseNone            Phase = ""
	PhaseAwaitingAnswer  Phase = "awaiting_answer"
	PhaseAwaitingAdvance Phase = "awaiting_advance"
)

const (
	// TotalQuestions is the fixed length of an interview.
	TotalQuestions = 10
	// RecentHistorySize is the number of entries fed into question generation.
	RecentHistorySize = 3
	// ResumePreviewLimit is the character count shown after upload.
	ResumePreviewLimit = 1000
	// FeedbackUnavailablePrefix starts the feedback text of a failed evaluation.
	FeedbackUnavailablePrefix = "Feedback unavailable: "
)

// QAEntry is one answered question. Entries are never modified once appended.
type QAEntry struct {
	QuestionNumber      int    `json:"questionNumber" yaml:"questionNumber"`
	Question            string `json:"question" yaml:"question"`
	Answer              string `json:"answer" yaml:"answer"`
	Feedback            string `json:"feedback" yaml:"feedback"`
	FeedbackUnavailable bool   `json:"feedbackUnavailable,omitempty" yaml:"feedbackUnavailable,omitempty"`
}

// Session is the complete state of one user's wizard run.
type Session struct {
	ID    string `json:"id"`
	Stage Stage  `json:"stage"`

	SelectedJob        string `json:"selectedJob,omitempty"`
	CompanyName        string `json:"companyName,omitempty"`
	ResumeText         string `json:"-"`
	ResumeFileName     string `json:"resumeFileName,omitempty"`
	ResumeAnalysis     string `json:"resumeAnalysis,omitempty"`
	InterviewQuestions string `json:"interviewQuestions,omitempty"`

	CurrentQuestionNumber int    `json:"currentQuestionNumber"`
	CurrentQuestion       string `json:"currentQuestion,omitempty"`
	AnswerSubmitted       bool   `json:"answerSubmitted"`
	CurrentAnswer         string `json:"currentAnswer,omitempty"`
	CurrentFeedback       string `json:"currentFeedback,omitempty"`

	History []QAEntry `json:"history"`

	StartedAt   time.Time `json:"startedAt,omitzero"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// New returns a session in its initial state.
func New(id string) *Session {
	s := &Session{ID: id}
	s.Reset()
	return s
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.History != nil {
		c.History = make([]QAEntry, len(s.History))
		copy(c.History, s.History)
	}
	return &c
}

func invalidTransition(action string, s *Session, reason string) error {
	return errors.NewValidationError(errors.ErrCodeInvalidTransition,
		fmt.Sprintf("cannot %s: %s", action, reason), nil).
		WithContext("stage", string(s.Stage)).
		WithContext("action", action)
}

func (s *Session) requireStage(action string, stage Stage) error {
	if s.Stage != stage {
		return invalidTransition(action, s, fmt.Sprintf("session is in stage %s, expected %s", s.Stage, stage))
	}
	return nil
}

// Expect returns an INVALID_TRANSITION error for action unless the session
// is in stage.
func (s *Session) Expect(action string, stage Stage) error {
	return s.requireStage(action, stage)
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// SelectJob records the target role and company and moves to resume upload.
func (s *Session) SelectJob(job, company string) error {
	if err := s.requireStage("continue", StageJobSelection); err != nil {
		return err
	}
	job = strings.TrimSpace(job)
	company = strings.TrimSpace(company)
	if job == "" {
		return invalidTransition("continue", s, "please select a job role")
	}
	if company == "" {
		return invalidTransition("continue", s, "please enter a company name")
	}

	s.SelectedJob = job
	s.CompanyName = company
	s.Stage = StageResumeUpload
	s.touch()
	return nil
}

// AttachResume stores the extracted resume. A later upload replaces an earlier one.
func (s *Session) AttachResume(fileName, text string) error {
	if err := s.requireStage("upload resume", StageResumeUpload); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return invalidTransition("upload resume", s, "resume text is empty")
	}

	s.ResumeFileName = fileName
	s.ResumeText = text
	s.touch()
	return nil
}

// HasResume reports whether resume text is attached.
func (s *Session) HasResume() bool {
	return s.ResumeText != ""
}

// CheckPreparation validates that preparation may run without changing state.
func (s *Session) CheckPreparation() error {
	const action = "complete preparation"
	if err := s.requireStage(action, StageResumeUpload); err != nil {
		return err
	}
	if !s.HasResume() {
		return invalidTransition(action, s, "please upload your resume first")
	}
	if s.ResumeAnalysis != "" || s.InterviewQuestions != "" {
		return invalidTransition(action, s, "preparation has already completed")
	}
	return nil
}

// CompletePreparation stores the analysis and research results.
func (s *Session) CompletePreparation(analysis, research string) error {
	const action = "complete preparation"
	if err := s.CheckPreparation(); err != nil {
		return err
	}
	if strings.TrimSpace(analysis) == "" || strings.TrimSpace(research) == "" {
		return invalidTransition(action, s, "analysis and research are both required")
	}

	s.ResumeAnalysis = analysis
	s.InterviewQuestions = research
	s.Stage = StagePreparationComplete
	s.touch()
	return nil
}

// StartInterview enters the interview at question 1.
func (s *Session) StartInterview() error {
	if err := s.requireStage("start interview", StagePreparationComplete); err != nil {
		return err
	}
	s.Stage = StageInterview
	s.CurrentQuestionNumber = 1
	s.clearCurrent()
	now := time.Now()
	s.StartedAt = now
	s.UpdatedAt = now
	return nil
}

// NeedsQuestion reports whether the current question still has to be generated.
func (s *Session) NeedsQuestion() bool {
	return s.Stage == StageInterview && !s.AnswerSubmitted && s.CurrentQuestion == ""
}

// SetQuestion stores the generated text of the current question.
func (s *Session) SetQuestion(question string) error {
	const action = "set question"
	if err := s.requireStage(action, StageInterview); err != nil {
		return err
	}
	if s.AnswerSubmitted {
		return invalidTransition(action, s, "answer already submitted for this question")
	}
	if s.CurrentQuestion != "" {
		return invalidTransition(action, s, "question already generated")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return invalidTransition(action, s, "question text is empty")
	}

	s.CurrentQuestion = question
	s.touch()
	return nil
}

// CheckAnswer validates that an answer may be submitted without changing state.
func (s *Session) CheckAnswer(answer string) error {
	const action = "submit answer"
	if err := s.requireStage(action, StageInterview); err != nil {
		return err
	}
	if s.CurrentQuestion == "" {
		return invalidTransition(action, s, "no question has been asked yet")
	}
	if s.AnswerSubmitted {
		return invalidTransition(action, s, "answer already submitted for this question")
	}
	if strings.TrimSpace(answer) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "please provide an answer before submitting", nil)
	}
	return nil
}

// SubmitAnswer records the answer and its feedback. When ok is false the
// feedback text is the failure reason and the entry is marked unavailable.
func (s *Session) SubmitAnswer(answer, feedback string, ok bool) error {
	if err := s.CheckAnswer(answer); err != nil {
		return err
	}

	entry := QAEntry{
		QuestionNumber: s.CurrentQuestionNumber,
		Question:       s.CurrentQuestion,
		Answer:         answer,
		Feedback:       feedback,
	}
	if !ok {
		entry.FeedbackUnavailable = true
		entry.Feedback = FeedbackUnavailablePrefix + feedback
	}

	s.History = append(s.History, entry)
	s.CurrentAnswer = answer
	s.CurrentFeedback = entry.Feedback
	s.AnswerSubmitted = true
	s.touch()
	return nil
}

// Advance moves to the next question, or completes the interview after the last one.
func (s *Session) Advance() error {
	const action = "advance"
	if err := s.requireStage(action, StageInterview); err != nil {
		return err
	}
	if !s.AnswerSubmitted {
		return invalidTransition(action, s, "please submit an answer first")
	}

	if s.CurrentQuestionNumber >= TotalQuestions {
		s.Stage = StageInterviewComplete
		s.CompletedAt = time.Now()
		s.UpdatedAt = s.CompletedAt
		return nil
	}

	s.CurrentQuestionNumber++
	s.clearCurrent()
	s.touch()
	return nil
}

func (s *Session) clearCurrent() {
	s.CurrentQuestion = ""
	s.CurrentAnswer = ""
	s.CurrentFeedback = ""
	s.AnswerSubmitted = false
}

// Reset returns every run-scoped field to its initial value. The ID is kept.
func (s *Session) Reset() {
	*s = Session{
		ID:                    s.ID,
		Stage:                 StageJobSelection,
		CurrentQuestionNumber: 1,
		History:               []QAEntry{},
		UpdatedAt:             time.Now(),
	}
}

// Phase returns the interview sub-state, or PhaseNone outside the interview.
func (s *Session) Phase() Phase {
	if s.Stage != StageInterview {
		return PhaseNone
	}
	if s.AnswerSubmitted {
		return PhaseAwaitingAdvance
	}
	return PhaseAwaitingAnswer
}

// RecentHistory returns up to n of the latest entries, oldest first.
func (s *Session) RecentHistory(n int) []QAEntry {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := max(len(s.History)-n, 0)
	return append([]QAEntry(nil), s.History[start:]...)
}

// Progress renders the interview position for display.
func (s *Session) Progress() string {
	return fmt.Sprintf("Question %d of %d", s.CurrentQuestionNumber, TotalQuestions)
}

// ProgressRatio is the fraction of questions answered.
func (s *Session) ProgressRatio() float64 {
	return float64(len(s.History)) / float64(TotalQuestions)
}

// ResumePreview returns the first limit characters of the resume.
func (s *Session) ResumePreview(limit int) string {
	runes := []rune(s.ResumeText)
	if len(runes) <= limit {
		return s.ResumeText
	}
	return string(runes[:limit]) + "..."
}

// IsLastQuestion reports whether the current question is the final one.
func (s *Session) IsLastQuestion() bool {
	return s.CurrentQuestionNumber >= TotalQuestions
}
