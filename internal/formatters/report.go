package formatters

import (
	"time"

	"interviewai/internal/errors"
	"interviewai/internal/session"
)

// Report is the downloadable summary of an interview run.
type Report struct {
	SessionID      string `json:"sessionId" yaml:"sessionId"`
	JobRole        string `json:"jobRole" yaml:"jobRole"`
	CompanyName    string `json:"companyName" yaml:"companyName"`
	ResumeFileName string `json:"resumeFileName,omitempty" yaml:"resumeFileName,omitempty"`
	Completed      bool   `json:"completed" yaml:"completed"`

	StartedAt   time.Time `json:"startedAt,omitzero" yaml:"startedAt,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitzero" yaml:"completedAt,omitempty"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`

	AnsweredQuestions int `json:"answeredQuestions" yaml:"answeredQuestions"`
	TotalQuestions    int `json:"totalQuestions" yaml:"totalQuestions"`

	ResumeAnalysis string            `json:"resumeAnalysis" yaml:"resumeAnalysis"`
	Research       string            `json:"research" yaml:"research"`
	Entries        []session.QAEntry `json:"entries" yaml:"entries"`
}

// NewReport summarizes a session that has entered the interview.
func NewReport(s *session.Session) (*Report, error) {
	if s.Stage != session.StageInterview && s.Stage != session.StageInterviewComplete {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidTransition,
			"cannot download report: the interview has not started", nil).
			WithContext("stage", string(s.Stage)).
			WithContext("action", "download report")
	}

	return &Report{
		SessionID:         s.ID,
		JobRole:           s.SelectedJob,
		CompanyName:       s.CompanyName,
		ResumeFileName:    s.ResumeFileName,
		Completed:         s.Stage == session.StageInterviewComplete,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		GeneratedAt:       time.Now().UTC(),
		AnsweredQuestions: len(s.History),
		TotalQuestions:    session.TotalQuestions,
		ResumeAnalysis:    s.ResumeAnalysis,
		Research:          s.InterviewQuestions,
		Entries:           append([]session.QAEntry{}, s.History...),
	}, nil
}

func (r *Report) status() string {
	if r.Completed {
		return "Completed"
	}
	return "In progress"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC1123)
}
