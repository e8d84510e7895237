package interview

import (
	"context"
	"path/filepath"

	"interviewai/internal/errors"
	"interviewai/internal/extract"
	"interviewai/internal/observability"
	"interviewai/internal/session"

	"go.opentelemetry.io/otel/attribute"
)

// Upload is a resume file received from the user.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Wizard binds each user action to one session transition and, where the
// action needs it, one orchestrator call. Failures leave the session as it was.
type Wizard struct {
	store        *session.Store
	extractor    *extract.Extractor
	orchestrator *Orchestrator
	telemetry    *observability.Manager
	logger       *errors.Logger
}

// NewWizard creates a wizard. telemetry may be nil.
func NewWizard(store *session.Store, extractor *extract.Extractor, orchestrator *Orchestrator, telemetry *observability.Manager, logger *errors.Logger) *Wizard {
	return &Wizard{
		store:        store,
		extractor:    extractor,
		orchestrator: orchestrator,
		telemetry:    telemetry,
		logger:       logger,
	}
}

// Store exposes the session store.
func (w *Wizard) Store() *session.Store {
	return w.store
}

// Session returns the session for id, creating one when id is unknown.
func (w *Wizard) Session(id string) (*session.Session, bool) {
	return w.store.GetOrCreate(id)
}

// Continue selects the job role and company.
func (w *Wizard) Continue(ctx context.Context, id, jobRole, companyName string) (*session.Session, error) {
	s, err := w.store.Update(id, func(s *session.Session) error {
		return s.SelectJob(jobRole, companyName)
	})
	if err != nil {
		return s, w.fail(err, "continue", id)
	}
	w.telemetry.RecordEvent(ctx, observability.EventSessionStarted, true, attribute.String("job_role", s.SelectedJob))
	w.log("Job selected", id, "job_role", s.SelectedJob, "company", s.CompanyName)
	return s, nil
}

// UploadResume extracts text from the upload and attaches it. A failed
// extraction keeps any previously attached resume.
func (w *Wizard) UploadResume(ctx context.Context, id string, upload Upload) (*session.Session, error) {
	var fileType extract.FileType
	s, err := w.store.Update(id, func(s *session.Session) error {
		if err := s.Expect("upload resume", session.StageResumeUpload); err != nil {
			return err
		}
		var err error
		fileType, err = extract.DetectType(upload.FileName, upload.ContentType, upload.Data)
		if err != nil {
			return err
		}
		text, err := w.extractor.Extract(upload.Data, fileType)
		if err != nil {
			w.telemetry.RecordEvent(ctx, observability.EventExtraction, false, attribute.String("file_type", string(fileType)))
			return err
		}
		w.telemetry.RecordEvent(ctx, observability.EventExtraction, true, attribute.String("file_type", string(fileType)))
		w.telemetry.RecordResumeSize(ctx, len([]rune(text)), string(fileType))
		return s.AttachResume(upload.FileName, text)
	})
	if err != nil {
		return s, w.fail(err, "upload resume", id, "file_name", upload.FileName)
	}
	w.log("Resume attached", id,
		"file_name", upload.FileName,
		"file_type", fileType,
		"size", extract.FormatFileSize(int64(len(upload.Data))),
		"chars", len([]rune(s.ResumeText)))
	return s, nil
}

// UploadResumeFile reads a resume from disk and uploads it.
func (w *Wizard) UploadResumeFile(ctx context.Context, id, path string) (*session.Session, error) {
	data, err := w.extractor.ReadFile(path)
	if err != nil {
		current, getErr := w.store.Get(id)
		if getErr != nil {
			return nil, w.fail(getErr, "upload resume", id)
		}
		return current, w.fail(err, "upload resume", id, "file_name", path)
	}
	return w.UploadResume(ctx, id, Upload{FileName: filepath.Base(path), Data: data})
}

// Prepare analyzes the resume and researches the company, then records both.
func (w *Wizard) Prepare(ctx context.Context, id string) (*session.Session, error) {
	s, err := w.store.Update(id, func(s *session.Session) error {
		if err := s.CheckPreparation(); err != nil {
			return err
		}
		prep, err := w.orchestrator.Prepare(ctx, s.ResumeText, s.SelectedJob, s.CompanyName)
		if err != nil {
			return err
		}
		return s.CompletePreparation(prep.Analysis, prep.Research)
	})
	w.telemetry.RecordEvent(ctx, observability.EventInterviewPrepared, err == nil)
	if err != nil {
		return s, w.fail(err, "prepare", id)
	}
	w.log("Interview prepared", id, "analysis_chars", len(s.ResumeAnalysis), "research_chars", len(s.InterviewQuestions))
	return s, nil
}

// Start enters the interview at question 1.
func (w *Wizard) Start(_ context.Context, id string) (*session.Session, error) {
	s, err := w.store.Update(id, func(s *session.Session) error {
		return s.StartInterview()
	})
	if err != nil {
		return s, w.fail(err, "start interview", id)
	}
	return s, nil
}

// Question generates the current question. It does nothing when the question
// already exists.
func (w *Wizard) Question(ctx context.Context, id string) (*session.Session, error) {
	s, err := w.store.Update(id, func(s *session.Session) error {
		if err := s.Expect("generate question", session.StageInterview); err != nil {
			return err
		}
		if !s.NeedsQuestion() {
			return nil
		}
		question, err := w.orchestrator.GenerateQuestion(ctx, QuestionInputFrom(s))
		if err != nil {
			return err
		}
		w.telemetry.RecordEvent(ctx, observability.EventQuestionAsked, true)
		return s.SetQuestion(question)
	})
	if err != nil {
		return s, w.fail(err, "generate question", id)
	}
	return s, nil
}

// Answer evaluates and records the answer. When evaluation fails the answer
// is still recorded, marked as having no feedback, and the failure is
// returned alongside the updated session.
func (w *Wizard) Answer(ctx context.Context, id, answer string) (*session.Session, error) {
	var evalErr error
	s, err := w.store.Update(id, func(s *session.Session) error {
		if err := s.CheckAnswer(answer); err != nil {
			return err
		}
		feedback, err := w.orchestrator.EvaluateAnswer(ctx, s.CurrentQuestion, answer, s.ResumeAnalysis, s.SelectedJob)
		if err != nil {
			evalErr = err
			return s.SubmitAnswer(answer, errors.UserMessage(err), false)
		}
		return s.SubmitAnswer(answer, feedback, true)
	})
	if err != nil {
		return s, w.fail(err, "submit answer", id)
	}

	w.telemetry.RecordEvent(ctx, observability.EventAnswerEvaluated, evalErr == nil)
	if evalErr != nil {
		return s, w.fail(evalErr, "evaluate answer", id, "question_number", s.CurrentQuestionNumber)
	}
	return s, nil
}

// Next advances to the next question, or completes the interview after the last.
func (w *Wizard) Next(ctx context.Context, id string) (*session.Session, error) {
	s, err := w.store.Update(id, func(s *session.Session) error {
		return s.Advance()
	})
	if err != nil {
		return s, w.fail(err, "advance", id)
	}
	if s.Stage == session.StageInterviewComplete {
		w.telemetry.RecordEvent(ctx, observability.EventInterviewCompleted, true, attribute.String("job_role", s.SelectedJob))
		w.log("Interview completed", id, "answers", len(s.History))
	}
	return s, nil
}

// Finish completes the interview from the last question.
func (w *Wizard) Finish(ctx context.Context, id string) (*session.Session, error) {
	current, err := w.store.Get(id)
	if err != nil {
		return nil, w.fail(err, "finish", id)
	}
	if current.Stage == session.StageInterview && !current.IsLastQuestion() {
		return current, w.fail(errors.NewValidationError(errors.ErrCodeInvalidTransition,
			"cannot finish: the interview has more questions", nil).
			WithContext("stage", string(current.Stage)).
			WithContext("action", "finish"), "finish", id)
	}
	return w.Next(ctx, id)
}

// Reset starts a new run in the same session slot.
func (w *Wizard) Reset(_ context.Context, id string) (*session.Session, error) {
	s, err := w.store.Update(id, func(s *session.Session) error {
		s.Reset()
		return nil
	})
	if err != nil {
		return s, w.fail(err, "reset", id)
	}
	w.log("Session reset", id)
	return s, nil
}

func (w *Wizard) fail(err error, action, id string, args ...any) error {
	if w.logger != nil {
		w.logger.LogError(err, "Wizard action failed", append([]any{"action", action, "session_id", id}, args...)...)
	}
	return err
}

func (w *Wizard) log(message, id string, args ...any) {
	if w.logger != nil {
		w.logger.Info(message, append([]any{"session_id", id}, args...)...)
	}
}
