// Package practice runs the interview wizard in a terminal.
package practice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"interviewai/internal/common"
	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/formatters"
	"interviewai/internal/interview"
	"interviewai/internal/session"

	"github.com/charmbracelet/lipgloss"
)

// QuitCommand ends a practice run early when typed as an answer.
const QuitCommand = ":quit"

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	feedbackStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// Prompter shows the interactive pieces of a run.
type Prompter interface {
	// Pick returns the chosen index, or a negative value when cancelled.
	Pick(title string, options []string) (int, error)
	// Wait runs fn while showing label.
	Wait(ctx context.Context, label string, fn func(context.Context) error) error
}

// Terminal is the bubbletea Prompter.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// Pick implements Prompter.
func (t Terminal) Pick(title string, options []string) (int, error) {
	return runPicker(title, options, t.In, t.Out)
}

// Wait implements Prompter.
func (t Terminal) Wait(ctx context.Context, label string, fn func(context.Context) error) error {
	return runLoader(ctx, label, fn, t.In, t.Out)
}

// Options configure a practice run.
type Options struct {
	JobRole      string
	CompanyName  string
	ResumePath   string
	ReportFile   string
	ReportFormat string
}

// Runner walks one user through the wizard.
type Runner struct {
	wizard   *interview.Wizard
	catalog  *config.JobCatalog
	prompter Prompter
	input    *bufio.Reader
	out      io.Writer
	logger   *errors.Logger
}

// NewRunner creates a runner reading typed lines from in.
func NewRunner(wizard *interview.Wizard, catalog *config.JobCatalog, prompter Prompter, in io.Reader, out io.Writer, logger *errors.Logger) *Runner {
	if catalog == nil {
		catalog = config.DefaultJobCatalog()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		wizard:   wizard,
		catalog:  catalog,
		prompter: prompter,
		input:    bufio.NewReader(in),
		out:      out,
		logger:   logger,
	}
}

// Run drives a session from job selection to the end of the interview.
func (r *Runner) Run(ctx context.Context, opts Options) (*session.Session, error) {
	s, _ := r.wizard.Session("")
	id := s.ID
	defer r.wizard.Store().Delete(id)

	if err := r.selectJob(ctx, id, opts); err != nil {
		return nil, err
	}
	if err := r.uploadResume(ctx, id, opts.ResumePath); err != nil {
		return nil, err
	}

	var err error
	for {
		err = r.prompter.Wait(ctx, "Analyzing your resume and researching interview questions", func(ctx context.Context) error {
			s, err = r.wizard.Prepare(ctx, id)
			return err
		})
		if err == nil {
			break
		}
		if err == ErrInterrupted || !r.confirm("Preparation failed. Try again? [Y/n] ", err) {
			return nil, err
		}
	}
	r.heading("Resume analysis")
	r.println(s.ResumeAnalysis)
	r.heading("What to expect")
	r.println(s.InterviewQuestions)

	if s, err = r.wizard.Start(ctx, id); err != nil {
		return nil, err
	}

	s, err = r.interview(ctx, s)
	if err != nil {
		return s, err
	}

	if opts.ReportFile != "" {
		if err := r.writeReport(s, opts); err != nil {
			return s, err
		}
	}
	return s, nil
}

func (r *Runner) selectJob(ctx context.Context, id string, opts Options) error {
	role := strings.TrimSpace(opts.JobRole)
	if role == "" {
		names := make([]string, len(r.catalog.Categories))
		for i, cat := range r.catalog.Categories {
			names[i] = cat.Name
		}
		idx, err := r.prompter.Pick("Select a job category", names)
		if err != nil {
			return err
		}
		if idx < 0 {
			return ErrInterrupted
		}
		category := r.catalog.Categories[idx]

		idx, err = r.prompter.Pick(category.Name+": select a role", category.Roles)
		if err != nil {
			return err
		}
		if idx < 0 {
			return ErrInterrupted
		}
		role = category.Roles[idx]
	}

	company := strings.TrimSpace(opts.CompanyName)
	for company == "" {
		line, err := r.readLine("Company name: ")
		if err != nil {
			return err
		}
		company = strings.TrimSpace(line)
	}

	_, err := r.wizard.Continue(ctx, id, role, company)
	if err != nil {
		return err
	}
	r.printf("%s\n", successStyle.Render(fmt.Sprintf("Practicing for %s at %s", role, company)))
	return nil
}

func (r *Runner) uploadResume(ctx context.Context, id, path string) error {
	for {
		if strings.TrimSpace(path) == "" {
			line, err := r.readLine("Path to your resume (PDF, DOCX or TXT): ")
			if err != nil {
				return err
			}
			path = strings.TrimSpace(line)
			continue
		}

		s, err := r.wizard.UploadResumeFile(ctx, id, path)
		if err == nil {
			r.heading("Resume preview")
			r.println(s.ResumePreview(session.ResumePreviewLimit))
			return nil
		}
		r.failure(err)
		path = ""
	}
}

// interview asks every question, retrying a failed generation on request.
func (r *Runner) interview(ctx context.Context, s *session.Session) (*session.Session, error) {
	id := s.ID
	var err error
	for s != nil && s.Stage == session.StageInterview {
		if s.NeedsQuestion() {
			err = r.prompter.Wait(ctx, "Preparing the next question", func(ctx context.Context) error {
				s, err = r.wizard.Question(ctx, id)
				return err
			})
			if err != nil {
				if err == ErrInterrupted || !r.confirm("Could not generate the question. Try again? [Y/n] ", err) {
					return s, err
				}
				continue
			}
		}

		r.printf("\n%s\n%s\n", progressStyle.Render(s.Progress()), questionStyle.Render(s.CurrentQuestion))

		answer, err := r.readAnswer()
		if err != nil {
			return s, err
		}
		if answer == QuitCommand {
			r.println(warningStyle.Render("Interview ended early."))
			return s, nil
		}

		var evalErr error
		err = r.prompter.Wait(ctx, "Evaluating your answer", func(ctx context.Context) error {
			s, evalErr = r.wizard.Answer(ctx, id, answer)
			return nil
		})
		if err != nil {
			return s, err
		}
		if s == nil {
			return nil, evalErr
		}
		if evalErr != nil && errors.IsType(evalErr, errors.ErrorTypeValidation) {
			r.failure(evalErr)
			continue
		}

		r.println(feedbackStyle.Render(s.CurrentFeedback))
		if evalErr != nil {
			r.println(warningStyle.Render("Your answer was saved without feedback."))
		}

		if s, err = r.wizard.Next(ctx, id); err != nil {
			return s, err
		}
	}

	if s == nil {
		return nil, err
	}
	r.printf("\n%s\n", successStyle.Render(fmt.Sprintf("Interview complete! You answered %d of %d questions.", len(s.History), session.TotalQuestions)))
	return s, nil
}

// readAnswer reads lines until an empty line ends the answer.
func (r *Runner) readAnswer() (string, error) {
	r.printf("%s\n", progressStyle.Render("Your answer (finish with an empty line, "+QuitCommand+" to stop):"))
	var lines []string
	for {
		line, err := r.input.ReadString('\n')
		text := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(text) == QuitCommand && len(lines) == 0 {
			return QuitCommand, nil
		}
		if strings.TrimSpace(text) == "" && err == nil {
			if len(lines) == 0 {
				continue
			}
			return strings.Join(lines, "\n"), nil
		}
		if text != "" {
			lines = append(lines, text)
		}
		if err != nil {
			if err == io.EOF && len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}
	}
}

func (r *Runner) readLine(prompt string) (string, error) {
	r.printf("%s", prompt)
	line, err := r.input.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) confirm(prompt string, cause error) bool {
	r.failure(cause)
	line, err := r.readLine(prompt)
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes"
}

func (r *Runner) writeReport(s *session.Session, opts Options) error {
	report, err := formatters.NewReport(s)
	if err != nil {
		return err
	}
	format := opts.ReportFormat
	if format == "" {
		format = formatters.FormatMarkdown
	}
	return common.NewOutputHandler(r.out, r.logger).HandleOutput(report, common.CommandConfig{
		OutputFile:   opts.ReportFile,
		OutputFormat: format,
	})
}

func (r *Runner) failure(err error) {
	r.println(errorStyle.Render("Error: " + errors.UserMessage(err)))
	if r.logger != nil {
		r.logger.Debug("Practice step failed", "error", err)
	}
}

func (r *Runner) heading(text string) {
	r.println(headingStyle.Render(text))
}

func (r *Runner) println(text string) {
	_, _ = fmt.Fprintln(r.out, text)
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
