package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"interviewai/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPromptsCoverEveryKey(t *testing.T) {
	for _, key := range []config.PromptKey{
		config.SystemResumeAnalysis, config.SystemQuestionResearch, config.SystemInterviewConduct,
		config.UserAnalyzeResume, config.UserResearchQuestions, config.UserGenerateQuestion, config.UserEvaluateAnswer,
	} {
		assert.NotEmpty(t, DefaultPrompts[key], key)
	}
}

func TestRenderDefaultTemplates(t *testing.T) {
	source := NewPromptSource(nil)

	out, err := source.Render(config.UserAnalyzeResume, map[string]any{
		"JobRole":    "Software Engineer",
		"ResumeText": "Go, Kubernetes",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Analyze this resume for a Software Engineer position")
	assert.Contains(t, out, "Go, Kubernetes")

	first, err := source.Render(config.UserGenerateQuestion, map[string]any{
		"JobRole":            "Software Engineer",
		"CompanyName":        "Acme",
		"ResumeAnalysis":     "strong",
		"InterviewQuestions": "research",
		"QuestionNumber":     1,
		"TotalQuestions":     10,
		"FirstQuestion":      true,
		"RecentHistory":      nil,
	})
	require.NoError(t, err)
	assert.Contains(t, first, "warm welcome")
	assert.Contains(t, first, "none yet")

	later, err := source.Render(config.UserGenerateQuestion, map[string]any{
		"JobRole":            "Software Engineer",
		"CompanyName":        "Acme",
		"ResumeAnalysis":     "strong",
		"InterviewQuestions": "research",
		"QuestionNumber":     3,
		"TotalQuestions":     10,
		"FirstQuestion":      false,
		"RecentHistory": []map[string]any{
			{"QuestionNumber": 1, "Question": "Intro?", "Answer": "Hi"},
			{"QuestionNumber": 2, "Question": "Project?", "Answer": "API"},
		},
	})
	require.NoError(t, err)
	assert.NotContains(t, later, "warm welcome")
	assert.Contains(t, later, "Q2: Project?")
	assert.Contains(t, later, "Question Number: 3 of 10")
}

func TestRenderMissingFieldFails(t *testing.T) {
	_, err := NewPromptSource(nil).Render(config.UserResearchQuestions, map[string]any{"JobRole": "Nurse"})
	assert.Error(t, err)
}

func TestPromptSourcePrefersCustomPrompts(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "evaluate.tmpl")
	require.NoError(t, os.WriteFile(file, []byte("Rate {{.Answer}}"), 0600))

	store, err := config.NewPromptStore(config.PromptConfig{
		SystemPrompts: config.SystemPrompts{InterviewConduct: "  Be terse.  "},
		UserPrompts:   config.UserPrompts{EvaluateAnswerFile: file},
	})
	require.NoError(t, err)
	source := NewPromptSource(store)

	assert.Equal(t, "Be terse.", source.System(config.SystemInterviewConduct))
	assert.True(t, strings.HasPrefix(source.System(config.SystemResumeAnalysis), "You are an expert HR professional"))

	out, err := source.Render(config.UserEvaluateAnswer, map[string]any{"Answer": "my answer"})
	require.NoError(t, err)
	assert.Equal(t, "Rate my answer", out)
}

func TestRenderInvalidTemplate(t *testing.T) {
	store, err := config.NewPromptStore(config.PromptConfig{
		UserPrompts: config.UserPrompts{AnalyzeResume: "{{.JobRole"},
	})
	require.NoError(t, err)

	_, err = NewPromptSource(store).Render(config.UserAnalyzeResume, map[string]any{"JobRole": "x"})
	assert.Error(t, err)
}
