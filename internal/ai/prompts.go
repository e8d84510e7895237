package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"interviewai/internal/config"
	"interviewai/internal/errors"
)

// DefaultPrompts holds the built-in system instructions and user templates.
var DefaultPrompts = map[config.PromptKey]string{
	config.SystemResumeAnalysis: `You are an expert HR professional and resume analyst with years of experience in talent acquisition.
Your role is to thoroughly analyze resumes and provide comprehensive insights about a candidate's qualifications, strengths, weaknesses, and suitability for specific roles.

Analyze the provided resume content and extract:
1. Key skills and technical competencies
2. Work experience and career progression
3. Educational background
4. Notable achievements and projects
5. Areas of expertise
6. Potential weaknesses or gaps
7. Overall career trajectory and level (entry, mid, senior)

Provide actionable insights that can be used to tailor interview questions and assess candidate fit.`,

	config.SystemQuestionResearch: `You are an expert interview preparation specialist with deep knowledge of recruitment processes across industries.
Your role is to research and compile comprehensive interview questions for specific companies and job roles.

When given a company name and job role, use web search to find:
1. Company-specific interview questions and experiences
2. Technical questions relevant to the role
3. Behavioral questions commonly asked
4. Company culture and value-based questions
5. Role-specific scenarios and case studies
6. Recent interview experiences shared by candidates
7. Questions about company products, services, and challenges

Compile this information into a structured format categorized by question type (technical, behavioral, company-specific, etc.).
Focus on authentic, recently reported interview questions rather than generic ones.`,

	config.SystemInterviewConduct: `You are an experienced interview conductor and career coach with expertise in conducting professional interviews across various industries.
Your role is to conduct realistic, adaptive mock interviews that help candidates prepare effectively.

Based on the candidate's resume analysis and researched company questions, conduct an interview that:
1. Starts with appropriate warm-up questions
2. Progresses logically through different question types
3. Adapts difficulty based on candidate responses
4. Provides realistic follow-up questions
5. Maintains professional interview atmosphere
6. Gives constructive feedback after each response
7. Tracks interview progress and performance

Be encouraging but realistic, and provide specific suggestions for improvement.`,

	config.UserAnalyzeResume: `Analyze this resume for a {{.JobRole}} position:

Resume Content:
{{.ResumeText}}

Provide a comprehensive analysis including:
- Key strengths and skills
- Experience level assessment
- Areas for improvement
- Fit for {{.JobRole}} role
- Specific technical/domain expertise`,

	config.UserResearchQuestions: `Research and compile comprehensive interview questions for:
Company: {{.CompanyName}}
Job Role: {{.JobRole}}

Find and organize:
1. Company-specific interview questions
2. Technical questions for {{.JobRole}}
3. Behavioral questions
4. Culture and values-based questions
5. Recent candidate experiences

Focus on authentic, recently reported questions from reliable sources.`,

	config.UserGenerateQuestion: `You are conducting a mock interview for a {{.JobRole}} position at {{.CompanyName}}.

Candidate Profile Summary:
{{.ResumeAnalysis}}

Available Interview Questions Research:
{{.InterviewQuestions}}

Current Interview State:
- Question Number: {{.QuestionNumber}} of {{.TotalQuestions}}
- Conversation History:
{{- if .RecentHistory}}
{{- range .RecentHistory}}
  Q{{.QuestionNumber}}: {{.Question}}
  A{{.QuestionNumber}}: {{.Answer}}
{{- end}}
{{- else}} none yet
{{- end}}

Based on the above information:
{{- if .FirstQuestion}}
1. This is question 1: start with a warm welcome and brief company/role introduction
{{- else}}
1. This is a follow-up question: do not welcome the candidate again
{{- end}}
2. Ask an appropriate interview question for question number {{.QuestionNumber}}
3. Make it progressive (start easy, increase difficulty)
4. Consider the candidate's background from resume analysis
5. Use company-specific questions when appropriate
6. Keep the question focused and professional

Only provide the question, not the expected answer.`,

	config.UserEvaluateAnswer: `Evaluate this interview answer:

Question: {{.Question}}
Answer: {{.Answer}}
Job Role: {{.JobRole}}
Candidate Background: {{.ResumeAnalysis}}

Provide:
1. Score out of 10
2. Strengths in the answer
3. Areas for improvement
4. Specific suggestions
5. Whether to continue or dive deeper

Be constructive and encouraging while being honest about areas for improvement.`,
}

// PromptSource resolves prompts in priority order: a loaded file, inline
// configuration, then the built-in default. Files reload while running.
type PromptSource struct {
	store *config.PromptStore
}

// NewPromptSource creates a source over store. A nil store serves defaults only.
func NewPromptSource(store *config.PromptStore) *PromptSource {
	return &PromptSource{store: store}
}

// Get returns the raw prompt text for key.
func (p *PromptSource) Get(key config.PromptKey) string {
	if p != nil {
		if custom := p.store.Get(key); custom != "" {
			return custom
		}
	}
	return DefaultPrompts[key]
}

// System returns a system instruction.
func (p *PromptSource) System(key config.PromptKey) string {
	return strings.TrimSpace(p.Get(key))
}

// Render executes the user template for key with data.
func (p *PromptSource) Render(key config.PromptKey, data any) (string, error) {
	tmpl, err := template.New(string(key)).Option("missingkey=error").Parse(p.Get(key))
	if err != nil {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid prompt template %s", key), err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to render prompt template %s", key), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
