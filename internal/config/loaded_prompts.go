package config

import (
	"sync"
)

// PromptKey names one overridable prompt.
type PromptKey string

const (
	SystemResumeAnalysis   PromptKey = "system.resumeAnalysis"
	SystemQuestionResearch PromptKey = "system.questionResearch"
	SystemInterviewConduct PromptKey = "system.interviewConduct"

	UserAnalyzeResume     PromptKey = "user.analyzeResume"
	UserResearchQuestions PromptKey = "user.researchQuestions"
	UserGenerateQuestion  PromptKey = "user.generateQuestion"
	UserEvaluateAnswer    PromptKey = "user.evaluateAnswer"
)

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

// SystemPrompts contains the three role instructions
type SystemPrompts struct {
	ResumeAnalysis       string `mapstructure:"resumeAnalysis"`
	ResumeAnalysisFile   string `mapstructure:"resumeAnalysisFile"`
	QuestionResearch     string `mapstructure:"questionResearch"`
	QuestionResearchFile string `mapstructure:"questionResearchFile"`
	InterviewConduct     string `mapstructure:"interviewConduct"`
	InterviewConductFile string `mapstructure:"interviewConductFile"`
}

// UserPrompts contains text/template bodies for each orchestrator operation
type UserPrompts struct {
	AnalyzeResume         string `mapstructure:"analyzeResume"`
	AnalyzeResumeFile     string `mapstructure:"analyzeResumeFile"`
	ResearchQuestions     string `mapstructure:"researchQuestions"`
	ResearchQuestionsFile string `mapstructure:"researchQuestionsFile"`
	GenerateQuestion      string `mapstructure:"generateQuestion"`
	GenerateQuestionFile  string `mapstructure:"generateQuestionFile"`
	EvaluateAnswer        string `mapstructure:"evaluateAnswer"`
	EvaluateAnswerFile    string `mapstructure:"evaluateAnswerFile"`
}

type promptEntry struct {
	key    PromptKey
	inline string
	file   string
}

func (p PromptConfig) entries() []promptEntry {
	s, u := p.SystemPrompts, p.UserPrompts
	return []promptEntry{
		{SystemResumeAnalysis, s.ResumeAnalysis, s.ResumeAnalysisFile},
		{SystemQuestionResearch, s.QuestionResearch, s.QuestionResearchFile},
		{SystemInterviewConduct, s.InterviewConduct, s.InterviewConductFile},
		{UserAnalyzeResume, u.AnalyzeResume, u.AnalyzeResumeFile},
		{UserResearchQuestions, u.ResearchQuestions, u.ResearchQuestionsFile},
		{UserGenerateQuestion, u.GenerateQuestion, u.GenerateQuestionFile},
		{UserEvaluateAnswer, u.EvaluateAnswer, u.EvaluateAnswerFile},
	}
}

// PromptStore holds custom prompt text. File content wins over inline config.
// An empty result means the built-in default applies.
type PromptStore struct {
	mu      sync.RWMutex
	inline  map[PromptKey]string
	files   map[PromptKey]string // key -> absolute path
	content map[PromptKey]string // key -> loaded file content
}

// NewPromptStore validates and loads every prompt file named in cfg.
func NewPromptStore(cfg PromptConfig) (*PromptStore, error) {
	store := &PromptStore{
		inline:  make(map[PromptKey]string),
		files:   make(map[PromptKey]string),
		content: make(map[PromptKey]string),
	}

	entries := cfg.entries()
	if err := validatePromptFiles(entries); err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.inline != "" {
			store.inline[e.key] = e.inline
		}
		if e.file == "" {
			continue
		}
		absPath, content, err := loadPromptFromFile(e.file, e.key)
		if err != nil {
			return nil, err
		}
		store.files[e.key] = absPath
		store.content[e.key] = content
	}

	logPromptLoadingSummary(store)
	return store, nil
}

// Get returns the custom prompt for key, or "" when none is configured.
func (s *PromptStore) Get(key PromptKey) string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if content, ok := s.content[key]; ok {
		return content
	}
	return s.inline[key]
}

// Files returns the prompt files being tracked, keyed by prompt.
func (s *PromptStore) Files() map[PromptKey]string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make(map[PromptKey]string, len(s.files))
	for k, v := range s.files {
		files[k] = v
	}
	return files
}

// Reload re-reads the file behind key. On error the previous content is kept.
func (s *PromptStore) Reload(key PromptKey) error {
	s.mu.RLock()
	path, ok := s.files[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	_, content, err := loadPromptFromFile(path, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.content[key] = content
	s.mu.Unlock()
	return nil
}

// Count returns how many prompts are overridden.
func (s *PromptStore) Count() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[PromptKey]bool)
	for k := range s.inline {
		seen[k] = true
	}
	for k := range s.content {
		seen[k] = true
	}
	return len(seen)
}
