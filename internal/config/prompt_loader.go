package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptFromFile reads a prompt file, returning its absolute path and trimmed content
func loadPromptFromFile(filePath string, key PromptKey) (string, string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", key, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", "", fmt.Errorf("%s prompt file not found: %s", key, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s prompt file '%s': %w", key, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", "", fmt.Errorf("%s prompt file '%s' is empty", key, absPath)
	}

	log.Printf("[CONFIG] Loaded %s prompt from file: %s (%d characters)", key, absPath, len(trimmedContent))
	return absPath, trimmedContent, nil
}

// validatePromptFiles reports every missing prompt file at once
func validatePromptFiles(entries []promptEntry) error {
	var validationErrors []string

	for _, e := range entries {
		if e.file == "" {
			continue
		}
		absPath, err := filepath.Abs(e.file)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", e.key, e.file))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", e.key, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

func logPromptLoadingSummary(store *PromptStore) {
	if count := store.Count(); count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", count)
	}
}
