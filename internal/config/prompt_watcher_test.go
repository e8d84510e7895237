package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptWatcherReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conduct.md")
	require.NoError(t, os.WriteFile(file, []byte("first"), 0600))

	store, err := NewPromptStore(PromptConfig{SystemPrompts: SystemPrompts{InterviewConductFile: file}})
	require.NoError(t, err)

	watcher := NewPromptWatcher(store, 20*time.Millisecond, newMockLogger())
	require.NoError(t, watcher.Start())
	t.Cleanup(func() { _ = watcher.Stop() })

	require.NoError(t, os.WriteFile(file, []byte("second"), 0600))

	require.Eventually(t, func() bool {
		return store.Get(SystemInterviewConduct) == "second"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestPromptWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "analysis.md")
	require.NoError(t, os.WriteFile(file, []byte("kept"), 0600))

	store, err := NewPromptStore(PromptConfig{SystemPrompts: SystemPrompts{ResumeAnalysisFile: file}})
	require.NoError(t, err)

	reloads := make(chan PromptKey, 4)
	watcher := NewPromptWatcher(store, 10*time.Millisecond, nil)
	watcher.OnReload(func(key PromptKey, _ error) { reloads <- key })
	require.NoError(t, watcher.Start())
	t.Cleanup(func() { _ = watcher.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0600))

	select {
	case key := <-reloads:
		t.Fatalf("unexpected reload of %s", key)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, "kept", store.Get(SystemResumeAnalysis))
}

func TestPromptWatcherWithoutFiles(t *testing.T) {
	store, err := NewPromptStore(PromptConfig{})
	require.NoError(t, err)

	watcher := NewPromptWatcher(store, 0, nil)
	require.NoError(t, watcher.Start())
	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}
