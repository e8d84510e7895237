package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"interviewai/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// PromptWatcher reloads prompt files into a PromptStore when they change on disk.
type PromptWatcher struct {
	store         *PromptStore
	logger        *errors.Logger
	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration

	// byPath maps a cleaned absolute file path to the prompts it backs.
	byPath map[string][]PromptKey

	mu       sync.Mutex
	timers   map[string]*time.Timer
	stopChan chan struct{}
	done     chan struct{}
	onReload func(PromptKey, error)
}

// NewPromptWatcher creates a watcher for every file tracked by store.
func NewPromptWatcher(store *PromptStore, debounceDelay time.Duration, logger *errors.Logger) *PromptWatcher {
	if debounceDelay <= 0 {
		debounceDelay = 250 * time.Millisecond
	}
	byPath := make(map[string][]PromptKey)
	for key, path := range store.Files() {
		clean := filepath.Clean(path)
		byPath[clean] = append(byPath[clean], key)
	}
	return &PromptWatcher{
		store:         store,
		logger:        logger,
		debounceDelay: debounceDelay,
		byPath:        byPath,
		timers:        make(map[string]*time.Timer),
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// OnReload registers a callback invoked after every reload attempt.
func (pw *PromptWatcher) OnReload(fn func(PromptKey, error)) {
	pw.onReload = fn
}

// Start begins watching. It is a no-op when no prompt files are configured.
func (pw *PromptWatcher) Start() error {
	if len(pw.byPath) == 0 {
		close(pw.done)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create prompt watcher: %w", err)
	}
	pw.fsWatcher = watcher

	// Directories are watched so editors that replace files by rename are caught.
	dirs := make(map[string]bool)
	for path := range pw.byPath {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch prompt directory %s: %w", dir, err)
		}
	}

	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher started", "files", len(pw.byPath), "debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (pw *PromptWatcher) Stop() error {
	select {
	case <-pw.stopChan:
		return nil
	default:
		close(pw.stopChan)
	}

	pw.mu.Lock()
	for _, t := range pw.timers {
		t.Stop()
	}
	pw.mu.Unlock()

	if pw.fsWatcher == nil {
		return nil
	}
	err := pw.fsWatcher.Close()
	<-pw.done
	return err
}

func (pw *PromptWatcher) watchLoop() {
	defer close(pw.done)
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pw.scheduleReload(filepath.Clean(event.Name))
			}
		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Prompt watcher error")
			}
		case <-pw.stopChan:
			return
		}
	}
}

func (pw *PromptWatcher) scheduleReload(path string) {
	keys, ok := pw.byPath[path]
	if !ok {
		return
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()
	if t, exists := pw.timers[path]; exists {
		t.Reset(pw.debounceDelay)
		return
	}
	pw.timers[path] = time.AfterFunc(pw.debounceDelay, func() {
		for _, key := range keys {
			err := pw.store.Reload(key)
			if pw.logger != nil {
				if err != nil {
					pw.logger.LogError(err, "Prompt reload failed, keeping previous content", "prompt", string(key))
				} else {
					pw.logger.Info("Prompt reloaded", "prompt", string(key), "file", path)
				}
			}
			if pw.onReload != nil {
				pw.onReload(key, err)
			}
		}
	})
}
