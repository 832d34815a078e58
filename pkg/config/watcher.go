// Package config loads a form definition from disk and, optionally,
// watches it for changes so a development session can hot-reload
// between turns — adapted from the teacher's
// pkg/config/provider/file.go file watcher.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kadirpekel/formpilot/pkg/form"
)

// FormLoader reads a form definition from a local file and can watch
// that file for changes.
type FormLoader struct {
	path string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewFormLoader resolves path to an absolute path and returns a loader
// for it.
func NewFormLoader(path string) (*FormLoader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve form path: %w", err)
	}
	return &FormLoader{path: absPath}, nil
}

// Load reads and parses the form definition.
func (l *FormLoader) Load() (*form.Definition, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("config: read form file %s: %w", l.path, err)
	}
	def, err := form.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse form file %s: %w", l.path, err)
	}
	return def, nil
}

// Watch starts watching the form file for changes, debounced to 100ms,
// and returns a channel that receives a value on each settled change.
// The channel is closed when ctx is done or Close is called.
func (l *FormLoader) Watch(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("config: loader is closed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create file watcher: %w", err)
	}
	l.watcher = watcher

	dir := filepath.Dir(l.path)
	file := filepath.Base(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch directory %s: %w", dir, err)
	}

	ch := make(chan struct{}, 1)
	go l.watchLoop(ctx, watcher, file, ch)

	slog.Info("watching form file for changes", "path", l.path)
	return ch, nil
}

func (l *FormLoader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, file string, ch chan<- struct{}) {
	defer close(ch)
	defer watcher.Close()

	const debounceDelay = 100 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					select {
					case ch <- struct{}{}:
						slog.Debug("form file changed", "path", l.path)
					default:
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("form file watcher error", "error", err)
		}
	}
}

// Close stops the watcher, if one is running.
func (l *FormLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
