package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/example/traincheck/internal/logging"
)

// Watcher revalidates an options file whenever it changes on disk, so a
// user editing hyperparameters sees fresh violations without rerunning the
// tool by hand.
type Watcher struct {
	watcher     *fsnotify.Watcher
	loader      *Loader
	optionsPath string
	callbacks   []func(*Result)
	mu          sync.RWMutex
	debounce    time.Duration
	lastResult  *Result
}

// NewWatcher creates a watcher for the given options file. The file is
// loaded once up front; a file that cannot even be parsed is an error,
// while one that merely has violations is watched like any other.
func NewWatcher(loader *Loader, optionsPath string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:     fsWatcher,
		loader:      loader,
		optionsPath: optionsPath,
		callbacks:   make([]func(*Result), 0),
		debounce:    500 * time.Millisecond,
	}

	result, err := loader.Load(optionsPath)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}
	w.lastResult = result

	return w, nil
}

// OnChange registers a callback invoked with every fresh result.
func (w *Watcher) OnChange(callback func(*Result)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching for changes to the options file.
func (w *Watcher) Start() error {
	// Watch the containing directory: editors replace files on save, and
	// watching the file itself loses the watch on rename.
	dir := filepath.Dir(w.optionsPath)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watch()
	return nil
}

func (w *Watcher) watch() {
	var debounceTimer *time.Timer
	var lastEvent time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.optionsPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Debounce rapid events from editors that write in chunks
			now := time.Now()
			if now.Sub(lastEvent) < w.debounce {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
			}
			lastEvent = now

			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.revalidate()
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("options watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) revalidate() {
	result, err := w.loader.Load(w.optionsPath)
	if err != nil {
		logging.Error("failed to reload options", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.lastResult = result
	callbacks := make([]func(*Result), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	logging.Info("options revalidated",
		zap.String("path", w.optionsPath),
		zap.String("architecture", result.Architecture),
		zap.Int("violations", len(result.Violations)),
	)

	for _, cb := range callbacks {
		go cb(result)
	}
}

// LastResult returns the most recent validation result.
func (w *Watcher) LastResult() *Result {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastResult
}

// Stop stops watching for changes.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// SetDebounce sets the debounce duration for file change events.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}
