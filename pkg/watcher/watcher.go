// Package watcher reports changes to a single input file, such as the cities
// file in watch mode. It uses fsnotify on the file's directory and falls back
// to stat polling on remote filesystems, where inotify events are unreliable.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/tspview/pkg/debug"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// EnvForcePoll forces polling mode when set to a true value.
const EnvForcePoll = "TSPVIEW_FORCE_POLL"

// Common errors.
var (
	ErrFileRemoved = errors.New("watched file was removed")
	ErrPermission  = errors.New("permission denied")
	ErrRunning     = errors.New("watcher already running")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets the callback invoked after each debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher monitors one file.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func()
	onError      func(error)
	forcePoll    bool

	debouncer *Debouncer
	changes   chan struct{}

	mu      sync.RWMutex
	running bool
	polling bool
	fsType  FilesystemType
}

// New creates a watcher for path. Nothing is watched until Run.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func() {},
		onError:      func(error) {},
		changes:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string { return w.path }

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration { return w.pollInterval }

// Changed receives once per debounced change. Notifications coalesce when the
// receiver is slow.
func (w *Watcher) Changed() <-chan struct{} { return w.changes }

// Polling reports whether the running watcher fell back to polling.
func (w *Watcher) Polling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// Running reports whether Run is active.
func (w *Watcher) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// FilesystemType returns the classification made when Run started.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// Run watches until ctx is done and then returns nil. A pending debounced
// change is dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	fsType := detectFilesystemTypeFunc(filepath.Dir(w.path))
	poll := w.forcePoll || envBool(EnvForcePoll) || fsType.Remote()

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunning
	}
	w.running, w.fsType = true, fsType
	w.mu.Unlock()

	defer func() {
		w.debouncer.Cancel()
		w.mu.Lock()
		w.running, w.polling = false, false
		w.mu.Unlock()
	}()

	if !poll {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsw.Add(filepath.Dir(w.path)); err == nil {
				defer fsw.Close()
				debug.Log("watcher: fsnotify on %s (%s)", w.path, fsType)
				return w.runNotify(ctx, fsw)
			}
			fsw.Close()
		}
		debug.Log("watcher: fsnotify unavailable, polling: %v", err)
	}

	w.mu.Lock()
	w.polling = true
	w.mu.Unlock()
	debug.Log("watcher: polling %s every %v (%s)", w.path, w.pollInterval, fsType)
	return w.runPoll(ctx)
}

func (w *Watcher) runNotify(ctx context.Context, fsw *fsnotify.Watcher) error {
	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// the directory is watched so atomic renames are seen
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notify)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) error {
	var lastMtime time.Time
	var lastSize int64
	if info, err := os.Stat(w.path); err == nil {
		lastMtime, lastSize = info.ModTime(), info.Size()
	} else if os.IsPermission(err) {
		return ErrPermission
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			info, err := os.Stat(w.path)
			switch {
			case err == nil:
			case os.IsNotExist(err):
				if !lastMtime.IsZero() {
					w.onError(ErrFileRemoved)
					lastMtime, lastSize = time.Time{}, 0
				}
				continue
			case os.IsPermission(err):
				w.onError(ErrPermission)
				continue
			default:
				w.onError(err)
				continue
			}

			if info.ModTime().After(lastMtime) || info.Size() != lastSize {
				lastMtime, lastSize = info.ModTime(), info.Size()
				w.debouncer.Trigger(w.notify)
			}
		}
	}
}

func (w *Watcher) notify() {
	if !w.Running() {
		return
	}
	w.onChange()
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
