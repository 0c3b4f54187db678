package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ems/pkg/logging"
)

const (
	// DefaultPollInterval is how often the watcher re-checks the session when
	// nothing else told it about a change. It covers expiry, which produces
	// no event, and storage backends that cannot be watched (the keyring).
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultFileDebounce coalesces bursts of file events from a single write.
	DefaultFileDebounce = 50 * time.Millisecond
)

// Watcher is the single subscription point for authentication state.
//
// It re-evaluates Inspector.Status when the repository publishes a change
// in this process, when the durable session file changes on disk (another
// ems process logged in or out), and on every poll tick. Subscribers only
// receive a Status when it differs from the previous one.
type Watcher struct {
	mu           sync.RWMutex
	inspector    *Inspector
	repo         *Repository
	watchFile    string
	pollInterval time.Duration
	debounce     time.Duration
	states       *Broadcaster[Status]
	last         Status
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets the poll interval. Zero disables polling.
func WithPollInterval(interval time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = interval
	}
}

// WithWatchFile makes the watcher follow changes to a durable session file.
func WithWatchFile(path string) WatcherOption {
	return func(w *Watcher) {
		w.watchFile = path
	}
}

// WithDebounce sets how long file events are coalesced.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a Watcher. The initial state is evaluated immediately.
func NewWatcher(inspector *Inspector, repo *Repository, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		inspector:    inspector,
		repo:         repo,
		pollInterval: DefaultPollInterval,
		debounce:     DefaultFileDebounce,
		states:       NewBroadcaster[Status](),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounce <= 0 {
		w.debounce = DefaultFileDebounce
	}
	w.last = inspector.Status()
	return w
}

// Subscribe returns a channel of state changes and a function to stop
// receiving them.
func (w *Watcher) Subscribe() (<-chan Status, func()) {
	return w.states.Subscribe(1)
}

// Current returns the most recently evaluated state.
func (w *Watcher) Current() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

// Check re-evaluates the state and notifies subscribers if it changed.
func (w *Watcher) Check() {
	status := w.inspector.Status()

	w.mu.Lock()
	changed := !status.Equal(w.last)
	if changed {
		w.last = status
	}
	w.mu.Unlock()

	if changed {
		logging.Debug("Session", "Authentication state changed: authenticated=%t", status.Authenticated)
		w.states.Publish(status)
	}
}

// Start launches the watch loop in the background. It returns an error if
// the file watch cannot be established.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	var fsw *fsnotify.Watcher
	if w.watchFile != "" {
		var err error
		fsw, err = fsnotify.NewWatcher()
		if err != nil {
			w.mu.Unlock()
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		// Watch the directory: atomic renames replace the file itself.
		if err := fsw.Add(filepath.Dir(w.watchFile)); err != nil {
			fsw.Close()
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.watchFile), err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	w.mu.Unlock()

	events, unsubscribe := w.repo.Events().Subscribe(8)
	go w.loop(ctx, events, unsubscribe, fsw)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

// IsRunning returns whether the watch loop is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, events <-chan Event, unsubscribe func(), fsw *fsnotify.Watcher) {
	defer func() {
		unsubscribe()
		if fsw != nil {
			fsw.Close()
		}
		w.mu.Lock()
		w.running = false
		close(w.done)
		w.mu.Unlock()
	}()

	var tick <-chan time.Time
	if w.pollInterval > 0 {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var fileEvents <-chan fsnotify.Event
	var fileErrors <-chan error
	if fsw != nil {
		fileEvents = fsw.Events
		fileErrors = fsw.Errors
	}

	// Idle until the first file event; Reset arms it.
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	w.Check()

	for {
		select {
		case <-ctx.Done():
			return

		case <-events:
			w.Check()

		case <-tick:
			w.Check()

		case ev, ok := <-fileEvents:
			if !ok {
				fileEvents = nil
				continue
			}
			if filepath.Base(ev.Name) != filepath.Base(w.watchFile) {
				continue
			}
			debounce.Reset(w.debounce)

		case <-debounce.C:
			w.Check()

		case err, ok := <-fileErrors:
			if !ok {
				fileErrors = nil
				continue
			}
			logging.Warn("Session", "Session file watch error: %v", err)
		}
	}
}
