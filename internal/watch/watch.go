package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/kshvakov/docprep/internal/logfields"
)

// Options controls debounce timing and the optional periodic rebuild.
type Options struct {
	// QuietWindow is how long the source trees must stay quiet before a
	// rebuild fires.
	QuietWindow time.Duration

	// MaxDelay caps how long a burst of changes can postpone a rebuild.
	MaxDelay time.Duration

	// Every, when non-zero, schedules a full rebuild on a fixed interval
	// regardless of file system activity.
	Every time.Duration
}

func (o *Options) applyDefaults() {
	if o.QuietWindow <= 0 {
		o.QuietWindow = 500 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 5 * time.Second
	}
}

// Watcher monitors source trees and invokes a rebuild callback. Bursts of
// file system events are coalesced: a rebuild fires once the trees have been
// quiet for QuietWindow, or after MaxDelay if changes keep arriving.
type Watcher struct {
	roots   []string
	rebuild func(ctx context.Context) error
	opts    Options

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
	changed   chan struct{}

	mu       sync.Mutex
	building bool
	queued   bool
}

// New creates a watcher over the given directory trees. The rebuild callback
// is never invoked concurrently with itself. Roots that do not exist yet are
// skipped.
func New(roots []string, opts Options, rebuild func(ctx context.Context) error) (*Watcher, error) {
	if rebuild == nil {
		return nil, fmt.Errorf("rebuild callback is required")
	}
	opts.applyDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		roots:   roots,
		rebuild: rebuild,
		opts:    opts,
		watcher: fsw,
		changed: make(chan struct{}, 1),
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	if opts.Every > 0 {
		sched, err := gocron.NewScheduler()
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("create scheduler: %w", err)
		}
		w.scheduler = sched
	}

	return w, nil
}

// Run blocks until ctx is canceled, dispatching debounced rebuilds.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if w.scheduler != nil {
		_, err := w.scheduler.NewJob(
			gocron.DurationJob(w.opts.Every),
			gocron.NewTask(func() {
				slog.Debug("Periodic rebuild triggered")
				w.trigger()
			}),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		w.scheduler.Start()
		defer func() {
			if err := w.scheduler.Shutdown(); err != nil {
				slog.Error("Error stopping scheduler", logfields.Error(err))
			}
		}()
	}

	go w.eventLoop(ctx)

	quietTimer := time.NewTimer(time.Hour)
	stopTimer(quietTimer)
	maxTimer := time.NewTimer(time.Hour)
	stopTimer(maxTimer)

	var quietC, maxC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			quietTimer.Stop()
			maxTimer.Stop()
			return ctx.Err()

		case <-w.changed:
			resetTimer(quietTimer, w.opts.QuietWindow)
			quietC = quietTimer.C
			if maxC == nil {
				resetTimer(maxTimer, w.opts.MaxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			quietC = nil
			maxC = nil
			stopTimer(maxTimer)
			w.dispatch(ctx)

		case <-maxC:
			quietC = nil
			maxC = nil
			stopTimer(quietTimer)
			w.dispatch(ctx)
		}
	}
}

// eventLoop consumes raw fsnotify events and collapses them into the
// buffered change channel. Newly created directories are added to the watch
// set so the tree stays covered.
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if skipPath(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory",
							logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Source change detected",
				logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", logfields.Error(err))
		}
	}
}

// dispatch runs the rebuild callback, queuing at most one follow-up build
// when changes arrive mid-build.
func (w *Watcher) dispatch(ctx context.Context) {
	w.mu.Lock()
	if w.building {
		w.queued = true
		w.mu.Unlock()
		return
	}
	w.building = true
	w.mu.Unlock()

	go func() {
		for {
			if err := w.rebuild(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}

			w.mu.Lock()
			if !w.queued || ctx.Err() != nil {
				w.building = false
				w.mu.Unlock()
				return
			}
			w.queued = false
			w.mu.Unlock()
		}
	}()
}

func (w *Watcher) trigger() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// addTree registers root and all its subdirectories, skipping dot-dirs.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				slog.Debug("Watch root does not exist, skipping", logfields.Path(root))
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// skipPath filters events under hidden directories and editor temp files.
func skipPath(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
