package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRequiresCallback(t *testing.T) {
	_, err := New([]string{t.TempDir()}, Options{}, nil)
	assert.Error(t, err)
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, Options{}, func(context.Context) error { return nil })
	require.NoError(t, err)
	w.watcher.Close()
}

func TestWatcherDebouncesBurst(t *testing.T) {
	dir := t.TempDir()

	var builds atomic.Int64
	w, err := New([]string{dir}, Options{
		QuietWindow: 50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}, func(context.Context) error {
		builds.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// A burst of writes within the quiet window coalesces into one build
	for range 5 {
		name := filepath.Join(dir, "page.md")
		require.NoError(t, os.WriteFile(name, []byte("# Page\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return builds.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, builds.Load(), int64(2))

	cancel()
	<-done
}

func TestWatcherMaxDelayFires(t *testing.T) {
	dir := t.TempDir()

	var builds atomic.Int64
	w, err := New([]string{dir}, Options{
		QuietWindow: 10 * time.Second,
		MaxDelay:    100 * time.Millisecond,
	}, func(context.Context) error {
		builds.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644))

	// The quiet window never elapses but the max delay forces a build
	assert.Eventually(t, func() bool {
		return builds.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherWatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()

	var builds atomic.Int64
	w, err := New([]string{dir}, Options{
		QuietWindow: 30 * time.Millisecond,
		MaxDelay:    time.Second,
	}, func(context.Context) error {
		builds.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	sub := filepath.Join(dir, "chapter-01")
	require.NoError(t, os.Mkdir(sub, 0o755))

	assert.Eventually(t, func() bool {
		return builds.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
	first := builds.Load()

	// Writes inside the new directory are seen too
	require.NoError(t, os.WriteFile(filepath.Join(sub, "README.md"), []byte("# C1\n"), 0o644))
	assert.Eventually(t, func() bool {
		return builds.Load() > first
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSkipPath(t *testing.T) {
	tests := []struct {
		path string
		skip bool
	}{
		{"book/chapter-01/README.md", false},
		{"book/.drafts/notes.md", true},
		{".git/HEAD", true},
		{"book/README.md~", true},
		{"book/.README.md.swp", true},
		{"book/chapter-01", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.skip, skipPath(tt.path), tt.path)
	}
}
