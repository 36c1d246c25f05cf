package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/qshape-go/internal/logging"
)

func TestChangedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"b.log": "q\n", "a.log": "q\n"})
	a, b := filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")

	seen := make(map[string]stamp)
	pending := map[string]bool{a: true, b: true, filepath.Join(dir, "gone.log"): true}

	files := changedFiles(dir, pending, seen)
	assert.Equal(t, []string{"a.log", "b.log"}, relPaths(files))
	assert.Len(t, seen, 2)

	// Unchanged files are not analyzed twice.
	assert.Empty(t, changedFiles(dir, pending, seen))

	require.NoError(t, os.WriteFile(a, []byte("q\nq\n"), 0o644))
	files = changedFiles(dir, pending, seen)
	assert.Equal(t, []string{"a.log"}, relPaths(files))
}

func TestWatchTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"x.log":          "q",
		"sub/y.log":      "q",
		".qshape/data/z": "q",
	})

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()

	seen := make(map[string]stamp)
	require.NoError(t, watchTree(w, dir, newMatcher(), seen))

	assert.Contains(t, seen, filepath.Join(dir, "x.log"))
	assert.Contains(t, seen, filepath.Join(dir, "sub", "y.log"))
	assert.NotContains(t, seen, filepath.Join(dir, ".qshape", "data", "z"))
	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "sub")}, w.WatchList())
}

func TestWatchLogs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"existing.log": knowsQuery + "\n"})

	summaries := make(chan *Summary, 16)
	errc := make(chan error, 1)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	go func() {
		errc <- WatchLogs(ctx, dir, Options{Logger: logging.Discard()}, func(s *Summary) {
			summaries <- s
		})
	}()

	// The watcher may not be ready yet; keep adding logs until one is
	// picked up.
	deadline := time.After(30 * time.Second)
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case s := <-summaries:
			assert.Positive(t, s.ShapedQueries)
			assert.Contains(t, s.Shapes, `["1,2"]`)
			cancel()
			assert.ErrorIs(t, <-errc, context.Canceled)
			return
		case err := <-errc:
			t.Fatalf("watcher stopped: %v", err)
		case <-tick.C:
			name := filepath.Join(dir, fmt.Sprintf("new-%d.log", i))
			require.NoError(t, os.WriteFile(name, []byte(knowsQuery+"\n"), 0o644))
		case <-deadline:
			t.Fatal("no summary before deadline")
		}
	}
}

func TestWatchTiming_Next(t *testing.T) {
	t.Parallel()

	timing := watchTiming{debounce: 2 * time.Second, maxWait: 10 * time.Second}
	assert.Equal(t, 2*time.Second, timing.next(time.Now()))

	left := timing.next(time.Now().Add(-9 * time.Second))
	assert.LessOrEqual(t, left, time.Second)
	assert.Positive(t, left)

	assert.Zero(t, timing.next(time.Now().Add(-time.Minute)))
}

func TestWatchLogs_ContinuousWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	live := filepath.Join(dir, "live.log")

	summaries := make(chan *Summary, 16)
	errc := make(chan error, 1)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	// Writes arrive well inside the debounce, so only the maximum wait
	// can trigger an analysis.
	timing := watchTiming{debounce: time.Second, maxWait: 2 * time.Second}
	go func() {
		errc <- watchLogs(ctx, dir, Options{Logger: logging.Discard()}, func(s *Summary) {
			summaries <- s
		}, timing)
	}()

	appendQuery := func() {
		f, err := os.OpenFile(live, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString(knowsQuery + "\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	deadline := time.After(20 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case s := <-summaries:
			assert.Positive(t, s.ShapedQueries)
			cancel()
			assert.ErrorIs(t, <-errc, context.Canceled)
			return
		case err := <-errc:
			t.Fatalf("watcher stopped: %v", err)
		case <-tick.C:
			appendQuery()
		case <-deadline:
			t.Fatal("no summary while the log kept growing")
		}
	}
}
