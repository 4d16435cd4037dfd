package walkdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatch runs Watch in the background and returns the channel its
// messages are delivered on.
func startWatch(t *testing.T, root string, opts WatchOptions) <-chan WatchMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	events := make(chan WatchMessage, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := Watch(ctx, root, opts, func(ctx context.Context, result WatchResult) error {
			if result.Error != nil {
				t.Logf("watch error: %v", result.Error)
				return nil
			}
			select {
			case events <- result.Message:
			case <-ctx.Done():
			}
			return nil
		})
		assert.NoError(t, err)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher a moment to register.
	time.Sleep(200 * time.Millisecond)
	return events
}

// waitFor polls events until one matches or the deadline passes.
func waitFor(events <-chan WatchMessage, match func(WatchMessage) bool) bool {
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func TestWatch(t *testing.T) {
	tmpDir := t.TempDir()
	events := startWatch(t, tmpDir, WatchOptions{Recursive: true})

	file1 := filepath.Join(tmpDir, "test1.txt")
	require.NoError(t, os.WriteFile(file1, []byte("test1"), 0o644))
	assert.True(t, waitFor(events, func(ev WatchMessage) bool {
		return ev.Event == EventCreate && ev.Path == file1
	}), "no create event for %s", file1)

	require.NoError(t, os.Remove(file1))
	assert.True(t, waitFor(events, func(ev WatchMessage) bool {
		return ev.Event == EventDelete && ev.Path == file1
	}), "no delete event for %s", file1)
}

func TestWatchNewSubdirectory(t *testing.T) {
	tmpDir := t.TempDir()
	events := startWatch(t, tmpDir, WatchOptions{Recursive: true})

	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.Mkdir(subDir, 0o755))
	assert.True(t, waitFor(events, func(ev WatchMessage) bool {
		return ev.Event == EventCreate && ev.Path == subDir && ev.IsDir
	}), "no create event for %s", subDir)

	time.Sleep(200 * time.Millisecond)
	file2 := filepath.Join(subDir, "test2.txt")
	require.NoError(t, os.WriteFile(file2, []byte("test2"), 0o644))
	assert.True(t, waitFor(events, func(ev WatchMessage) bool {
		return ev.Event == EventCreate && ev.Path == file2
	}), "new directory was not registered")
}

func TestWatchExistingTree(t *testing.T) {
	root := createIn(t, t.TempDir(), dir("root",
		dir("a", dir("b")),
		dir(".hidden"),
	))
	events := startWatch(t, root, WatchOptions{Recursive: true})

	deep := filepath.Join(root, "a", "b", "deep.txt")
	require.NoError(t, os.WriteFile(deep, nil, 0o644))
	assert.True(t, waitFor(events, func(ev WatchMessage) bool {
		return ev.Path == deep
	}), "nested directory was not registered")
}

func TestWatchWithFiltering(t *testing.T) {
	tmpDir := t.TempDir()
	events := startWatch(t, tmpDir, WatchOptions{
		Recursive:     true,
		Pattern:       "*.txt",
		IgnorePattern: "ignore*",
		Events:        []WatchEvent{EventCreate, EventModify},
	})

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.log"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.txt"), nil, 0o644))
	file1 := filepath.Join(tmpDir, "test1.txt")
	require.NoError(t, os.WriteFile(file1, []byte("x"), 0o644))

	// Events arrive in order, so everything before file1 must be file1 too.
	assert.True(t, waitFor(events, func(ev WatchMessage) bool {
		require.Equal(t, file1, ev.Path, "unexpected event %s for %s", ev.Event, ev.Path)
		return ev.Event == EventCreate
	}))
}

func TestWatchTreeFollowLinksSkipsLoops(t *testing.T) {
	skipWithoutSymlinks(t)
	root := createIn(t, t.TempDir(), dir("root",
		dir("a", link("up", "..")),
		dir("b"),
		dir(".git"),
	))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	n, err := watchTree(watcher, root, WatchOptions{Recursive: true, FollowSymlinks: true}, NewLogger(LogLevelError))
	require.NoError(t, err)
	assert.Equal(t, 3, n) // root, a, b
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "a"), filepath.Join(root, "b")}, watcher.WatchList())
}

func TestWatchTreeMissingRoot(t *testing.T) {
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	_, err = watchTree(watcher, filepath.Join(t.TempDir(), "missing"), WatchOptions{Recursive: true}, NewLogger(LogLevelError))
	assert.Error(t, err)
}

func TestEventFilter(t *testing.T) {
	all := eventFilter(nil)
	assert.Len(t, all, 5)

	some := eventFilter([]WatchEvent{EventDelete})
	assert.Equal(t, map[fsnotify.Op]WatchEvent{fsnotify.Remove: EventDelete}, some)

	ev, ok := classify(fsnotify.Event{Name: "x", Op: fsnotify.Create | fsnotify.Chmod}, all)
	assert.True(t, ok)
	assert.Equal(t, EventCreate, ev)

	_, ok = classify(fsnotify.Event{Name: "x", Op: fsnotify.Write}, some)
	assert.False(t, ok)
}

func TestRelDepth(t *testing.T) {
	root := filepath.Join("a", "b")
	assert.Equal(t, 0, relDepth(root, root))
	assert.Equal(t, 1, relDepth(root, filepath.Join(root, "c")))
	assert.Equal(t, 3, relDepth(root, filepath.Join(root, "c", "d", "e")))
}

func TestWatchCreatedDepthLimit(t *testing.T) {
	root := createIn(t, t.TempDir(), dir("root",
		dir("a", dir("b", dir("c"))),
		dir(".hidden"),
	))
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	opts := WatchOptions{Recursive: true, MaxDepth: 2}
	logger := NewLogger(LogLevelError)

	require.NoError(t, watchCreated(watcher, root, filepath.Join(root, "a"), opts, logger))
	require.NoError(t, watchCreated(watcher, root, filepath.Join(root, "a", "b", "c"), opts, logger))
	require.NoError(t, watchCreated(watcher, root, filepath.Join(root, ".hidden"), opts, logger))

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b"),
	}, watcher.WatchList())
}
