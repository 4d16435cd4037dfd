package walkdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchEvent represents a filesystem event type
type WatchEvent string

// Watch event types
const (
	EventCreate WatchEvent = "create"
	EventModify WatchEvent = "modify"
	EventDelete WatchEvent = "delete"
	EventRename WatchEvent = "rename"
	EventChmod  WatchEvent = "chmod"
)

// WatchOptions defines options for watching filesystem changes
type WatchOptions struct {
	// Events to watch for; empty means all of them.
	Events []WatchEvent

	// Recursive registers every directory reached by walking the root.
	Recursive bool

	// FollowSymlinks lets the recursive walk enter linked directories.
	// Links that loop back to an ancestor are skipped.
	FollowSymlinks bool

	// MaxDepth bounds the recursive walk; 0 means unlimited.
	MaxDepth int

	// Pattern to match file names (e.g., "*.go")
	Pattern string

	// Pattern to ignore file names
	IgnorePattern string

	// Whether to include hidden files and directories
	IncludeHidden bool

	// Timeout duration (0 means no timeout)
	Timeout time.Duration

	Logger *zap.Logger
}

// WatchMessage contains information about a filesystem event
type WatchMessage struct {
	Path  string     // Full path to the file
	Name  string     // Base name of the file
	Dir   string     // Directory containing the file
	Size  int64      // Size in bytes (0 for deleted files)
	Time  time.Time  // Modification time, or event time for deletions
	IsDir bool       // Whether it's a directory
	Event WatchEvent // Event type
}

// WatchResult represents a watch event result
type WatchResult struct {
	Message WatchMessage
	Error   error
}

// WatchHandler is a function that processes watch events
type WatchHandler func(ctx context.Context, result WatchResult) error

// defaultWatchHandler returns a default handler that prints events
func defaultWatchHandler() WatchHandler {
	return func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			return result.Error
		}
		fmt.Printf("%s: %s\n", strings.ToUpper(string(result.Message.Event)), result.Message.Path)
		return nil
	}
}

// watchTree registers root and, when recursive, every directory below it.
// It returns the number of directories registered.
func watchTree(watcher *fsnotify.Watcher, root string, opts WatchOptions, logger *zap.Logger) (int, error) {
	if !opts.Recursive {
		if err := watcher.Add(root); err != nil {
			return 0, fmt.Errorf("error watching directory %s: %w", root, err)
		}
		return 1, nil
	}

	w := New(root).FollowLinks(opts.FollowSymlinks).Logger(logger)
	if opts.MaxDepth > 0 {
		w.MaxDepth(opts.MaxDepth)
	}
	w.FilterEntry(func(ent *Entry) bool {
		if !ent.IsDir() {
			return false
		}
		return opts.IncludeHidden || ent.Depth() == 0 || !isHidden(ent.Path())
	})

	added := 0
	for ent, err := range w.All() {
		if err != nil {
			werr, ok := AsError(err)
			if ok && werr.Depth() == 0 {
				return added, fmt.Errorf("error walking directory tree: %w", err)
			}
			logger.Warn("skipping directory", zap.Error(err))
			continue
		}
		if err := watcher.Add(ent.Path()); err != nil {
			if ent.Depth() == 0 {
				return added, fmt.Errorf("error watching directory %s: %w", ent.Path(), err)
			}
			logger.Warn("error watching directory", zap.String("path", ent.Path()), zap.Error(err))
			continue
		}
		added++
	}
	return added, nil
}

// eventFilter maps the requested WatchEvents to fsnotify operations.
func eventFilter(events []WatchEvent) map[fsnotify.Op]WatchEvent {
	all := map[fsnotify.Op]WatchEvent{
		fsnotify.Create: EventCreate,
		fsnotify.Write:  EventModify,
		fsnotify.Remove: EventDelete,
		fsnotify.Rename: EventRename,
		fsnotify.Chmod:  EventChmod,
	}
	if len(events) == 0 {
		return all
	}
	wanted := make(map[fsnotify.Op]WatchEvent, len(events))
	for op, ev := range all {
		for _, e := range events {
			if e == ev {
				wanted[op] = ev
			}
		}
	}
	return wanted
}

// classify returns the first requested event type carried by event.
func classify(event fsnotify.Event, wanted map[fsnotify.Op]WatchEvent) (WatchEvent, bool) {
	for _, op := range []fsnotify.Op{fsnotify.Create, fsnotify.Write, fsnotify.Remove, fsnotify.Rename, fsnotify.Chmod} {
		if ev, ok := wanted[op]; ok && event.Has(op) {
			return ev, true
		}
	}
	return "", false
}

// Watch monitors root for filesystem changes until ctx is done or the
// timeout expires.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	if handler == nil {
		handler = defaultWatchHandler()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	added, err := watchTree(watcher, root, opts, logger)
	if err != nil {
		return err
	}
	logger.Debug("watching", zap.String("root", root), zap.Int("directories", added))

	wanted := eventFilter(opts.Events)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			eventType, ok := classify(event, wanted)
			if !ok && !(opts.Recursive && event.Has(fsnotify.Create)) {
				continue
			}

			var info os.FileInfo
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				info, err = os.Stat(event.Name)
				if err != nil {
					// Gone before we could look at it.
					logger.Debug("stat after event", zap.String("path", event.Name), zap.Error(err))
				}
			}

			// New directories are walked so that anything created inside
			// them before registration is also covered.
			if opts.Recursive && info != nil && info.IsDir() && event.Has(fsnotify.Create) {
				if err := watchCreated(watcher, root, event.Name, opts, logger); err != nil {
					_ = handler(ctx, WatchResult{Error: err})
				}
			}
			if !ok {
				continue
			}

			if !matchesWatchPatterns(event.Name, opts) {
				continue
			}

			msg := WatchMessage{
				Path:  event.Name,
				Name:  filepath.Base(event.Name),
				Dir:   filepath.Dir(event.Name),
				Time:  time.Now(),
				Event: eventType,
			}
			if info != nil {
				msg.Size = info.Size()
				msg.IsDir = info.IsDir()
				msg.Time = info.ModTime()
			}

			if err := handler(ctx, WatchResult{Message: msg}); err != nil {
				logger.Warn("error handling event", zap.String("path", event.Name), zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = handler(ctx, WatchResult{Error: fmt.Errorf("watcher error: %w", err)})
		}
	}
}

// watchCreated registers a directory that appeared under root, within what
// is left of the depth limit.
func watchCreated(watcher *fsnotify.Watcher, root, path string, opts WatchOptions, logger *zap.Logger) error {
	if !opts.IncludeHidden && isHidden(path) {
		return nil
	}
	sub := opts
	if opts.MaxDepth > 0 {
		remaining := opts.MaxDepth - relDepth(root, path)
		switch {
		case remaining < 0:
			return nil
		case remaining == 0:
			sub.Recursive = false
		default:
			sub.MaxDepth = remaining
		}
	}
	_, err := watchTree(watcher, path, sub, logger)
	return err
}

func matchesWatchPatterns(path string, opts WatchOptions) bool {
	name := filepath.Base(path)
	if opts.Pattern != "" {
		if matched, err := filepath.Match(opts.Pattern, name); err != nil || !matched {
			return false
		}
	}
	if opts.IgnorePattern != "" {
		if matched, err := filepath.Match(opts.IgnorePattern, name); err == nil && matched {
			return false
		}
	}
	return opts.IncludeHidden || !isHidden(path)
}

// relDepth counts the path elements of path below root.
func relDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(os.PathSeparator)) + 1
}

// WatchWithFormat watches for filesystem changes and formats output for each event
func WatchWithFormat(ctx context.Context, root string, opts WatchOptions, formatTemplate string) error {
	return Watch(ctx, root, opts, func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			fmt.Fprintln(os.Stderr, result.Error)
			return nil
		}
		format := strings.ReplaceAll(formatTemplate, "{event}", string(result.Message.Event))
		typ := Regular
		if result.Message.IsDir {
			typ = Dir
		}
		fmt.Println(formatCommand(format, FindMessage{
			Path:  result.Message.Path,
			Name:  result.Message.Name,
			Dir:   result.Message.Dir,
			Depth: relDepth(root, result.Message.Path),
			Type:  typ,
			Size:  result.Message.Size,
			Time:  result.Message.Time,
		}))
		return nil
	})
}
