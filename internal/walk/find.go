package walkdir

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// FindMessage holds information about an entry found during traversal
type FindMessage struct {
	Path          string    // Full path to the entry
	Name          string    // Base name of the entry
	Dir           string    // Directory containing the entry
	Depth         int       // Depth below the search root
	Type          FileType  // Entry type
	Size          int64     // Size in bytes
	Time          time.Time // Modification time
	PathIsSymlink bool      // Whether the path names a symlink
}

// IsDir reports whether the entry is a directory.
func (m FindMessage) IsDir() bool { return m.Type == Dir }

// FindOptions defines the criteria for finding entries
type FindOptions struct {
	// Pattern matching options
	NamePattern   string         // Match by file name (supports wildcards)
	PathPattern   string         // Match by path (supports wildcards)
	IgnorePattern string         // Skip paths matching this pattern
	RegexPattern  *regexp.Regexp // Match by regular expression

	// Types restricts matches to the listed types; empty matches all.
	Types []FileType

	// Time-based filtering
	OlderThan time.Duration // Entries older than this duration
	NewerThan time.Duration // Entries newer than this duration

	// Size-based filtering
	LargerSize  int64 // Entries larger than this size (bytes)
	SmallerSize int64 // Entries smaller than this size (bytes)

	// Traversal options
	MinDepth       int  // Minimum depth to report
	MaxDepth       int  // Maximum depth to traverse, 0 for unlimited
	FollowSymlinks bool // Whether to follow symbolic links
	IncludeHidden  bool // Whether to include hidden files and directories
	SortByName     bool // Whether to visit siblings in name order

	Logger *zap.Logger
}

// FindResult represents an entry that matched the find criteria, or an
// error met while searching.
type FindResult struct {
	Message FindMessage
	Error   error
}

// FindHandler is a function that processes each found entry. Returning an
// error stops the search.
type FindHandler func(ctx context.Context, result FindResult) error

// defaultFindHandler returns a default handler that prints found entries
// and reports errors on stderr without stopping.
func defaultFindHandler() FindHandler {
	return func(ctx context.Context, result FindResult) error {
		if result.Error != nil {
			fmt.Fprintln(os.Stderr, result.Error)
			return nil
		}
		fmt.Println(result.Message.Path)
		return nil
	}
}

// execHandler returns a handler that executes a command for each found entry
func execHandler(cmdTemplate string) FindHandler {
	return func(ctx context.Context, result FindResult) error {
		if result.Error != nil {
			fmt.Fprintln(os.Stderr, result.Error)
			return nil
		}
		cmd := formatCommand(cmdTemplate, result.Message)
		return executeCommand(ctx, cmd)
	}
}

// formatHandler returns a handler that formats output according to a template
func formatHandler(formatTemplate string) FindHandler {
	return func(ctx context.Context, result FindResult) error {
		if result.Error != nil {
			fmt.Fprintln(os.Stderr, result.Error)
			return nil
		}
		fmt.Println(formatCommand(formatTemplate, result.Message))
		return nil
	}
}

// formatCommand replaces placeholders in a template with values from the message
func formatCommand(template string, msg FindMessage) string {
	depth := strconv.Itoa(msg.Depth)
	size := strconv.FormatInt(msg.Size, 10)
	mtime := msg.Time.Format(time.RFC3339)

	r := strings.NewReplacer(
		`{""}`, strconv.Quote(msg.Path),
		`{"base"}`, strconv.Quote(msg.Name),
		`{"dir"}`, strconv.Quote(msg.Dir),
		"{}", msg.Path,
		"{base}", msg.Name,
		"{dir}", msg.Dir,
		"{depth}", depth,
		"{size}", size,
		"{time}", mtime,
		"{type}", msg.Type.String(),
	)
	return r.Replace(template)
}

// executeCommand executes a command with the given arguments
func executeCommand(ctx context.Context, cmdStr string) error {
	args := strings.Fields(cmdStr)
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("command error: %s: %w", stderr.String(), err)
		}
		return err
	}

	if stdout.Len() > 0 {
		fmt.Print(stdout.String())
	}
	return nil
}

// nameMatch checks if a file name matches the given pattern. Both sides are
// NFC-normalized so decomposed names (as stored by some filesystems) match
// precomposed patterns.
func nameMatch(pattern, path string) bool {
	pattern = norm.NFC.String(pattern)
	base := norm.NFC.String(filepath.Base(path))
	matched, err := filepath.Match(pattern, base)
	if err != nil {
		return false
	}
	if !matched {
		// Try matching against each path component
		for _, pathComponent := range strings.Split(path, string(os.PathSeparator)) {
			if norm.NFC.String(pathComponent) == pattern {
				return true
			}
		}
	}
	return matched
}

// pathMatch checks if a path matches the given pattern
func pathMatch(pattern, path string) bool {
	// Simple wildcard matching
	patternParts := strings.Split(pattern, "*")
	if len(patternParts) == 1 {
		return pattern == path
	}

	if !strings.HasPrefix(path, patternParts[0]) {
		return false
	}

	path = path[len(patternParts[0]):]
	for i := 1; i < len(patternParts)-1; i++ {
		idx := strings.Index(path, patternParts[i])
		if idx == -1 {
			return false
		}
		path = path[idx+len(patternParts[i]):]
	}

	return strings.HasSuffix(path, patternParts[len(patternParts)-1])
}

// matchFind checks if an entry matches the find criteria
func matchFind(opts FindOptions, msg FindMessage) bool {
	if opts.NamePattern != "" && !nameMatch(opts.NamePattern, msg.Path) {
		return false
	}
	if opts.PathPattern != "" && !pathMatch(opts.PathPattern, msg.Path) {
		return false
	}
	if opts.IgnorePattern != "" && pathMatch(opts.IgnorePattern, msg.Path) {
		return false
	}
	if opts.RegexPattern != nil && !opts.RegexPattern.MatchString(norm.NFC.String(msg.Path)) {
		return false
	}
	if len(opts.Types) > 0 && !containsType(opts.Types, msg.Type) {
		return false
	}

	// Check time constraints
	if opts.OlderThan > 0 && time.Since(msg.Time) <= opts.OlderThan {
		return false
	}
	if opts.NewerThan > 0 && time.Since(msg.Time) >= opts.NewerThan {
		return false
	}

	// Check size constraints
	if opts.LargerSize > 0 && msg.Size <= opts.LargerSize {
		return false
	}
	if opts.SmallerSize > 0 && msg.Size >= opts.SmallerSize {
		return false
	}
	return true
}

func containsType(types []FileType, t FileType) bool {
	for _, typ := range types {
		if typ == t {
			return true
		}
	}
	return false
}

// newFindMessage loads the metadata of ent.
func newFindMessage(ent *Entry) (FindMessage, error) {
	info, err := ent.Info()
	if err != nil {
		return FindMessage{}, newIOError(ent.Path(), ent.Depth(), err)
	}
	typ, err := ent.FileType()
	if err != nil {
		return FindMessage{}, newIOError(ent.Path(), ent.Depth(), err)
	}
	return FindMessage{
		Path:          ent.Path(),
		Name:          ent.Name(),
		Dir:           filepath.Dir(ent.Path()),
		Depth:         ent.Depth(),
		Type:          typ,
		Size:          info.Size(),
		Time:          info.ModTime(),
		PathIsSymlink: ent.PathIsSymlink(),
	}, nil
}

// Find walks root and passes every entry matching opts to handler. Walk
// errors are passed to the handler too; the search only stops when the
// handler returns an error or ctx is done.
func Find(ctx context.Context, root string, opts FindOptions, handler FindHandler) error {
	if handler == nil {
		handler = defaultFindHandler()
	}

	w := New(root).
		FollowLinks(opts.FollowSymlinks).
		MinDepth(opts.MinDepth).
		Logger(opts.Logger)
	if opts.MaxDepth > 0 {
		w.MaxDepth(opts.MaxDepth)
	}
	if opts.SortByName {
		w.SortByName()
	}

	it := w.Iter()
	defer it.Close()

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := it.Err(); err != nil {
			if herr := handler(ctx, FindResult{Error: err}); herr != nil {
				return herr
			}
			continue
		}

		ent := it.Entry()
		if !opts.IncludeHidden && ent.Depth() > 0 && isHidden(ent.Path()) {
			it.SkipDir()
			continue
		}

		msg, err := newFindMessage(ent)
		if err != nil {
			if herr := handler(ctx, FindResult{Error: err}); herr != nil {
				return herr
			}
			continue
		}
		if !matchFind(opts, msg) {
			continue
		}
		if err := handler(ctx, FindResult{Message: msg}); err != nil {
			return err
		}
	}
	return nil
}

// isHidden checks if a file is hidden
func isHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// FindWithExec searches for entries and executes a command for each match
func FindWithExec(ctx context.Context, root string, opts FindOptions, cmdTemplate string) error {
	return Find(ctx, root, opts, execHandler(cmdTemplate))
}

// FindWithFormat searches for entries and formats output according to a template
func FindWithFormat(ctx context.Context, root string, opts FindOptions, formatTemplate string) error {
	return Find(ctx, root, opts, formatHandler(formatTemplate))
}
