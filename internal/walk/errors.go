package walkdir

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrLoop is wrapped by every Loop error.
var ErrLoop = errors.New("filesystem loop detected")

// Kind tells the two error variants apart.
type Kind int

const (
	// KindIO is a failure reported by the operating system.
	KindIO Kind = iota
	// KindLoop is a symlink that would re-enter one of its ancestors.
	KindLoop
)

func (k Kind) String() string {
	if k == KindLoop {
		return "loop"
	}
	return "io"
}

// Error is a failure yielded by a walk.
//
// An Error of KindIO wraps the operating system error for Path. An Error of
// KindLoop is produced only by ancestor comparison: Path is the symlink and
// LoopAncestor the directory it resolves to.
type Error struct {
	kind     Kind
	path     string
	depth    int
	err      error
	ancestor string
}

func newIOError(path string, depth int, err error) *Error {
	return &Error{kind: KindIO, path: path, depth: depth, err: err}
}

func newLoopError(ancestor, child string, depth int) *Error {
	return &Error{kind: KindLoop, path: child, depth: depth, ancestor: ancestor}
}

// Kind returns KindIO or KindLoop.
func (e *Error) Kind() Kind { return e.kind }

// Path returns the path that triggered the error.
func (e *Error) Path() string { return e.path }

// Depth returns the depth at which the error occurred.
func (e *Error) Depth() int { return e.depth }

// LoopAncestor returns the ancestor directory re-entered by a loop, or ""
// for I/O errors.
func (e *Error) LoopAncestor() string { return e.ancestor }

// IsLoop reports whether e is a loop.
func (e *Error) IsLoop() bool { return e.kind == KindLoop }

func (e *Error) Error() string {
	if e.kind == KindLoop {
		return fmt.Sprintf("walkdir: %s: %v: re-enters ancestor %s", e.path, ErrLoop, e.ancestor)
	}
	if e.path == "" {
		return fmt.Sprintf("walkdir: %v", e.err)
	}
	return fmt.Sprintf("walkdir: %s: %v", e.path, e.err)
}

// Unwrap returns the operating system error, or ErrLoop for loops.
func (e *Error) Unwrap() error {
	if e.kind == KindLoop {
		return ErrLoop
	}
	return e.err
}

// IOError widens e into a plain *fs.PathError. A loop becomes a PathError
// wrapping ErrLoop, so callers that only handle I/O failures can treat every
// walk error uniformly.
func (e *Error) IOError() *fs.PathError {
	if e.kind == KindLoop {
		return &fs.PathError{Op: "walk", Path: e.path, Err: ErrLoop}
	}
	var pe *fs.PathError
	if errors.As(e.err, &pe) {
		return pe
	}
	return &fs.PathError{Op: "walk", Path: e.path, Err: e.err}
}

// AsError extracts a walk *Error from err.
func AsError(err error) (*Error, bool) {
	var werr *Error
	if errors.As(err, &werr) {
		return werr, true
	}
	return nil, false
}
