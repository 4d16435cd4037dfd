package walk

import (
	internal "github.com/TFMV/walkdir/internal/walk"
	"go.uber.org/zap"
)

// Re-export the walk types from the internal package
type (
	// WalkDir configures a walk.
	WalkDir = internal.WalkDir

	// Iterator is a walk in progress.
	Iterator = internal.Iterator

	// Entry is one filesystem object encountered during a walk.
	Entry = internal.Entry

	// FileType classifies an entry.
	FileType = internal.FileType

	// Error is a failure yielded by a walk: Io or Loop.
	Error = internal.Error

	// Kind tells Io and Loop errors apart.
	Kind = internal.Kind

	// Events is the enter/leaf/exit view of a walk.
	Events = internal.Events

	// Event is one step of Events.
	Event = internal.Event

	// EventKind tags an Event.
	EventKind = internal.EventKind

	// Stats summarizes a walk.
	Stats = internal.Stats

	// LogLevel defines the verbosity of logging.
	LogLevel = internal.LogLevel
)

// Re-export all the constants
const (
	// File types
	Regular = internal.Regular
	Dir     = internal.Dir
	Symlink = internal.Symlink
	Other   = internal.Other

	// Error kinds
	KindIO   = internal.KindIO
	KindLoop = internal.KindLoop

	// Event kinds
	EventEnter = internal.EventEnter
	EventLeaf  = internal.EventLeaf
	EventExit  = internal.EventExit

	// Log levels
	LogLevelError = internal.LogLevelError
	LogLevelWarn  = internal.LogLevelWarn
	LogLevelInfo  = internal.LogLevelInfo
	LogLevelDebug = internal.LogLevelDebug
)

// ErrLoop is wrapped by every Loop error.
var ErrLoop = internal.ErrLoop

// New returns a builder for a walk rooted at root.
func New(root string) *WalkDir {
	return internal.New(root)
}

// NewEvents wraps an iterator to report directory enter and exit.
func NewEvents(it *Iterator) *Events {
	return internal.NewEvents(it)
}

// AsError extracts a walk *Error from err.
func AsError(err error) (*Error, bool) {
	return internal.AsError(err)
}

// NewLogger creates a zap logger with the specified log level.
func NewLogger(level LogLevel) *zap.Logger {
	return internal.NewLogger(level)
}

// ParseLogLevel maps a level name to a LogLevel.
func ParseLogLevel(s string) LogLevel {
	return internal.ParseLogLevel(s)
}
