package walk

import (
	"context"

	internal "github.com/TFMV/walkdir/internal/walk"
)

// Re-export find and watch types
type (
	FindMessage = internal.FindMessage
	FindOptions = internal.FindOptions
	FindResult  = internal.FindResult
	FindHandler = internal.FindHandler

	WatchEvent   = internal.WatchEvent
	WatchOptions = internal.WatchOptions
	WatchMessage = internal.WatchMessage
	WatchResult  = internal.WatchResult
	WatchHandler = internal.WatchHandler
)

// Watch event constants
const (
	EventCreate = internal.EventCreate
	EventModify = internal.EventModify
	EventDelete = internal.EventDelete
	EventRename = internal.EventRename
	EventChmod  = internal.EventChmod
)

// Find searches for entries matching the given criteria. A nil handler
// prints matching paths.
func Find(ctx context.Context, root string, opts FindOptions, handler FindHandler) error {
	return internal.Find(ctx, root, opts, handler)
}

// FindWithExec searches for entries and executes a command for each match
func FindWithExec(ctx context.Context, root string, opts FindOptions, cmdTemplate string) error {
	return internal.FindWithExec(ctx, root, opts, cmdTemplate)
}

// FindWithFormat searches for entries and formats output according to a template
func FindWithFormat(ctx context.Context, root string, opts FindOptions, formatTemplate string) error {
	return internal.FindWithFormat(ctx, root, opts, formatTemplate)
}

// Watch monitors a directory for filesystem changes
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	return internal.Watch(ctx, root, opts, handler)
}

// WatchWithFormat watches for filesystem changes and formats output for each event
func WatchWithFormat(ctx context.Context, root string, opts WatchOptions, formatTemplate string) error {
	return internal.WatchWithFormat(ctx, root, opts, formatTemplate)
}
