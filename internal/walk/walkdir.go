// Package walkdir lazily walks a directory tree.
//
// A walk yields one entry per call, depth first and in pre-order: a
// directory always comes before its children. Descent uses an explicit stack
// of directory cursors rather than recursion. At most MaxOpen of them hold a
// directory handle; older ones are read into memory, so tree depth is
// bounded by memory alone. Leaving a directory is not reported as a value;
// it shows up as a drop in Depth between consecutive entries (see Events).
//
// Symbolic links are not followed unless FollowLinks is enabled. When they
// are, every directory about to be entered through a link is compared by
// device and inode against the directories currently open on the stack, and
// a match is reported as a Loop error instead of being descended into.
package walkdir

import (
	"errors"
	"iter"
	"math"
	"os"
	"strings"

	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

type walkOptions struct {
	followLinks bool
	minDepth    int
	maxDepth    int
	maxOpen     int
	sorter      func(a, b *Entry) int
	filter      func(*Entry) bool
	logger      *zap.Logger
}

// WalkDir configures a walk. No I/O happens until an Iterator is pulled.
type WalkDir struct {
	root string
	opts walkOptions
}

// New returns a builder for a walk rooted at root. Links are not followed
// and depth is unbounded.
func New(root string) *WalkDir {
	return &WalkDir{
		root: root,
		opts: walkOptions{maxDepth: math.MaxInt, maxOpen: defaultMaxOpen},
	}
}

// Root returns the path the walk starts from.
func (w *WalkDir) Root() string { return w.root }

// FollowLinks sets whether symbolic links to directories are descended into.
// Followed links report the type and metadata of their target.
func (w *WalkDir) FollowLinks(yes bool) *WalkDir {
	w.opts.followLinks = yes
	return w
}

// MinDepth hides entries shallower than depth. They are still traversed.
// A value above the current maximum is lowered to it.
func (w *WalkDir) MinDepth(depth int) *WalkDir {
	if depth < 0 {
		depth = 0
	}
	w.opts.minDepth = depth
	if w.opts.minDepth > w.opts.maxDepth {
		w.opts.minDepth = w.opts.maxDepth
	}
	return w
}

// MaxDepth stops descent so no entry deeper than depth is read. A negative
// depth removes the bound; a value below the current minimum is raised to it.
func (w *WalkDir) MaxDepth(depth int) *WalkDir {
	if depth < 0 {
		depth = math.MaxInt
	}
	w.opts.maxDepth = depth
	if w.opts.maxDepth < w.opts.minDepth {
		w.opts.maxDepth = w.opts.minDepth
	}
	return w
}

// defaultMaxOpen is the number of directory handles a walk keeps open.
const defaultMaxOpen = 10

// MaxOpen caps the number of directory handles held open at once. Past the
// cap, the outermost open directory is read into memory and its handle
// closed, so deep trees cost memory rather than file descriptors. Values
// below 1 are raised to 1.
func (w *WalkDir) MaxOpen(n int) *WalkDir {
	if n < 1 {
		n = 1
	}
	w.opts.maxOpen = n
	return w
}

// SortBy yields the children of each directory in cmp order. Each directory
// is then read completely when it is entered. cmp sees entries before any
// link is resolved.
func (w *WalkDir) SortBy(cmp func(a, b *Entry) int) *WalkDir {
	w.opts.sorter = cmp
	return w
}

// SortByName sorts children lexically by file name.
func (w *WalkDir) SortByName() *WalkDir {
	return w.SortBy(func(a, b *Entry) int {
		return strings.Compare(a.Name(), b.Name())
	})
}

// FilterEntry drops every entry for which keep returns false. A dropped
// directory is not descended into. Entries shallower than the minimum depth
// are not passed to keep.
func (w *WalkDir) FilterEntry(keep func(*Entry) bool) *WalkDir {
	w.opts.filter = keep
	return w
}

// Logger sets the logger used for debug tracing of the walk.
func (w *WalkDir) Logger(logger *zap.Logger) *WalkDir {
	w.opts.logger = logger
	return w
}

// Iter starts a walk with the current configuration. The builder can be
// reused afterwards.
func (w *WalkDir) Iter() *Iterator {
	logger := w.opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Iterator{
		root:   w.root,
		opts:   w.opts,
		logger: logger,
	}
}

// All is shorthand for w.Iter().All().
func (w *WalkDir) All() iter.Seq2[*Entry, error] {
	return w.Iter().All()
}

// Collect drains the walk. It stops at the first error and returns it along
// with the entries read so far.
func (w *WalkDir) Collect() ([]*Entry, error) {
	var entries []*Entry
	for ent, err := range w.All() {
		if err != nil {
			return entries, err
		}
		entries = append(entries, ent)
	}
	return entries, nil
}

// frame is one directory open on the walk stack.
type frame struct {
	path  string
	depth int

	// handle is only resolved when links are followed.
	handle    handle
	hasHandle bool

	// cursor is opened on the first read, one step after the directory's
	// own entry was yielded.
	cursor cursor
}

// Iterator is a walk in progress. It is not safe for concurrent use.
//
//	it := walkdir.New(root).Iter()
//	defer it.Close()
//	for it.Next() {
//		if err := it.Err(); err != nil {
//			// Io or Loop; keep going or stop.
//			continue
//		}
//		fmt.Println(it.Entry().Path())
//	}
type Iterator struct {
	root   string
	opts   walkOptions
	logger *zap.Logger

	stack   []*frame
	scratch []byte

	// live counts frames whose cursor holds a directory handle. Frames
	// below spilled hold none.
	live    int
	spilled int

	started bool
	done    bool

	cur    *Entry
	err    error
	depth  int
	pushed *frame
}

// Next advances to the next entry or error. It returns false once the walk
// is over, after which every resource held by the iterator is released.
func (it *Iterator) Next() bool {
	it.cur, it.err, it.pushed = nil, nil, nil
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		if it.start() {
			return true
		}
		if it.done {
			return false
		}
	}
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		if top.cursor == nil {
			c, err := it.open(top)
			if err != nil {
				it.pop()
				return it.fail(newIOError(top.path, top.depth, err))
			}
			top.cursor = c
			if _, ok := c.(*scanCursor); ok {
				it.live++
				it.spillOldest()
			}
		}
		ent, err := top.cursor.next()
		if err != nil {
			// The cursor released its handle when the read failed.
			it.release(top)
			it.pop()
			return it.fail(newIOError(top.path, top.depth, err))
		}
		if ent == nil {
			it.pop()
			continue
		}
		if it.visit(ent) {
			return true
		}
	}
	it.done = true
	return false
}

// Entry returns the entry produced by the last call to Next, or nil if that
// call produced an error.
func (it *Iterator) Entry() *Entry { return it.cur }

// Err returns the error produced by the last call to Next. A non-nil value
// is always a *Error.
func (it *Iterator) Err() error { return it.err }

// Depth returns the depth of the item produced by the last call to Next.
func (it *Iterator) Depth() int { return it.depth }

// SkipDir keeps the walk from descending into the directory just returned
// by Next. It does nothing if the last item was not a directory about to be
// entered.
func (it *Iterator) SkipDir() {
	if it.pushed == nil || len(it.stack) == 0 || it.stack[len(it.stack)-1] != it.pushed {
		return
	}
	it.stack = it.stack[:len(it.stack)-1]
	it.spilled = min(it.spilled, len(it.stack))
	it.pushed = nil
}

// Close ends the walk and closes every directory still open. It is safe to
// call more than once and after the walk has finished.
func (it *Iterator) Close() error {
	var errs []error
	for i := len(it.stack) - 1; i >= 0; i-- {
		if c := it.stack[i].cursor; c != nil {
			if err := c.close(); err != nil {
				errs = append(errs, err)
			}
		}
		it.stack[i] = nil
	}
	it.stack = nil
	it.live, it.spilled = 0, 0
	it.started = true
	it.done = true
	it.cur, it.pushed = nil, nil
	return errors.Join(errs...)
}

// All adapts the iterator to a range loop. The iterator is closed when the
// loop ends, including on break.
func (it *Iterator) All() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		defer it.Close()
		for it.Next() {
			if !yield(it.cur, it.err) {
				return
			}
		}
	}
}

// start produces the root. It returns true if something was yielded.
func (it *Iterator) start() bool {
	info, err := os.Lstat(it.root)
	if err != nil {
		it.done = true
		return it.fail(newIOError(it.root, 0, err))
	}

	ent := newEntry(it.root, 0)
	var descend bool
	if info.Mode()&os.ModeSymlink == 0 {
		ent.setInfo(info)
		descend = info.IsDir()
	} else {
		// The root is resolved for descent even when links are not
		// followed; only its reported type depends on FollowLinks.
		target, err := os.Stat(it.root)
		switch {
		case err != nil && it.opts.followLinks:
			it.done = true
			return it.fail(newIOError(it.root, 0, err))
		case err != nil:
			ent.setInfo(info)
		case it.opts.followLinks:
			ent.setFollowed(target)
		default:
			ent.setInfo(info)
		}
		descend = err == nil && target.IsDir()
	}

	if !it.keep(ent) {
		return false
	}
	var f *frame
	if descend && it.opts.maxDepth > 0 {
		f = &frame{path: it.root, depth: 0}
		if it.opts.followLinks {
			h, err := handleOf(it.root)
			if err != nil {
				it.done = true
				return it.fail(newIOError(it.root, 0, err))
			}
			f.handle, f.hasHandle = h, true
		}
		it.push(f)
	}
	return it.emit(ent, f)
}

// visit classifies a child read from the top frame and decides whether it
// is descended into. It returns true if something was yielded.
func (it *Iterator) visit(ent *Entry) bool {
	if !ent.typKnown {
		it.logger.Debug("entry type unavailable from listing",
			zap.String("path", ent.path))
	} else if ent.typ == Symlink && it.opts.followLinks {
		target, err := os.Stat(ent.path)
		if err != nil {
			return it.fail(newIOError(ent.path, ent.depth, err))
		}
		ent.setFollowed(target)
	}

	if !it.keep(ent) {
		return false
	}
	if !ent.typKnown || ent.typ != Dir || ent.depth >= it.opts.maxDepth {
		return it.emit(ent, nil)
	}

	f := &frame{path: ent.path, depth: ent.depth}
	if it.opts.followLinks {
		var h handle
		if ent.follow {
			var lerr *Error
			h, lerr = checkLoop(it.stack, ent.path, ent.depth)
			if lerr != nil {
				if lerr.IsLoop() {
					it.logger.Debug("pruning link loop",
						zap.String("path", lerr.Path()),
						zap.String("ancestor", lerr.LoopAncestor()))
				}
				return it.fail(lerr)
			}
		} else {
			var err error
			h, err = handleOf(ent.path)
			if err != nil {
				return it.fail(newIOError(ent.path, ent.depth, err))
			}
		}
		f.handle, f.hasHandle = h, true
	}
	it.push(f)
	return it.emit(ent, f)
}

// keep applies the entry filter. Entries above the minimum depth always pass.
func (it *Iterator) keep(ent *Entry) bool {
	if it.opts.filter == nil || ent.depth < it.opts.minDepth {
		return true
	}
	return it.opts.filter(ent)
}

// emit yields ent unless it is shallower than the minimum depth. f is the
// frame pushed for ent, if any.
func (it *Iterator) emit(ent *Entry, f *frame) bool {
	if ent.depth < it.opts.minDepth {
		return false
	}
	it.cur, it.err = ent, nil
	it.depth = ent.depth
	it.pushed = f
	return true
}

func (it *Iterator) fail(err *Error) bool {
	it.cur, it.err = nil, err
	it.depth = err.depth
	return true
}

func (it *Iterator) open(f *frame) (cursor, error) {
	if it.opts.sorter != nil {
		if it.scratch == nil {
			it.scratch = make([]byte, godirwalk.MinimumScratchBufferSize)
		}
		return newSortedCursor(f.path, f.depth+1, it.scratch, it.opts.sorter)
	}
	return newScanCursor(f.path, f.depth+1)
}

// spillOldest reads the outermost open directory into memory once more
// than maxOpen handles are held.
func (it *Iterator) spillOldest() {
	for it.live > it.opts.maxOpen && it.spilled < len(it.stack) {
		f := it.stack[it.spilled]
		it.spilled++
		sc, ok := f.cursor.(*scanCursor)
		if !ok {
			continue
		}
		f.cursor = sc.spill()
		it.live--
		it.logger.Debug("spilled directory to memory",
			zap.String("dir", f.path), zap.Int("depth", f.depth))
	}
}

// release drops f's cursor without closing it.
func (it *Iterator) release(f *frame) {
	if _, ok := f.cursor.(*scanCursor); ok {
		it.live--
	}
	f.cursor = nil
}

func (it *Iterator) push(f *frame) {
	it.stack = append(it.stack, f)
	it.logger.Debug("descend", zap.String("dir", f.path), zap.Int("depth", f.depth))
}

func (it *Iterator) pop() {
	last := len(it.stack) - 1
	f := it.stack[last]
	it.stack[last] = nil
	it.stack = it.stack[:last]
	if f.cursor != nil {
		if err := f.cursor.close(); err != nil {
			it.logger.Debug("close directory", zap.String("dir", f.path), zap.Error(err))
		}
		it.release(f)
	}
	it.spilled = min(it.spilled, len(it.stack))
	it.logger.Debug("ascend", zap.String("dir", f.path), zap.Int("depth", f.depth))
}
