package walkdir

import (
	"path/filepath"
	"slices"

	"github.com/karrick/godirwalk"
)

// cursor reads the children of one directory, one at a time.
//
// next returns (nil, nil) once the directory is exhausted and (nil, err)
// when the directory stream failed; the cursor is finished in both cases.
type cursor interface {
	next() (*Entry, error)
	close() error
}

// direntScanner is the part of *godirwalk.Scanner the cursors use.
type direntScanner interface {
	Scan() bool
	Name() string
	Dirent() (*godirwalk.Dirent, error)
	Err() error
	Close() error
}

// scannedEntry builds the entry the scanner is positioned on. When the
// listing has no type and the lstat fallback fails, the entry is left
// untyped; Entry.FileType retries on demand.
func scannedEntry(s direntScanner, dir string, depth int) *Entry {
	ent := newEntry(filepath.Join(dir, s.Name()), depth)
	if de, err := s.Dirent(); err == nil {
		ent.setMode(de.ModeType())
	}
	return ent
}

// drain reads every remaining entry of s. A read failure stops the drain and
// is returned along with the entries read before it.
func drain(s direntScanner, dir string, depth int) ([]*Entry, error) {
	var entries []*Entry
	for s.Scan() {
		entries = append(entries, scannedEntry(s, dir, depth))
	}
	return entries, s.Err()
}

// scanCursor lazily enumerates a directory with a godirwalk.Scanner, so only
// one buffer of raw entries is held per open directory. Each scanner owns its
// buffer: a parent's unread entries still live in it while a child is open.
type scanCursor struct {
	dir     string
	depth   int
	scanner direntScanner
}

func newScanCursor(dir string, depth int) (*scanCursor, error) {
	scanner, err := godirwalk.NewScanner(dir)
	if err != nil {
		return nil, err
	}
	return &scanCursor{dir: dir, depth: depth, scanner: scanner}, nil
}

func (c *scanCursor) next() (*Entry, error) {
	if !c.scanner.Scan() {
		return nil, c.scanner.Err()
	}
	return scannedEntry(c.scanner, c.dir, c.depth), nil
}

func (c *scanCursor) close() error {
	return c.scanner.Close()
}

// spill reads the rest of the directory into memory and releases the
// directory handle.
func (c *scanCursor) spill() *sliceCursor {
	entries, err := drain(c.scanner, c.dir, c.depth)
	return &sliceCursor{entries: entries, err: err}
}

// sliceCursor hands out children already read into memory. A read failure
// met while filling it is reported after the entries read before it.
type sliceCursor struct {
	entries []*Entry
	err     error
}

// newSortedCursor reads a whole directory up front and orders its children
// with cmp. The read completes before it returns, so scratch can be shared
// by the whole walk.
func newSortedCursor(dir string, depth int, scratch []byte, cmp func(a, b *Entry) int) (*sliceCursor, error) {
	scanner, err := godirwalk.NewScannerWithScratchBuffer(dir, scratch)
	if err != nil {
		return nil, err
	}
	entries, err := drain(scanner, dir, depth)
	slices.SortStableFunc(entries, cmp)
	return &sliceCursor{entries: entries, err: err}, nil
}

func (c *sliceCursor) next() (*Entry, error) {
	if len(c.entries) == 0 {
		err := c.err
		c.err = nil
		return nil, err
	}
	ent := c.entries[0]
	c.entries[0] = nil
	c.entries = c.entries[1:]
	return ent, nil
}

func (c *sliceCursor) close() error {
	c.entries, c.err = nil, nil
	return nil
}
