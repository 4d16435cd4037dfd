package walkdir

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileType classifies an entry.
type FileType int

const (
	Regular FileType = iota // Plain file
	Dir                     // Directory
	Symlink                 // Symbolic link that was not followed
	Other                   // Device, socket, named pipe, ...
)

func (t FileType) String() string {
	switch t {
	case Regular:
		return "file"
	case Dir:
		return "dir"
	case Symlink:
		return "symlink"
	default:
		return "other"
	}
}

// IsDir reports whether t is Dir.
func (t FileType) IsDir() bool { return t == Dir }

// IsRegular reports whether t is Regular.
func (t FileType) IsRegular() bool { return t == Regular }

// IsSymlink reports whether t is Symlink.
func (t FileType) IsSymlink() bool { return t == Symlink }

// fileTypeFromMode maps mode type bits to a FileType. The symlink bit is
// checked first because Windows reports links to directories with both bits.
func fileTypeFromMode(mode os.FileMode) FileType {
	switch {
	case mode&os.ModeSymlink != 0:
		return Symlink
	case mode&os.ModeDir != 0:
		return Dir
	case mode&os.ModeType == 0:
		return Regular
	default:
		return Other
	}
}

// Entry is one filesystem object encountered during a walk.
//
// Path, Name and Depth are fixed when the entry is produced. FileType and
// Info may need a metadata query; the result, failure included, is cached on
// first use so repeated calls never hit the filesystem twice.
type Entry struct {
	path  string
	depth int

	// follow is set when the entry's metadata is resolved through a symlink.
	follow        bool
	pathIsSymlink bool

	typ      FileType
	typKnown bool

	once    sync.Once
	info    fs.FileInfo
	infoErr error
}

func newEntry(path string, depth int) *Entry {
	return &Entry{path: path, depth: depth}
}

// setMode records the type reported by the directory listing.
func (e *Entry) setMode(mode os.FileMode) {
	e.typ = fileTypeFromMode(mode)
	e.typKnown = true
	e.pathIsSymlink = e.typ == Symlink
}

// setInfo records metadata already fetched without following links.
func (e *Entry) setInfo(info fs.FileInfo) {
	e.setMode(info.Mode())
	e.once.Do(func() { e.info = info })
}

// setFollowed records that e is a symlink whose target was resolved to info.
func (e *Entry) setFollowed(info fs.FileInfo) {
	e.follow = true
	e.pathIsSymlink = true
	e.typ = fileTypeFromMode(info.Mode())
	e.typKnown = true
	e.once.Do(func() { e.info = info })
}

// Path returns the location of the entry: the walk root joined with every
// name taken to reach it.
func (e *Entry) Path() string { return e.path }

// Name returns the final element of Path.
func (e *Entry) Name() string { return filepath.Base(e.path) }

// Depth returns the number of directories descended from the root to reach
// the entry. The root has depth 0.
func (e *Entry) Depth() int { return e.depth }

// PathIsSymlink reports whether Path names a symbolic link, whether or not
// it was followed.
func (e *Entry) PathIsSymlink() bool { return e.pathIsSymlink }

// FileType returns the type of the entry. When links are followed, a
// followed link reports the type of its target.
func (e *Entry) FileType() (FileType, error) {
	if e.typKnown {
		return e.typ, nil
	}
	info, err := e.Info()
	if err != nil {
		return Other, err
	}
	return fileTypeFromMode(info.Mode()), nil
}

// IsDir is shorthand for a successful FileType that reports Dir.
func (e *Entry) IsDir() bool {
	t, err := e.FileType()
	return err == nil && t == Dir
}

// Info returns the metadata for the entry, following the link when the entry
// was reached through a followed symlink.
func (e *Entry) Info() (fs.FileInfo, error) {
	e.once.Do(func() {
		if e.follow {
			e.info, e.infoErr = os.Stat(e.path)
		} else {
			e.info, e.infoErr = os.Lstat(e.path)
		}
	})
	return e.info, e.infoErr
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s (depth %d)", e.path, e.depth)
}
