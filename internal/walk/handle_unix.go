//go:build unix

package walkdir

import (
	"os"

	"golang.org/x/sys/unix"
)

// handle identifies a directory independently of the path naming it.
type handle struct {
	dev uint64
	ino uint64
}

// handleOf resolves path, following symlinks, to its device and inode.
func handleOf(path string) (handle, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return handle{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return handle{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

func (h handle) same(o handle) bool { return h == o }
