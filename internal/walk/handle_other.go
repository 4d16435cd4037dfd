//go:build !unix

package walkdir

import "os"

// handle identifies a directory independently of the path naming it. There
// is no portable inode outside unix, so the stat result is kept and compared
// with os.SameFile.
type handle struct {
	info os.FileInfo
}

func handleOf(path string) (handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return handle{}, err
	}
	return handle{info: info}, nil
}

func (h handle) same(o handle) bool {
	if h.info == nil || o.info == nil {
		return false
	}
	return os.SameFile(h.info, o.info)
}
