package walkdir

import "time"

// Stats summarizes a walk. Feed it every item with Observe. Call Start
// before pulling the first item to include the root lookup in ElapsedTime.
type Stats struct {
	Entries     int64         // Entries yielded
	Dirs        int64         // Directories, including followed links to them
	Files       int64         // Regular files
	Symlinks    int64         // Links that were not followed
	Other       int64         // Devices, sockets, pipes and unresolved types
	IOErrors    int64         // Io errors
	Loops       int64         // Loop errors
	MaxDepth    int           // Deepest depth seen
	ElapsedTime time.Duration // Time since Start, or since the first observation

	start time.Time
}

// Start marks the beginning of the walk.
func (s *Stats) Start() {
	s.start = time.Now()
}

// Observe records one item of a walk: an entry or an error.
func (s *Stats) Observe(ent *Entry, err error) {
	now := time.Now()
	if s.start.IsZero() {
		s.start = now
	}
	s.ElapsedTime = now.Sub(s.start)

	if err != nil {
		if werr, ok := AsError(err); ok && werr.IsLoop() {
			s.Loops++
		} else {
			s.IOErrors++
		}
		return
	}

	s.Entries++
	if ent.depth > s.MaxDepth {
		s.MaxDepth = ent.depth
	}
	t, terr := ent.FileType()
	switch {
	case terr != nil:
		s.Other++
	case t == Dir:
		s.Dirs++
	case t == Regular:
		s.Files++
	case t == Symlink:
		s.Symlinks++
	default:
		s.Other++
	}
}

// Errors returns the total number of errors observed.
func (s *Stats) Errors() int64 {
	return s.IOErrors + s.Loops
}
