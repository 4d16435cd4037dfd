package walkdir

import (
	"errors"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/karrick/godirwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScanner replays a fixed listing. Names without a dirent fail their
// type lookup, as a vanished entry does on a filesystem without d_type.
type fakeScanner struct {
	names   []string
	dirents map[string]*godirwalk.Dirent
	err     error
	pos     int
	closed  bool
}

func (s *fakeScanner) Scan() bool {
	if s.pos >= len(s.names) {
		return false
	}
	s.pos++
	return true
}

func (s *fakeScanner) Name() string { return s.names[s.pos-1] }

func (s *fakeScanner) Dirent() (*godirwalk.Dirent, error) {
	if de, ok := s.dirents[s.Name()]; ok {
		return de, nil
	}
	return nil, syscall.ENOENT
}

func (s *fakeScanner) Err() error { return s.err }

func (s *fakeScanner) Close() error {
	s.closed = true
	return s.err
}

func cursorNames(t *testing.T, c cursor) []string {
	t.Helper()
	var names []string
	for {
		ent, err := c.next()
		require.NoError(t, err)
		if ent == nil {
			return names
		}
		names = append(names, ent.Name())
	}
}

func TestScannedEntryUntyped(t *testing.T) {
	root := createIn(t, t.TempDir(), dir("root", file("gone"), dir("sub")))
	de, err := godirwalk.NewDirent(filepath.Join(root, "sub"))
	require.NoError(t, err)
	s := &fakeScanner{
		names:   []string{"gone", "sub"},
		dirents: map[string]*godirwalk.Dirent{"sub": de},
	}

	entries, err := drain(s, root, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	gone := entries[0]
	assert.False(t, gone.typKnown)
	assert.False(t, gone.PathIsSymlink())
	typ, err := gone.FileType()
	require.NoError(t, err, "type is retried from the filesystem")
	assert.Equal(t, Regular, typ)

	sub := entries[1]
	assert.True(t, sub.typKnown)
	assert.Equal(t, Dir, sub.typ)
	assert.Equal(t, 1, sub.Depth())
}

func TestSliceCursorReportsReadErrorLast(t *testing.T) {
	readErr := errors.New("read failed")
	s := &fakeScanner{names: []string{"a", "b"}, err: readErr}

	entries, err := drain(s, "/x", 1)
	c := &sliceCursor{entries: entries, err: err}

	for _, want := range []string{"a", "b"} {
		ent, err := c.next()
		require.NoError(t, err)
		assert.Equal(t, want, ent.Name())
	}
	ent, err := c.next()
	assert.Nil(t, ent)
	assert.ErrorIs(t, err, readErr)

	ent, err = c.next()
	assert.Nil(t, ent)
	assert.NoError(t, err, "the read error is reported once")
}

func TestSortedCursor(t *testing.T) {
	root := createIn(t, t.TempDir(), dir("root", file("c"), dir("a"), file("b")))

	c, err := newSortedCursor(root, 1, nil, func(a, b *Entry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	require.NoError(t, err)
	defer c.close()
	assert.Equal(t, []string{"a", "b", "c"}, cursorNames(t, c))
}

func TestSortedCursorMissingDirectory(t *testing.T) {
	_, err := newSortedCursor(filepath.Join(t.TempDir(), "missing"), 1, nil, func(a, b *Entry) int { return 0 })
	assert.Error(t, err)
}

func TestScanCursorSpill(t *testing.T) {
	root := createIn(t, t.TempDir(), dir("root", file("a"), file("b"), file("c")))

	c, err := newScanCursor(root, 1)
	require.NoError(t, err)
	first, err := c.next()
	require.NoError(t, err)
	require.NotNil(t, first)

	spilled := c.spill()
	rest := cursorNames(t, spilled)
	assert.Len(t, rest, 2)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, append(rest, first.Name()))
	assert.NoError(t, c.close())
}
