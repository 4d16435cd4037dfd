package walkdir

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIOError(t *testing.T) {
	pe := &fs.PathError{Op: "open", Path: "/x", Err: syscall.ENOENT}
	err := newIOError("/x", 2, pe)

	assert.Equal(t, KindIO, err.Kind())
	assert.False(t, err.IsLoop())
	assert.Equal(t, "/x", err.Path())
	assert.Equal(t, 2, err.Depth())
	assert.Empty(t, err.LoopAncestor())
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrLoop)
	assert.Same(t, pe, err.IOError())
	assert.Equal(t, "walkdir: /x: open /x: no such file or directory", err.Error())
}

func TestIOErrorWithoutPathError(t *testing.T) {
	err := newIOError("/x", 0, syscall.EACCES)

	got := err.IOError()
	assert.Equal(t, "/x", got.Path)
	assert.ErrorIs(t, got, fs.ErrPermission)
}

func TestLoopError(t *testing.T) {
	err := newLoopError("/a", "/a/b/link", 2)

	assert.Equal(t, KindLoop, err.Kind())
	assert.True(t, err.IsLoop())
	assert.Equal(t, "/a/b/link", err.Path())
	assert.Equal(t, "/a", err.LoopAncestor())
	assert.Equal(t, 2, err.Depth())
	assert.ErrorIs(t, err, ErrLoop)
	assert.Contains(t, err.Error(), "re-enters ancestor /a")

	pe := err.IOError()
	assert.Equal(t, "/a/b/link", pe.Path)
	assert.ErrorIs(t, pe, ErrLoop)
}

func TestAsError(t *testing.T) {
	wrapped := fmt.Errorf("listing: %w", newLoopError("/a", "/a/l", 1))

	werr, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.True(t, werr.IsLoop())

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)

	assert.Equal(t, "io", KindIO.String())
	assert.Equal(t, "loop", KindLoop.String())
}
