package walkdir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	skipWithoutSymlinks(t)
	root := createIn(t, t.TempDir(), dir("root",
		dir("a", file("x"), link("up", "..")),
		file("y"),
		link("dangling", "nowhere"),
	))

	var plain Stats
	for ent, err := range New(root).All() {
		plain.Observe(ent, err)
	}
	assert.Equal(t, int64(6), plain.Entries)
	assert.Equal(t, int64(2), plain.Dirs)
	assert.Equal(t, int64(2), plain.Files)
	assert.Equal(t, int64(2), plain.Symlinks)
	assert.Equal(t, int64(0), plain.Errors())
	assert.Equal(t, 2, plain.MaxDepth)

	var followed Stats
	for ent, err := range New(root).FollowLinks(true).All() {
		followed.Observe(ent, err)
	}
	// up is a loop, dangling cannot be resolved.
	assert.Equal(t, int64(1), followed.Loops)
	assert.Equal(t, int64(1), followed.IOErrors)
	assert.Equal(t, int64(2), followed.Errors())
	assert.Equal(t, int64(4), followed.Entries)
	assert.Equal(t, int64(0), followed.Symlinks)
}

func TestStatsElapsedFromStart(t *testing.T) {
	root := createIn(t, t.TempDir(), file("f"))

	var s Stats
	s.Start()
	time.Sleep(20 * time.Millisecond)
	for ent, err := range New(root).All() {
		s.Observe(ent, err)
	}
	assert.GreaterOrEqual(t, s.ElapsedTime, 20*time.Millisecond)

	var unstarted Stats
	for ent, err := range New(root).All() {
		unstarted.Observe(ent, err)
	}
	assert.Equal(t, time.Duration(0), unstarted.ElapsedTime, "a single observation starts the clock")
}
