package walkdir

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// tree describes a filesystem hierarchy that can be created on disk and
// rebuilt from a walk.
type tree struct {
	Name     string
	Type     FileType
	Target   string // symlinks only
	Children []tree // directories only
}

func dir(name string, children ...tree) tree {
	return tree{Name: name, Type: Dir, Children: children}
}

func file(name string) tree {
	return tree{Name: name, Type: Regular}
}

func link(name, target string) tree {
	return tree{Name: name, Type: Symlink, Target: target}
}

// createIn materializes tr below parent and returns its path.
func createIn(t testing.TB, parent string, tr tree) string {
	t.Helper()
	p := filepath.Join(parent, tr.Name)
	switch tr.Type {
	case Dir:
		require.NoError(t, os.Mkdir(p, 0o755))
		for _, c := range tr.Children {
			createIn(t, p, c)
		}
	case Regular:
		require.NoError(t, os.WriteFile(p, []byte(tr.Name), 0o644))
	case Symlink:
		require.NoError(t, os.Symlink(tr.Target, p))
	default:
		t.Fatalf("cannot create %s of type %s", p, tr.Type)
	}
	return p
}

// canonical sorts every child list by name.
func (tr tree) canonical() tree {
	out := tr
	out.Children = nil
	for _, c := range tr.Children {
		out.Children = append(out.Children, c.canonical())
	}
	slices.SortFunc(out.Children, func(a, b tree) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// fromWalk rebuilds the tree seen by w using its enter/exit events. Walk
// errors are returned alongside.
func fromWalk(t testing.TB, w *WalkDir) (tree, []*Error) {
	t.Helper()
	ev := NewEvents(w.Iter())
	defer ev.Close()

	var (
		stack []tree
		root  *tree
		errs  []*Error
	)
	attach := func(n tree) {
		if len(stack) == 0 {
			require.Nil(t, root, "second root %s", n.Name)
			root = &n
			return
		}
		top := &stack[len(stack)-1]
		top.Children = append(top.Children, n)
	}

	for ev.Next() {
		if err := ev.Err(); err != nil {
			werr, ok := AsError(err)
			require.True(t, ok, "unexpected error type %T", err)
			errs = append(errs, werr)
			continue
		}
		e := ev.Event()
		switch e.Kind {
		case EventEnter:
			stack = append(stack, tree{Name: e.Entry.Name(), Type: Dir})
		case EventExit:
			require.NotEmpty(t, stack)
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			attach(n)
		case EventLeaf:
			typ, err := e.Entry.FileType()
			require.NoError(t, err)
			n := tree{Name: e.Entry.Name(), Type: typ}
			if typ == Symlink {
				n.Target, err = os.Readlink(e.Entry.Path())
				require.NoError(t, err)
			}
			attach(n)
		}
	}
	require.Empty(t, stack, "unbalanced events")
	require.NotNil(t, root, "walk produced no root")
	return root.canonical(), errs
}

// randomTree builds a deterministic tree without links.
func randomTree(r *rand.Rand, name string, depth int) tree {
	n := dir(name)
	if depth == 0 {
		return n
	}
	for i := range r.Intn(6) {
		if r.Intn(3) == 0 {
			n.Children = append(n.Children, randomTree(r, fmt.Sprintf("d%d", i), depth-1))
		} else {
			n.Children = append(n.Children, file(fmt.Sprintf("f%d", i)))
		}
	}
	return n
}

// paths lists the paths yielded by w, failing on any error.
func paths(t testing.TB, w *WalkDir) []string {
	t.Helper()
	var out []string
	for ent, err := range w.All() {
		require.NoError(t, err)
		out = append(out, ent.Path())
	}
	return out
}

// rel strips root from every path, using "/" separators.
func rel(t testing.TB, root string, ps []string) []string {
	t.Helper()
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}
