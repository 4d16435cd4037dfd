// Package walk lazily walks directory trees.
//
// A walk is configured with New and consumed as an iterator. Entries come out
// one at a time in depth-first pre-order, and symbolic link loops are reported
// as errors instead of being followed forever:
//
//	for ent, err := range walk.New("/path/to/root").FollowLinks(true).All() {
//		if err != nil {
//			if werr, ok := walk.AsError(err); ok && werr.IsLoop() {
//				continue // already pruned
//			}
//			return err
//		}
//		fmt.Println(ent.Depth(), ent.Path())
//	}
//
// The explicit form lets callers prune directories:
//
//	it := walk.New(root).SortByName().Iter()
//	defer it.Close()
//	for it.Next() {
//		if it.Err() == nil && it.Entry().Name() == "node_modules" {
//			it.SkipDir()
//		}
//	}
//
// Find builds on the walk to search by name, path, type, size and age:
//
//	opts := walk.FindOptions{NamePattern: "*.go", Types: []walk.FileType{walk.Regular}}
//	err := walk.FindWithFormat(ctx, "/path/to/search", opts, "{depth} {}")
//
// Watch registers every directory reached by a walk with fsnotify and reports
// changes until the context ends:
//
//	opts := walk.WatchOptions{Recursive: true, Events: []walk.WatchEvent{walk.EventCreate}}
//	err := walk.WatchWithFormat(ctx, "/path/to/watch", opts, "{event}: {base}")
package walk
