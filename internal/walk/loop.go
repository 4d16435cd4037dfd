package walkdir

// checkLoop compares the identity of the directory behind child against
// every open ancestor frame, nearest first. It reports a Loop error naming
// the re-entered ancestor, or an Io error when child's identity cannot be
// resolved; in that case no comparison takes place.
//
// Frames only carry a handle when links are followed, which is the only
// configuration in which a loop can be entered.
func checkLoop(stack []*frame, child string, depth int) (handle, *Error) {
	h, err := handleOf(child)
	if err != nil {
		return handle{}, newIOError(child, depth, err)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].hasHandle && stack[i].handle.same(h) {
			return handle{}, newLoopError(stack[i].path, child, depth)
		}
	}
	return h, nil
}
