package walkdir

// EventKind tags an Event.
type EventKind int

const (
	EventEnter EventKind = iota // A directory; its children follow
	EventLeaf                   // Anything that is not a directory
	EventExit                   // The most recently entered directory is done
)

func (k EventKind) String() string {
	switch k {
	case EventEnter:
		return "enter"
	case EventExit:
		return "exit"
	default:
		return "leaf"
	}
}

// Event is one step of the tree-shaped view of a walk. Entry is the
// directory being left for EventExit.
type Event struct {
	Kind  EventKind
	Entry *Entry
}

// Events rebuilds enter/exit structure from a walk. The walk itself only
// reports depths: a directory at depth d is finished as soon as an item at
// depth <= d arrives, or when the walk ends.
//
// Directories that were not descended into (max depth, SkipDir) still get an
// Enter immediately followed by an Exit. Errors are passed through and do not
// close directories on their own.
type Events struct {
	it   *Iterator
	open []*Entry

	// held is an item pulled from it that is waiting behind pending exits.
	held     *Entry
	heldErr  error
	heldDesc bool
	hasHeld  bool
	drained  bool

	ev  Event
	err error
}

// NewEvents wraps it. Close the iterator, or drain Events, to release it.
func NewEvents(it *Iterator) *Events {
	return &Events{it: it}
}

// Next advances to the next event or error.
func (e *Events) Next() bool {
	e.ev, e.err = Event{}, nil

	if !e.hasHeld && !e.drained {
		if e.it.Next() {
			e.held, e.heldErr, e.hasHeld = e.it.Entry(), e.it.Err(), true
			e.heldDesc = e.it.pushed != nil
		} else {
			e.drained = true
		}
	}

	if e.hasHeld && e.heldErr != nil {
		e.err, e.hasHeld = e.heldErr, false
		return true
	}

	if n := len(e.open); n > 0 {
		top := e.open[n-1]
		if e.drained || top.depth >= e.held.depth {
			e.open = e.open[:n-1]
			e.ev = Event{Kind: EventExit, Entry: top}
			return true
		}
	}
	if e.drained {
		return false
	}

	ent := e.held
	e.held, e.hasHeld = nil, false
	// A root symlink is descended into without reporting Dir.
	if e.heldDesc || ent.IsDir() {
		e.open = append(e.open, ent)
		e.ev = Event{Kind: EventEnter, Entry: ent}
	} else {
		e.ev = Event{Kind: EventLeaf, Entry: ent}
	}
	return true
}

// Event returns the event produced by the last call to Next.
func (e *Events) Event() Event { return e.ev }

// Err returns the walk error produced by the last call to Next.
func (e *Events) Err() error { return e.err }

// Close closes the underlying iterator.
func (e *Events) Close() error { return e.it.Close() }
