package collab

import (
	"sync"
)

// Operation names a network interaction tracked per session.
type Operation string

const (
	OpUpload  Operation = "upload"
	OpCleanup Operation = "cleanup"
	OpRender  Operation = "render"
)

// OpState is the state of one operation.
type OpState int

const (
	OpIdle OpState = iota
	OpInFlight
	OpSucceeded
	OpFailed
	OpTimedOut
)

func (s OpState) String() string {
	switch s {
	case OpIdle:
		return "idle"
	case OpInFlight:
		return "in-flight"
	case OpSucceeded:
		return "succeeded"
	case OpFailed:
		return "failed"
	case OpTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Ticket identifies one request. It goes stale when the session generation
// moves on or a newer request of the same operation starts.
type Ticket struct {
	Op         Operation
	Generation uint64
	Seq        uint64
}

// Tracker hands out tickets and records operation states.
type Tracker struct {
	mu         sync.Mutex
	generation uint64
	seq        map[Operation]uint64
	states     map[Operation]OpState
}

// NewTracker creates a Tracker at generation 0.
func NewTracker() *Tracker {
	return &Tracker{
		seq:    make(map[Operation]uint64),
		states: make(map[Operation]OpState),
	}
}

// Begin starts a request for op, superseding any earlier one.
func (t *Tracker) Begin(op Operation) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq[op]++
	t.states[op] = OpInFlight
	return Ticket{Op: op, Generation: t.generation, Seq: t.seq[op]}
}

// Current reports whether tk is still the latest request of its operation.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current(tk)
}

func (t *Tracker) current(tk Ticket) bool {
	return tk.Generation == t.generation && tk.Seq == t.seq[tk.Op]
}

// Finish records the outcome of tk. It returns false, recording nothing,
// when the ticket is stale.
func (t *Tracker) Finish(tk Ticket, state OpState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.current(tk) {
		return false
	}
	t.states[tk.Op] = state
	return true
}

// Invalidate moves to a new generation; every outstanding ticket goes stale
// and all operations return to idle.
func (t *Tracker) Invalidate() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	clear(t.states)
	return t.generation
}

// State returns the recorded state of op.
func (t *Tracker) State(op Operation) OpState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[op]
}

// Generation returns the current generation.
func (t *Tracker) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}
