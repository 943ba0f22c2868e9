// Package slice holds, per thread, the flattened list of events recorded
// so far, with save/reset snapshot semantics so a slicer can restore the
// state shared by every branch enumeration pass.
package slice

import (
	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/instr"
)

// Slice is the set of per-thread event lists built up during recording.
// Thread-local (bottom-zone) events are never appended: they cannot
// possibly race with anything, so the SMT encoder has no use for them.
type Slice struct {
	events map[event.ThreadID][]event.Any
	saved  map[event.ThreadID][]event.Any
}

// New returns an empty slice.
func New() *Slice {
	return &Slice{events: map[event.ThreadID][]event.Any{}}
}

// Events returns the thread's recorded events, in append order.
func (s *Slice) Events(thread event.ThreadID) []event.Any {
	return s.events[thread]
}

// Append records ev for thread, skipping it if its zone is bottom
// (thread-local).
func (s *Slice) Append(thread event.ThreadID, ev event.Any) {
	if ev.Zone().IsBottom() {
		return
	}
	s.events[thread] = append(s.events[thread], ev)
}

// AppendReads filters in for the ReadEvents it depends on and appends
// each of them (again skipping bottom-zone ones) to thread's list, in the
// order Filter returns them. Called before appending a write event whose
// value expression reads in, so the reads it depends on precede it.
func AppendReads[T any](s *Slice, thread event.ThreadID, in instr.ReadInstr[T]) {
	for _, ev := range instr.Filter[T](in) {
		s.Append(thread, ev)
	}
}

// Save snapshots the current contents so a later Reset can restore them.
// Used by the slicer between enumeration passes that must all start from
// the same pre-loop state.
func (s *Slice) Save() {
	saved := make(map[event.ThreadID][]event.Any, len(s.events))
	for t, evs := range s.events {
		cp := make([]event.Any, len(evs))
		copy(cp, evs)
		saved[t] = cp
	}
	s.saved = saved
}

// Reset restores the contents captured by the last Save.
func (s *Slice) Reset() {
	if s.saved == nil {
		s.events = map[event.ThreadID][]event.Any{}
		return
	}
	restored := make(map[event.ThreadID][]event.Any, len(s.saved))
	for t, evs := range s.saved {
		cp := make([]event.Any, len(evs))
		copy(cp, evs)
		restored[t] = cp
	}
	s.events = restored
}
