// Package slicer enumerates the 2^k branch-decision valuations of a
// program location's conditional points, one pass at a time, by treating
// the branch-decision table as a big-endian binary counter.
package slicer

import (
	"github.com/concur-se/secore/pkg/instr"
)

// Location identifies a syntactic branch point in the instrumented
// program, stable across passes (e.g. a line number or call-site id
// assigned by the embedder). Two distinct branch points must not share a
// Location: the decision table is keyed on it alone, so they would be
// enumerated as a single branch, and the Slicer does not detect this.
type Location uint32

// MaxSliceFreq bounds the number of passes a single Slicer will run,
// mirroring the original's defensive upper limit on enumeration depth.
const MaxSliceFreq = 1 << 10

// branch records one location's current decision and whether it has
// already been flipped during the current NextSlice call.
type branch struct {
	execute bool
	flip    bool
}

// order remembers location insertion order so NextSlice's "deepest first"
// walk is well defined: deepest means most-recently-visited along the
// current pass, i.e. last inserted.
type Slicer struct {
	freq    int
	table   map[Location]*branch
	order   []Location
	sliceN  int
	opened  []Location // currently open branch stack, for BeginThen/BeginElse/EndBranch pairing
}

// New returns a Slicer that will enumerate at most freq passes. freq == 0
// disables enumeration entirely: BeginThenBranch always returns the
// branch's first-seen decision and NextSlice always returns false.
func New(freq int) *Slicer {
	if freq < 0 || freq > MaxSliceFreq {
		freq = MaxSliceFreq
	}
	return &Slicer{freq: freq, table: map[Location]*branch{}, sliceN: 1}
}

// SliceCount returns how many passes NextSlice has produced so far,
// starting at 1 for the first (all-false) pass.
func (s *Slicer) SliceCount() int { return s.sliceN }

// BeginThenBranch records (on first visit) or looks up the decision for
// loc and returns whether the then-branch should execute this pass.
func (s *Slicer) BeginThenBranch(loc Location, cond instr.ReadInstr[bool]) bool {
	b, ok := s.table[loc]
	if !ok {
		b = &branch{execute: false}
		s.table[loc] = b
		s.order = append(s.order, loc)
	}
	s.opened = append(s.opened, loc)
	return b.execute
}

// BeginElseBranch returns the negation of the same location's decision.
func (s *Slicer) BeginElseBranch(loc Location) bool {
	b := s.table[loc]
	return !b.execute
}

// EndBranch closes the branch opened by the matching BeginThenBranch.
func (s *Slicer) EndBranch(loc Location) {
	if len(s.opened) == 0 || s.opened[len(s.opened)-1] != loc {
		panic("slicer: EndBranch does not match the innermost open branch")
	}
	s.opened = s.opened[:len(s.opened)-1]
}

// NextSlice advances to the next branch-decision valuation by flipping the
// deepest (most recently visited) entry that has not yet been flipped
// this call, clearing the flipped flag on everything below it — exactly
// the big-endian increment of a binary counter whose digits are ordered
// by recency of first visit. It reports false once every valuation this
// Slicer's freq allows has been produced, or once slice_freq is 0.
func (s *Slicer) NextSlice() bool {
	if s.freq == 0 {
		return false
	}
	if s.sliceN >= s.freq {
		return false
	}
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.table[s.order[i]]
		if b.flip {
			b.flip = false
			continue
		}
		b.flip = true
		b.execute = !b.execute
		s.sliceN++
		return true
	}
	return false
}
