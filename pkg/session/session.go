// Package session owns the process-wide mutable state a single analysis
// pass needs — the event/zone id counters and the thread registry — and
// the reset sequence a slicer runs between passes.
package session

import (
	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/smtenc"
	"github.com/concur-se/secore/pkg/thread"
	"github.com/concur-se/secore/pkg/zone"
)

// Config is the embedder-supplied configuration for one run: which
// numeric theory to encode with, how many times to slice, and whether to
// emit debug output while recording.
type Config struct {
	Theory     smtenc.Theory
	ClockWidth int
	SliceFreq  int // 0 disables branch enumeration entirely
	Debug      bool
}

// Session is the single point of contact an embedder's instrumented
// program holds onto for one analysis run: it owns the active
// thread.Registry and knows how to reset it between slicer passes.
type Session struct {
	cfg Config
	reg *thread.Registry
}

// New starts a fresh session with a brand new thread registry.
func New(cfg Config) *Session {
	event.ResetIDs()
	zone.Reset()
	return &Session{cfg: cfg, reg: thread.New()}
}

// Registry returns the active thread registry every Var/Mutex/Recorder
// call threads through.
func (s *Session) Registry() *thread.Registry { return s.reg }

// Config returns the session's configuration.
func (s *Session) Config() Config { return s.cfg }

// Restart discards the current registry and starts a new one with
// identifiers reset to zero, ready for the next slicer pass to re-run the
// same instrumented program from scratch.
func (s *Session) Restart() {
	s.reg = thread.Reset()
}

// Encode runs the SMT encoder over the session's current registry and
// asserts the result into solver.
func (s *Session) Encode(solver smtenc.Solver) (*smtenc.Result, error) {
	return smtenc.Encode(s.reg, solver, smtenc.Config{Theory: s.cfg.Theory, ClockWidth: s.cfg.ClockWidth})
}
