// Package thread is the process-wide registry of recording threads: it
// tracks the currently active thread, each thread's path-condition stack,
// and the proof obligations accumulated by Error/Expect/InternalError.
package thread

import (
	"github.com/concur-se/secore/pkg/block"
	"github.com/concur-se/secore/pkg/catalogue"
	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/instr"
	"github.com/concur-se/secore/pkg/slice"
	"github.com/concur-se/secore/pkg/zone"
)

// state is the per-thread recording context: its block recorder and its
// path-condition stack, with a cached conjunction so PathCondition is O(1)
// except when the stack actually changes.
type state struct {
	id             event.ThreadID
	recorder       *block.Recorder
	conditions     []instr.ReadInstr[bool]
	cachedConjunct []instr.ReadInstr[bool] // cachedConjunct[i] = AND(conditions[0..i])
}

func (s *state) pathCondition() instr.ReadInstr[bool] {
	if len(s.cachedConjunct) == 0 {
		return nil
	}
	return s.cachedConjunct[len(s.cachedConjunct)-1]
}

func (s *state) pushCondition(cond instr.ReadInstr[bool]) {
	s.conditions = append(s.conditions, cond)
	prev := s.pathCondition()
	var next instr.ReadInstr[bool]
	if prev == nil {
		next = cond
	} else {
		next = instr.NewNary(catalogue.LAND, []instr.ReadInstr[bool]{prev, cond})
	}
	s.cachedConjunct = append(s.cachedConjunct, next)
}

func (s *state) popCondition() {
	s.conditions = s.conditions[:len(s.conditions)-1]
	s.cachedConjunct = s.cachedConjunct[:len(s.cachedConjunct)-1]
}

// Registry is the singleton every instrumented program thread records
// into. Embedders construct exactly one per analysis pass (see
// pkg/session, which owns resetting it alongside event.ResetIDs and
// zone.Reset between slicer passes).
type Registry struct {
	slice        *slice.Slice
	stack        []*state
	completed    []*state
	nextThreadID       event.ThreadID
	errorExprs         []instr.ReadInstr[bool]
	expectExprs        []instr.ReadInstr[bool]
	internalErrorExprs []instr.ReadInstr[bool]
	mainInit           []block.EventHandle
}

// New starts a fresh registry with a single main thread (id 0) and an
// empty slice.
func New() *Registry {
	r := &Registry{slice: slice.New()}
	main := &state{id: 0, recorder: block.NewRecorder()}
	r.stack = []*state{main}
	r.nextThreadID = 1
	return r
}

// Reset restarts id/zone allocation and returns a fresh registry, for
// starting the next slicer pass from a clean slate.
func Reset() *Registry {
	event.ResetIDs()
	zone.Reset()
	return New()
}

func (r *Registry) current() *state { return r.stack[len(r.stack)-1] }

// CurrentThread returns the id of the thread currently recording.
func (r *Registry) CurrentThread() event.ThreadID { return r.current().id }

// Slice returns the shared per-thread event slice every thread appends
// into.
func (r *Registry) Slice() *slice.Slice { return r.slice }

// Recorder returns the block recorder for the currently active thread.
func (r *Registry) Recorder() *block.Recorder { return r.current().recorder }

// PathCondition returns the conjunction of every guard currently open on
// the active thread, or nil if none are open.
func (r *Registry) PathCondition() instr.ReadInstr[bool] {
	return r.current().pathCondition()
}

// BeginThen opens a conditional branch: it pushes cond onto the active
// thread's path-condition stack and descends the block recorder.
func (r *Registry) BeginThen(cond instr.ReadInstr[bool]) {
	r.current().pushCondition(cond)
	r.current().recorder.BeginThen(cond)
}

// BeginElse closes the then-branch and opens the else-branch under the
// negated condition. The recorder, not this method, builds the negation, so
// the path-condition stack and the block graph share the identical
// negated-condition node.
func (r *Registry) BeginElse() {
	s := r.current()
	s.popCondition()
	s.recorder.BeginElse()
	s.pushCondition(s.recorder.Current().Condition)
}

// EndBranch closes the currently open then/else pair.
func (r *Registry) EndBranch() {
	s := r.current()
	s.popCondition()
	s.recorder.EndBranch()
}

// UnwindLoop is block.Recorder.UnwindLoop routed through BeginThen/EndBranch
// instead of the bare recorder, so that reads and writes inside body are
// guarded by the loop's path condition like any other conditional region.
func (r *Registry) UnwindLoop(policy block.UnwindPolicy, next func() instr.ReadInstr[bool], body func()) {
	for i := 0; i < policy.Bound; i++ {
		cond := next()
		r.BeginThen(cond)
		body()
		r.EndBranch()
	}
}

// RecordRead appends a read event of typ in zone z, guarded by the active
// thread's path condition, to the active thread's slice and to its block
// recorder's current block body (so the SMT encoder sees it, per every
// other recorded event), and returns an instr.ReadInstr wrapping it for use
// in expressions.
func RecordRead[T any](r *Registry, z zone.Zone, typ event.TypeInfo) instr.ReadInstr[T] {
	s := r.current()
	pc := r.PathCondition()
	ev := event.NewReadEvent(s.id, z, typ, pathConditionSource(r))
	r.slice.Append(s.id, ev)
	s.recorder.Append(ev)
	return instr.NewBasic[T](ev, pc)
}

func pathConditionSource(r *Registry) event.ReadSource {
	pc := r.PathCondition()
	if pc == nil {
		return nil
	}
	return pc
}

// RecordDirectWrite appends a direct write of value (under typ, in zone z)
// to the active thread, after first appending the read events value
// transitively depends on.
func RecordDirectWrite[T any](r *Registry, z zone.Zone, typ event.TypeInfo, value instr.ReadInstr[T]) *event.DirectWriteEvent {
	s := r.current()
	slice.AppendReads[T](r.slice, s.id, value)
	ev := event.NewDirectWriteEvent(s.id, z, typ, pathConditionSource(r), value)
	r.slice.Append(s.id, ev)
	s.recorder.Append(ev)
	return ev
}

// RecordIndirectWrite appends an indexed array write.
func RecordIndirectWrite[T, I any](r *Registry, z zone.Zone, typ event.TypeInfo, index instr.ReadInstr[I], value instr.ReadInstr[T]) *event.IndirectWriteEvent {
	s := r.current()
	slice.AppendReads[I](r.slice, s.id, index)
	slice.AppendReads[T](r.slice, s.id, value)
	ev := event.NewIndirectWriteEvent(s.id, z, typ, pathConditionSource(r), index, value)
	r.slice.Append(s.id, ev)
	s.recorder.Append(ev)
	return ev
}

// BeginThread spawns a new thread: it places a SendEvent guarded by the
// parent's path condition in the parent's recording, then switches the
// active thread to a freshly created child whose ReceiveEvent reads from
// the send's zone, guarded by the child's (initially empty) path
// condition.
func (r *Registry) BeginThread() event.ThreadID {
	parent := r.current()
	send := event.NewSendEvent(parent.id, pathConditionSource(r))
	r.slice.Append(parent.id, send)
	parent.recorder.Append(send)

	childID := r.nextThreadID
	r.nextThreadID++
	child := &state{id: childID, recorder: block.NewRecorder()}
	r.stack = append(r.stack, child)

	recv := event.NewReceiveEvent(childID, send.SendZone(), nil)
	r.slice.Append(childID, recv)
	child.recorder.Append(recv)
	return childID
}

// EndThread places a final SendEvent marking the active (child) thread's
// completion and pops it off the stack, returning to the parent. The
// child's recorder is retained (see AllRecorders) so the encoder can still
// walk its block graph after it stops being the active thread.
func (r *Registry) EndThread() *event.SendEvent {
	s := r.current()
	done := event.NewSendEvent(s.id, pathConditionSource(r))
	r.slice.Append(s.id, done)
	s.recorder.Append(done)
	r.stack = r.stack[:len(r.stack)-1]
	r.completed = append(r.completed, s)
	return done
}

// AllRecorders returns every thread's block recorder: the main thread
// (always active, at index 0) followed by every child thread that has
// finished via EndThread, in the order they finished.
func (r *Registry) AllRecorders() []*block.Recorder {
	out := make([]*block.Recorder, 0, len(r.completed)+1)
	out = append(out, r.stack[0].recorder)
	for _, s := range r.completed {
		out = append(out, s.recorder)
	}
	return out
}

// Join places a ReceiveEvent in the (now active, parent) thread on the
// zone of the child's completion SendEvent.
func (r *Registry) Join(done *event.SendEvent) {
	s := r.current()
	recv := event.NewReceiveEvent(s.id, done.SendZone(), pathConditionSource(r))
	r.slice.Append(s.id, recv)
	s.recorder.Append(recv)
}

// Error records cond, conjoined with the active thread's path condition,
// as one disjunct of the overall proof obligation: the program is unsafe
// iff at least one recorded Error condition is satisfiable.
func (r *Registry) Error(cond instr.ReadInstr[bool]) {
	pc := r.PathCondition()
	if pc != nil {
		cond = instr.NewBinary[bool, bool, bool](catalogue.LAND, pc, cond)
	}
	r.errorExprs = append(r.errorExprs, cond)
}

// Expect asserts, unconditionally (not as a disjunct of an eventual
// failure, but directly): path_condition ⇒ cond. Used for invariants that
// must hold whenever control reaches this point at all, such as a mutex
// unlock asserting the unlocking thread matches the locking one.
func (r *Registry) Expect(cond instr.ReadInstr[bool]) instr.ReadInstr[bool] {
	pc := r.PathCondition()
	obligation := cond
	if pc != nil {
		notPC := instr.NewUnary[bool, bool](catalogue.NOT, pc)
		obligation = instr.NewBinary[bool, bool, bool](catalogue.LOR, notPC, cond)
	}
	r.expectExprs = append(r.expectExprs, obligation)
	return obligation
}

// InternalError asserts cond directly, with no path-condition antecedent and
// no disjunction with any other obligation: a bare thread-local assertion
// the encoder asserts unconditionally, for invariants that must hold
// regardless of which path reached this point (recorder/runtime bookkeeping
// faults), as opposed to a concurrency property checked by Error.
func (r *Registry) InternalError(cond instr.ReadInstr[bool]) instr.ReadInstr[bool] {
	r.internalErrorExprs = append(r.internalErrorExprs, cond)
	return cond
}

// ErrorExprs returns every condition recorded via Error, to be OR'd
// together by the SMT encoder into the final proof obligation.
func (r *Registry) ErrorExprs() []instr.ReadInstr[bool] { return r.errorExprs }

// InternalErrorExprs returns every bare condition recorded via
// InternalError, each asserted directly by the SMT encoder rather than
// folded into the proof obligation's disjunction.
func (r *Registry) InternalErrorExprs() []instr.ReadInstr[bool] { return r.internalErrorExprs }

// ExpectExprs returns every obligation recorded via Expect. Each must hold
// unconditionally: the encoder asserts each one directly, alongside the
// axioms, rather than folding it into the disjunction of ErrorExprs, so an
// execution that would violate one (e.g. mutex misuse) is ruled out instead
// of reported as a property failure.
func (r *Registry) ExpectExprs() []instr.ReadInstr[bool] { return r.expectExprs }

// MainRecorder returns the main thread's block recorder, whose Root is the
// entry point for SPO encoding.
func (r *Registry) MainRecorder() *block.Recorder { return r.stack[0].recorder }

// BeginSliceLoop captures the main thread's currently recorded body as
// the save point a slicer pass resets to before re-running. Precondition:
// only unconditional events have been recorded on the main thread so far.
func (r *Registry) BeginSliceLoop() {
	main := r.stack[0]
	r.mainInit = append([]block.EventHandle(nil), main.recorder.Current().Body...)
	r.slice.Save()
}

// ResetSliceLoop restores the main thread's body to the BeginSliceLoop
// save point and resets the shared slice, ready for the next pass.
func (r *Registry) ResetSliceLoop() {
	main := r.stack[0]
	main.recorder.Current().Body = append([]block.EventHandle(nil), r.mainInit...)
	r.slice.Reset()
}
