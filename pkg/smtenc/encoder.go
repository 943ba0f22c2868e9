package smtenc

import (
	"fmt"

	"github.com/concur-se/secore/pkg/block"
	"github.com/concur-se/secore/pkg/catalogue"
	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/instr"
	"github.com/concur-se/secore/pkg/thread"
)

// Theory selects the numeric sort used for data values: bounded
// bit-vectors (two's-complement overflow) or mathematical integers
// (unbounded overflow). Both are named explicitly in the boundary-
// behaviour tests this encoder is built against.
type Theory int

const (
	BitVector Theory = iota
	Integer
)

// Config bundles the choices an encode pass needs beyond what the
// Registry already recorded.
type Config struct {
	Theory     Theory
	ClockWidth int // bit width for clock constants; under BitVector also the width of every data constant and literal (32 if unset), since per-type TypeInfo widths are not consulted
}

// Encoder is a one-shot, per-pass SMT encoding context. It implements
// instr.EncodeContext so that read-instruction DAG nodes can translate
// themselves without pkg/instr depending on this package.
type Encoder struct {
	cfg       Config
	eventByID map[event.ID]event.Any
	consts    map[event.ID]*Term // per-event symbolic constant
	clocks    map[event.ID]*Term // per-event clock constant
	asserts   []*Term
	joinSeq   int // names fresh branch-join clocks uniquely
}

func newEncoder(cfg Config) *Encoder {
	return &Encoder{
		cfg:       cfg,
		eventByID: map[event.ID]event.Any{},
		consts:    map[event.ID]*Term{},
		clocks:    map[event.ID]*Term{},
	}
}

func (e *Encoder) assert(t *Term) { e.asserts = append(e.asserts, t) }

// --- instr.EncodeContext ---

func (e *Encoder) EventConst(id event.ID) instr.Value {
	c, ok := e.consts[id]
	if !ok {
		panic(fmt.Sprintf("smtenc: no constant registered for event %d", id))
	}
	return c
}

func (e *Encoder) Lit(v any) instr.Value {
	switch x := v.(type) {
	case bool:
		return BoolLit(x)
	case []bool, []byte, []int, []int64, []uint32:
		// whole-array literal: represented as a default-valued constant
		// array, since individual element literals are never needed
		// once an indexed write has occurred.
		return ConstArray(e.zeroOf(v))
	default:
		return e.numericLit(v)
	}
}

func (e *Encoder) numericLit(v any) *Term {
	var iv int64
	switch x := v.(type) {
	case int:
		iv = int64(x)
	case uint8:
		iv = int64(x)
	case int32:
		iv = int64(x)
	case int64:
		iv = x
	case uint32:
		iv = int64(x)
	case uint64:
		iv = int64(x)
	default:
		iv = 0
	}
	if e.cfg.Theory == BitVector {
		return BVLit(iv, e.dataWidth())
	}
	return IntLit(iv)
}

func (e *Encoder) zeroOf(v any) *Term {
	if e.cfg.Theory == BitVector {
		return BVLit(0, e.dataWidth())
	}
	return IntLit(0)
}

func (e *Encoder) dataWidth() int {
	if e.cfg.ClockWidth > 0 {
		return e.cfg.ClockWidth
	}
	return 32
}

func (e *Encoder) Apply(op catalogue.Operator, args ...instr.Value) instr.Value {
	terms := make([]*Term, len(args))
	for i, a := range args {
		terms[i] = a.(*Term)
	}
	switch op {
	case catalogue.NOT:
		return Not(terms[0])
	case catalogue.ADD:
		return AddAll(terms)
	case catalogue.SUB:
		return Sub(terms[0], terms[1])
	case catalogue.LAND:
		return AndAll(terms)
	case catalogue.LOR:
		return OrAll(terms)
	case catalogue.EQL:
		return Eq(terms[0], terms[1])
	case catalogue.LSS:
		return Lt(terms[0], terms[1])
	default:
		panic(fmt.Sprintf("smtenc: unsupported operator %s", op))
	}
}

func (e *Encoder) Select(array, index instr.Value) instr.Value {
	return Select(array.(*Term), index.(*Term))
}

// condOf encodes ev's guard, defaulting to literal true when unconditional.
func (e *Encoder) condOf(ev event.Any) *Term {
	g := ev.Guard()
	if g == nil {
		return BoolLit(true)
	}
	boolInstr, ok := g.(instr.ReadInstr[bool])
	if !ok {
		panic("smtenc: event guard is not a boolean read instruction")
	}
	return boolInstr.Encode(e).(*Term)
}

// UnsupportedError describes a recording that uses a capability this
// encoder does not implement. Encode never returns one: an operator outside
// the catalogue makes Apply panic instead.
type UnsupportedError struct {
	Reason string
}

func (u *UnsupportedError) Error() string { return "smtenc: unsupported: " + u.Reason }

// Result is everything an embedder needs after a successful Encode:
// the proof obligation asserted to the solver, and a lookup from event id
// to its symbolic constant for model inspection.
type Result struct {
	Obligation *Term
	HasErrors  bool
	EventConst map[event.ID]*Term
}

// Encode walks every thread recorded in reg, asserts the sequenced-before,
// read-from, write-serialization, and from-read axioms into solver, and
// asserts the disjunction of every condition reg.Error recorded as the
// overall proof obligation. The caller checks sat/unsat on solver
// afterward; Encode itself never calls CheckSat.
func Encode(reg *thread.Registry, solver Solver, cfg Config) (*Result, error) {
	enc := newEncoder(cfg)

	recorders := reg.AllRecorders()
	for _, rec := range recorders {
		enc.collectEvents(rec.Root())
	}
	for id, ev := range enc.eventByID {
		enc.consts[id] = Const(fmt.Sprintf("e%d", id), dataSortFor(ev), enc.dataWidth())
		clk := Const(fmt.Sprintf("clk%d", id), SortClock, enc.cfg.ClockWidth)
		enc.clocks[id] = clk
		enc.assert(Lt(IntLit(0), clk))
	}

	// Each thread's clocks are chained independently: SPO only orders
	// events within one thread. Cross-thread ordering (e.g. a spawn
	// preceding its child's first event, or a join observing a thread's
	// completion) falls out of the read-from axiom below instead, since
	// SendEvent/ReceiveEvent pairs share a unique zone RF already orders.
	for _, rec := range recorders {
		enc.encodeSPO(rec.Root(), nil)
	}

	enc.encodeDefiningEquations()
	enc.encodeRF()
	enc.encodeWS()
	enc.encodeFR()

	for _, ex := range reg.InternalErrorExprs() {
		enc.assert(ex.Encode(enc).(*Term))
	}
	for _, ex := range reg.ExpectExprs() {
		enc.assert(ex.Encode(enc).(*Term))
	}

	for _, t := range enc.asserts {
		solver.Assert(t)
	}

	errExprs := reg.ErrorExprs()
	terms := make([]*Term, 0, len(errExprs))
	for _, ex := range errExprs {
		terms = append(terms, ex.Encode(enc).(*Term))
	}
	hasErrors := len(terms) > 0
	var obligation *Term
	if hasErrors {
		obligation = OrAll(terms)
		solver.Assert(obligation)
	}

	return &Result{Obligation: obligation, HasErrors: hasErrors, EventConst: enc.consts}, nil
}

func dataSortFor(ev event.Any) Sort {
	if ev.Type().IsBool {
		return SortBool
	}
	return SortData
}

// collectEvents walks a block recursively, registering every event so its
// constants can be allocated up front.
func (e *Encoder) collectEvents(b *block.Block) {
	for _, ev := range b.Body {
		e.eventByID[ev.ID()] = ev
	}
	for _, inner := range b.Inner {
		e.collectEvents(inner)
		if inner.Else != nil {
			e.collectEvents(inner.Else)
		}
	}
}

// encodeSPO walks a block's body in program order, chaining each
// non-bottom-zone event's clock strictly after the previous one via Lt
// (bottom-zone, thread-local events take no part, since they never race
// and so need no cross-event ordering at all), then recurses into inner
// blocks, each chained after the last clocked event so far. Clocks are
// free constants — already asserted greater than zero when allocated —
// so this only ever adds Lt facts between them, never pins one to a
// concrete value; this is what leaves the solver free to explore more
// than one interleaving instead of fixing a single total order. A
// then/else pair's two branches are each chained independently from the
// same predecessor and then joined into a fresh free clock asserted
// strictly after both branch exits, so code following the conditional is
// ordered after whichever branch executed without forcing an order
// between the branches themselves. Returns the clock reached after b (or
// earlier, unchanged, if b contributed no clocked event), for the caller
// to chain whatever follows b.
func (e *Encoder) encodeSPO(b *block.Block, earlier *Term) *Term {
	last := earlier
	for _, ev := range b.Body {
		clk := e.clocks[ev.ID()]
		if ev.Zone().IsBottom() {
			continue
		}
		if last != nil {
			e.assert(Lt(last, clk))
		}
		last = clk
	}
	for _, inner := range b.Inner {
		innerLast := e.encodeSPO(inner, last)
		if inner.Else != nil {
			elseLast := e.encodeSPO(inner.Else, last)
			last = e.joinClocks(innerLast, elseLast)
		} else {
			last = innerLast
		}
	}
	return last
}

// joinClocks introduces one fresh free clock, asserted greater than zero
// and strictly after whichever of a/b is non-nil, merging two branches'
// exit clocks into a single successor clock for the caller to chain.
func (e *Encoder) joinClocks(a, b *Term) *Term {
	e.joinSeq++
	join := Const(fmt.Sprintf("join%d", e.joinSeq), SortClock, e.cfg.ClockWidth)
	e.assert(Lt(IntLit(0), join))
	if a != nil {
		e.assert(Lt(a, join))
	}
	if b != nil {
		e.assert(Lt(b, join))
	}
	return join
}

// encodeDefiningEquations asserts, for every write and sync event, the
// equation defining its symbolic constant — guarded by its condition, so
// an event that never executes on this path places no constraint. Read
// events get no defining equation: they are free variables constrained
// only by the read-from axiom below.
func (e *Encoder) encodeDefiningEquations() {
	for id, ev := range e.eventByID {
		c := e.consts[id]
		cond := e.condOf(ev)
		switch w := ev.(type) {
		case *event.DirectWriteEvent:
			val := encodeSource(w.Value, e)
			e.assert(Implies(cond, Eq(c, val)))
		case *event.IndirectWriteEvent:
			idx := encodeSource(w.Index, e)
			val := encodeSource(w.Value, e)
			prevArray := ConstArray(e.zeroOf(nil))
			e.assert(Implies(cond, Eq(c, Store(prevArray, idx, val))))
		case *event.SendEvent:
			e.assert(Eq(c, BoolLit(true)))
		case *event.ReceiveEvent:
			e.assert(Eq(c, BoolLit(true)))
		case *event.ReadEvent:
			// free variable; constrained by RF below.
		}
	}
}

// encodeSource encodes an event.ReadSource (a read-instruction DAG node
// of unknown static T) by asserting it also implements instr.ReadInstr's
// Encode method, which every concrete DAG node does.
func encodeSource(src event.ReadSource, ctx instr.EncodeContext) *Term {
	enc, ok := src.(interface{ Encode(instr.EncodeContext) instr.Value })
	if !ok {
		panic("smtenc: read source does not support encoding")
	}
	return enc.Encode(ctx).(*Term)
}

// rfSelector is the boolean constant meaning "read r observes write w".
// Named deterministically from the (w, r) event id pair, so encodeFR can
// refer to the identical constant encodeRF asserted without the two passes
// sharing any other state.
func (e *Encoder) rfSelector(w, r event.Any) *Term {
	return Const(fmt.Sprintf("rf_%d_%d", w.ID(), r.ID()), SortBool, 0)
}

func (e *Encoder) readsAndWrites() (reads, writes []event.Any) {
	for _, ev := range e.eventByID {
		if ev.IsRead() {
			reads = append(reads, ev)
		} else {
			writes = append(writes, ev)
		}
	}
	return reads, writes
}

// encodeRF asserts the read-from axiom: for every shared read, some
// interfering write is scheduled as its source, matching its value and
// preceding it in clock order; an unscheduled write places no constraint.
func (e *Encoder) encodeRF() {
	reads, writes := e.readsAndWrites()
	for _, r := range reads {
		if r.Zone().IsBottom() {
			continue
		}
		var schedules []*Term
		readCond := e.condOf(r)
		for _, w := range writes {
			if !w.Zone().MayInterfere(r.Zone()) {
				continue
			}
			sel := e.rfSelector(w, r)
			order := Lt(e.clocks[w.ID()], e.clocks[r.ID()])
			writeCond := e.condOf(w)
			equality := Eq(e.consts[w.ID()], e.consts[r.ID()])
			e.assert(Implies(sel, And(order, writeCond, readCond, equality)))
			schedules = append(schedules, sel)
		}
		if len(schedules) > 0 {
			e.assert(Implies(readCond, OrAll(schedules)))
		}
	}
}

// encodeWS asserts write-serialization: interfering writes receive
// distinct clocks whenever both actually execute. Clocks are free
// variables constrained only by the Lt facts encodeSPO asserts along
// each thread's own body, so nothing rules out two writes from different
// threads coinciding on a clock value unless this axiom says otherwise.
func (e *Encoder) encodeWS() {
	var writes []event.Any
	for _, ev := range e.eventByID {
		if !ev.IsRead() && !ev.Zone().IsBottom() {
			writes = append(writes, ev)
		}
	}
	for i := 0; i < len(writes); i++ {
		for j := i + 1; j < len(writes); j++ {
			w1, w2 := writes[i], writes[j]
			if !w1.Zone().MayInterfere(w2.Zone()) {
				continue
			}
			both := And(e.condOf(w1), e.condOf(w2))
			distinct := Not(Eq(e.clocks[w1.ID()], e.clocks[w2.ID()]))
			e.assert(Implies(both, distinct))
		}
	}
}

// encodeFR asserts from-read: a read may not observe a write that is
// itself stale, i.e. one that some later interfering write overwrote
// before the read executed. This is what rules out non-sequentially-
// consistent "missed update" executions.
func (e *Encoder) encodeFR() {
	reads, writes := e.readsAndWrites()
	for _, r := range reads {
		if r.Zone().IsBottom() {
			continue
		}
		for _, w1 := range writes {
			if !w1.Zone().MayInterfere(r.Zone()) {
				continue
			}
			for _, w2 := range writes {
				if w2.ID() == w1.ID() || !w2.Zone().MayInterfere(r.Zone()) {
					continue
				}
				between := And(
					Lt(e.clocks[w1.ID()], e.clocks[w2.ID()]),
					Lt(e.clocks[w2.ID()], e.clocks[r.ID()]),
				)
				e.assert(Not(And(e.rfSelector(w1, r), e.condOf(w2), between)))
			}
		}
	}
}
