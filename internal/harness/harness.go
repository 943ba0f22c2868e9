// Package harness holds the seed scenarios from the testable-properties
// list: small concurrent programs with a documented expected verdict for
// their asserted error condition. A scenario only builds the block graph
// and error obligation inside a session — encoding and solving are the
// embedder's job, so Expected is documentation, not something this
// package checks itself.
package harness

import (
	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/instr"
	"github.com/concur-se/secore/pkg/session"
	"github.com/concur-se/secore/pkg/symbolic"
)

var (
	intType  = event.TypeInfo{Name: "int32", Width: 32, Signed: true}
	charType = event.TypeInfo{Name: "char", Width: 8, Signed: false}
	boolType = event.TypeInfo{Name: "bool", IsBool: true}
)

func lit32(v int32) instr.ReadInstr[int32] { return symbolic.Lit(v) }
func litCh(v byte) instr.ReadInstr[byte]   { return symbolic.Lit(v) }

// geq is the spec's ">=", built from LSS and NOT since the catalogue has
// no dedicated comparison for it: a >= b  <=>  !(a < b).
func geq[T any](l, r instr.ReadInstr[T]) instr.ReadInstr[bool] {
	return symbolic.Not(symbolic.Lss[T](l, r))
}

// gtr is "a > b" <=> b < a.
func gtr[T any](l, r instr.ReadInstr[T]) instr.ReadInstr[bool] {
	return symbolic.Lss[T](r, l)
}

// Scenario is one seed program plus the verdict its error condition is
// expected to carry once handed to a real solver.
type Scenario struct {
	Name        string
	Description string
	Expected    string // documentation only: the expected verdict, e.g. "sat" or "unsat"
	Build       func(sess *session.Session)
}

// All returns every seed scenario, in the order §8 numbers them.
func All() []Scenario {
	return []Scenario{
		raceToThreshold,
		mutexInterlock,
		threeWayWrite,
		mutexStack,
		sharedArrayWrite,
		branchySingleThread,
	}
}

// 1. Two threads race i += j and j += i, five iterations each, no lock.
var raceToThreshold = Scenario{
	Name:        "race-to-threshold",
	Description: "t0: i=i+j; t1: j=j+i; 5 iterations each, i=j=1, no lock. Assert i>=144 || j>=144.",
	Expected:    "sat",
	Build: func(sess *session.Session) {
		reg := sess.Registry()
		i := symbolic.NewSharedVar[int32](reg, intType, 1)
		j := symbolic.NewSharedVar[int32](reg, intType, 1)

		reg.BeginThread()
		for n := 0; n < 5; n++ {
			i.Write(symbolic.Add[int32](i.Read(), j.Read()))
		}
		doneT0 := reg.EndThread()

		reg.BeginThread()
		for n := 0; n < 5; n++ {
			j.Write(symbolic.Add[int32](j.Read(), i.Read()))
		}
		doneT1 := reg.EndThread()

		reg.Join(doneT0)
		reg.Join(doneT1)

		threshold := lit32(144)
		reg.Error(symbolic.Or(geq[int32](i.Read(), threshold), geq[int32](j.Read(), threshold)))
	},
}

// 2. Same shape as raceToThreshold, but each iteration's critical section
// is interlocked by a shared mutex.
var mutexInterlock = Scenario{
	Name:        "mutex-interlock",
	Description: "Same as race-to-threshold, but i+=j and j+=i each run under a shared mutex. Assert i>=144.",
	Expected:    "unsat",
	Build: func(sess *session.Session) {
		reg := sess.Registry()
		i := symbolic.NewSharedVar[int32](reg, intType, 1)
		j := symbolic.NewSharedVar[int32](reg, intType, 1)
		m := symbolic.NewMutex(reg)

		reg.BeginThread()
		for n := 0; n < 5; n++ {
			m.Lock()
			i.Write(symbolic.Add[int32](i.Read(), j.Read()))
			m.Unlock()
		}
		doneT0 := reg.EndThread()

		reg.BeginThread()
		for n := 0; n < 5; n++ {
			m.Lock()
			j.Write(symbolic.Add[int32](j.Read(), i.Read()))
			m.Unlock()
		}
		doneT1 := reg.EndThread()

		reg.Join(doneT0)
		reg.Join(doneT1)

		reg.Error(geq[int32](i.Read(), lit32(144)))
	},
}

// 3. A shared char raced by two writers, read once by main.
var threeWayWrite = Scenario{
	Name:        "three-way-write",
	Description: "x:char='A'; t1 sets x='P', t2 sets x='Q'; main reads a=x. Assert a not in {'\\0','P','Q'}.",
	Expected:    "unsat",
	Build: func(sess *session.Session) {
		reg := sess.Registry()
		x := symbolic.NewSharedVar[byte](reg, charType, 'A')

		reg.BeginThread()
		x.Write(litCh('P'))
		done1 := reg.EndThread()

		reg.BeginThread()
		x.Write(litCh('Q'))
		done2 := reg.EndThread()

		reg.Join(done1)
		reg.Join(done2)

		a := x.Read()
		permitted := symbolic.AnyOf(
			symbolic.Eql[byte](a, litCh(0)),
			symbolic.Eql[byte](a, litCh('P')),
			symbolic.Eql[byte](a, litCh('Q')),
		)
		reg.Error(symbolic.Not(permitted))
	},
}

// 4. A fixed-capacity stack guarded by a mutex: pusher increments top,
// popper asserts top==0 can never be observed once its own guard (top>0)
// has passed.
var mutexStack = Scenario{
	Name:        "mutex-stack",
	Description: "Stack of N=12 under a mutex. Pusher writes i, pops checked top>0 before pop. Assert top==0 at pop entry.",
	Expected:    "unsat",
	Build: func(sess *session.Session) {
		const n = 12
		reg := sess.Registry()
		xs := symbolic.NewSharedArrayVar[byte](reg, charType, n)
		top := symbolic.NewSharedVar[int32](reg, intType, 0)
		m := symbolic.NewMutex(reg)

		reg.BeginThread()
		for k := 0; k < n; k++ {
			m.Lock()
			t := top.Read()
			reg.BeginThen(symbolic.Lss[int32](t, lit32(n)))
			xs.SetAt(instr.NewLiteral(int(k)), litCh(byte('a'+k)))
			top.Write(symbolic.Add[int32](top.Read(), lit32(1)))
			reg.EndBranch()
			m.Unlock()
		}
		donePush := reg.EndThread()

		reg.BeginThread()
		for k := 0; k < n; k++ {
			m.Lock()
			guard := gtr[int32](top.Read(), lit32(0))
			reg.BeginThen(guard)
			reg.Error(symbolic.Eql[int32](top.Read(), lit32(0)))
			top.Write(symbolic.Sub[int32](top.Read(), lit32(1)))
			reg.EndBranch()
			m.Unlock()
		}
		donePop := reg.EndThread()

		reg.Join(donePush)
		reg.Join(donePop)
	},
}

// 5. A shared 3-element array, written twice through a shared cursor that
// main advances between the two writes, then read once by main.
var sharedArrayWrite = Scenario{
	Name:        "shared-array-write",
	Description: "xs[3] shared, i shared =1: xs[i]='Y'; i=i+1; xs[i]='Z'. Read a=xs[2]. Assert a!='Z'.",
	Expected:    "unsat",
	Build: func(sess *session.Session) {
		reg := sess.Registry()
		xs := symbolic.NewSharedArrayVar[byte](reg, charType, 3)
		i := symbolic.NewSharedVar[int](reg, intType, 1)

		xs.SetAt(i.Read(), litCh('Y'))
		i.Write(symbolic.Add[int](i.Read(), symbolic.Lit(1)))
		xs.SetAt(i.Read(), litCh('Z'))

		a := xs.At(instr.NewLiteral(2))
		reg.Error(symbolic.Not(symbolic.Eql[byte](a, litCh('Z'))))
	},
}

// 6. Single-threaded branch on an unconstrained boolean read, assigning
// one of two literals; main reads the result back.
var branchySingleThread = Scenario{
	Name:        "branchy-single-thread",
	Description: "x='A'; if any_bool(): x='B' else x='C'; a=x. With slicing disabled, assert a not in {'B','C'}; assert a=='A' is unsat.",
	Expected:    "sat for a not in {'B','C'}; unsat for a=='A'",
	Build: func(sess *session.Session) {
		reg := sess.Registry()
		x := symbolic.NewLocalVar[byte](reg, charType, 'A')
		anyBool := symbolic.NewSharedVar[bool](reg, boolType, false)

		cond := anyBool.Read()
		reg.BeginThen(cond)
		x.Write(litCh('B'))
		reg.BeginElse()
		x.Write(litCh('C'))
		reg.EndBranch()

		a := x.Read()
		permitted := symbolic.Or(symbolic.Eql[byte](a, litCh('B')), symbolic.Eql[byte](a, litCh('C')))
		reg.Error(symbolic.Not(permitted))
	},
}
