// Package symbolic is the embedder-facing layer: typed program variables
// (LocalVar, SharedVar, array variables, Mutex) and the free-function
// operator set a recorded program builds expressions with. Go has no
// operator overloading, so where the original let `a + b` dispatch on
// whatever mix of variables, literals, and read instructions a and b
// were, this package exposes that dispatch as a handful of generic free
// functions instead.
package symbolic

import (
	"fmt"

	"github.com/concur-se/secore/pkg/catalogue"
	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/instr"
	"github.com/concur-se/secore/pkg/thread"
	"github.com/concur-se/secore/pkg/zone"
)

// Lit lifts a constant Go value into an unconditional read instruction.
func Lit[T any](v T) instr.ReadInstr[T] { return instr.NewLiteral(v) }

// Var is any program variable that can be read into an expression.
type Var[T any] interface {
	Read() instr.ReadInstr[T]
}

// DeclVar is a scalar program variable: LocalVar if declared with
// zone.Bottom (never races), SharedVar if declared with a fresh unique
// zone atom (may race with any other access to the same zone).
type DeclVar[T any] struct {
	z       zone.Zone
	reg     *thread.Registry
	typ     event.TypeInfo
	current instr.ReadInstr[T]
}

func declVar[T any](reg *thread.Registry, z zone.Zone, typ event.TypeInfo, v T) *DeclVar[T] {
	d := &DeclVar[T]{z: z, reg: reg, typ: typ}
	d.current = instr.NewLiteral(v)
	thread.RecordDirectWrite[T](reg, d.z, typ, d.current)
	return d
}

// NewLocalVar declares a thread-local variable, initialized to v.
func NewLocalVar[T any](reg *thread.Registry, typ event.TypeInfo, v T) *DeclVar[T] {
	return declVar(reg, zone.Bottom(), typ, v)
}

// NewSharedVar declares a variable visible to every thread, initialized
// to v, in a freshly allocated zone atom.
func NewSharedVar[T any](reg *thread.Registry, typ event.TypeInfo, v T) *DeclVar[T] {
	return declVar(reg, zone.Unique(), typ, v)
}

// Read records a fresh ReadEvent and returns an expression over it.
func (d *DeclVar[T]) Read() instr.ReadInstr[T] {
	return thread.RecordRead[T](d.reg, d.z, d.typ)
}

// Write assigns value to the variable.
func (d *DeclVar[T]) Write(value instr.ReadInstr[T]) {
	thread.RecordDirectWrite[T](d.reg, d.z, d.typ, value)
	d.current = value
}

// Zone exposes the variable's zone, e.g. for diagnostics.
func (d *DeclVar[T]) Zone() zone.Zone { return d.z }

// ArrayVar is an array-valued program variable. Reading an element
// produces a Deref over the array's current whole-array expression;
// writing an element records an IndirectWriteEvent and refreshes that
// whole-array expression with a fresh read, so a later element read
// observes the write.
type ArrayVar[T any] struct {
	z        zone.Zone
	reg      *thread.Registry
	elemType event.TypeInfo
	wholeTyp event.TypeInfo
	whole    instr.ReadInstr[[]T]
}

func arrayTypeInfo(elem event.TypeInfo, n int) event.TypeInfo {
	return event.TypeInfo{Name: fmt.Sprintf("[%d]%s", n, elem.Name), Width: elem.Width, Signed: elem.Signed}
}

func declArrayVar[T any](reg *thread.Registry, z zone.Zone, elemType event.TypeInfo, n int) *ArrayVar[T] {
	wholeTyp := arrayTypeInfo(elemType, n)
	lit := instr.NewLiteral(make([]T, n))
	thread.RecordDirectWrite[[]T](reg, z, wholeTyp, lit)
	return &ArrayVar[T]{z: z, reg: reg, elemType: elemType, wholeTyp: wholeTyp, whole: lit}
}

// NewLocalArrayVar declares a thread-local array of n zero-valued T,
// never racing with any other thread.
func NewLocalArrayVar[T any](reg *thread.Registry, elemType event.TypeInfo, n int) *ArrayVar[T] {
	return declArrayVar[T](reg, zone.Bottom(), elemType, n)
}

// NewSharedArrayVar declares a shared array of n zero-valued T.
func NewSharedArrayVar[T any](reg *thread.Registry, elemType event.TypeInfo, n int) *ArrayVar[T] {
	return declArrayVar[T](reg, zone.Unique(), elemType, n)
}

// At returns array[index] as an expression.
func (a *ArrayVar[T]) At(index instr.ReadInstr[int]) instr.ReadInstr[T] {
	return instr.NewDeref[int, []T](a.whole, index)
}

// SetAt assigns array[index] = value.
func (a *ArrayVar[T]) SetAt(index instr.ReadInstr[int], value instr.ReadInstr[T]) {
	thread.RecordIndirectWrite[T, int](a.reg, a.z, a.elemType, index, value)
	a.whole = thread.RecordRead[[]T](a.reg, a.z, a.wholeTyp)
}

// Mutex is the program-level lock modeled exactly as the source library
// models it: a raw (non-symbolic) record of the owning thread id plus a
// SharedVar the unlock path re-asserts that record against, so a race
// between two threads both believing they hold the lock shows up as an
// unsatisfiable Expect.
type Mutex struct {
	owner   *DeclVar[uint32]
	reg     *thread.Registry
	holder  event.ThreadID
	locked  bool
}

var mutexType = event.TypeInfo{Name: "thread_id", Width: 32}

// NewMutex declares an unlocked mutex.
func NewMutex(reg *thread.Registry) *Mutex {
	return &Mutex{owner: NewSharedVar[uint32](reg, mutexType, 0), reg: reg}
}

// Lock records the current thread as the owner, both as a raw id (for
// Unlock's own bookkeeping) and as a symbolic write other threads'
// expressions can read.
func (m *Mutex) Lock() {
	m.holder = m.reg.CurrentThread()
	m.locked = true
	m.owner.Write(instr.NewLiteral(uint32(m.holder)))
}

// Unlock asserts, via Expect (an unconditional proof obligation, not a
// disjunct of program failure), that the thread releasing the lock is the
// one that last acquired it. Calling Unlock without a matching Lock is a
// usage fault.
func (m *Mutex) Unlock() instr.ReadInstr[bool] {
	if !m.locked {
		panic("symbolic: Unlock called without a matching Lock")
	}
	m.locked = false
	cond := instr.NewBinary[bool, uint32, uint32](catalogue.EQL, m.owner.Read(), instr.NewLiteral(uint32(m.holder)))
	return m.reg.Expect(cond)
}

// --- operator free functions ---

func Not(b instr.ReadInstr[bool]) instr.ReadInstr[bool] {
	return instr.NewUnary[bool, bool](catalogue.NOT, b)
}

func Add[T any](l, r instr.ReadInstr[T]) instr.ReadInstr[T] {
	return instr.NewBinary[T, T, T](catalogue.ADD, l, r)
}

func Sub[T any](l, r instr.ReadInstr[T]) instr.ReadInstr[T] {
	return instr.NewBinary[T, T, T](catalogue.SUB, l, r)
}

func And(l, r instr.ReadInstr[bool]) instr.ReadInstr[bool] {
	return instr.NewBinary[bool, bool, bool](catalogue.LAND, l, r)
}

func Or(l, r instr.ReadInstr[bool]) instr.ReadInstr[bool] {
	return instr.NewBinary[bool, bool, bool](catalogue.LOR, l, r)
}

func Eql[T any](l, r instr.ReadInstr[T]) instr.ReadInstr[bool] {
	return instr.NewBinary[bool, T, T](catalogue.EQL, l, r)
}

func Lss[T any](l, r instr.ReadInstr[T]) instr.ReadInstr[bool] {
	return instr.NewBinary[bool, T, T](catalogue.LSS, l, r)
}

// SumN folds operands under ADD, flattening nested sums and collapsing a
// singleton list to its one operand.
func SumN[T any](operands ...instr.ReadInstr[T]) instr.ReadInstr[T] {
	return instr.NewNary(catalogue.ADD, operands)
}

// AllOf folds operands under LAND.
func AllOf(operands ...instr.ReadInstr[bool]) instr.ReadInstr[bool] {
	return instr.NewNary(catalogue.LAND, operands)
}

// AnyOf folds operands under LOR.
func AnyOf(operands ...instr.ReadInstr[bool]) instr.ReadInstr[bool] {
	return instr.NewNary(catalogue.LOR, operands)
}
