package symbolic

import (
	"testing"

	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/instr"
	"github.com/concur-se/secore/pkg/thread"
)

var intType = event.TypeInfo{Name: "int32", Width: 32, Signed: true}

func TestLocalVarNeverRaces(t *testing.T) {
	reg := thread.Reset()
	v := NewLocalVar[int32](reg, intType, 0)
	if !v.Zone().IsBottom() {
		t.Fatal("a LocalVar must be declared in the bottom zone")
	}
}

func TestSharedVarGetsUniqueZone(t *testing.T) {
	reg := thread.Reset()
	a := NewSharedVar[int32](reg, intType, 0)
	b := NewSharedVar[int32](reg, intType, 0)
	if a.Zone().Equal(b.Zone()) {
		t.Fatal("two SharedVars must get distinct zone atoms")
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	reg := thread.Reset()
	v := NewSharedVar[int32](reg, intType, 5)
	written := Add[int32](v.Read(), Lit(int32(1)))
	v.Write(written)
	if v.Read() == nil {
		t.Fatal("Read after Write must return a non-nil expression")
	}
}

func TestArrayAtAfterSetAtObservesWrite(t *testing.T) {
	reg := thread.Reset()
	arr := NewSharedArrayVar[byte](reg, event.TypeInfo{Name: "char", Width: 8}, 3)
	arr.SetAt(Lit(1), Lit(byte('Y')))
	elem := arr.At(Lit(2))
	d, ok := elem.(*instr.Deref[int, []byte])
	if !ok {
		t.Fatalf("At must return a Deref element expression, got %T", elem)
	}
	if _, ok := d.Array.(*instr.Basic[[]byte]); !ok {
		t.Fatalf("At after SetAt must index a fresh read of the array, not the initial literal; got %T", d.Array)
	}
}

func TestMutexLockUnlockTracksOwner(t *testing.T) {
	reg := thread.Reset()
	m := NewMutex(reg)
	m.Lock()
	obligation := m.Unlock()
	if obligation == nil {
		t.Fatal("Unlock must return a non-nil proof obligation")
	}
	if len(reg.ExpectExprs()) != 1 {
		t.Fatalf("got %d expect exprs recorded, want 1", len(reg.ExpectExprs()))
	}
}

func TestUnlockWithoutLockPanics(t *testing.T) {
	reg := thread.Reset()
	m := NewMutex(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("Unlock without a matching Lock should panic")
		}
	}()
	m.Unlock()
}

func TestSumNFlattensAndDegenerates(t *testing.T) {
	reg := thread.Reset()
	a := NewSharedVar[int32](reg, intType, 1).Read()
	single := SumN[int32](a)
	if single != a {
		t.Fatalf("SumN of one operand must degenerate to that operand, got %T", single)
	}
	b := NewSharedVar[int32](reg, intType, 2).Read()
	c := NewSharedVar[int32](reg, intType, 3).Read()
	nested, ok := SumN[int32](SumN[int32](a, b), c).(*instr.Nary[int32])
	if !ok || len(nested.Operands) != 3 {
		t.Fatal("SumN over a nested sum must flatten into one Nary with 3 operands")
	}
}
