package instr

import (
	"testing"

	"github.com/concur-se/secore/pkg/catalogue"
	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/zone"
)

func newRead(t *testing.T) *event.ReadEvent {
	t.Helper()
	return event.NewReadEvent(0, zone.Bottom(), event.TypeInfo{Name: "int32", Width: 32, Signed: true}, nil)
}

func TestFilterLeftToRightPostorder(t *testing.T) {
	event.ResetIDs()
	a := NewBasic[int32](newRead(t), nil)
	b := NewBasic[int32](newRead(t), nil)
	c := NewBasic[int32](newRead(t), nil)

	sum := NewBinary[int32, int32, int32](catalogue.ADD, a, NewBinary[int32, int32, int32](catalogue.ADD, b, c))

	reads := Filter[int32](sum)
	if len(reads) != 3 {
		t.Fatalf("got %d reads, want 3", len(reads))
	}
	if reads[0].ID() != a.Event.ID() || reads[1].ID() != b.Event.ID() || reads[2].ID() != c.Event.ID() {
		t.Fatalf("reads not in left-to-right order: %v %v %v", reads[0].ID(), reads[1].ID(), reads[2].ID())
	}
}

func TestNaryFlattensNestedSameOperator(t *testing.T) {
	event.ResetIDs()
	a := NewBasic[int32](newRead(t), nil)
	b := NewBasic[int32](newRead(t), nil)
	c := NewBasic[int32](newRead(t), nil)

	inner := NewNary[int32](catalogue.ADD, []ReadInstr[int32]{b, c})
	outer := NewNary[int32](catalogue.ADD, []ReadInstr[int32]{a, inner})

	n, ok := outer.(*Nary[int32])
	if !ok {
		t.Fatalf("expected a flattened *Nary[int32], got %T", outer)
	}
	if len(n.Operands) != 3 {
		t.Fatalf("got %d operands, want 3 (flattened)", len(n.Operands))
	}
}

func TestNaryDegeneratesToSingleOperand(t *testing.T) {
	event.ResetIDs()
	a := NewBasic[int32](newRead(t), nil)
	out := NewNary[int32](catalogue.ADD, []ReadInstr[int32]{a})
	if out != ReadInstr[int32](a) {
		t.Fatalf("a singleton Nary must degenerate to its one operand, got %T", out)
	}
}

func TestBinaryRejectsMismatchedGuards(t *testing.T) {
	event.ResetIDs()
	guardA := NewBasic[bool](event.NewReadEvent(0, zone.Bottom(), event.TypeInfo{IsBool: true}, nil), nil)
	guardB := NewBasic[bool](event.NewReadEvent(0, zone.Bottom(), event.TypeInfo{IsBool: true}, nil), nil)

	left := NewBasic[int32](newRead(t), guardA)
	right := NewBasic[int32](newRead(t), guardB)

	defer func() {
		if recover() == nil {
			t.Fatal("Binary with operands under different guard nodes should panic")
		}
	}()
	NewBinary[int32, int32, int32](catalogue.ADD, left, right)
}

func TestUnaryRejectsNonUnaryOperator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewUnary with a non-unary operator should panic")
		}
	}()
	NewUnary[int32, int32](catalogue.ADD, NewBasic[int32](newRead(t), nil))
}
