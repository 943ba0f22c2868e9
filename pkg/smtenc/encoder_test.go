package smtenc

import (
	"testing"

	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/symbolic"
	"github.com/concur-se/secore/pkg/thread"
)

type collectingSolver struct {
	asserts []*Term
}

func (s *collectingSolver) Assert(t *Term)             { s.asserts = append(s.asserts, t) }
func (s *collectingSolver) CheckSat() (Verdict, error) { return Unknown, nil }
func (s *collectingSolver) Model() (Model, error)      { return nil, nil }

var intType = event.TypeInfo{Name: "int32", Width: 32, Signed: true}

func TestEncodeSingleThreadNoErrors(t *testing.T) {
	reg := thread.Reset()
	v := symbolic.NewLocalVar[int32](reg, intType, 0)
	v.Write(symbolic.Add[int32](v.Read(), symbolic.Lit(int32(1))))

	solver := &collectingSolver{}
	result, err := Encode(reg, solver, Config{Theory: BitVector, ClockWidth: 32})
	if err != nil {
		t.Fatalf("Encode returned an error: %v", err)
	}
	if result.HasErrors {
		t.Fatal("a program with no reg.Error calls must have no obligation")
	}
	if len(solver.asserts) == 0 {
		t.Fatal("Encode must assert at least the defining equations")
	}
}

func TestEncodeWithErrorBuildsObligation(t *testing.T) {
	reg := thread.Reset()
	v := symbolic.NewSharedVar[int32](reg, intType, 0)
	reg.Error(symbolic.Eql[int32](v.Read(), symbolic.Lit(int32(0))))

	solver := &collectingSolver{}
	result, err := Encode(reg, solver, Config{Theory: Integer})
	if err != nil {
		t.Fatalf("Encode returned an error: %v", err)
	}
	if !result.HasErrors {
		t.Fatal("expected an obligation to be built from the recorded Error")
	}
	if result.Obligation == nil {
		t.Fatal("HasErrors true but Obligation is nil")
	}
}

func TestEncodeAssertsExpectOutsideObligation(t *testing.T) {
	reg := thread.Reset()
	m := symbolic.NewMutex(reg)
	m.Lock()
	m.Unlock()

	solver := &collectingSolver{}
	result, err := Encode(reg, solver, Config{Theory: BitVector, ClockWidth: 32})
	if err != nil {
		t.Fatalf("Encode returned an error: %v", err)
	}
	if result.HasErrors {
		t.Fatal("a recorded Expect must be asserted directly, not folded into the error obligation")
	}
}
