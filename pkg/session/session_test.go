package session

import (
	"testing"

	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/smtenc"
	"github.com/concur-se/secore/pkg/symbolic"
)

var intType = event.TypeInfo{Name: "int32", Width: 32, Signed: true}

type nullSolver struct{ asserts int }

func (s *nullSolver) Assert(t *smtenc.Term)                  { s.asserts++ }
func (s *nullSolver) CheckSat() (smtenc.Verdict, error)      { return smtenc.Unknown, nil }
func (s *nullSolver) Model() (smtenc.Model, error)           { return nil, nil }

func TestRestartResetsZoneAllocation(t *testing.T) {
	sess := New(Config{Theory: smtenc.BitVector, ClockWidth: 32})
	v1 := symbolic.NewSharedVar[int32](sess.Registry(), intType, 0)

	sess.Restart()
	v2 := symbolic.NewSharedVar[int32](sess.Registry(), intType, 0)

	if v1.Zone().Atoms()[0] != v2.Zone().Atoms()[0] {
		t.Fatalf("Restart must reset zone allocation: got %v then %v", v1.Zone().Atoms(), v2.Zone().Atoms())
	}
}

func TestEncodeDelegatesToSmtenc(t *testing.T) {
	sess := New(Config{Theory: smtenc.Integer})
	v := symbolic.NewSharedVar[int32](sess.Registry(), intType, 0)
	sess.Registry().Error(symbolic.Eql[int32](v.Read(), symbolic.Lit(int32(0))))

	solver := &nullSolver{}
	result, err := sess.Encode(solver)
	if err != nil {
		t.Fatalf("Encode returned an error: %v", err)
	}
	if !result.HasErrors {
		t.Fatal("expected the recorded Error to produce an obligation")
	}
	if solver.asserts == 0 {
		t.Fatal("Encode must assert formulas into the solver")
	}
}
