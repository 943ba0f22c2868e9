package harness

import (
	"testing"

	"github.com/concur-se/secore/pkg/session"
	"github.com/concur-se/secore/pkg/smtenc"
)

type discardSolver struct{}

func (discardSolver) Assert(t *smtenc.Term)             {}
func (discardSolver) CheckSat() (smtenc.Verdict, error) { return smtenc.Unknown, nil }
func (discardSolver) Model() (smtenc.Model, error)      { return nil, nil }

func TestAllScenariosBuildAndEncode(t *testing.T) {
	for _, sc := range All() {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			sess := session.New(session.Config{Theory: smtenc.BitVector, ClockWidth: 32})
			sc.Build(sess)
			if _, err := sess.Encode(discardSolver{}); err != nil {
				t.Fatalf("scenario %q failed to encode: %v", sc.Name, err)
			}
		})
	}
}
