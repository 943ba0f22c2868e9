package slice

import (
	"testing"

	"github.com/concur-se/secore/pkg/event"
	"github.com/concur-se/secore/pkg/instr"
	"github.com/concur-se/secore/pkg/zone"
)

func TestAppendSkipsBottomZone(t *testing.T) {
	s := New()
	local := event.NewReadEvent(0, zone.Bottom(), event.TypeInfo{}, nil)
	shared := event.NewReadEvent(0, zone.Unique(), event.TypeInfo{}, nil)

	s.Append(0, local)
	s.Append(0, shared)

	got := s.Events(0)
	if len(got) != 1 || got[0] != event.Any(shared) {
		t.Fatalf("got %v, want only the shared-zone event", got)
	}
}

func TestAppendReadsOrdersBeforeWrite(t *testing.T) {
	s := New()
	z := zone.Unique()
	r1 := instr.NewBasic[int32](event.NewReadEvent(0, z, event.TypeInfo{}, nil), nil)

	AppendReads[int32](s, 0, r1)
	got := s.Events(0)
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
}

func TestSaveResetRoundTrip(t *testing.T) {
	s := New()
	z := zone.Unique()
	e1 := event.NewReadEvent(0, z, event.TypeInfo{}, nil)
	s.Append(0, e1)
	s.Save()

	e2 := event.NewReadEvent(0, z, event.TypeInfo{}, nil)
	s.Append(0, e2)
	if len(s.Events(0)) != 2 {
		t.Fatalf("got %d events before reset, want 2", len(s.Events(0)))
	}

	s.Reset()
	if len(s.Events(0)) != 1 || s.Events(0)[0] != event.Any(e1) {
		t.Fatalf("Reset must restore the Save point, got %v", s.Events(0))
	}
}
