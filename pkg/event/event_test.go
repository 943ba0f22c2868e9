package event

import (
	"testing"

	"github.com/concur-se/secore/pkg/zone"
)

func TestResetIDsRestartsDenseRange(t *testing.T) {
	ResetIDs()
	e1 := NewReadEvent(0, zone.Bottom(), TypeInfo{}, nil)
	e2 := NewReadEvent(0, zone.Bottom(), TypeInfo{}, nil)
	if e1.ID() != 0 || e2.ID() != 1 {
		t.Fatalf("got ids %d, %d, want dense range starting at 0", e1.ID(), e2.ID())
	}
	ResetIDs()
	e3 := NewReadEvent(0, zone.Bottom(), TypeInfo{}, nil)
	if e3.ID() != 0 {
		t.Fatalf("ResetIDs should restart allocation at 0, got %d", e3.ID())
	}
}

func TestEventKindsSatisfyAny(t *testing.T) {
	ResetIDs()
	var _ Any = NewReadEvent(0, zone.Bottom(), TypeInfo{}, nil)
	var _ Any = NewDirectWriteEvent(0, zone.Bottom(), TypeInfo{}, nil, nil)
	var _ Any = NewIndirectWriteEvent(0, zone.Bottom(), TypeInfo{}, nil, nil, nil)
	var _ Any = NewSendEvent(0, nil)
	var _ Any = NewReceiveEvent(0, zone.Unique(), nil)
}

func TestSendEventAllocatesUniqueZone(t *testing.T) {
	zone.Reset()
	s1 := NewSendEvent(0, nil)
	s2 := NewSendEvent(0, nil)
	if s1.SendZone().Equal(s2.SendZone()) {
		t.Fatal("every SendEvent must allocate a fresh, distinct zone atom")
	}
}

func TestReceiveEventReadsFromSendZone(t *testing.T) {
	zone.Reset()
	send := NewSendEvent(0, nil)
	recv := NewReceiveEvent(1, send.SendZone(), nil)
	if !recv.Zone().Equal(send.SendZone()) {
		t.Fatal("a ReceiveEvent must share its zone with the matching SendEvent")
	}
	if !recv.IsRead() {
		t.Error("ReceiveEvent must be a read")
	}
	if send.IsRead() {
		t.Error("SendEvent must be a write")
	}
}
