// Package event defines the symbolic events recorded while a concurrent
// program is walked: reads, writes (direct and indirect), and the
// send/receive pair used to model thread spawn and join.
package event

import "github.com/concur-se/secore/pkg/zone"

// ID uniquely identifies an event within one analysis pass.
type ID uint32

// ThreadID identifies a thread of execution. The main thread is 0.
type ThreadID uint32

var nextID ID

// ResetIDs restarts id allocation. Called once per pass alongside
// zone.Reset, so that event ids are reproducible across slicer passes.
func ResetIDs() { nextID = 0 }

func allocID() ID {
	id := nextID
	nextID++
	return id
}

// TypeInfo is the runtime shadow of a Go static type, carried on every
// event so the SMT encoder can pick bit-vector widths or the integer
// theory without reflecting on Go's type system at encode time.
type TypeInfo struct {
	Name   string
	Width  int  // bit width, 0 for bool or unbounded-integer theory
	Signed bool
	IsBool bool
}

// ReadSource is satisfied by any read-instruction DAG node: it can collect
// the ReadEvents it (transitively) depends on. Defined here, rather than
// imported from pkg/instr, so that event stays free of a dependency on
// instr while instr's node types still satisfy this interface structurally.
type ReadSource interface {
	CollectReads(acc []*ReadEvent) []*ReadEvent
}

// Any is satisfied by every concrete event kind (ReadEvent,
// DirectWriteEvent, IndirectWriteEvent, SendEvent, ReceiveEvent) via the
// embedded Event header. Block bodies and slices hold events as Any so
// they don't need to know which concrete kind they're handling until the
// SMT encoder's type switch does.
type Any interface {
	ID() ID
	Thread() ThreadID
	Zone() zone.Zone
	IsRead() bool
	Type() TypeInfo
	Guard() ReadSource
}

// Event is the common header embedded by every concrete event kind.
type Event struct {
	id     ID
	thread ThreadID
	zone   zone.Zone
	isRead bool
	typ    TypeInfo
	guard  ReadSource // nil means unconditional
}

func newEvent(thread ThreadID, z zone.Zone, isRead bool, typ TypeInfo, guard ReadSource) Event {
	return Event{id: allocID(), thread: thread, zone: z, isRead: isRead, typ: typ, guard: guard}
}

func (e *Event) ID() ID             { return e.id }
func (e *Event) Thread() ThreadID   { return e.thread }
func (e *Event) Zone() zone.Zone    { return e.zone }
func (e *Event) IsRead() bool       { return e.isRead }
func (e *Event) IsWrite() bool      { return !e.isRead }
func (e *Event) Type() TypeInfo     { return e.typ }
func (e *Event) Guard() ReadSource  { return e.guard }

// ReadEvent observes the current value of a (possibly shared) variable.
type ReadEvent struct {
	Event
}

// NewReadEvent records a read of a variable declared in zone z, guarded by
// the recording thread's current path condition.
func NewReadEvent(thread ThreadID, z zone.Zone, typ TypeInfo, guard ReadSource) *ReadEvent {
	return &ReadEvent{Event: newEvent(thread, z, true, typ, guard)}
}

// DirectWriteEvent assigns the value of an entire scalar (or whole-array)
// read-instruction DAG to a variable.
type DirectWriteEvent struct {
	Event
	Value ReadSource
}

func NewDirectWriteEvent(thread ThreadID, z zone.Zone, typ TypeInfo, guard ReadSource, value ReadSource) *DirectWriteEvent {
	return &DirectWriteEvent{Event: newEvent(thread, z, false, typ, guard), Value: value}
}

// IndirectWriteEvent assigns to a single element of an array-valued
// variable, identified by an index read-instruction.
type IndirectWriteEvent struct {
	Event
	Index ReadSource
	Value ReadSource
}

func NewIndirectWriteEvent(thread ThreadID, z zone.Zone, typ TypeInfo, guard ReadSource, index, value ReadSource) *IndirectWriteEvent {
	return &IndirectWriteEvent{Event: newEvent(thread, z, false, typ, guard), Index: index, Value: value}
}

// SendEvent marks a thread-spawn boundary. It allocates a fresh zone atom
// that the matching ReceiveEvent in the child thread reads from, giving
// the two events the only zone they share.
type SendEvent struct {
	Event
}

func NewSendEvent(thread ThreadID, guard ReadSource) *SendEvent {
	z := zone.Unique()
	return &SendEvent{Event: newEvent(thread, z, false, TypeInfo{Name: "sync", IsBool: true}, guard)}
}

// SendZone exposes the atom allocated for this send, for the matching receive.
func (s *SendEvent) SendZone() zone.Zone { return s.Event.zone }

// ReceiveEvent marks the matching join/spawn boundary, reading from the
// zone allocated by the SendEvent it pairs with.
type ReceiveEvent struct {
	Event
}

func NewReceiveEvent(thread ThreadID, sendZone zone.Zone, guard ReadSource) *ReceiveEvent {
	return &ReceiveEvent{Event: newEvent(thread, sendZone, true, TypeInfo{Name: "sync", IsBool: true}, guard)}
}
