// Package instr implements the read-instruction DAG: an immutable,
// acyclic expression tree built over events, literals, and operators from
// pkg/catalogue. A DAG node never mutates after construction; sharing a
// subtree between two parents is always safe, which is what lets Nary
// flatten nested same-operator nodes without copying.
package instr

import (
	"fmt"

	"github.com/concur-se/secore/pkg/catalogue"
	"github.com/concur-se/secore/pkg/event"
)

// EncodeContext is the callback surface an SMT encoder implements so that
// DAG nodes can translate themselves into that encoder's term
// representation without instr importing the encoder package. Value is
// deliberately opaque (an `any`): only the encoder that produced it knows
// its concrete shape.
type EncodeContext interface {
	// EventConst returns the symbolic constant standing for a
	// previously recorded event (see pkg/event).
	EventConst(id event.ID) Value
	// Lit returns a constant term for a literal Go value.
	Lit(v any) Value
	// Apply combines already-encoded operand values under op.
	Apply(op catalogue.Operator, args ...Value) Value
	// Select indexes an already-encoded array-sorted value.
	Select(array, index Value) Value
}

// Value is an encoder-specific term, opaque to this package.
type Value = any

// ReadInstr is any node of the DAG producing a value of type T once all of
// the events it reads have been resolved.
type ReadInstr[T any] interface {
	event.ReadSource
	// GuardPtr returns the boolean DAG node every operand of this
	// instruction was built under, or nil if the instruction is
	// unconditional. All operands of a single node are required to
	// share the identical guard node (see checkGuards).
	GuardPtr() ReadInstr[bool]
	// Encode translates this node into the encoder's term
	// representation via ctx, recursing into operands itself.
	Encode(ctx EncodeContext) Value
}

func checkGuards(guards ...ReadInstr[bool]) ReadInstr[bool] {
	var shared ReadInstr[bool]
	for _, g := range guards {
		if g == nil {
			continue
		}
		if shared == nil {
			shared = g
			continue
		}
		if shared != g {
			panic("instr: operands of a single read instruction must share the same guard node")
		}
	}
	return shared
}

// Literal is a constant value, unconditional by construction.
type Literal[T any] struct {
	Value T
}

func NewLiteral[T any](v T) *Literal[T] { return &Literal[T]{Value: v} }

func (l *Literal[T]) CollectReads(acc []*event.ReadEvent) []*event.ReadEvent { return acc }
func (l *Literal[T]) GuardPtr() ReadInstr[bool]                              { return nil }
func (l *Literal[T]) Encode(ctx EncodeContext) Value                        { return ctx.Lit(l.Value) }

// Basic wraps a single ReadEvent.
type Basic[T any] struct {
	Event *event.ReadEvent
	Guard ReadInstr[bool]
}

func NewBasic[T any](e *event.ReadEvent, guard ReadInstr[bool]) *Basic[T] {
	return &Basic[T]{Event: e, Guard: guard}
}

func (b *Basic[T]) CollectReads(acc []*event.ReadEvent) []*event.ReadEvent {
	out := make([]*event.ReadEvent, 0, len(acc)+1)
	out = append(out, b.Event)
	out = append(out, acc...)
	return out
}
func (b *Basic[T]) GuardPtr() ReadInstr[bool] { return b.Guard }
func (b *Basic[T]) Encode(ctx EncodeContext) Value {
	return ctx.EventConst(b.Event.ID())
}

// Unary applies a unary operator (only NOT, in the closed catalogue) to a
// single operand.
type Unary[T, U any] struct {
	Op      catalogue.Operator
	Operand ReadInstr[U]
}

func NewUnary[T, U any](op catalogue.Operator, operand ReadInstr[U]) *Unary[T, U] {
	if !catalogue.IsUnary(op) {
		panic(fmt.Sprintf("instr: %s is not a unary operator", op))
	}
	return &Unary[T, U]{Op: op, Operand: operand}
}

func (u *Unary[T, U]) CollectReads(acc []*event.ReadEvent) []*event.ReadEvent {
	return u.Operand.CollectReads(acc)
}
func (u *Unary[T, U]) GuardPtr() ReadInstr[bool] { return u.Operand.GuardPtr() }
func (u *Unary[T, U]) Encode(ctx EncodeContext) Value {
	return ctx.Apply(u.Op, u.Operand.Encode(ctx))
}

// Binary applies a binary operator to two operands, which must share an
// identical guard node.
type Binary[T, U, V any] struct {
	Op    catalogue.Operator
	Left  ReadInstr[U]
	Right ReadInstr[V]
	guard ReadInstr[bool]
}

func NewBinary[T, U, V any](op catalogue.Operator, left ReadInstr[U], right ReadInstr[V]) *Binary[T, U, V] {
	if catalogue.IsUnary(op) {
		panic(fmt.Sprintf("instr: %s is not a binary operator", op))
	}
	guard := checkGuards(left.GuardPtr(), right.GuardPtr())
	return &Binary[T, U, V]{Op: op, Left: left, Right: right, guard: guard}
}

// CollectReads visits the right operand before the left so that, combined
// with Basic's front-insertion, the resulting list is left-to-right.
func (b *Binary[T, U, V]) CollectReads(acc []*event.ReadEvent) []*event.ReadEvent {
	acc = b.Right.CollectReads(acc)
	acc = b.Left.CollectReads(acc)
	return acc
}
func (b *Binary[T, U, V]) GuardPtr() ReadInstr[bool] { return b.guard }
func (b *Binary[T, U, V]) Encode(ctx EncodeContext) Value {
	return ctx.Apply(b.Op, b.Left.Encode(ctx), b.Right.Encode(ctx))
}

// Nary folds a list of operands under a single commutative-monoid
// operator (ADD, LAND, or LOR). Nested Nary nodes over the same operator
// are flattened in, and a list degenerating to one operand collapses to
// that operand directly rather than a singleton Nary.
type Nary[T any] struct {
	Op       catalogue.Operator
	Operands []ReadInstr[T]
	guard    ReadInstr[bool]
}

// NewNary returns ReadInstr[T] rather than *Nary[T]: a list that flattens
// down to a single operand is returned as that operand, matching the
// degeneration rule.
func NewNary[T any](op catalogue.Operator, operands []ReadInstr[T]) ReadInstr[T] {
	if !catalogue.IsCommutativeMonoid(op) {
		panic(fmt.Sprintf("instr: %s is not a commutative monoid operator", op))
	}
	flat := make([]ReadInstr[T], 0, len(operands))
	for _, o := range operands {
		if n, ok := o.(*Nary[T]); ok && n.Op == op {
			flat = append(flat, n.Operands...)
			continue
		}
		flat = append(flat, o)
	}
	if len(flat) == 0 {
		panic("instr: Nary requires at least one operand")
	}
	if len(flat) == 1 {
		return flat[0]
	}
	guards := make([]ReadInstr[bool], len(flat))
	for i, o := range flat {
		guards[i] = o.GuardPtr()
	}
	guard := checkGuards(guards...)
	return &Nary[T]{Op: op, Operands: flat, guard: guard}
}

// CollectReads walks operands right-to-left so that, combined with
// Basic's front-insertion, the result is left-to-right overall.
func (n *Nary[T]) CollectReads(acc []*event.ReadEvent) []*event.ReadEvent {
	for i := len(n.Operands) - 1; i >= 0; i-- {
		acc = n.Operands[i].CollectReads(acc)
	}
	return acc
}
func (n *Nary[T]) GuardPtr() ReadInstr[bool] { return n.guard }
func (n *Nary[T]) Encode(ctx EncodeContext) Value {
	args := make([]Value, len(n.Operands))
	for i, o := range n.Operands {
		args[i] = o.Encode(ctx)
	}
	return ctx.Apply(n.Op, args...)
}

// Deref reads a single element of an array-valued variable: array[index].
type Deref[T, U any] struct {
	Array ReadInstr[U] // the array-typed operand, U is the element array type
	Index ReadInstr[T]
	guard ReadInstr[bool]
}

func NewDeref[T, U any](array ReadInstr[U], index ReadInstr[T]) *Deref[T, U] {
	guard := checkGuards(array.GuardPtr(), index.GuardPtr())
	return &Deref[T, U]{Array: array, Index: index, guard: guard}
}

func (d *Deref[T, U]) CollectReads(acc []*event.ReadEvent) []*event.ReadEvent {
	acc = d.Index.CollectReads(acc)
	acc = d.Array.CollectReads(acc)
	return acc
}
func (d *Deref[T, U]) GuardPtr() ReadInstr[bool] { return d.guard }
func (d *Deref[T, U]) Encode(ctx EncodeContext) Value {
	return ctx.Select(d.Array.Encode(ctx), d.Index.Encode(ctx))
}

// Filter returns the list of ReadEvents instr transitively depends on, in
// left-to-right postorder, for appending into a thread's slice.
func Filter[T any](instr ReadInstr[T]) []*event.ReadEvent {
	return instr.CollectReads(nil)
}
