// Package stack implements stack manipulations: composable units of code
// generation that emit instructions and report their effect on the size of
// the operand stack, so that the maximum stack depth of a method can be
// computed without walking the emitted code again.
package stack

import (
	"fmt"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
)

// Size describes the effect of a sequence of instructions on the operand
// stack: Impact is the net change of the stack size once all instructions are
// executed, Maximal is the peak stack size reached during execution, relative
// to the stack size before the first instruction. Maximal is always >= 0 and
// >= Impact.
type Size struct {
	Impact  int
	Maximal int
}

// Aggregate returns the size of the instructions of s followed by the
// instructions of other. The peak of other is relative to the stack as left
// by s.
func (s Size) Aggregate(other Size) Size {
	return Size{
		Impact:  s.Impact + other.Impact,
		Maximal: max(s.Maximal, s.Impact+other.Maximal),
	}
}

func (s Size) String() string {
	return fmt.Sprintf("size(%+d, %d)", s.Impact, s.Maximal)
}

// increasing returns the size of instructions that change the stack by n
// slots: a net growth is also the peak, a net shrink has no peak.
func increasing(n int) Size {
	return Size{Impact: n, Maximal: max(0, n)}
}

// Context is the state of the generation of a class that manipulations may
// register work with. It is implemented by *gen.Context.
type Context interface {
	// Cache registers the value computed by recipe to be stored in a
	// synthetic static field of type typ of the class being generated, and
	// returns that field. Calling Cache multiple times with equal recipes and
	// types returns the same field.
	Cache(recipe Manipulation, typ descr.Type) descr.Field
}

// Manipulation is a unit of code generation that emits instructions to an
// asm.Emitter and returns its effect on the operand stack. Apply does not
// fail: invalid inputs are rejected when the manipulation is constructed.
type Manipulation interface {
	Apply(e asm.Emitter, ctx Context) Size
}

// Compound is a Manipulation that applies its parts in order.
type Compound []Manipulation

// Apply applies each manipulation in order and returns the aggregated size.
// An empty Compound returns the zero Size.
func (c Compound) Apply(e asm.Emitter, ctx Context) Size {
	var size Size
	for _, m := range c {
		size = size.Aggregate(m.Apply(e, ctx))
	}
	return size
}

// Trivial is a Manipulation that emits nothing.
type Trivial struct{}

func (Trivial) Apply(asm.Emitter, Context) Size { return Size{} }
