// Package lisp implements the sandboxed script engine of spec.md §4.G/H:
// a small, time-sliced Lisp dialect driven by scheduled re-entry, with
// host-supplied primitives gated by a typed register manager. This is
// deliberately not a general-purpose Lisp (spec.md §1 Non-goals).
package lisp

import "fmt"

// Kind discriminates a Value's underlying representation.
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindBool
	KindSymbol
	KindString
	KindCell
	KindClosure
	KindPrimitive
)

// Value is the tagged union every Lisp datum is represented as. The
// source's dynamic-dispatch-on-pointers design (spec.md §9) is replaced
// by this explicit sum type.
type Value struct {
	kind Kind

	i    int64
	b    bool
	s    string
	cell *Cell
	clo  *Closure
	prim Primitive
}

// Cell is a cons pair. The empty list is not a Cell; it is the Nil()
// value.
type Cell struct {
	Car Value
	Cdr Value
}

func Nil() Value                 { return Value{kind: KindNil} }
func Int(v int64) Value          { return Value{kind: KindInt, i: v} }
func Bool(v bool) Value          { return Value{kind: KindBool, b: v} }
func Symbol(v string) Value      { return Value{kind: KindSymbol, s: v} }
func String(v string) Value      { return Value{kind: KindString, s: v} }
func Cons(car, cdr Value) Value  { return Value{kind: KindCell, cell: &Cell{Car: car, Cdr: cdr}} }
func ClosureVal(c *Closure) Value { return Value{kind: KindClosure, clo: c} }
func PrimitiveVal(p Primitive) Value { return Value{kind: KindPrimitive, prim: p} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsTruthy follows the dialect's only truthiness rule: everything except
// nil and (bool false) is true.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (v Value) AsBool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	default:
		return v.IsTruthy()
	}
}

func (v Value) AsSymbol() string { return v.s }
func (v Value) AsString() string { return v.s }
func (v Value) AsCell() *Cell     { return v.cell }
func (v Value) AsClosure() *Closure { return v.clo }
func (v Value) AsPrimitive() Primitive { return v.prim }

// Closure is a user-defined Lisp function: captured environment, formal
// parameter names, and a body to evaluate on apply.
type Closure struct {
	Params []string
	Body   Value
	Env    *Env
}

// List builds a proper list from vs.
func List(vs ...Value) Value {
	out := Nil()
	for i := len(vs) - 1; i >= 0; i-- {
		out = Cons(vs[i], out)
	}
	return out
}

// Each calls fn for every element of a proper list value.
func Each(v Value, fn func(Value)) {
	for v.kind == KindCell {
		fn(v.cell.Car)
		v = v.cell.Cdr
	}
}

// Slice collects a proper list into a Go slice.
func Slice(v Value) []Value {
	var out []Value
	Each(v, func(e Value) { out = append(out, e) })
	return out
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindBool:
		if v.b {
			return "t"
		}
		return "f"
	case KindSymbol:
		return v.s
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindCell:
		return listString(v)
	case KindClosure:
		return "#<closure>"
	case KindPrimitive:
		return "#<primitive>"
	default:
		return "#<unknown>"
	}
}

func listString(v Value) string {
	s := "("
	first := true
	for v.kind == KindCell {
		if !first {
			s += " "
		}
		first = false
		s += v.cell.Car.String()
		v = v.cell.Cdr
	}
	if v.kind != KindNil {
		s += " . " + v.String()
	}
	return s + ")"
}
