package lisp

import "fmt"

// ArgType is a primitive's declared per-argument type, checked by
// assertDescribedArgs before Invoke runs (spec.md §4.G "Primitive
// contract").
type ArgType uint8

const (
	ArgInt ArgType = iota
	ArgBool
	ArgBoolInt // accepts either Int or Bool, read back via Value.AsInt/AsBool
	ArgSymbol
	ArgCell
	ArgAny
)

// Description is what Describe returns: the primitive's declared shape,
// recorded once at bind time and consulted on every call — the
// replacement for the C original's longjmp-based "steal a description by
// jumping out of the primitive" trick (spec.md §9).
type Description struct {
	Name       string
	ReturnType ArgType
	ArgTypes   []ArgType
}

// Primitive is a host-supplied, Lisp-callable native function. Describe
// never evaluates anything; Invoke runs the primitive body against
// already-evaluated arguments (spec.md §9's two-phase describe/invoke
// redesign of the original's setjmp/longjmp primitive API).
type Primitive interface {
	Describe() Description
	Invoke(eng *Engine, args []Value) (Value, error)
}

// assertDescribedArgs checks args against p's declared Description
// before Invoke runs, raising an interpreter-level error on arity or
// type mismatch (spec.md §4.G, §7 "Lisp type/arity error").
func assertDescribedArgs(p Primitive, args []Value) error {
	d := p.Describe()
	if len(args) != len(d.ArgTypes) {
		return fmt.Errorf("lisp: %s: expected %d args, got %d", d.Name, len(d.ArgTypes), len(args))
	}
	for i, want := range d.ArgTypes {
		if !argMatches(want, args[i]) {
			return fmt.Errorf("lisp: %s: argument %d: expected %s, got %s", d.Name, i, want, args[i].kind)
		}
	}
	return nil
}

func argMatches(want ArgType, v Value) bool {
	switch want {
	case ArgInt:
		return v.kind == KindInt
	case ArgBool:
		return v.kind == KindBool
	case ArgBoolInt:
		return v.kind == KindInt || v.kind == KindBool
	case ArgSymbol:
		return v.kind == KindSymbol
	case ArgCell:
		return v.kind == KindCell || v.kind == KindNil
	case ArgAny:
		return true
	default:
		return false
	}
}

func (t ArgType) String() string {
	switch t {
	case ArgInt:
		return "Int"
	case ArgBool:
		return "Bool"
	case ArgBoolInt:
		return "BoolInt"
	case ArgSymbol:
		return "Symbol"
	case ArgCell:
		return "Cell"
	case ArgAny:
		return "Any"
	default:
		return "?"
	}
}

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "Nil"
	case KindInt:
		return "Int"
	case KindBool:
		return "Bool"
	case KindSymbol:
		return "Symbol"
	case KindString:
		return "String"
	case KindCell:
		return "Cell"
	case KindClosure:
		return "Closure"
	case KindPrimitive:
		return "Primitive"
	default:
		return "?"
	}
}

// namedPrimitive adapts a plain Go func to the Primitive interface for
// built-ins whose description is fixed at construction (spec.md §9
// "dynamic dispatch on primitive pointers" -> sum type keyed by name).
type namedPrimitive struct {
	desc Description
	fn   func(eng *Engine, args []Value) (Value, error)
}

func (p namedPrimitive) Describe() Description { return p.desc }

func (p namedPrimitive) Invoke(eng *Engine, args []Value) (Value, error) {
	return p.fn(eng, args)
}

func newPrimitive(name string, ret ArgType, argTypes []ArgType, fn func(eng *Engine, args []Value) (Value, error)) Primitive {
	return namedPrimitive{desc: Description{Name: name, ReturnType: ret, ArgTypes: argTypes}, fn: fn}
}
