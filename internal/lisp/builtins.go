package lisp

import (
	"fmt"

	"uniotcore/internal/cbor"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/register"
)

// Clicker is implemented by the object-register handle bclicked reads
// (component K's Button, registered under bclicked/"ctrl" per spec.md
// §4.H, §4.K).
type Clicker interface {
	ReadAndResetClick() bool
}

// bindBuiltins installs the host-supplied primitives of spec.md §4.H
// into the current environment. Called fresh by RunCode every time a new
// interpreter is created.
func (eng *Engine) bindBuiltins() error {
	for _, p := range []Primitive{
		isEventPrimitive(),
		popEventPrimitive(),
		pushEventPrimitive(),
		dwritePrimitive(),
		dreadPrimitive(),
		awritePrimitive(),
		areadPrimitive(),
		bclickedPrimitive(),
	} {
		if err := eng.charge(bindingSize); err != nil {
			return err
		}
		eng.env.Define(p.Describe().Name, PrimitiveVal(p))
	}
	return nil
}

func isEventPrimitive() Primitive {
	return newPrimitive("is_event", ArgBool, []ArgType{ArgSymbol}, func(eng *Engine, args []Value) (Value, error) {
		q, ok := eng.incoming[args[0].AsSymbol()]
		return Bool(ok && !q.IsEmpty()), nil
	})
}

func popEventPrimitive() Primitive {
	return newPrimitive("pop_event", ArgInt, []ArgType{ArgSymbol}, func(eng *Engine, args []Value) (Value, error) {
		q, ok := eng.incoming[args[0].AsSymbol()]
		if !ok {
			return Int(0), nil
		}
		v, ok := q.Pop()
		if !ok {
			return Int(0), nil
		}
		return Int(v), nil
	})
}

// pushEventPrimitive implements `(push_event id value)`: wraps the pair
// in a CBOR map, sends it on OUT_EVENT, and emits the two notification
// messages downstream consumers (the MQTT kit) watch for (spec.md §4.H,
// §6 "CBOR event payload").
func pushEventPrimitive() Primitive {
	return newPrimitive("push_event", ArgBool, []ArgType{ArgSymbol, ArgBoolInt}, func(eng *Engine, args []Value) (Value, error) {
		obj := cbor.NewObject()
		obj.PutText("eventID", args[0].AsSymbol())
		obj.PutInt64("value", args[1].AsInt())

		data, err := obj.Encode()
		if err != nil {
			return Bool(false), nil
		}
		eng.bus.SendDataToChannel(fourcc.TopicOutEvent, data)
		eng.bus.EmitEvent(fourcc.TopicOutEvent, fourcc.MsgOutLispEvent)
		eng.bus.EmitEvent(fourcc.TopicOutEvent, fourcc.MsgOutNewEvent)
		return Bool(true), nil
	})
}

func dwritePrimitive() Primitive {
	return newPrimitive("dwrite", ArgBool, []ArgType{ArgInt, ArgBoolInt}, func(eng *Engine, args []Value) (Value, error) {
		idx := int(args[0].AsInt())
		if !eng.regs.DigitalWrite("dwrite", idx, args[1].AsBool()) {
			return Nil(), fmt.Errorf("lisp: dwrite: register index %d out of range", idx)
		}
		return Bool(true), nil
	})
}

func dreadPrimitive() Primitive {
	return newPrimitive("dread", ArgBool, []ArgType{ArgInt}, func(eng *Engine, args []Value) (Value, error) {
		idx := int(args[0].AsInt())
		v, ok := eng.regs.DigitalRead("dread", idx)
		if !ok {
			return Nil(), fmt.Errorf("lisp: dread: register index %d out of range", idx)
		}
		return Bool(v), nil
	})
}

func awritePrimitive() Primitive {
	return newPrimitive("awrite", ArgBool, []ArgType{ArgInt, ArgInt}, func(eng *Engine, args []Value) (Value, error) {
		idx := int(args[0].AsInt())
		if !eng.regs.AnalogWrite("awrite", idx, int(args[1].AsInt())) {
			return Nil(), fmt.Errorf("lisp: awrite: register index %d out of range", idx)
		}
		return Bool(true), nil
	})
}

func areadPrimitive() Primitive {
	return newPrimitive("aread", ArgInt, []ArgType{ArgInt}, func(eng *Engine, args []Value) (Value, error) {
		idx := int(args[0].AsInt())
		v, ok := eng.regs.AnalogRead("aread", idx)
		if !ok {
			return Nil(), fmt.Errorf("lisp: aread: register index %d out of range", idx)
		}
		return Int(int64(v)), nil
	})
}

// bclickedPrimitive implements `(bclicked id)`: resolves the Button
// object handle at "bclicked"/id and reads-and-resets its click flag
// (spec.md §4.H).
func bclickedPrimitive() Primitive {
	return newPrimitive("bclicked", ArgBool, []ArgType{ArgInt}, func(eng *Engine, args []Value) (Value, error) {
		idx := int(args[0].AsInt())
		btn, ok := register.GetObject[Clicker](eng.regs, "bclicked", idx)
		if !ok {
			return Bool(false), nil
		}
		return Bool(btn.ReadAndResetClick()), nil
	})
}
