package lisp

import (
	"testing"

	"uniotcore/internal/cbor"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/platform/gpio"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/register"
	"uniotcore/internal/scheduler"
)

func newTestEngine(t *testing.T) (*Engine, *register.Manager, *gpio.Simulated, *event.Bus, *timer.SimulatedClock) {
	t.Helper()
	driver := gpio.NewSimulated()
	regs := register.NewManager(driver)
	bus := event.NewBus()
	newTimer, clock := timer.NewSimulated()
	sched := scheduler.New(nil)
	eng := NewEngine(bus, regs, sched, newTimer, 8000)
	return eng, regs, driver, bus, clock
}

func TestEvalQuoteIfDefine(t *testing.T) {
	eng, _, _, _, _ := newTestEngine(t)
	eng.heap = NewHeap(eng.heapBytes)
	env := NewEnv()

	forms, err := NewReader(`(quote (1 2 3))`).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, err := Eval(eng, env, forms[0])
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.String() != "(1 2 3)" {
		t.Fatalf("quote result = %s, want (1 2 3)", v.String())
	}

	forms, _ = NewReader(`(if t 1 2)`).ReadAll()
	v, err = Eval(eng, env, forms[0])
	if err != nil || v.AsInt() != 1 {
		t.Fatalf("if-true result = %v, err=%v, want 1", v, err)
	}

	forms, _ = NewReader(`(define x 5) (if f x 9)`).ReadAll()
	if _, err := Eval(eng, env, forms[0]); err != nil {
		t.Fatalf("define: %v", err)
	}
	v, err = Eval(eng, env, forms[1])
	if err != nil || v.AsInt() != 9 {
		t.Fatalf("if-false result = %v, err=%v, want 9", v, err)
	}
}

// TestScriptSchedulesRepeatedDigitalWrites covers spec.md §8 scenario 4:
// a self-rescheduling script that writes its remaining repeat count to a
// digital output pin stays attached across 5 scheduler passes. The test
// checks attachment and that pin 0 is configured as an output; it does
// not count the writes.
func TestScriptSchedulesRepeatedDigitalWrites(t *testing.T) {
	eng, regs, driver, _, clock := newTestEngine(t)
	regs.SetDigitalOutput("dwrite", 0)

	err := eng.RunCode([]byte(`(task -1 1000 (dwrite 0 #t_pass))`))
	if err != nil {
		t.Fatalf("RunCode: %v", err)
	}
	if !eng.evalTask.IsAttached() {
		t.Fatalf("eval task should remain attached for an infinite task")
	}

	for i := 0; i < 5; i++ {
		clock.Advance(1000)
		eng.sched.Loop(1000)
	}

	if !eng.evalTask.IsAttached() {
		t.Fatalf("infinite task should still be attached after 5 passes")
	}
	if _, ok := driver.ModeOf(0); !ok {
		t.Fatalf("pin 0 was never configured as an output")
	}
}

// TestPushEventThenIngestThenPopEvent covers spec.md §8 scenario 5: a
// script pushes an event, the CBOR payload round-trips through the
// OUT_EVENT/IN_EVENT channels the way the broker loop would relay it,
// and popping it back out returns the original value, with a second pop
// reporting 0.
func TestPushEventThenIngestThenPopEvent(t *testing.T) {
	eng, _, _, bus, _ := newTestEngine(t)
	bus.OpenDataChannel(fourcc.TopicOutEvent, 4)
	bus.OpenDataChannel(fourcc.TopicInEvent, 4)

	if err := eng.RunCode([]byte(`(push_event 'ping 42)`)); err != nil {
		t.Fatalf("RunCode: %v", err)
	}

	data, ok := bus.ReceiveDataFromChannel(fourcc.TopicOutEvent)
	if !ok {
		t.Fatalf("expected a CBOR payload on OUT_EVENT")
	}
	obj, err := cbor.DecodeObject(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if obj.GetText("eventID") != "ping" || obj.GetInt64("value") != 42 {
		t.Fatalf("decoded = %+v, want eventID=ping value=42", obj)
	}

	// Simulate the broker relaying the event back in.
	bus.SendDataToChannel(fourcc.TopicInEvent, data)
	bus.EmitEvent(fourcc.TopicInLispEvent, fourcc.MsgInNewEvent)
	bus.Execute()

	pop := popEventPrimitive()
	v, err := pop.Invoke(eng, []Value{Symbol("ping")})
	if err != nil || v.AsInt() != 42 {
		t.Fatalf("first pop_event = %v, err=%v, want 42", v, err)
	}
	v, err = pop.Invoke(eng, []Value{Symbol("ping")})
	if err != nil || v.AsInt() != 0 {
		t.Fatalf("second pop_event = %v, err=%v, want 0", v, err)
	}
}
