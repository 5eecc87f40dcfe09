package lisp

import (
	"log/slog"

	"uniotcore/internal/cbor"
	"uniotcore/internal/container"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/register"
	"uniotcore/internal/scheduler"
)

const incomingQueueCap = 5

// Engine owns one interpreter heap/environment pair at a time and the
// scheduler tasks that drive it (spec.md §4.G "Engine lifecycle").
// Re-architected per spec.md §9 to be an explicit, constructed-once
// context object rather than a module-level singleton.
type Engine struct {
	bus      *event.Bus
	regs     *register.Manager
	sched    *scheduler.Scheduler
	newTimer timer.Factory
	log      *slog.Logger

	heapBytes int
	heap      *Heap
	env       *Env
	lastCode  []byte

	listener    *event.Listener
	evalTask    *scheduler.Task
	cleanupTask *scheduler.Task

	incoming map[string]*container.BoundedQueue[int64]
}

// NewEngine wires a fresh Engine against bus, regs, and sched. heapBytes
// is the fixed interpreter heap size (spec.md §6 "LISP_HEAP, default
// 8000 bytes").
func NewEngine(bus *event.Bus, regs *register.Manager, sched *scheduler.Scheduler, newTimer timer.Factory, heapBytes int) *Engine {
	eng := &Engine{
		bus:       bus,
		regs:      regs,
		sched:     sched,
		newTimer:  newTimer,
		log:       slog.Default(),
		heapBytes: heapBytes,
		incoming:  make(map[string]*container.BoundedQueue[int64]),
	}

	eng.listener = event.NewListener(eng.onIncomingLispEvent)
	eng.listener.Subscribe(fourcc.TopicInLispEvent)
	bus.RegisterEntity(eng.listener)

	eng.evalTask = scheduler.NewTask("lisp.eval", newTimer, eng.evalTaskFired)
	sched.Push("lisp.eval", eng.evalTask)

	eng.cleanupTask = scheduler.NewTask("lisp.cleanup", newTimer, eng.cleanupTaskFired)
	sched.Push("lisp.cleanup", eng.cleanupTask)
	_ = eng.cleanupTask.Attach(15000, 0)

	return eng
}

// RunCode replaces the stored last-code buffer, detaches and destroys
// any prior interpreter, creates a fresh heap/environment, binds
// primitives, and synchronously evaluates src. If the script did not
// schedule itself (the eval task is not attached afterward), the
// interpreter is destroyed immediately (spec.md §4.G).
func (eng *Engine) RunCode(src []byte) error {
	eng.lastCode = append([]byte(nil), src...)
	eng.destroyInterpreter()

	eng.heap = NewHeap(eng.heapBytes)
	eng.env = NewEnv()
	if err := eng.bindBuiltins(); err != nil {
		eng.reportError(err)
		return err
	}

	eng.bus.EmitEvent(fourcc.TopicLispRequest, fourcc.MsgRefreshEvents)

	reader := NewReader(string(src))
	forms, err := reader.ReadAll()
	if err != nil {
		eng.reportError(err)
		return err
	}

	for _, form := range forms {
		if _, err := Eval(eng, eng.env, form); err != nil {
			eng.reportError(err)
			eng.evalTask.Detach()
			break
		}
	}

	if !eng.evalTask.IsAttached() {
		eng.destroyInterpreter()
	}
	return nil
}

func (eng *Engine) destroyInterpreter() {
	eng.evalTask.Detach()
	eng.heap = nil
	eng.env = nil
}

// IsRunning reports whether an interpreter heap/environment currently
// exists.
func (eng *Engine) IsRunning() bool { return eng.env != nil }

// charge debits n bytes against the running interpreter's heap — the
// single choke point every cons cell, scope, binding, and closure
// allocation flows through, so an unbounded recursive script hits
// spec.md §7's "Lisp OOM" instead of growing memory without limit.
func (eng *Engine) charge(n int) error {
	return eng.heap.Alloc(n)
}

func (eng *Engine) reportError(err error) {
	eng.log.Warn("lisp: evaluation error", "error", err)
	eng.bus.EmitEvent(fourcc.TopicLispErr, fourcc.MsgLispError)
}

// yieldIfDue is the interpreter's cycle yield, identical in spirit to
// the scheduler's cooperative yield between tasks (spec.md §5).
func (eng *Engine) yieldIfDue() {
	// A fixed per-call yield point; in this host runtime it does nothing.
}

// evalTaskFired is the eval task's scheduler callback: it resumes
// evaluation of the stored #t_obj form with #t_pass bound to the
// remaining repeat count, then — on the final run — destroys the
// interpreter (spec.md §4.G "Evaluation task").
func (eng *Engine) evalTaskFired(self *scheduler.Task, repeatsLeft int32) {
	if eng.env == nil {
		return
	}
	eng.env.Set("#t_pass", Int(int64(repeatsLeft)))
	body, ok := eng.env.Get("#t_obj")
	if ok {
		if _, err := Eval(eng, eng.env, body); err != nil {
			eng.reportError(err)
		}
	}
	if repeatsLeft == 0 {
		eng.destroyInterpreter()
	}
}

// cleanupTaskFired evicts incoming-event queues that have gone empty
// (spec.md §4.G "Cleanup task").
func (eng *Engine) cleanupTaskFired(self *scheduler.Task, repeatsLeft int32) {
	for id, q := range eng.incoming {
		if q.IsEmpty() {
			delete(eng.incoming, id)
		}
	}
}

// onIncomingLispEvent drains IN_EVENT into the per-id incoming queues
// whenever IN_NEW_EVENT fires (spec.md §4.G "Incoming events").
func (eng *Engine) onIncomingLispEvent(topic event.Topic, msg event.Message) {
	if msg != fourcc.MsgInNewEvent {
		return
	}
	for {
		data, ok := eng.bus.ReceiveDataFromChannel(fourcc.TopicInEvent)
		if !ok {
			return
		}
		obj, err := cbor.DecodeObject(data)
		if err != nil {
			eng.log.Warn("lisp: dropping malformed incoming event", "error", err)
			continue
		}
		id := obj.GetText("eventID")
		if id == "" {
			continue
		}
		value, numeric := obj.GetInt64Checked("value")
		if !numeric && obj.Has("value") {
			eng.log.Warn("lisp: non-numeric event value coerced to 0", "eventID", id)
		}

		q, ok := eng.incoming[id]
		if !ok {
			q = container.NewBoundedQueue[int64](incomingQueueCap)
			eng.incoming[id] = q
		}
		q.Push(value)
	}
}

// Registers returns the engine's register manager, for builtins that
// indirect GPIO/object access through it.
func (eng *Engine) Registers() *register.Manager { return eng.regs }

// Bus returns the engine's event bus, for builtins that publish or
// subscribe.
func (eng *Engine) Bus() *event.Bus { return eng.bus }
