package netctl

import (
	"log/slog"

	"uniotcore/internal/cbor"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/platform/gpio"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/scheduler"
	"uniotcore/internal/storage"
)

const rebootStateName = "netctl.boot"

// ledPattern is a blink rate the controller drives the status LED at
// (spec.md §4.K "maps states to LED patterns").
type ledPattern struct {
	// periodMs is the full on/off cycle length; 0 means "solid off".
	periodMs uint32
	// oneShotMs, if non-zero, overrides periodMs for a single flash
	// rather than a repeating blink (spec.md §4.K "SUCCESS -> idle (one
	// 200 ms flash)").
	oneShotMs uint32
}

var (
	patternIdle        = ledPattern{oneShotMs: 200}
	patternWaiting     = ledPattern{periodMs: 1000} // 1 Hz
	patternBusy        = ledPattern{periodMs: 500}  // 2 Hz
	patternAlarm       = ledPattern{periodMs: 200}  // 5 Hz
)

// Watchdog tracks the reboot-loop counter (spec.md §4.K "Reboot-loop
// watchdog"): a persisted count incremented every boot, reset after
// rebootWindowMs of stable uptime, forcing forget() once it reaches
// maxRebootCount before that window elapses.
type Watchdog struct {
	store          *storage.CBORStore
	maxRebootCount int64
	rebootWindowMs uint32

	remainingMs uint32
	tripped     bool
}

// NewWatchdog loads (or initializes) the persisted reboot counter from
// store and increments it for this boot, per spec.md §4.K.
func NewWatchdog(store *storage.CBORStore, maxRebootCount int64, rebootWindowMs uint32) *Watchdog {
	w := &Watchdog{store: store, maxRebootCount: maxRebootCount, rebootWindowMs: rebootWindowMs, remainingMs: rebootWindowMs}
	count := w.load() + 1
	w.save(count)
	if count >= w.maxRebootCount {
		w.tripped = true
	}
	return w
}

func (w *Watchdog) load() int64 {
	obj, ok := w.store.Restore(rebootStateName)
	if !ok {
		return 0
	}
	return obj.GetInt64("rebootCount")
}

// RebootCount reports the persisted reboot counter without incrementing
// it, for inspection by cmd/uniotctl status.
func RebootCount(store *storage.CBORStore) int64 {
	obj, ok := store.Restore(rebootStateName)
	if !ok {
		return 0
	}
	return obj.GetInt64("rebootCount")
}

func (w *Watchdog) save(count int64) {
	obj := cbor.NewObject()
	obj.PutInt64("rebootCount", count)
	_ = w.store.Store(rebootStateName, obj)
}

// Tick advances the stable-uptime window by elapsedMs, resetting the
// persisted counter once the window elapses without a reboot (spec.md
// §4.K "After rebootWindowMs of stable uptime, the counter is reset").
func (w *Watchdog) Tick(elapsedMs uint32) {
	if w.remainingMs == 0 {
		return
	}
	if elapsedMs >= w.remainingMs {
		w.remainingMs = 0
		w.save(0)
		return
	}
	w.remainingMs -= elapsedMs
}

// Tripped reports whether this boot's reboot count reached
// maxRebootCount before the stability window elapsed — the controller
// calls Forget() once, at construction, when this is true.
func (w *Watchdog) Tripped() bool { return w.tripped }

// Controller observes the network scheduler's CONNECTION events, drives
// the status LED pattern, runs the reboot-loop watchdog, and wires button
// long-presses to reconnect()/forget() (spec.md §4.K "Controller").
type Controller struct {
	sched *Scheduler
	wd    *Watchdog

	led         gpio.Driver
	ledPin      uint8
	ledHasPin   bool
	ledActiveLevel bool

	pattern    ledPattern
	ledOn      bool
	elapsedMs  uint32
	oneShotLeft uint32

	prevState State

	button *Button

	creds CredentialStore

	listener *event.Listener

	task *scheduler.Task
	log  *slog.Logger
}

// NewController wires a Controller around sched, driving led (ledHasPin
// false if the LED pin is absent per spec.md §6 "absent if UINT8_MAX"),
// the reboot-loop watchdog wd, button, and the credential store creds
// used by reconnect/forget recovery actions. newTimer backs the
// controller's single 20 ms tick task.
func NewController(sched *Scheduler, wd *Watchdog, led gpio.Driver, ledPin uint8, ledHasPin, ledActiveLevel bool, button *Button, creds CredentialStore, newTimer timer.Factory) *Controller {
	c := &Controller{
		sched:          sched,
		wd:             wd,
		led:            led,
		ledPin:         ledPin,
		ledHasPin:      ledHasPin,
		ledActiveLevel: ledActiveLevel,
		pattern:        patternWaiting,
		prevState:      sched.State(),
		button:         button,
		creds:          creds,
		log:            slog.Default(),
	}
	if ledHasPin {
		led.SetMode(ledPin, gpio.ModeDigitalOutput)
	}
	c.listener = event.NewListener(c.onConnectionEvent)
	c.listener.Subscribe(fourcc.TopicConnection)
	c.task = scheduler.NewTask("netctl.controller", newTimer, c.tick)

	if wd.Tripped() {
		c.log.Warn("netctl: reboot-loop watchdog tripped, forgetting credentials")
		_ = c.sched.Forget(c.creds)
	}
	return c
}

// RegisterEntities satisfies event.Kit.
func (c *Controller) RegisterEntities(b *event.Bus) { b.RegisterEntity(c.listener) }

// UnregisterEntities satisfies event.Kit.
func (c *Controller) UnregisterEntities(b *event.Bus) { b.UnregisterEntity(c.listener) }

// RegisterTasks satisfies scheduler.Kit: a single 20 ms tick drives LED
// blinking, button sampling, and the reboot-window countdown.
func (c *Controller) RegisterTasks(s *scheduler.Scheduler) {
	s.Push("netctl.controller", c.task)
	_ = c.task.Attach(20, 0)
}

func (c *Controller) onConnectionEvent(_ event.Topic, msg event.Message) {
	switch msg {
	case fourcc.MsgConnSuccess:
		c.setPattern(patternIdle)
	case fourcc.MsgConnAccessPoint:
		c.setPattern(patternWaiting)
	case fourcc.MsgConnConnecting:
		c.setPattern(patternBusy)
	case fourcc.MsgConnFailed:
		c.setPattern(patternAlarm)
		c.sched.Config()
	case fourcc.MsgConnDisconnected:
		c.setPattern(patternWaiting)
		if c.prevState != StateConnecting {
			c.sched.Reconnect()
		}
	case fourcc.MsgConnAvailable:
		c.setPattern(patternWaiting)
		c.sched.Reconnect()
	}
	c.prevState = c.sched.State()
}

func (c *Controller) setPattern(p ledPattern) {
	c.pattern = p
	c.elapsedMs = 0
	if p.oneShotMs > 0 {
		c.oneShotLeft = p.oneShotMs
		c.setLED(true)
	}
}

func (c *Controller) setLED(on bool) {
	c.ledOn = on
	if c.ledHasPin {
		c.led.DigitalWrite(c.ledPin, on == c.ledActiveLevel)
	}
}

// tick is the controller's scheduled task callback (spec.md §5: all
// button/LED/watchdog state changes only ever happen from here).
func (c *Controller) tick(_ *scheduler.Task, _ int32) {
	const periodMs = 20

	c.wd.Tick(periodMs)

	if c.button != nil {
		c.button.Sample(periodMs)
	}

	if c.oneShotLeft > 0 {
		if c.oneShotLeft <= periodMs {
			c.oneShotLeft = 0
			c.setLED(false)
		} else {
			c.oneShotLeft -= periodMs
		}
		return
	}

	if c.pattern.periodMs == 0 {
		return
	}
	c.elapsedMs += periodMs
	half := c.pattern.periodMs / 2
	if c.elapsedMs >= half {
		c.elapsedMs -= half
		c.setLED(!c.ledOn)
	}
}

// OnButtonLongPress is Button's onLongPress callback: forget() if the
// click count exceeds 3, otherwise reconnect() (spec.md §4.K "Button
// logic").
func (c *Controller) OnButtonLongPress(clickCount int) {
	if clickCount > 3 {
		if err := c.sched.Forget(c.creds); err != nil {
			c.log.Warn("netctl: forget credentials", "error", err)
		}
		return
	}
	c.sched.Reconnect()
}
