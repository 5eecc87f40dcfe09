// Package timer defines the platform timer primitive the scheduler is
// built against (spec.md §9 Design Notes: "Platform timer (Task)"), and
// ships two implementations — a realtime one for a host/gateway process
// and a manual one for deterministic simulation and tests, standing in
// for the two target MCU timer primitives the original runtime targets.
// The scheduler depends only on the Timer interface.
package timer

// Timer is the narrow contract a platform timer primitive exposes: arm
// at a period, detach, and report whether it is currently armed. The
// callback is invoked from whatever goroutine/ISR-analog the
// implementation uses; callers must not assume it runs on the scheduler
// loop's own goroutine.
type Timer interface {
	// Attach arms the timer at periodMs. If repeatOnce is true, the
	// timer fires its callback once and auto-detaches; otherwise it
	// fires repeatedly every periodMs until Detach is called. Returns an
	// error if the underlying primitive could not be armed (spec.md §4.D:
	// "Timer setup errors surface as attach returning failure").
	Attach(periodMs uint32, repeatOnce bool, callback func()) error
	// Detach stops the timer and frees its resources. Safe to call on an
	// already-detached timer.
	Detach()
	// IsAttached reports whether the timer is currently armed.
	IsAttached() bool
}

// Factory constructs a fresh Timer, one per scheduler Task — mirrors the
// per-task hardware timer allocation of the source runtime.
type Factory func() Timer
