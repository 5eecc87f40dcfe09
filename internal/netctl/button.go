package netctl

import (
	"sync"

	"uniotcore/internal/platform/gpio"
)

// clickWindowMs is the debounced click-counting window (spec.md §4.K
// "counts click events within a 5 s window").
const clickWindowMs = 5000

// Button is a debounced button task sampling pin through driver, tallying
// clicks within a rolling 5 s window and reporting a long press once the
// pin has been held continuously past longPressMs (spec.md §4.K "Button
// logic"). It also satisfies lisp.Clicker so scripts can observe the same
// clicks via the bclicked primitive once registered under the object
// register name "bclicked" (spec.md §4.H, §4.K).
type Button struct {
	mu sync.Mutex

	driver      gpio.Driver
	pin         uint8
	activeLevel bool

	longPressMs uint32

	pressed       bool
	heldMs        uint32
	windowMs      uint32
	clicksInWindow int
	clickFlag     bool

	onLongPress func(clickCount int)
}

// NewButton creates a Button sampling pin through driver. activeLevel is
// the DigitalRead value that means "pressed" (spec.md §6
// "activeLevelBtn"). onLongPress is invoked once per long press with the
// click count accumulated in the window preceding it.
func NewButton(driver gpio.Driver, pin uint8, activeLevel bool, longPressMs uint32, onLongPress func(clickCount int)) *Button {
	driver.SetMode(pin, gpio.ModeDigitalInput)
	return &Button{
		driver:      driver,
		pin:         pin,
		activeLevel: activeLevel,
		longPressMs: longPressMs,
		onLongPress: onLongPress,
	}
}

// Sample polls the pin once, advancing the click window and long-press
// detection by elapsedMs of wall-clock time. Intended to be called from a
// scheduler.Task's callback every tick (spec.md §4.K, §5: all host state
// touched only from scheduler callbacks).
func (b *Button) Sample(elapsedMs uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.windowMs > 0 {
		if elapsedMs >= b.windowMs {
			b.windowMs = 0
			b.clicksInWindow = 0
		} else {
			b.windowMs -= elapsedMs
		}
	}

	down := b.driver.DigitalRead(b.pin) == b.activeLevel

	switch {
	case down && !b.pressed:
		b.pressed = true
		b.heldMs = 0
	case down && b.pressed:
		b.heldMs += elapsedMs
	case !down && b.pressed:
		b.pressed = false
		if b.heldMs >= b.longPressMs {
			count := b.clicksInWindow
			b.clicksInWindow = 0
			b.windowMs = 0
			if b.onLongPress != nil {
				b.onLongPress(count)
			}
		} else {
			b.clickFlag = true
			b.clicksInWindow++
			b.windowMs = clickWindowMs
		}
		b.heldMs = 0
	}
}

// ReadAndResetClick satisfies lisp.Clicker: reports whether a short click
// has happened since the last read, clearing the flag.
func (b *Button) ReadAndResetClick() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.clickFlag
	b.clickFlag = false
	return v
}
