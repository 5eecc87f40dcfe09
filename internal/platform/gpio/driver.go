// Package gpio defines the pin-level driver contract the register
// manager indirects through (spec.md §3 "Register (GPIO)"), with a
// simulated implementation for tests and host/gateway builds — standing
// in for the two real MCU GPIO drivers the original runtime targets
// (spec.md §9 "Platform timer (Task)" names the same two-implementation
// pattern for timers).
package gpio

// Mode is the pin direction/kind a register name commits a pin to when
// it is assigned (spec.md §3: "writing (name, pin) side-effects pin
// direction per name semantics").
type Mode uint8

const (
	ModeDigitalInput Mode = iota
	ModeDigitalOutput
	ModeAnalogInput
	ModeAnalogOutput
)

// Driver is the narrow pin-level contract the register manager depends
// on. Implementations talk to real hardware; Simulated below is for
// tests.
type Driver interface {
	SetMode(pin uint8, mode Mode)
	DigitalWrite(pin uint8, v bool)
	DigitalRead(pin uint8) bool
	AnalogWrite(pin uint8, v int)
	AnalogRead(pin uint8) int
}

// Simulated is an in-memory Driver for tests and non-hardware builds.
type Simulated struct {
	modes   map[uint8]Mode
	digital map[uint8]bool
	analog  map[uint8]int
}

// NewSimulated returns an empty Simulated driver.
func NewSimulated() *Simulated {
	return &Simulated{
		modes:   make(map[uint8]Mode),
		digital: make(map[uint8]bool),
		analog:  make(map[uint8]int),
	}
}

func (s *Simulated) SetMode(pin uint8, mode Mode) { s.modes[pin] = mode }

func (s *Simulated) DigitalWrite(pin uint8, v bool) { s.digital[pin] = v }

func (s *Simulated) DigitalRead(pin uint8) bool { return s.digital[pin] }

func (s *Simulated) AnalogWrite(pin uint8, v int) { s.analog[pin] = v }

func (s *Simulated) AnalogRead(pin uint8) int { return s.analog[pin] }

// ModeOf reports the mode last assigned to pin, for test assertions.
func (s *Simulated) ModeOf(pin uint8) (Mode, bool) {
	m, ok := s.modes[pin]
	return m, ok
}
