// Package register implements the register manager of spec.md §4.F:
// named, indexed tables of GPIO pins and typed object handles, with
// liveness-checked dereference for the latter.
package register

import (
	"uniotcore/internal/cbor"
	"uniotcore/internal/platform/gpio"
)

// Manager owns the GPIO and object register tables for one device.
type Manager struct {
	gpio   *gpioTable
	object *objectTable
}

// NewManager creates a Manager whose GPIO registers drive pins through
// driver.
func NewManager(driver gpio.Driver) *Manager {
	return &Manager{gpio: newGPIOTable(driver), object: newObjectTable()}
}

// SetDigitalInput assigns pins to name and commits them as digital
// inputs.
func (m *Manager) SetDigitalInput(name string, pins ...uint8) {
	m.gpio.assign(name, gpio.ModeDigitalInput, pins)
}

// SetDigitalOutput assigns pins to name and commits them as digital
// outputs.
func (m *Manager) SetDigitalOutput(name string, pins ...uint8) {
	m.gpio.assign(name, gpio.ModeDigitalOutput, pins)
}

// SetAnalogInput assigns pins to name and commits them as analog inputs.
func (m *Manager) SetAnalogInput(name string, pins ...uint8) {
	m.gpio.assign(name, gpio.ModeAnalogInput, pins)
}

// SetAnalogOutput assigns pins to name and commits them as analog
// outputs.
func (m *Manager) SetAnalogOutput(name string, pins ...uint8) {
	m.gpio.assign(name, gpio.ModeAnalogOutput, pins)
}

// GetGpio returns the pin assigned to (name, index), or ok=false if the
// name or index is unknown.
func (m *Manager) GetGpio(name string, index int) (pin uint8, ok bool) {
	return m.gpio.get(name, index)
}

// DigitalWrite resolves (name, index) to a pin and writes v to it
// through the platform driver. Used by the dwrite Lisp primitive, which
// indirects through the GPIO register assigned to its own name (spec.md
// §4.H).
func (m *Manager) DigitalWrite(name string, index int, v bool) bool {
	return m.gpio.digitalWrite(name, index, v)
}

// DigitalRead resolves (name, index) to a pin and reads it through the
// platform driver.
func (m *Manager) DigitalRead(name string, index int) (v bool, ok bool) {
	return m.gpio.digitalRead(name, index)
}

// AnalogWrite resolves (name, index) to a pin and writes v to it through
// the platform driver.
func (m *Manager) AnalogWrite(name string, index int, v int) bool {
	return m.gpio.analogWrite(name, index, v)
}

// AnalogRead resolves (name, index) to a pin and reads it through the
// platform driver.
func (m *Manager) AnalogRead(name string, index int) (v int, ok bool) {
	return m.gpio.analogRead(name, index)
}

// Link appends (tag, record) to name's object-register sequence.
func (m *Manager) Link(name string, r *Record, tag uint32) {
	m.object.link(name, r, tag)
}

// GetObject resolves the object-register slot at (name, index) and
// type-asserts its backing value to T. Returns ok=false if the slot is
// unknown, its record has been destroyed, or its value is not a T.
func GetObject[T any](m *Manager, name string, index int) (T, bool) {
	var zero T
	v, ok := m.object.get(name, index)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// GetRegisterLength searches the GPIO table then the object table for
// name, returning 0 if neither has it.
func (m *Manager) GetRegisterLength(name string) int {
	if n, ok := m.gpio.length(name); ok {
		return n
	}
	if n, ok := m.object.length(name); ok {
		return n
	}
	return 0
}

// SerializeRegisters writes every GPIO register as an array of pin
// numbers and every object register as an array of tags (never handles)
// into dst under "registers" (spec.md §4.F, §6 status LWT's
// "misc.registers").
func (m *Manager) SerializeRegisters(dst *cbor.Object) {
	regs := dst.Map("registers")
	m.gpio.names.Range(func(name string, pins []uint8) bool {
		regs.Array(name).AppendUint8s(pins)
		return true
	})
	m.object.rangeTags(func(name string, tags []uint32) {
		regs.Array(name).AppendUint32s(tags)
	})
}
