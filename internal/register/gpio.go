package register

import (
	"uniotcore/internal/container"
	"uniotcore/internal/platform/gpio"
)

// gpioTable is the GPIO half of the register manager (spec.md §3
// "Register (GPIO)"): name -> ordered pin sequence, with pin direction
// committed at assignment time through the platform driver. Backed by an
// OrderedMap so SerializeRegisters walks names in assignment order
// instead of Go's randomized map iteration.
type gpioTable struct {
	names  *container.OrderedMap[string, []uint8]
	driver gpio.Driver
}

func newGPIOTable(driver gpio.Driver) *gpioTable {
	return &gpioTable{names: container.NewOrderedMap[string, []uint8](), driver: driver}
}

func (t *gpioTable) assign(name string, mode gpio.Mode, pins []uint8) {
	cp := append([]uint8(nil), pins...)
	t.names.Set(name, cp)
	for _, p := range cp {
		t.driver.SetMode(p, mode)
	}
}

func (t *gpioTable) get(name string, index int) (uint8, bool) {
	pins, ok := t.names.Get(name)
	if !ok || index < 0 || index >= len(pins) {
		return 0, false
	}
	return pins[index], true
}

func (t *gpioTable) length(name string) (int, bool) {
	pins, ok := t.names.Get(name)
	return len(pins), ok
}

func (t *gpioTable) digitalWrite(name string, index int, v bool) bool {
	pin, ok := t.get(name, index)
	if !ok {
		return false
	}
	t.driver.DigitalWrite(pin, v)
	return true
}

func (t *gpioTable) digitalRead(name string, index int) (bool, bool) {
	pin, ok := t.get(name, index)
	if !ok {
		return false, false
	}
	return t.driver.DigitalRead(pin), true
}

func (t *gpioTable) analogWrite(name string, index int, v int) bool {
	pin, ok := t.get(name, index)
	if !ok {
		return false
	}
	t.driver.AnalogWrite(pin, v)
	return true
}

func (t *gpioTable) analogRead(name string, index int) (int, bool) {
	pin, ok := t.get(name, index)
	if !ok {
		return 0, false
	}
	return t.driver.AnalogRead(pin), true
}
