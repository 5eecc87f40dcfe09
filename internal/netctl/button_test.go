package netctl

import (
	"testing"

	"uniotcore/internal/platform/gpio"
)

const testButtonPin uint8 = 4

func TestButtonShortClickSetsClickFlag(t *testing.T) {
	driver := gpio.NewSimulated()
	b := NewButton(driver, testButtonPin, true, 1000, nil)

	driver.DigitalWrite(testButtonPin, true)
	b.Sample(20)
	driver.DigitalWrite(testButtonPin, false)
	b.Sample(20)

	if !b.ReadAndResetClick() {
		t.Fatal("expected a click to be recorded after a short press")
	}
	if b.ReadAndResetClick() {
		t.Fatal("expected ReadAndResetClick to clear the flag")
	}
}

func TestButtonLongPressInvokesCallbackWithClickCount(t *testing.T) {
	driver := gpio.NewSimulated()
	var gotCount = -1
	b := NewButton(driver, testButtonPin, true, 1000, func(count int) {
		gotCount = count
	})

	// Two short clicks first.
	for i := 0; i < 2; i++ {
		driver.DigitalWrite(testButtonPin, true)
		b.Sample(20)
		driver.DigitalWrite(testButtonPin, false)
		b.Sample(20)
	}
	b.ReadAndResetClick()

	// Now a long press, held past 1000ms.
	driver.DigitalWrite(testButtonPin, true)
	for held := uint32(0); held < 1100; held += 100 {
		b.Sample(100)
	}
	driver.DigitalWrite(testButtonPin, false)
	b.Sample(20)

	if gotCount != 2 {
		t.Fatalf("onLongPress count = %d, want 2", gotCount)
	}
	if b.ReadAndResetClick() {
		t.Fatal("a long press must not also set the click flag")
	}
}

func TestButtonClickWindowExpires(t *testing.T) {
	driver := gpio.NewSimulated()
	b := NewButton(driver, testButtonPin, true, 1000, nil)

	driver.DigitalWrite(testButtonPin, true)
	b.Sample(10)
	driver.DigitalWrite(testButtonPin, false)
	b.Sample(10)

	// Let the 5s click window fully expire.
	b.Sample(clickWindowMs + 1)

	if b.clicksInWindow != 0 {
		t.Fatalf("clicksInWindow = %d, want 0 after window expiry", b.clicksInWindow)
	}
}
