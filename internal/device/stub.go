//go:build !linux

package device

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// GPIOButton is not available on non-Linux platforms.
type GPIOButton struct{}

// NewGPIOButton returns an error on non-Linux platforms.
func NewGPIOButton(chip string, offset int, debounce time.Duration) (*GPIOButton, error) {
	return nil, errUnsupported
}

func (b *GPIOButton) Pressing() bool { return false }
func (b *GPIOButton) OnPressed(func()) {}
func (b *GPIOButton) OnReleased(func()) {}
func (b *GPIOButton) Close() error { return nil }

// PneumaticPins are the GPIO offsets of the solenoid valves and pump relay.
type PneumaticPins struct {
	Cylinder1 int
	Cylinder2 int
	Pump      int
}

// GPIOPneumatic is not available on non-Linux platforms.
type GPIOPneumatic struct{}

// NewGPIOPneumatic returns an error on non-Linux platforms.
func NewGPIOPneumatic(chipName string, pins PneumaticPins) (*GPIOPneumatic, error) {
	return nil, errUnsupported
}

func (p *GPIOPneumatic) Extend(Cylinder) {}
func (p *GPIOPneumatic) Retract(Cylinder) {}
func (p *GPIOPneumatic) PumpOn() {}
func (p *GPIOPneumatic) PumpOff() {}
func (p *GPIOPneumatic) Close() error { return nil }

// GPIOIndicator is not available on non-Linux platforms.
type GPIOIndicator struct{}

// NewGPIOIndicator returns an error on non-Linux platforms.
func NewGPIOIndicator(chip string, offset int) (*GPIOIndicator, error) {
	return nil, errUnsupported
}

func (i *GPIOIndicator) SetColor(Color) {}
func (i *GPIOIndicator) Off() {}
func (i *GPIOIndicator) Close() error { return nil }
