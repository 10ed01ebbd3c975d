//go:build linux

package device

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOButton reads a momentary switch wired to a GPIO line.
// The switch pulls the line low when pressed.
type GPIOButton struct {
	line     *gpiocdev.Line
	pressing atomic.Bool

	mu         sync.Mutex
	onPressed  func()
	onReleased func()
}

// NewGPIOButton requests offset on chip as an active-low input with both-edge
// events. debounce is applied by the kernel.
func NewGPIOButton(chip string, offset int, debounce time.Duration) (*GPIOButton, error) {
	b := &GPIOButton{}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.AsActiveLow,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(b.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request button line %d: %w", offset, err)
	}
	b.line = line

	v, err := line.Value()
	if err != nil {
		line.Close()
		return nil, fmt.Errorf("read button line %d: %w", offset, err)
	}
	b.pressing.Store(v == 1)

	return b, nil
}

// handleEvent runs on the gpiocdev watcher goroutine. Values are logical
// (active-low already applied), so rising means pressed.
func (b *GPIOButton) handleEvent(evt gpiocdev.LineEvent) {
	var fn func()
	b.mu.Lock()
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		b.pressing.Store(true)
		fn = b.onPressed
	case gpiocdev.LineEventFallingEdge:
		b.pressing.Store(false)
		fn = b.onReleased
	}
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Pressing reports whether the switch is held.
func (b *GPIOButton) Pressing() bool {
	return b.pressing.Load()
}

// OnPressed sets the press handler.
func (b *GPIOButton) OnPressed(fn func()) {
	b.mu.Lock()
	b.onPressed = fn
	b.mu.Unlock()
}

// OnReleased sets the release handler.
func (b *GPIOButton) OnReleased(fn func()) {
	b.mu.Lock()
	b.onReleased = fn
	b.mu.Unlock()
}

// Close releases the line.
func (b *GPIOButton) Close() error {
	return b.line.Close()
}

// PneumaticPins are the GPIO offsets of the solenoid valves and pump relay.
type PneumaticPins struct {
	Cylinder1 int
	Cylinder2 int
	Pump      int
}

// GPIOPneumatic drives solenoid valves and a pump relay from GPIO outputs.
type GPIOPneumatic struct {
	chip  *gpiocdev.Chip
	lines map[Cylinder]*gpiocdev.Line
	pump  *gpiocdev.Line
}

// NewGPIOPneumatic requests the valve and pump lines as outputs, all low
// (cylinders retracted, pump off).
func NewGPIOPneumatic(chipName string, pins PneumaticPins) (*GPIOPneumatic, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &GPIOPneumatic{chip: chip, lines: make(map[Cylinder]*gpiocdev.Line)}

	for c, offset := range map[Cylinder]int{Cylinder1: pins.Cylinder1, Cylinder2: pins.Cylinder2} {
		l, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request cylinder %d pin %d: %w", c, offset, err)
		}
		p.lines[c] = l
	}

	pump, err := chip.RequestLine(pins.Pump, gpiocdev.AsOutput(0))
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("request pump pin %d: %w", pins.Pump, err)
	}
	p.pump = pump

	return p, nil
}

func (p *GPIOPneumatic) set(l *gpiocdev.Line, v int, what string) {
	if l == nil {
		return
	}
	if err := l.SetValue(v); err != nil {
		log.Printf("pneumatic: set %s: %v", what, err)
	}
}

// Extend opens the valve for c.
func (p *GPIOPneumatic) Extend(c Cylinder) {
	p.set(p.lines[c], 1, fmt.Sprintf("cylinder %d", c))
}

// Retract closes the valve for c.
func (p *GPIOPneumatic) Retract(c Cylinder) {
	p.set(p.lines[c], 0, fmt.Sprintf("cylinder %d", c))
}

// PumpOn energises the pump relay.
func (p *GPIOPneumatic) PumpOn() {
	p.set(p.pump, 1, "pump")
}

// PumpOff releases the pump relay.
func (p *GPIOPneumatic) PumpOff() {
	p.set(p.pump, 0, "pump")
}

// Close drives every line low and releases it.
func (p *GPIOPneumatic) Close() error {
	var errs []error

	all := []*gpiocdev.Line{p.pump}
	for _, l := range p.lines {
		all = append(all, l)
	}
	for _, l := range all {
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("reset line: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// GPIOIndicator lights a single-color LED on a GPIO output. Any color
// lights it.
type GPIOIndicator struct {
	line *gpiocdev.Line
}

// NewGPIOIndicator requests offset on chip as an output, initially off.
func NewGPIOIndicator(chip string, offset int) (*GPIOIndicator, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request led line %d: %w", offset, err)
	}
	return &GPIOIndicator{line: line}, nil
}

// SetColor lights the LED.
func (i *GPIOIndicator) SetColor(Color) {
	if err := i.line.SetValue(1); err != nil {
		log.Printf("led: %v", err)
	}
}

// Off turns the LED off.
func (i *GPIOIndicator) Off() {
	if err := i.line.SetValue(0); err != nil {
		log.Printf("led: %v", err)
	}
}

// Close turns the LED off and releases the line.
func (i *GPIOIndicator) Close() error {
	i.Off()
	return i.line.Close()
}
