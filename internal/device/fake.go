package device

import (
	"errors"
	"sync"
	"sync/atomic"
)

// FakeDistance is a test double that returns scripted distances.
// Safe for concurrent use.
type FakeDistance struct {
	mu sync.Mutex

	// samples contains scripted distances. Each call to Distance() consumes
	// the next sample; the last one repeats once exhausted.
	samples []float64
	index   int
	reads   int

	notInstalled bool
	readError    error
}

// NewFakeDistance creates an installed FakeDistance with the given samples.
func NewFakeDistance(samples ...float64) *FakeDistance {
	return &FakeDistance{samples: samples}
}

// Installed reports whether the fake is marked installed.
func (f *FakeDistance) Installed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.notInstalled
}

// Distance returns the next scripted sample.
func (f *FakeDistance) Distance() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.readError != nil {
		return 0, f.readError
	}
	if len(f.samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	d := f.samples[f.index]
	if f.index < len(f.samples)-1 {
		f.index++
	}
	return d, nil
}

// Set replaces the script with a single fixed distance.
func (f *FakeDistance) Set(distance float64) {
	f.mu.Lock()
	f.samples = []float64{distance}
	f.index = 0
	f.mu.Unlock()
}

// Script replaces the script with samples and rewinds it.
func (f *FakeDistance) Script(samples ...float64) {
	f.mu.Lock()
	f.samples = samples
	f.index = 0
	f.mu.Unlock()
}

// SetInstalled marks the sensor as connected or not.
func (f *FakeDistance) SetInstalled(installed bool) {
	f.mu.Lock()
	f.notInstalled = !installed
	f.mu.Unlock()
}

// SetReadError makes Distance() fail with err until cleared with nil.
func (f *FakeDistance) SetReadError(err error) {
	f.mu.Lock()
	f.readError = err
	f.mu.Unlock()
}

// Reads returns how many times Distance() was called.
func (f *FakeDistance) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// MotorCall is one recorded motor command.
type MotorCall struct {
	Op      string // "spin", "spinFor", "stop", "velocity", "torque"
	Dir     Direction
	Amount  float64
	Unit    RotationUnit
	Wait    bool
	Mode    BrakeMode
	Percent float64
}

// FakeMotor records commands for test assertions. Safe for concurrent use.
type FakeMotor struct {
	mu       sync.Mutex
	calls    []MotorCall
	spinning bool
	dir      Direction
	mode     BrakeMode
	velocity float64
	torque   float64

	// OnSpinFor, if set, runs on every SpinFor call. Tests use it to advance
	// a fake clock for blocking rotations.
	OnSpinFor func(amount float64, unit RotationUnit, wait bool)
}

// NewFakeMotor creates a stopped FakeMotor.
func NewFakeMotor() *FakeMotor {
	return &FakeMotor{}
}

// Spin starts continuous rotation.
func (m *FakeMotor) Spin(dir Direction) {
	m.mu.Lock()
	m.calls = append(m.calls, MotorCall{Op: "spin", Dir: dir})
	m.spinning = true
	m.dir = dir
	m.mu.Unlock()
}

// SpinFor records a bounded rotation. The motor is not left spinning.
func (m *FakeMotor) SpinFor(dir Direction, amount float64, unit RotationUnit, wait bool) {
	m.mu.Lock()
	m.calls = append(m.calls, MotorCall{Op: "spinFor", Dir: dir, Amount: amount, Unit: unit, Wait: wait})
	m.spinning = false
	m.dir = dir
	hook := m.OnSpinFor
	m.mu.Unlock()

	if hook != nil {
		hook(amount, unit, wait)
	}
}

// Stop stops the motor.
func (m *FakeMotor) Stop(mode BrakeMode) {
	m.mu.Lock()
	m.calls = append(m.calls, MotorCall{Op: "stop", Mode: mode})
	m.spinning = false
	m.mode = mode
	m.mu.Unlock()
}

// SetVelocity records the velocity.
func (m *FakeMotor) SetVelocity(percent float64) {
	m.mu.Lock()
	m.calls = append(m.calls, MotorCall{Op: "velocity", Percent: percent})
	m.velocity = percent
	m.mu.Unlock()
}

// SetMaxTorque records the torque limit.
func (m *FakeMotor) SetMaxTorque(percent float64) {
	m.mu.Lock()
	m.calls = append(m.calls, MotorCall{Op: "torque", Percent: percent})
	m.torque = percent
	m.mu.Unlock()
}

// Calls returns a copy of the recorded commands.
func (m *FakeMotor) Calls() []MotorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MotorCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Spinning reports whether the last command left the motor spinning, and
// in which direction.
func (m *FakeMotor) Spinning() (bool, Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spinning, m.dir
}

// LastStop returns the brake mode of the last Stop call.
func (m *FakeMotor) LastStop() BrakeMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Velocity returns the last velocity set.
func (m *FakeMotor) Velocity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.velocity
}

// Torque returns the last torque limit set.
func (m *FakeMotor) Torque() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.torque
}

// Reset clears recorded calls.
func (m *FakeMotor) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

// FakePneumatic records pneumatic commands. Safe for concurrent use.
type FakePneumatic struct {
	mu       sync.Mutex
	extended map[Cylinder]bool
	pump     bool
	calls    []string
}

// NewFakePneumatic creates a FakePneumatic with both cylinders retracted and
// the pump off.
func NewFakePneumatic() *FakePneumatic {
	return &FakePneumatic{extended: make(map[Cylinder]bool)}
}

// Extend extends cylinder c.
func (p *FakePneumatic) Extend(c Cylinder) {
	p.mu.Lock()
	p.extended[c] = true
	p.calls = append(p.calls, "extend")
	p.mu.Unlock()
}

// Retract retracts cylinder c.
func (p *FakePneumatic) Retract(c Cylinder) {
	p.mu.Lock()
	p.extended[c] = false
	p.calls = append(p.calls, "retract")
	p.mu.Unlock()
}

// PumpOn switches the pump on.
func (p *FakePneumatic) PumpOn() {
	p.mu.Lock()
	p.pump = true
	p.calls = append(p.calls, "pumpOn")
	p.mu.Unlock()
}

// PumpOff switches the pump off.
func (p *FakePneumatic) PumpOff() {
	p.mu.Lock()
	p.pump = false
	p.calls = append(p.calls, "pumpOff")
	p.mu.Unlock()
}

// Extended reports whether cylinder c is extended.
func (p *FakePneumatic) Extended(c Cylinder) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extended[c]
}

// Pump reports whether the pump is on.
func (p *FakePneumatic) Pump() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pump
}

// Calls returns a copy of the recorded commands.
func (p *FakePneumatic) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// FakeButton is a Button driven by tests.
type FakeButton struct {
	pressing atomic.Bool

	mu         sync.Mutex
	onPressed  func()
	onReleased func()
}

// NewFakeButton creates a released FakeButton.
func NewFakeButton() *FakeButton {
	return &FakeButton{}
}

// Pressing reports whether the button is held.
func (b *FakeButton) Pressing() bool {
	return b.pressing.Load()
}

// OnPressed sets the press handler.
func (b *FakeButton) OnPressed(fn func()) {
	b.mu.Lock()
	b.onPressed = fn
	b.mu.Unlock()
}

// OnReleased sets the release handler.
func (b *FakeButton) OnReleased(fn func()) {
	b.mu.Lock()
	b.onReleased = fn
	b.mu.Unlock()
}

// Press marks the button held and runs the press handler.
func (b *FakeButton) Press() {
	b.pressing.Store(true)
	b.mu.Lock()
	fn := b.onPressed
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Release marks the button released and runs the release handler.
func (b *FakeButton) Release() {
	b.pressing.Store(false)
	b.mu.Lock()
	fn := b.onReleased
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Hold sets the held state without running handlers.
func (b *FakeButton) Hold(held bool) {
	b.pressing.Store(held)
}

// FakeIndicator records LED state.
type FakeIndicator struct {
	mu    sync.Mutex
	color Color
	on    bool
}

// NewFakeIndicator creates an unlit FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// SetColor lights the LED.
func (i *FakeIndicator) SetColor(c Color) {
	i.mu.Lock()
	i.color = c
	i.on = true
	i.mu.Unlock()
}

// Off turns the LED off.
func (i *FakeIndicator) Off() {
	i.mu.Lock()
	i.on = false
	i.mu.Unlock()
}

// State returns the LED color and whether it is lit.
func (i *FakeIndicator) State() (Color, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.color, i.on
}
