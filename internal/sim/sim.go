// Package sim provides bench stand-ins for the robot's motors and
// pneumatics, so the control core can run on a laptop. Motor positions
// advance with the injected clock; the launch-arm sensor is derived from the
// launcher motor angle.
package sim

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/extreme-axolotls/relaybot/internal/clock"
	"github.com/extreme-axolotls/relaybot/internal/device"
)

// DefaultRPM is the free speed of a simulated motor at 100% velocity.
const DefaultRPM = 100

// Motor is a simulated smart motor. Forward increases the angle.
type Motor struct {
	name string
	clk  clock.Clock
	rpm  float64

	mu       sync.Mutex
	angle    float64 // degrees
	spinning bool
	dir      device.Direction
	since    time.Time
	velocity float64
	torque   float64
	brake    device.BrakeMode
}

// NewMotor creates a stopped motor at angle 0 with 100% velocity.
func NewMotor(name string, clk clock.Clock, rpm float64) *Motor {
	if rpm <= 0 {
		rpm = DefaultRPM
	}
	return &Motor{
		name:     name,
		clk:      clk,
		rpm:      rpm,
		velocity: 100,
		torque:   100,
		brake:    device.Coast,
	}
}

// degPerSec is the current angular speed. Caller holds mu.
func (m *Motor) degPerSec() float64 {
	return m.rpm * 360 / 60 * m.velocity / 100
}

func sign(d device.Direction) float64 {
	if d == device.Reverse {
		return -1
	}
	return 1
}

// settle folds elapsed continuous rotation into angle. Caller holds mu.
func (m *Motor) settle() {
	if !m.spinning {
		return
	}
	now := m.clk.Now()
	m.angle += sign(m.dir) * m.degPerSec() * now.Sub(m.since).Seconds()
	m.since = now
}

// Angle returns the current shaft angle in degrees.
func (m *Motor) Angle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settle()
	return m.angle
}

// Spin starts continuous rotation.
func (m *Motor) Spin(dir device.Direction) {
	m.mu.Lock()
	m.settle()
	m.spinning = true
	m.dir = dir
	m.since = m.clk.Now()
	m.mu.Unlock()
}

// SpinFor rotates by amount. The move completes immediately in the model;
// with wait set the caller also sleeps for the time the move would take.
func (m *Motor) SpinFor(dir device.Direction, amount float64, unit device.RotationUnit, wait bool) {
	deg := amount
	if unit == device.Revolutions {
		deg *= 360
	}

	m.mu.Lock()
	m.settle()
	m.spinning = false
	m.angle += sign(dir) * deg
	speed := m.degPerSec()
	m.mu.Unlock()

	if wait && speed > 0 {
		m.clk.Sleep(time.Duration(math.Round(math.Abs(deg) / speed * float64(time.Second))))
	}
}

// Stop stops rotation.
func (m *Motor) Stop(mode device.BrakeMode) {
	m.mu.Lock()
	m.settle()
	m.spinning = false
	m.brake = mode
	m.mu.Unlock()
}

// SetVelocity sets the speed as a percentage of free speed.
func (m *Motor) SetVelocity(percent float64) {
	m.mu.Lock()
	m.settle()
	m.velocity = percent
	m.mu.Unlock()
}

// SetMaxTorque records the torque limit.
func (m *Motor) SetMaxTorque(percent float64) {
	m.mu.Lock()
	m.torque = percent
	m.mu.Unlock()
}

// Name returns the motor name.
func (m *Motor) Name() string { return m.name }

// Brake returns the brake mode of the last Stop.
func (m *Motor) Brake() device.BrakeMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brake
}

// Spinning reports whether the motor is in continuous rotation.
func (m *Motor) Spinning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spinning
}

// Arm distances reported by the simulated arm sensor.
const (
	ArmNear = 30.0  // mm, arm seated over the sensor
	ArmFar  = 250.0 // mm, arm away
)

// Arm is the launch-arm distance sensor. The arm is over the sensor while
// the launcher motor angle, modulo one turn, lies in [From, To).
type Arm struct {
	motor *Motor
	From  float64
	To    float64
}

// NewArm creates an arm sensor for the launcher motor. The seated window
// [90, 180) is narrower than the 180 degree firing stroke, so firing
// always clears it.
func NewArm(motor *Motor) *Arm {
	return &Arm{motor: motor, From: 90, To: 180}
}

// Installed is always true.
func (a *Arm) Installed() bool { return true }

// Distance returns ArmNear while the arm is seated and ArmFar otherwise.
func (a *Arm) Distance() (float64, error) {
	deg := math.Mod(a.motor.Angle(), 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= a.From && deg < a.To {
		return ArmNear, nil
	}
	return ArmFar, nil
}

// Pneumatic logs solenoid and pump commands.
type Pneumatic struct {
	mu       sync.Mutex
	extended [2]bool
	pump     bool
}

// NewPneumatic creates a Pneumatic with both cylinders retracted and the
// pump off.
func NewPneumatic() *Pneumatic {
	return &Pneumatic{}
}

func (p *Pneumatic) set(c device.Cylinder, v bool) {
	p.mu.Lock()
	changed := p.extended[c-device.Cylinder1] != v
	p.extended[c-device.Cylinder1] = v
	p.mu.Unlock()
	if changed {
		log.Printf("sim: cylinder %d extended=%v", c, v)
	}
}

// Extend extends cylinder c.
func (p *Pneumatic) Extend(c device.Cylinder) { p.set(c, true) }

// Retract retracts cylinder c.
func (p *Pneumatic) Retract(c device.Cylinder) { p.set(c, false) }

// PumpOn switches the pump on.
func (p *Pneumatic) PumpOn() { p.setPump(true) }

// PumpOff switches the pump off.
func (p *Pneumatic) PumpOff() { p.setPump(false) }

func (p *Pneumatic) setPump(on bool) {
	p.mu.Lock()
	changed := p.pump != on
	p.pump = on
	p.mu.Unlock()
	if changed {
		log.Printf("sim: pump on=%v", on)
	}
}

// Extended reports whether cylinder c is extended.
func (p *Pneumatic) Extended(c device.Cylinder) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extended[c-device.Cylinder1]
}

// Indicator logs LED changes.
type Indicator struct {
	mu    sync.Mutex
	color device.Color
	on    bool
}

// SetColor lights the LED.
func (i *Indicator) SetColor(c device.Color) {
	i.mu.Lock()
	i.color, i.on = c, true
	i.mu.Unlock()
	log.Printf("sim: led %s", c)
}

// Off switches the LED off.
func (i *Indicator) Off() {
	i.mu.Lock()
	i.on = false
	i.mu.Unlock()
	log.Printf("sim: led off")
}

// Lit returns the LED color and whether it is on.
func (i *Indicator) Lit() (device.Color, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.color, i.on
}
