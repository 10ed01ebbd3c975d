// Package device defines the hardware collaborators the robot core drives.
// The real button, pneumatic and LED implementations use the Linux GPIO
// character device. The fake implementations allow testing without hardware.
package device

// Direction is a motor spin direction.
type Direction string

const (
	Forward Direction = "FORWARD"
	Reverse Direction = "REVERSE"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// BrakeMode is how a motor behaves when stopped.
type BrakeMode string

const (
	Coast BrakeMode = "COAST"
	Brake BrakeMode = "BRAKE"
	Hold  BrakeMode = "HOLD"
)

// RotationUnit is the unit of a SpinFor amount.
type RotationUnit string

const (
	Degrees     RotationUnit = "DEGREES"
	Revolutions RotationUnit = "REVOLUTIONS"
)

// Cylinder identifies one cylinder on a pneumatic controller.
type Cylinder int

const (
	Cylinder1 Cylinder = 1
	Cylinder2 Cylinder = 2
)

// Color is an indicator LED color.
type Color string

const (
	ColorGreen Color = "GREEN"
	ColorRed   Color = "RED"
	ColorBlue  Color = "BLUE"
	ColorWhite Color = "WHITE"
)

// DistanceSensor reads a proximity distance.
type DistanceSensor interface {
	// Installed reports whether the sensor is physically connected.
	Installed() bool

	// Distance returns the distance to the nearest object in millimetres.
	Distance() (float64, error)
}

// Motor drives a single smart motor.
type Motor interface {
	Spin(dir Direction)

	// SpinFor rotates by amount. When wait is true it returns after the
	// rotation completes.
	SpinFor(dir Direction, amount float64, unit RotationUnit, wait bool)

	Stop(mode BrakeMode)
	SetVelocity(percent float64)
	SetMaxTorque(percent float64)
}

// Pneumatic drives a pneumatic controller with two cylinders and a pump.
type Pneumatic interface {
	Extend(c Cylinder)
	Retract(c Cylinder)
	PumpOn()
	PumpOff()
}

// Button is a momentary input such as a controller button or bumper switch.
type Button interface {
	Pressing() bool

	// OnPressed sets the handler run on each press. Handlers may run on a
	// driver goroutine and must not block.
	OnPressed(fn func())
	OnReleased(fn func())
}

// Indicator is a status LED.
type Indicator interface {
	SetColor(c Color)
	Off()
}
