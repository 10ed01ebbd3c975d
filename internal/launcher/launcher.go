// Package launcher runs the wind/release state machine of the spring
// launcher and its belt mode.
package launcher

import (
	"log"
	"sync"
	"time"

	"github.com/extreme-axolotls/relaybot/internal/clock"
	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/logic"
)

// Gripper is the part of the ball gripper the launcher commands.
type Gripper interface {
	Hug()
	Release()
}

// Config holds launcher tuning.
type Config struct {
	ArmThreshold float64       // mm; arm sensor closer than this means Down
	WindTimeout  time.Duration // upper bound on waiting for the arm to seat
	WindPoll     time.Duration // arm sensor sampling period while winding
	Overtravel   float64       // degrees spun past the sensor to seat the arm
	FireRotation float64       // degrees spun to fire
	Velocity     float64       // percent
	Torque       float64       // percent
}

// DefaultConfig returns the competition tuning.
func DefaultConfig() Config {
	return Config{
		ArmThreshold: 80,
		WindTimeout:  3 * time.Second,
		WindPoll:     10 * time.Millisecond,
		Overtravel:   10,
		FireRotation: 180,
		Velocity:     100,
		Torque:       100,
	}
}

// Controller owns both launcher motors. The same motors run the belt that
// carries balls up to the launch position.
type Controller struct {
	left, right device.Motor
	arm         device.DistanceSensor
	gripper     Gripper
	clock       clock.Clock
	cfg         Config

	mu          sync.Mutex
	state       logic.LauncherState
	unconfirmed bool // last wind ended without the arm sensor seeing the arm
	belt        bool
}

// New creates a Controller. The state is Released until Setup or Wind
// observes the arm.
func New(left, right device.Motor, arm device.DistanceSensor, gripper Gripper, clk clock.Clock, cfg Config) *Controller {
	return &Controller{
		left:    left,
		right:   right,
		arm:     arm,
		gripper: gripper,
		clock:   clk,
		cfg:     cfg,
		state:   logic.LauncherReleased,
	}
}

// Setup configures the motors and records whether the arm is already down.
func (c *Controller) Setup() {
	for _, m := range []device.Motor{c.left, c.right} {
		m.SetVelocity(c.cfg.Velocity)
		m.SetMaxTorque(c.cfg.Torque)
	}
	if c.IsDown() {
		c.setState(logic.LauncherDown)
	}
}

// IsDown reports whether the arm sensor sees the arm seated. An uninstalled
// or failing sensor is never down.
func (c *Controller) IsDown() bool {
	if !c.arm.Installed() {
		return false
	}
	d, err := c.arm.Distance()
	if err != nil {
		log.Printf("launcher: arm sensor read error: %v", err)
		return false
	}
	return d < c.cfg.ArmThreshold
}

// State returns the launcher phase.
func (c *Controller) State() logic.LauncherState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Unconfirmed reports whether the launcher is Down only because the last
// wind timed out.
func (c *Controller) Unconfirmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == logic.LauncherDown && c.unconfirmed
}

func (c *Controller) setState(s logic.LauncherState) {
	c.mu.Lock()
	c.state = s
	c.unconfirmed = false
	c.mu.Unlock()
}

// Wind pulls the arm down until the arm sensor reports it, gives it a small
// overtravel to seat it past the sensor, and holds it there. The wait is
// bounded by WindTimeout; on timeout winding finishes anyway and the Down
// state is marked unconfirmed. Returns whether the arm sensor confirmed the
// arm.
func (c *Controller) Wind() bool {
	c.StopBelt()
	c.gripper.Release()
	c.setState(logic.LauncherWinding)

	c.left.Spin(device.Forward)
	c.right.Spin(device.Forward)

	seated := c.waitDown()
	if !seated {
		log.Printf("launcher: arm not seen after %v, finishing wind", c.cfg.WindTimeout)
	}

	c.right.SpinFor(device.Forward, c.cfg.Overtravel, device.Degrees, false)
	c.left.SpinFor(device.Forward, c.cfg.Overtravel, device.Degrees, true)
	c.stopMotors()

	c.mu.Lock()
	c.state = logic.LauncherDown
	c.unconfirmed = !seated
	c.mu.Unlock()
	return seated
}

// waitDown polls the arm sensor until it sees the arm or WindTimeout passes.
// The last sleep is cut short at the deadline.
func (c *Controller) waitDown() bool {
	deadline := c.clock.Now().Add(c.cfg.WindTimeout)
	for {
		if c.IsDown() {
			return true
		}
		left := deadline.Sub(c.clock.Now())
		if left <= 0 {
			return false
		}
		c.clock.Sleep(min(c.cfg.WindPoll, left))
	}
}

// armed decides whether a release is allowed. Without an arm sensor the
// tracked state is the only evidence.
func (c *Controller) armed() bool {
	if c.arm.Installed() {
		return c.IsDown()
	}
	return c.State() == logic.LauncherDown
}

// Release fires the launcher and rewinds it. cancelRewind is evaluated right
// after the firing rotation; if it returns true the launcher is left
// released. Release is a no-op while the launcher is not down. Returns
// whether it fired.
func (c *Controller) Release(cancelRewind func() bool) bool {
	if !c.armed() {
		log.Printf("launcher: release ignored, arm not down")
		return false
	}

	c.StopBelt()
	c.gripper.Release()

	c.right.SpinFor(device.Forward, c.cfg.FireRotation, device.Degrees, false)
	c.left.SpinFor(device.Forward, c.cfg.FireRotation, device.Degrees, true)
	c.setState(logic.LauncherReleased)

	if cancelRewind != nil && cancelRewind() {
		log.Printf("launcher: rewind cancelled")
		return true
	}
	c.Wind()
	return true
}

// StartBelt clamps the ball and runs the launcher motors backwards to carry
// balls up the launch path.
func (c *Controller) StartBelt() {
	c.gripper.Hug()
	c.left.Spin(device.Reverse)
	c.right.Spin(device.Reverse)
	c.mu.Lock()
	c.belt = true
	c.mu.Unlock()
}

// StopBelt stops both launcher motors with a holding brake.
func (c *Controller) StopBelt() {
	c.stopMotors()
}

// ToggleBelt starts the belt if it is stopped and stops it otherwise.
func (c *Controller) ToggleBelt() {
	if c.BeltRunning() {
		c.StopBelt()
		return
	}
	c.StartBelt()
}

// BeltRunning reports whether the belt is running.
func (c *Controller) BeltRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.belt
}

func (c *Controller) stopMotors() {
	c.left.Stop(device.Hold)
	c.right.Stop(device.Hold)
	c.mu.Lock()
	c.belt = false
	c.mu.Unlock()
}
