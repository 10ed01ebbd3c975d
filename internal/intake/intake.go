// Package intake coordinates the ball intake with the gripper and launcher
// in response to ball sensor edges and operator commands.
package intake

import (
	"fmt"
	"log"
	"sync"

	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/logic"
)

// Launcher is the part of the launcher controller the intake drives.
type Launcher interface {
	IsDown() bool
	Wind() bool
	StopBelt()
}

// Gripper is the part of the ball gripper the intake drives.
type Gripper interface {
	Hug()
	Release()
}

// Presence reports whether a ball is latched at a sensor.
type Presence interface {
	Present() bool
}

// FeedPolicy decides whether losing the top ball pulses the intake when no
// wind was needed.
type FeedPolicy int

const (
	// FeedAlways feeds whenever a ball waits at the intake and the top is
	// clear, wound or not.
	FeedAlways FeedPolicy = iota
	// FeedAfterWind only feeds after the launcher had to be wound.
	FeedAfterWind
)

func (p FeedPolicy) String() string {
	switch p {
	case FeedAlways:
		return "always"
	case FeedAfterWind:
		return "after-wind"
	}
	return fmt.Sprintf("FeedPolicy(%d)", int(p))
}

// ParseFeedPolicy parses the String form of a FeedPolicy.
func ParseFeedPolicy(s string) (FeedPolicy, error) {
	switch s {
	case "always":
		return FeedAlways, nil
	case "after-wind":
		return FeedAfterWind, nil
	}
	return 0, fmt.Errorf("unknown feed policy %q", s)
}

// Config holds intake tuning.
type Config struct {
	FeedDirection device.Direction // motor direction that pulls balls in
	Velocity      float64          // percent
	Torque        float64          // percent
	Policy        FeedPolicy
}

// DefaultConfig returns the competition tuning. The intake motors are
// mounted so that Reverse feeds.
func DefaultConfig() Config {
	return Config{
		FeedDirection: device.Reverse,
		Velocity:      100,
		Torque:        100,
		Policy:        FeedAlways,
	}
}

// Coordinator owns the intake motors.
type Coordinator struct {
	left, right device.Motor
	launcher    Launcher
	gripper     Gripper
	atIntake    Presence
	onTop       Presence
	continuous  func() bool
	cfg         Config

	mu    sync.Mutex
	state logic.IntakeState
}

// New creates a Coordinator. continuous is sampled every time the policy
// needs it; nil means never continuous.
func New(left, right device.Motor, launcher Launcher, gripper Gripper, atIntake, onTop Presence, continuous func() bool, cfg Config) *Coordinator {
	if continuous == nil {
		continuous = func() bool { return false }
	}
	return &Coordinator{
		left:       left,
		right:      right,
		launcher:   launcher,
		gripper:    gripper,
		atIntake:   atIntake,
		onTop:      onTop,
		continuous: continuous,
		cfg:        cfg,
		state:      logic.IntakeStopped,
	}
}

// Setup configures the intake motors.
func (c *Coordinator) Setup() {
	for _, m := range []device.Motor{c.left, c.right} {
		m.SetVelocity(c.cfg.Velocity)
		m.SetMaxTorque(c.cfg.Torque)
	}
}

// OnIntakeBallSeen stops the intake if the launch position is already taken,
// so two balls cannot jam.
func (c *Coordinator) OnIntakeBallSeen() {
	if c.onTop.Present() {
		c.Stop(device.Hold)
	}
}

// OnIntakeBallLost is a no-op: the ball has passed through.
func (c *Coordinator) OnIntakeBallLost() {}

// OnTopBallSeen prepares for the next ball unless continuous mode wants the
// ball retained.
func (c *Coordinator) OnTopBallSeen() {
	if c.continuous() {
		return
	}
	if c.atIntake.Present() {
		c.Stop(device.Hold)
	}
	c.openGripper()
}

// OnTopBallLost rearms the launcher if needed and pulls the waiting ball up.
func (c *Coordinator) OnTopBallLost() {
	if !c.atIntake.Present() {
		return
	}

	wound := false
	if !c.launcher.IsDown() {
		c.Stop(device.Hold)
		c.launcher.Wind()
		wound = true
	}

	if c.cfg.Policy == FeedAfterWind && !wound {
		return
	}
	if !c.onTop.Present() && c.atIntake.Present() {
		c.spin(c.cfg.FeedDirection, logic.IntakeRunning)
	}
}

// Run arms the launcher if needed, sets the gripper for the current mode and
// starts feeding.
func (c *Coordinator) Run() {
	if !c.launcher.IsDown() {
		c.launcher.Wind()
	}
	if c.continuous() {
		c.gripper.Hug()
	} else {
		c.openGripper()
	}
	c.spin(c.cfg.FeedDirection, logic.IntakeRunning)
}

// Reverse runs the intake outwards to eject or unjam a ball.
func (c *Coordinator) Reverse() {
	c.spin(c.cfg.FeedDirection.Opposite(), logic.IntakeReversed)
}

// Stop stops the intake motors.
func (c *Coordinator) Stop(mode device.BrakeMode) {
	c.left.Stop(mode)
	c.right.Stop(mode)
	c.setState(logic.IntakeStopped)
}

// State returns the last intake command.
func (c *Coordinator) State() logic.IntakeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Running reports whether the intake motors are turning in either direction.
func (c *Coordinator) Running() bool {
	return c.State() != logic.IntakeStopped
}

// openGripper stops the belt before opening so a ball is not driven into an
// open gripper.
func (c *Coordinator) openGripper() {
	c.launcher.StopBelt()
	c.gripper.Release()
}

func (c *Coordinator) spin(dir device.Direction, s logic.IntakeState) {
	c.left.Spin(dir)
	c.right.Spin(dir)
	c.setState(s)
}

func (c *Coordinator) setState(s logic.IntakeState) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		log.Printf("intake: %s -> %s", prev, s)
	}
}
