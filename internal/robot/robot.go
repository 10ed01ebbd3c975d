// Package robot wires the sensors, launcher, intake and gripper together and
// runs them. Operator commands are queued to a single owner goroutine, which
// is the only goroutine that drives actuators. Sensor edges are coalesced
// per sensor and picked up by the owner once its queued commands are done.
package robot

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/extreme-axolotls/relaybot/internal/clock"
	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/display"
	"github.com/extreme-axolotls/relaybot/internal/gripper"
	"github.com/extreme-axolotls/relaybot/internal/intake"
	"github.com/extreme-axolotls/relaybot/internal/launcher"
	"github.com/extreme-axolotls/relaybot/internal/logic"
	"github.com/extreme-axolotls/relaybot/internal/poller"
	"github.com/extreme-axolotls/relaybot/internal/sound"
	"github.com/extreme-axolotls/relaybot/internal/status"
)

// Screen lines printed during setup.
const (
	Banner = "Extreme Axolotls!"
	Ready  = "Ready"
)

// Devices are the hardware collaborators. Bumper and LED are optional.
type Devices struct {
	LauncherLeft  device.Motor
	LauncherRight device.Motor
	IntakeLeft    device.Motor
	IntakeRight   device.Motor

	Arm       device.DistanceSensor
	IntakeEye device.DistanceSensor
	TopEye    device.DistanceSensor

	Pneumatic device.Pneumatic
	Bumper    device.Button
	LED       device.Indicator
}

// Controls are the operator buttons. Any may be nil.
type Controls struct {
	Intake  device.Button // run intake
	Belt    device.Button // toggle belt; held = continuous mode
	Fire    device.Button // release; rewind is cancelled while Feed is held
	Wind    device.Button
	Feed    device.Button // start belt
	Reverse device.Button // eject
	Stop    device.Button
}

type command struct {
	name string
	fn   func()
	done chan struct{}
}

// edgeSlot holds at most one pending edge of a debounced sensor. The
// handlers act on latched state, so only the latest edge matters.
type edgeSlot struct {
	sensor  *logic.DebouncedSensor
	onSeen  func()
	onLost  func()
	pending atomic.Bool
}

// Orchestrator owns the robot's subsystems and their lifecycle.
type Orchestrator struct {
	cfg Config
	dev Devices
	ctl Controls

	clock   clock.Clock
	ticks   <-chan time.Time
	screen  display.Screen
	chime   *sound.Chime
	tracker *status.Tracker

	bus       *logic.EventBus
	intakeEye *logic.DebouncedSensor
	topEye    *logic.DebouncedSensor
	gripper   *gripper.Gripper
	launcher  *launcher.Controller
	intake    *intake.Coordinator
	poller    *poller.Poller

	ops     chan command
	edges   []*edgeSlot
	wake    chan struct{}
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}
}

// New builds an Orchestrator. Nothing moves until Start.
func New(dev Devices, ctl Controls, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:   cfg,
		dev:   dev,
		ctl:   ctl,
		clock: clock.Real{},
		bus:   logic.NewEventBus(),
		ops:   make(chan command, max(cfg.QueueSize, 1)),
		wake:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracker == nil {
		o.tracker = status.NewTracker(o.clock.Now(), status.Config{
			PollMs:        cfg.PollPeriod.Milliseconds(),
			WindTimeoutMs: cfg.Launcher.WindTimeout.Milliseconds(),
			FeedPolicy:    cfg.Intake.Policy.String(),
		})
	}

	o.intakeEye = logic.NewDebouncedSensor("intake", cfg.IntakeThreshold)
	o.topEye = logic.NewDebouncedSensor("top", cfg.TopThreshold)
	o.gripper = gripper.New(dev.Pneumatic)
	o.launcher = launcher.New(dev.LauncherLeft, dev.LauncherRight, dev.Arm, o.gripper, o.clock, cfg.Launcher)
	o.intake = intake.New(dev.IntakeLeft, dev.IntakeRight, o.launcher, o.gripper, o.intakeEye, o.topEye, o.IsContinuous, cfg.Intake)
	o.poller = poller.New(
		poller.Channel{Sensor: dev.IntakeEye, Debounced: o.intakeEye},
		poller.Channel{Sensor: dev.TopEye, Debounced: o.topEye},
	)
	o.edges = []*edgeSlot{
		{sensor: o.intakeEye, onSeen: o.intake.OnIntakeBallSeen, onLost: o.intake.OnIntakeBallLost},
		{sensor: o.topEye, onSeen: o.intake.OnTopBallSeen, onLost: o.intake.OnTopBallLost},
	}
	return o
}

// Start sets up the subsystems, binds events and controls, and starts the
// owner and poller goroutines. They run until ctx is cancelled or Stop.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.group != nil {
		return errors.New("robot: already started")
	}

	o.setup()
	o.bindEvents()
	o.bindControls()

	ctx, o.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	o.group = g
	o.done = make(chan struct{})

	ticks := o.ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(o.cfg.PollPeriod)
		ticks = ticker.C
	}

	o.running.Store(true)
	o.tracker.SetRunning(true)
	o.publish()

	g.Go(func() error {
		return o.own(gctx)
	})
	g.Go(func() error {
		if ticker != nil {
			defer ticker.Stop()
		}
		return o.poller.Run(gctx, ticks)
	})

	log.Printf("robot: started (poll=%v wind-timeout=%v feed=%s)",
		o.cfg.PollPeriod, o.cfg.Launcher.WindTimeout, o.cfg.Intake.Policy)
	return nil
}

func (o *Orchestrator) setup() {
	o.clearScreen()
	o.print(Banner)
	o.gripper.Setup()
	o.launcher.Setup()
	o.intake.Setup()
	o.print(Ready)
}

// bindEvents connects the debounced sensors to the bus and the bus to the
// edge slots. Handlers only mark a slot, so the poller never waits on a wind.
func (o *Orchestrator) bindEvents() {
	o.intakeEye.OnSeen(o.bus.Broadcaster(logic.EventIntakeBallSeen))
	o.intakeEye.OnLost(o.bus.Broadcaster(logic.EventIntakeBallLost))
	o.topEye.OnSeen(o.bus.Broadcaster(logic.EventTopBallSeen))
	o.topEye.OnLost(o.bus.Broadcaster(logic.EventTopBallLost))

	intakeEdge, topEdge := o.markEdge(o.edges[0]), o.markEdge(o.edges[1])
	o.bus.Register(logic.EventIntakeBallSeen, intakeEdge)
	o.bus.Register(logic.EventIntakeBallLost, intakeEdge)
	o.bus.Register(logic.EventTopBallSeen, topEdge)
	o.bus.Register(logic.EventTopBallLost, topEdge)
	o.bus.Register(logic.EventBumperPressed, o.onBumperPressed)
	o.bus.Register(logic.EventBumperReleased, o.onBumperReleased)
}

func (o *Orchestrator) bindControls() {
	bind := func(b device.Button, fn func()) {
		if b != nil {
			b.OnPressed(fn)
		}
	}
	bind(o.ctl.Intake, o.RunIntake)
	bind(o.ctl.Belt, o.ToggleBelt)
	bind(o.ctl.Fire, o.Release)
	bind(o.ctl.Wind, o.Wind)
	bind(o.ctl.Feed, o.StartBelt)
	bind(o.ctl.Reverse, o.ReverseIntake)
	bind(o.ctl.Stop, o.StopAll)

	if o.dev.Bumper != nil {
		o.dev.Bumper.OnPressed(o.bus.Broadcaster(logic.EventBumperPressed))
		o.dev.Bumper.OnReleased(o.bus.Broadcaster(logic.EventBumperReleased))
	}
}

// own is the command owner loop. Queued operator commands always run before
// pending sensor edges. On shutdown it stops every actuator before returning.
func (o *Orchestrator) own(ctx context.Context) error {
	defer close(o.done)
	for {
		if ctx.Err() != nil {
			o.shutdown()
			return nil
		}
		select {
		case c := <-o.ops:
			o.run(c)
			continue
		default:
		}
		if o.runEdges() {
			continue
		}
		select {
		case <-ctx.Done():
		case c := <-o.ops:
			o.run(c)
		case <-o.wake:
		}
	}
}

func (o *Orchestrator) shutdown() {
	o.running.Store(false)
	o.stopAll()
	o.tracker.SetRunning(false)
	o.publish()
	log.Printf("robot: stopped")
}

func (o *Orchestrator) run(c command) {
	if c.fn != nil {
		c.fn()
		o.tracker.Record(o.clock.Now(), c.name)
		o.publish()
	}
	if c.done != nil {
		// Edges sampled before the sync was queued are already marked.
		o.runEdges()
		close(c.done)
	}
}

// runEdges runs the handler for each sensor with a pending edge, chosen by
// the sensor's latched state. Reports whether any ran.
func (o *Orchestrator) runEdges() bool {
	ran := false
	for _, e := range o.edges {
		if !e.pending.Swap(false) {
			continue
		}
		if e.sensor.Present() {
			o.run(command{name: e.sensor.Name() + " ball seen", fn: e.onSeen})
		} else {
			o.run(command{name: e.sensor.Name() + " ball lost", fn: e.onLost})
		}
		ran = true
	}
	return ran
}

// markEdge returns a bus handler that marks e pending and wakes the owner.
// It never blocks.
func (o *Orchestrator) markEdge(e *edgeSlot) func() {
	return func() {
		if !o.running.Load() {
			return
		}
		e.pending.Store(true)
		select {
		case o.wake <- struct{}{}:
		default:
		}
	}
}

// enqueue hands fn to the owner. With the queue full it waits for room, so
// an operator command is never dropped while the robot runs.
func (o *Orchestrator) enqueue(name string, fn func()) {
	if !o.running.Load() {
		log.Printf("robot: %s ignored, not running", name)
		return
	}
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	select {
	case o.ops <- command{name: name, fn: fn}:
	case <-done:
		log.Printf("robot: %s ignored, stopped", name)
	}
}

// Sync waits until every command queued before it has run. It returns
// immediately if the orchestrator is not running.
func (o *Orchestrator) Sync() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil || !o.running.Load() {
		return
	}

	c := command{name: "sync", done: make(chan struct{})}
	select {
	case o.ops <- c:
	case <-done:
		return
	}
	select {
	case <-c.done:
	case <-done:
	}
}

// Wait blocks until the goroutines exit.
func (o *Orchestrator) Wait() error {
	o.mu.Lock()
	g := o.group
	o.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Stop clears the running flag, stops the goroutines and waits for them.
// Actuators are left stopped. Safe to call more than once.
func (o *Orchestrator) Stop() error {
	o.running.Store(false)
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return o.Wait()
}

// Running reports whether the orchestrator accepts commands.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// IsContinuous reports whether continuous mode is on: the belt control is
// held. Sampled live.
func (o *Orchestrator) IsContinuous() bool {
	return o.ctl.Belt != nil && o.ctl.Belt.Pressing()
}

// RunIntake arms the launcher if needed and starts feeding.
func (o *Orchestrator) RunIntake() { o.enqueue("run intake", o.intake.Run) }

// ReverseIntake runs the intake outwards.
func (o *Orchestrator) ReverseIntake() { o.enqueue("reverse intake", o.intake.Reverse) }

// Wind winds the launcher.
func (o *Orchestrator) Wind() { o.enqueue("wind", func() { o.launcher.Wind() }) }

// Release fires the launcher. Holding the feed control while it fires
// leaves the launcher unwound.
func (o *Orchestrator) Release() {
	o.enqueue("release", func() { o.launcher.Release(o.feedHeld) })
}

// ToggleBelt starts or stops the belt.
func (o *Orchestrator) ToggleBelt() { o.enqueue("toggle belt", o.launcher.ToggleBelt) }

// StartBelt hugs the ball and runs the belt.
func (o *Orchestrator) StartBelt() { o.enqueue("start belt", o.launcher.StartBelt) }

// StopAll stops every actuator and powers the pump down.
func (o *Orchestrator) StopAll() { o.enqueue("stop all", o.stopAll) }

func (o *Orchestrator) feedHeld() bool {
	return o.ctl.Feed != nil && o.ctl.Feed.Pressing()
}

// stopAll leaves the gripper at its resting extension and the pump off.
// The pump is switched off last, once the intake is stopped.
func (o *Orchestrator) stopAll() {
	o.launcher.StopBelt()
	o.gripper.Release()
	o.intake.Stop(device.Hold)
	o.gripper.PowerDown(o.intake.Running())
}

func (o *Orchestrator) onBumperPressed() {
	o.chime.Tada()
	if o.dev.LED != nil {
		o.dev.LED.SetColor(device.ColorGreen)
	}
	o.tracker.Record(o.clock.Now(), "bumper pressed")
}

func (o *Orchestrator) onBumperReleased() {
	if o.dev.LED != nil {
		o.dev.LED.Off()
	}
	o.tracker.Record(o.clock.Now(), "bumper released")
}

// Bus returns the event bus.
func (o *Orchestrator) Bus() *logic.EventBus { return o.bus }

// Tracker returns the status tracker.
func (o *Orchestrator) Tracker() *status.Tracker { return o.tracker }

// State returns the current subsystem state.
func (o *Orchestrator) State() status.Robot {
	return status.Robot{
		Launcher:       o.launcher.State(),
		ArmUnconfirmed: o.launcher.Unconfirmed(),
		Belt:           o.launcher.BeltRunning(),
		Intake:         o.intake.State(),
		Gripper:        o.gripper.State(),
		Pump:           o.gripper.PumpRunning(),
		Continuous:     o.IsContinuous(),
		ReadErrors:     o.poller.Errors(),
		Sensors: []status.SensorStatus{
			{Name: o.intakeEye.Name(), Presence: o.intakeEye.State(), Counts: o.intakeEye.Counts()},
			{Name: o.topEye.Name(), Presence: o.topEye.State(), Counts: o.topEye.Counts()},
		},
	}
}

func (o *Orchestrator) publish() {
	o.tracker.Update(o.State())
}

func (o *Orchestrator) clearScreen() {
	if o.screen != nil {
		o.screen.Clear(o.cfg.ScreenColor, o.cfg.PenColor)
	}
}

// print writes msg to the screen and the log.
func (o *Orchestrator) print(msg string) {
	log.Printf("screen: %s", msg)
	if o.screen != nil {
		o.screen.Print(msg)
	}
}
