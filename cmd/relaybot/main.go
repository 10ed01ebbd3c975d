// Command relaybot runs the robot control core. Motors are simulated on the
// bench; the gripper pneumatics, bumper and LED can be wired to GPIO, and
// driver-station controls arrive over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopxl/beep/speaker"

	"github.com/extreme-axolotls/relaybot/internal/clock"
	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/display"
	"github.com/extreme-axolotls/relaybot/internal/intake"
	"github.com/extreme-axolotls/relaybot/internal/remote"
	"github.com/extreme-axolotls/relaybot/internal/robot"
	"github.com/extreme-axolotls/relaybot/internal/sim"
	"github.com/extreme-axolotls/relaybot/internal/sound"
	"github.com/extreme-axolotls/relaybot/internal/status"
)

// Driver-station button and bench sensor names on the remote bridge.
const (
	buttonIntake  = "intake"
	buttonBelt    = "belt"
	buttonFire    = "fire"
	buttonWind    = "wind"
	buttonFeed    = "feed"
	buttonReverse = "reverse"
	buttonStop    = "stop"
	buttonBumper  = "bumper"

	sensorIntake = "intake"
	sensorTop    = "top"
)

type options struct {
	poll           time.Duration
	windTimeout    time.Duration
	feedPolicy     string
	broker         string
	prefix         string
	clientID       string
	gpioChip       string
	pinCylinder1   int
	pinCylinder2   int
	pinPump        int
	pinBumper      int
	pinLED         int
	sound          bool
	statusInterval time.Duration
	printSensors   bool
	screenColor    string
	penColor       string
}

func main() {
	defaults := robot.DefaultConfig()
	var o options
	flag.DurationVar(&o.poll, "poll", defaults.PollPeriod, "Sensor polling interval (10ms-20ms)")
	flag.DurationVar(&o.windTimeout, "wind-timeout", defaults.Launcher.WindTimeout, "Upper bound on waiting for the launch arm")
	flag.StringVar(&o.feedPolicy, "feed-policy", defaults.Intake.Policy.String(), `Feed after the top ball leaves: "always" or "after-wind"`)
	flag.StringVar(&o.broker, "broker", "", "MQTT broker of the driver station (empty to disable)")
	flag.StringVar(&o.prefix, "prefix", remote.DefaultPrefix, "MQTT topic prefix")
	flag.StringVar(&o.clientID, "client-id", "relaybot", "MQTT client ID")
	flag.StringVar(&o.gpioChip, "gpio-chip", "", "GPIO chip for pneumatics, bumper and LED (empty to simulate)")
	flag.IntVar(&o.pinCylinder1, "pin-cyl1", 17, "GPIO offset of gripper cylinder 1 valve")
	flag.IntVar(&o.pinCylinder2, "pin-cyl2", 27, "GPIO offset of gripper cylinder 2 valve")
	flag.IntVar(&o.pinPump, "pin-pump", 22, "GPIO offset of the pump relay")
	flag.IntVar(&o.pinBumper, "pin-bumper", 5, "GPIO offset of the bumper switch (-1 to use the remote button)")
	flag.IntVar(&o.pinLED, "pin-led", 6, "GPIO offset of the touch LED (-1 to simulate)")
	flag.BoolVar(&o.sound, "sound", false, "Play the bumper chime on the default audio device")
	flag.DurationVar(&o.statusInterval, "status-interval", 5*time.Second, "Status render interval (0 to disable)")
	flag.BoolVar(&o.printSensors, "print-sensors", false, "Print current sensor readings and exit")
	flag.StringVar(&o.screenColor, "screen", defaults.ScreenColor, "Screen background color")
	flag.StringVar(&o.penColor, "pen", defaults.PenColor, "Screen pen color")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func buildConfig(o options) (robot.Config, error) {
	cfg := robot.DefaultConfig()
	cfg.PollPeriod = o.poll
	cfg.Launcher.WindTimeout = o.windTimeout
	cfg.ScreenColor = o.screenColor
	cfg.PenColor = o.penColor

	policy, err := intake.ParseFeedPolicy(o.feedPolicy)
	if err != nil {
		return cfg, err
	}
	cfg.Intake.Policy = policy

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// closers collects Close functions and runs them in reverse order.
type closers []func() error

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c closers) closeAndLog() {
	if err := c.Close(); err != nil {
		log.Printf("close devices: %v", err)
	}
}

// buildDevices constructs the hardware. Motors and the arm sensor are
// simulated; the ball sensors are fed from the bridge.
func buildDevices(o options, clk clock.Clock, bridge *remote.Bridge) (robot.Devices, closers, error) {
	var cs closers

	launchLeft := sim.NewMotor("launcher-left", clk, sim.DefaultRPM)
	dev := robot.Devices{
		LauncherLeft:  launchLeft,
		LauncherRight: sim.NewMotor("launcher-right", clk, sim.DefaultRPM),
		IntakeLeft:    sim.NewMotor("intake-left", clk, sim.DefaultRPM),
		IntakeRight:   sim.NewMotor("intake-right", clk, sim.DefaultRPM),
		Arm:           sim.NewArm(launchLeft),
		IntakeEye:     bridge.Sensor(sensorIntake),
		TopEye:        bridge.Sensor(sensorTop),
	}

	if o.gpioChip == "" {
		dev.Pneumatic = sim.NewPneumatic()
		dev.Bumper = bridge.Button(buttonBumper)
		dev.LED = &sim.Indicator{}
		return dev, cs, nil
	}

	pneu, err := device.NewGPIOPneumatic(o.gpioChip, device.PneumaticPins{
		Cylinder1: o.pinCylinder1,
		Cylinder2: o.pinCylinder2,
		Pump:      o.pinPump,
	})
	if err != nil {
		return dev, cs, fmt.Errorf("init pneumatics: %w", err)
	}
	cs = append(cs, pneu.Close)
	dev.Pneumatic = pneu

	if o.pinBumper >= 0 {
		b, err := device.NewGPIOButton(o.gpioChip, o.pinBumper, 10*time.Millisecond)
		if err != nil {
			return dev, cs, fmt.Errorf("init bumper: %w", err)
		}
		cs = append(cs, b.Close)
		dev.Bumper = b
	} else {
		dev.Bumper = bridge.Button(buttonBumper)
	}

	if o.pinLED >= 0 {
		led, err := device.NewGPIOIndicator(o.gpioChip, o.pinLED)
		if err != nil {
			return dev, cs, fmt.Errorf("init led: %w", err)
		}
		cs = append(cs, led.Close)
		dev.LED = led
	} else {
		dev.LED = &sim.Indicator{}
	}

	return dev, cs, nil
}

func buildControls(bridge *remote.Bridge) robot.Controls {
	return robot.Controls{
		Intake:  bridge.Button(buttonIntake),
		Belt:    bridge.Button(buttonBelt),
		Fire:    bridge.Button(buttonFire),
		Wind:    bridge.Button(buttonWind),
		Feed:    bridge.Button(buttonFeed),
		Reverse: bridge.Button(buttonReverse),
		Stop:    bridge.Button(buttonStop),
	}
}

func run(o options) error {
	cfg, err := buildConfig(o)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	bridge := remote.NewBridge(o.prefix)

	dev, cs, err := buildDevices(o, clk, bridge)
	defer cs.closeAndLog()
	if err != nil {
		return err
	}

	// Connect to the driver station
	var conn remote.ConnectionStatus
	if o.broker != "" {
		sub, err := remote.NewRealSubscriber(o.broker, o.clientID, bridge.ReleaseAll)
		if err != nil {
			return fmt.Errorf("connect to driver station: %w", err)
		}
		defer sub.Close()
		if err := bridge.Attach(sub); err != nil {
			return err
		}
		conn = sub
		log.Printf("driver station on %s (prefix %s)", o.broker, o.prefix)
	}

	// Print sensors mode
	if o.printSensors {
		if o.broker != "" {
			// Retained bench readings arrive just after subscribing.
			time.Sleep(500 * time.Millisecond)
		}
		printSensors(os.Stdout, cfg, dev)
		return nil
	}

	var chime *sound.Chime
	if o.sound {
		if err := speaker.Init(sound.SampleRate, sound.SampleRate.N(time.Second/10)); err != nil {
			log.Printf("audio initialization failed: %v", err)
		} else {
			chime = sound.NewChime(sound.PlayerFunc(speaker.Play))
		}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:        cfg.PollPeriod.Milliseconds(),
		WindTimeoutMs: cfg.Launcher.WindTimeout.Milliseconds(),
		FeedPolicy:    cfg.Intake.Policy.String(),
		Remote:        o.broker,
	})

	screen := display.NewConsole(os.Stdout, cfg.ScreenColor, cfg.PenColor)
	bot := robot.New(dev, buildControls(bridge), cfg,
		robot.WithClock(clk),
		robot.WithScreen(screen),
		robot.WithChime(chime),
		robot.WithTracker(tracker),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("start robot: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- bot.Wait() }()

	var tick <-chan time.Time
	if o.statusInterval > 0 {
		ticker := time.NewTicker(o.statusInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(bot, tracker, linkStatus(conn, bridge), os.Stdout, o.statusInterval, time.Now, tick, sigCh, done)
}

// stopper is the part of the orchestrator the run loop needs.
type stopper interface {
	Stop() error
}

// linkStatus reports the driver-station link for the status screen. It
// returns nil without a broker.
func linkStatus(conn remote.ConnectionStatus, bridge *remote.Bridge) func() status.Link {
	if conn == nil {
		return nil
	}
	return func() status.Link {
		state := "down"
		if conn.IsConnected() {
			state = "up"
		}
		return status.Link{State: state, Ignored: bridge.Ignored()}
	}
}

// runLoop renders status on every tick until a signal arrives or the robot
// exits on its own. link may be nil.
func runLoop(bot stopper, tracker *status.Tracker, link func() status.Link, out io.Writer, interval time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, done <-chan error) error {
	snapshot := func() status.Snapshot {
		if link != nil {
			tracker.SetLink(link())
		}
		return tracker.Snapshot()
	}
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			err := bot.Stop()
			fmt.Fprintln(out, display.RenderStatus(snapshot()))
			return err

		case err := <-done:
			log.Printf("robot exited")
			return err

		case <-tick:
			if !tracker.CheckHeartbeat(now(), interval) {
				continue
			}
			snap := snapshot()
			connected := "n/a"
			if snap.Link.State != "" {
				connected = snap.Link.State
			}
			log.Printf("heartbeat: uptime=%v launcher=%s intake=%s remote=%s read-errors=%d",
				snap.Uptime().Truncate(time.Second), snap.Launcher, snap.Intake, connected, snap.ReadErrors)
			fmt.Fprintln(out, display.RenderStatus(snap))
		}
	}
}

// printSensors reads each proximity sensor once.
func printSensors(w io.Writer, cfg robot.Config, dev robot.Devices) {
	eyes := []struct {
		name      string
		sensor    device.DistanceSensor
		threshold float64
	}{
		{sensorIntake, dev.IntakeEye, cfg.IntakeThreshold},
		{sensorTop, dev.TopEye, cfg.TopThreshold},
		{"arm", dev.Arm, cfg.Launcher.ArmThreshold},
	}
	for _, e := range eyes {
		fmt.Fprintf(w, "%s: %s\n", e.name, describeReading(e.sensor, e.threshold))
	}
}

func describeReading(s device.DistanceSensor, threshold float64) string {
	if !s.Installed() {
		return "not installed"
	}
	d, err := s.Distance()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	presence := "ABSENT"
	if d < threshold {
		presence = "PRESENT"
	}
	if math.IsInf(d, 1) {
		return "no object, " + presence
	}
	return fmt.Sprintf("%.0fmm, %s", d, presence)
}
