package sim

import (
	"math"
	"testing"
	"time"

	"github.com/extreme-axolotls/relaybot/internal/clock"
	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/gripper"
	"github.com/extreme-axolotls/relaybot/internal/launcher"
	"github.com/extreme-axolotls/relaybot/internal/logic"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestMotorSpinAdvancesWithClock(t *testing.T) {
	clk := clock.NewFake(t0)
	m := NewMotor("left", clk, 100) // 600 deg/s

	m.Spin(device.Forward)
	clk.Advance(100 * time.Millisecond)
	if got := m.Angle(); !near(got, 60) {
		t.Errorf("expected 60 degrees, got %v", got)
	}

	m.Spin(device.Reverse)
	clk.Advance(50 * time.Millisecond)
	if got := m.Angle(); !near(got, 30) {
		t.Errorf("expected 30 degrees after reversing, got %v", got)
	}

	m.Stop(device.Hold)
	clk.Advance(time.Second)
	if got := m.Angle(); !near(got, 30) {
		t.Errorf("stopped motor moved: %v", got)
	}
	if m.Brake() != device.Hold {
		t.Errorf("expected HOLD, got %s", m.Brake())
	}
}

func TestMotorVelocityScalesSpeed(t *testing.T) {
	clk := clock.NewFake(t0)
	m := NewMotor("left", clk, 100)
	m.SetVelocity(50)

	m.Spin(device.Forward)
	clk.Advance(100 * time.Millisecond)
	if got := m.Angle(); !near(got, 30) {
		t.Errorf("expected 30 degrees at 50%%, got %v", got)
	}
}

func TestMotorSpinForWaits(t *testing.T) {
	clk := clock.NewFake(t0)
	m := NewMotor("left", clk, 100)

	m.SpinFor(device.Forward, 180, device.Degrees, true)
	if got := m.Angle(); !near(got, 180) {
		t.Errorf("expected 180 degrees, got %v", got)
	}
	if elapsed := clk.Now().Sub(t0); elapsed != 300*time.Millisecond {
		t.Errorf("expected 300ms wait, got %v", elapsed)
	}

	m.SpinFor(device.Reverse, 0.5, device.Revolutions, false)
	if got := m.Angle(); !near(got, 0) {
		t.Errorf("expected 0 degrees, got %v", got)
	}
	if clk.Sleeps() != 1 {
		t.Errorf("non-blocking SpinFor slept, sleeps=%d", clk.Sleeps())
	}
}

func TestArmWindow(t *testing.T) {
	clk := clock.NewFake(t0)
	m := NewMotor("left", clk, 100)
	arm := NewArm(m)

	tests := []struct {
		angle float64
		want  float64
	}{
		{0, ArmFar},
		{90, ArmNear},
		{89.5, ArmFar},
		{179.5, ArmNear},
		{185, ArmFar},
		{450, ArmNear},
		{-200, ArmNear},
		{-275, ArmFar},
	}
	pos := 0.0
	for _, tt := range tests {
		if move := tt.angle - pos; move > 0 {
			m.SpinFor(device.Forward, move, device.Degrees, false)
		} else if move < 0 {
			m.SpinFor(device.Reverse, -move, device.Degrees, false)
		}
		pos = tt.angle
		d, err := arm.Distance()
		if err != nil {
			t.Fatal(err)
		}
		if d != tt.want {
			t.Errorf("at %v degrees: expected %v, got %v", tt.angle, tt.want, d)
		}
	}
}

func TestLauncherCycleOnSimulatedHardware(t *testing.T) {
	clk := clock.NewFake(t0)
	left := NewMotor("left", clk, 100)
	right := NewMotor("right", clk, 100)
	pneu := NewPneumatic()
	g := gripper.New(pneu)
	l := launcher.New(left, right, NewArm(left), g, clk, launcher.DefaultConfig())

	l.Setup()
	if l.State() != logic.LauncherReleased {
		t.Fatalf("arm starts away from the sensor, got %s", l.State())
	}

	if !l.Wind() {
		t.Fatal("wind should see the arm")
	}
	if !l.IsDown() {
		t.Fatal("arm should stay seated after overtravel")
	}
	if !pneu.Extended(device.Cylinder1) || !pneu.Extended(device.Cylinder2) {
		t.Error("gripper should be open after wind")
	}

	if !l.Release(nil) {
		t.Fatal("release should fire")
	}
	if l.State() != logic.LauncherDown || !l.IsDown() {
		t.Errorf("release should rewind, state=%s down=%v", l.State(), l.IsDown())
	}

	start := clk.Now()
	l.Release(func() bool { return true })
	if l.IsDown() || l.State() != logic.LauncherReleased {
		t.Errorf("cancelled rewind should leave the arm up, state=%s", l.State())
	}
	if clk.Now().Sub(start) >= launcher.DefaultConfig().WindTimeout {
		t.Error("fire should not wait for the wind timeout")
	}
}

func TestPneumaticAndIndicator(t *testing.T) {
	p := NewPneumatic()
	p.Extend(device.Cylinder2)
	if p.Extended(device.Cylinder1) || !p.Extended(device.Cylinder2) {
		t.Error("only cylinder 2 should be extended")
	}
	p.PumpOn()
	p.PumpOff()

	var led Indicator
	led.SetColor(device.ColorGreen)
	if c, on := led.Lit(); c != device.ColorGreen || !on {
		t.Errorf("expected green on, got (%s, %v)", c, on)
	}
	led.Off()
	if _, on := led.Lit(); on {
		t.Error("expected off")
	}
}
