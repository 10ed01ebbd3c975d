package intake

import (
	"testing"

	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/logic"
)

// flag is a settable Presence.
type flag struct{ v bool }

func (f *flag) Present() bool { return f.v }

// fakeLauncher records calls and can observe the intake while winding.
type fakeLauncher struct {
	down      bool
	winds     int
	beltStops int
	onWind    func()
}

func (l *fakeLauncher) IsDown() bool { return l.down }

func (l *fakeLauncher) Wind() bool {
	l.winds++
	if l.onWind != nil {
		l.onWind()
	}
	l.down = true
	return true
}

func (l *fakeLauncher) StopBelt() { l.beltStops++ }

type fakeGripper struct {
	state logic.GripperState
	calls int
}

func (g *fakeGripper) Hug()     { g.state = logic.GripperHugging; g.calls++ }
func (g *fakeGripper) Release() { g.state = logic.GripperReleased; g.calls++ }

type rig struct {
	left, right *device.FakeMotor
	launcher    *fakeLauncher
	gripper     *fakeGripper
	atIntake    *flag
	onTop       *flag
	continuous  bool
	c           *Coordinator
}

func newRig(cfg Config) *rig {
	r := &rig{
		left:     device.NewFakeMotor(),
		right:    device.NewFakeMotor(),
		launcher: &fakeLauncher{down: true},
		gripper:  &fakeGripper{state: logic.GripperUnknown},
		atIntake: &flag{},
		onTop:    &flag{},
	}
	r.c = New(r.left, r.right, r.launcher, r.gripper, r.atIntake, r.onTop, func() bool { return r.continuous }, cfg)
	return r
}

func TestSetup(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Setup()
	if r.left.Velocity() != 100 || r.right.Torque() != 100 {
		t.Error("expected intake velocity and torque at 100")
	}
	if r.c.State() != logic.IntakeStopped {
		t.Errorf("expected STOPPED initially, got %s", r.c.State())
	}
}

// Scenario A: ball at intake, launch position clear.
func TestIntakeBallSeenTopClearKeepsRunning(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()

	r.atIntake.v = true
	r.c.OnIntakeBallSeen()

	if r.c.State() != logic.IntakeRunning {
		t.Errorf("expected RUNNING, got %s", r.c.State())
	}
}

// Scenario B: ball at intake and at the launch position.
func TestIntakeBallSeenTopTakenStops(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()

	r.onTop.v = true
	r.atIntake.v = true
	r.c.OnIntakeBallSeen()

	if r.c.State() != logic.IntakeStopped {
		t.Errorf("expected STOPPED, got %s", r.c.State())
	}
	if r.left.LastStop() != device.Hold {
		t.Errorf("expected HOLD stop, got %s", r.left.LastStop())
	}
}

func TestIntakeBallLostNoAction(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()
	before := len(r.left.Calls())

	r.c.OnIntakeBallLost()
	if len(r.left.Calls()) != before {
		t.Error("intake lost should not command motors")
	}
}

func TestTopBallSeenOpensGripper(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()
	r.gripper.state = logic.GripperHugging

	r.onTop.v = true
	r.c.OnTopBallSeen()

	if r.gripper.state != logic.GripperReleased {
		t.Errorf("expected gripper RELEASED, got %s", r.gripper.state)
	}
	if r.launcher.beltStops == 0 {
		t.Error("expected belt stopped before opening")
	}
	if r.c.State() != logic.IntakeRunning {
		t.Errorf("no ball at intake: expected RUNNING, got %s", r.c.State())
	}
}

func TestTopBallSeenWithBallWaitingStopsIntake(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()

	r.onTop.v = true
	r.atIntake.v = true
	r.c.OnTopBallSeen()

	if r.c.State() != logic.IntakeStopped {
		t.Errorf("expected STOPPED, got %s", r.c.State())
	}
}

func TestTopBallSeenContinuousRetains(t *testing.T) {
	r := newRig(DefaultConfig())
	r.continuous = true
	r.c.Run()
	calls := r.gripper.calls

	r.onTop.v = true
	r.atIntake.v = true
	r.c.OnTopBallSeen()

	if r.gripper.state != logic.GripperHugging || r.gripper.calls != calls {
		t.Errorf("continuous mode should keep hugging, got %s", r.gripper.state)
	}
	if r.c.State() != logic.IntakeRunning {
		t.Errorf("continuous mode should keep intake running, got %s", r.c.State())
	}
}

// Scenario C: top ball lost, ball waiting at intake, launcher up.
func TestTopBallLostWindsThenFeeds(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()
	r.launcher.down = false
	r.atIntake.v = true

	var stateDuringWind logic.IntakeState
	r.launcher.onWind = func() { stateDuringWind = r.c.State() }

	r.c.OnTopBallLost()

	if r.launcher.winds != 1 {
		t.Fatalf("expected 1 wind, got %d", r.launcher.winds)
	}
	if stateDuringWind != logic.IntakeStopped {
		t.Errorf("intake should be stopped while winding, got %s", stateDuringWind)
	}
	if r.c.State() != logic.IntakeRunning {
		t.Errorf("expected intake to resume feeding, got %s", r.c.State())
	}
	if spinning, dir := r.left.Spinning(); !spinning || dir != device.Reverse {
		t.Errorf("expected feed direction REVERSE, got (%v, %s)", spinning, dir)
	}
}

func TestTopBallLostNoResumeWhenTopRefilled(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()
	r.launcher.down = false
	r.atIntake.v = true
	r.launcher.onWind = func() { r.onTop.v = true }

	r.c.OnTopBallLost()

	if r.c.State() != logic.IntakeStopped {
		t.Errorf("top refilled during wind: expected STOPPED, got %s", r.c.State())
	}
}

func TestTopBallLostNoResumeWhenIntakeEmptied(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()
	r.launcher.down = false
	r.atIntake.v = true
	r.launcher.onWind = func() { r.atIntake.v = false }

	r.c.OnTopBallLost()

	if r.c.State() != logic.IntakeStopped {
		t.Errorf("intake emptied during wind: expected STOPPED, got %s", r.c.State())
	}
}

func TestTopBallLostNoBallAtIntake(t *testing.T) {
	r := newRig(DefaultConfig())
	r.launcher.down = false

	r.c.OnTopBallLost()
	if r.launcher.winds != 0 {
		t.Error("no ball waiting: should not wind")
	}
	if len(r.left.Calls()) != 0 {
		t.Error("no ball waiting: should not command intake")
	}
}

func TestTopBallLostPolicy(t *testing.T) {
	tests := []struct {
		policy FeedPolicy
		want   logic.IntakeState
	}{
		{FeedAlways, logic.IntakeRunning},
		{FeedAfterWind, logic.IntakeStopped},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Policy = tt.policy
			r := newRig(cfg)
			r.atIntake.v = true // launcher already down

			r.c.OnTopBallLost()
			if r.launcher.winds != 0 {
				t.Error("launcher down: should not wind")
			}
			if r.c.State() != tt.want {
				t.Errorf("got %s, want %s", r.c.State(), tt.want)
			}
		})
	}
}

// Scenario D: Run while the launcher is up.
func TestRunWindsBeforeIntake(t *testing.T) {
	r := newRig(DefaultConfig())
	r.launcher.down = false

	callsDuringWind := -1
	r.launcher.onWind = func() { callsDuringWind = len(r.left.Calls()) + len(r.right.Calls()) }

	r.c.Run()

	if r.launcher.winds != 1 {
		t.Fatalf("expected 1 wind, got %d", r.launcher.winds)
	}
	if callsDuringWind != 0 {
		t.Errorf("intake motors commanded before wind completed (%d calls)", callsDuringWind)
	}
	if r.c.State() != logic.IntakeRunning {
		t.Errorf("expected RUNNING, got %s", r.c.State())
	}
}

func TestRunGripperByMode(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Run()
	if r.gripper.state != logic.GripperReleased {
		t.Errorf("normal mode: expected RELEASED, got %s", r.gripper.state)
	}

	r.continuous = true
	r.c.Run()
	if r.gripper.state != logic.GripperHugging {
		t.Errorf("continuous mode: expected HUGGING, got %s", r.gripper.state)
	}
}

func TestReverse(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Reverse()
	if r.c.State() != logic.IntakeReversed {
		t.Errorf("expected REVERSED, got %s", r.c.State())
	}
	if _, dir := r.right.Spinning(); dir != device.Forward {
		t.Errorf("expected eject direction FORWARD, got %s", dir)
	}
	if !r.c.Running() {
		t.Error("reversed intake counts as running")
	}
}

func TestStopIdempotent(t *testing.T) {
	r := newRig(DefaultConfig())
	r.c.Stop(device.Hold)
	r.c.Stop(device.Hold)
	if r.c.State() != logic.IntakeStopped || r.c.Running() {
		t.Errorf("expected STOPPED, got %s", r.c.State())
	}
}

func TestParseFeedPolicy(t *testing.T) {
	for _, p := range []FeedPolicy{FeedAlways, FeedAfterWind} {
		got, err := ParseFeedPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseFeedPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseFeedPolicy("sometimes"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
