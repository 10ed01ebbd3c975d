package device

import (
	"errors"
	"testing"
)

func TestFakeDistanceRead(t *testing.T) {
	f := NewFakeDistance(20, 150, 40)

	want := []float64{20, 150, 40, 40}
	for i, w := range want {
		d, err := f.Distance()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if d != w {
			t.Errorf("read %d: expected %v, got %v", i, w, d)
		}
	}
	if f.Reads() != 4 {
		t.Errorf("expected 4 reads, got %d", f.Reads())
	}
}

func TestFakeDistanceNoSamples(t *testing.T) {
	f := NewFakeDistance()

	_, err := f.Distance()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeDistanceError(t *testing.T) {
	f := NewFakeDistance(20)
	f.SetReadError(errors.New("simulated error"))

	_, err := f.Distance()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}

	f.SetReadError(nil)
	if _, err := f.Distance(); err != nil {
		t.Errorf("expected error cleared, got %v", err)
	}
}

func TestFakeDistanceSetAndScript(t *testing.T) {
	f := NewFakeDistance(20, 30)
	f.Distance()

	f.Set(500)
	d, _ := f.Distance()
	if d != 500 {
		t.Errorf("after Set: expected 500, got %v", d)
	}

	f.Script(1, 2)
	d, _ = f.Distance()
	if d != 1 {
		t.Errorf("after Script: expected 1, got %v", d)
	}
}

func TestFakeDistanceInstalled(t *testing.T) {
	f := NewFakeDistance(20)
	if !f.Installed() {
		t.Error("should be installed by default")
	}
	f.SetInstalled(false)
	if f.Installed() {
		t.Error("should not be installed after SetInstalled(false)")
	}
}

func TestFakeMotorRecordsCalls(t *testing.T) {
	m := NewFakeMotor()

	m.SetVelocity(100)
	m.Spin(Forward)
	if spinning, dir := m.Spinning(); !spinning || dir != Forward {
		t.Errorf("expected spinning forward, got (%v, %s)", spinning, dir)
	}

	m.SpinFor(Forward, 10, Degrees, true)
	m.Stop(Hold)
	if spinning, _ := m.Spinning(); spinning {
		t.Error("expected stopped")
	}
	if m.LastStop() != Hold {
		t.Errorf("expected HOLD, got %s", m.LastStop())
	}

	calls := m.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(calls))
	}
	if calls[2].Op != "spinFor" || calls[2].Amount != 10 || !calls[2].Wait {
		t.Errorf("unexpected spinFor call: %+v", calls[2])
	}

	m.Reset()
	if len(m.Calls()) != 0 {
		t.Error("expected no calls after Reset")
	}
}

func TestFakeMotorSpinForHook(t *testing.T) {
	m := NewFakeMotor()
	var got float64
	m.OnSpinFor = func(amount float64, unit RotationUnit, wait bool) { got = amount }

	m.SpinFor(Reverse, 180, Degrees, false)
	if got != 180 {
		t.Errorf("hook not called with amount, got %v", got)
	}
}

func TestFakePneumatic(t *testing.T) {
	p := NewFakePneumatic()

	p.PumpOn()
	p.Extend(Cylinder1)
	p.Extend(Cylinder2)
	if !p.Pump() || !p.Extended(Cylinder1) || !p.Extended(Cylinder2) {
		t.Error("expected pump on and both cylinders extended")
	}

	p.Retract(Cylinder1)
	p.PumpOff()
	if p.Pump() || p.Extended(Cylinder1) {
		t.Error("expected pump off and cylinder 1 retracted")
	}
	if len(p.Calls()) != 5 {
		t.Errorf("expected 5 calls, got %d", len(p.Calls()))
	}
}

func TestFakeButton(t *testing.T) {
	b := NewFakeButton()
	pressed, released := 0, 0
	b.OnPressed(func() { pressed++ })
	b.OnReleased(func() { released++ })

	b.Press()
	if !b.Pressing() || pressed != 1 {
		t.Errorf("after Press: pressing=%v pressed=%d", b.Pressing(), pressed)
	}
	b.Release()
	if b.Pressing() || released != 1 {
		t.Errorf("after Release: pressing=%v released=%d", b.Pressing(), released)
	}

	b.Hold(true)
	if !b.Pressing() || pressed != 1 {
		t.Error("Hold should set state without running handlers")
	}
}

func TestFakeIndicator(t *testing.T) {
	i := NewFakeIndicator()
	i.SetColor(ColorGreen)
	if c, on := i.State(); c != ColorGreen || !on {
		t.Errorf("expected lit green, got (%s, %v)", c, on)
	}
	i.Off()
	if _, on := i.State(); on {
		t.Error("expected off")
	}
}

func TestDirectionOpposite(t *testing.T) {
	if Forward.Opposite() != Reverse || Reverse.Opposite() != Forward {
		t.Error("Opposite is wrong")
	}
}
