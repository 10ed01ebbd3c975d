package logic

import "testing"

func TestBroadcastNoHandler(t *testing.T) {
	b := NewEventBus()
	// Must not panic.
	b.Broadcast(EventTopBallSeen)
}

func TestBroadcastInvokesHandler(t *testing.T) {
	b := NewEventBus()
	calls := 0
	b.Register(EventIntakeBallSeen, func() { calls++ })

	b.Broadcast(EventIntakeBallSeen)
	b.Broadcast(EventIntakeBallSeen)
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}

	b.Broadcast(EventIntakeBallLost)
	if calls != 2 {
		t.Errorf("other event should not invoke handler, got %d calls", calls)
	}
}

func TestRegisterReplaces(t *testing.T) {
	b := NewEventBus()
	first, second := 0, 0
	b.Register(EventTopBallLost, func() { first++ })
	b.Register(EventTopBallLost, func() { second++ })

	b.Broadcast(EventTopBallLost)
	if first != 0 {
		t.Errorf("replaced handler was called %d times", first)
	}
	if second != 1 {
		t.Errorf("expected replacement handler called once, got %d", second)
	}
}

func TestRegisterNilClears(t *testing.T) {
	b := NewEventBus()
	calls := 0
	b.Register(EventBumperPressed, func() { calls++ })
	b.Register(EventBumperPressed, nil)

	b.Broadcast(EventBumperPressed)
	if calls != 0 {
		t.Errorf("expected cleared slot, got %d calls", calls)
	}
}

func TestBroadcasterAsSensorCallback(t *testing.T) {
	b := NewEventBus()
	s := NewDebouncedSensor("top", 35)
	seen := 0
	b.Register(EventTopBallSeen, func() { seen++ })
	s.OnSeen(b.Broadcaster(EventTopBallSeen))

	s.Update(true)
	s.Update(true)
	if seen != 1 {
		t.Errorf("expected 1 broadcast, got %d", seen)
	}
}

func TestHandlerMayRegister(t *testing.T) {
	b := NewEventBus()
	released := 0
	b.Register(EventBumperPressed, func() {
		b.Register(EventBumperReleased, func() { released++ })
	})

	b.Broadcast(EventBumperPressed)
	b.Broadcast(EventBumperReleased)
	if released != 1 {
		t.Errorf("handler registered from inside a broadcast was lost, calls=%d", released)
	}
}
