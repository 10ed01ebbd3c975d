package logic

import "sync"

// DebouncedSensor latches a presence state from raw proximity readings and
// reports edges. Callbacks fire only on a transition, never on a repeated
// reading.
type DebouncedSensor struct {
	name      string
	threshold float64

	mu     sync.Mutex
	state  Presence
	counts EdgeCounts
	onSeen func()
	onLost func()
}

// NewDebouncedSensor creates a sensor that reports Present when an object is
// closer than threshold millimetres.
func NewDebouncedSensor(name string, threshold float64) *DebouncedSensor {
	return &DebouncedSensor{
		name:      name,
		threshold: threshold,
		state:     PresenceUnknown,
	}
}

// Name returns the sensor name.
func (s *DebouncedSensor) Name() string {
	return s.name
}

// Threshold returns the presence threshold in millimetres.
func (s *DebouncedSensor) Threshold() float64 {
	return s.threshold
}

// OnSeen sets the callback for Present transitions. Nil clears it.
func (s *DebouncedSensor) OnSeen(fn func()) {
	s.mu.Lock()
	s.onSeen = fn
	s.mu.Unlock()
}

// OnLost sets the callback for Absent transitions. Nil clears it.
func (s *DebouncedSensor) OnLost(fn func()) {
	s.mu.Lock()
	s.onLost = fn
	s.mu.Unlock()
}

// Observe feeds a raw reading. Readings from an uninstalled sensor are
// ignored, so such a sensor stays Unknown forever.
func (s *DebouncedSensor) Observe(r ProximityReading) {
	if !r.Installed {
		return
	}
	s.Update(r.Distance < s.threshold)
}

// Update feeds a presence sample and fires at most one callback.
// Unknown -> Absent is a transition and fires the lost callback.
func (s *DebouncedSensor) Update(present bool) {
	next := PresenceAbsent
	if present {
		next = PresencePresent
	}

	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	var cb func()
	if present {
		s.counts.Seen++
		cb = s.onSeen
	} else {
		s.counts.Lost++
		cb = s.onLost
	}
	s.mu.Unlock()

	// Run outside the lock: the callback may read this sensor.
	if cb != nil {
		cb()
	}
}

// State returns the latched presence.
func (s *DebouncedSensor) State() Presence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Present reports whether an object is currently latched as present.
// Unknown is not present.
func (s *DebouncedSensor) Present() bool {
	return s.State() == PresencePresent
}

// Counts returns the number of edges seen so far.
func (s *DebouncedSensor) Counts() EdgeCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}
