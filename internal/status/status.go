// Package status provides a thread-safe status tracker for the robot.
// It is read by the screen renderer and the one-shot state printer.
package status

import (
	"sync"
	"time"

	"github.com/extreme-axolotls/relaybot/internal/logic"
)

// DefaultHistory is the number of recent events kept.
const DefaultHistory = 16

// Config contains robot configuration for display.
type Config struct {
	PollMs        int64
	WindTimeoutMs int64
	FeedPolicy    string
	Remote        string // MQTT broker of the driver station (empty = none)
}

// SensorStatus is the latched state of one debounced sensor.
type SensorStatus struct {
	Name     string
	Presence logic.Presence
	Counts   logic.EdgeCounts
}

// Robot is the subsystem state published by the orchestrator.
type Robot struct {
	Launcher       logic.LauncherState
	ArmUnconfirmed bool // Down after a wind timeout, arm never seen
	Belt           bool
	Intake         logic.IntakeState
	Gripper        logic.GripperState
	Pump           bool
	Continuous     bool
	ReadErrors     int64 // failed proximity readings since start
	Sensors        []SensorStatus
}

// Link is the state of the driver-station link.
type Link struct {
	State   string // "up" or "down"; empty without a broker
	Ignored int    // remote messages dropped as malformed or unknown
}

// Snapshot is a point-in-time view of robot state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Robot
	Link      Link
	Running   bool
	History   []Entry
	StartTime time.Time
	Now       time.Time
	Config    Config
}

// Uptime returns the duration since the robot started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable robot state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	hist          *history
	lastHeartbeat time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		hist:          newHistory(DefaultHistory),
		lastHeartbeat: startTime,
	}
}

// Update replaces the subsystem state. Called by the command owner after
// every command.
func (t *Tracker) Update(r Robot) {
	sensors := make([]SensorStatus, len(r.Sensors))
	copy(sensors, r.Sensors)
	r.Sensors = sensors

	t.mu.Lock()
	t.snap.Robot = r
	t.mu.Unlock()
}

// SetRunning sets the running flag.
func (t *Tracker) SetRunning(running bool) {
	t.mu.Lock()
	t.snap.Running = running
	t.mu.Unlock()
}

// SetLink replaces the driver-station link state.
func (t *Tracker) SetLink(l Link) {
	t.mu.Lock()
	t.snap.Link = l
	t.mu.Unlock()
}

// Record appends an event to the recent history.
func (t *Tracker) Record(at time.Time, event string) {
	t.mu.Lock()
	t.hist.push(Entry{Time: at, Event: event})
	t.mu.Unlock()
}

// CheckHeartbeat reports whether interval has elapsed since the last
// heartbeat (or startup), and if so starts a new interval. An interval <= 0
// disables heartbeats.
func (t *Tracker) CheckHeartbeat(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastHeartbeat) < interval {
		return false
	}
	t.lastHeartbeat = now
	return true
}

// Snapshot returns a point-in-time copy of the robot state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Sensors = append([]SensorStatus(nil), t.snap.Sensors...)
	s.History = t.hist.items()
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
