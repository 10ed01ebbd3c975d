// Package logic contains the pure state model of the robot core: presence
// debouncing, the event bus, and the subsystem state enums.
// This package has NO external dependencies (no hardware, no time.Sleep).
package logic

// Presence is the latched state of a proximity sensor.
type Presence string

const (
	PresenceUnknown Presence = "UNKNOWN"
	PresencePresent Presence = "PRESENT"
	PresenceAbsent  Presence = "ABSENT"
)

// LauncherState is the phase of the spring launcher.
type LauncherState string

const (
	LauncherDown     LauncherState = "DOWN"
	LauncherWinding  LauncherState = "WINDING"
	LauncherReleased LauncherState = "RELEASED"
)

// IntakeState reflects the last command sent to the intake motors.
type IntakeState string

const (
	IntakeStopped  IntakeState = "STOPPED"
	IntakeRunning  IntakeState = "RUNNING"  // feed direction
	IntakeReversed IntakeState = "REVERSED" // eject direction
)

// GripperState is the position of the pneumatic ball gripper.
type GripperState string

const (
	GripperUnknown  GripperState = "UNKNOWN"
	GripperHugging  GripperState = "HUGGING"
	GripperReleased GripperState = "RELEASED"
)

// EventType names a slot on the EventBus.
type EventType string

const (
	EventIntakeBallSeen EventType = "INTAKE_BALL_SEEN"
	EventIntakeBallLost EventType = "INTAKE_BALL_LOST"
	EventTopBallSeen    EventType = "TOP_BALL_SEEN"
	EventTopBallLost    EventType = "TOP_BALL_LOST"
	EventBumperPressed  EventType = "BUMPER_PRESSED"
	EventBumperReleased EventType = "BUMPER_RELEASED"
)

// ProximityReading is a single sample from a distance sensor.
type ProximityReading struct {
	Distance  float64 // millimetres
	Installed bool
}

// EdgeCounts tracks the number of edges a sensor has reported since startup.
type EdgeCounts struct {
	Seen int
	Lost int
}
