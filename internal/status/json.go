package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Running        bool         `json:"running"`
	Launcher       string       `json:"launcher"`
	ArmUnconfirmed bool         `json:"arm_unconfirmed,omitempty"`
	Belt           bool         `json:"belt"`
	Intake         string       `json:"intake"`
	Gripper        string       `json:"gripper"`
	Pump           bool         `json:"pump"`
	Continuous     bool         `json:"continuous"`
	ReadErrors     int64        `json:"read_errors"`
	Link           *LinkJSON    `json:"link,omitempty"`
	Sensors        []SensorJSON `json:"sensors"`
	History        []EntryJSON  `json:"history,omitempty"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	Config         ConfigJSON   `json:"config"`
}

// SensorJSON is the JSON representation of a debounced sensor.
type SensorJSON struct {
	Name     string `json:"name"`
	Presence string `json:"presence"`
	Seen     int    `json:"seen"`
	Lost     int    `json:"lost"`
}

// LinkJSON is the JSON representation of the driver-station link.
type LinkJSON struct {
	State   string `json:"state"`
	Ignored int    `json:"ignored"`
}

// EntryJSON is the JSON representation of a history entry.
type EntryJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// ConfigJSON is the JSON representation of robot config.
type ConfigJSON struct {
	PollMs        int64  `json:"poll_ms"`
	WindTimeoutMs int64  `json:"wind_timeout_ms"`
	FeedPolicy    string `json:"feed_policy"`
	Remote        string `json:"remote,omitempty"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

// FormatJSON returns the indented JSON status.
func FormatJSON(snap Snapshot) []byte {
	inner := StatusInner{
		Running:        snap.Running,
		Launcher:       orUnknown(string(snap.Launcher)),
		ArmUnconfirmed: snap.ArmUnconfirmed,
		Belt:           snap.Belt,
		Intake:         orUnknown(string(snap.Intake)),
		Gripper:        orUnknown(string(snap.Gripper)),
		Pump:           snap.Pump,
		Continuous:     snap.Continuous,
		ReadErrors:     snap.ReadErrors,
		Sensors:        []SensorJSON{},
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		Config: ConfigJSON{
			PollMs:        snap.Config.PollMs,
			WindTimeoutMs: snap.Config.WindTimeoutMs,
			FeedPolicy:    snap.Config.FeedPolicy,
			Remote:        snap.Config.Remote,
		},
	}

	if snap.Link.State != "" {
		inner.Link = &LinkJSON{State: snap.Link.State, Ignored: snap.Link.Ignored}
	}
	for _, s := range snap.Sensors {
		inner.Sensors = append(inner.Sensors, SensorJSON{
			Name:     s.Name,
			Presence: orUnknown(string(s.Presence)),
			Seen:     s.Counts.Seen,
			Lost:     s.Counts.Lost,
		})
	}
	for _, e := range snap.History {
		inner.History = append(inner.History, EntryJSON{
			Timestamp: e.Time.UTC().Format(time.RFC3339),
			Event:     e.Event,
		})
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
