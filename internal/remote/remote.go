// Package remote bridges a driver station to the robot over MQTT.
// Controller buttons arrive as press/release messages; on the bench, ball
// sensor distances can be injected the same way. Nothing is published.
package remote

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultPrefix is the root of the topic tree.
const DefaultPrefix = "relaybot"

// Topic levels under the prefix.
const (
	levelController = "controller" // <prefix>/controller/<button>: "pressed" | "released"
	levelSensor     = "sim"        // <prefix>/sim/<sensor>: distance in mm
)

// Subscriber receives messages from a broker.
type Subscriber interface {
	// Subscribe registers handler for topic (MQTT wildcards allowed).
	Subscribe(topic string, handler func(topic string, payload []byte)) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ControllerTopic returns the topic for a controller button.
func ControllerTopic(prefix, button string) string {
	return prefix + "/" + levelController + "/" + button
}

// SensorTopic returns the topic for a bench sensor.
func SensorTopic(prefix, sensor string) string {
	return prefix + "/" + levelSensor + "/" + sensor
}

// ParseButtonPayload parses "pressed"/"released" (also "1"/"0", "down"/"up").
func ParseButtonPayload(payload []byte) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "pressed", "down", "1", "true":
		return true, nil
	case "released", "up", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid button payload %q", payload)
}

// ParseDistancePayload parses a distance in millimetres. "none" means no
// object in range.
func ParseDistancePayload(payload []byte) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(string(payload)))
	if s == "none" {
		return math.Inf(1), nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid distance payload %q: %w", payload, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative distance %v", d)
	}
	return d, nil
}

// VirtualButton is a Button driven by remote messages.
type VirtualButton struct {
	name     string
	pressing atomic.Bool

	mu         sync.Mutex
	onPressed  func()
	onReleased func()
}

// Name returns the button name.
func (b *VirtualButton) Name() string { return b.name }

// Pressing reports whether the button is held.
func (b *VirtualButton) Pressing() bool { return b.pressing.Load() }

// OnPressed sets the press handler.
func (b *VirtualButton) OnPressed(fn func()) {
	b.mu.Lock()
	b.onPressed = fn
	b.mu.Unlock()
}

// OnReleased sets the release handler.
func (b *VirtualButton) OnReleased(fn func()) {
	b.mu.Lock()
	b.onReleased = fn
	b.mu.Unlock()
}

// Set updates the held state. Handlers only run when the state changes, so
// a retransmitted message does not press twice.
func (b *VirtualButton) Set(pressed bool) {
	if b.pressing.Swap(pressed) == pressed {
		return
	}
	b.mu.Lock()
	fn := b.onReleased
	if pressed {
		fn = b.onPressed
	}
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Distance is a DistanceSensor whose reading is set remotely.
type Distance struct {
	mu sync.Mutex
	d  float64
}

// Installed is always true.
func (s *Distance) Installed() bool { return true }

// Distance returns the last injected distance.
func (s *Distance) Distance() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d, nil
}

// Set injects a distance.
func (s *Distance) Set(d float64) {
	s.mu.Lock()
	s.d = d
	s.mu.Unlock()
}

// Bridge maps remote topics onto virtual buttons and sensors.
type Bridge struct {
	prefix string

	mu      sync.Mutex
	buttons map[string]*VirtualButton
	sensors map[string]*Distance
	ignored int
}

// NewBridge creates a Bridge rooted at prefix.
func NewBridge(prefix string) *Bridge {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Bridge{
		prefix:  prefix,
		buttons: make(map[string]*VirtualButton),
		sensors: make(map[string]*Distance),
	}
}

// Button returns the virtual button called name, creating it on first use.
func (b *Bridge) Button(name string) *VirtualButton {
	b.mu.Lock()
	defer b.mu.Unlock()
	vb, ok := b.buttons[name]
	if !ok {
		vb = &VirtualButton{name: name}
		b.buttons[name] = vb
	}
	return vb
}

// Sensor returns the remote sensor called name, creating it on first use.
// A new sensor reads no object in range.
func (b *Bridge) Sensor(name string) *Distance {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sensors[name]
	if !ok {
		s = &Distance{d: math.Inf(1)}
		b.sensors[name] = s
	}
	return s
}

// Attach subscribes the bridge to its topics on sub.
func (b *Bridge) Attach(sub Subscriber) error {
	for _, level := range []string{levelController, levelSensor} {
		topic := b.prefix + "/" + level + "/+"
		if err := sub.Subscribe(topic, b.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return nil
}

// Handle dispatches one message. Messages for unknown buttons or sensors and
// malformed payloads are logged and dropped.
func (b *Bridge) Handle(topic string, payload []byte) {
	rest, ok := strings.CutPrefix(topic, b.prefix+"/")
	if !ok {
		b.ignore("remote: unexpected topic %q", topic)
		return
	}
	level, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		b.ignore("remote: unexpected topic %q", topic)
		return
	}

	switch level {
	case levelController:
		b.mu.Lock()
		vb := b.buttons[name]
		b.mu.Unlock()
		if vb == nil {
			b.ignore("remote: unknown button %q", name)
			return
		}
		pressed, err := ParseButtonPayload(payload)
		if err != nil {
			b.ignore("remote: %s: %v", name, err)
			return
		}
		vb.Set(pressed)

	case levelSensor:
		b.mu.Lock()
		s := b.sensors[name]
		b.mu.Unlock()
		if s == nil {
			b.ignore("remote: unknown sensor %q", name)
			return
		}
		d, err := ParseDistancePayload(payload)
		if err != nil {
			b.ignore("remote: %s: %v", name, err)
			return
		}
		s.Set(d)

	default:
		b.ignore("remote: unexpected topic %q", topic)
	}
}

func (b *Bridge) ignore(format string, args ...any) {
	log.Printf(format, args...)
	b.mu.Lock()
	b.ignored++
	b.mu.Unlock()
}

// Ignored returns how many messages were dropped.
func (b *Bridge) Ignored() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ignored
}

// ReleaseAll releases every held button. Called when the link drops so a
// held control does not stay held.
func (b *Bridge) ReleaseAll() {
	b.mu.Lock()
	buttons := make([]*VirtualButton, 0, len(b.buttons))
	for _, vb := range b.buttons {
		buttons = append(buttons, vb)
	}
	b.mu.Unlock()

	for _, vb := range buttons {
		vb.Set(false)
	}
}
