package robot

import (
	"time"

	"github.com/extreme-axolotls/relaybot/internal/clock"
	"github.com/extreme-axolotls/relaybot/internal/display"
	"github.com/extreme-axolotls/relaybot/internal/sound"
	"github.com/extreme-axolotls/relaybot/internal/status"
)

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for bounded waits and event times.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithTicks sets the sensor sampling tick source. Without it Start creates
// a ticker at Config.PollPeriod.
func WithTicks(tick <-chan time.Time) Option {
	return func(o *Orchestrator) { o.ticks = tick }
}

// WithScreen sets the robot screen.
func WithScreen(s display.Screen) Option {
	return func(o *Orchestrator) { o.screen = s }
}

// WithChime sets the bumper chime.
func WithChime(c *sound.Chime) Option {
	return func(o *Orchestrator) { o.chime = c }
}

// WithTracker sets the status tracker the orchestrator publishes to.
func WithTracker(t *status.Tracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}
