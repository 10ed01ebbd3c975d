package robot

import (
	"errors"
	"fmt"
	"time"

	"github.com/extreme-axolotls/relaybot/internal/intake"
	"github.com/extreme-axolotls/relaybot/internal/launcher"
	"github.com/extreme-axolotls/relaybot/internal/poller"
)

// Config holds the tuning of the whole robot.
type Config struct {
	PollPeriod      time.Duration
	IntakeThreshold float64 // mm; ball at the intake
	TopThreshold    float64 // mm; ball at the launch position
	QueueSize       int     // buffered operator commands; further presses wait for room

	Launcher launcher.Config
	Intake   intake.Config

	ScreenColor string
	PenColor    string
}

// DefaultConfig returns the competition tuning.
func DefaultConfig() Config {
	return Config{
		PollPeriod:      poller.DefaultPeriod,
		IntakeThreshold: 80,
		TopThreshold:    35,
		QueueSize:       64,
		Launcher:        launcher.DefaultConfig(),
		Intake:          intake.DefaultConfig(),
		ScreenColor:     "black",
		PenColor:        "orange",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if err := poller.ValidatePeriod(c.PollPeriod); err != nil {
		errs = append(errs, err)
	}
	if c.IntakeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("intake threshold must be positive, got %v", c.IntakeThreshold))
	}
	if c.TopThreshold <= 0 {
		errs = append(errs, fmt.Errorf("top threshold must be positive, got %v", c.TopThreshold))
	}
	if c.Launcher.ArmThreshold <= 0 {
		errs = append(errs, fmt.Errorf("arm threshold must be positive, got %v", c.Launcher.ArmThreshold))
	}
	if c.Launcher.WindTimeout <= 0 {
		errs = append(errs, fmt.Errorf("wind timeout must be positive, got %v", c.Launcher.WindTimeout))
	}
	if c.Launcher.WindPoll <= 0 || c.Launcher.WindPoll > c.Launcher.WindTimeout {
		errs = append(errs, fmt.Errorf("wind poll %v must be positive and within the wind timeout", c.Launcher.WindPoll))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize))
	}
	return errors.Join(errs...)
}
