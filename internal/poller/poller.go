// Package poller samples proximity sensors on a fixed period and feeds the
// readings into their debounced sensors.
package poller

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/extreme-axolotls/relaybot/internal/device"
	"github.com/extreme-axolotls/relaybot/internal/logic"
)

// Period bounds for the sampling loop.
const (
	MinPeriod     = 10 * time.Millisecond
	MaxPeriod     = 20 * time.Millisecond
	DefaultPeriod = 10 * time.Millisecond
)

// ValidatePeriod checks that period lies within [MinPeriod, MaxPeriod].
func ValidatePeriod(period time.Duration) error {
	if period < MinPeriod || period > MaxPeriod {
		return fmt.Errorf("poll period %v outside [%v, %v]", period, MinPeriod, MaxPeriod)
	}
	return nil
}

// Channel pairs a raw sensor with the debounced sensor it drives.
type Channel struct {
	Sensor    device.DistanceSensor
	Debounced *logic.DebouncedSensor
}

// Poller owns the sampling cadence.
type Poller struct {
	channels []Channel
	errors   atomic.Int64
}

// New creates a Poller over the given channels. Channels are sampled in
// order on every tick.
func New(channels ...Channel) *Poller {
	return &Poller{channels: channels}
}

// Run samples on every tick until ctx is cancelled. A failed reading is
// logged and skipped; it never stops the loop.
func (p *Poller) Run(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			p.Sample()
		}
	}
}

// Sample reads every installed sensor once. Debounced callbacks run
// synchronously inside Sample, so they must not wait on the poller.
func (p *Poller) Sample() {
	for _, ch := range p.channels {
		installed := ch.Sensor.Installed()
		if !installed {
			continue
		}
		d, err := ch.Sensor.Distance()
		if err != nil {
			p.errors.Add(1)
			log.Printf("poller: %s read error: %v", ch.Debounced.Name(), err)
			continue
		}
		ch.Debounced.Observe(logic.ProximityReading{Distance: d, Installed: installed})
	}
}

// Errors returns the number of failed readings so far.
func (p *Poller) Errors() int64 {
	return p.errors.Load()
}
