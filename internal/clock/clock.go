// Package clock provides an injectable time source so that bounded waits can
// be tested without real sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock reports the time and sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Real is the wall clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// Sleep calls time.Sleep.
func (Real) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a manual clock. Sleep advances the clock instead of blocking.
// Safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

// NewFake creates a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the fake time by d.
func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.sleeps++
	f.mu.Unlock()
}

// Advance moves the fake time forward by d without counting a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Sleeps returns how many times Sleep was called.
func (f *Fake) Sleeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sleeps
}
