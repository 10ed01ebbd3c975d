// Package sound builds the robot's audio cues as beep streamers. Playback
// is left to the caller so this package never opens an audio device.
package sound

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// SampleRate is the rate all cues are generated at.
const SampleRate = beep.SampleRate(44100)

// Player plays a streamer, typically speaker.Play.
type Player interface {
	Play(s beep.Streamer)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(s ...beep.Streamer)

// Play calls f(s).
func (f PlayerFunc) Play(s beep.Streamer) { f(s) }

// tone is a sine oscillator with a short linear fade at both ends to avoid
// clicks.
type tone struct {
	freq  float64
	amp   float64
	total int
	fade  int
	pos   int
	phase float64
	rate  beep.SampleRate
}

// Tone returns a sine streamer of the given frequency and duration.
func Tone(rate beep.SampleRate, freq float64, d time.Duration, amp float64) beep.Streamer {
	total := rate.N(d)
	fade := rate.N(5 * time.Millisecond)
	if fade*2 > total {
		fade = total / 2
	}
	return &tone{freq: freq, amp: amp, total: total, fade: fade, rate: rate}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.pos >= t.total {
			return i, i > 0
		}

		env := 1.0
		if t.fade > 0 {
			if t.pos < t.fade {
				env = float64(t.pos) / float64(t.fade)
			} else if rem := t.total - t.pos; rem < t.fade {
				env = float64(rem) / float64(t.fade)
			}
		}

		v := t.amp * env * math.Sin(2*math.Pi*t.phase)
		samples[i][0] = v
		samples[i][1] = v

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// Tada is the rising arpeggio played when the bumper is pressed.
func Tada() beep.Streamer {
	note := 90 * time.Millisecond
	return beep.Seq(
		Tone(SampleRate, 523.25, note, 0.3),    // C5
		Tone(SampleRate, 659.25, note, 0.3),    // E5
		Tone(SampleRate, 783.99, note, 0.3),    // G5
		Tone(SampleRate, 1046.50, 3*note, 0.3), // C6
	)
}

// Chime plays Tada through a Player. A nil Player makes it silent.
type Chime struct {
	player Player
}

// NewChime creates a Chime.
func NewChime(p Player) *Chime {
	return &Chime{player: p}
}

// Tada plays the bumper cue.
func (c *Chime) Tada() {
	if c == nil || c.player == nil {
		return
	}
	c.player.Play(Tada())
}
