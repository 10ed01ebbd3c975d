package sound

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
)

// drain streams s to completion and returns every left-channel sample.
func drain(t *testing.T, s beep.Streamer) []float64 {
	t.Helper()
	var out []float64
	buf := make([][2]float64, 512)
	for i := 0; i < 10000; i++ {
		n, ok := s.Stream(buf)
		for _, v := range buf[:n] {
			out = append(out, v[0])
		}
		if !ok {
			return out
		}
	}
	t.Fatal("streamer did not finish")
	return nil
}

func TestToneLength(t *testing.T) {
	s := Tone(SampleRate, 440, 100*time.Millisecond, 0.5)
	got := drain(t, s)
	if want := SampleRate.N(100 * time.Millisecond); len(got) != want {
		t.Errorf("expected %d samples, got %d", want, len(got))
	}
}

func TestToneAmplitudeAndFade(t *testing.T) {
	s := Tone(SampleRate, 440, 50*time.Millisecond, 0.25)
	got := drain(t, s)

	if got[0] != 0 {
		t.Errorf("first sample should be silent, got %v", got[0])
	}
	peak := 0.0
	for _, v := range got {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > 0.25+1e-9 {
		t.Errorf("peak %v exceeds amplitude", peak)
	}
	if peak < 0.2 {
		t.Errorf("peak %v too quiet", peak)
	}
	if math.Abs(got[len(got)-1]) > 0.01 {
		t.Errorf("last sample should be faded, got %v", got[len(got)-1])
	}
}

func TestToneErr(t *testing.T) {
	if err := Tone(SampleRate, 440, time.Millisecond, 0.1).Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTadaLength(t *testing.T) {
	got := drain(t, Tada())
	note := SampleRate.N(90 * time.Millisecond)
	want := 3*note + SampleRate.N(270*time.Millisecond)
	if len(got) != want {
		t.Errorf("expected %d samples, got %d", want, len(got))
	}
}

type recordingPlayer struct {
	played int
}

func (p *recordingPlayer) Play(s beep.Streamer) { p.played++ }

func TestChime(t *testing.T) {
	p := &recordingPlayer{}
	c := NewChime(p)
	c.Tada()
	c.Tada()
	if p.played != 2 {
		t.Errorf("expected 2 plays, got %d", p.played)
	}
}

func TestChimeSilent(t *testing.T) {
	var c *Chime
	c.Tada()
	NewChime(nil).Tada()
}

func TestPlayerFunc(t *testing.T) {
	n := 0
	var p Player = PlayerFunc(func(s ...beep.Streamer) { n += len(s) })
	p.Play(Tada())
	if n != 1 {
		t.Errorf("expected 1 streamer, got %d", n)
	}
}
