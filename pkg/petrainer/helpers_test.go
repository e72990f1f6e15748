// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// ============================================================
// Fakes
// ============================================================

// fakeClock advances by step microseconds on every Micros/Millis read
type fakeClock struct {
	now  int64
	step int64
}

func (c *fakeClock) Micros() int64 {
	t := c.now
	c.now += c.step
	return t
}

func (c *fakeClock) Millis() int64 {
	return c.Micros() / 1000
}

type edge struct {
	level bool
	at    int64
}

// recordingPin logs level changes stamped with the fake clock
type recordingPin struct {
	clock *fakeClock
	level bool
	edges []edge
}

func (p *recordingPin) High() { p.set(true) }
func (p *recordingPin) Low()  { p.set(false) }

func (p *recordingPin) set(level bool) {
	if level == p.level {
		return
	}
	p.level = level
	p.edges = append(p.edges, edge{level: level, at: p.clock.now})
}

// countingSender records frames and advances the clock by a frame time
type countingSender struct {
	clock   *fakeClock
	perSend int64
	frames  []Frame
}

func (s *countingSender) Send(f Frame) {
	s.frames = append(s.frames, f)
	s.clock.now += s.perSend
}

// ============================================================
// Pulse feeding helpers
// ============================================================

// feedPulse drives one high pulse of width microseconds starting at t
func feedPulse(r *Receiver, t, width int64) Event {
	r.Step(true, t)
	return r.Step(false, t+width)
}

// feedFrame feeds a nominally timed frame whose start symbol rises at t0,
// using bitPeriod microseconds per data symbol. Returns the last event and
// the time of the final falling edge.
func feedFrame(r *Receiver, f Frame, t0, bitPeriod int64) (Event, int64) {
	feedPulse(r, t0, StartOnMicros)
	t := t0 + StartOnMicros + StartOffMicros
	var ev Event
	var end int64
	for i := 0; i < FrameBits; i++ {
		on := int64(ZeroOnMicros)
		if f.Bit(i) {
			on = OneOnMicros
		}
		ev = feedPulse(r, t, on)
		end = t + on
		t += bitPeriod
	}
	return ev, end
}

func mustEncode(t *testing.T, key uint16, ch Channel, action Action, power uint8) Frame {
	t.Helper()
	f, err := Encode(key, ch, action, power)
	if err != nil {
		t.Fatalf("Encode(0x%04X, %d, %s, %d) failed: %v", key, ch, action, power, err)
	}
	return f
}

// ============================================================
// Fuzz helpers
// ============================================================

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// newFuzzRng creates a seeded generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if s, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

var (
	allChannels = []Channel{Channel1, Channel2}
	allActions  = []Action{ActionLED, ActionBeep, ActionVibrate, ActionZap}
)
