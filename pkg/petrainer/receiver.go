// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

// Receiver decodes frames from a sampled input pin.
//
// Pulses are measured from rising to falling edge and classified as start,
// zero or one symbols. After a start symbol the next 40 bits form a frame
// candidate, which is accepted only if it arrived within the expected packet
// time and its redundant fields agree. Accepted frames identical to the
// previous one and arriving within 120 ms of it are reported as repeats
// (a held button) rather than new commands.
//
// Poll must be called at least every 100us or narrow pulses are missed.
// Step holds the state machine itself and can be driven from an edge
// callback or a replayed capture instead.
type Receiver struct {
	pin   InputPin
	clock Clock

	// Stats, when set, counts every decoder outcome
	Stats *Statistics

	state       int
	level       bool
	pulseStart  int64
	packetStart int64
	lastEnd     int64
	hasLast     bool
	buffer      Frame
	bit         int

	expectKey uint16
	filterKey bool

	current Command
}

// NewReceiver creates a receiver sampling pin. pin may be nil when the
// receiver is only driven through Step.
func NewReceiver(pin InputPin, clock Clock) *Receiver {
	return &Receiver{
		pin:   pin,
		clock: clock,
		state: stateIdle,
	}
}

// Reset returns the decoder to idle and forgets the previous command
func (r *Receiver) Reset() {
	r.state = stateIdle
	r.level = false
	r.pulseStart = 0
	r.packetStart = 0
	r.lastEnd = 0
	r.hasLast = false
	r.buffer = Frame{}
	r.bit = 0
	r.current = Command{}
}

// SetExpectedKey makes the receiver ignore frames from other transmitters
func (r *Receiver) SetExpectedKey(key uint16) {
	r.expectKey = key
	r.filterKey = true
}

// ClearExpectedKey accepts frames from any transmitter
func (r *Receiver) ClearExpectedKey() {
	r.filterKey = false
}

// Command returns the most recently accepted new command
func (r *Receiver) Command() Command {
	return r.current
}

// Armed reports whether a start symbol has been seen and bits are being collected
func (r *Receiver) Armed() bool {
	return r.state == stateArmed
}

// Poll samples the input pin once
func (r *Receiver) Poll() Event {
	level := r.pin.Read()
	if level == r.level {
		return EventNone
	}
	return r.Step(level, r.clock.Micros())
}

// Step feeds one pin level observed at now (microseconds) into the decoder
func (r *Receiver) Step(level bool, now int64) Event {
	if level == r.level {
		return EventNone
	}
	r.level = level

	// Pulses are measured on their falling edge
	if level {
		r.pulseStart = now
		return EventNone
	}

	var b byte
	width := now - r.pulseStart
	switch {
	case width >= zeroMinMicros && width <= zeroMaxMicros:
		b = 0
	case width >= oneMinMicros && width <= oneMaxMicros:
		b = 1
	case width >= startMinMicros && width <= startMaxMicros:
		r.buffer = Frame{}
		r.bit = 0
		r.packetStart = now
		r.state = stateArmed
		r.Stats.Record(OutcomeStart)
		return EventNone
	default:
		r.Stats.Record(OutcomeNoise)
		return EventNone
	}

	if r.state != stateArmed || r.bit >= FrameBits {
		r.Stats.Record(OutcomeStray)
		return EventNone
	}
	r.buffer[r.bit>>3] |= b << (7 - uint(r.bit&7))
	r.bit++
	r.Stats.Record(OutcomeBit)
	if r.bit < FrameBits {
		return EventNone
	}
	r.state = stateIdle

	if elapsed := now - r.packetStart; elapsed < packetMinMicros || elapsed > packetMaxMicros {
		r.Stats.Record(OutcomeTiming)
		return EventNone
	}

	cmd, err := DecodeFrame(r.buffer)
	if err != nil {
		r.Stats.Record(OutcomeMalformed)
		return EventNone
	}

	if r.filterKey && cmd.Key != r.expectKey {
		r.Stats.Record(OutcomeFiltered)
		return EventNone
	}

	gap := r.packetStart - r.lastEnd
	repeat := r.hasLast && gap < repeatWindowMicros && cmd == r.current
	r.lastEnd = now
	r.hasLast = true

	if repeat {
		r.Stats.Record(OutcomeRepeat)
		return EventRepeat
	}

	r.current = cmd
	r.Stats.Record(OutcomeNew)
	return EventNew
}
