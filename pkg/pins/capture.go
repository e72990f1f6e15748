// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pins

import (
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/fxamacker/cbor/v2"
)

// Edge is one level change of a captured pulse train. Captures are a plain
// sequence of CBOR maps {0: level, 1: micros}, which is what the sampling
// firmware streams over serial or WebSocket.
type Edge struct {
	Level  bool  `cbor:"0,keyasint"`
	Micros int64 `cbor:"1,keyasint"`
}

// Recorder is an output pin that writes every level change to a capture
// stream. When Pin is set the levels are also forwarded to it, so a live
// transmission can be recorded as it goes out.
type Recorder struct {
	// Pin optionally receives every level change
	Pin petrainer.OutputPin

	enc   *cbor.Encoder
	clock petrainer.Clock
	level bool
	edges int
	err   error
}

// NewRecorder creates a recorder writing to w, stamping edges with clock
func NewRecorder(w io.Writer, clock petrainer.Clock) *Recorder {
	return &Recorder{
		enc:   cbor.NewEncoder(w),
		clock: clock,
	}
}

// High records a rising edge
func (r *Recorder) High() { r.set(true) }

// Low records a falling edge
func (r *Recorder) Low() { r.set(false) }

func (r *Recorder) set(level bool) {
	if r.Pin != nil {
		if level {
			r.Pin.High()
		} else {
			r.Pin.Low()
		}
	}

	if level == r.level || r.err != nil {
		return
	}
	r.level = level
	if err := r.enc.Encode(Edge{Level: level, Micros: r.clock.Micros()}); err != nil {
		r.err = fmt.Errorf("failed to write edge %d: %w", r.edges, err)
		return
	}
	r.edges++
}

// Edges returns the number of edges written
func (r *Recorder) Edges() int {
	return r.edges
}

// Err returns the first write error. Once set, further edges are dropped.
func (r *Recorder) Err() error {
	return r.err
}

// Handler is called for every event a replayed capture produces
type Handler func(ev petrainer.Event, cmd petrainer.Command, at int64)

// Stepper is the part of a receiver that Replay drives.
// *petrainer.Receiver implements it.
type Stepper interface {
	Step(level bool, now int64) petrainer.Event
	Command() petrainer.Command
}

// Replay decodes edges from r and feeds them to rx until the stream ends.
// It returns the number of edges replayed. A clean end of stream is not an
// error; a truncated or corrupt record is.
func Replay(r io.Reader, rx Stepper, handle Handler) (int, error) {
	dec := cbor.NewDecoder(r)
	n := 0
	for {
		var e Edge
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("failed to decode edge %d: %w", n, err)
		}
		n++

		ev := rx.Step(e.Level, e.Micros)
		if ev != petrainer.EventNone && handle != nil {
			handle(ev, rx.Command(), e.Micros)
		}
	}
}
