// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import (
	"context"
	"fmt"
)

// FrameSender transmits a single frame, blocking until it is on the air
type FrameSender interface {
	Send(f Frame)
}

// Request describes one command session
type Request struct {
	Action   Action
	Channels ChannelMask
	Power    uint8

	// Duration is the session length in milliseconds when zero or
	// positive, or the negated number of rounds to send when negative
	Duration int64
}

// Rounds returns a Request.Duration that sends exactly n rounds
func Rounds(n int) int64 {
	return -int64(n)
}

// Remote runs command sessions the way a handheld remote does: the same
// frame is repeated for as long as the button is held.
type Remote struct {
	tx    FrameSender
	clock Clock

	// Key identifies this transmitter to the collar
	Key uint16

	// Interrupt is polled once per round; returning true ends the session
	// with ErrInterrupted
	Interrupt func() bool
}

// NewRemote creates a Remote sending through tx with DefaultKey
func NewRemote(tx FrameSender, clock Clock) *Remote {
	return &Remote{
		tx:    tx,
		clock: clock,
		Key:   DefaultKey,
	}
}

// Command transmits the requested action until the duration elapses or the
// round count is reached. With both channels selected every round sends the
// channel 1 frame followed by the channel 2 frame.
//
// Returns nil on completion, ErrInvalidParams if a frame cannot be built
// (nothing is sent), or ErrInterrupted if Interrupt fired.
func (r *Remote) Command(req Request) error {
	if req.Channels == MaskNone || req.Channels&^MaskBoth != 0 {
		return fmt.Errorf("channel mask %d: %w", req.Channels, ErrInvalidParams)
	}

	var f1, f2 Frame
	var err error
	if req.Channels.Has(Channel1) {
		if f1, err = Encode(r.Key, Channel1, req.Action, req.Power); err != nil {
			return err
		}
	}
	if req.Channels.Has(Channel2) {
		if f2, err = Encode(r.Key, Channel2, req.Action, req.Power); err != nil {
			return err
		}
	}

	start := r.clock.Millis()
	var rounds int64
	for {
		if r.Interrupt != nil && r.Interrupt() {
			return ErrInterrupted
		}
		if req.Duration >= 0 {
			if r.clock.Millis()-start >= req.Duration {
				return nil
			}
		} else if rounds >= -req.Duration {
			return nil
		}

		if req.Channels.Has(Channel1) {
			r.tx.Send(f1)
		}
		if req.Channels.Has(Channel2) {
			r.tx.Send(f2)
		}
		rounds++
	}
}

// LED flashes the collar light
func (r *Remote) LED(channels ChannelMask, duration int64) error {
	return r.Command(Request{Action: ActionLED, Channels: channels, Power: 1, Duration: duration})
}

// Beep sounds the collar buzzer
func (r *Remote) Beep(channels ChannelMask, duration int64) error {
	return r.Command(Request{Action: ActionBeep, Channels: channels, Power: 1, Duration: duration})
}

// Vibrate runs the collar vibration motor at power (0-100)
func (r *Remote) Vibrate(channels ChannelMask, power uint8, duration int64) error {
	return r.Command(Request{Action: ActionVibrate, Channels: channels, Power: power, Duration: duration})
}

// Zap applies static stimulation at power (0-100)
func (r *Remote) Zap(channels ChannelMask, power uint8, duration int64) error {
	return r.Command(Request{Action: ActionZap, Channels: channels, Power: power, Duration: duration})
}

// InterruptOnContext returns an Interrupt predicate that fires once ctx is done
func InterruptOnContext(ctx context.Context) func() bool {
	return func() bool {
		return ctx.Err() != nil
	}
}
