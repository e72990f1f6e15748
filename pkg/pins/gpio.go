// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pins provides the digital I/O and clock collaborators used by the
// petrainer transmitter and receiver: Linux sysfs GPIO lines, a monotonic
// system clock, and a CBOR edge capture format for recording and replaying
// pulse trains without radio hardware.
package pins

import (
	"fmt"

	"github.com/davecheney/gpio"
)

// Output is a GPIO line configured as an output
type Output struct {
	num int
	pin gpio.Pin
}

// OpenOutput exports GPIO n and configures it as an output driven low
func OpenOutput(n int) (*Output, error) {
	pin, err := gpio.OpenPin(n, gpio.ModeOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to open output pin %d: %w", n, err)
	}
	pin.Clear()
	return &Output{num: n, pin: pin}, nil
}

// High drives the line high
func (o *Output) High() { o.pin.Set() }

// Low drives the line low
func (o *Output) Low() { o.pin.Clear() }

// Err returns the last error seen by the underlying pin, if any
func (o *Output) Err() error {
	if err := o.pin.Err(); err != nil {
		return fmt.Errorf("pin %d: %w", o.num, err)
	}
	return nil
}

// Close drives the line low and releases it
func (o *Output) Close() error {
	o.pin.Clear()
	return o.pin.Close()
}

// Input is a GPIO line configured as an input
type Input struct {
	num int
	pin gpio.Pin
}

// OpenInput exports GPIO n and configures it as an input
func OpenInput(n int) (*Input, error) {
	pin, err := gpio.OpenPin(n, gpio.ModeInput)
	if err != nil {
		return nil, fmt.Errorf("failed to open input pin %d: %w", n, err)
	}
	return &Input{num: n, pin: pin}, nil
}

// Read samples the line
func (i *Input) Read() bool { return i.pin.Get() }

// Err returns the last error seen by the underlying pin, if any
func (i *Input) Err() error {
	if err := i.pin.Err(); err != nil {
		return fmt.Errorf("pin %d: %w", i.num, err)
	}
	return nil
}

// Close releases the line
func (i *Input) Close() error {
	return i.pin.Close()
}
