// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

// Transmitter emits frames as on/off pulse trains on an output pin.
//
// Every symbol is scheduled against a running deadline that advances by the
// symbol's on+off time, so per-call overhead is absorbed in the off time
// instead of accumulating across the frame. Send blocks for the whole frame
// (about 51 ms including the inter-packet gap) and busy-waits; it must not
// be called concurrently on the same pin.
type Transmitter struct {
	pin       OutputPin
	indicator OutputPin
	clock     Clock

	// Compensation is subtracted from every on time to cover the fixed
	// cost of raising and lowering the pin
	Compensation int64
}

// NewTransmitter creates a transmitter driving pin. indicator may be nil;
// when set it is held high while a frame is on the air.
func NewTransmitter(pin OutputPin, indicator OutputPin, clock Clock) *Transmitter {
	pin.Low()
	if indicator != nil {
		indicator.Low()
	}
	return &Transmitter{
		pin:          pin,
		indicator:    indicator,
		clock:        clock,
		Compensation: DefaultCompensationMicros,
	}
}

// Send transmits one frame. Invalid frames are ignored.
func (t *Transmitter) Send(f Frame) {
	if !f.Valid() {
		return
	}

	if t.indicator != nil {
		t.indicator.High()
	}

	deadline := t.clock.Micros()
	t.pulse(&deadline, StartOnMicros, StartOffMicros)
	for i := 0; i < FrameBits; i++ {
		if f.Bit(i) {
			t.pulse(&deadline, OneOnMicros, OneOffMicros)
		} else {
			t.pulse(&deadline, ZeroOnMicros, ZeroOffMicros)
		}
	}
	// Trailer: only the first of the two zero bits is a real symbol
	t.pulse(&deadline, ZeroOnMicros, ZeroOffMicros)

	if t.indicator != nil {
		t.indicator.Low()
	}

	// The gap also covers the trailer's off time
	spinUntil(t.clock, t.clock.Micros()+InterPacketGapMicros)
}

// pulse waits for the deadline, holds the pin high for on microseconds and
// moves the deadline to the start of the next symbol
func (t *Transmitter) pulse(deadline *int64, on, off int64) {
	spinUntil(t.clock, *deadline)
	t.pin.High()
	spinUntil(t.clock, *deadline+on-t.Compensation)
	t.pin.Low()
	*deadline += on + off
}
