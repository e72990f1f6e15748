// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

// OutputPin is a digital output line driven by the transmitter
type OutputPin interface {
	High()
	Low()
}

// InputPin is a digital input line sampled by the receiver
type InputPin interface {
	Read() bool
}

// Clock is a monotonic time source. Values never go backwards and are
// never reset while a transmitter or receiver is using them.
type Clock interface {
	Micros() int64
	Millis() int64
}

// spinUntil busy-waits until the clock reaches deadline (microseconds)
func spinUntil(clock Clock, deadline int64) {
	for clock.Micros() < deadline {
	}
}
