// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pins

import "time"

// SystemClock reports monotonic time elapsed since it was created
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock starting at zero
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Micros returns microseconds since the clock was created
func (c *SystemClock) Micros() int64 {
	return time.Since(c.start).Microseconds()
}

// Millis returns milliseconds since the clock was created
func (c *SystemClock) Millis() int64 {
	return time.Since(c.start).Milliseconds()
}

// VirtualClock is a simulated clock that advances by Step microseconds on
// every read. Busy-wait loops against it terminate without real delays, so a
// transmitter driving a Recorder runs as fast as the CPU allows.
type VirtualClock struct {
	now  int64
	Step int64
}

// NewVirtualClock creates a virtual clock advancing 1us per read
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{Step: 1}
}

// Micros returns the current virtual time and advances it
func (c *VirtualClock) Micros() int64 {
	t := c.now
	c.now += c.Step
	return t
}

// Millis returns the current virtual time in milliseconds and advances it
func (c *VirtualClock) Millis() int64 {
	return c.Micros() / 1000
}

// Now returns the current virtual time without advancing it
func (c *VirtualClock) Now() int64 {
	return c.now
}

// Advance moves the clock forward by d microseconds
func (c *VirtualClock) Advance(d int64) {
	c.now += d
}
