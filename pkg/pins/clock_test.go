// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pins

import (
	"testing"
	"time"
)

func TestSystemClock_Monotonic(t *testing.T) {
	c := NewSystemClock()
	prev := c.Micros()
	for i := 0; i < 1000; i++ {
		now := c.Micros()
		if now < prev {
			t.Fatalf("clock went backwards: %d after %d", now, prev)
		}
		prev = now
	}

	time.Sleep(2 * time.Millisecond)
	if ms := c.Millis(); ms < 2 {
		t.Errorf("Millis() = %d after sleeping 2ms", ms)
	}
}

func TestVirtualClock_Step(t *testing.T) {
	c := NewVirtualClock()
	if got := c.Micros(); got != 0 {
		t.Errorf("first read = %d, want 0", got)
	}
	if got := c.Micros(); got != 1 {
		t.Errorf("second read = %d, want 1", got)
	}

	c.Advance(1998)
	if got := c.Now(); got != 2000 {
		t.Errorf("Now() = %d, want 2000", got)
	}
	if got := c.Millis(); got != 2 {
		t.Errorf("Millis() = %d, want 2", got)
	}
}
