// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import "testing"

// expectedSymbols returns the on/off times of every symbol in a frame
func expectedSymbols(f Frame) [][2]int64 {
	symbols := [][2]int64{{StartOnMicros, StartOffMicros}}
	for i := 0; i < FrameBits; i++ {
		if f.Bit(i) {
			symbols = append(symbols, [2]int64{OneOnMicros, OneOffMicros})
		} else {
			symbols = append(symbols, [2]int64{ZeroOnMicros, ZeroOffMicros})
		}
	}
	return append(symbols, [2]int64{ZeroOnMicros, ZeroOffMicros})
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestTransmitter_PulseTrain(t *testing.T) {
	clock := &fakeClock{now: 1000, step: 1}
	pin := &recordingPin{clock: clock}
	tx := NewTransmitter(pin, nil, clock)

	f := mustEncode(t, 0xABCD, Channel1, ActionZap, 100)
	tx.Send(f)

	symbols := expectedSymbols(f)
	if len(pin.edges) != 2*len(symbols) {
		t.Fatalf("expected %d edges, got %d", 2*len(symbols), len(pin.edges))
	}

	first := pin.edges[0].at
	var offset int64
	for i, sym := range symbols {
		rise, fall := pin.edges[2*i], pin.edges[2*i+1]
		if !rise.level || fall.level {
			t.Fatalf("symbol %d: edges out of order", i)
		}

		// Pulse width is the on time less compensation
		width := fall.at - rise.at
		if abs64(width-(sym[0]-DefaultCompensationMicros)) > 1 {
			t.Errorf("symbol %d: width %d, want %d", i, width, sym[0]-DefaultCompensationMicros)
		}

		// Rising edges stay locked to the cumulative schedule
		if drift := rise.at - first - offset; abs64(drift) > 1 {
			t.Errorf("symbol %d: rising edge drifted by %dus", i, drift)
		}
		offset += sym[0] + sym[1]
	}

	// Inter-packet gap follows the trailer pulse
	last := pin.edges[len(pin.edges)-1].at
	if gap := clock.now - last; gap < InterPacketGapMicros {
		t.Errorf("inter-packet gap %dus, want at least %d", gap, InterPacketGapMicros)
	}
}

func TestTransmitter_DriftAbsorbedInOffTime(t *testing.T) {
	// A slow clock read path must not shift later symbols
	clock := &fakeClock{step: 7}
	pin := &recordingPin{clock: clock}
	tx := NewTransmitter(pin, nil, clock)

	f := mustEncode(t, 0x5555, Channel2, ActionBeep, 0)
	tx.Send(f)

	symbols := expectedSymbols(f)
	first := pin.edges[0].at
	var offset int64
	for i, sym := range symbols {
		rise := pin.edges[2*i]
		if drift := rise.at - first - offset; abs64(drift) > 2*clock.step {
			t.Fatalf("symbol %d: rising edge drifted by %dus", i, drift)
		}
		offset += sym[0] + sym[1]
	}
}

func TestTransmitter_Indicator(t *testing.T) {
	clock := &fakeClock{step: 1}
	pin := &recordingPin{clock: clock}
	led := &recordingPin{clock: clock}
	tx := NewTransmitter(pin, led, clock)

	tx.Send(mustEncode(t, 0x1234, Channel1, ActionLED, 1))

	if len(led.edges) != 2 {
		t.Fatalf("indicator should toggle once, got %d edges", len(led.edges))
	}
	if led.edges[0].at > pin.edges[0].at {
		t.Error("indicator should rise before the first pulse")
	}
	if led.edges[1].at < pin.edges[len(pin.edges)-1].at {
		t.Error("indicator should fall after the last pulse")
	}
	if led.level {
		t.Error("indicator should be low after Send")
	}
}

func TestTransmitter_InvalidFrameIgnored(t *testing.T) {
	clock := &fakeClock{step: 1}
	pin := &recordingPin{clock: clock}
	led := &recordingPin{clock: clock}
	tx := NewTransmitter(pin, led, clock)

	before := clock.now
	tx.Send(Frame{})

	if len(pin.edges) != 0 || len(led.edges) != 0 {
		t.Errorf("invalid frame should not drive pins, got %d/%d edges", len(pin.edges), len(led.edges))
	}
	if clock.now != before {
		t.Error("invalid frame should return without waiting")
	}
}

func TestTransmitter_ToReceiver(t *testing.T) {
	clock := &fakeClock{step: 1}
	pin := &recordingPin{clock: clock}
	tx := NewTransmitter(pin, nil, clock)

	want := Command{Key: 0xBEEF, Channel: Channel2, Action: ActionVibrate, Power: 75}
	f, err := EncodeCommand(want)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		tx.Send(f)
	}

	rx := NewReceiver(nil, clock)
	rx.Stats = NewStatistics()
	var events []Event
	for _, e := range pin.edges {
		if ev := rx.Step(e.level, e.at); ev != EventNone {
			events = append(events, ev)
		}
	}

	wantEvents := []Event{EventNew, EventRepeat, EventRepeat}
	if len(events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v (stats:\n%s)", events, wantEvents, rx.Stats)
	}
	for i := range events {
		if events[i] != wantEvents[i] {
			t.Errorf("event %d = %d, want %d", i, events[i], wantEvents[i])
		}
	}
	if rx.Command() != want {
		t.Errorf("Command() = %+v, want %+v", rx.Command(), want)
	}
}
