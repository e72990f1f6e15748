// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"led", ActionLED},
		{"LIGHT", ActionLED},
		{"beep", ActionBeep},
		{" Tone ", ActionBeep},
		{"vib", ActionVibrate},
		{"vibrate", ActionVibrate},
		{"zap", ActionZap},
		{"shock", ActionZap},
	}

	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseAction(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
		if round, err := ParseAction(got.String()); err != nil || round != got {
			t.Errorf("ParseAction(%q) does not round trip", got.String())
		}
	}

	if _, err := ParseAction("pet"); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("unknown action err = %v, want ErrInvalidParams", err)
	}
}

func TestParseChannelMask(t *testing.T) {
	tests := []struct {
		in      string
		want    ChannelMask
		wantErr bool
	}{
		{"1", MaskChannel1, false},
		{"2", MaskChannel2, false},
		{"3", MaskBoth, false},
		{"both", MaskBoth, false},
		{"1+2", MaskBoth, false},
		{"none", MaskNone, false},
		{"0", MaskNone, false},
		{"4", MaskNone, true},
		{"-1", MaskNone, true},
		{"left", MaskNone, true},
	}

	for _, tt := range tests {
		got, err := ParseChannelMask(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("ParseChannelMask(%q) err = %v, want ErrInvalidParams", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseChannelMask(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatCommand(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6000000, time.UTC)
	c := Command{Key: 0xABCD, Channel: Channel2, Action: ActionZap, Power: 40}

	got := FormatCommand(c, EventNew, ts)
	want := "[03:04:05.006] NEW ZAP  ch=2 key=0xABCD power=40\n"
	if got != want {
		t.Errorf("FormatCommand = %q, want %q", got, want)
	}
	if got := FormatCommand(c, EventRepeat, ts); !strings.Contains(got, " RPT ") {
		t.Errorf("repeat should be marked RPT: %q", got)
	}
}

func TestFormatFrame(t *testing.T) {
	out := FormatFrame(Frame{0x81, 0xAB, 0xCD, 0x64, 0x7E})
	for _, want := range []string{
		"Frame:    81 AB CD 64 7E",
		"Bits:     10000001 10101011 11001101 01100100 01111110",
		"Channel:  000",
		"Mode:     0001",
		"Key:      0xABCD",
		"Power:    100",
		"ModeX:    0111",
		"ChannelX: 111",
		"Decoded:  ZAP ch=1 key=0xABCD power=100",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatFrame missing %q:\n%s", want, out)
		}
	}

	bad := FormatFrame(Frame{0x81, 0xAB, 0xCD, 0x64, 0x7F})
	if !strings.Contains(bad, ErrMalformedFrame.Error()) {
		t.Errorf("corrupt frame should report the decode error:\n%s", bad)
	}
}
