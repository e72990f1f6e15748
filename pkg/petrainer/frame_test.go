// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import (
	"errors"
	"testing"
)

func TestEncode_KnownFrames(t *testing.T) {
	tests := []struct {
		name   string
		key    uint16
		ch     Channel
		action Action
		power  uint8
		want   Frame
	}{
		{
			name: "channel 1 zap 100",
			key:  0xABCD, ch: Channel1, action: ActionZap, power: 100,
			want: Frame{0x81, 0xAB, 0xCD, 0x64, 0x7E},
		},
		{
			name: "channel 1 led",
			key:  0x1234, ch: Channel1, action: ActionLED, power: 1,
			want: Frame{0x88, 0x12, 0x34, 0x01, 0xEE},
		},
		{
			name: "channel 2 beep",
			key:  0x1234, ch: Channel2, action: ActionBeep, power: 1,
			want: Frame{0xF4, 0x12, 0x34, 0x01, 0xD0},
		},
		{
			name: "channel 2 vibrate 50",
			key:  0xFFFF, ch: Channel2, action: ActionVibrate, power: 50,
			want: Frame{0xF2, 0xFF, 0xFF, 0x32, 0xB0},
		},
		{
			name: "power above 100 sent as-is",
			key:  0x0000, ch: Channel1, action: ActionZap, power: 255,
			want: Frame{0x81, 0x00, 0x00, 0xFF, 0x7E},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.key, tt.ch, tt.action, tt.power)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode = %s, want %s", got, tt.want)
			}
			if !got.Valid() {
				t.Error("encoded frame should be valid")
			}
		})
	}
}

func TestEncode_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		ch     Channel
		action Action
	}{
		{"channel 0", 0, ActionZap},
		{"channel 3", 3, ActionLED},
		{"action none", Channel1, ActionNone},
		{"action out of range", Channel2, Action(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []uint16{0, 0x1234, 0xFFFF} {
				for _, power := range []uint8{0, 50, 255} {
					f, err := Encode(key, tt.ch, tt.action, power)
					if !errors.Is(err, ErrInvalidParams) {
						t.Fatalf("Encode(0x%04X, %d, %d, %d) err = %v, want ErrInvalidParams", key, tt.ch, tt.action, power, err)
					}
					if f.Valid() {
						t.Fatalf("failed Encode should return the invalid frame, got %s", f)
					}
				}
			}
		})
	}
}

func TestDecodeFrame_RoundTripAll(t *testing.T) {
	keys := []uint16{0x0000, 0x0001, 0x1234, 0x8000, 0xABCD, 0xFFFF}
	for _, ch := range allChannels {
		for _, action := range allActions {
			for _, key := range keys {
				for power := 0; power <= 255; power++ {
					want := Command{Key: key, Channel: ch, Action: action, Power: uint8(power)}
					f, err := EncodeCommand(want)
					if err != nil {
						t.Fatalf("EncodeCommand(%+v) failed: %v", want, err)
					}
					got, err := DecodeFrame(f)
					if err != nil {
						t.Fatalf("DecodeFrame(%s) failed: %v", f, err)
					}
					if got != want {
						t.Fatalf("round trip = %+v, want %+v", got, want)
					}
				}
			}
		}
	}
}

func TestDecodeFrame_RoundTripFuzz(t *testing.T) {
	rng := newFuzzRng(t)
	for i := 0; i < getFuzzRounds(); i++ {
		want := Command{
			Key:     uint16(rng.Intn(1 << 16)),
			Channel: allChannels[rng.Intn(len(allChannels))],
			Action:  allActions[rng.Intn(len(allActions))],
			Power:   uint8(rng.Intn(256)),
		}
		f, err := EncodeCommand(want)
		if err != nil {
			t.Fatalf("round %d: encode failed: %v", i, err)
		}
		got, err := DecodeFrame(f)
		if err != nil || got != want {
			t.Fatalf("round %d: decode = %+v, %v; want %+v", i, got, err, want)
		}
	}
}

func TestDecodeFrame_RedundancyBitFlip(t *testing.T) {
	for _, ch := range allChannels {
		for _, action := range allActions {
			f := mustEncode(t, 0xABCD, ch, action, 42)
			for bit := 0; bit < 8; bit++ {
				corrupt := f
				corrupt[4] ^= 1 << uint(bit)
				if _, err := DecodeFrame(corrupt); !errors.Is(err, ErrMalformedFrame) {
					t.Errorf("ch=%d %s: flipping octet 4 bit %d should be rejected, got err=%v", ch, action, bit, err)
				}
			}
		}
	}
}

func TestDecodeFrame_HeadCorruption(t *testing.T) {
	f := mustEncode(t, 0x1234, Channel1, ActionVibrate, 10)
	for bit := 0; bit < 8; bit++ {
		corrupt := f
		corrupt[0] ^= 1 << uint(bit)
		if _, err := DecodeFrame(corrupt); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("flipping octet 0 bit %d should be rejected, got err=%v", bit, err)
		}
	}
}

func TestDecodeFrame_ZeroFrame(t *testing.T) {
	if _, err := DecodeFrame(Frame{}); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("zero frame should be malformed, got %v", err)
	}
}

func TestFrame_Bit(t *testing.T) {
	f := Frame{0x81, 0xAB, 0xCD, 0x64, 0x7E}
	want := "1000000110101011110011010110010001111110"
	for i := 0; i < FrameBits; i++ {
		got := f.Bit(i)
		if got != (want[i] == '1') {
			t.Errorf("Bit(%d) = %v, want %c", i, got, want[i])
		}
	}
}
