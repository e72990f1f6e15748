// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// String returns the protocol name of the action
func (a Action) String() string {
	switch a {
	case ActionLED:
		return "LED"
	case ActionBeep:
		return "BEEP"
	case ActionVibrate:
		return "VIB"
	case ActionZap:
		return "ZAP"
	default:
		return "UNKNOWN"
	}
}

// ParseAction parses an action name (case-insensitive, long or short form)
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "led", "light":
		return ActionLED, nil
	case "beep", "tone":
		return ActionBeep, nil
	case "vib", "vibrate":
		return ActionVibrate, nil
	case "zap", "shock":
		return ActionZap, nil
	}
	return ActionNone, fmt.Errorf("unknown action %q (use led, beep, vib or zap): %w", s, ErrInvalidParams)
}

// String returns the channel mask as "1", "2", "1+2" or "none"
func (m ChannelMask) String() string {
	switch m {
	case MaskChannel1:
		return "1"
	case MaskChannel2:
		return "2"
	case MaskBoth:
		return "1+2"
	case MaskNone:
		return "none"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(m))
	}
}

// ParseChannelMask parses "1", "2", "3", "both" or "none"
func ParseChannelMask(s string) (ChannelMask, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "all", "1+2":
		return MaskBoth, nil
	case "none", "off":
		return MaskNone, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > uint64(MaskBoth) {
		return MaskNone, fmt.Errorf("invalid channel mask %q (use 1, 2, 3 or both): %w", s, ErrInvalidParams)
	}
	return ChannelMask(n), nil
}

// FormatCommand formats a received command into a one line log entry
func FormatCommand(c Command, ev Event, ts time.Time) string {
	kind := "NEW"
	if ev == EventRepeat {
		kind = "RPT"
	}
	return fmt.Sprintf("[%s] %s %-4s ch=%d key=0x%04X power=%d\n",
		ts.Format("15:04:05.000"), kind, c.Action, c.Channel, c.Key, c.Power)
}

// FormatFrame returns a field-by-field breakdown of a frame
func FormatFrame(f Frame) string {
	var bits strings.Builder
	for i := 0; i < FrameBits; i++ {
		if i > 0 && i%8 == 0 {
			bits.WriteByte(' ')
		}
		if f.Bit(i) {
			bits.WriteByte('1')
		} else {
			bits.WriteByte('0')
		}
	}

	result := fmt.Sprintf("Frame:    %s\n", f)
	result += fmt.Sprintf("Bits:     %s\n", bits.String())
	result += fmt.Sprintf("Lead-in:  %d\n", f[0]>>7)
	result += fmt.Sprintf("Channel:  %03b\n", (f[0]>>4)&0x7)
	result += fmt.Sprintf("Mode:     %04b\n", f[0]&0xF)
	result += fmt.Sprintf("Key:      0x%02X%02X\n", f[1], f[2])
	result += fmt.Sprintf("Power:    %d\n", f[3])
	result += fmt.Sprintf("ModeX:    %04b\n", f[4]>>4)
	result += fmt.Sprintf("ChannelX: %03b\n", (f[4]>>1)&0x7)
	result += fmt.Sprintf("Trailer:  %d\n", f[4]&0x1)

	if cmd, err := DecodeFrame(f); err != nil {
		result += fmt.Sprintf("Decoded:  %v\n", err)
	} else {
		result += fmt.Sprintf("Decoded:  %s ch=%d key=0x%04X power=%d\n", cmd.Action, cmd.Channel, cmd.Key, cmd.Power)
	}

	return result
}
