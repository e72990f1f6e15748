// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import "fmt"

// Frame is one 5-octet protocol frame, transmitted high-order bit first.
//
//	Octet   Field     Bits  Value
//	0       Lead-in   1     1
//	        Chan      3     Ch1=000; Ch2=111
//	        Mode      4     LED=1000; BEEP=0100; VIB=0010; ZAP=0001
//	1-2     Key       16    transmitter identity
//	3       Power     8     power level
//	4       ModeX     4     LED=1110; BEEP=1101; VIB=1011; ZAP=0111
//	        ChanX     3     Ch1=111; Ch2=000
//	        Trailer   1     0 (the second trailer bit is not stored)
//
// The zero Frame has no lead-in bit and is never transmitted.
type Frame [FrameSize]byte

// Command is the decoded content of a frame
type Command struct {
	Key     uint16
	Channel Channel
	Action  Action
	Power   uint8
}

// Valid reports whether the lead-in bit is set
func (f Frame) Valid() bool {
	return f[0]&leadIn != 0
}

// Bit returns wire bit i (0-39) of the frame
func (f Frame) Bit(i int) bool {
	return (f[i>>3]>>(7-uint(i&7)))&1 != 0
}

// String returns the frame as space separated hex octets
func (f Frame) String() string {
	return fmt.Sprintf("%02X %02X %02X %02X %02X", f[0], f[1], f[2], f[3], f[4])
}

// Encode builds the frame for a command.
// Returns the zero Frame and ErrInvalidParams if the channel or action is
// not supported. Power is sent as given; collars clamp values above 100.
func Encode(key uint16, ch Channel, action Action, power uint8) (Frame, error) {
	var head, tail byte

	switch ch {
	case Channel1:
		head, tail = headChannel1, tailChannel1
	case Channel2:
		head, tail = headChannel2, tailChannel2
	default:
		return Frame{}, fmt.Errorf("channel %d: %w", ch, ErrInvalidParams)
	}

	switch action {
	case ActionLED:
		head |= headLED
		tail |= tailLED
	case ActionBeep:
		head |= headBeep
		tail |= tailBeep
	case ActionVibrate:
		head |= headVib
		tail |= tailVib
	case ActionZap:
		head |= headZap
		tail |= tailZap
	default:
		return Frame{}, fmt.Errorf("action %d: %w", action, ErrInvalidParams)
	}

	return Frame{head, byte(key >> 8), byte(key), power, tail}, nil
}

// EncodeCommand is Encode for a Command value
func EncodeCommand(c Command) (Frame, error) {
	return Encode(c.Key, c.Channel, c.Action, c.Power)
}

// DecodeFrame validates the redundant fields of a received frame and
// extracts its command. Octet 4 must carry the complemented, reordered copy
// of the channel and mode held in octet 0; anything else is ErrMalformedFrame.
func DecodeFrame(f Frame) (Command, error) {
	c := f[0] >> 4    // lead-in and channel
	m := f[0] & 0x0F  // mode
	mx := f[4] >> 4   // modeX
	cx := f[4] & 0x0F // channelX and trailer

	cmd := Command{
		Key:   uint16(f[1])<<8 | uint16(f[2]),
		Power: f[3],
	}

	switch {
	case c == headChannel1>>4 && cx == tailChannel1:
		cmd.Channel = Channel1
	case c == headChannel2>>4 && cx == tailChannel2:
		cmd.Channel = Channel2
	default:
		return Command{}, fmt.Errorf("channel nibbles %04b/%04b: %w", c, cx, ErrMalformedFrame)
	}

	switch {
	case m == headLED && mx == tailLED>>4:
		cmd.Action = ActionLED
	case m == headBeep && mx == tailBeep>>4:
		cmd.Action = ActionBeep
	case m == headVib && mx == tailVib>>4:
		cmd.Action = ActionVibrate
	case m == headZap && mx == tailZap>>4:
		cmd.Action = ActionZap
	default:
		return Command{}, fmt.Errorf("mode nibbles %04b/%04b: %w", m, mx, ErrMalformedFrame)
	}

	return cmd, nil
}
