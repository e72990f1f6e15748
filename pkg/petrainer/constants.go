// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package petrainer implements the 433 MHz on-off-keyed protocol spoken by
// Petrainer-style pet training remotes and collars.
//
// The package provides the 5-octet frame codec, a pulse transmitter that
// drives an output pin with deadline-locked busy waits, the repeated
// transmission command session, a keep-alive scheduler and a polling
// receiver decoder. Hardware access is limited to the OutputPin, InputPin
// and Clock interfaces.
package petrainer

// FrameSize is the number of octets in a frame
const FrameSize = 5

// FrameBits is the number of data bits transmitted per frame
const FrameBits = FrameSize * 8

// Symbol timings in microseconds
const (
	StartOnMicros  = 1500
	StartOffMicros = 750
	ZeroOnMicros   = 250
	ZeroOffMicros  = 750
	OneOnMicros    = 750
	OneOffMicros   = 250

	// Line held low after the trailer symbol
	InterPacketGapMicros = 9000

	// Default per-pulse overhead subtracted from the on time
	DefaultCompensationMicros = 2
)

// Receiver pulse classification windows in microseconds (inclusive)
const (
	zeroMinMicros  = 100
	zeroMaxMicros  = 400
	oneMinMicros   = 600
	oneMaxMicros   = 900
	startMinMicros = 1300
	startMaxMicros = 1700

	packetMinMicros = 37000
	packetMaxMicros = 42000

	repeatWindowMicros = 120000
)

// Keep-alive defaults
const (
	DefaultKeepAlivePeriodMillis = 120000
	keepAlivePower               = 50
	keepAliveRounds              = 3
)

// DefaultKey is the transmitter key used when none has been configured
const DefaultKey uint16 = 0x1234

// Frame octet 0 and octet 4 field encodings.
//
//	octet 0: l ccc mmmm   (lead-in, channel, mode)
//	octet 4: MMMM CCC t   (modeX, channelX, trailer)
const (
	leadIn = 0b10000000

	headChannel1 = 0b10000000
	headChannel2 = 0b11110000
	tailChannel1 = 0b00001110
	tailChannel2 = 0b00000000

	headLED  = 0b00001000
	headBeep = 0b00000100
	headVib  = 0b00000010
	headZap  = 0b00000001
	tailLED  = 0b11100000
	tailBeep = 0b11010000
	tailVib  = 0b10110000
	tailZap  = 0b01110000
)

// Channel selects one of the two collar channels
type Channel uint8

// Channel values
const (
	Channel1 Channel = 1
	Channel2 Channel = 2
)

// ChannelMask selects the channels a command session transmits on
type ChannelMask uint8

// Channel mask values
const (
	MaskNone     ChannelMask = 0
	MaskChannel1 ChannelMask = 1
	MaskChannel2 ChannelMask = 2
	MaskBoth     ChannelMask = MaskChannel1 | MaskChannel2
)

// Has reports whether the mask includes ch
func (m ChannelMask) Has(ch Channel) bool {
	switch ch {
	case Channel1:
		return m&MaskChannel1 != 0
	case Channel2:
		return m&MaskChannel2 != 0
	}
	return false
}

// Action is the collar function requested by a frame
type Action uint8

// Action values
const (
	ActionNone Action = iota
	ActionLED
	ActionBeep
	ActionVibrate
	ActionZap
)

// Event is the result of one receiver step
type Event int

// Receiver event values
const (
	EventNone   Event = 0
	EventNew    Event = 1
	EventRepeat Event = 2
)

// Receiver decoder states (internal)
const (
	stateIdle = iota
	stateArmed
)
