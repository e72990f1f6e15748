// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

// KeepAlive periodically sends a short LED burst so collars do not go to
// sleep and drop the pairing. It is advisory traffic: a failed burst is not
// retried until the next period.
type KeepAlive struct {
	remote *Remote

	// Channels to keep alive; MaskNone disables the scheduler
	Channels ChannelMask

	// Period between bursts in milliseconds
	Period int64

	last int64
}

// NewKeepAlive creates a scheduler whose first burst is due one Period from now
func NewKeepAlive(remote *Remote, channels ChannelMask) *KeepAlive {
	return &KeepAlive{
		remote:   remote,
		Channels: channels,
		Period:   DefaultKeepAlivePeriodMillis,
		last:     remote.clock.Millis(),
	}
}

// Tick sends a keep-alive burst if one is due. It reports whether a burst
// was attempted and the session error, if any. The period restarts after
// every attempt regardless of its outcome.
func (k *KeepAlive) Tick() (bool, error) {
	if k.Channels == MaskNone || k.remote.clock.Millis()-k.last < k.Period {
		return false, nil
	}

	err := k.remote.Command(Request{
		Action:   ActionLED,
		Channels: k.Channels,
		Power:    keepAlivePower,
		Duration: Rounds(keepAliveRounds),
	})
	k.last = k.remote.clock.Millis()
	return true, err
}

// Due reports the milliseconds until the next burst (zero or negative when due)
func (k *KeepAlive) Due() int64 {
	return k.last + k.Period - k.remote.clock.Millis()
}
