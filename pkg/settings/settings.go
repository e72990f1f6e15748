// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package settings persists the transmitter identity between runs: the key
// the collars are paired with, the default channel, and which channels the
// keep-alive scheduler services. The store is a single CBOR file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/fxamacker/cbor/v2"
)

// Settings is the persisted transmitter state
type Settings struct {
	Key       uint16                `cbor:"0,keyasint"`
	Channel   petrainer.Channel     `cbor:"1,keyasint"`
	KeepAlive petrainer.ChannelMask `cbor:"2,keyasint"`
}

// Defaults returns the factory settings: key 0x1234, channel 1, keep-alive off
func Defaults() Settings {
	return Settings{
		Key:       petrainer.DefaultKey,
		Channel:   petrainer.Channel1,
		KeepAlive: petrainer.MaskNone,
	}
}

// Validate checks that the stored channel and keep-alive mask are usable
func (s Settings) Validate() error {
	if s.Channel != petrainer.Channel1 && s.Channel != petrainer.Channel2 {
		return fmt.Errorf("invalid channel %d (must be 1 or 2)", s.Channel)
	}
	if s.KeepAlive&^petrainer.MaskBoth != 0 {
		return fmt.Errorf("invalid keep-alive mask %d (must be 0-3)", s.KeepAlive)
	}
	return nil
}

// Mask returns the channel mask selecting the default channel
func (s Settings) Mask() petrainer.ChannelMask {
	if s.Channel == petrainer.Channel2 {
		return petrainer.MaskChannel2
	}
	return petrainer.MaskChannel1
}

// Load reads settings from path. A missing file yields Defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s := Defaults()
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// Save validates s and writes it to path, creating parent directories.
// The file is replaced atomically.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := cbor.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
