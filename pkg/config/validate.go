// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
)

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// PINS
	// ------------------------------------------------------------

	if cfg.Pins.TX < 0 {
		return fmt.Errorf("pins: tx must be a GPIO number, got %d", cfg.Pins.TX)
	}
	if cfg.Pins.RX < 0 {
		return fmt.Errorf("pins: rx must be a GPIO number, got %d", cfg.Pins.RX)
	}
	if cfg.Pins.LED < NoPin {
		return fmt.Errorf("pins: led must be a GPIO number or %d, got %d", NoPin, cfg.Pins.LED)
	}
	if cfg.Pins.LED == cfg.Pins.TX {
		return fmt.Errorf("pins: led and tx both use GPIO %d", cfg.Pins.TX)
	}
	if cfg.Pins.RX == cfg.Pins.TX {
		return fmt.Errorf("pins: rx and tx both use GPIO %d", cfg.Pins.TX)
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	// The shortest on time must survive compensation
	if cfg.Transmit.CompensationMicros < 0 || cfg.Transmit.CompensationMicros >= petrainer.ZeroOnMicros {
		return fmt.Errorf(
			"transmit: compensation_us must be in [0, %d), got %d",
			petrainer.ZeroOnMicros,
			cfg.Transmit.CompensationMicros,
		)
	}
	if cfg.KeepAlive.PeriodMs <= 0 {
		return fmt.Errorf("keepalive: period_ms must be positive, got %d", cfg.KeepAlive.PeriodMs)
	}

	// ------------------------------------------------------------
	// PATHS
	// ------------------------------------------------------------

	if cfg.Store == "" {
		return fmt.Errorf("store: path must not be empty")
	}
	if cfg.Serve.Address == "" {
		return fmt.Errorf("serve: address must not be empty")
	}

	return nil
}
