// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the collarstat YAML configuration file
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration is read from when --config is not given
const DefaultPath = "~/.config/collarstat/config.yaml"

// NoPin marks an optional GPIO line as unused
const NoPin = -1

type Config struct {
	Pins      PinConfig       `yaml:"pins"`
	Transmit  TransmitConfig  `yaml:"transmit"`
	Receive   ReceiveConfig   `yaml:"receive"`
	KeepAlive KeepAliveConfig `yaml:"keepalive"`
	Serve     ServeConfig     `yaml:"serve"`

	// Store is the settings file path; "~" is expanded
	Store string `yaml:"store"`
}

// ---- PINS ----

type PinConfig struct {
	TX  int `yaml:"tx"`  // transmitter data line
	LED int `yaml:"led"` // activity indicator, -1 for none
	RX  int `yaml:"rx"`  // receiver data line
}

// ---- TRANSMIT ----

type TransmitConfig struct {
	CompensationMicros int64 `yaml:"compensation_us"`
}

// ---- RECEIVE ----

type ReceiveConfig struct {
	// ExpectKey restricts the receiver to one transmitter; 0 accepts all
	ExpectKey uint16 `yaml:"expect_key"`
}

// ---- KEEP-ALIVE ----

type KeepAliveConfig struct {
	PeriodMs int64 `yaml:"period_ms"`
}

// ---- SERVE ----

type ServeConfig struct {
	Address string `yaml:"address"`
}

// Defaults returns the configuration used when no file is present
func Defaults() *Config {
	return &Config{
		Pins: PinConfig{
			TX:  17,
			LED: NoPin,
			RX:  27,
		},
		Transmit: TransmitConfig{
			CompensationMicros: petrainer.DefaultCompensationMicros,
		},
		KeepAlive: KeepAliveConfig{
			PeriodMs: petrainer.DefaultKeepAlivePeriodMillis,
		},
		Serve: ServeConfig{
			Address: "127.0.0.1:8433",
		},
		Store: "~/.config/collarstat/settings.cbor",
	}
}

// Load reads the configuration at path over the defaults and expands "~"
// in file paths. Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("cannot expand config path %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", expanded, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse yaml %s: %w", expanded, err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads DefaultPath, falling back to Defaults when it does not exist
func LoadDefault() (*Config, error) {
	cfg, err := Load(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Defaults()
		if err := cfg.expand(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) expand() error {
	store, err := homedir.Expand(c.Store)
	if err != nil {
		return fmt.Errorf("cannot expand store path %s: %w", c.Store, err)
	}
	c.Store = store
	return nil
}
