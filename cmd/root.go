// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/collarstat/pkg/config"
	"github.com/spf13/cobra"
)

var (
	// Configuration
	configPath string
	cfg        *config.Config

	// GPIO flags (override the config file)
	txPin     int
	ledPin    int
	rxPin     int
	storePath string

	// Capture stream flags
	portName   string
	baudRate   int
	replayPath string

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "collarstat",
	Short: "Petrainer 433 MHz collar transmitter and decoder",
	Long: `Collarstat - A CLI tool for driving and decoding Petrainer pet training collars.

Commands are sent as 433 MHz on-off keyed frames through a transmitter module
on a GPIO line. Received frames are decoded from a receiver module on a GPIO
line, or from a capture stream of pulse edges produced by a sampling bridge.

Hardware:
  GPIO:      --tx-pin 17 [--led-pin 22] --rx-pin 27
  Config:    --config ~/.config/collarstat/config.yaml

Capture streams (listen, monitor, scan, probe) and transmit bridges (send):
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  File:      --replay capture.cbor

For WebSocket authentication, the password is read from the COLLARSTAT_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultPath+")")

	// GPIO flags
	rootCmd.PersistentFlags().IntVar(&txPin, "tx-pin", 0, "Transmitter GPIO line")
	rootCmd.PersistentFlags().IntVar(&ledPin, "led-pin", config.NoPin, "Activity LED GPIO line (-1 for none)")
	rootCmd.PersistentFlags().IntVar(&rxPin, "rx-pin", 0, "Receiver GPIO line")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Settings file")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port of a capture bridge")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVar(&replayPath, "replay", "", "Read pulse edges from a capture file")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL of a capture bridge (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("tx-pin") {
		cfg.Pins.TX = txPin
	}
	if flags.Changed("led-pin") {
		cfg.Pins.LED = ledPin
	}
	if flags.Changed("rx-pin") {
		cfg.Pins.RX = rxPin
	}
	if flags.Changed("store") {
		cfg.Store = storePath
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
