// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/Thermoquad/collarstat/pkg/settings"
	"github.com/spf13/cobra"
)

var (
	setKey       uint16
	setChannel   uint8
	setKeepAlive string
	setReset     bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the stored transmitter settings",
	Long: `Show or change the persisted transmitter identity.

The store holds the transmitter key the collars are paired with, the
default channel, and the keep-alive channel mask. Its location is set by
the "store" entry in the configuration file or --store.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the stored settings",
	Long: `Update one or more stored settings. Unchanged fields keep their value.

Examples:
  # Pair with a collar using key 0xABCD on channel 2
  collarstat settings set --key 0xABCD --channel 2

  # Keep both collars awake
  collarstat settings set --keepalive both

  # Restore the factory settings
  collarstat settings set --reset`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsSetCmd.Flags().Uint16Var(&setKey, "key", 0, "Transmitter key")
	settingsSetCmd.Flags().Uint8Var(&setChannel, "channel", 0, "Default channel (1 or 2)")
	settingsSetCmd.Flags().StringVar(&setKeepAlive, "keepalive", "", "Keep-alive channels: none, 1, 2 or both")
	settingsSetCmd.Flags().BoolVar(&setReset, "reset", false, "Start from the factory settings")
}

func printSettings(s settings.Settings) {
	fmt.Printf("Store:      %s\n", cfg.Store)
	fmt.Printf("Key:        0x%04X\n", s.Key)
	fmt.Printf("Channel:    %d\n", s.Channel)
	fmt.Printf("Keep-alive: %s\n", s.KeepAlive)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	printSettings(s)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	s := settings.Defaults()
	if !setReset {
		var err error
		if s, err = loadSettings(); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("key") {
		s.Key = setKey
	}
	if flags.Changed("channel") {
		s.Channel = petrainer.Channel(setChannel)
	}
	if flags.Changed("keepalive") {
		mask, err := petrainer.ParseChannelMask(setKeepAlive)
		if err != nil {
			return err
		}
		s.KeepAlive = mask
	}

	if err := settings.Save(cfg.Store, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	printSettings(s)
	return nil
}
