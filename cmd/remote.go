// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var remoteDuration int64

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Interactive TUI remote control",
	Long: `Drive collars from an interactive terminal UI that works like the handheld remote.

Features:
  - Action list (LED, beep, vibrate, zap)
  - Power entry (0-100)
  - Channel selection (1, 2 or both)
  - Keep-alive bursts on the channels stored in the settings
  - Event log of every session sent

Tab switches between the action list, the power field and the send button.
Keys 1, 2 and b select the channel. Enter sends; Esc stops a running session.

Only one session runs at a time; keep-alive bursts wait until the line is free.`,
	RunE: runRemote,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.Flags().Int64Var(&remoteDuration, "duration", 1000, "Session length in milliseconds")
	addTransmitFlags(remoteCmd)
}

func runRemote(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if remoteDuration <= 0 {
		return fmt.Errorf("--duration must be positive")
	}

	t, err := openTransmitter(cmd, s)
	if err != nil {
		return err
	}
	defer t.Close()

	m := initialRemoteModel(t, s, remoteDuration, cfg.KeepAlive.PeriodMs)

	// Create TUI program with alt screen and mouse support
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return t.Err()
}
