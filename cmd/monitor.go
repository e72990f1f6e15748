// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	monitorShowRepeats bool
	useTUI             bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live decoder statistics and command log",
	Long: `Track decoded commands, rejected frames and noise with live statistics.

The monitor shows:
  - Pulse counts and the share classified as noise
  - Accepted frames split into new commands and held-button repeats
  - Rejected frames (timing window, malformed, other keys)
  - Every transmitter key heard, with its last command
  - A log of recent commands

Press 'r' to reset the statistics and 'q' to quit. With --tui=false the
monitor prints commands and a statistics summary every 10 seconds instead.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowRepeats, "show-repeats", false, "Log repeated frames from a held button")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if !useTUI {
		listenShowRepeats = monitorShowRepeats
		listenStatsInterval = 10
		return runListen(cmd, args)
	}

	src, err := openEventSource()
	if err != nil {
		return err
	}
	defer src.stop()

	return runMonitorTUI(src)
}

// runMonitorTUI runs the decoder in the background and the TUI in front
func runMonitorTUI(src *eventSource) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := initialMonitorModel(src.info, monitorShowRepeats, src.rx)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		err := src.run(ctx, func(ev petrainer.Event, c petrainer.Command, at int64) {
			p.Send(commandMsg{event: ev, command: c, timestamp: time.Now()})
		})
		p.Send(sourceDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
