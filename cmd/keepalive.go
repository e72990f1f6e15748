// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/spf13/cobra"
)

var keepAliveChannels string

var keepAliveCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Keep collars awake with periodic LED bursts",
	Long: `Run the keep-alive scheduler until interrupted.

Collars power down after a few minutes without traffic. Every keep-alive
period (120 seconds unless configured otherwise) three rounds of an LED
command are sent to the selected channels. A failed burst is not retried
until the next period.

The channels default to the keep-alive mask in the settings store; see
'collarstat settings set --keepalive'.`,
	RunE: runKeepAlive,
}

func init() {
	rootCmd.AddCommand(keepAliveCmd)
	keepAliveCmd.Flags().StringVar(&keepAliveChannels, "channels", "", "Channels: 1, 2 or both (default from settings)")
	addTransmitFlags(keepAliveCmd)
}

func runKeepAlive(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	mask := s.KeepAlive
	if keepAliveChannels != "" {
		if mask, err = petrainer.ParseChannelMask(keepAliveChannels); err != nil {
			return err
		}
	}
	if mask == petrainer.MaskNone {
		return fmt.Errorf("no keep-alive channels selected (use --channels or 'settings set --keepalive')")
	}

	t, err := openTransmitter(cmd, s)
	if err != nil {
		return err
	}
	defer t.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	t.remote.Interrupt = petrainer.InterruptOnContext(ctx)

	ka := petrainer.NewKeepAlive(t.remote, mask)
	ka.Period = cfg.KeepAlive.PeriodMs

	fmt.Printf("Collarstat - Keep-Alive\n")
	fmt.Printf("Output: %s\n", t.info)
	fmt.Printf("Key: 0x%04X  Channels: %s  Period: %s\n", t.remote.Key, mask, time.Duration(ka.Period)*time.Millisecond)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	return runKeepAliveLoop(ctx, ka, t)
}

// runKeepAliveLoop ticks the scheduler until ctx is done
func runKeepAliveLoop(ctx context.Context, ka *petrainer.KeepAlive, t *transmitter) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		t.advanceVirtual(100 * time.Millisecond)

		fired, err := ka.Tick()
		if !fired {
			continue
		}
		if err != nil {
			log.Printf("Keep-alive burst failed: %v", err)
		} else {
			log.Printf("Keep-alive sent to channels %s (next in %s)", ka.Channels, formatUptime(uint64(ka.Due())))
		}
		if err := t.Err(); err != nil {
			return fmt.Errorf("capture failed: %w", err)
		}
	}
}
