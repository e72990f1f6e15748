// SPDX-License-Identifier: GPL-2.0-or-later
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
	"github.com/spf13/cobra"
)

var (
	listenShowRepeats   bool
	listenStatsInterval int
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print decoded collar commands as they arrive",
	Long: `Continuously decode Petrainer frames and print each command with a timestamp.

A held remote button repeats the same frame every ~50 ms; these repeats are
collapsed into one line unless --show-repeats is given.

Frames are read from the receiver GPIO line, or from a capture stream when
--port, --url or --replay is set. Use --stats-interval to print decoder
statistics periodically.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().BoolVar(&listenShowRepeats, "show-repeats", false, "Print repeated frames from a held button")
	listenCmd.Flags().IntVar(&listenStatsInterval, "stats-interval", 0, "Print statistics every N seconds (0 disables)")
}

func runListen(cmd *cobra.Command, args []string) error {
	src, err := openEventSource()
	if err != nil {
		return err
	}
	defer src.stop()

	fmt.Printf("Collarstat - Listen\n")
	fmt.Printf("Source: %s\n", src.info)
	if cfg.Receive.ExpectKey != 0 {
		fmt.Printf("Key filter: 0x%04X\n", cfg.Receive.ExpectKey)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan string, 64)
	errc := make(chan error, 1)
	go func() {
		errc <- src.run(ctx, func(ev petrainer.Event, c petrainer.Command, at int64) {
			if ev == petrainer.EventRepeat && !listenShowRepeats {
				return
			}
			events <- petrainer.FormatCommand(c, ev, time.Now())
		})
	}()

	var statsC <-chan time.Time
	if listenStatsInterval > 0 {
		ticker := time.NewTicker(time.Duration(listenStatsInterval) * time.Second)
		defer ticker.Stop()
		statsC = ticker.C
	}

	for {
		select {
		case line := <-events:
			fmt.Print(line)

		case <-statsC:
			stats := src.rx.Stats()
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case err := <-errc:
			// Drain whatever the decoder produced before the stream ended
			for len(events) > 0 {
				fmt.Print(<-events)
			}
			stats := src.rx.Stats()
			fmt.Println()
			fmt.Print(stats.String())
			return err
		}
	}
}
