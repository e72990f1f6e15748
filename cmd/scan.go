// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/spf13/cobra"
)

var (
	scanTimeout int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover nearby remotes by listening for their keys",
	Long: `Listen for Petrainer frames and list every transmitter key heard.

Press a button on each remote during the scan. Each distinct key is listed
with the channels and actions it used, so a remote can be cloned by storing
its key with "collarstat settings set --key".

Examples:
  # Scan the receiver GPIO line for 10 seconds
  collarstat scan --timeout 10

  # Scan a recorded capture
  collarstat scan --replay capture.cbor

Exit codes:
  0 - At least one transmitter found
  1 - No transmitters heard before the timeout
  2 - Source error`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan duration in seconds")
}

// scanResult aggregates the frames heard from one transmitter key
type scanResult struct {
	key      uint16
	channels petrainer.ChannelMask
	actions  map[petrainer.Action]int
	frames   int
}

func runScan(cmd *cobra.Command, args []string) error {
	src, err := openEventSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Source error: %v\n", err)
		os.Exit(2)
	}
	defer src.stop()

	fmt.Printf("Collarstat - Transmitter Scan\n")
	fmt.Printf("Source: %s\n", src.info)
	fmt.Printf("Timeout: %d seconds\n\n", scanTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(scanTimeout)*time.Second)
	defer cancel()

	found := make(map[uint16]*scanResult)
	err = src.run(ctx, func(ev petrainer.Event, c petrainer.Command, at int64) {
		r, ok := found[c.Key]
		if !ok {
			r = &scanResult{key: c.Key, actions: make(map[petrainer.Action]int)}
			found[c.Key] = r
			fmt.Printf("Transmitter found: key 0x%04X\n", c.Key)
		}
		r.frames++
		if ev == petrainer.EventNew {
			r.actions[c.Action]++
		}
		switch c.Channel {
		case petrainer.Channel1:
			r.channels |= petrainer.MaskChannel1
		case petrainer.Channel2:
			r.channels |= petrainer.MaskChannel2
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}

	results := make([]*scanResult, 0, len(found))
	for _, r := range found {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].key < results[j].key })

	// Summary
	fmt.Printf("\n--- Scan summary ---\n")
	fmt.Printf("Transmitters found: %d\n", len(results))
	for _, r := range results {
		fmt.Printf("\n  Key: 0x%04X\n", r.key)
		fmt.Printf("  Channels: %s\n", r.channels)
		fmt.Printf("  Frames: %d\n", r.frames)
		for _, a := range []petrainer.Action{petrainer.ActionLED, petrainer.ActionBeep, petrainer.ActionVibrate, petrainer.ActionZap} {
			if n := r.actions[a]; n > 0 {
				fmt.Printf("  %-4s x%d\n", a, n)
			}
		}
	}

	if len(results) == 0 {
		fmt.Printf("No transmitters heard. Check the receiver wiring and press a remote button during the scan.\n")
		os.Exit(1)
	}

	return nil
}
