// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/spf13/cobra"
)

var (
	probeTimeout int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the receive path by waiting for one valid frame",
	Long: `Wait for a valid Petrainer frame on the receive path until timeout.

Noise, stray bits and frames failing the redundancy check are ignored; the
command succeeds on the first frame that decodes.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Source error

Useful for checking receiver wiring or a bridge connection.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runProbe(cmd *cobra.Command, args []string) error {
	src, err := openEventSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Source error: %v\n", err)
		os.Exit(2)
	}
	defer src.stop()

	fmt.Printf("Collarstat - Probe\n")
	fmt.Printf("Source: %s\n", src.info)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(probeTimeout)*time.Second)
	defer cancel()

	var got *petrainer.Command
	err = src.run(ctx, func(ev petrainer.Event, c petrainer.Command, at int64) {
		if got == nil {
			got = &c
			cancel()
		}
	})
	if got != nil {
		stats := src.rx.Stats()
		if stats.NoisePulses > 0 {
			fmt.Printf("(skipped %d noise pulses before sync)\n", stats.NoisePulses)
		}
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Key: 0x%04X\n", got.Key)
		fmt.Printf("  Channel: %d\n", got.Channel)
		fmt.Printf("  Action: %s\n", got.Action)
		fmt.Printf("  Power: %d\n", got.Power)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}

	fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", probeTimeout)
	os.Exit(1)
	return nil
}
