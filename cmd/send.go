// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/spf13/cobra"
)

var (
	sendChannels string
	sendDuration int64
	sendRounds   int
)

var sendCmd = &cobra.Command{
	Use:   "send <led|beep|vib|zap> [power]",
	Short: "Send a command to one or both collar channels",
	Long: `Transmit a command the way a held remote button does: the frame for each
selected channel is repeated until the duration elapses or the round count
is reached. With both channels selected every round sends channel 1 then
channel 2.

Power defaults to 1 for led and beep and 100 for vib. Zap always needs an
explicit power (0-100).

Press Ctrl+C to stop a running session early.

Examples:
  # Beep channel 1 for half a second
  collarstat send beep

  # Vibrate both collars at 40% for two seconds
  collarstat send vib 40 --channels both --duration 2000

  # Render three rounds to a capture file without hardware
  collarstat send zap 10 --rounds 3 --dry-run --record zap.cbor`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendChannels, "channels", "", "Channels: 1, 2 or both (default from settings)")
	sendCmd.Flags().Int64Var(&sendDuration, "duration", 500, "Session length in milliseconds")
	sendCmd.Flags().IntVar(&sendRounds, "rounds", 0, "Send exactly this many rounds instead of a duration")
	addTransmitFlags(sendCmd)
}

// parseRequest builds a session request from the command line arguments
func parseRequest(args []string, channels string, durationMs int64, rounds int, defaultMask petrainer.ChannelMask) (petrainer.Request, error) {
	action, err := petrainer.ParseAction(args[0])
	if err != nil {
		return petrainer.Request{}, err
	}

	req := petrainer.Request{
		Action:   action,
		Channels: defaultMask,
		Duration: durationMs,
	}

	switch {
	case len(args) > 1:
		power, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil || power > 100 {
			return petrainer.Request{}, fmt.Errorf("power must be 0-100, got %q: %w", args[1], petrainer.ErrInvalidParams)
		}
		req.Power = uint8(power)
	case action == petrainer.ActionVibrate:
		req.Power = 100
	case action == petrainer.ActionZap:
		return petrainer.Request{}, fmt.Errorf("zap requires an explicit power: %w", petrainer.ErrInvalidParams)
	default:
		req.Power = 1
	}

	if channels != "" {
		if req.Channels, err = petrainer.ParseChannelMask(channels); err != nil {
			return petrainer.Request{}, err
		}
	}
	if rounds < 0 {
		return petrainer.Request{}, fmt.Errorf("rounds must not be negative: %w", petrainer.ErrInvalidParams)
	}
	if rounds > 0 {
		req.Duration = petrainer.Rounds(rounds)
	} else if durationMs < 0 {
		return petrainer.Request{}, fmt.Errorf("duration must not be negative: %w", petrainer.ErrInvalidParams)
	}

	return req, nil
}

// describeDuration formats a Request.Duration for display
func describeDuration(d int64) string {
	if d < 0 {
		return fmt.Sprintf("%d rounds", -d)
	}
	return fmt.Sprintf("%d ms", d)
}

func runSend(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	req, err := parseRequest(args, sendChannels, sendDuration, sendRounds, s.Mask())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("duration") && sendRounds > 0 {
		return fmt.Errorf("--duration and --rounds are mutually exclusive")
	}

	t, err := openTransmitter(cmd, s)
	if err != nil {
		return err
	}
	defer t.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	t.remote.Interrupt = petrainer.InterruptOnContext(ctx)

	fmt.Printf("Collarstat - Send\n")
	fmt.Printf("Output: %s\n", t.info)
	fmt.Printf("Key: 0x%04X  Channels: %s  Action: %s  Power: %d  Duration: %s\n\n",
		t.remote.Key, req.Channels, req.Action, req.Power, describeDuration(req.Duration))

	start := time.Now()
	err = t.remote.Command(req)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, petrainer.ErrInterrupted):
		log.Printf("Interrupted after %s", elapsed.Round(time.Millisecond))
	case err != nil:
		return err
	default:
		log.Printf("Done in %s", elapsed.Round(time.Millisecond))
	}

	if err := t.Err(); err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}
	if t.rec != nil {
		log.Printf("Wrote %d edges", t.rec.Edges())
	}
	return nil
}
