// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/spf13/cobra"
)

var (
	encodeChannel uint8
	encodeKey     uint16
)

var encodeCmd = &cobra.Command{
	Use:   "encode <led|beep|vib|zap> [power]",
	Short: "Print the frame for a command without transmitting",
	Long: `Build the 5-octet frame for a command and print a field breakdown.

The key and channel default to the stored settings.

Examples:
  collarstat encode zap 100 --key 0xABCD --channel 1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode and check a frame given as hex",
	Long: `Decode a 5-octet frame and verify its redundancy fields.

Spaces and colons between octets are ignored.

Examples:
  collarstat decode "81 AB CD 64 7E"`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	encodeCmd.Flags().Uint8Var(&encodeChannel, "channel", 0, "Channel 1 or 2 (default from settings)")
	encodeCmd.Flags().Uint16Var(&encodeKey, "key", 0, "Transmitter key (default from settings)")
}

func runEncode(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	c := petrainer.Command{Key: s.Key, Channel: s.Channel, Power: 1}
	if cmd.Flags().Changed("key") {
		c.Key = encodeKey
	}
	if cmd.Flags().Changed("channel") {
		c.Channel = petrainer.Channel(encodeChannel)
	}

	c.Action, err = petrainer.ParseAction(args[0])
	if err != nil {
		return err
	}
	if len(args) > 1 {
		power, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return fmt.Errorf("invalid power %q: %w", args[1], petrainer.ErrInvalidParams)
		}
		c.Power = uint8(power)
	}

	f, err := petrainer.EncodeCommand(c)
	if err != nil {
		return err
	}
	fmt.Print(petrainer.FormatFrame(f))
	return nil
}

// parseFrameHex parses 5 hex octets, ignoring separators
func parseFrameHex(s string) (petrainer.Frame, error) {
	var f petrainer.Frame
	clean := strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return f, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	if len(data) != petrainer.FrameSize {
		return f, fmt.Errorf("frame must be %d octets, got %d", petrainer.FrameSize, len(data))
	}
	copy(f[:], data)
	return f, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	f, err := parseFrameHex(args[0])
	if err != nil {
		return err
	}
	fmt.Print(petrainer.FormatFrame(f))

	_, err = petrainer.DecodeFrame(f)
	return err
}
