// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Collarstat - Petrainer 433 MHz collar transmitter and receiver
//
// A CLI tool for sending commands to Petrainer training collars over a GPIO
// driven 433 MHz OOK transmitter and decoding the remotes heard on a GPIO
// receiver or a captured pulse stream.

package main

import (
	"os"

	"github.com/Thermoquad/collarstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
