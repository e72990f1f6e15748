// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/collarstat/pkg/pins"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var linkTestDuration int

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Test bridge connection stability",
	Long: `Connect to a sampling bridge and count the edge records it streams,
without decoding frames. Useful for debugging connection stability and
checking the bridge sample rate.

Exit codes:
  0 - Test completed normally
  1 - Connection failed during the test
  2 - Connection error`,
	RunE: runLinkTest,
}

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().IntVar(&linkTestDuration, "duration", 30, "Test duration in seconds")
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Bridge Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkTestDuration)

	edgeChan := make(chan pins.Edge, 256)
	errChan := make(chan error, 1)

	go func() {
		dec := cbor.NewDecoder(conn)
		for {
			var e pins.Edge
			if err := dec.Decode(&e); err != nil {
				errChan <- err
				return
			}
			edgeChan <- e
		}
	}()

	start := time.Now()
	endTime := start.Add(time.Duration(linkTestDuration) * time.Second)
	edgesReceived := 0
	var first, last int64

	fmt.Printf("Listening for edges...\n\n")

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	for time.Now().Before(endTime) {
		select {
		case e := <-edgeChan:
			if edgesReceived == 0 {
				first = e.Micros
			}
			last = e.Micros
			edgesReceived++

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			fmt.Printf("\n--- Test Results ---\n")
			fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("Edges received: %d\n", edgesReceived)
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-heartbeat.C:
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... %d edges (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), edgesReceived, remaining)
		}
	}

	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %d seconds\n", linkTestDuration)
	fmt.Printf("Edges received: %d\n", edgesReceived)
	if edgesReceived > 1 {
		fmt.Printf("Bridge time covered: %v\n", time.Duration(last-first)*time.Microsecond)
	}
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}
