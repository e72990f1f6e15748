// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Thermoquad/collarstat/pkg/config"
	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/Thermoquad/collarstat/pkg/pins"
	"github.com/Thermoquad/collarstat/pkg/settings"
	"github.com/spf13/cobra"
)

var (
	// Transmit flags, registered per command by addTransmitFlags
	dryRun     bool
	recordPath string
	keyFlag    uint16
)

func addTransmitFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not touch GPIO; render frames on a virtual clock")
	cmd.Flags().StringVar(&recordPath, "record", "", "Write the transmitted pulse edges to a capture file")
	cmd.Flags().Uint16Var(&keyFlag, "key", 0, "Transmitter key (default from settings)")
}

// transmitter owns the output side of a command: the Remote and whatever
// pins, files or bridge connections it drives
type transmitter struct {
	remote  *petrainer.Remote
	clock   petrainer.Clock
	rec     *pins.Recorder
	info    string
	closers []io.Closer
}

// openTransmitter builds a Remote for the configured output. With a bridge
// connection the pulse train is streamed as edge records for the bridge to
// replay; with --dry-run it is rendered on a virtual clock; otherwise the
// GPIO lines are driven directly.
func openTransmitter(cmd *cobra.Command, s settings.Settings) (*transmitter, error) {
	t := &transmitter{}

	var out petrainer.OutputPin
	var led petrainer.OutputPin

	switch {
	case hasConnection():
		conn, connInfo, err := OpenConnection()
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, conn)
		clock := pins.NewVirtualClock()
		t.clock = clock
		t.rec = pins.NewRecorder(conn, clock)
		t.info = "Bridge " + connInfo
		out = t.rec

	case dryRun:
		clock := pins.NewVirtualClock()
		t.clock = clock
		w := io.Discard
		if recordPath != "" {
			f, err := os.Create(recordPath)
			if err != nil {
				return nil, fmt.Errorf("failed to create capture: %w", err)
			}
			t.closers = append(t.closers, f)
			w = f
		}
		t.rec = pins.NewRecorder(w, clock)
		t.info = "Dry run (virtual clock)"
		out = t.rec

	default:
		pin, err := pins.OpenOutput(cfg.Pins.TX)
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, pin)
		t.clock = pins.NewSystemClock()
		t.info = fmt.Sprintf("GPIO %d", cfg.Pins.TX)
		out = pin

		if cfg.Pins.LED != config.NoPin {
			indicator, err := pins.OpenOutput(cfg.Pins.LED)
			if err != nil {
				t.Close()
				return nil, err
			}
			t.closers = append(t.closers, indicator)
			led = indicator
		}

		if recordPath != "" {
			f, err := os.Create(recordPath)
			if err != nil {
				t.Close()
				return nil, fmt.Errorf("failed to create capture: %w", err)
			}
			t.closers = append(t.closers, f)
			t.rec = pins.NewRecorder(f, t.clock)
			t.rec.Pin = pin
			out = t.rec
		}
	}

	tx := petrainer.NewTransmitter(out, led, t.clock)
	tx.Compensation = cfg.Transmit.CompensationMicros

	t.remote = petrainer.NewRemote(tx, t.clock)
	t.remote.Key = s.Key
	if cmd.Flags().Changed("key") {
		t.remote.Key = keyFlag
	}
	return t, nil
}

// advanceVirtual moves a virtual clock along with wall time. A virtual
// clock only moves when read, so idle periods must be added explicitly.
func (t *transmitter) advanceVirtual(d time.Duration) {
	if vc, ok := t.clock.(*pins.VirtualClock); ok {
		vc.Advance(d.Microseconds())
	}
}

// Err returns the first capture write error, if recording
func (t *transmitter) Err() error {
	if t.rec == nil {
		return nil
	}
	return t.rec.Err()
}

func (t *transmitter) Close() error {
	var first error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// sharedReceiver serializes access to a Receiver so statistics can be read
// while another goroutine is decoding
type sharedReceiver struct {
	mu sync.Mutex
	rx *petrainer.Receiver
}

func (s *sharedReceiver) Step(level bool, now int64) petrainer.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rx.Step(level, now)
}

func (s *sharedReceiver) Poll() petrainer.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rx.Poll()
}

func (s *sharedReceiver) Command() petrainer.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rx.Command()
}

// Stats returns a copy of the decoder statistics
func (s *sharedReceiver) Stats() petrainer.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rx.Stats
}

// ResetStats clears the decoder statistics
func (s *sharedReceiver) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rx.Stats.Reset()
}

// newReceiver creates a receiver with statistics and the configured key filter
func newReceiver(pin petrainer.InputPin, clock petrainer.Clock) *sharedReceiver {
	rx := petrainer.NewReceiver(pin, clock)
	rx.Stats = petrainer.NewStatistics()
	if cfg.Receive.ExpectKey != 0 {
		rx.SetExpectedKey(cfg.Receive.ExpectKey)
	}
	return &sharedReceiver{rx: rx}
}

// eventSource feeds a receiver from a live GPIO line or a capture stream
type eventSource struct {
	info string
	rx   *sharedReceiver
	run  func(ctx context.Context, handle pins.Handler) error
	stop func() error
}

// openEventSource opens the capture stream named by the flags, or the
// receiver GPIO line when none is given
func openEventSource() (*eventSource, error) {
	if replayPath != "" || hasConnection() {
		conn, connInfo, err := OpenCaptureSource()
		if err != nil {
			return nil, err
		}
		src := &eventSource{
			info: connInfo,
			rx:   newReceiver(nil, nil),
			stop: conn.Close,
		}
		src.run = func(ctx context.Context, handle pins.Handler) error {
			// Closing the stream unblocks Replay
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-ctx.Done():
					conn.Close()
				case <-done:
				}
			}()

			_, err := pins.Replay(conn, src.rx, handle)
			if ctx.Err() != nil || err == nil || isClosed(err) {
				return nil
			}
			return err
		}
		return src, nil
	}

	pin, err := pins.OpenInput(cfg.Pins.RX)
	if err != nil {
		return nil, err
	}
	clock := pins.NewSystemClock()
	src := &eventSource{
		info: fmt.Sprintf("GPIO %d", cfg.Pins.RX),
		rx:   newReceiver(pin, clock),
		stop: pin.Close,
	}
	src.run = func(ctx context.Context, handle pins.Handler) error {
		for ctx.Err() == nil {
			if ev := src.rx.Poll(); ev != petrainer.EventNone && handle != nil {
				handle(ev, src.rx.Command(), clock.Micros())
			}
		}
		return pin.Err()
	}
	return src, nil
}

// loadSettings reads the settings store named by the configuration
func loadSettings() (settings.Settings, error) {
	return settings.Load(cfg.Store)
}
