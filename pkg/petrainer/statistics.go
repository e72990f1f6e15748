// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import (
	"fmt"
	"time"
)

// Outcome classifies what the receiver did with one pulse or frame
type Outcome int

const (
	OutcomeNoise     Outcome = iota // pulse width outside every symbol window
	OutcomeStart                    // start symbol
	OutcomeBit                      // data bit stored
	OutcomeStray                    // data bit with no frame in progress
	OutcomeTiming                   // 40 bits outside the packet time window
	OutcomeMalformed                // redundant fields disagree
	OutcomeFiltered                 // key does not match the expected key
	OutcomeNew                      // new command accepted
	OutcomeRepeat                   // repeat of the previous command
)

// Statistics tracks receiver decode counts and rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Pulse counters
	TotalPulses  uint64
	NoisePulses  uint64
	StartSymbols uint64
	DataBits     uint64
	StrayBits    uint64

	// Frame counters
	Frames          uint64
	TimingErrors    uint64
	MalformedFrames uint64
	FilteredFrames  uint64
	NewCommands     uint64
	RepeatCommands  uint64

	// Rates (calculated)
	FrameRate float64 // accepted frames/sec
	ErrorRate float64 // rejected frames/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Record counts one decoder outcome. A nil receiver ignores the call.
func (s *Statistics) Record(o Outcome) {
	if s == nil {
		return
	}

	switch o {
	case OutcomeNoise:
		s.TotalPulses++
		s.NoisePulses++
		return
	case OutcomeStart:
		s.TotalPulses++
		s.StartSymbols++
		return
	case OutcomeStray:
		s.TotalPulses++
		s.StrayBits++
		return
	case OutcomeBit:
		s.TotalPulses++
		s.DataBits++
		return
	}

	// Frame level outcomes
	s.Frames++
	switch o {
	case OutcomeTiming:
		s.TimingErrors++
	case OutcomeMalformed:
		s.MalformedFrames++
	case OutcomeFiltered:
		s.FilteredFrames++
	case OutcomeNew:
		s.NewCommands++
	case OutcomeRepeat:
		s.RepeatCommands++
	}
	s.LastUpdateTime = time.Now()
}

// Accepted returns the number of frames that decoded to a command
func (s *Statistics) Accepted() uint64 {
	return s.NewCommands + s.RepeatCommands
}

// Rejected returns the number of complete frames that were discarded
func (s *Statistics) Rejected() uint64 {
	return s.TimingErrors + s.MalformedFrames + s.FilteredFrames
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.Accepted()) / elapsed
		s.ErrorRate = float64(s.Rejected()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var acceptedPercent, noisePercent float64
	if s.Frames > 0 {
		acceptedPercent = float64(s.Accepted()) * 100.0 / float64(s.Frames)
	}
	if s.TotalPulses > 0 {
		noisePercent = float64(s.NoisePulses) * 100.0 / float64(s.TotalPulses)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Pulses:          %8d (%.1f%% noise)\n", s.TotalPulses, noisePercent)
	result += fmt.Sprintf("Frames:          %8d\n", s.Frames)
	result += fmt.Sprintf("Accepted:        %8d (%.1f%%)\n", s.Accepted(), acceptedPercent)
	result += fmt.Sprintf("  New:              %5d\n", s.NewCommands)
	result += fmt.Sprintf("  Repeat:           %5d\n", s.RepeatCommands)

	if s.TimingErrors > 0 {
		result += fmt.Sprintf("Timing Errors:   %8d\n", s.TimingErrors)
	}
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", s.MalformedFrames)
	}
	if s.FilteredFrames > 0 {
		result += fmt.Sprintf("Other Keys:      %8d\n", s.FilteredFrames)
	}
	if s.StrayBits > 0 {
		result += fmt.Sprintf("Stray Bits:      %8d\n", s.StrayBits)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
