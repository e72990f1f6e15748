// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package petrainer

import (
	"strings"
	"testing"
)

func TestStatistics_Record(t *testing.T) {
	s := NewStatistics()
	outcomes := []Outcome{
		OutcomeNoise, OutcomeNoise, OutcomeStart, OutcomeBit, OutcomeBit, OutcomeStray,
		OutcomeTiming, OutcomeMalformed, OutcomeFiltered, OutcomeNew, OutcomeRepeat, OutcomeRepeat,
	}
	for _, o := range outcomes {
		s.Record(o)
	}

	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"TotalPulses", s.TotalPulses, 6},
		{"NoisePulses", s.NoisePulses, 2},
		{"StartSymbols", s.StartSymbols, 1},
		{"DataBits", s.DataBits, 2},
		{"StrayBits", s.StrayBits, 1},
		{"Frames", s.Frames, 6},
		{"TimingErrors", s.TimingErrors, 1},
		{"MalformedFrames", s.MalformedFrames, 1},
		{"FilteredFrames", s.FilteredFrames, 1},
		{"NewCommands", s.NewCommands, 1},
		{"RepeatCommands", s.RepeatCommands, 2},
		{"Accepted", s.Accepted(), 3},
		{"Rejected", s.Rejected(), 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestStatistics_NilIgnored(t *testing.T) {
	var s *Statistics
	s.Record(OutcomeNew)
}

func TestStatistics_StringAndReset(t *testing.T) {
	s := NewStatistics()
	s.Record(OutcomeNew)
	s.Record(OutcomeMalformed)

	out := s.String()
	for _, want := range []string{"Frames:", "Accepted:", "(50.0%)", "Malformed:"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Timing Errors:") {
		t.Errorf("zero counters should be omitted:\n%s", out)
	}

	s.Reset()
	if s.Frames != 0 || s.NewCommands != 0 || s.StartTime.IsZero() {
		t.Errorf("Reset left %+v", s)
	}
}
