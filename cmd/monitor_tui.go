// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for information
}

// transmitterSeen tracks one remote heard by the receiver
type transmitterSeen struct {
	key      uint16
	last     petrainer.Command
	commands int
	repeats  int
	lastSeen time.Time
}

// TUI model
type monitorModel struct {
	sourceInfo    string
	showRepeats   bool
	rx            *sharedReceiver
	stats         petrainer.Statistics
	eventLog      []logEntry
	maxLogEntries int
	transmitters  map[uint16]*transmitterSeen
	started       time.Time
	sourceDone    bool
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type commandMsg struct {
	event     petrainer.Event
	command   petrainer.Command
	timestamp time.Time
}
type sourceDoneMsg struct {
	err error
}

// formatUptime formats a duration in milliseconds to a human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialMonitorModel(sourceInfo string, showRepeats bool, rx *sharedReceiver) monitorModel {
	return monitorModel{
		sourceInfo:    sourceInfo,
		showRepeats:   showRepeats,
		rx:            rx,
		stats:         rx.Stats(),
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		transmitters:  make(map[uint16]*transmitterSeen),
		started:       time.Now(),
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.rx.ResetStats()
			m.stats = m.rx.Stats()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Refresh the statistics snapshot
		m.stats = m.rx.Stats()
		m.stats.CalculateRates()
		return m, tickCmd()

	case commandMsg:
		m.recordCommand(msg)

	case sourceDoneMsg:
		m.sourceDone = true
		m.stats = m.rx.Stats()
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Source failed: %v", msg.err), true)
		} else {
			m.addLogEntry("Source closed", false)
		}
	}

	return m, nil
}

func (m *monitorModel) recordCommand(msg commandMsg) {
	c := msg.command
	t, ok := m.transmitters[c.Key]
	if !ok {
		t = &transmitterSeen{key: c.Key}
		m.transmitters[c.Key] = t
		m.addLogEntry(fmt.Sprintf("New transmitter 0x%04X", c.Key), false)
	}
	t.last = c
	t.lastSeen = msg.timestamp

	if msg.event == petrainer.EventRepeat {
		t.repeats++
		if !m.showRepeats {
			return
		}
	} else {
		t.commands++
	}

	kind := ""
	if msg.event == petrainer.EventRepeat {
		kind = " (repeat)"
	}
	m.addLogEntryAt(msg.timestamp,
		fmt.Sprintf("%-4s ch=%d key=0x%04X power=%d%s", c.Action, c.Channel, c.Key, c.Power, kind),
		c.Action == petrainer.ActionZap)
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.addLogEntryAt(time.Now(), message, isError)
}

func (m *monitorModel) addLogEntryAt(ts time.Time, message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: ts,
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// sortedTransmitters returns the transmitters heard, most recent first
func (m monitorModel) sortedTransmitters() []*transmitterSeen {
	list := make([]*transmitterSeen, 0, len(m.transmitters))
	for _, t := range m.transmitters {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].lastSeen.After(list[j].lastSeen)
	})
	return list
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("COLLARSTAT - MONITOR"))
	s.WriteString("\n")
	mode := "New commands"
	if m.showRepeats {
		mode = "All frames"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Source: %s | Mode: %s | Up %s | r=reset q=quit",
		m.sourceInfo, mode, formatUptime(uint64(time.Since(m.started).Milliseconds())))))
	s.WriteString("\n\n")

	if m.sourceDone {
		s.WriteString(warningStyle.Render("Source closed; statistics are final"))
		s.WriteString("\n\n")
	}

	// Statistics
	st := m.stats
	var acceptedPercent, noisePercent float64
	if st.Frames > 0 {
		acceptedPercent = float64(st.Accepted()) * 100.0 / float64(st.Frames)
	}
	if st.TotalPulses > 0 {
		noisePercent = float64(st.NoisePulses) * 100.0 / float64(st.TotalPulses)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Pulses:"), statsValueStyle.Render(fmt.Sprintf("%d", st.TotalPulses)),
		statsLabelStyle.Render("Noise:"), warningStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.NoisePulses, noisePercent)),
		statsLabelStyle.Render("Starts:"), statsValueStyle.Render(fmt.Sprintf("%d", st.StartSymbols)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Frames:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Frames)),
		statsLabelStyle.Render("Accepted:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.Accepted(), acceptedPercent)),
		statsLabelStyle.Render("New:"), statsValueStyle.Render(fmt.Sprintf("%d", st.NewCommands)),
		statsLabelStyle.Render("Repeat:"), statsValueStyle.Render(fmt.Sprintf("%d", st.RepeatCommands)),
	))

	if st.Rejected() > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Rejected:"), errorStyle.Render(fmt.Sprintf("%d", st.Rejected())),
			headerStyle.Render("timing"), st.TimingErrors,
			headerStyle.Render("malformed"), st.MalformedFrames,
			headerStyle.Render("other keys"), st.FilteredFrames,
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if st.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Transmitters heard
	if len(m.transmitters) > 0 {
		s.WriteString(statsLabelStyle.Render("Transmitters:"))
		s.WriteString("\n")

		txContent := strings.Builder{}
		for i, t := range m.sortedTransmitters() {
			if i > 0 {
				txContent.WriteString("\n")
			}
			txContent.WriteString(fmt.Sprintf("%s %s ch=%d power=%d  %s %d  %s %d  %s",
				statsLabelStyle.Render(fmt.Sprintf("0x%04X", t.key)),
				statsValueStyle.Render(fmt.Sprintf("%-4s", t.last.Action)),
				t.last.Channel, t.last.Power,
				headerStyle.Render("commands"), t.commands,
				headerStyle.Render("repeats"), t.repeats,
				headerStyle.Render(t.lastSeen.Format("15:04:05.000")),
			))
		}
		s.WriteString(boxStyle.Render(txContent.String()))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Commands:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 15 - len(m.transmitters)
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no commands yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("! "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("> "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
