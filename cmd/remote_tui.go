// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/Thermoquad/collarstat/pkg/settings"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	maxPower = 100
	minPower = 0
)

// Focus states
const (
	focusActionList = iota
	focusPowerInput
	focusButton
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// actionItem is one entry of the action list
type actionItem struct {
	action petrainer.Action
	desc   string
}

// Implement list.Item interface
func (a actionItem) Title() string       { return a.action.String() }
func (a actionItem) Description() string { return a.desc }
func (a actionItem) FilterValue() string { return a.action.String() }

// remoteModel is the Bubble Tea model for the remote TUI
type remoteModel struct {
	// Output
	tx        *transmitter
	keepAlive *petrainer.KeepAlive // nil when no keep-alive channels are stored
	stop      *atomic.Bool

	// Session parameters
	channels   petrainer.ChannelMask
	durationMs int64
	actionList list.Model
	powerInput textinput.Model

	// Session state
	busy     bool
	sessions int

	// UI state
	focusedField  int
	eventLog      []logEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type remoteTickMsg time.Time

type sessionDoneMsg struct {
	label     string
	keepAlive bool
	err       error
	elapsed   time.Duration
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialRemoteModel(t *transmitter, s settings.Settings, durationMs, keepAlivePeriodMs int64) remoteModel {
	// Initialize text input for power
	ti := textinput.New()
	ti.Placeholder = "10"
	ti.CharLimit = 3
	ti.Width = 5

	items := []list.Item{
		actionItem{petrainer.ActionLED, "Flash the collar light"},
		actionItem{petrainer.ActionBeep, "Sound the buzzer"},
		actionItem{petrainer.ActionVibrate, "Run the vibration motor"},
		actionItem{petrainer.ActionZap, "Static stimulation"},
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	actionList := list.New(items, delegate, 30, 10)
	actionList.Title = "Actions"
	actionList.SetShowStatusBar(false)
	actionList.SetShowHelp(false)
	actionList.SetFilteringEnabled(false)

	stop := &atomic.Bool{}
	t.remote.Interrupt = stop.Load

	var ka *petrainer.KeepAlive
	if s.KeepAlive != petrainer.MaskNone {
		ka = petrainer.NewKeepAlive(t.remote, s.KeepAlive)
		ka.Period = keepAlivePeriodMs
	}

	m := remoteModel{
		tx:            t,
		keepAlive:     ka,
		stop:          stop,
		channels:      s.Mask(),
		durationMs:    durationMs,
		actionList:    actionList,
		powerInput:    ti,
		focusedField:  focusActionList,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	m.addLogEntry(fmt.Sprintf("Output: %s, key 0x%04X", t.info, t.remote.Key), false)
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m remoteModel) Init() tea.Cmd {
	return remoteTickCmd()
}

func remoteTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return remoteTickMsg(t)
	})
}

func (m remoteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.actionList, _ = m.actionList.Update(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case remoteTickMsg:
		cmds = append(cmds, remoteTickCmd())
		// The clock belongs to the session goroutine while busy
		if !m.busy {
			m.tx.advanceVirtual(time.Second)
			if m.keepAlive != nil && m.keepAlive.Due() <= 0 {
				cmds = append(cmds, m.startKeepAlive())
			}
		}
		return m, tea.Batch(cmds...)

	case sessionDoneMsg:
		m.busy = false
		m.stop.Store(false)
		switch {
		case errors.Is(msg.err, petrainer.ErrInterrupted):
			m.addLogEntry(fmt.Sprintf("%s stopped after %s", msg.label, msg.elapsed.Round(time.Millisecond)), false)
		case msg.err != nil:
			m.addLogEntry(fmt.Sprintf("%s failed: %v", msg.label, msg.err), true)
		case msg.keepAlive:
			m.addLogEntry(fmt.Sprintf("%s sent", msg.label), false)
		default:
			m.sessions++
			m.addLogEntry(fmt.Sprintf("%s sent in %s", msg.label, msg.elapsed.Round(time.Millisecond)), false)
		}
		if err := m.tx.Err(); err != nil {
			m.addLogEntry(fmt.Sprintf("Capture failed: %v", err), true)
		}
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusPowerInput {
		m.powerInput, cmd = m.powerInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *remoteModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stop.Store(true)
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focusedField != focusPowerInput {
			m.stop.Store(true)
			m.quitting = true
			return m, tea.Quit
		}

	case "esc":
		if m.busy {
			m.stop.Store(true)
			m.addLogEntry("Stopping session...", false)
		}
		return m, nil

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "enter":
		return m.sendCommand()

	case "1", "2", "b":
		if m.focusedField != focusPowerInput {
			m.selectChannels(msg.String())
			return m, nil
		}

	case "up", "k", "down", "j":
		if m.focusedField == focusActionList {
			m.actionList, _ = m.actionList.Update(msg)
			return m, nil
		}
	}

	// Pass through to focused component
	if m.focusedField == focusPowerInput {
		var cmd tea.Cmd
		m.powerInput, cmd = m.powerInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *remoteModel) cycleFocus(delta int) *remoteModel {
	maxFocus := focusButton
	m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)

	// LED and beep always send power 1
	if m.focusedField == focusPowerInput && !m.selectedAction().usesPower() {
		m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)
	}

	if m.focusedField == focusPowerInput {
		m.powerInput.Focus()
	} else {
		m.powerInput.Blur()
	}
	return m
}

func (m *remoteModel) selectChannels(key string) {
	switch key {
	case "1":
		m.channels = petrainer.MaskChannel1
	case "2":
		m.channels = petrainer.MaskChannel2
	case "b":
		m.channels = petrainer.MaskBoth
	}
	m.addLogEntry(fmt.Sprintf("Channels: %s", m.channels), false)
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

type selectedAction petrainer.Action

func (a selectedAction) usesPower() bool {
	return petrainer.Action(a) == petrainer.ActionVibrate || petrainer.Action(a) == petrainer.ActionZap
}

func (m remoteModel) selectedAction() selectedAction {
	item, ok := m.actionList.SelectedItem().(actionItem)
	if !ok {
		return selectedAction(petrainer.ActionNone)
	}
	return selectedAction(item.action)
}

func (m *remoteModel) sendCommand() (tea.Model, tea.Cmd) {
	if m.busy {
		m.addLogEntry("A session is already running", true)
		return m, nil
	}

	action := petrainer.Action(m.selectedAction())
	power := uint8(1)
	if m.selectedAction().usesPower() {
		powerStr := m.powerInput.Value()
		if powerStr == "" {
			powerStr = m.powerInput.Placeholder
		}
		p, err := strconv.ParseInt(powerStr, 10, 64)
		if err != nil {
			m.addLogEntry(fmt.Sprintf("Invalid power value: %s", powerStr), true)
			return m, nil
		}
		if p < minPower || p > maxPower {
			m.addLogEntry(fmt.Sprintf("Power must be between %d and %d", minPower, maxPower), true)
			return m, nil
		}
		power = uint8(p)
	}

	req := petrainer.Request{
		Action:   action,
		Channels: m.channels,
		Power:    power,
		Duration: m.durationMs,
	}
	label := fmt.Sprintf("%s power %d on %s", action, power, m.channels)
	m.busy = true

	remote := m.tx.remote
	return m, func() tea.Msg {
		start := time.Now()
		err := remote.Command(req)
		return sessionDoneMsg{label: label, err: err, elapsed: time.Since(start)}
	}
}

func (m *remoteModel) startKeepAlive() tea.Cmd {
	m.busy = true
	ka := m.keepAlive
	return func() tea.Msg {
		start := time.Now()
		_, err := ka.Tick()
		return sessionDoneMsg{
			label:     fmt.Sprintf("Keep-alive on %s", ka.Channels),
			keepAlive: true,
			err:       err,
			elapsed:   time.Since(start),
		}
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m remoteModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

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

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Padding(0, 2)

	focusedButtonStyle := buttonStyle.
		Background(lipgloss.Color("10"))

	// Header
	s.WriteString(titleStyle.Render("COLLARSTAT REMOTE"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch 1/2/b=channel Esc=stop", m.tx.info)))
	s.WriteString("\n\n")

	// Layout: left panel (actions) | right panel (control)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusActionList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	actionPanel := listStyle.Render(m.actionList.View())

	var c strings.Builder
	c.WriteString(fmt.Sprintf("%s 0x%04X\n", statsLabelStyle.Render("Key:"), m.tx.remote.Key))
	c.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Channels:"), statsValueStyle.Render(m.channels.String())))
	c.WriteString(fmt.Sprintf("%s %d ms\n\n", statsLabelStyle.Render("Duration:"), m.durationMs))

	action := m.selectedAction()
	c.WriteString(statsLabelStyle.Render("Power: "))
	switch {
	case !action.usesPower():
		c.WriteString(headerStyle.Render("1 (fixed)"))
	case m.focusedField == focusPowerInput:
		c.WriteString(m.powerInput.View())
	default:
		// Show as plain text when not focused
		val := m.powerInput.Value()
		if val == "" {
			val = m.powerInput.Placeholder
		}
		c.WriteString(fmt.Sprintf("[%s]", val))
	}
	c.WriteString("\n\n")

	btnText := fmt.Sprintf("[ Send %s ]", petrainer.Action(action))
	if m.busy {
		btnText = "[ Sending... ]"
	}
	if m.focusedField == focusButton {
		c.WriteString(focusedButtonStyle.Render(btnText))
	} else {
		c.WriteString(buttonStyle.Render(btnText))
	}
	c.WriteString("\n\n")

	switch {
	case m.keepAlive != nil && m.busy:
		// The clock belongs to the session goroutine
		c.WriteString(fmt.Sprintf("%s %s, waiting for the line\n",
			statsLabelStyle.Render("Keep-alive:"), m.keepAlive.Channels))
	case m.keepAlive != nil:
		due := m.keepAlive.Due()
		if due < 0 {
			due = 0
		}
		c.WriteString(fmt.Sprintf("%s %s, next in %s\n",
			statsLabelStyle.Render("Keep-alive:"), m.keepAlive.Channels, formatUptime(uint64(due))))
	default:
		c.WriteString(headerStyle.Render("Keep-alive off"))
		c.WriteString("\n")
	}
	c.WriteString(fmt.Sprintf("%s %d", statsLabelStyle.Render("Sessions:"), m.sessions))

	controlPanel := boxStyle.Width(rightWidth).Render(c.String())

	// Join panels horizontally
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, actionPanel, " ", controlPanel))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m remoteModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *remoteModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m *remoteModel) updateListSize() {
	listHeight := m.height / 3
	if listHeight < 8 {
		listHeight = 8
	}
	m.actionList.SetSize(28, listHeight)
}
