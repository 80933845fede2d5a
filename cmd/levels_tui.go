// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	levelsRefreshInterval = 500 * time.Millisecond
	levelStepSmall        = 1
	levelStepLarge        = 10
	gaugeWidth            = 40
)

// Channel selection
const (
	channelA = iota
	channelB
	channelMA
	channelCount
)

var channelLabels = [channelCount]string{"Channel A", "Channel B", "Multi Adjust"}

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// levelsModel is the Bubble Tea model for the live level TUI. All device
// calls happen synchronously inside Update; the session is owned by the
// event loop and never touched from another goroutine.
type levelsModel struct {
	dev *mk312.Device

	levels  [channelCount]byte
	maMin   byte
	maMax   byte
	mode    mk312.Mode
	power   mk312.PowerLevel
	gauges  [channelCount]progress.Model
	focused int

	lastErr  error
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type levelsTickMsg time.Time

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

// initialLevelsModel reads the starting levels, the multi-adjust range and
// the running mode from the box.
func initialLevelsModel(dev *mk312.Device) (levelsModel, error) {
	m := levelsModel{dev: dev}

	for i := range m.gauges {
		g := progress.New(progress.WithDefaultGradient())
		g.Width = gaugeWidth
		g.ShowPercentage = false
		m.gauges[i] = g
	}

	var err error
	if m.maMin, m.maMax, err = dev.MultiAdjustRange(); err != nil {
		return levelsModel{}, err
	}
	if err := m.refresh(); err != nil {
		return levelsModel{}, err
	}

	return m, nil
}

// refresh re-reads the live values from the box.
func (m *levelsModel) refresh() error {
	var err error
	if m.levels[channelA], err = m.dev.LevelA(); err != nil {
		return err
	}
	if m.levels[channelB], err = m.dev.LevelB(); err != nil {
		return err
	}
	if m.levels[channelMA], err = m.dev.MultiAdjust(); err != nil {
		return err
	}
	if m.mode, err = m.dev.Mode(); err != nil {
		return err
	}
	if m.power, err = m.dev.PowerLevel(); err != nil {
		return err
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m levelsModel) Init() tea.Cmd {
	return levelsTickCmd()
}

func levelsTickCmd() tea.Cmd {
	return tea.Tick(levelsRefreshInterval, func(t time.Time) tea.Msg {
		return levelsTickMsg(t)
	})
}

func (m levelsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case levelsTickMsg:
		// Transient read failures keep the last known values on screen.
		m.lastErr = m.refresh()
		return m, levelsTickCmd()
	}

	return m, nil
}

func (m levelsModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "right":
		m.focused = (m.focused + 1) % channelCount

	case "shift+tab", "left":
		m.focused = (m.focused + channelCount - 1) % channelCount

	case "up", "+", "=":
		m.lastErr = m.adjust(levelStepSmall)

	case "down", "-":
		m.lastErr = m.adjust(-levelStepSmall)

	case "shift+up", "pgup":
		m.lastErr = m.adjust(levelStepLarge)

	case "shift+down", "pgdown":
		m.lastErr = m.adjust(-levelStepLarge)

	case "0":
		m.lastErr = m.setLevel(m.floor(m.focused))
	}

	return m, nil
}

// floor is the lowest writable value for a channel. The multi-adjust
// floor comes from the box; the channels bottom out at zero.
func (m levelsModel) floor(channel int) byte {
	if channel == channelMA {
		return m.maMin
	}
	return 0
}

func (m levelsModel) ceiling(channel int) byte {
	if channel == channelMA {
		return m.maMax
	}
	return 0xff
}

// adjust moves the focused level by delta, clamped to the channel range.
func (m *levelsModel) adjust(delta int) error {
	value := int(m.levels[m.focused]) + delta
	if min := int(m.floor(m.focused)); value < min {
		value = min
	}
	if max := int(m.ceiling(m.focused)); value > max {
		value = max
	}
	return m.setLevel(byte(value))
}

func (m *levelsModel) setLevel(value byte) error {
	var err error
	switch m.focused {
	case channelA:
		err = m.dev.SetLevelA(value)
	case channelB:
		err = m.dev.SetLevelB(value)
	case channelMA:
		err = m.dev.SetMultiAdjust(value)
	}
	if err != nil {
		return err
	}
	m.levels[m.focused] = value
	return nil
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m levelsModel) View() string {
	if m.quitting {
		return "Resetting session key...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	focusedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("MK312CTL - LIVE LEVELS"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf(
		"Mode: %s | Power: %s | Knobs disabled | Press 'q' to quit", m.mode, m.power)))
	s.WriteString("\n\n")

	var gauges strings.Builder
	for i := 0; i < channelCount; i++ {
		label := channelLabels[i]
		style := labelStyle
		cursor := "  "
		if i == m.focused {
			style = focusedStyle
			cursor = "> "
		}

		span := float64(int(m.ceiling(i)) - int(m.floor(i)))
		percent := 0.0
		if span > 0 {
			percent = float64(int(m.levels[i])-int(m.floor(i))) / span
			if percent < 0 {
				percent = 0
			}
		}

		gauges.WriteString(fmt.Sprintf("%s%s\n", cursor, style.Render(label)))
		gauges.WriteString(fmt.Sprintf("  %s %3d\n", m.gauges[i].ViewAs(percent), m.levels[i]))
		if i < channelCount-1 {
			gauges.WriteString("\n")
		}
	}
	s.WriteString(boxStyle.Render(gauges.String()))
	s.WriteString("\n\n")

	if m.lastErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("⚠ %v", m.lastErr)))
		s.WriteString("\n")
	}

	s.WriteString(headerStyle.Render(
		"tab/←/→ switch | ↑/↓ adjust | shift+↑/↓ coarse | 0 zero selected"))
	s.WriteString("\n")

	return s.String()
}
