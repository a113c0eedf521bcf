// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	statusPanelWidth = 34
	maxConsoleLines  = 500
	maxHistory       = 100
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// consoleSession is what the console needs from a cube session
type consoleSession interface {
	cube.Operations
	LastID() uint32
	Stats() *cube.Statistics
}

// consoleModel is the Bubble Tea model for the console TUI
type consoleModel struct {
	sess     consoleSession
	connInfo string

	// Console
	input  textinput.Model
	output viewport.Model
	lines  []string

	// Command history (up/down)
	history []string
	histPos int

	// Cube state from the last reply
	status   cube.ReplyStatus
	lastKind cube.PayloadKind

	// UI state
	width    int
	height   int
	busy     bool
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type commandResultMsg struct {
	line  string
	reply *cube.Reply
	err   error
	help  string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(sess consoleSession, connInfo string, first *cube.Reply) consoleModel {
	ti := textinput.New()
	ti.Prompt = ">> "
	ti.Placeholder = "help"
	ti.CharLimit = 256
	ti.Focus()

	vp := viewport.New(80-statusPanelWidth-4, 18)

	m := consoleModel{
		sess:     sess,
		connInfo: connInfo,
		input:    ti,
		output:   vp,
		width:    80,
		height:   24,
	}
	m.appendLines("Cube Movement Control. Type help for help.")
	if first != nil {
		m.status = first.Status
		m.lastKind = first.Payload.Kind()
	}
	return m
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case commandResultMsg:
		m.busy = false
		m.handleResult(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		if line == "exit" || line == "quit" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			m.appendLines("!!! Busy: waiting for the previous reply")
			return m, nil
		}
		m.pushHistory(line)
		m.appendLines(">> " + line)
		m.busy = true
		return m, runConsoleCommand(m.sess, line)

	case "up":
		if m.histPos > 0 {
			m.histPos--
			m.input.SetValue(m.history[m.histPos])
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if m.histPos < len(m.history)-1 {
			m.histPos++
			m.input.SetValue(m.history[m.histPos])
			m.input.CursorEnd()
		} else {
			m.histPos = len(m.history)
			m.input.Reset()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runConsoleCommand interprets one line off the UI goroutine
func runConsoleCommand(sess cube.Operations, line string) tea.Cmd {
	return func() tea.Msg {
		var help bytes.Buffer
		reply, err := cube.NewInterpreter(sess, &help).Interpret(line)
		return commandResultMsg{line: line, reply: reply, err: err, help: help.String()}
	}
}

func (m *consoleModel) handleResult(msg commandResultMsg) {
	var out strings.Builder
	if msg.help != "" {
		out.WriteString(msg.help)
	}
	printResult(&out, msg.reply, msg.err)
	m.appendLines(strings.Split(strings.TrimRight(out.String(), "\n"), "\n")...)

	if msg.reply != nil {
		m.status = msg.reply.Status
		m.lastKind = msg.reply.Payload.Kind()
	}
}

func (m *consoleModel) appendLines(lines ...string) {
	m.lines = append(m.lines, lines...)
	if len(m.lines) > maxConsoleLines {
		m.lines = m.lines[len(m.lines)-maxConsoleLines:]
	}
	m.output.SetContent(strings.Join(m.lines, "\n"))
	m.output.GotoBottom()
}

func (m *consoleModel) pushHistory(line string) {
	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
		if len(m.history) > maxHistory {
			m.history = m.history[1:]
		}
	}
	m.histPos = len(m.history)
}

func (m *consoleModel) resize() {
	w := m.width - statusPanelWidth - 6
	if w < 20 {
		w = 20
	}
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	m.output.Width = w
	m.output.Height = h
	m.input.Width = w - len(m.input.Prompt) - 1
	m.output.GotoBottom()
}

//////////////////////////////////////////////////////////////
// Rendering
//////////////////////////////////////////////////////////////

func (m consoleModel) View() string {
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

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
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
	s.WriteString(titleStyle.Render("CUBELINK CONSOLE"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Enter=run Esc=quit PgUp/PgDn=scroll", m.connInfo)))
	s.WriteString("\n\n")

	consolePanel := boxStyle.Render(m.output.View() + "\n" + m.input.View())
	statusPanel := boxStyle.Width(statusPanelWidth).Render(
		m.renderStatus(labelStyle, valueStyle, errorStyle, warningStyle))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, consolePanel, " ", statusPanel))
	s.WriteString("\n")
	return s.String()
}

func (m consoleModel) renderStatus(labelStyle, valueStyle, errorStyle, warningStyle lipgloss.Style) string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label))
		s.WriteString(" ")
		s.WriteString(value)
		s.WriteString("\n")
	}

	state := valueStyle.Render("Connected")
	if m.busy {
		state = warningStyle.Render("Waiting for reply...")
	}
	row("Status:", state)

	st := m.status
	row("Mode:", valueStyle.Render(cube.FormatMode(st.Mode)))
	row("Position:", valueStyle.Render(fmt.Sprintf("(%.3f, %.3f, %.3f)", st.Position.A, st.Position.B, st.Position.C)))
	row("Last sent ID:", valueStyle.Render(fmt.Sprintf("%d", m.sess.LastID())))
	row("Last ack ID:", valueStyle.Render(fmt.Sprintf("%d", st.ID)))
	if st.Error != 0 {
		row("Cube error:", errorStyle.Render(fmt.Sprintf("%d", st.Error)))
	} else {
		row("Cube error:", valueStyle.Render("none"))
	}
	row("Payload:", valueStyle.Render(m.lastKind.String()))

	snap := m.sess.Stats().Snapshot()
	s.WriteString("\n")
	row("Commands:", valueStyle.Render(fmt.Sprintf("%d", snap.Commands)))
	errs := valueStyle.Render("0")
	if n := snap.Errors(); n > 0 {
		errs = errorStyle.Render(fmt.Sprintf("%d", n))
	}
	row("Errors:", errs)

	return strings.TrimRight(s.String(), "\n")
}
