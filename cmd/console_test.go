// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Thermoquad/cubelink/pkg/cube"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Plain console
// ============================================================================

func TestRunPlainConsole(t *testing.T) {
	c := newSimCube()
	s := newSimSession(c)

	in := strings.NewReader("status\n\nmove 1 2 3\nfly away\nset_parameter 4\nexit\nstatus\n")
	var out bytes.Buffer
	require.NoError(t, runPlainConsole(in, &out, s))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Cube Movement Control. Type help for help.\n>> "))
	assert.Contains(t, text, "id=201 mode=CARTESIAN x=0.000 y=0.000 z=0.000")
	assert.Contains(t, text, "id=202 mode=CARTESIAN x=1.000 y=2.000 z=3.000")
	assert.Contains(t, text, "!!! fly: unknown command")
	assert.Contains(t, text, "usage: set_parameter <id> <value>")

	// Nothing after exit is sent
	assert.Equal(t, uint64(2), s.Stats().Snapshot().Commands)
}

func TestRunPlainConsole_HelpAndEOF(t *testing.T) {
	s := newSimSession(newSimCube())

	var out bytes.Buffer
	require.NoError(t, runPlainConsole(strings.NewReader("help"), &out, s))

	assert.Contains(t, out.String(), "i2c_transfer")
	assert.Zero(t, s.Stats().Snapshot().Commands)
}

func TestRunPlainConsole_DeviceError(t *testing.T) {
	c := newSimCube()
	c.errorCode = 2
	s := newSimSession(c)

	var out bytes.Buffer
	require.NoError(t, runPlainConsole(strings.NewReader("home\n"), &out, s))
	assert.Contains(t, out.String(), "!!! Cube error: 2")
}

// ============================================================================
// Terminal UI model
// ============================================================================

func typeLine(t *testing.T, m consoleModel, line string) (consoleModel, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(consoleModel), cmd
}

func TestConsoleModel_RunsCommand(t *testing.T) {
	s := newSimSession(newSimCube())
	m := initialConsoleModel(s, "sim", nil)

	m, cmd := typeLine(t, m, "move 4 5 6")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, []string{"move 4 5 6"}, m.history)

	msg := cmd()
	result, ok := msg.(commandResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)

	next, _ := m.Update(result)
	m = next.(consoleModel)

	assert.False(t, m.busy)
	assert.Equal(t, cube.Position{A: 4, B: 5, C: 6}, m.status.Position)
	assert.Equal(t, uint32(201), m.status.ID)
	assert.Contains(t, strings.Join(m.lines, "\n"), "x=4.000 y=5.000 z=6.000")

	view := m.View()
	assert.Contains(t, view, "CUBELINK CONSOLE")
	assert.Contains(t, view, "Last ack ID:")
}

func TestConsoleModel_BusyRejectsInput(t *testing.T) {
	s := newSimSession(newSimCube())
	m := initialConsoleModel(s, "sim", nil)

	m, _ = typeLine(t, m, "status")
	m, cmd := typeLine(t, m, "home")

	assert.Nil(t, cmd)
	assert.Contains(t, m.lines[len(m.lines)-1], "Busy")
	assert.Equal(t, []string{"status"}, m.history)
}

func TestConsoleModel_Help(t *testing.T) {
	m := initialConsoleModel(newSimSession(newSimCube()), "sim", nil)

	m, cmd := typeLine(t, m, "help")
	next, _ := m.Update(cmd())
	m = next.(consoleModel)

	assert.Contains(t, strings.Join(m.lines, "\n"), "set_coordinate_mode")
}

func TestConsoleModel_History(t *testing.T) {
	m := initialConsoleModel(newSimSession(newSimCube()), "sim", nil)
	m.pushHistory("status")
	m.pushHistory("home")
	m.pushHistory("home")
	require.Equal(t, []string{"status", "home"}, m.history)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(consoleModel)
	assert.Equal(t, "home", m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(consoleModel)
	assert.Equal(t, "status", m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(consoleModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(consoleModel)
	assert.Empty(t, m.input.Value())
}

func TestConsoleModel_Quit(t *testing.T) {
	m := initialConsoleModel(newSimSession(newSimCube()), "sim", nil)

	m, cmd := typeLine(t, m, "exit")
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Equal(t, "Shutting down...\n", m.View())
}
