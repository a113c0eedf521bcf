// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Thermoquad/cubelink/pkg/cube"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var consolePlain bool

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console for driving the Cube",
	Long: `Open an interactive console and type Cube commands.

On connect the Cube is checked with a STATUS command; the console only starts
if it answers without a device error.

Commands:
  status, absolute_pos, relative_pos, set_zero, reset_zero, home
  move <a> <b> <c>
  set_coordinate_mode <cartesian|cylindrical|spherical>
  get_parameter <id>, set_parameter <id> <value>
  get_gpio <index>, set_gpio <index> <value>, set_gpio_mode <index> <output>
  i2c_transfer <rx_len> <tx_len> <addr:hex> <data:hex>
  spi_transfer <cs> <mode> <length> <data:hex>
  help, exit

By default a terminal UI shows the Cube status beside the console. Use --plain
for a simple line prompt (also used when stdin is not a terminal).`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().BoolVar(&consolePlain, "plain", false, "Line-mode prompt instead of the terminal UI")
}

func runConsole(cmd *cobra.Command, args []string) error {
	useTUI := !consolePlain && isTerminal()
	if useTUI {
		// Log lines would tear the alt screen; keep only the file sink
		logger = NewLogger(cfg.Log, nil)
	}

	s, connInfo, err := OpenSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Checking cube:")
	status, err := s.Status()
	if err != nil {
		return fmt.Errorf("comm error: %w", err)
	}
	if derr := status.DeviceErr(); derr != nil {
		return derr
	}
	fmt.Fprint(out, cube.FormatReply(status))

	if !useTUI {
		return runPlainConsole(cmd.InOrStdin(), out, s)
	}

	m := initialConsoleModel(s, connInfo, status)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runPlainConsole reads lines until exit or EOF
func runPlainConsole(in io.Reader, out io.Writer, ops cube.Operations) error {
	fmt.Fprintln(out, "Cube Movement Control. Type help for help.")

	interp := cube.NewInterpreter(ops, out)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ">> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := interp.Interpret(line)
		printResult(out, reply, err)
	}
}
