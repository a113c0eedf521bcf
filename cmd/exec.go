// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run a single Cube command and print the reply",
	Long: `Run one console command against the Cube and print its reply.

The arguments are joined into one console line, so every command accepted by
the interactive console works here:

  cubelink -p /dev/ttyUSB0 exec move 10 0 5
  cubelink -p /dev/ttyUSB0 exec i2c_transfer 9 1 0C 4F

Run "cubelink exec help" for the command list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	line := strings.Join(args, " ")

	// help needs no Cube
	if args[0] == "help" {
		_, err := cube.NewInterpreter(nil, cmd.OutOrStdout()).Interpret("help")
		return err
	}

	s, _, err := OpenSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	reply, err := cube.NewInterpreter(s, cmd.OutOrStdout()).Interpret(line)
	switch printResult(cmd.OutOrStdout(), reply, err) {
	case resultCommandError, resultCommsError:
		return err
	case resultDeviceError:
		fmt.Fprintln(os.Stderr, "Command completed with a device error")
		return reply.DeviceErr()
	}
	return nil
}
