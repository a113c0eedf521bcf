// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/spf13/cobra"
)

var (
	pingCount    int
	pingInterval time.Duration
)

// Exit codes
const (
	exitOK        = 0
	exitFailed    = 1
	exitConnError = 2
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the Cube answers STATUS commands",
	Long: `Send STATUS commands to the Cube and wait for each reply.

Each reply is checked for a matching id and a zero device error. Frame and
timeout errors count as failed pings.

Exit codes:
  0 - All pings answered without a device error
  1 - One or more pings timed out, were malformed or reported a device error
  2 - Connection error

Useful for checking wiring, baud rate and a WebSocket bridge.`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 500*time.Millisecond, "Delay between pings")
}

func runPing(cmd *cobra.Command, args []string) error {
	s, connInfo, err := OpenSession(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(exitConnError)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cubelink - Ping\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Timeout: %v per ping\n", cfg.Timeout)
	fmt.Fprintf(out, "Count: %d pings\n\n", pingCount)

	code := pingLoop(out, s, pingCount, pingInterval)

	fmt.Fprintf(out, "\n%s", s.Stats().String())

	s.Close()
	os.Exit(code)
	return nil
}

// pingLoop sends count STATUS commands and returns the exit code
func pingLoop(out io.Writer, ops cube.Operations, count int, interval time.Duration) int {
	successCount := 0
	failCount := 0

	for i := 1; i <= count; i++ {
		if i > 1 && interval > 0 {
			time.Sleep(interval)
		}
		fmt.Fprintf(out, "Ping %d/%d: ", i, count)

		start := time.Now()
		reply, err := ops.Status()
		elapsed := time.Since(start)

		if errors.Is(err, cube.ErrChannelClosed) {
			fmt.Fprintf(out, "CONNECTION LOST: %v\n", err)
			return exitConnError
		}
		if errors.Is(err, cube.ErrTimeout) {
			fmt.Fprintf(out, "TIMEOUT after %v\n", elapsed.Round(time.Millisecond))
			failCount++
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "FAILED: %v\n", err)
			failCount++
			continue
		}
		if derr := reply.DeviceErr(); derr != nil {
			fmt.Fprintf(out, "DEVICE ERROR %d (id=%d, %v)\n", reply.Status.Error, reply.Status.ID, elapsed.Round(time.Millisecond))
			failCount++
			continue
		}

		fmt.Fprintf(out, "OK id=%d mode=%s %s (%v)\n",
			reply.Status.ID,
			cube.FormatMode(reply.Status.Mode),
			cube.FormatPosition(reply.Status.Mode, reply.Status.Position),
			elapsed.Round(time.Millisecond))
		successCount++
	}

	fmt.Fprintf(out, "\n%d/%d pings successful\n", successCount, count)
	if failCount > 0 {
		return exitFailed
	}
	return exitOK
}
