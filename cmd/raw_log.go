// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display line traffic in human-readable format",
	Long: `Continuously decode and display Cube frames as they arrive, without sending
anything.

Command frames (host → Cube) and reply frames (Cube → host) are both shown, so
the tool can sit on a tapped line next to another host. Frames that fail to
decode are reported and skipped.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cubelink - Raw Frame Log\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	return rawLogLoop(conn, out)
}

// rawLogLoop prints every frame read from r until the channel closes
func rawLogLoop(r io.Reader, out io.Writer) error {
	decoder := cube.NewStreamDecoder()
	buf := make([]byte, 128)

	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			frame, ferr := decoder.DecodeByte(buf[i])
			if ferr != nil {
				fmt.Fprintf(out, "[ERROR] %v\n", ferr)
				continue
			}
			if frame != nil {
				printFrame(out, frame)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) {
				logger.Info("connection closed")
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}
	}
}

func printFrame(out io.Writer, frame *cube.Frame) {
	switch frame.Type {
	case cube.FrameTypeCommand:
		c, err := cube.DecodeCommand(frame.Payload)
		if err != nil {
			logger.Debug("undecodable command", zap.Binary("payload", frame.Payload))
			fmt.Fprintf(out, "[ERROR] command: %v\n", err)
			return
		}
		fmt.Fprintf(out, ">> %s\n", cube.FormatCommand(c))

	case cube.FrameTypeReply:
		r, err := cube.DecodeReply(frame.Payload)
		if err != nil {
			logger.Debug("undecodable reply", zap.Binary("payload", frame.Payload))
			fmt.Fprintf(out, "[ERROR] reply: %v\n", err)
			return
		}
		fmt.Fprint(out, cube.FormatReply(r))
	}
}
