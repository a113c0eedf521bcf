// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"time"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	cfgFile string

	// Loaded before any subcommand runs
	cfg    *Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cubelink",
	Short: "Cube Serial Protocol Client",
	Long: `Cubelink - A CLI tool for driving a Cube positioning device.

Sends framed commands over a half-duplex serial link (or a WebSocket bridge)
and prints the Cube's replies: position, coordinate mode, device errors and
any SPI/I2C/GPIO/parameter payload.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Every flag can also be set in cubelink.yaml or through CUBELINK_* environment
variables (for example CUBELINK_PORT, CUBELINK_LOG_LEVEL).

For WebSocket authentication, the password is read from the CUBELINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger = NewLogger(cfg.Log, os.Stderr)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./cubelink.yaml or ~/.config/cubelink/cubelink.yaml)")
	addConfigFlags(rootCmd.PersistentFlags())
}

// addConfigFlags registers the flags LoadConfig binds to config keys
func addConfigFlags(flags *pflag.FlagSet) {
	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Session flags
	flags.Duration("timeout", cube.DefaultTimeout, "Per-command reply timeout")
	flags.Duration("read-timeout", 100*time.Millisecond, "Channel read timeout")
	flags.Uint32("id-seed", cube.DefaultIDSeed, "Command id seed (first command uses seed+1)")
	flags.Bool("strict-ids", false, "Reject replies whose id differs from the command id")

	// Logging flags
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.String("log-file", "", "Also log to this file (rotated)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
