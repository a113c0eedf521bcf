// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cubelink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig("", newTestFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 115200, c.Baud)
	assert.Equal(t, cube.DefaultTimeout, c.Timeout)
	assert.Equal(t, 100*time.Millisecond, c.ReadTimeout)
	assert.Equal(t, uint32(cube.DefaultIDSeed), c.IDSeed)
	assert.False(t, c.StrictIDs)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
}

func TestLoadConfig_Flags(t *testing.T) {
	flags := newTestFlags(t,
		"--port", "/dev/ttyUSB1",
		"--baud", "9600",
		"--timeout", "750ms",
		"--id-seed", "7",
		"--strict-ids",
		"--log-level", "debug",
	)
	c, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", c.Port)
	assert.Equal(t, 9600, c.Baud)
	assert.Equal(t, 750*time.Millisecond, c.Timeout)
	assert.Equal(t, uint32(7), c.IDSeed)
	assert.True(t, c.StrictIDs)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
port: /dev/ttyACM0
timeout: 500ms
id_seed: 50
log:
  level: info
  file:
    filename: /tmp/cubelink.log
`)
	c, err := LoadConfig(path, newTestFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", c.Port)
	assert.Equal(t, 500*time.Millisecond, c.Timeout)
	assert.Equal(t, uint32(50), c.IDSeed)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "/tmp/cubelink.log", c.Log.File.Filename)
	assert.Equal(t, 10, c.Log.File.MaxSizeMB)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "port: /dev/from-file\nbaud: 57600\n")
	t.Setenv("CUBELINK_PORT", "/dev/from-env")
	t.Setenv("CUBELINK_LOG_LEVEL", "error")

	c, err := LoadConfig(path, newTestFlags(t, "--baud", "19200"))
	require.NoError(t, err)

	assert.Equal(t, "/dev/from-env", c.Port, "env beats file")
	assert.Equal(t, 19200, c.Baud, "flag beats file")
	assert.Equal(t, "error", c.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), newTestFlags(t))
	assert.Error(t, err, "explicit config path must exist")

	_, err = LoadConfig("", newTestFlags(t, "--timeout", "0s"))
	assert.ErrorContains(t, err, "timeout")

	_, err = LoadConfig("", newTestFlags(t, "--baud", "0"))
	assert.ErrorContains(t, err, "baud")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.log")
	l := NewLogger(LogConfig{Level: "info", Format: "json", File: LogFileConfig{Filename: path, MaxSizeMB: 1}}, nil)
	l.Info("connected")
	l.Debug("dropped")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"connected"`)
	assert.NotContains(t, string(data), "dropped")
}

func TestNewLogger_NoSinks(t *testing.T) {
	l := NewLogger(LogConfig{Level: "debug"}, nil)
	assert.False(t, l.Core().Enabled(0))
}
