// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Thermoquad/cubelink/pkg/cube"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func unlimited() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// ============================================================================
// watchLoop
// ============================================================================

func TestWatchLoop_PrintsReadings(t *testing.T) {
	c := newSimCube()
	s := newSimSession(c)
	_, err := s.SetCoordinateMode(cube.ModeCylindrical)
	require.NoError(t, err)
	_, err = s.MoveTo(2, 0.5, -1)
	require.NoError(t, err)

	var out bytes.Buffer
	err = watchLoop(context.Background(), &out, s.AbsolutePos, unlimited(), 3, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Contains(t, l, "CYLINDRICAL")
		assert.Contains(t, l, "r=2.000 phi=0.500 z=-1.000")
	}
}

func TestWatchLoop_DeviceErrorIsShown(t *testing.T) {
	c := newSimCube()
	c.errorCode = 12
	s := newSimSession(c)

	var out bytes.Buffer
	require.NoError(t, watchLoop(context.Background(), &out, s.RelativePos, unlimited(), 1, nil))
	assert.Contains(t, out.String(), "(device error 12)")
}

func TestWatchLoop_KeepsPollingAfterTimeouts(t *testing.T) {
	c := newSimCube()
	c.silent = true
	s := newSimSession(c)

	var out bytes.Buffer
	require.NoError(t, watchLoop(context.Background(), &out, s.AbsolutePos, unlimited(), 2, nil))

	assert.Equal(t, 2, strings.Count(out.String(), "!!! "))
	assert.Equal(t, uint64(2), s.Stats().Snapshot().Timeouts)
}

func TestWatchLoop_StopsWhenChannelCloses(t *testing.T) {
	c := newSimCube()
	c.readErr = errors.New("gone")
	s := newSimSession(c)

	var out bytes.Buffer
	err := watchLoop(context.Background(), &out, s.AbsolutePos, unlimited(), 0, nil)
	assert.ErrorIs(t, err, cube.ErrChannelClosed)
}

func TestWatchLoop_Cancelled(t *testing.T) {
	c := newSimCube()
	s := newSimSession(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := watchLoop(ctx, &out, s.AbsolutePos, rate.NewLimiter(1, 1), 0, nil)
	assert.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Zero(t, s.Stats().Snapshot().Commands)
}

// ============================================================================
// Metrics
// ============================================================================

func gather(t *testing.T, m *watchMetrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.registry.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestWatchMetrics_Observe(t *testing.T) {
	c := newSimCube()
	s := newSimSession(c)
	_, err := s.MoveTo(1, 2, 3)
	require.NoError(t, err)

	m := newWatchMetrics(s.Stats())
	var out bytes.Buffer
	require.NoError(t, watchLoop(context.Background(), &out, s.AbsolutePos, unlimited(), 2, m))

	fams := gather(t, m)

	pos := fams["cubelink_cube_position"]
	require.NotNil(t, pos)
	axes := map[string]float64{}
	for _, metric := range pos.GetMetric() {
		axes[labelValue(metric, "axis")] = metric.GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{"a": 1, "b": 2, "c": 3}, axes)

	latency := fams["cubelink_session_transaction_duration_seconds"]
	require.NotNil(t, latency)
	assert.Equal(t, uint64(2), latency.GetMetric()[0].GetHistogram().GetSampleCount())

	cmds := fams["cubelink_session_commands_total"]
	require.NotNil(t, cmds)
	assert.Equal(t, float64(3), cmds.GetMetric()[0].GetCounter().GetValue())
}

func TestStatsCollector_ErrorKinds(t *testing.T) {
	c := newSimCube()
	c.silent = true
	s := newSimSession(c)
	_, err := s.Status()
	require.ErrorIs(t, err, cube.ErrTimeout)

	fams := gather(t, newWatchMetrics(s.Stats()))

	transport := fams["cubelink_session_transport_errors_total"]
	require.NotNil(t, transport)
	byKind := map[string]float64{}
	for _, metric := range transport.GetMetric() {
		byKind[labelValue(metric, "kind")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, float64(1), byKind["timeout"])
	assert.Equal(t, float64(0), byKind["write_failed"])
	assert.Equal(t, float64(0), byKind["channel_closed"])

	frames := fams["cubelink_session_frame_errors_total"]
	require.NotNil(t, frames)
	assert.Len(t, frames.GetMetric(), 3)
}
