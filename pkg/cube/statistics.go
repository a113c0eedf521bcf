// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Statistics tracks transaction outcomes for one session.
// It is safe to read from another goroutine while the session runs.
type Statistics struct {
	mu sync.Mutex
	s  StatsSnapshot
}

// StatsSnapshot is a point-in-time copy of the counters
type StatsSnapshot struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Commands         uint64
	Replies          uint64
	ValidReplies     uint64
	DeviceFaults     uint64
	WrongReplyType   uint64
	NoData           uint64
	LostData         uint64
	Timeouts         uint64
	WriteFailures    uint64
	ChannelClosed    uint64
	DecodeErrors     uint64
	Desyncs          uint64
	AnomalousReplies uint64

	// Rates (calculated)
	CommandRate float64 // commands/sec
	ErrorRate   float64 // errors/sec
}

// FrameErrors is the total of all frame-level failures
func (s StatsSnapshot) FrameErrors() uint64 {
	return s.WrongReplyType + s.NoData + s.LostData
}

// TransportErrors is the total of all channel-level failures
func (s StatsSnapshot) TransportErrors() uint64 {
	return s.Timeouts + s.WriteFailures + s.ChannelClosed
}

// Errors is the total of failed transactions
func (s StatsSnapshot) Errors() uint64 {
	return s.FrameErrors() + s.TransportErrors() + s.DecodeErrors + s.Desyncs
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{s: StatsSnapshot{StartTime: now, LastUpdateTime: now}}
}

// RecordCommand counts a command written to the channel
func (st *Statistics) RecordCommand() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Commands++
	st.s.LastUpdateTime = time.Now()
}

// RecordReply counts a decoded reply and its anomalies
func (st *Statistics) RecordReply(r *Reply, anomalies []ValidationError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.s.Replies++
	if r.Status.Error != 0 {
		st.s.DeviceFaults++
	}
	if len(anomalies) > 0 {
		st.s.AnomalousReplies++
	} else if r.Status.Error == 0 {
		st.s.ValidReplies++
	}
	st.s.LastUpdateTime = time.Now()
}

// RecordError counts a failed transaction by error kind
func (st *Statistics) RecordError(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	var fe *FrameError
	var te *TransportError
	switch {
	case errors.As(err, &fe):
		switch fe.Kind {
		case FrameWrongReplyType:
			st.s.WrongReplyType++
		case FrameNoData:
			st.s.NoData++
		case FrameLostData:
			st.s.LostData++
		}
	case errors.As(err, &te):
		switch te.Kind {
		case TransportTimeout:
			st.s.Timeouts++
		case TransportWriteFailed:
			st.s.WriteFailures++
		case TransportChannelClosed:
			st.s.ChannelClosed++
		}
	case errors.Is(err, ErrDesync):
		st.s.Desyncs++
	default:
		// Reply decode failures (CBOR, missing status)
		st.s.DecodeErrors++
	}
	st.s.LastUpdateTime = time.Now()
}

// Snapshot returns a copy of the counters with rates calculated
func (st *Statistics) Snapshot() StatsSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := st.s
	elapsed := time.Since(snap.StartTime).Seconds()
	if elapsed > 0 {
		snap.CommandRate = float64(snap.Commands) / elapsed
		snap.ErrorRate = float64(snap.Errors()) / elapsed
	}
	return snap
}

// String returns a formatted statistics summary
func (st *Statistics) String() string {
	s := st.Snapshot()

	var validPercent float64
	if s.Commands > 0 {
		validPercent = float64(s.ValidReplies) * 100.0 / float64(s.Commands)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Commands:        %8d\n", s.Commands)
	result += fmt.Sprintf("Replies:         %8d\n", s.Replies)
	result += fmt.Sprintf("Valid Replies:   %8d (%.1f%%)\n", s.ValidReplies, validPercent)

	if s.DeviceFaults > 0 {
		result += fmt.Sprintf("Device Faults:   %8d\n", s.DeviceFaults)
	}
	if n := s.FrameErrors(); n > 0 {
		result += fmt.Sprintf("Frame Errors:    %8d\n", n)
		if s.WrongReplyType > 0 {
			result += fmt.Sprintf("  Wrong Reply:      %5d\n", s.WrongReplyType)
		}
		if s.NoData > 0 {
			result += fmt.Sprintf("  No Data:          %5d\n", s.NoData)
		}
		if s.LostData > 0 {
			result += fmt.Sprintf("  Lost Data:        %5d\n", s.LostData)
		}
	}
	if n := s.TransportErrors(); n > 0 {
		result += fmt.Sprintf("Transport Errors:%8d\n", n)
		if s.Timeouts > 0 {
			result += fmt.Sprintf("  Timeouts:         %5d\n", s.Timeouts)
		}
		if s.WriteFailures > 0 {
			result += fmt.Sprintf("  Write Failures:   %5d\n", s.WriteFailures)
		}
		if s.ChannelClosed > 0 {
			result += fmt.Sprintf("  Channel Closed:   %5d\n", s.ChannelClosed)
		}
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if s.Desyncs > 0 {
		result += fmt.Sprintf("Desyncs:         %8d\n", s.Desyncs)
	}
	if s.AnomalousReplies > 0 {
		result += fmt.Sprintf("Anomalous:       %8d\n", s.AnomalousReplies)
	}

	result += fmt.Sprintf("Command Rate:    %8.1f cmds/sec\n", s.CommandRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (st *Statistics) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	st.s = StatsSnapshot{StartTime: now, LastUpdateTime: now}
}
