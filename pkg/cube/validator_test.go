// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Validator Tests
// ============================================================

func TestValidateReply(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name  string
		reply Reply
		sent  uint32
		want  []AnomalyType
	}{
		{
			name:  "clean",
			reply: Reply{Status: ReplyStatus{ID: 5}, Payload: NoPayload{}},
			sent:  5,
		},
		{
			name:  "id mismatch",
			reply: Reply{Status: ReplyStatus{ID: 4}, Payload: NoPayload{}},
			sent:  5,
			want:  []AnomalyType{AnomalyIDMismatch},
		},
		{
			name:  "invalid mode",
			reply: Reply{Status: ReplyStatus{ID: 5, Mode: 7}, Payload: NoPayload{}},
			sent:  5,
			want:  []AnomalyType{AnomalyInvalidMode},
		},
		{
			name:  "non-finite position",
			reply: Reply{Status: ReplyStatus{ID: 5, Position: Position{A: nan, C: inf}}, Payload: NoPayload{}},
			sent:  5,
			want:  []AnomalyType{AnomalyInvalidPosition, AnomalyInvalidPosition},
		},
		{
			name:  "data length over buffer",
			reply: Reply{Status: ReplyStatus{ID: 5}, Payload: DataPayload{Length: 65, Bytes: make([]byte, 65)}},
			sent:  5,
			want:  []AnomalyType{AnomalyLengthMismatch},
		},
		{
			name:  "data short",
			reply: Reply{Status: ReplyStatus{ID: 5}, Payload: DataPayload{Length: 4, Bytes: []byte{1}}},
			sent:  5,
			want:  []AnomalyType{AnomalyLengthMismatch},
		},
		{
			name:  "data padded",
			reply: Reply{Status: ReplyStatus{ID: 5}, Payload: DataPayload{Length: 1, Bytes: make([]byte, 64)}},
			sent:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateReply(&tt.reply, tt.sent)
			types := make([]AnomalyType, 0, len(got))
			for _, v := range got {
				types = append(types, v.Type)
				assert.NotEmpty(t, v.Message)
			}
			if len(tt.want) == 0 {
				assert.Empty(t, types)
				return
			}
			assert.Equal(t, tt.want, types)
		})
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_RecordError(t *testing.T) {
	st := NewStatistics()
	st.RecordError(&FrameError{Kind: FrameWrongReplyType})
	st.RecordError(&FrameError{Kind: FrameNoData})
	st.RecordError(&FrameError{Kind: FrameLostData})
	st.RecordError(&TransportError{Kind: TransportTimeout})
	st.RecordError(&TransportError{Kind: TransportWriteFailed})
	st.RecordError(&TransportError{Kind: TransportChannelClosed})
	st.RecordError(&DesyncError{Want: 1, Got: 2})
	st.RecordError(errors.New("bad cbor"))

	s := st.Snapshot()
	assert.Equal(t, uint64(3), s.FrameErrors())
	assert.Equal(t, uint64(3), s.TransportErrors())
	assert.Equal(t, uint64(1), s.Desyncs)
	assert.Equal(t, uint64(1), s.DecodeErrors)
	assert.Equal(t, uint64(8), s.Errors())
}

func TestStatistics_RecordReply(t *testing.T) {
	st := NewStatistics()
	st.RecordCommand()
	st.RecordReply(&Reply{}, nil)
	st.RecordCommand()
	st.RecordReply(&Reply{Status: ReplyStatus{Error: 2}}, nil)
	st.RecordCommand()
	st.RecordReply(&Reply{}, []ValidationError{{Type: AnomalyIDMismatch}})

	s := st.Snapshot()
	assert.Equal(t, uint64(3), s.Commands)
	assert.Equal(t, uint64(3), s.Replies)
	assert.Equal(t, uint64(1), s.ValidReplies)
	assert.Equal(t, uint64(1), s.DeviceFaults)
	assert.Equal(t, uint64(1), s.AnomalousReplies)
}

func TestStatistics_StringAndReset(t *testing.T) {
	st := NewStatistics()
	st.RecordCommand()
	st.RecordError(&TransportError{Kind: TransportTimeout})

	out := st.String()
	assert.True(t, strings.HasPrefix(out, "=== Statistics"))
	assert.Contains(t, out, "Timeouts:")

	time.Sleep(time.Millisecond)
	before := st.Snapshot().StartTime
	st.Reset()
	s := st.Snapshot()
	assert.Zero(t, s.Commands)
	assert.Zero(t, s.Errors())
	assert.True(t, s.StartTime.After(before))
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatInstruction(t *testing.T) {
	assert.Equal(t, "MOVE_TO", InstMoveTo.String())
	assert.Equal(t, "GET_PARAMETER", FormatInstruction(InstGetParameter))
	assert.Equal(t, "UNKNOWN", Instruction(99).String())
}

func TestFormatReply(t *testing.T) {
	r := &Reply{
		Status:    ReplyStatus{ID: 12, Error: 3, Mode: ModeCylindrical, Position: Position{A: 1, B: 0.5, C: 2}},
		Payload:   DataPayload{Length: 2, Bytes: []byte{0xAB, 0xCD, 0x00}},
		Timestamp: time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC),
	}

	out := FormatReply(r)
	assert.Contains(t, out, "[12:30:00.000] id=12 mode=CYLINDRICAL r=1.000 phi=0.500 z=2.000")
	assert.Contains(t, out, "Device error: 3")
	assert.Contains(t, out, "Data (2 bytes): AB CD\n")
}

func TestFormatPayload(t *testing.T) {
	assert.Equal(t, "", FormatPayload(NoPayload{}))
	assert.Equal(t, "  GPIO: HIGH\n", FormatPayload(GpioPayload(true)))
	assert.Equal(t, "  Parameter: -7\n", FormatPayload(ParameterPayload(-7)))
}

func TestFormatCommand(t *testing.T) {
	cmd, err := NewI2cTransfer(7, 9, 1, 0x0C, []byte{0x4F})
	require.NoError(t, err)
	assert.Equal(t, "I2C_TRANSFER id=7 addr=0x0C rx=9 tx=1 data=4F", FormatCommand(cmd))
	assert.Equal(t, "MOVE_TO id=1 pos=(1.000, 2.000, 3.000)", FormatCommand(NewMoveTo(1, 1, 2, 3)))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "(none)", FormatBytes(nil))
	out := FormatBytes(make([]byte, 17))
	assert.Equal(t, 1, strings.Count(out, "\n"))
}
