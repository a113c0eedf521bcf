// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, d *StreamDecoder, data []byte) ([]*Frame, []error) {
	t.Helper()
	var frames []*Frame
	var errs []error
	for _, b := range data {
		f, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
	return frames, errs
}

func TestStreamDecoder_BothDirections(t *testing.T) {
	cmd, err := EncodeFrame(FrameTypeCommand, []byte{0xA1, 0x00})
	require.NoError(t, err)
	reply, err := EncodeFrame(FrameTypeReply, []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	empty, err := EncodeFrame(FrameTypeReply, nil)
	require.NoError(t, err)

	var line []byte
	line = append(line, 0x00, 0x42)
	line = append(line, cmd...)
	line = append(line, 0x13)
	line = append(line, reply...)
	line = append(line, empty...)

	frames, errs := feed(t, NewStreamDecoder(), line)
	require.Empty(t, errs)
	require.Len(t, frames, 3)

	assert.Equal(t, byte(FrameTypeCommand), frames[0].Type)
	assert.Equal(t, []byte{0xA1, 0x00}, frames[0].Payload)
	assert.Equal(t, byte(FrameTypeReply), frames[1].Type)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, frames[1].Payload)
	assert.Empty(t, frames[2].Payload)
}

func TestStreamDecoder_UnknownTypeResyncs(t *testing.T) {
	good, err := EncodeFrame(FrameTypeReply, []byte{0x09})
	require.NoError(t, err)

	line := append([]byte{0x55, 0x55, 0x55, 0x07, 0x01}, good...)
	frames, errs := feed(t, NewStreamDecoder(), line)

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrWrongReplyType)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{0x09}, frames[0].Payload)
}

func TestStreamDecoder_PartialFrameWaits(t *testing.T) {
	frame, err := EncodeFrame(FrameTypeReply, []byte{1, 2, 3, 4})
	require.NoError(t, err)

	d := NewStreamDecoder()
	frames, errs := feed(t, d, frame[:6])
	assert.Empty(t, frames)
	assert.Empty(t, errs)

	frames, errs = feed(t, d, frame[6:])
	assert.Empty(t, errs)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, frames[0].Payload)
}
