// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

// Frame is one frame seen on the line
type Frame struct {
	Type    byte
	Payload []byte
}

// StreamDecoder splits a continuous byte stream into frames of either type.
//
// Unlike Decoder it never expects the stream to end, so it suits a passive
// monitor on a line shared by host and Cube.
type StreamDecoder struct {
	state     int
	syncCount int
	frameType byte
	remaining int
	payload   []byte
}

// NewStreamDecoder creates a decoder waiting for sync
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{state: stateSeekSync}
}

// Reset returns the decoder to sync search
func (d *StreamDecoder) Reset() {
	d.state = stateSeekSync
	d.syncCount = 0
	d.frameType = 0
	d.remaining = 0
	d.payload = nil
}

// DecodeByte advances the decoder by one byte. It returns a frame when the last
// payload byte arrives, or a FrameError when an unknown frame type follows sync.
func (d *StreamDecoder) DecodeByte(b byte) (*Frame, error) {
	switch d.state {
	case stateSeekSync:
		if b != SyncByte {
			d.syncCount = 0
			return nil, nil
		}
		d.syncCount++
		if d.syncCount == SyncCount {
			d.state = stateType
		}
		return nil, nil

	case stateType:
		if b != FrameTypeCommand && b != FrameTypeReply {
			d.Reset()
			return nil, &FrameError{Kind: FrameWrongReplyType, Type: b}
		}
		d.frameType = b
		d.state = stateLength
		return nil, nil

	case stateLength:
		d.remaining = int(b)
		d.payload = make([]byte, 0, b)
		if d.remaining == 0 {
			return d.emit(), nil
		}
		d.state = statePayload
		return nil, nil

	default:
		d.payload = append(d.payload, b)
		d.remaining--
		if d.remaining == 0 {
			return d.emit(), nil
		}
		return nil, nil
	}
}

func (d *StreamDecoder) emit() *Frame {
	f := &Frame{Type: d.frameType, Payload: d.payload}
	d.Reset()
	return f
}
