// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import "fmt"

// Decoder states (internal)
const (
	stateSeekSync = iota
	stateType
	stateLength
	statePayload
)

// EncodeFrame wraps a payload in a wire frame: three sync bytes, the frame type,
// a one-byte length and the payload verbatim. There is no byte stuffing; payloads
// longer than MaxPayloadSize are a caller error.
func EncodeFrame(frameType byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, HeaderSize+len(payload))
	for i := 0; i < SyncCount; i++ {
		frame = append(frame, SyncByte)
	}
	frame = append(frame, frameType, byte(len(payload)))
	frame = append(frame, payload...)
	return frame, nil
}

// Decoder implements the frame decoder state machine.
//
// It locks on after SyncCount consecutive sync bytes, ignoring any noise before
// them, then expects exactly one frame of the configured type.
type Decoder struct {
	expect    byte
	state     int
	syncCount int
	remaining int
	payload   []byte
}

// NewDecoder creates a decoder for reply frames (host side)
func NewDecoder() *Decoder {
	return newDecoder(FrameTypeReply)
}

// NewCommandDecoder creates a decoder for command frames (device side)
func NewCommandDecoder() *Decoder {
	return newDecoder(FrameTypeCommand)
}

func newDecoder(expect byte) *Decoder {
	return &Decoder{expect: expect, state: stateSeekSync}
}

// Reset returns the decoder to sync search
func (d *Decoder) Reset() {
	d.state = stateSeekSync
	d.syncCount = 0
	d.remaining = 0
	d.payload = nil
}

// Locked reports whether the sync sequence has been seen
func (d *Decoder) Locked() bool {
	return d.state != stateSeekSync
}

// Complete reports whether a whole frame has been read
func (d *Decoder) Complete() bool {
	return d.state == statePayload && d.remaining == 0
}

// DecodeByte advances the state machine by one byte.
// Returns a FrameError for a frame of the wrong type or for a byte arriving after
// the frame is already complete; the decoder is reset in both cases.
func (d *Decoder) DecodeByte(b byte) error {
	switch d.state {
	case stateSeekSync:
		if b != SyncByte {
			d.syncCount = 0
			return nil
		}
		d.syncCount++
		if d.syncCount == SyncCount {
			d.state = stateType
		}
		return nil

	case stateType:
		if b != d.expect {
			d.Reset()
			return &FrameError{Kind: FrameWrongReplyType, Type: b}
		}
		d.state = stateLength
		return nil

	case stateLength:
		d.remaining = int(b)
		d.payload = make([]byte, 0, b)
		d.state = statePayload
		return nil

	case statePayload:
		if d.remaining == 0 {
			d.Reset()
			return &FrameError{Kind: FrameNoData}
		}
		d.payload = append(d.payload, b)
		d.remaining--
		return nil

	default:
		d.Reset()
		return fmt.Errorf("cube: invalid decoder state %d", d.state)
	}
}

// Finish ends the input. Returns the payload if a whole frame was read,
// otherwise a LostData FrameError.
func (d *Decoder) Finish() ([]byte, error) {
	if !d.Complete() {
		return nil, &FrameError{Kind: FrameLostData}
	}
	return d.payload, nil
}

// DecodeFrame extracts the payload of one reply frame from a byte stream prefix.
// Each call starts from scratch; it never panics on truncated or garbage input.
func DecodeFrame(data []byte) ([]byte, error) {
	return decodeAll(NewDecoder(), data)
}

// DecodeCommandFrame is DecodeFrame for command frames, used by device simulators
func DecodeCommandFrame(data []byte) ([]byte, error) {
	return decodeAll(NewCommandDecoder(), data)
}

func decodeAll(d *Decoder, data []byte) ([]byte, error) {
	for _, b := range data {
		if err := d.DecodeByte(b); err != nil {
			return nil, err
		}
	}
	return d.Finish()
}
