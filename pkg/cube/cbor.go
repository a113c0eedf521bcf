// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Wire layout of a reply. Every optional field is a pointer so that presence
// survives decoding; the variant is chosen once in DecodeReply.
type wireReply struct {
	Status     *wireStatus `cbor:"0,keyasint,omitempty"`
	Data       *wireData   `cbor:"1,keyasint,omitempty"`
	GpioStatus *bool       `cbor:"2,keyasint,omitempty"`
	ParamValue *int32      `cbor:"3,keyasint,omitempty"`
}

type wireStatus struct {
	ID    uint32         `cbor:"0,keyasint"`
	Error int32          `cbor:"1,keyasint"`
	Mode  CoordinateMode `cbor:"2,keyasint"`
	Pos   Position       `cbor:"3,keyasint"`
}

type wireData struct {
	Length uint32 `cbor:"0,keyasint"`
	Data   []byte `cbor:"1,keyasint"`
}

// EncodeCommand serializes a command to its CBOR wire form
func EncodeCommand(c *Command) ([]byte, error) {
	data, err := cbor.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}
	return data, nil
}

// DecodeCommand parses a CBOR command (device side)
func DecodeCommand(data []byte) (*Command, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("command: %w", ErrEmptyPayload)
	}
	var c Command
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}
	return &c, nil
}

// EncodeReply serializes a reply to its CBOR wire form (device side)
func EncodeReply(r *Reply) ([]byte, error) {
	w := wireReply{
		Status: &wireStatus{
			ID:    r.Status.ID,
			Error: r.Status.Error,
			Mode:  r.Status.Mode,
			Pos:   r.Status.Position,
		},
	}

	switch p := r.Payload.(type) {
	case DataPayload:
		w.Data = &wireData{Length: p.Length, Data: p.Bytes}
	case GpioPayload:
		v := bool(p)
		w.GpioStatus = &v
	case ParameterPayload:
		v := int32(p)
		w.ParamValue = &v
	case NoPayload, nil:
	default:
		return nil, fmt.Errorf("unsupported payload %T", r.Payload)
	}

	data, err := cbor.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reply: %w", err)
	}
	return data, nil
}

// DecodeReply parses a CBOR reply.
//
// The status is mandatory. At most one payload field is expected; if several are
// present the first in the order data, gpio, parameter wins.
func DecodeReply(data []byte) (*Reply, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("reply: %w", ErrEmptyPayload)
	}

	var w wireReply
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	if w.Status == nil {
		return nil, ErrMissingStatus
	}

	r := &Reply{
		Status: ReplyStatus{
			ID:       w.Status.ID,
			Error:    w.Status.Error,
			Mode:     w.Status.Mode,
			Position: w.Status.Pos,
		},
		Payload:   NoPayload{},
		Timestamp: time.Now(),
	}

	switch {
	case w.Data != nil:
		r.Payload = DataPayload{Length: w.Data.Length, Bytes: w.Data.Data}
	case w.GpioStatus != nil:
		r.Payload = GpioPayload(*w.GpioStatus)
	case w.ParamValue != nil:
		r.Payload = ParameterPayload(*w.ParamValue)
	}

	return r, nil
}
