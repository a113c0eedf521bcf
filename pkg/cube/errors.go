// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"errors"
	"fmt"
)

// Caller errors
var (
	ErrPayloadTooLarge = errors.New("cube: payload too large for one frame")
	ErrBufferTooLarge  = errors.New("cube: transfer buffer exceeds 64 bytes")
	ErrInvalidMode     = errors.New("cube: invalid coordinate mode")
	ErrMissingStatus   = errors.New("cube: reply has no status")
	ErrDataTooLong     = errors.New("cube: data longer than transfer length")
	ErrEmptyPayload    = errors.New("cube: empty payload")
)

// FrameErrorKind classifies a malformed or desynced inbound byte stream
type FrameErrorKind int

// Frame error kinds
const (
	FrameWrongReplyType FrameErrorKind = iota + 1
	FrameNoData
	FrameLostData
)

func (k FrameErrorKind) String() string {
	switch k {
	case FrameWrongReplyType:
		return "wrong reply"
	case FrameNoData:
		return "no data"
	case FrameLostData:
		return "lost data"
	}
	return fmt.Sprintf("frame error %d", int(k))
}

// FrameError reports a byte stream that did not yield a reply frame.
// The whole transaction may be retried by the caller; nothing is retried internally.
type FrameError struct {
	Kind FrameErrorKind
	Type byte // offending frame type, set for FrameWrongReplyType
}

// Error implements error
func (e *FrameError) Error() string {
	if e.Kind == FrameWrongReplyType && e.Type != 0 {
		return fmt.Sprintf("cube: wrong reply (type 0x%02X)", e.Type)
	}
	return "cube: " + e.Kind.String()
}

// Is matches any FrameError of the same kind
func (e *FrameError) Is(target error) bool {
	t, ok := target.(*FrameError)
	return ok && t.Kind == e.Kind
}

// Frame error sentinels for errors.Is
var (
	ErrWrongReplyType = &FrameError{Kind: FrameWrongReplyType}
	ErrNoData         = &FrameError{Kind: FrameNoData}
	ErrLostData       = &FrameError{Kind: FrameLostData}
)

// TransportErrorKind classifies a channel-level failure
type TransportErrorKind int

// Transport error kinds
const (
	TransportChannelClosed TransportErrorKind = iota + 1
	TransportWriteFailed
	TransportTimeout
)

func (k TransportErrorKind) String() string {
	switch k {
	case TransportChannelClosed:
		return "channel closed"
	case TransportWriteFailed:
		return "write failed"
	case TransportTimeout:
		return "timeout"
	}
	return fmt.Sprintf("transport error %d", int(k))
}

// TransportError wraps an I/O failure on the session's channel
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

// Error implements error
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cube: %s: %v", e.Kind, e.Err)
	}
	return "cube: " + e.Kind.String()
}

// Unwrap returns the underlying I/O error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches any TransportError of the same kind
func (e *TransportError) Is(target error) bool {
	t, ok := target.(*TransportError)
	return ok && t.Kind == e.Kind
}

// Transport error sentinels for errors.Is
var (
	ErrChannelClosed = &TransportError{Kind: TransportChannelClosed}
	ErrWriteFailed   = &TransportError{Kind: TransportWriteFailed}
	ErrTimeout       = &TransportError{Kind: TransportTimeout}
)

// DeviceError is a non-zero status.error carried by a well-formed reply.
// It never fails a transaction; see Reply.DeviceErr.
type DeviceError struct {
	Code int32
}

// Error implements error
func (e *DeviceError) Error() string {
	return fmt.Sprintf("cube: device error %d", e.Code)
}

// DesyncError reports a reply correlated to a different command id.
// Only returned by sessions created WithStrictIDs.
type DesyncError struct {
	Want uint32
	Got  uint32
}

// Error implements error
func (e *DesyncError) Error() string {
	return fmt.Sprintf("cube: reply id %d does not match command id %d", e.Got, e.Want)
}

// Is matches any DesyncError
func (e *DesyncError) Is(target error) bool {
	_, ok := target.(*DesyncError)
	return ok
}

// ErrDesync matches every DesyncError with errors.Is
var ErrDesync = &DesyncError{}

// CommandErrorKind classifies a rejected interpreter line
type CommandErrorKind int

// Command error kinds
const (
	CommandUnknown CommandErrorKind = iota + 1
	CommandUnknownMode
	CommandWrongArgCount
	CommandParseFailure
)

func (k CommandErrorKind) String() string {
	switch k {
	case CommandUnknown:
		return "unknown command"
	case CommandUnknownMode:
		return "unknown mode"
	case CommandWrongArgCount:
		return "wrong argument count"
	case CommandParseFailure:
		return "invalid argument"
	}
	return fmt.Sprintf("command error %d", int(k))
}

// CommandError is raised by the interpreter before anything reaches the session
type CommandError struct {
	Kind    CommandErrorKind
	Command string
	Detail  string
}

// Error implements error
func (e *CommandError) Error() string {
	msg := e.Kind.String()
	if e.Command != "" {
		msg = e.Command + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Is matches any CommandError of the same kind
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	return ok && t.Kind == e.Kind
}

// Command error sentinels for errors.Is
var (
	ErrUnknownCommand = &CommandError{Kind: CommandUnknown}
	ErrUnknownMode    = &CommandError{Kind: CommandUnknownMode}
	ErrWrongArgCount  = &CommandError{Kind: CommandWrongArgCount}
	ErrParseFailure   = &CommandError{Kind: CommandParseFailure}
)
