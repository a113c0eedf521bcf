// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package cube provides a Go implementation of the Cube serial protocol.
//
// The Cube is a positioning device driven over a half-duplex serial link. The host
// sends one framed command and blocks until the device answers with one framed reply.
// This package provides frame encoding/decoding, the CBOR message model, a
// transactional Session and a text command interpreter built on top of it.
package cube

import "time"

// Protocol framing bytes
const (
	SyncByte  = 0x55
	SyncCount = 3
)

// Frame types
const (
	FrameTypeCommand = 0x01 // host → Cube
	FrameTypeReply   = 0x02 // Cube → host, the only type the decoder accepts
)

// Size limits
const (
	HeaderSize     = SyncCount + 2 // sync bytes + type + length
	MaxPayloadSize = 255
	BufferSize     = 64 // fixed wire width of SPI/I2C data buffers
)

// Session defaults
const (
	DefaultTimeout = 2 * time.Second
	DefaultIDSeed  = 200
	readChunkSize  = 300
)

// Instruction selects the operation a Command asks the Cube to perform.
type Instruction uint32

// Instruction values
const (
	InstStatus Instruction = iota
	InstGetAbsolutePosition
	InstGetRelativePosition
	InstSetZero
	InstResetZero
	InstHome
	InstMoveTo
	InstSetCoordinateMode
	InstSpiTransfer
	InstI2cTransfer
	InstSetGpioMode
	InstSetGpio
	InstGetGpio
	InstSetParameter
	InstGetParameter
)

// CoordinateMode is the coordinate system positions are expressed in.
type CoordinateMode uint32

// Coordinate mode values
const (
	ModeCartesian CoordinateMode = iota
	ModeCylindrical
	ModeSpherical
)

// Valid reports whether m is a known coordinate mode.
func (m CoordinateMode) Valid() bool {
	return m <= ModeSpherical
}

// ParseCoordinateMode maps a mode name onto its CoordinateMode.
func ParseCoordinateMode(name string) (CoordinateMode, bool) {
	switch name {
	case "cartesian":
		return ModeCartesian, true
	case "cylindrical":
		return ModeCylindrical, true
	case "spherical":
		return ModeSpherical, true
	}
	return 0, false
}
