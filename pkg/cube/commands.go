// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import "fmt"

// Command builder functions create Command structs ready for encoding.
// Each sets only the fields its instruction uses.

// NewSimpleCommand creates a command that carries no arguments
// (status, position queries, zeroing, homing).
func NewSimpleCommand(id uint32, inst Instruction) *Command {
	return &Command{ID: id, Inst: inst}
}

// NewMoveTo creates a MOVE_TO command. Coordinates are in the active mode.
func NewMoveTo(id uint32, a, b, c float32) *Command {
	return &Command{
		ID:   id,
		Inst: InstMoveTo,
		Pos:  &Position{A: a, B: b, C: c},
	}
}

// NewSetCoordinateMode creates a SET_COORDINATE_MODE command
func NewSetCoordinateMode(id uint32, mode CoordinateMode) (*Command, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}
	return &Command{ID: id, Inst: InstSetCoordinateMode, Mode: &mode}, nil
}

// NewSpiTransfer creates an SPI_TRANSFER command.
// data is zero-padded to BufferSize and may not be longer than length.
func NewSpiTransfer(id, cs, mode, length uint32, data []byte) (*Command, error) {
	buf, err := padBuffer(data, length)
	if err != nil {
		return nil, err
	}
	return &Command{
		ID:   id,
		Inst: InstSpiTransfer,
		SPI:  &SPITransfer{CS: cs, Mode: mode, Length: length, Data: buf},
	}, nil
}

// NewI2cTransfer creates an I2C_TRANSFER command.
// The outgoing buffer is padded by txLen, the number of bytes actually written;
// rxLen only tells the Cube how many bytes to read back.
func NewI2cTransfer(id, rxLen, txLen uint32, address uint8, data []byte) (*Command, error) {
	if rxLen > BufferSize {
		return nil, fmt.Errorf("%w: rx length %d", ErrBufferTooLarge, rxLen)
	}
	buf, err := padBuffer(data, txLen)
	if err != nil {
		return nil, err
	}
	return &Command{
		ID:   id,
		Inst: InstI2cTransfer,
		I2C: &I2CTransfer{
			RxLength: rxLen,
			TxLength: txLen,
			Address:  uint32(address),
			Data:     buf,
		},
	}, nil
}

// NewSetGpioMode creates a SET_GPIO_MODE command (true = output)
func NewSetGpioMode(id, index uint32, output bool) *Command {
	return &Command{ID: id, Inst: InstSetGpioMode, GPIO: &GPIO{Index: index, Value: output}}
}

// NewSetGpio creates a SET_GPIO command
func NewSetGpio(id, index uint32, value bool) *Command {
	return &Command{ID: id, Inst: InstSetGpio, GPIO: &GPIO{Index: index, Value: value}}
}

// NewGetGpio creates a GET_GPIO command. The value field is a placeholder the Cube ignores.
func NewGetGpio(id, index uint32) *Command {
	return &Command{ID: id, Inst: InstGetGpio, GPIO: &GPIO{Index: index, Value: false}}
}

// NewSetParameter creates a SET_PARAMETER command
func NewSetParameter(id, param uint32, value int32) *Command {
	return &Command{ID: id, Inst: InstSetParameter, Param: &Parameter{ID: param, Value: value}}
}

// NewGetParameter creates a GET_PARAMETER command
func NewGetParameter(id, param uint32) *Command {
	return &Command{ID: id, Inst: InstGetParameter, Param: &Parameter{ID: param}}
}

// padBuffer copies data, at most n bytes, into a zeroed BufferSize buffer
func padBuffer(data []byte, n uint32) ([]byte, error) {
	if len(data) > BufferSize {
		return nil, fmt.Errorf("%w: %d data bytes", ErrBufferTooLarge, len(data))
	}
	if n > BufferSize {
		return nil, fmt.Errorf("%w: length %d", ErrBufferTooLarge, n)
	}
	if uint32(len(data)) > n {
		return nil, fmt.Errorf("%w: %d data bytes for length %d", ErrDataTooLong, len(data), n)
	}
	buf := make([]byte, BufferSize)
	copy(buf, data)
	return buf, nil
}
