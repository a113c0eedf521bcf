// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import "time"

// Position is a point in the active coordinate mode.
// For cartesian mode A, B, C are X, Y, Z.
type Position struct {
	A float32 `cbor:"0,keyasint"`
	B float32 `cbor:"1,keyasint"`
	C float32 `cbor:"2,keyasint"`
}

// SPITransfer describes one SPI exchange. Data is always BufferSize bytes on the wire.
type SPITransfer struct {
	CS     uint32 `cbor:"0,keyasint"`
	Mode   uint32 `cbor:"1,keyasint"`
	Length uint32 `cbor:"2,keyasint"`
	Data   []byte `cbor:"3,keyasint"`
}

// I2CTransfer describes one I2C write/read. Data is always BufferSize bytes on the wire.
type I2CTransfer struct {
	RxLength uint32 `cbor:"0,keyasint"`
	TxLength uint32 `cbor:"1,keyasint"`
	Address  uint32 `cbor:"2,keyasint"`
	Data     []byte `cbor:"3,keyasint"`
}

// GPIO addresses one pin. Value is the level, or the direction for SetGpioMode.
type GPIO struct {
	Index uint32 `cbor:"0,keyasint"`
	Value bool   `cbor:"1,keyasint"`
}

// Parameter is a device parameter slot
type Parameter struct {
	ID    uint32 `cbor:"0,keyasint"`
	Value int32  `cbor:"1,keyasint"`
}

// Command is one host → Cube request.
// Only the fields the instruction needs are set; the rest stay nil and are not encoded.
type Command struct {
	ID    uint32          `cbor:"0,keyasint"`
	Inst  Instruction     `cbor:"1,keyasint"`
	Pos   *Position       `cbor:"2,keyasint,omitempty"`
	Mode  *CoordinateMode `cbor:"3,keyasint,omitempty"`
	SPI   *SPITransfer    `cbor:"4,keyasint,omitempty"`
	I2C   *I2CTransfer    `cbor:"5,keyasint,omitempty"`
	GPIO  *GPIO           `cbor:"6,keyasint,omitempty"`
	Param *Parameter      `cbor:"7,keyasint,omitempty"`
}

// ReplyStatus is present in every reply
type ReplyStatus struct {
	ID       uint32
	Error    int32
	Mode     CoordinateMode
	Position Position
}

// PayloadKind tags the variant carried by a reply
type PayloadKind int

// Payload kinds
const (
	PayloadNone PayloadKind = iota
	PayloadData
	PayloadGpio
	PayloadParameter
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadNone:
		return "none"
	case PayloadData:
		return "data"
	case PayloadGpio:
		return "gpio"
	case PayloadParameter:
		return "parameter"
	}
	return "unknown"
}

// Payload is the optional data a reply carries beyond its status.
// The concrete type is one of NoPayload, DataPayload, GpioPayload or ParameterPayload.
type Payload interface {
	Kind() PayloadKind
}

// NoPayload is a reply with status only
type NoPayload struct{}

// DataPayload carries bytes read from an SPI or I2C transfer
type DataPayload struct {
	Length uint32
	Bytes  []byte
}

// GpioPayload is a pin level read by GetGpio
type GpioPayload bool

// ParameterPayload is a value read by GetParameter
type ParameterPayload int32

func (NoPayload) Kind() PayloadKind { return PayloadNone }
func (DataPayload) Kind() PayloadKind { return PayloadData }
func (GpioPayload) Kind() PayloadKind { return PayloadGpio }
func (ParameterPayload) Kind() PayloadKind { return PayloadParameter }

// Reply is one decoded Cube → host response
type Reply struct {
	Status    ReplyStatus
	Payload   Payload
	Timestamp time.Time
}

// DeviceErr returns a DeviceError when the Cube reported a fault, nil otherwise.
// A reply can be transport-successful and still carry a device fault.
func (r *Reply) DeviceErr() error {
	if r.Status.Error != 0 {
		return &DeviceError{Code: r.Status.Error}
	}
	return nil
}

// Data returns the data payload, if that is the variant carried
func (r *Reply) Data() (DataPayload, bool) {
	d, ok := r.Payload.(DataPayload)
	return d, ok
}

// Gpio returns the GPIO level, if that is the variant carried
func (r *Reply) Gpio() (bool, bool) {
	g, ok := r.Payload.(GpioPayload)
	return bool(g), ok
}

// Parameter returns the parameter value, if that is the variant carried
func (r *Reply) Parameter() (int32, bool) {
	p, ok := r.Payload.(ParameterPayload)
	return int32(p), ok
}
