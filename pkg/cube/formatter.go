// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"fmt"
	"strings"
)

// FormatInstruction returns the human-readable name for an instruction
func FormatInstruction(inst Instruction) string {
	switch inst {
	case InstStatus:
		return "STATUS"
	case InstGetAbsolutePosition:
		return "GET_ABS_POS"
	case InstGetRelativePosition:
		return "GET_REL_POS"
	case InstSetZero:
		return "SET_ZERO_POS"
	case InstResetZero:
		return "RESET_ZERO_POS"
	case InstHome:
		return "HOME"
	case InstMoveTo:
		return "MOVE_TO"
	case InstSetCoordinateMode:
		return "SET_COORDINATE_MODE"
	case InstSpiTransfer:
		return "SPI_TRANSFER"
	case InstI2cTransfer:
		return "I2C_TRANSFER"
	case InstSetGpioMode:
		return "SET_GPIO_MODE"
	case InstSetGpio:
		return "SET_GPIO"
	case InstGetGpio:
		return "GET_GPIO"
	case InstSetParameter:
		return "SET_PARAMETER"
	case InstGetParameter:
		return "GET_PARAMETER"
	default:
		return "UNKNOWN"
	}
}

func (i Instruction) String() string {
	return FormatInstruction(i)
}

// FormatMode returns the human-readable name for a coordinate mode
func FormatMode(m CoordinateMode) string {
	switch m {
	case ModeCartesian:
		return "CARTESIAN"
	case ModeCylindrical:
		return "CYLINDRICAL"
	case ModeSpherical:
		return "SPHERICAL"
	default:
		return "UNKNOWN"
	}
}

func (m CoordinateMode) String() string {
	return FormatMode(m)
}

// FormatPosition formats a position with axis names for the given mode
func FormatPosition(m CoordinateMode, p Position) string {
	switch m {
	case ModeCylindrical:
		return fmt.Sprintf("r=%.3f phi=%.3f z=%.3f", p.A, p.B, p.C)
	case ModeSpherical:
		return fmt.Sprintf("r=%.3f theta=%.3f phi=%.3f", p.A, p.B, p.C)
	default:
		return fmt.Sprintf("x=%.3f y=%.3f z=%.3f", p.A, p.B, p.C)
	}
}

// FormatCommand formats a command into a one-line summary
func FormatCommand(c *Command) string {
	result := fmt.Sprintf("%s id=%d", FormatInstruction(c.Inst), c.ID)

	switch {
	case c.Pos != nil:
		result += fmt.Sprintf(" pos=(%.3f, %.3f, %.3f)", c.Pos.A, c.Pos.B, c.Pos.C)
	case c.Mode != nil:
		result += " mode=" + FormatMode(*c.Mode)
	case c.SPI != nil:
		result += fmt.Sprintf(" cs=%d mode=%d len=%d data=%s",
			c.SPI.CS, c.SPI.Mode, c.SPI.Length, FormatBytes(c.SPI.Data[:min(int(c.SPI.Length), len(c.SPI.Data))]))
	case c.I2C != nil:
		result += fmt.Sprintf(" addr=0x%02X rx=%d tx=%d data=%s",
			c.I2C.Address, c.I2C.RxLength, c.I2C.TxLength, FormatBytes(c.I2C.Data[:min(int(c.I2C.TxLength), len(c.I2C.Data))]))
	case c.GPIO != nil:
		result += fmt.Sprintf(" gpio=%d value=%t", c.GPIO.Index, c.GPIO.Value)
	case c.Param != nil:
		result += fmt.Sprintf(" param=%d value=%d", c.Param.ID, c.Param.Value)
	}

	return result
}

// FormatReply formats a reply into a human-readable string
func FormatReply(r *Reply) string {
	timestamp := r.Timestamp.Format("15:04:05.000")
	st := r.Status

	result := fmt.Sprintf("[%s] id=%d mode=%s %s\n", timestamp, st.ID, FormatMode(st.Mode), FormatPosition(st.Mode, st.Position))
	if st.Error != 0 {
		result += fmt.Sprintf("  Device error: %d\n", st.Error)
	}
	if p := FormatPayload(r.Payload); p != "" {
		result += p
	}
	return result
}

// FormatPayload formats a reply payload; empty for NoPayload
func FormatPayload(p Payload) string {
	switch v := p.(type) {
	case DataPayload:
		n := min(int(v.Length), len(v.Bytes))
		return fmt.Sprintf("  Data (%d bytes): %s\n", v.Length, FormatBytes(v.Bytes[:n]))
	case GpioPayload:
		level := "LOW"
		if v {
			level = "HIGH"
		}
		return fmt.Sprintf("  GPIO: %s\n", level)
	case ParameterPayload:
		return fmt.Sprintf("  Parameter: %d\n", int32(v))
	}
	return ""
}

// FormatBytes renders bytes as space-separated hex, 16 per line
func FormatBytes(b []byte) string {
	if len(b) == 0 {
		return "(none)"
	}
	var s strings.Builder
	for i, v := range b {
		if i > 0 {
			if i%16 == 0 {
				s.WriteString("\n    ")
			} else {
				s.WriteByte(' ')
			}
		}
		fmt.Fprintf(&s, "%02X", v)
	}
	return s.String()
}
