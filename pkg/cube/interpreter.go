// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Operations is the set of Cube transactions the interpreter can dispatch to.
// *Session satisfies it.
type Operations interface {
	Status() (*Reply, error)
	AbsolutePos() (*Reply, error)
	RelativePos() (*Reply, error)
	SetZero() (*Reply, error)
	ResetZero() (*Reply, error)
	Home() (*Reply, error)
	MoveTo(a, b, c float32) (*Reply, error)
	SetCoordinateMode(mode CoordinateMode) (*Reply, error)
	SpiTransfer(cs, mode, length uint32, data []byte) (*Reply, error)
	I2cTransfer(rxLen, txLen uint32, addr uint8, data []byte) (*Reply, error)
	SetGpioMode(index uint32, output bool) (*Reply, error)
	SetGpio(index uint32, value bool) (*Reply, error)
	GetGpio(index uint32) (*Reply, error)
	SetParameter(param uint32, value int32) (*Reply, error)
	GetParameter(param uint32) (*Reply, error)
}

var _ Operations = (*Session)(nil)

// commandSpec is one dispatch table entry
type commandSpec struct {
	args  int
	usage string
	run   func(ops Operations, args []string) (*Reply, error)
}

// Interpreter turns console lines into Cube transactions
type Interpreter struct {
	ops Operations
	out io.Writer
}

// NewInterpreter creates an interpreter; help text is written to out
func NewInterpreter(ops Operations, out io.Writer) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	return &Interpreter{ops: ops, out: out}
}

// Interpret parses and runs one line.
//
// Malformed lines fail with a *CommandError and never reach the Cube. help
// returns (nil, nil) after writing the command listing.
func (in *Interpreter) Interpret(line string) (*Reply, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, &CommandError{Kind: CommandUnknown}
	}
	name, args := fields[0], fields[1:]

	if name == "help" {
		_, err := io.WriteString(in.out, HelpText())
		return nil, err
	}

	spec, ok := commandTable[name]
	if !ok {
		return nil, &CommandError{Kind: CommandUnknown, Command: name}
	}
	if len(args) != spec.args {
		return nil, &CommandError{
			Kind:    CommandWrongArgCount,
			Command: name,
			Detail:  "usage: " + spec.usage,
		}
	}
	return spec.run(in.ops, args)
}

// Commands returns the mnemonics the interpreter accepts, sorted
func Commands() []string {
	names := make([]string, 0, len(commandTable)+1)
	for name := range commandTable {
		names = append(names, name)
	}
	names = append(names, "help")
	sort.Strings(names)
	return names
}

// HelpText returns the command listing with usage lines
func HelpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range Commands() {
		usage := "help"
		if spec, ok := commandTable[name]; ok {
			usage = spec.usage
		}
		fmt.Fprintf(&b, "  %s\n", usage)
	}
	return b.String()
}

func noArgs(op func(Operations) (*Reply, error)) func(Operations, []string) (*Reply, error) {
	return func(ops Operations, _ []string) (*Reply, error) {
		return op(ops)
	}
}

var commandTable = map[string]commandSpec{
	"status":       {0, "status", noArgs(Operations.Status)},
	"absolute_pos": {0, "absolute_pos", noArgs(Operations.AbsolutePos)},
	"relative_pos": {0, "relative_pos", noArgs(Operations.RelativePos)},
	"set_zero":     {0, "set_zero", noArgs(Operations.SetZero)},
	"reset_zero":   {0, "reset_zero", noArgs(Operations.ResetZero)},
	"home":         {0, "home", noArgs(Operations.Home)},

	"get_parameter": {1, "get_parameter <id>", func(ops Operations, args []string) (*Reply, error) {
		id, err := parseUint("get_parameter", args[0])
		if err != nil {
			return nil, err
		}
		return ops.GetParameter(id)
	}},
	"set_parameter": {2, "set_parameter <id> <value>", func(ops Operations, args []string) (*Reply, error) {
		id, err := parseUint("set_parameter", args[0])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return nil, parseFailure("set_parameter", args[1], err)
		}
		return ops.SetParameter(id, int32(v))
	}},

	"set_coordinate_mode": {1, "set_coordinate_mode <cartesian|cylindrical|spherical>", func(ops Operations, args []string) (*Reply, error) {
		mode, ok := ParseCoordinateMode(args[0])
		if !ok {
			return nil, &CommandError{Kind: CommandUnknownMode, Command: "set_coordinate_mode", Detail: args[0]}
		}
		return ops.SetCoordinateMode(mode)
	}},

	"move": {3, "move <a> <b> <c>", func(ops Operations, args []string) (*Reply, error) {
		var pos [3]float32
		for i, a := range args {
			f, err := strconv.ParseFloat(a, 32)
			if err != nil {
				return nil, parseFailure("move", a, err)
			}
			pos[i] = float32(f)
		}
		return ops.MoveTo(pos[0], pos[1], pos[2])
	}},

	"get_gpio": {1, "get_gpio <index>", func(ops Operations, args []string) (*Reply, error) {
		idx, err := parseUint("get_gpio", args[0])
		if err != nil {
			return nil, err
		}
		return ops.GetGpio(idx)
	}},
	"set_gpio": {2, "set_gpio <index> <value>", func(ops Operations, args []string) (*Reply, error) {
		idx, v, err := parseIndexBool("set_gpio", args)
		if err != nil {
			return nil, err
		}
		return ops.SetGpio(idx, v)
	}},
	"set_gpio_mode": {2, "set_gpio_mode <index> <output>", func(ops Operations, args []string) (*Reply, error) {
		idx, v, err := parseIndexBool("set_gpio_mode", args)
		if err != nil {
			return nil, err
		}
		return ops.SetGpioMode(idx, v)
	}},

	"i2c_transfer": {4, "i2c_transfer <rx_len> <tx_len> <addr:hex> <data:hex>", func(ops Operations, args []string) (*Reply, error) {
		const name = "i2c_transfer"
		rx, err := parseUint(name, args[0])
		if err != nil {
			return nil, err
		}
		tx, err := parseUint(name, args[1])
		if err != nil {
			return nil, err
		}
		if err := checkLength(name, "rx_len", rx); err != nil {
			return nil, err
		}
		if err := checkLength(name, "tx_len", tx); err != nil {
			return nil, err
		}
		addr, err := parseHex(name, args[2])
		if err != nil {
			return nil, err
		}
		if len(addr) != 1 {
			return nil, &CommandError{Kind: CommandParseFailure, Command: name, Detail: "address must be one hex byte"}
		}
		data, err := parseTransferData(name, args[3], tx)
		if err != nil {
			return nil, err
		}
		return ops.I2cTransfer(rx, tx, addr[0], data)
	}},
	"spi_transfer": {4, "spi_transfer <cs> <mode> <length> <data:hex>", func(ops Operations, args []string) (*Reply, error) {
		const name = "spi_transfer"
		var nums [3]uint32
		for i := range nums {
			v, err := parseUint(name, args[i])
			if err != nil {
				return nil, err
			}
			nums[i] = v
		}
		if err := checkLength(name, "length", nums[2]); err != nil {
			return nil, err
		}
		data, err := parseTransferData(name, args[3], nums[2])
		if err != nil {
			return nil, err
		}
		return ops.SpiTransfer(nums[0], nums[1], nums[2], data)
	}},
}

func parseFailure(cmd, arg string, err error) *CommandError {
	detail := strconv.Quote(arg)
	if err != nil {
		detail += ": " + err.Error()
	}
	return &CommandError{Kind: CommandParseFailure, Command: cmd, Detail: detail}
}

func parseUint(cmd, arg string) (uint32, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, parseFailure(cmd, arg, err)
	}
	return uint32(v), nil
}

func parseIndexBool(cmd string, args []string) (uint32, bool, error) {
	idx, err := parseUint(cmd, args[0])
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseBool(args[1])
	if err != nil {
		return 0, false, parseFailure(cmd, args[1], err)
	}
	return idx, v, nil
}

// parseHex accepts a contiguous hex string with an optional 0x prefix
func parseHex(cmd, arg string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, parseFailure(cmd, arg, err)
	}
	return b, nil
}

// checkLength rejects a transfer length the Cube buffer cannot hold
func checkLength(cmd, field string, n uint32) error {
	if n > BufferSize {
		return &CommandError{
			Kind:    CommandParseFailure,
			Command: cmd,
			Detail:  fmt.Sprintf("%s %d exceeds %d bytes", field, n, BufferSize),
		}
	}
	return nil
}

// parseTransferData parses hex data that must fit in n transferred bytes
func parseTransferData(cmd, arg string, n uint32) ([]byte, error) {
	data, err := parseHex(cmd, arg)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) > n {
		return nil, &CommandError{
			Kind:    CommandParseFailure,
			Command: cmd,
			Detail:  fmt.Sprintf("%d data bytes for length %d", len(data), n),
		}
	}
	return data, nil
}
