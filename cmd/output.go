// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/cubelink/pkg/cube"
)

// resultClass groups a transaction outcome for display and exit codes
type resultClass int

const (
	resultOK resultClass = iota
	resultNone
	resultCommandError
	resultDeviceError
	resultCommsError
)

func classifyResult(reply *cube.Reply, err error) resultClass {
	var ce *cube.CommandError
	switch {
	case errors.As(err, &ce):
		return resultCommandError
	case err != nil:
		return resultCommsError
	case reply == nil:
		return resultNone
	case reply.Status.Error != 0:
		return resultDeviceError
	}
	return resultOK
}

// printResult renders one interpreter or session result. Device errors are
// shown apart from comms errors since the reply itself is still valid.
func printResult(w io.Writer, reply *cube.Reply, err error) resultClass {
	class := classifyResult(reply, err)
	switch class {
	case resultCommandError:
		fmt.Fprintf(w, "!!! %v\n", err)
	case resultCommsError:
		fmt.Fprintf(w, "!!! Comms error: %v\n", err)
	case resultDeviceError:
		fmt.Fprintf(w, "!!! Cube error: %d\n", reply.Status.Error)
		fmt.Fprint(w, cube.FormatReply(reply))
	case resultOK:
		fmt.Fprint(w, cube.FormatReply(reply))
	}
	return class
}
