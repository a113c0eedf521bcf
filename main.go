// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Cubelink - Cube Serial Protocol Client
//
// A CLI tool for driving a Cube positioning device over its serial protocol.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/cubelink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
