// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"sync"
	"time"

	"github.com/Thermoquad/cubelink/pkg/cube"
)

// simCube answers command frames like a Cube holding a position.
// It is a Connection, so a real cube.Session can run over it.
type simCube struct {
	mu      sync.Mutex
	rx      []byte
	pending []byte
	closed  bool

	mode      cube.CoordinateMode
	pos       cube.Position
	errorCode int32
	silent    bool
	readErr   error
	params    map[uint32]int32
}

func newSimCube() *simCube {
	return &simCube{params: make(map[uint32]int32)}
}

func (c *simCube) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rx = append(c.rx, p...)
	body, err := cube.DecodeCommandFrame(c.rx)
	if err != nil {
		return len(p), nil
	}
	c.rx = nil

	cmd, err := cube.DecodeCommand(body)
	if err != nil || c.silent {
		return len(p), nil
	}

	reply := c.handle(cmd)
	payload, err := cube.EncodeReply(reply)
	if err != nil {
		return 0, err
	}
	frame, err := cube.EncodeFrame(cube.FrameTypeReply, payload)
	if err != nil {
		return 0, err
	}
	c.pending = append(c.pending, frame...)
	return len(p), nil
}

func (c *simCube) handle(cmd *cube.Command) *cube.Reply {
	var payload cube.Payload = cube.NoPayload{}

	switch cmd.Inst {
	case cube.InstMoveTo:
		c.pos = *cmd.Pos
	case cube.InstHome, cube.InstResetZero:
		c.pos = cube.Position{}
	case cube.InstSetCoordinateMode:
		c.mode = *cmd.Mode
	case cube.InstSetParameter:
		c.params[cmd.Param.ID] = cmd.Param.Value
	case cube.InstGetParameter:
		payload = cube.ParameterPayload(c.params[cmd.Param.ID])
	case cube.InstGetGpio:
		payload = cube.GpioPayload(true)
	case cube.InstI2cTransfer:
		n := cmd.I2C.RxLength
		payload = cube.DataPayload{Length: n, Bytes: make([]byte, cube.BufferSize)}
	}

	return &cube.Reply{
		Status: cube.ReplyStatus{
			ID:       cmd.ID,
			Error:    c.errorCode,
			Mode:     c.mode,
			Position: c.pos,
		},
		Payload: payload,
	}
}

func (c *simCube) Read(p []byte) (int, error) {
	c.mu.Lock()
	if c.readErr != nil {
		c.mu.Unlock()
		return 0, c.readErr
	}
	if len(c.pending) == 0 {
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	c.mu.Unlock()
	return n, nil
}

func (c *simCube) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func newSimSession(c *simCube, opts ...cube.Option) *cube.Session {
	opts = append([]cube.Option{cube.WithTimeout(50 * time.Millisecond)}, opts...)
	return cube.NewSession(c, cube.DefaultIDSeed, opts...)
}

// take removes and returns the reply bytes queued so far
func (c *simCube) take() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}
