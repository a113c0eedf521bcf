// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Channel is the byte link to one Cube.
//
// Read must return within a bounded read timeout, with (0, nil) when nothing
// arrived; serial ports opened with a read timeout behave this way. A Read that
// blocks forever stalls the transaction past its deadline.
type Channel interface {
	io.Reader
	io.Writer
	io.Closer
}

// Session performs request/reply transactions with one Cube.
//
// The link is half-duplex, so only one transaction is in flight at a time.
// Each command carries the next id from a counter owned by the session and
// seeded by the caller; the first command uses seed+1.
type Session struct {
	mu      sync.Mutex
	conn    Channel
	nextID  uint32
	lastID  atomic.Uint32 // readable while a transaction is in flight
	timeout time.Duration
	strict  bool
	log     *zap.Logger
	stats   *Statistics
}

// Option configures a Session
type Option func(*Session)

// WithTimeout bounds each transaction from write to complete reply
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithStrictIDs rejects replies whose status id differs from the command id
func WithStrictIDs(strict bool) Option {
	return func(s *Session) {
		s.strict = strict
	}
}

// WithLogger sets the logger used for transaction tracing
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStatistics records transaction outcomes into st
func WithStatistics(st *Statistics) Option {
	return func(s *Session) {
		if st != nil {
			s.stats = st
		}
	}
}

// NewSession takes ownership of conn until Close
func NewSession(conn Channel, idSeed uint32, opts ...Option) *Session {
	s := &Session{
		conn:    conn,
		nextID:  idSeed,
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
		stats:   NewStatistics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastID.Store(idSeed)
	return s
}

// Close releases the channel. Later operations fail with ErrChannelClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// LastID returns the id of the most recent command (the seed before any).
// It does not wait for an in-flight transaction.
func (s *Session) LastID() uint32 {
	return s.lastID.Load()
}

// Stats returns the session's statistics tracker
func (s *Session) Stats() *Statistics {
	return s.stats
}

// Status requests the Cube status
func (s *Session) Status() (*Reply, error) {
	return s.simple(InstStatus)
}

// AbsolutePos requests the position relative to home
func (s *Session) AbsolutePos() (*Reply, error) {
	return s.simple(InstGetAbsolutePosition)
}

// RelativePos requests the position relative to the user zero
func (s *Session) RelativePos() (*Reply, error) {
	return s.simple(InstGetRelativePosition)
}

// SetZero makes the current position the user zero
func (s *Session) SetZero() (*Reply, error) {
	return s.simple(InstSetZero)
}

// ResetZero moves the user zero back to home
func (s *Session) ResetZero() (*Reply, error) {
	return s.simple(InstResetZero)
}

// Home runs the homing sequence
func (s *Session) Home() (*Reply, error) {
	return s.simple(InstHome)
}

// MoveTo moves to a coordinate in the active mode
func (s *Session) MoveTo(a, b, c float32) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewMoveTo(id, a, b, c), nil
	})
}

// SetCoordinateMode selects the coordinate system
func (s *Session) SetCoordinateMode(mode CoordinateMode) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewSetCoordinateMode(id, mode)
	})
}

// SpiTransfer exchanges length bytes on chip select cs
func (s *Session) SpiTransfer(cs, mode, length uint32, data []byte) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewSpiTransfer(id, cs, mode, length, data)
	})
}

// I2cTransfer writes txLen bytes of data to addr, then reads rxLen bytes back
func (s *Session) I2cTransfer(rxLen, txLen uint32, addr uint8, data []byte) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewI2cTransfer(id, rxLen, txLen, addr, data)
	})
}

// SetGpioMode sets a pin direction (true = output)
func (s *Session) SetGpioMode(index uint32, output bool) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewSetGpioMode(id, index, output), nil
	})
}

// SetGpio drives a pin
func (s *Session) SetGpio(index uint32, value bool) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewSetGpio(id, index, value), nil
	})
}

// GetGpio reads a pin; the level is returned as a GpioPayload
func (s *Session) GetGpio(index uint32) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewGetGpio(id, index), nil
	})
}

// SetParameter writes a device parameter
func (s *Session) SetParameter(param uint32, value int32) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewSetParameter(id, param, value), nil
	})
}

// GetParameter reads a device parameter; the value is returned as a ParameterPayload
func (s *Session) GetParameter(param uint32) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewGetParameter(id, param), nil
	})
}

func (s *Session) simple(inst Instruction) (*Reply, error) {
	return s.do(func(id uint32) (*Command, error) {
		return NewSimpleCommand(id, inst), nil
	})
}

// do allocates an id, builds the command and runs one transaction
func (s *Session) do(build func(id uint32) (*Command, error)) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, &TransportError{Kind: TransportChannelClosed}
	}

	// A command that cannot be built does not consume an id
	cmd, err := build(s.nextID + 1)
	if err != nil {
		return nil, err
	}
	s.nextID++
	s.lastID.Store(s.nextID)
	return s.transact(cmd)
}

func (s *Session) transact(cmd *Command) (*Reply, error) {
	log := s.log.With(zap.Uint32("id", cmd.ID), zap.Stringer("inst", cmd.Inst))

	payload, err := EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}
	frame, err := EncodeFrame(FrameTypeCommand, payload)
	if err != nil {
		return nil, err
	}

	s.stats.RecordCommand()
	log.Debug("tx", zap.String("frame", hex.EncodeToString(frame)))

	if err := writeAll(s.conn, frame); err != nil {
		werr := &TransportError{Kind: TransportWriteFailed, Err: err}
		s.stats.RecordError(werr)
		log.Warn("write failed", zap.Error(err))
		return nil, werr
	}

	body, raw, err := s.receive()
	if len(raw) > 0 {
		log.Debug("rx", zap.String("bytes", hex.EncodeToString(raw)))
	}
	if err != nil {
		s.stats.RecordError(err)
		log.Warn("transaction failed", zap.Error(err))
		return nil, err
	}

	reply, err := DecodeReply(body)
	if err != nil {
		s.stats.RecordError(err)
		log.Warn("reply decode failed", zap.Error(err))
		return nil, err
	}

	if s.strict && reply.Status.ID != cmd.ID {
		err := &DesyncError{Want: cmd.ID, Got: reply.Status.ID}
		s.stats.RecordError(err)
		log.Warn("reply out of sequence", zap.Error(err))
		return nil, err
	}

	anomalies := ValidateReply(reply, cmd.ID)
	for _, a := range anomalies {
		log.Debug("reply anomaly", zap.String("anomaly", a.Message))
	}
	s.stats.RecordReply(reply, anomalies)

	return reply, nil
}

// receive accumulates bytes until they decode to a reply frame, a terminal frame
// error occurs or the transaction deadline passes. Returns the payload and the
// raw bytes read.
func (s *Session) receive() ([]byte, []byte, error) {
	deadline := time.Now().Add(s.timeout)
	chunk := make([]byte, readChunkSize)
	var acc []byte

	for {
		n, err := s.conn.Read(chunk)
		if n > 0 {
			acc = append(acc, chunk[:n]...)
			body, derr := DecodeFrame(acc)
			if derr == nil {
				// A reply always carries its status
				if len(body) == 0 {
					return nil, acc, &FrameError{Kind: FrameLostData}
				}
				return body, acc, nil
			}
			// LostData only means the frame is not complete yet
			if !errors.Is(derr, ErrLostData) {
				return nil, acc, derr
			}
		}
		if err != nil {
			return nil, acc, &TransportError{Kind: TransportChannelClosed, Err: err}
		}
		if !time.Now().Before(deadline) {
			if len(acc) > 0 {
				return nil, acc, &FrameError{Kind: FrameLostData}
			}
			return nil, acc, &TransportError{
				Kind: TransportTimeout,
				Err:  fmt.Errorf("no reply within %v", s.timeout),
			}
		}
	}
}

func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}
