// go-uhf
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-uhf.
//
// go-uhf is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-uhf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-uhf; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package uart drives UHFReader18-protocol readers over a serial port.
package uart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/internal/lock"
	"github.com/ZaparooProject/go-uhf/internal/reader18"
	"github.com/ZaparooProject/go-uhf/internal/transport"
)

// Reader is a uhf.Reader on a serial port.
type Reader struct {
	port      Port
	lock      *lock.File
	logger    *slog.Logger
	tags      chan uhf.TagObservation
	invCancel context.CancelFunc
	invDone   chan struct{}
	portName  string
	filter    uhf.SelectFilter
	info      reader18.ReaderInfo
	cfg       Config
	mu        sync.Mutex
	ioMu      sync.Mutex
}

var _ uhf.Reader = (*Reader)(nil)

// New returns an uninitialized reader for portName.
func New(portName string, opts ...Option) (*Reader, error) {
	r := &Reader{
		portName: portName,
		cfg:      DefaultConfig(),
		filter:   uhf.ClearFilter(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.cfg.BufferSize <= 0 {
		r.cfg.BufferSize = DefaultConfig().BufferSize
	}
	r.tags = make(chan uhf.TagObservation, r.cfg.BufferSize)
	r.logger = r.cfg.Logger.With("port", portName)
	return r, nil
}

// Opener returns a uhf.Opener creating readers for portName.
func Opener(portName string, opts ...Option) uhf.Opener {
	return func() (uhf.Reader, error) {
		return New(portName, opts...)
	}
}

// PortName returns the serial device path.
func (r *Reader) PortName() string {
	return r.portName
}

// Info returns the reader information read during Init.
func (r *Reader) Info() reader18.ReaderInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info
}

// Init opens the port and probes the reader.
func (r *Reader) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.port != nil {
		return nil
	}

	var held *lock.File
	if r.cfg.Lock {
		var err error
		held, err = lock.Acquire(lock.PathFor(r.portName))
		if err != nil {
			return uhf.NewTransportError("lock", r.portName, err, uhf.ErrorTypePermanent)
		}
	}

	port, err := r.cfg.Opener(r.portName, r.cfg.BaudRate)
	if err != nil {
		_ = held.Release()
		return err
	}
	if err := port.SetReadTimeout(r.cfg.ReadTimeout); err != nil {
		_ = port.Close()
		_ = held.Release()
		return uhf.NewTransportError("configure", r.portName, err, uhf.ErrorTypePermanent)
	}
	r.port = port
	r.lock = held

	info, err := r.readInfo(ctx)
	if err != nil {
		r.closeLocked()
		return fmt.Errorf("probe reader: %w", err)
	}
	r.info = info

	if r.cfg.ScanTime > 0 {
		frame, err := r.exchange(ctx, reader18.SetScanTimeCommand(r.cfg.Address, r.cfg.ScanTime), reader18.CmdSetScanTime)
		if err == nil {
			err = r.checkStatus("set scan time", frame, uhf.ErrCommunicationFailed)
		}
		if err != nil {
			r.logger.Warn("could not set scan time, keeping reader default", "error", err)
		}
	}

	r.logger.Debug("reader ready",
		"version", fmt.Sprintf("%04X", info.Version),
		"power", info.Power,
		"band", info.Region.Band)
	return nil
}

// Release stops inventory, closes the port and drops the device lock.
func (r *Reader) Release() error {
	stopErr := r.StopInventory()

	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(stopErr, r.closeLocked())
}

func (r *Reader) closeLocked() error {
	var closeErr error
	if r.port != nil {
		closeErr = r.port.Close()
		r.port = nil
	}
	lockErr := r.lock.Release()
	r.lock = nil
	return errors.Join(closeErr, lockErr)
}

func (r *Reader) readInfo(ctx context.Context) (reader18.ReaderInfo, error) {
	frame, err := r.exchange(ctx, reader18.GetReaderInfoCommand(r.cfg.Address), reader18.CmdGetReaderInfo)
	if err != nil {
		return reader18.ReaderInfo{}, err
	}
	info, err := reader18.ParseReaderInfo(frame)
	if err != nil {
		return reader18.ReaderInfo{}, uhf.NewTransportError("reader info", r.portName,
			fmt.Errorf("%w: %w", uhf.ErrFrameCorrupted, err), uhf.ErrorTypePermanent)
	}
	return info, nil
}

// exchange sends one command and returns its final response frame.
func (r *Reader) exchange(ctx context.Context, packet []byte, want byte) (reader18.Frame, error) {
	frames, err := r.exchangeAll(ctx, packet, want)
	if err != nil {
		return reader18.Frame{}, err
	}
	return frames[len(frames)-1], nil
}

// exchangeAll sends one command and collects every response frame for it.
// Inventory answers may span several frames.
func (r *Reader) exchangeAll(ctx context.Context, packet []byte, want byte) ([]reader18.Frame, error) {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()

	return transport.WithRetry(ctx, transport.RetryConfig{
		Description: fmt.Sprintf("command 0x%02X", want),
		Port:        r.portName,
		MaxRetries:  r.cfg.MaxRetries,
		RetryDelay:  r.cfg.RetryDelay,
	}, func() ([]reader18.Frame, bool, error) {
		frames, err := r.roundTrip(ctx, packet, want)
		if err != nil {
			if ctx.Err() == nil && uhf.IsRetryable(err) {
				uhf.Debugf("retrying command 0x%02X on %s: %v", want, r.portName, err)
				return nil, true, nil
			}
			return nil, false, err
		}
		if frames[len(frames)-1].Status == reader18.StatusCRCError {
			uhf.Debugf("reader reported CRC error for command 0x%02X", want)
			return nil, true, nil
		}
		return frames, false, nil
	})
}

func (r *Reader) roundTrip(ctx context.Context, packet []byte, want byte) ([]reader18.Frame, error) {
	port := r.port
	if port == nil {
		return nil, uhf.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := port.ResetInputBuffer(); err != nil {
		uhf.Debugf("reset input buffer on %s: %v", r.portName, err)
	}
	if _, err := port.Write(packet); err != nil {
		return nil, uhf.NewTransportError("write", r.portName,
			fmt.Errorf("%w: %w", uhf.ErrTransportWrite, err), uhf.ErrorTypeTransient)
	}

	var (
		pending []byte
		matched []reader18.Frame
	)
	buf := make([]byte, 256)
	deadline := time.Now().Add(r.cfg.Timeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := port.Read(buf)
		if err != nil {
			return nil, uhf.NewTransportError("read", r.portName,
				fmt.Errorf("%w: %w", uhf.ErrTransportRead, err), uhf.ErrorTypeTransient)
		}
		if n == 0 {
			continue
		}

		var frames []reader18.Frame
		frames, pending = reader18.ParseFrames(append(pending, buf[:n]...))
		for _, frame := range frames {
			if frame.Command != want {
				uhf.Debugf("ignoring frame 0x%02X while waiting for 0x%02X", frame.Command, want)
				continue
			}
			matched = append(matched, frame)
			if frame.Status != reader18.StatusInventoryMore {
				return matched, nil
			}
		}
	}

	return nil, uhf.NewTimeoutError(fmt.Sprintf("command 0x%02X", want), r.portName)
}

func (r *Reader) checkStatus(op string, frame reader18.Frame, sentinel error) error {
	if frame.Status == reader18.StatusSuccess {
		return nil
	}
	return uhf.NewTransportError(op, r.portName,
		fmt.Errorf("%w: reader status 0x%02X", sentinel, frame.Status), uhf.ErrorTypePermanent)
}
