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

package uart

import (
	"fmt"
	"log/slog"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
)

// Config holds the tunables of a serial reader.
type Config struct {
	Logger            *slog.Logger
	Opener            PortOpener
	BaudRate          int
	Timeout           time.Duration
	ReadTimeout       time.Duration
	InventoryInterval time.Duration
	RetryDelay        time.Duration
	MaxRetries        int
	BufferSize        int
	ScanTime          byte
	Address           byte
	Lock              bool
}

// DefaultConfig returns settings that suit the common 57600 baud desktop
// readers.
func DefaultConfig() Config {
	return Config{
		Logger:            slog.Default(),
		Opener:            OpenSerial,
		BaudRate:          57600,
		Timeout:           time.Second,
		ReadTimeout:       50 * time.Millisecond,
		InventoryInterval: 20 * time.Millisecond,
		RetryDelay:        20 * time.Millisecond,
		MaxRetries:        2,
		BufferSize:        256,
		ScanTime:          3,
		Address:           0xFF,
		Lock:              true,
	}
}

// Option configures a Reader.
type Option func(*Reader) error

// WithBaudRate sets the serial line speed.
func WithBaudRate(baud int) Option {
	return func(r *Reader) error {
		if baud <= 0 {
			return fmt.Errorf("%w: baud rate %d", uhf.ErrInvalidParameter, baud)
		}
		r.cfg.BaudRate = baud
		return nil
	}
}

// WithTimeout sets how long one command waits for its response.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Reader) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout %v", uhf.ErrInvalidParameter, timeout)
		}
		r.cfg.Timeout = timeout
		return nil
	}
}

// WithMaxRetries sets how many times a failed exchange is repeated.
func WithMaxRetries(n int) Option {
	return func(r *Reader) error {
		if n < 0 {
			return fmt.Errorf("%w: max retries %d", uhf.ErrInvalidParameter, n)
		}
		r.cfg.MaxRetries = n
		return nil
	}
}

// WithAddress sets the reader bus address. 0xFF reaches any reader.
func WithAddress(addr byte) Option {
	return func(r *Reader) error {
		r.cfg.Address = addr
		return nil
	}
}

// WithScanTime sets the firmware inventory window in 100ms units; zero
// keeps the reader's setting.
func WithScanTime(units byte) Option {
	return func(r *Reader) error {
		r.cfg.ScanTime = units
		return nil
	}
}

// WithInventoryInterval sets the pause between inventory rounds.
func WithInventoryInterval(d time.Duration) Option {
	return func(r *Reader) error {
		r.cfg.InventoryInterval = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) error {
		if logger != nil {
			r.cfg.Logger = logger
		}
		return nil
	}
}

// WithPortOpener replaces the serial port factory.
func WithPortOpener(opener PortOpener) Option {
	return func(r *Reader) error {
		r.cfg.Opener = opener
		return nil
	}
}

// WithDeviceLock enables or disables the inter-process device lock.
func WithDeviceLock(enabled bool) Option {
	return func(r *Reader) error {
		r.cfg.Lock = enabled
		return nil
	}
}
