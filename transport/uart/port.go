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
	"errors"
	"fmt"
	"io"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
	"go.bug.st/serial"
)

// Port is the part of a serial port the reader uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// PortOpener opens a serial port at the given speed.
type PortOpener func(name string, baud int) (Port, error)

// OpenSerial opens name as an 8N1 serial port.
func OpenSerial(name string, baud int) (Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, classifyOpenError(name, err)
	}
	return port, nil
}

func classifyOpenError(name string, err error) error {
	code, ok := portErrorCode(err)
	if ok {
		switch code {
		case serial.PortNotFound, serial.InvalidSerialPort:
			return uhf.NewTransportError("open", name, fmt.Errorf("%w: %w", uhf.ErrDeviceNotFound, err), uhf.ErrorTypePermanent)
		case serial.PortBusy:
			return uhf.NewTransportError("open", name, fmt.Errorf("%w: %w", uhf.ErrDeviceBusy, err), uhf.ErrorTypeTransient)
		default:
		}
	}
	return uhf.NewTransportError("open", name, err, uhf.ErrorTypePermanent)
}

// serial returns PortError both by value and by pointer depending on the
// platform.
func portErrorCode(err error) (serial.PortErrorCode, bool) {
	var ptr *serial.PortError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code(), true
	}
	var val serial.PortError
	if errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}
