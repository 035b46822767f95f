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
	"sync"
	"time"

	"github.com/ZaparooProject/go-uhf/internal/reader18"
)

type handler func(data []byte) [][]byte

// fakeDevice is a Port that answers reader18 commands like a reader.
type fakeDevice struct {
	handlers map[byte]handler
	readable []byte
	written  [][]byte
	region   [2]byte
	mu       sync.Mutex
	power    byte
	closed   bool
}

func newFakeDevice() *fakeDevice {
	us := reader18.SetRegionCommand(0, reader18.Region{Band: reader18.BandUS, MaxChannel: 49})
	d := &fakeDevice{
		power:  26,
		region: [2]byte{us[3], us[4]},
	}
	d.handlers = map[byte]handler{
		reader18.CmdGetReaderInfo: func([]byte) [][]byte {
			return [][]byte{response(reader18.CmdGetReaderInfo, reader18.StatusSuccess,
				0x03, 0x01, 0x09, 0x03, d.region[0], d.region[1], d.power, 0x0A)}
		},
		reader18.CmdSetOutputPower: func(data []byte) [][]byte {
			d.power = data[0]
			return [][]byte{response(reader18.CmdSetOutputPower, reader18.StatusSuccess)}
		},
		reader18.CmdSetRegion: func(data []byte) [][]byte {
			d.region = [2]byte{data[0], data[1]}
			return [][]byte{response(reader18.CmdSetRegion, reader18.StatusSuccess)}
		},
		reader18.CmdSetScanTime: func([]byte) [][]byte {
			return [][]byte{response(reader18.CmdSetScanTime, reader18.StatusSuccess)}
		},
		reader18.CmdInventory: func([]byte) [][]byte {
			return [][]byte{response(reader18.CmdInventory, reader18.StatusSuccess, 0x00)}
		},
		reader18.CmdInventorySingle: func([]byte) [][]byte {
			return [][]byte{response(reader18.CmdInventorySingle, reader18.StatusNoTagOrTimeout)}
		},
		reader18.CmdWriteData: func([]byte) [][]byte {
			return [][]byte{response(reader18.CmdWriteData, reader18.StatusSuccess)}
		},
	}
	return d
}

func response(cmd, status byte, data ...byte) []byte {
	packet, err := reader18.BuildCommand(0x00, cmd, append([]byte{status}, data...))
	if err != nil {
		panic(err)
	}
	return packet
}

func (d *fakeDevice) handle(cmd byte, h handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h == nil {
		delete(d.handlers, cmd)
		return
	}
	d.handlers[cmd] = h
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.New("port closed")
	}
	packet := append([]byte(nil), p...)
	d.written = append(d.written, packet)

	if !reader18.VerifyPacket(packet) {
		return len(p), nil
	}
	if h, ok := d.handlers[packet[2]]; ok {
		for _, resp := range h(packet[3 : len(packet)-2]) {
			d.readable = append(d.readable, resp...)
		}
	}
	return len(p), nil
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	d.mu.Lock()
	if len(d.readable) > 0 {
		n := copy(p, d.readable)
		d.readable = d.readable[n:]
		d.mu.Unlock()
		return n, nil
	}
	closed := d.closed
	d.mu.Unlock()

	if closed {
		return 0, errors.New("port closed")
	}
	time.Sleep(2 * time.Millisecond)
	return 0, nil
}

func (*fakeDevice) SetReadTimeout(time.Duration) error { return nil }

func (*fakeDevice) ResetInputBuffer() error { return nil }

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// lastCommand returns the payload of the last packet written with cmd.
func (d *fakeDevice) lastCommand(cmd byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.written) - 1; i >= 0; i-- {
		if p := d.written[i]; len(p) > 4 && p[2] == cmd {
			return p[3 : len(p)-2]
		}
	}
	return nil
}

func (d *fakeDevice) count(cmd byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, p := range d.written {
		if len(p) > 2 && p[2] == cmd {
			n++
		}
	}
	return n
}

func (d *fakeDevice) opener() PortOpener {
	return func(string, int) (Port, error) {
		return d, nil
	}
}
