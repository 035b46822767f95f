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

// Package reader18 implements the UHFReader18 serial frame protocol spoken
// by the common CH340/CP210x-based UHF desktop readers.
package reader18

import (
	"errors"
	"fmt"
)

// Command codes.
const (
	CmdInventory       byte = 0x01
	CmdReadData        byte = 0x02
	CmdWriteData       byte = 0x03
	CmdInventorySingle byte = 0x0F
	CmdGetReaderInfo   byte = 0x21
	CmdSetRegion       byte = 0x22
	CmdSetScanTime     byte = 0x25
	CmdSetOutputPower  byte = 0x2F
)

// Status codes.
const (
	StatusSuccess        byte = 0x00
	StatusNoTag          byte = 0x01
	StatusInventoryMore  byte = 0x03
	StatusTagError       byte = 0xFC
	StatusNoTagOrTimeout byte = 0xFB
	StatusAntennaError   byte = 0xF8
	StatusCmdError       byte = 0xFE
	StatusCRCError       byte = 0xFF

	DefaultReaderAddress   byte = 0x00
	BroadcastReaderAddress byte = 0xFF
)

// MaxPower is the highest output power setting accepted by the firmware.
const MaxPower = 30

// minFrameLen is Len + Adr + Cmd + Status + CRC(2).
const minFrameLen = 6

var (
	ErrNotFrameType   = errors.New("unexpected response command")
	ErrShortPayload   = errors.New("response payload too short")
	ErrTruncated      = errors.New("inventory payload truncated")
	ErrPayloadTooLong = errors.New("command payload too long")
)

// Frame is one decoded response frame.
type Frame struct {
	Data    []byte
	Length  byte
	Address byte
	Command byte
	Status  byte
}

// BuildCommand builds one wire packet.
// Packet format: Len(1) + Adr(1) + Cmd(1) + Data(n) + CRC_L(1) + CRC_H(1)
func BuildCommand(address, command byte, payload []byte) ([]byte, error) {
	if len(payload) > 0xFF-4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}
	length := byte(len(payload) + 4)
	packet := make([]byte, 0, int(length)+1)
	packet = append(packet, length, address, command)
	packet = append(packet, payload...)

	crc := CRC16(packet)
	packet = append(packet, byte(crc&0xFF), byte(crc>>8))
	return packet, nil
}

// VerifyPacket checks length and CRC of a full packet.
func VerifyPacket(packet []byte) bool {
	if len(packet) < minFrameLen-1 {
		return false
	}
	if int(packet[0])+1 != len(packet) {
		return false
	}
	crc := CRC16(packet[:len(packet)-2])
	return byte(crc&0xFF) == packet[len(packet)-2] && byte(crc>>8) == packet[len(packet)-1]
}

// ParseFrames decodes as many valid response frames as possible from a
// byte stream. Bytes that cannot start a valid frame are skipped; an
// incomplete trailing frame is returned as remaining.
func ParseFrames(stream []byte) (frames []Frame, remaining []byte) {
	buf := stream
	for len(buf) >= minFrameLen {
		total := int(buf[0]) + 1
		if total < minFrameLen {
			buf = buf[1:]
			continue
		}
		if total > len(buf) {
			break
		}

		raw := buf[:total]
		if !VerifyPacket(raw) {
			buf = buf[1:]
			continue
		}

		data := make([]byte, total-minFrameLen)
		copy(data, raw[4:total-2])
		frames = append(frames, Frame{
			Length:  raw[0],
			Address: raw[1],
			Command: raw[2],
			Status:  raw[3],
			Data:    data,
		})
		buf = buf[total:]
	}

	remaining = make([]byte, len(buf))
	copy(remaining, buf)
	return frames, remaining
}

// CRC16 computes CRC-16/MCRF4XX (poly 0x8408 reflected, init 0xFFFF).
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
