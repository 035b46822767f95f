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

package reader18

import (
	"fmt"
)

// InventoryCommand builds a plain inventory round (0x01).
func InventoryCommand(address byte) []byte {
	return mustBuild(address, CmdInventory, nil)
}

// InventorySingleCommand builds a single-tag inventory (0x0F).
func InventorySingleCommand(address byte) []byte {
	return mustBuild(address, CmdInventorySingle, nil)
}

// GetReaderInfoCommand queries firmware, region and power (0x21).
func GetReaderInfoCommand(address byte) []byte {
	return mustBuild(address, CmdGetReaderInfo, nil)
}

// SetOutputPowerCommand sets the RF output power, 0..MaxPower.
func SetOutputPowerCommand(address, power byte) []byte {
	return mustBuild(address, CmdSetOutputPower, []byte{power})
}

// SetScanTimeCommand sets the inventory duration in 100ms units.
func SetScanTimeCommand(address, value byte) []byte {
	return mustBuild(address, CmdSetScanTime, []byte{value})
}

// SetRegionCommand selects a frequency band and channel range (0x22).
func SetRegionCommand(address byte, region Region) []byte {
	maxFre, minFre := region.encode()
	return mustBuild(address, CmdSetRegion, []byte{maxFre, minFre})
}

// WriteDataParams is the payload of a write data command.
type WriteDataParams struct {
	// Data is the payload, a whole number of words.
	Data []byte
	// EPC selects the target tag by (a prefix of) its EPC; empty writes to
	// any tag in the field.
	EPC      []byte
	Password [4]byte
	Mem      byte
	WordPtr  byte
	// MaskAddr and MaskLen restrict the EPC match to a byte window of EPC.
	MaskAddr byte
	MaskLen  byte
}

// WriteDataCommand builds a write data command (0x03).
// Payload: WNum(1) ENum(1) EPC(ENum words) Mem(1) WordPtr(1)
// Wdt(WNum words) Pwd(4) MaskAdr(1) MaskLen(1)
func WriteDataCommand(address byte, p WriteDataParams) ([]byte, error) {
	if len(p.Data) == 0 || len(p.Data)%2 != 0 {
		return nil, fmt.Errorf("write data must be whole words, got %d bytes", len(p.Data))
	}
	if len(p.EPC)%2 != 0 {
		return nil, fmt.Errorf("selection EPC must be whole words, got %d bytes", len(p.EPC))
	}

	payload := make([]byte, 0, 10+len(p.EPC)+len(p.Data))
	payload = append(payload, byte(len(p.Data)/2), byte(len(p.EPC)/2))
	payload = append(payload, p.EPC...)
	payload = append(payload, p.Mem, p.WordPtr)
	payload = append(payload, p.Data...)
	payload = append(payload, p.Password[:]...)
	payload = append(payload, p.MaskAddr, p.MaskLen)
	return BuildCommand(address, CmdWriteData, payload)
}

func mustBuild(address, command byte, payload []byte) []byte {
	packet, err := BuildCommand(address, command, payload)
	if err != nil {
		panic(err)
	}
	return packet
}
