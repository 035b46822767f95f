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

// InventoryTag is one tag from an inventory response.
type InventoryTag struct {
	EPC []byte
}

// ParseInventoryTags decodes an inventory (0x01) response.
// Data format: Num(1), repeated [EPCLen(1), EPC(n)].
func ParseInventoryTags(frame Frame) ([]InventoryTag, error) {
	if frame.Command != CmdInventory {
		return nil, fmt.Errorf("%w: 0x%02X", ErrNotFrameType, frame.Command)
	}
	switch frame.Status {
	case StatusSuccess, StatusNoTag, StatusInventoryMore, 0x02, 0x04:
	default:
		return nil, fmt.Errorf("inventory status 0x%02X", frame.Status)
	}
	if len(frame.Data) == 0 {
		return nil, nil
	}

	count := int(frame.Data[0])
	cursor := 1
	tags := make([]InventoryTag, 0, count)
	for i := 0; i < count; i++ {
		if cursor >= len(frame.Data) {
			return nil, fmt.Errorf("%w at tag %d", ErrTruncated, i)
		}
		epcLen := int(frame.Data[cursor])
		cursor++
		if cursor+epcLen > len(frame.Data) {
			return nil, fmt.Errorf("%w: epc length %d at tag %d", ErrTruncated, epcLen, i)
		}
		epc := make([]byte, epcLen)
		copy(epc, frame.Data[cursor:cursor+epcLen])
		cursor += epcLen
		tags = append(tags, InventoryTag{EPC: epc})
	}
	return tags, nil
}

// SingleInventoryResult is decoded data from a 0x0F response.
type SingleInventoryResult struct {
	EPC      []byte
	TagCount int
	Antenna  byte
}

// ParseSingleInventoryResult decodes a single inventory response.
// Payload layout: Ant(1), Count(1), EPCLen(1), EPC(n)
func ParseSingleInventoryResult(frame Frame) (SingleInventoryResult, error) {
	if frame.Command != CmdInventorySingle {
		return SingleInventoryResult{}, fmt.Errorf("%w: 0x%02X", ErrNotFrameType, frame.Command)
	}
	if frame.Status != StatusNoTag && frame.Status != StatusSuccess {
		return SingleInventoryResult{}, fmt.Errorf("single inventory status 0x%02X", frame.Status)
	}
	if len(frame.Data) < 2 {
		return SingleInventoryResult{}, ErrShortPayload
	}

	result := SingleInventoryResult{
		Antenna:  frame.Data[0],
		TagCount: int(frame.Data[1]),
	}
	if result.TagCount == 0 {
		return result, nil
	}
	if len(frame.Data) < 3 {
		return SingleInventoryResult{}, ErrShortPayload
	}
	epcLen := int(frame.Data[2])
	if len(frame.Data) < 3+epcLen {
		return SingleInventoryResult{}, fmt.Errorf("%w: epc length %d", ErrTruncated, epcLen)
	}
	result.EPC = make([]byte, epcLen)
	copy(result.EPC, frame.Data[3:3+epcLen])
	return result, nil
}

// ReaderInfo is the decoded 0x21 response.
type ReaderInfo struct {
	Region   Region
	Version  uint16
	Type     byte
	Protocol byte
	Power    byte
	ScanTime byte
}

// ParseReaderInfo decodes a reader information response.
// Payload: Version(2) Type(1) TrType(1) MaxFre(1) MinFre(1) Power(1) ScnTm(1)
func ParseReaderInfo(frame Frame) (ReaderInfo, error) {
	if frame.Command != CmdGetReaderInfo {
		return ReaderInfo{}, fmt.Errorf("%w: 0x%02X", ErrNotFrameType, frame.Command)
	}
	if frame.Status != StatusSuccess {
		return ReaderInfo{}, fmt.Errorf("reader info status 0x%02X", frame.Status)
	}
	if len(frame.Data) < 8 {
		return ReaderInfo{}, ErrShortPayload
	}
	d := frame.Data
	return ReaderInfo{
		Version:  uint16(d[0])<<8 | uint16(d[1]),
		Type:     d[2],
		Protocol: d[3],
		Region:   decodeRegion(d[4], d[5]),
		Power:    d[6],
		ScanTime: d[7],
	}, nil
}
