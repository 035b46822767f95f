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

package uhf

import (
	"fmt"
	"strconv"
	"strings"
)

// MemoryBank identifies one of the four logical memory regions of an
// EPC Gen2 tag. The numeric values are the reader-native bank identifiers.
type MemoryBank uint8

const (
	BankReserved MemoryBank = 0
	BankEPC      MemoryBank = 1
	BankTID      MemoryBank = 2
	BankUser     MemoryBank = 3
)

// Word geometry of tag memory.
const (
	// WordBits is the size of one addressable tag memory word.
	WordBits = 16
	// HexDigitsPerWord is the number of hex characters encoding one word.
	HexDigitsPerWord = 4
	// BitsPerHexDigit is the number of bits one hex character covers.
	BitsPerHexDigit = 4
)

// EPC bank layout used by write operations.
const (
	// EPCWidthBytes is the fixed EPC width written by this package (96 bits).
	EPCWidthBytes = 12
	// PCWordOffset is the word address of the PC word in the EPC bank.
	PCWordOffset = 1
	// EPCWordOffset is the word address of the first EPC word in the EPC bank.
	EPCWordOffset = 2
	// EPCBitOffset is the bit address of the first EPC bit in the EPC bank
	// (after the StoredCRC and PC words).
	EPCBitOffset = EPCWordOffset * WordBits
	// DefaultAccessPassword is the factory access password of Gen2 tags.
	DefaultAccessPassword = "00000000"
)

var bankNames = map[MemoryBank]string{
	BankReserved: "RESERVED",
	BankEPC:      "EPC",
	BankTID:      "TID",
	BankUser:     "USER",
}

// String returns the bank name.
func (b MemoryBank) String() string {
	if name, ok := bankNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BANK(%d)", uint8(b))
}

// Valid reports whether b is one of the four Gen2 banks.
func (b MemoryBank) Valid() bool {
	_, ok := bankNames[b]
	return ok
}

// ParseMemoryBank parses a bank name (case-insensitive) or its numeric id.
func ParseMemoryBank(s string) (MemoryBank, error) {
	for bank, name := range bankNames {
		if strings.EqualFold(s, name) || s == strconv.Itoa(int(bank)) {
			return bank, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown memory bank %q", ErrInvalidParameter, s)
}
