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
	"strings"
)

// SelectFilter scopes reader operations to the tags whose memory matches
// Pattern at [BitStart, BitStart+BitLength) of Bank.
//
// A reader keeps applying the last filter it was given, so every filtered
// operation must finish by installing ClearFilter.
type SelectFilter struct {
	Pattern   string
	BitStart  uint32
	BitLength uint32
	Bank      MemoryBank
}

// BuildFilter returns a filter matching patternHex at bitStart of bank.
// The bit length is implied by the pattern: four bits per hex digit.
func BuildFilter(bank MemoryBank, bitStart uint32, patternHex string) SelectFilter {
	return SelectFilter{
		Bank:      bank,
		BitStart:  bitStart,
		BitLength: uint32(len(patternHex)) * BitsPerHexDigit,
		Pattern:   patternHex,
	}
}

// ClearFilter returns the canonical "match everything" filter.
func ClearFilter() SelectFilter {
	return SelectFilter{
		Bank:      BankEPC,
		BitStart:  EPCBitOffset,
		BitLength: 0,
		Pattern:   "",
	}
}

// IsClear reports whether f selects every tag.
func (f SelectFilter) IsClear() bool {
	return f.BitLength == 0 && f.Pattern == ""
}

func (f SelectFilter) String() string {
	if f.IsClear() {
		return "filter(none)"
	}
	return fmt.Sprintf("filter(%s@%d/%d=%s)", f.Bank, f.BitStart, f.BitLength, f.Pattern)
}

// Validate checks that the pattern is hex and covers exactly BitLength bits.
func (f SelectFilter) Validate() error {
	if !f.Bank.Valid() {
		return fmt.Errorf("%w: filter bank %d", ErrInvalidParameter, f.Bank)
	}
	for _, r := range f.Pattern {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return fmt.Errorf("%w: filter pattern %q is not hex", ErrInvalidParameter, f.Pattern)
		}
	}
	if uint32(len(f.Pattern))*BitsPerHexDigit != f.BitLength {
		return fmt.Errorf("%w: filter length %d bits does not match pattern %q",
			ErrInvalidParameter, f.BitLength, f.Pattern)
	}
	return nil
}

// MatchesEPC reports whether an EPC-bank filter selects a tag carrying epc.
// BitStart is an EPC-bank address, so EPCBitOffset maps to the first EPC
// bit. Filters on other banks cannot be evaluated from the EPC alone and
// never match; a clear filter always matches.
func (f SelectFilter) MatchesEPC(epc []byte) bool {
	if f.IsClear() {
		return true
	}
	if f.Bank != BankEPC || f.BitStart < EPCBitOffset {
		return false
	}
	pattern := patternBits(f.Pattern)
	start := f.BitStart - EPCBitOffset
	if uint64(start)+uint64(f.BitLength) > uint64(len(epc))*8 {
		return false
	}
	for i := uint32(0); i < f.BitLength; i++ {
		if bitAt(epc, start+i) != pattern[i] {
			return false
		}
	}
	return true
}

func bitAt(b []byte, n uint32) bool {
	return b[n/8]&(0x80>>(n%8)) != 0
}

func patternBits(pattern string) []bool {
	bits := make([]bool, 0, len(pattern)*BitsPerHexDigit)
	for _, r := range strings.ToUpper(pattern) {
		var v byte
		switch {
		case r >= '0' && r <= '9':
			v = byte(r - '0')
		case r >= 'A' && r <= 'F':
			v = byte(r-'A') + 10
		}
		for shift := 3; shift >= 0; shift-- {
			bits = append(bits, v&(1<<shift) != 0)
		}
	}
	return bits
}
