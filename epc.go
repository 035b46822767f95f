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
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// PCWord is the 16-bit Protocol Control word stored ahead of the EPC.
//
// Bits 15..11 hold the EPC length in 16-bit words, bit 9 is the XPC
// indicator. The remaining bits (UMI, numbering system) are carried
// through untouched.
type PCWord uint16

const (
	pcLengthShift = 11
	pcLengthMask  = 0x1F
	pcXPCBit      = 1 << 9
)

// WordCount returns the EPC length in words encoded in the PC word.
func (pc PCWord) WordCount() int {
	return int((pc >> pcLengthShift) & pcLengthMask)
}

// HexLength returns the EPC length in hex characters.
func (pc PCWord) HexLength() int {
	return pc.WordCount() * HexDigitsPerWord
}

// HasXPC reports whether the extended PC indicator is set.
func (pc PCWord) HasXPC() bool {
	return pc&pcXPCBit != 0
}

// Hex returns the PC word as four upper-case hex digits.
func (pc PCWord) Hex() string {
	return fmt.Sprintf("%04X", uint16(pc))
}

func (pc PCWord) String() string {
	return pc.Hex()
}

// ParsePCWord parses the first four hex characters of s as a big-endian
// PC word. Strings shorter than four characters are rejected.
func ParsePCWord(s string) (PCWord, error) {
	if len(s) < HexDigitsPerWord {
		return 0, fmt.Errorf("%w: PC word %q shorter than %d hex digits",
			ErrInvalidParameter, s, HexDigitsPerWord)
	}
	v, err := strconv.ParseUint(s[:HexDigitsPerWord], 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: PC word %q: %w", ErrInvalidParameter, s, err)
	}
	return PCWord(v), nil
}

// ComputePCWord returns the PC word announcing an EPC of epcByteLength
// bytes, rounded up to whole words. All flag bits are zero.
func ComputePCWord(epcByteLength uint32) PCWord {
	words := (epcByteLength + 1) / 2
	return PCWord((words & pcLengthMask) << pcLengthShift)
}

// NormalizeEPC trims a raw EPC buffer to the length declared by the tag's
// PC word. Readers often return a buffer longer than the EPC; when the PC
// word is unusable or declares more than the buffer holds, trailing '0'
// characters are stripped instead.
func NormalizeEPC(rawEPC, pcHex string) string {
	if pc, err := ParsePCWord(pcHex); err == nil {
		n := pc.HexLength()
		if n > 0 && len(rawEPC) >= n {
			return rawEPC[:n]
		}
	}
	return strings.TrimRight(rawEPC, "0")
}

// DigitsToBCD packs the decimal digits of input two per byte, high nibble
// first. Non-digit characters are discarded and an odd digit count gets a
// leading zero, so the result is ceil(digits/2) bytes.
func DigitsToBCD(input string) []byte {
	digits := make([]byte, 0, len(input)+1)
	for i := 0; i < len(input); i++ {
		if c := input[i]; c >= '0' && c <= '9' {
			digits = append(digits, c-'0')
		}
	}
	if len(digits)%2 != 0 {
		digits = append([]byte{0}, digits...)
	}

	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = digits[2*i]<<4 | digits[2*i+1]
	}
	return out
}

// PadOrTruncate fits b into exactly width bytes. Shorter input is
// left-padded with zero bytes; longer input is cut on the right, so the
// leading width bytes are kept and trailing digits beyond 96 bits are
// dropped.
func PadOrTruncate(b []byte, width int) []byte {
	out := make([]byte, width)
	if len(b) >= width {
		copy(out, b[:width])
		return out
	}
	copy(out[width-len(b):], b)
	return out
}

// EncodeEPCDigits turns a human-entered number into a 96-bit EPC payload.
func EncodeEPCDigits(digits string) []byte {
	return PadOrTruncate(DigitsToBCD(digits), EPCWidthBytes)
}

// HexString encodes b as upper-case hex, the form readers expect.
func HexString(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// DecodeHex decodes a hex string of even length (either case).
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex %q: %w", ErrInvalidParameter, s, err)
	}
	return b, nil
}
