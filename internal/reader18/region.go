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

import "fmt"

// Band is the firmware frequency band number.
type Band byte

const (
	BandUser    Band = 0
	BandChina2  Band = 1
	BandUS      Band = 2
	BandKorea   Band = 3
	BandEU      Band = 4
	bandBitsLow      = 0x03
	channelMask      = 0x3F
)

// Region is a band plus the channel window the reader hops over.
type Region struct {
	Band       Band
	MinChannel byte
	MaxChannel byte
}

// The band is split over the top two bits of MaxFre (band bits 3..2) and
// MinFre (band bits 1..0).
func (r Region) encode() (maxFre, minFre byte) {
	maxFre = byte(r.Band>>2)&bandBitsLow<<6 | r.MaxChannel&channelMask
	minFre = byte(r.Band)&bandBitsLow<<6 | r.MinChannel&channelMask
	return maxFre, minFre
}

func decodeRegion(maxFre, minFre byte) Region {
	return Region{
		Band:       Band((maxFre>>6)<<2 | minFre>>6),
		MaxChannel: maxFre & channelMask,
		MinChannel: minFre & channelMask,
	}
}

// Frequency modes in the vendor numbering exposed by the bridge.
const (
	ModeChina byte = 0
	ModeUS    byte = 1
	ModeEU    byte = 8
)

var modeRegions = map[byte]Region{
	ModeChina: {Band: BandChina2, MinChannel: 0, MaxChannel: 19},
	ModeUS:    {Band: BandUS, MinChannel: 0, MaxChannel: 49},
	ModeEU:    {Band: BandEU, MinChannel: 0, MaxChannel: 14},
}

// RegionForMode returns the full-band region of a frequency mode.
func RegionForMode(mode byte) (Region, error) {
	region, ok := modeRegions[mode]
	if !ok {
		return Region{}, fmt.Errorf("no region for frequency mode %d", mode)
	}
	return region, nil
}

// ModeForBand maps a band back to its frequency mode.
func ModeForBand(band Band) (byte, bool) {
	for mode, region := range modeRegions {
		if region.Band == band {
			return mode, true
		}
	}
	return 0, false
}
