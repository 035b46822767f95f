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

package detection

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultBlocklist returns USB devices that expose a serial port but must
// never receive reader18 frames during detection.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets on open
		"2341:0001", // Arduino Uno (old bootloader)
		"1366:0105", // SEGGER J-Link CDC
		"0483:374B", // ST-LINK/V2-1 virtual COM
	}
}

// KnownBridges lists the USB-serial chips UHF desktop readers ship with.
// Ports behind them are probed first.
func KnownBridges() []string {
	return []string{
		"1A86:7523", // CH340
		"1A86:55D4", // CH9102
		"10C4:EA60", // CP210x
		"0403:6001", // FT232R
		"067B:2303", // PL2303
	}
}

// IsBlocked reports whether vidpid appears in list.
func IsBlocked(vidpid string, list []string) bool {
	vidpid = strings.TrimSpace(vidpid)
	if vidpid == "" {
		return false
	}
	return slices.ContainsFunc(list, func(entry string) bool {
		return strings.EqualFold(strings.TrimSpace(entry), vidpid)
	})
}

// IsPathIgnored reports whether devicePath names one of ignorePaths.
// Paths are cleaned and compared case-insensitively, so "COM3" matches
// "com3" and "/dev/../dev/ttyUSB0" matches "/dev/ttyUSB0".
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := filepath.Clean(devicePath)
	return slices.ContainsFunc(ignorePaths, func(p string) bool {
		return p != "" && strings.EqualFold(filepath.Clean(p), device)
	})
}
