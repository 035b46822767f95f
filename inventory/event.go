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

package inventory

import "time"

// EventKind distinguishes the two signals of a continuous scan.
type EventKind int

const (
	// EventFirstSeen is emitted once per EPC, the first time it is seen.
	EventFirstSeen EventKind = iota
	// EventPresent is emitted on every tick that yields a tag, repeats
	// included.
	EventPresent
)

func (k EventKind) String() string {
	if k == EventFirstSeen {
		return "first_seen"
	}
	return "present"
}

// Event is one scan report.
type Event struct {
	When time.Time
	// EPC is the normalized EPC.
	EPC string
	// PC is the PC word as reported by the reader.
	PC   string
	Kind EventKind
	// Unique is the number of distinct EPCs seen so far in the session.
	Unique int
}
