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

// Set is an insertion-ordered set of EPC hex strings.
type Set struct {
	index map[string]struct{}
	order []string
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Add inserts epc and reports whether it was not present before.
func (s *Set) Add(epc string) bool {
	if _, ok := s.index[epc]; ok {
		return false
	}
	s.index[epc] = struct{}{}
	s.order = append(s.order, epc)
	return true
}

// Contains reports whether epc is in the set.
func (s *Set) Contains(epc string) bool {
	_, ok := s.index[epc]
	return ok
}

// Len returns the number of distinct EPCs.
func (s *Set) Len() int {
	return len(s.order)
}

// Empty reports whether no EPC was collected.
func (s *Set) Empty() bool {
	return len(s.order) == 0
}

// EPCs returns the EPCs in first-seen order.
func (s *Set) EPCs() []string {
	return append([]string(nil), s.order...)
}

// First returns the first EPC seen.
func (s *Set) First() (string, bool) {
	if len(s.order) == 0 {
		return "", false
	}
	return s.order[0], true
}
