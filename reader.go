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
	"context"
	"fmt"
)

// TagObservation is one tag seen by the reader in one acquisition cycle.
// Both fields are hex strings exactly as the reader reported them.
type TagObservation struct {
	EPC string
	PC  string
}

// NormalizedEPC returns the EPC trimmed to the length declared by the PC word.
func (o TagObservation) NormalizedEPC() string {
	return NormalizeEPC(o.EPC, o.PC)
}

// WriteRequest describes one tag memory write.
//
// Data is the payload as hex and must hold WordCount words. Filter, when
// set, selects the target tag for this write only, on top of any filter
// installed with SetFilter.
type WriteRequest struct {
	Filter     *SelectFilter
	Password   string
	Data       string
	WordOffset uint32
	WordCount  uint32
	Bank       MemoryBank
}

// Validate checks the request geometry.
func (w WriteRequest) Validate() error {
	if !w.Bank.Valid() {
		return fmt.Errorf("%w: bank %d", ErrInvalidParameter, w.Bank)
	}
	if len(w.Password) != len(DefaultAccessPassword) {
		return fmt.Errorf("%w: access password must be 8 hex digits", ErrInvalidParameter)
	}
	if w.WordCount == 0 || uint32(len(w.Data)) != w.WordCount*HexDigitsPerWord {
		return fmt.Errorf("%w: %d words need %d hex digits, got %d",
			ErrInvalidParameter, w.WordCount, w.WordCount*HexDigitsPerWord, len(w.Data))
	}
	if w.Filter != nil {
		if err := w.Filter.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Frequency modes in the vendor numbering used by the bridge commands.
const (
	FrequencyChina byte = 0
	FrequencyUS    byte = 1
	FrequencyEU    byte = 8
)

// Reader is the capability surface of a UHF reader that the bridge drives.
//
// A Reader is owned by one caller for its whole life: Init once, any number
// of operations, then Release exactly once. Implementations are not
// required to be safe for concurrent use.
type Reader interface {
	// Init opens the underlying transport.
	Init(ctx context.Context) error

	// SetPower sets the RF output power; GetPower reads it back.
	SetPower(ctx context.Context, level int) error
	GetPower(ctx context.Context) (int, error)

	// GetFrequencyMode and SetFrequencyMode use the FrequencyXxx numbering.
	GetFrequencyMode(ctx context.Context) (int, error)
	SetFrequencyMode(ctx context.Context, mode byte) error

	// StartInventory starts continuous acquisition into the reader buffer.
	StartInventory(ctx context.Context) error
	// StopInventory stops continuous acquisition.
	StopInventory() error
	// PollBufferedTag drains one buffered observation without blocking.
	// It returns nil when the buffer is empty.
	PollBufferedTag() *TagObservation

	// ReadSingleTag performs one blocking single-tag acquisition. It
	// returns nil and no error when no tag answered.
	ReadSingleTag(ctx context.Context) (*TagObservation, error)

	// SetFilter installs a selection filter for later inventory and write
	// operations. An error means the reader rejected it.
	SetFilter(ctx context.Context, filter SelectFilter) error

	// WriteMemory writes tag memory. An error means the write was not
	// confirmed by the tag.
	WriteMemory(ctx context.Context, req WriteRequest) error

	// Release frees the transport acquired by Init.
	Release() error
}

// Opener creates a Reader that has not been initialized yet.
type Opener func() (Reader, error)
