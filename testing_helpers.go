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
	"sync"
)

// MockCall records one method invocation on a MockReader.
type MockCall struct {
	Filter *SelectFilter
	Write  *WriteRequest
	Method string
	Value  int
}

// MockReader is a scriptable Reader for tests. It records every call and
// serves observations from a queue.
type MockReader struct {
	InitErr      error
	SingleErr    error
	FilterErr    error
	PowerErr     error
	FrequencyErr error
	// WriteErr is consulted for every WriteMemory call with its zero-based
	// index; nil means success.
	WriteErr func(call int, req WriteRequest) error
	// SingleTag is returned by ReadSingleTag.
	SingleTag *TagObservation
	// PanicOn makes the named method panic, simulating a driver fault.
	PanicOn string

	calls        []MockCall
	buffered     []TagObservation
	repeat       *TagObservation
	writes       int
	power        int
	frequency    int
	inventoryOn  bool
	initialized  bool
	releaseCount int
	mu           sync.Mutex
}

// NewMockReader returns a MockReader with power 30 and US frequency mode.
func NewMockReader() *MockReader {
	return &MockReader{
		power:     30,
		frequency: int(FrequencyUS),
	}
}

// QueueTags appends observations served by PollBufferedTag in order.
func (m *MockReader) QueueTags(tags ...TagObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffered = append(m.buffered, tags...)
}

// RepeatTag makes PollBufferedTag return tag whenever the queue is empty.
func (m *MockReader) RepeatTag(tag TagObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = &tag
}

// Calls returns a copy of the recorded calls.
func (m *MockReader) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Methods returns the recorded method names in call order.
func (m *MockReader) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		names = append(names, c.Method)
	}
	return names
}

// CallCount returns how many times method was called.
func (m *MockReader) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ReleaseCount returns how many times Release was called.
func (m *MockReader) ReleaseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseCount
}

// InventoryRunning reports whether StartInventory is in effect.
func (m *MockReader) InventoryRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inventoryOn
}

func (m *MockReader) record(call MockCall) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	panicking := m.PanicOn == call.Method
	m.mu.Unlock()
	if panicking {
		panic("mock reader fault in " + call.Method)
	}
}

// Init implements Reader.
func (m *MockReader) Init(_ context.Context) error {
	m.record(MockCall{Method: "Init"})
	if m.InitErr != nil {
		return m.InitErr
	}
	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
	return nil
}

// SetPower implements Reader.
func (m *MockReader) SetPower(_ context.Context, level int) error {
	m.record(MockCall{Method: "SetPower", Value: level})
	if m.PowerErr != nil {
		return m.PowerErr
	}
	m.mu.Lock()
	m.power = level
	m.mu.Unlock()
	return nil
}

// GetPower implements Reader.
func (m *MockReader) GetPower(_ context.Context) (int, error) {
	m.record(MockCall{Method: "GetPower"})
	if m.PowerErr != nil {
		return 0, m.PowerErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power, nil
}

// GetFrequencyMode implements Reader.
func (m *MockReader) GetFrequencyMode(_ context.Context) (int, error) {
	m.record(MockCall{Method: "GetFrequencyMode"})
	if m.FrequencyErr != nil {
		return 0, m.FrequencyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frequency, nil
}

// SetFrequencyMode implements Reader.
func (m *MockReader) SetFrequencyMode(_ context.Context, mode byte) error {
	m.record(MockCall{Method: "SetFrequencyMode", Value: int(mode)})
	if m.FrequencyErr != nil {
		return m.FrequencyErr
	}
	m.mu.Lock()
	m.frequency = int(mode)
	m.mu.Unlock()
	return nil
}

// StartInventory implements Reader.
func (m *MockReader) StartInventory(_ context.Context) error {
	m.record(MockCall{Method: "StartInventory"})
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inventoryOn {
		return ErrInventoryRunning
	}
	m.inventoryOn = true
	return nil
}

// StopInventory implements Reader.
func (m *MockReader) StopInventory() error {
	m.record(MockCall{Method: "StopInventory"})
	m.mu.Lock()
	m.inventoryOn = false
	m.mu.Unlock()
	return nil
}

// PollBufferedTag implements Reader. Polls are not recorded as calls since
// bounded inventories issue them in a tight loop.
func (m *MockReader) PollBufferedTag() *TagObservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PanicOn == "PollBufferedTag" {
		panic("mock reader fault in PollBufferedTag")
	}
	if !m.inventoryOn {
		return nil
	}
	if len(m.buffered) > 0 {
		tag := m.buffered[0]
		m.buffered = m.buffered[1:]
		return &tag
	}
	if m.repeat != nil {
		tag := *m.repeat
		return &tag
	}
	return nil
}

// ReadSingleTag implements Reader.
func (m *MockReader) ReadSingleTag(_ context.Context) (*TagObservation, error) {
	m.record(MockCall{Method: "ReadSingleTag"})
	if m.SingleErr != nil {
		return nil, m.SingleErr
	}
	if m.SingleTag == nil {
		return nil, nil
	}
	tag := *m.SingleTag
	return &tag, nil
}

// SetFilter implements Reader.
func (m *MockReader) SetFilter(_ context.Context, filter SelectFilter) error {
	m.record(MockCall{Method: "SetFilter", Filter: &filter})
	if m.FilterErr != nil && !filter.IsClear() {
		return m.FilterErr
	}
	return nil
}

// WriteMemory implements Reader.
func (m *MockReader) WriteMemory(_ context.Context, req WriteRequest) error {
	m.record(MockCall{Method: "WriteMemory", Write: &req})
	m.mu.Lock()
	idx := m.writes
	m.writes++
	writeErr := m.WriteErr
	m.mu.Unlock()
	if writeErr != nil {
		return writeErr(idx, req)
	}
	return nil
}

// Release implements Reader.
func (m *MockReader) Release() error {
	m.record(MockCall{Method: "Release"})
	m.mu.Lock()
	m.releaseCount++
	m.initialized = false
	m.mu.Unlock()
	return nil
}

// Opener returns an Opener that always hands out m.
func (m *MockReader) Opener() Opener {
	return func() (Reader, error) {
		return m, nil
	}
}

// Initialized reports whether Init succeeded and Release has not run since.
func (m *MockReader) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}
