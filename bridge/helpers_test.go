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

package bridge

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/inventory"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reading
// test.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Lines() []string {
	s := strings.TrimRight(b.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

type harness struct {
	reader *uhf.MockReader
	out    *syncBuffer
	diag   *syncBuffer
	proc   *Processor
	opens  int
	mu     sync.Mutex
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		reader: uhf.NewMockReader(),
		out:    &syncBuffer{},
		diag:   &syncBuffer{},
	}
	opener := func() (uhf.Reader, error) {
		h.mu.Lock()
		h.opens++
		h.mu.Unlock()
		return h.reader, nil
	}

	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithDiagnostics(h.diag),
		WithInventoryConfig(&inventory.Config{
			BoundedTimeout: 30 * time.Millisecond,
			ScanInterval:   2 * time.Millisecond,
		}),
	}
	proc, err := New(opener, h.out, append(base, opts...)...)
	require.NoError(t, err)
	h.proc = proc
	return h
}

func (h *harness) run(args ...string) Outcome {
	return h.proc.Execute(context.Background(), args)
}

func (h *harness) openCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opens
}

// filterWriteLog reduces recorded calls to the SetFilter/WriteMemory
// sequence.
func filterWriteLog(calls []uhf.MockCall) []uhf.MockCall {
	var out []uhf.MockCall
	for _, c := range calls {
		if c.Method == "SetFilter" || c.Method == "WriteMemory" {
			out = append(out, c)
		}
	}
	return out
}

func tag(epc, pc string) uhf.TagObservation {
	return uhf.TagObservation{EPC: epc, PC: pc}
}
