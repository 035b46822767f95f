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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory_NoTag(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	start := time.Now()
	outcome := h.run("inventory")

	assert.Equal(t, []string{"NO_TAG"}, h.out.Lines())
	assert.True(t, outcome.NoTag)
	assert.False(t, outcome.Failed())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, []string{"Init", "StartInventory", "StopInventory", "Release"}, h.reader.Methods())
}

func TestInventory_DeduplicatesInFirstSeenOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.reader.QueueTags(
		tag("BBBB0000", "1000"),
		tag("AAAA", "0800"),
		tag("BBBB0000", "1000"),
		tag("", ""),
	)
	h.reader.RepeatTag(tag("AAAA", "0800"))

	h.run("inventory")
	assert.Equal(t, []string{"DETECTED=BBBB0000", "DETECTED=AAAA"}, h.out.Lines())
}

func TestInventory_NormalizesByPCWord(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.reader.QueueTags(
		tag("E2000017221101441890ABCD00000000", "3000"),
		tag("E00401", "3000"),
	)

	h.run("inventory")
	assert.Equal(t, []string{
		"DETECTED=E2000017221101441890ABCD",
		"DETECTED=E00401",
	}, h.out.Lines())
}

func TestReadEPC(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.run("read-epc")
	assert.Equal(t, []string{"NO_TAG"}, h.out.Lines())

	h = newHarness(t)
	h.reader.SingleTag = &uhf.TagObservation{EPC: "300833B2DDD9014000000000AAAA", PC: "3000"}
	h.run("read-epc")
	assert.Equal(t, []string{"DETECTED=300833B2DDD9014000000000"}, h.out.Lines())
}

func TestReadEPC_ReaderError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.reader.SingleErr = uhf.ErrTransportTimeout

	outcome := h.run("read-epc")
	assert.Equal(t, CodeException, outcome.Code)
}

func TestScan_FirstSeenAndPresent(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	h := newHarness(t, WithEventSink(sink))
	h.reader.QueueTags(tag("AAAA", "0800"), tag("AAAA", "0800"), tag("BBBB", "0800"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome, 1)
	go func() {
		done <- h.proc.Execute(ctx, []string{"scan"})
	}()

	require.Eventually(t, func() bool {
		return len(h.out.Lines()) >= 5
	}, 2*time.Second, 2*time.Millisecond)
	cancel()

	var outcome Outcome
	select {
	case outcome = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scan did not stop after cancellation")
	}

	assert.False(t, outcome.Failed())
	assert.Equal(t, []string{
		"DETECTED=AAAA",
		"PRESENT=AAAA",
		"PRESENT=AAAA",
		"DETECTED=BBBB",
		"PRESENT=BBBB",
	}, h.out.Lines())
	assert.False(t, h.reader.InventoryRunning())
	assert.Equal(t, 1, h.reader.CallCount("StopInventory"))
	assert.Equal(t, 1, h.reader.ReleaseCount())

	kinds := sink.kinds()
	require.Len(t, kinds, 5)
	assert.Equal(t, inventory.EventFirstSeen, kinds[0])
	assert.Equal(t, inventory.EventPresent, kinds[1])
}

func TestScan_PanicStillStopsAndReleases(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.reader.PanicOn = "PollBufferedTag"

	outcome := h.run("scan")

	assert.Equal(t, CodeException, outcome.Code)
	assert.False(t, h.reader.InventoryRunning())
	assert.Equal(t, 1, h.reader.ReleaseCount())
}

func TestScan_SinkErrorsDoNotStopScan(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{err: errors.New("broker down")}
	h := newHarness(t, WithEventSink(sink))
	h.reader.RepeatTag(tag("AAAA", "0800"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	outcome := h.proc.Execute(ctx, []string{"scan"})

	assert.False(t, outcome.Failed())
	assert.Greater(t, len(sink.kinds()), 2)
}

type recordingSink struct {
	err    error
	events []inventory.Event
	mu     sync.Mutex
}

func (s *recordingSink) Publish(_ context.Context, ev inventory.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) kinds() []inventory.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]inventory.EventKind, 0, len(s.events))
	for _, ev := range s.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}
