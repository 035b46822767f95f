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

package uart

import (
	"context"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/internal/reader18"
)

// StartInventory starts a background loop that runs inventory rounds and
// buffers every tag passing the installed filter.
func (r *Reader) StartInventory(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.port == nil {
		return uhf.ErrNotInitialized
	}
	if r.invCancel != nil {
		return uhf.ErrInventoryRunning
	}

	r.drainLocked()
	invCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.invCancel = cancel
	r.invDone = done

	go r.inventoryLoop(invCtx, done)
	r.logger.Debug("inventory started")
	return nil
}

// StopInventory stops the loop and waits for it to exit. Buffered tags
// stay available to PollBufferedTag.
func (r *Reader) StopInventory() error {
	r.mu.Lock()
	cancel := r.invCancel
	done := r.invDone
	r.invCancel = nil
	r.invDone = nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	r.logger.Debug("inventory stopped")
	return nil
}

// PollBufferedTag returns the oldest buffered observation, or nil.
func (r *Reader) PollBufferedTag() *uhf.TagObservation {
	select {
	case obs := <-r.tags:
		return &obs
	default:
		return nil
	}
}

// ReadSingleTag runs one single-tag inventory.
func (r *Reader) ReadSingleTag(ctx context.Context) (*uhf.TagObservation, error) {
	frame, err := r.exchange(ctx, reader18.InventorySingleCommand(r.cfg.Address), reader18.CmdInventorySingle)
	if err != nil {
		return nil, err
	}
	if frame.Status == reader18.StatusNoTagOrTimeout {
		return nil, nil
	}

	result, err := reader18.ParseSingleInventoryResult(frame)
	if err != nil {
		return nil, uhf.NewTransportError("single inventory", r.portName, err, uhf.ErrorTypePermanent)
	}
	if result.TagCount == 0 || len(result.EPC) == 0 {
		return nil, nil
	}
	if !r.currentFilter().MatchesEPC(result.EPC) {
		uhf.Debugf("single inventory tag %X rejected by filter", result.EPC)
		return nil, nil
	}

	obs := observationFor(result.EPC)
	return &obs, nil
}

func (r *Reader) inventoryLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	cmd := reader18.InventoryCommand(r.cfg.Address)
	for {
		frames, err := r.exchangeAll(ctx, cmd, reader18.CmdInventory)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			r.logger.Debug("inventory round failed", "error", err)
		default:
			r.bufferFrames(frames)
		}

		timer := time.NewTimer(r.cfg.InventoryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (r *Reader) bufferFrames(frames []reader18.Frame) {
	filter := r.currentFilter()
	for _, frame := range frames {
		tags, err := reader18.ParseInventoryTags(frame)
		if err != nil {
			r.logger.Debug("bad inventory frame", "error", err)
			continue
		}
		for _, tag := range tags {
			if !filter.MatchesEPC(tag.EPC) {
				continue
			}
			select {
			case r.tags <- observationFor(tag.EPC):
			default:
				uhf.Debugf("tag buffer full, dropping %X", tag.EPC)
			}
		}
	}
}

func (r *Reader) drainLocked() {
	for {
		select {
		case <-r.tags:
		default:
			return
		}
	}
}

func (r *Reader) currentFilter() uhf.SelectFilter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

// The reader18 inventory reply carries the EPC without its PC word, so the
// PC is rebuilt from the EPC length.
func observationFor(epc []byte) uhf.TagObservation {
	return uhf.TagObservation{
		EPC: uhf.HexString(epc),
		PC:  uhf.ComputePCWord(uint32(len(epc))).Hex(),
	}
}
