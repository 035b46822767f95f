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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
)

// Config holds inventory timing.
type Config struct {
	Logger *slog.Logger
	// BoundedTimeout is the wall-clock budget of RunBounded when called
	// with a zero timeout.
	BoundedTimeout time.Duration
	// ScanInterval is the tick of RunContinuous.
	ScanInterval time.Duration
}

// DefaultConfig returns the bridge defaults: 800ms inventories and a 250ms
// scan tick.
func DefaultConfig() *Config {
	return &Config{
		BoundedTimeout: 800 * time.Millisecond,
		ScanInterval:   250 * time.Millisecond,
	}
}

// Stats counts what a session has seen.
type Stats struct {
	PollCycles   int64
	Observations int64
	Unique       int
}

// Session drives acquisition on one reader. It is not safe for concurrent
// use, matching the single-owner contract of uhf.Reader.
type Session struct {
	reader uhf.Reader
	config *Config
	logger *slog.Logger
	stats  Stats
	state  State
}

// NewSession creates a session on reader. A nil config uses DefaultConfig.
func NewSession(reader uhf.Reader, config *Config) (*Session, error) {
	if reader == nil {
		return nil, errors.New("reader cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		reader: reader,
		config: config,
		logger: logger,
	}, nil
}

// State returns the current phase.
func (s *Session) State() State {
	return s.state
}

// Stats returns the counters of the last run.
func (s *Session) Stats() Stats {
	return s.stats
}

// start begins acquisition and returns the matching stop, which must run on
// every exit path.
func (s *Session) start(ctx context.Context) (func(), error) {
	s.stats = Stats{}
	if err := s.reader.StartInventory(ctx); err != nil {
		return nil, fmt.Errorf("failed to start inventory: %w", err)
	}
	s.state = StatePolling
	return func() {
		if err := s.reader.StopInventory(); err != nil {
			s.logger.Warn("failed to stop inventory", "err", err)
		}
		s.state = StateIdle
	}, nil
}

// RunBounded collects the distinct normalized EPCs seen until timeout has
// elapsed. It busy-polls the reader buffer against the wall-clock deadline;
// the drain rate is bounded only by the reader. A zero timeout uses
// Config.BoundedTimeout. Cancelling ctx ends the run early with ctx.Err()
// and whatever was collected.
func (s *Session) RunBounded(ctx context.Context, timeout time.Duration) (*Set, error) {
	if timeout <= 0 {
		timeout = s.config.BoundedTimeout
	}
	set := NewSet()

	stop, err := s.start(ctx)
	if err != nil {
		return set, err
	}
	defer stop()

	started := time.Now()
	s.state = StateDraining
	for time.Since(started) < timeout {
		if err := ctx.Err(); err != nil {
			return set, err
		}
		s.stats.PollCycles++
		obs := s.reader.PollBufferedTag()
		if obs == nil || obs.EPC == "" {
			continue
		}
		s.stats.Observations++
		epc := obs.NormalizedEPC()
		if set.Add(epc) {
			s.logger.Debug("tag seen", "epc", epc, "pc", obs.PC)
		}
	}
	s.stats.Unique = set.Len()
	return set, nil
}

// RunSingle performs one single-shot acquisition. It returns nil without
// error when no tag answered within the reader's own timeout.
func (s *Session) RunSingle(ctx context.Context) (*uhf.TagObservation, error) {
	obs, err := s.reader.ReadSingleTag(ctx)
	if err != nil {
		return nil, fmt.Errorf("single tag read failed: %w", err)
	}
	if obs == nil || obs.EPC == "" {
		return nil, nil
	}
	return obs, nil
}

// RunContinuous scans until ctx is cancelled. Every ScanInterval it drains
// one observation; onTag receives EventFirstSeen the first time an EPC
// appears and EventPresent for every tick that yields a tag. Acquisition is
// stopped before returning, also when ctx is cancelled mid-tick. The
// returned error is ctx.Err() after cancellation.
func (s *Session) RunContinuous(ctx context.Context, onTag func(Event)) error {
	interval := s.config.ScanInterval
	if interval <= 0 {
		interval = DefaultConfig().ScanInterval
	}
	seen := NewSet()

	stop, err := s.start(ctx)
	if err != nil {
		return err
	}
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		s.state = StateDraining
		s.stats.PollCycles++
		obs := s.reader.PollBufferedTag()
		s.state = StatePolling
		if obs == nil || obs.EPC == "" {
			continue
		}
		s.stats.Observations++

		epc := obs.NormalizedEPC()
		now := time.Now()
		if seen.Add(epc) {
			s.stats.Unique = seen.Len()
			onTag(Event{When: now, EPC: epc, PC: obs.PC, Kind: EventFirstSeen, Unique: seen.Len()})
		}
		onTag(Event{When: now, EPC: epc, PC: obs.PC, Kind: EventPresent, Unique: seen.Len()})
	}
}
