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
	"log/slog"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/inventory"
)

// env is what a command runs against.
type env struct {
	ctx     context.Context
	reader  uhf.Reader
	session *inventory.Session
	out     *emitter
	logger  *slog.Logger
	sink    EventSink
}

type command struct {
	run   func(e *env, args []string)
	name  string
	usage string
	help  string
}

var commands = []command{
	{name: "inventory", usage: "inventory", help: "list tags seen during a short inventory", run: runInventory},
	{name: "scan", usage: "scan", help: "report tags until interrupted: DETECTED=<epc> once, then PRESENT=<epc> per sighting", run: runScan},
	{name: "read-epc", usage: "read-epc", help: "read the EPC of one tag", run: runReadEPC},
	{name: "write-epc", usage: "write-epc <digits>", help: "write a BCD encoded EPC to the tag in the field", run: runWriteEPC},
	{name: "clear", usage: "clear", help: "zero the EPC of the tag in the field", run: runClear},
	{name: "clear-user", usage: "clear-user [words]", help: "zero USER memory (default 32 words)", run: runClearUser},
	{name: "clear-filter", usage: "clear-filter", help: "remove the reader selection filter", run: runClearFilter},
	{name: "set-power", usage: "set-power [level]", help: "set RF power (default 30)", run: runSetPower},
	{name: "get-power", usage: "get-power", help: "print RF power", run: runGetPower},
	{name: "get-freq", usage: "get-freq", help: "print the frequency mode", run: runGetFreq},
	{name: "set-freq", usage: "set-freq [mode]", help: "set the frequency mode: 0=China 1=US 8=EU (default 1)", run: runSetFreq},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Commands returns the names of all commands in usage order.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.name)
	}
	return names
}

func runInventory(e *env, _ []string) {
	set, err := e.session.RunBounded(e.ctx, 0)
	if err != nil {
		e.logger.Error("inventory failed", "error", err)
		e.out.fail(CodeException)
		return
	}
	if set.Empty() {
		e.out.noTag()
		return
	}
	for _, epc := range set.EPCs() {
		e.out.detected(epc)
	}
}

func runReadEPC(e *env, _ []string) {
	obs, err := e.session.RunSingle(e.ctx)
	if err != nil {
		e.logger.Error("read failed", "error", err)
		e.out.fail(CodeException)
		return
	}
	if obs == nil {
		e.out.noTag()
		return
	}
	e.out.detected(obs.NormalizedEPC())
}

func runScan(e *env, _ []string) {
	e.logger.Info("scanning, interrupt to stop")
	err := e.session.RunContinuous(e.ctx, func(ev inventory.Event) {
		switch ev.Kind {
		case inventory.EventFirstSeen:
			e.out.detected(ev.EPC)
		case inventory.EventPresent:
			e.out.present(ev.EPC)
		}
		if e.sink != nil {
			if err := e.sink.Publish(e.ctx, ev); err != nil {
				e.logger.Warn("publish scan event", "epc", ev.EPC, "error", err)
			}
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		e.logger.Error("scan failed", "error", err)
		e.out.fail(CodeException)
		return
	}

	stats := e.session.Stats()
	e.logger.Info("scan stopped", "unique", stats.Unique, "observations", stats.Observations)
}
