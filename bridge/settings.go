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
	"strconv"

	uhf "github.com/ZaparooProject/go-uhf"
)

// Defaults used when set-power or set-freq get no argument.
const (
	DefaultPower         = 30
	DefaultFrequencyMode = uhf.FrequencyUS
)

func runClearFilter(e *env, _ []string) {
	if err := e.reader.SetFilter(e.ctx, uhf.ClearFilter()); err != nil {
		e.logger.Error("filter reset failed", "error", err)
		e.out.fail(CodeFilterFailed)
		return
	}
	e.out.ok()
}

func runSetPower(e *env, args []string) {
	level := DefaultPower
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			e.logger.Error("invalid power level", "value", args[0])
			e.out.fail(CodeInvalidArgument)
			return
		}
		level = n
	}

	if err := e.reader.SetPower(e.ctx, level); err != nil {
		e.logger.Error("set power failed", "level", level, "error", err)
		e.out.fail(CodePowerFailed)
		return
	}
	runGetPower(e, nil)
}

func runGetPower(e *env, _ []string) {
	power, err := e.reader.GetPower(e.ctx)
	if err != nil {
		e.logger.Error("get power failed", "error", err)
		e.out.fail(CodePowerFailed)
		return
	}
	e.out.okValue("power", power)
}

func runGetFreq(e *env, _ []string) {
	mode, err := e.reader.GetFrequencyMode(e.ctx)
	if err != nil {
		e.logger.Error("get frequency failed", "error", err)
		e.out.fail(CodeFreqFailed)
		return
	}
	e.out.okValue("freq", mode)
}

func runSetFreq(e *env, args []string) {
	mode := DefaultFrequencyMode
	if len(args) > 0 {
		n, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			e.logger.Error("invalid frequency mode", "value", args[0])
			e.out.fail(CodeInvalidArgument)
			return
		}
		mode = byte(n)
	}

	if err := e.reader.SetFrequencyMode(e.ctx, mode); err != nil {
		e.logger.Error("set frequency failed", "mode", mode, "error", err)
		e.out.fail(CodeFreqFailed)
		return
	}
	e.out.okValue("freq", int(mode))
}
