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
	"strings"

	uhf "github.com/ZaparooProject/go-uhf"
)

// DefaultClearUserWords is the USER bank span zeroed by clear-user.
const DefaultClearUserWords = 32

func runWriteEPC(e *env, args []string) {
	if len(args) == 0 || !strings.ContainsAny(args[0], "0123456789") {
		e.out.fail(CodeMissingEPC)
		return
	}
	e.rewriteEPC(uhf.EncodeEPCDigits(args[0]), CodeWriteFailed)
}

func runClear(e *env, _ []string) {
	e.rewriteEPC(make([]byte, uhf.EPCWidthBytes), CodeClearFailed)
}

// rewriteEPC selects the tag in the field by its current EPC and writes
// payload and a matching PC word to its EPC bank. Once a tag is found the
// filter is reset on every path, a rejected filter included.
func (e *env) rewriteEPC(payload []byte, failCode Code) {
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
	e.logger.Debug("tag selected", "epc", obs.EPC, "pc", obs.PC)

	defer e.resetFilter()
	filter := uhf.BuildFilter(uhf.BankEPC, uhf.EPCBitOffset, obs.EPC)
	if err := e.reader.SetFilter(e.ctx, filter); err != nil {
		e.logger.Error("filter rejected", "filter", filter.String(), "error", err)
		e.out.fail(CodeFilterFailed)
		return
	}

	data := uhf.HexString(payload)
	pc := uhf.ComputePCWord(uint32(len(payload)))

	// Both writes are attempted; the tag memory is not transactional, so a
	// failed PC write after a good payload write is reported, not undone.
	payloadErr := e.write(uhf.EPCWordOffset, data)
	pcErr := e.write(uhf.PCWordOffset, pc.Hex())
	if payloadErr != nil || pcErr != nil {
		e.logger.Error("epc write failed",
			"epc", obs.EPC,
			"payload_error", payloadErr,
			"pc_error", pcErr)
		e.out.fail(failCode)
		return
	}

	e.logger.Info("epc written", "old", obs.EPC, "new", data, "pc", pc.Hex())
	e.out.written(data)
	e.out.ok()
}

func (e *env) write(wordOffset uint32, data string) error {
	return e.reader.WriteMemory(e.ctx, uhf.WriteRequest{
		Password:   uhf.DefaultAccessPassword,
		Bank:       uhf.BankEPC,
		WordOffset: wordOffset,
		WordCount:  uint32(len(data)) / uhf.HexDigitsPerWord,
		Data:       data,
	})
}

func (e *env) resetFilter() {
	if err := e.reader.SetFilter(e.ctx, uhf.ClearFilter()); err != nil {
		e.logger.Warn("filter reset failed", "error", err)
	}
}

// runClearUser zeroes USER memory of the first tag of a bounded inventory,
// selecting it with a per-write filter on its EPC.
func runClearUser(e *env, args []string) {
	words := DefaultClearUserWords
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			e.logger.Error("invalid word count", "value", args[0])
			e.out.fail(CodeInvalidArgument)
			return
		}
		if n > 0 {
			words = n
		}
	}

	set, err := e.session.RunBounded(e.ctx, 0)
	if err != nil {
		e.logger.Error("inventory failed", "error", err)
		e.out.fail(CodeException)
		return
	}
	epc, ok := set.First()
	if !ok {
		e.out.noTag()
		return
	}

	filter := uhf.BuildFilter(uhf.BankEPC, uhf.EPCBitOffset, epc)
	err = e.reader.WriteMemory(e.ctx, uhf.WriteRequest{
		Filter:    &filter,
		Password:  uhf.DefaultAccessPassword,
		Bank:      uhf.BankUser,
		WordCount: uint32(words),
		Data:      strings.Repeat("0000", words),
	})
	if err != nil {
		e.logger.Error("user bank clear failed", "epc", epc, "words", words, "error", err)
		e.out.fail(CodeClearFailed)
		return
	}

	e.logger.Info("user bank cleared", "epc", epc, "words", words)
	e.out.ok()
}
