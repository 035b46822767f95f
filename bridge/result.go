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
	"fmt"
	"io"
	"strconv"
)

// Code is the value of an ERROR= token.
type Code string

// Error codes.
const (
	CodeNoAction        Code = "NO_ACTION"
	CodeUnknownAction   Code = "UNKNOWN_ACTION"
	CodeInitFailed      Code = "INIT_FAILED"
	CodeMissingEPC      Code = "MISSING_EPC"
	CodeFilterFailed    Code = "FILTER_FAILED"
	CodeWriteFailed     Code = "WRITE_FAILED"
	CodeClearFailed     Code = "CLEAR_FAILED"
	CodeException       Code = "EXCEPTION"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodePowerFailed     Code = "POWER_FAILED"
	CodeFreqFailed      Code = "FREQ_FAILED"
)

// Output tokens.
const (
	TokenDetected = "DETECTED"
	TokenPresent  = "PRESENT"
	TokenWritten  = "WRITTEN"
	TokenOK       = "OK"
	TokenNoTag    = "NO_TAG"
	TokenError    = "ERROR"
)

// Outcome summarizes one Execute call.
type Outcome struct {
	Command string
	// Code is the emitted error code, empty when no ERROR token was
	// printed. NO_TAG is not an error.
	Code  Code
	Lines int
	NoTag bool
}

// Failed reports whether an ERROR token was emitted.
func (o Outcome) Failed() bool {
	return o.Code != ""
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	if o.Failed() {
		return 1
	}
	return 0
}

// emitter writes result tokens, one per line.
type emitter struct {
	w       io.Writer
	outcome *Outcome
}

func (e *emitter) line(s string) {
	_, _ = fmt.Fprintln(e.w, s)
	e.outcome.Lines++
}

func (e *emitter) detected(epc string) {
	e.line(TokenDetected + "=" + epc)
}

func (e *emitter) present(epc string) {
	e.line(TokenPresent + "=" + epc)
}

func (e *emitter) written(epc string) {
	e.line(TokenWritten + "=" + epc)
}

func (e *emitter) ok() {
	e.line(TokenOK)
}

func (e *emitter) okValue(key string, value int) {
	e.line(TokenOK + " " + key + "=" + strconv.Itoa(value))
}

func (e *emitter) noTag() {
	e.outcome.NoTag = true
	e.line(TokenNoTag)
}

// fail emits ERROR=code. Only the first failure is recorded.
func (e *emitter) fail(code Code) {
	if e.outcome.Code == "" {
		e.outcome.Code = code
	}
	e.line(TokenError + "=" + string(code))
}
