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
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/inventory"
)

// EventSink receives scan events in addition to the printed tokens.
type EventSink interface {
	Publish(ctx context.Context, event inventory.Event) error
}

// Processor runs one bridge command per Execute call against a reader it
// opens, owns and releases itself.
type Processor struct {
	open      uhf.Opener
	out       io.Writer
	diag      io.Writer
	logger    *slog.Logger
	inventory *inventory.Config
	sink      EventSink
}

// Option configures a Processor.
type Option func(*Processor) error

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// WithInventoryConfig sets inventory timing.
func WithInventoryConfig(config *inventory.Config) Option {
	return func(p *Processor) error {
		p.inventory = config
		return nil
	}
}

// WithEventSink forwards scan events to sink.
func WithEventSink(sink EventSink) Option {
	return func(p *Processor) error {
		p.sink = sink
		return nil
	}
}

// WithDiagnostics sets where usage text goes. It defaults to stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(p *Processor) error {
		p.diag = w
		return nil
	}
}

// New returns a Processor printing result tokens to out.
func New(open uhf.Opener, out io.Writer, opts ...Option) (*Processor, error) {
	if open == nil {
		return nil, errors.New("reader opener cannot be nil")
	}
	if out == nil {
		return nil, errors.New("output writer cannot be nil")
	}

	p := &Processor{
		open:      open,
		out:       out,
		diag:      os.Stderr,
		logger:    slog.Default(),
		inventory: inventory.DefaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Execute runs the command in args[0] with its arguments. The reader is
// opened once, used for exactly this command and released on every path,
// including a panic inside the driver. A reader that fails to initialize is
// not released.
func (p *Processor) Execute(ctx context.Context, args []string) (outcome Outcome) {
	out := &emitter{w: p.out, outcome: &outcome}

	if len(args) == 0 {
		p.Usage()
		out.fail(CodeNoAction)
		return outcome
	}

	name := strings.ToLower(strings.TrimSpace(args[0]))
	outcome.Command = name
	if name == "help" {
		p.Usage()
		return outcome
	}

	cmd, ok := lookup(name)
	if !ok {
		p.logger.Warn("unknown command", "command", args[0])
		out.fail(CodeUnknownAction)
		return outcome
	}

	reader, err := p.openReader(ctx)
	if err != nil {
		p.logger.Error("reader init failed", "error", err)
		out.fail(CodeInitFailed)
		return outcome
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("reader fault",
				"command", name,
				"panic", r,
				"stack", string(debug.Stack()))
			out.fail(CodeException)
		}
		if err := reader.Release(); err != nil {
			p.logger.Warn("reader release failed", "error", err)
		}
	}()

	session, err := inventory.NewSession(reader, p.inventoryConfig())
	if err != nil {
		p.logger.Error("inventory session", "error", err)
		out.fail(CodeException)
		return outcome
	}

	cmd.run(&env{
		ctx:     ctx,
		reader:  reader,
		session: session,
		out:     out,
		logger:  p.logger.With("command", name),
		sink:    p.sink,
	}, args[1:])
	return outcome
}

func (p *Processor) openReader(ctx context.Context) (reader uhf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = fmt.Errorf("reader init panicked: %v", r)
		}
	}()

	reader, err = p.open()
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, errors.New("opener returned no reader")
	}
	if err := reader.Init(ctx); err != nil {
		return nil, err
	}
	return reader, nil
}

func (p *Processor) inventoryConfig() *inventory.Config {
	config := *p.inventory
	if config.Logger == nil {
		config.Logger = p.logger
	}
	return &config
}

// Usage prints the command list to the diagnostic writer.
func (p *Processor) Usage() {
	_, _ = fmt.Fprintln(p.diag, "usage: uhfbridge [flags] <command> [args]")
	_, _ = fmt.Fprintln(p.diag, "")
	_, _ = fmt.Fprintln(p.diag, "commands:")
	for _, c := range commands {
		_, _ = fmt.Fprintf(p.diag, "  %-24s %s\n", c.usage, c.help)
	}
}
