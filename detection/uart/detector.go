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

// Package uart finds reader18 readers behind USB-serial bridges.
package uart

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ZaparooProject/go-uhf/detection"
	reader "github.com/ZaparooProject/go-uhf/transport/uart"
	"go.bug.st/serial/enumerator"
)

// PortLister enumerates serial ports.
type PortLister func() ([]*enumerator.PortDetails, error)

// Prober opens path and confirms a reader answers.
type Prober func(ctx context.Context, path string, opts *detection.Options) (map[string]string, error)

type detector struct {
	list   PortLister
	probe  Prober
	logger *slog.Logger
}

// New creates a serial detector. Nil arguments select the system
// enumerator and the reader-info probe.
func New(list PortLister, probe Prober) detection.Detector {
	if list == nil {
		list = enumerator.GetDetailedPortsList
	}
	if probe == nil {
		probe = probeReader
	}
	return &detector{list: list, probe: probe, logger: slog.Default()}
}

func init() {
	detection.RegisterDetector(New(nil, nil))
}

func (*detector) Transport() string {
	return "uart"
}

// Detect lists serial ports, dropping ignored and blocklisted ones. In
// Probe mode only ports that answer a reader info request are returned.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	known := detection.KnownBridges()
	var found []detection.DeviceInfo
	for _, p := range ports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if skipPort(p.Name) || detection.IsPathIgnored(p.Name, opts.IgnorePaths) {
			continue
		}
		info := detection.DeviceInfo{
			Transport: "uart",
			Path:      p.Name,
			Name:      portBase(p.Name),
			Metadata:  map[string]string{},
		}
		if p.IsUSB {
			info.VIDPID = strings.ToUpper(p.VID + ":" + p.PID)
			if detection.IsBlocked(info.VIDPID, opts.Blocklist) {
				d.logger.Debug("skipping blocklisted port", "path", p.Name, "vidpid", info.VIDPID)
				continue
			}
			info.Known = detection.IsBlocked(info.VIDPID, known)
			if p.SerialNumber != "" {
				info.Metadata["serial"] = p.SerialNumber
			}
		}

		if opts.Mode == detection.Probe {
			meta, err := d.probe(ctx, p.Name, opts)
			if err != nil {
				d.logger.Debug("probe failed", "path", p.Name, "err", err)
				continue
			}
			for k, v := range meta {
				info.Metadata[k] = v
			}
			info.Verified = true
		}
		found = append(found, info)
	}
	return found, nil
}

func probeReader(ctx context.Context, path string, opts *detection.Options) (map[string]string, error) {
	options := []reader.Option{reader.WithMaxRetries(0), reader.WithScanTime(0)}
	if opts.BaudRate > 0 {
		options = append(options, reader.WithBaudRate(opts.BaudRate))
	}
	if opts.Timeout > 0 {
		options = append(options, reader.WithTimeout(opts.Timeout))
	}
	r, err := reader.New(path, options...)
	if err != nil {
		return nil, err
	}
	if err := r.Init(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = r.Release() }()

	info := r.Info()
	return map[string]string{
		"version": fmt.Sprintf("%d.%d", info.Version>>8, info.Version&0xFF),
		"type":    fmt.Sprintf("0x%02X", info.Type),
	}, nil
}

// skipPort drops ports that are never readers: Bluetooth and debug consoles.
func skipPort(path string) bool {
	base := strings.ToLower(portBase(path))
	return strings.Contains(base, "bluetooth") ||
		strings.HasPrefix(base, "tty.") ||
		strings.Contains(base, "debug-console")
}

func portBase(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
