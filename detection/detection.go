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

// Package detection finds attached UHF readers. Transport-specific
// detectors register themselves on import.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNoDevicesFound is returned when no detector reported a device.
	ErrNoDevicesFound = errors.New("no UHF readers found")
	// ErrUnsupportedPlatform is returned by detectors that cannot enumerate
	// on the running OS.
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
)

// Mode selects how thoroughly candidates are checked.
type Mode int

const (
	// Passive lists candidate ports without opening them.
	Passive Mode = iota
	// Probe opens each candidate and asks for reader info.
	Probe
)

// Options controls detection.
type Options struct {
	IgnorePaths []string
	Blocklist   []string
	BaudRate    int
	Timeout     time.Duration
	Mode        Mode
}

// DefaultOptions returns passive detection with the default blocklist.
func DefaultOptions() Options {
	return Options{
		Blocklist: DefaultBlocklist(),
		BaudRate:  57600,
		Timeout:   time.Second,
		Mode:      Passive,
	}
}

// DeviceInfo describes one candidate reader.
type DeviceInfo struct {
	Metadata  map[string]string
	Transport string
	Path      string
	Name      string
	VIDPID    string
	// Known is set when the USB bridge is one UHF readers commonly use.
	Known bool
	// Verified is set when a probe got a reader info reply.
	Verified bool
}

func (d DeviceInfo) String() string {
	if d.VIDPID == "" {
		return fmt.Sprintf("%s:%s", d.Transport, d.Path)
	}
	return fmt.Sprintf("%s:%s (%s)", d.Transport, d.Path, d.VIDPID)
}

// Detector enumerates devices on one transport.
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Detector{}
)

// RegisterDetector adds d, replacing any detector for the same transport.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Transport()] = d
}

// Detectors returns the registered detectors ordered by transport name.
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Detector, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transport() < out[j].Transport() })
	return out
}

// DetectAll runs every registered detector. Verified devices sort first,
// then known bridges. Detector errors are returned only when nothing was
// found.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		def := DefaultOptions()
		opts = &def
	}
	var found []DeviceInfo
	var errs []error
	for _, d := range Detectors() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		devices, err := d.Detect(ctx, opts)
		if err != nil {
			if !errors.Is(err, ErrUnsupportedPlatform) {
				errs = append(errs, fmt.Errorf("%s: %w", d.Transport(), err))
			}
			continue
		}
		found = append(found, devices...)
	}
	if len(found) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("%w: %w", ErrNoDevicesFound, errors.Join(errs...))
		}
		return nil, ErrNoDevicesFound
	}
	sort.SliceStable(found, func(i, j int) bool { return rank(found[i]) > rank(found[j]) })
	return found, nil
}

// DetectFirst returns the best candidate.
func DetectFirst(ctx context.Context, opts *Options) (DeviceInfo, error) {
	devices, err := DetectAll(ctx, opts)
	if err != nil {
		return DeviceInfo{}, err
	}
	return devices[0], nil
}

func rank(d DeviceInfo) int {
	r := 0
	if d.Verified {
		r += 2
	}
	if d.Known {
		r++
	}
	return r
}
