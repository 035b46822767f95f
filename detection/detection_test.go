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

package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	err       error
	transport string
	devices   []DeviceInfo
}

func (s *stubDetector) Transport() string { return s.transport }

func (s *stubDetector) Detect(context.Context, *Options) ([]DeviceInfo, error) {
	return s.devices, s.err
}

// The registry is global, so these tests do not run in parallel.

func TestDetectAll_RanksVerifiedThenKnown(t *testing.T) {
	RegisterDetector(&stubDetector{transport: "zz-test", devices: []DeviceInfo{
		{Transport: "zz-test", Path: "/dev/ttyS0"},
		{Transport: "zz-test", Path: "/dev/ttyUSB0", Known: true},
		{Transport: "zz-test", Path: "/dev/ttyUSB1", Known: true, Verified: true},
	}})
	t.Cleanup(func() { unregister("zz-test") })

	devices, err := DetectAll(context.Background(), nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(devices), 3)
	assert.Equal(t, "/dev/ttyUSB1", devices[0].Path)
	assert.Equal(t, "/dev/ttyUSB0", devices[1].Path)

	first, err := DetectFirst(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", first.Path)
}

func TestDetectAll_NothingFound(t *testing.T) {
	snapshot := swapRegistry(map[string]Detector{
		"broken": &stubDetector{transport: "broken", err: errors.New("boom")},
		"other":  &stubDetector{transport: "other", err: ErrUnsupportedPlatform},
	})
	t.Cleanup(func() { swapRegistry(snapshot) })

	_, err := DetectAll(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoDevicesFound)
	assert.Contains(t, err.Error(), "boom")
	assert.NotContains(t, err.Error(), "not supported")
}

func TestDetectAll_Cancelled(t *testing.T) {
	snapshot := swapRegistry(map[string]Detector{
		"x": &stubDetector{transport: "x", devices: []DeviceInfo{{Path: "a"}}},
	})
	t.Cleanup(func() { swapRegistry(snapshot) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DetectAll(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDeviceInfoString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "uart:/dev/ttyUSB0 (1A86:7523)",
		DeviceInfo{Transport: "uart", Path: "/dev/ttyUSB0", VIDPID: "1A86:7523"}.String())
	assert.Equal(t, "uart:COM3", DeviceInfo{Transport: "uart", Path: "COM3"}.String())
}

func TestBlocklists(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBlocked("2341:0043", DefaultBlocklist()))
	assert.False(t, IsBlocked("1a86:7523", DefaultBlocklist()))
	assert.True(t, IsBlocked("1a86:7523", KnownBridges()))
	assert.True(t, IsBlocked(" 10c4:ea60 ", KnownBridges()))
	assert.False(t, IsBlocked("", KnownBridges()))
}

func unregister(transport string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, transport)
}

func swapRegistry(next map[string]Detector) map[string]Detector {
	registryMu.Lock()
	defer registryMu.Unlock()
	prev := registry
	registry = next
	return prev
}
