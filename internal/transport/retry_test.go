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

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	retries := 0
	got, err := WithRetry(context.Background(), RetryConfig{
		MaxRetries: 3,
		OnRetry: func() error {
			retries++
			return nil
		},
	}, func() (int, bool, error) {
		attempts++
		return attempts, attempts < 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 2, retries)
}

func TestWithRetry_Exhausted(t *testing.T) {
	t.Parallel()

	failed := false
	_, err := WithRetry(context.Background(), RetryConfig{
		Description: "exchange",
		Port:        "/dev/ttyUSB0",
		MaxRetries:  2,
		OnRetryFailed: func() error {
			failed = true
			return nil
		},
	}, func() (int, bool, error) {
		return 0, true, nil
	})

	require.ErrorIs(t, err, uhf.ErrCommunicationFailed)
	assert.True(t, failed)
	assert.True(t, uhf.IsRetryable(err))
	assert.Contains(t, err.Error(), "exchange on /dev/ttyUSB0")
}

func TestWithRetry_PermanentErrorStops(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	attempts := 0
	_, err := WithRetry(context.Background(), RetryConfig{MaxRetries: 5}, func() (int, bool, error) {
		attempts++
		return 0, false, boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ContextCanceledDuringDelay(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	_, err := WithRetry(ctx, RetryConfig{MaxRetries: 5, RetryDelay: time.Hour}, func() (int, bool, error) {
		cancel()
		return 0, true, nil
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestTimeoutRetry(t *testing.T) {
	t.Parallel()

	_, err := TimeoutRetry(context.Background(), 10*time.Millisecond, func() (int, bool, error) {
		return 0, true, nil
	})
	require.ErrorIs(t, err, uhf.ErrTransportTimeout)
	assert.Equal(t, uhf.ErrorTypeTimeout, uhf.GetErrorType(err))

	got, err := TimeoutRetry(context.Background(), time.Second, func() (string, bool, error) {
		return "ready", false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
}
