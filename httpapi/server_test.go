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

package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/bridge"
	"github.com/ZaparooProject/go-uhf/inventory"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, reader *uhf.MockReader) *Server {
	t.Helper()
	factory := func(out io.Writer) (*bridge.Processor, error) {
		return bridge.New(reader.Opener(), out,
			bridge.WithLogger(discard()),
			bridge.WithDiagnostics(io.Discard),
			bridge.WithInventoryConfig(&inventory.Config{
				BoundedTimeout: 20 * time.Millisecond,
				ScanInterval:   2 * time.Millisecond,
			}),
		)
	}
	s, err := New(factory, discard())
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target string, form url.Values) (int, Response) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestNew_RequiresFactory(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestAction_GetPower(t *testing.T) {
	t.Parallel()

	reader := uhf.NewMockReader()
	s := newTestServer(t, reader)

	status, resp := do(t, s, http.MethodGet, "/api/get-power", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.OK)
	assert.Equal(t, "get-power", resp.Action)
	assert.Equal(t, []string{"OK power=30"}, resp.Output)
	assert.Zero(t, resp.ExitCode)
	assert.Equal(t, 1, reader.ReleaseCount())
}

func TestAction_BridgeQueryAliases(t *testing.T) {
	t.Parallel()

	reader := uhf.NewMockReader()
	s := newTestServer(t, reader)

	status, resp := do(t, s, http.MethodGet, "/bridge?action=SET-POWER&nivel=20", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.OK)
	assert.Equal(t, []string{"OK power=20"}, resp.Output)

	status, resp = do(t, s, http.MethodPost, "/bridge", url.Values{"action": {"set-freq"}, "mode": {"8"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"OK freq=8"}, resp.Output)
}

func TestAction_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "missing action", target: "/bridge", want: "parameter 'action' is required"},
		{name: "not allowed", target: "/api/format-disk", want: "action not allowed"},
		{name: "help is not an action", target: "/bridge?action=help", want: "action not allowed"},
		{name: "write without epc", target: "/api/write-epc", want: "write-epc requires parameter 'epc'"},
		{name: "set-power without level", target: "/api/set-power?level=", want: "requires parameter 'level'"},
		{name: "set-freq without mode", target: "/api/set-freq", want: "requires parameter 'mode'"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reader := uhf.NewMockReader()
			s := newTestServer(t, reader)

			status, resp := do(t, s, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, resp.OK)
			assert.Contains(t, resp.Error, tt.want)
			assert.Equal(t, 1, resp.ExitCode)
			assert.Empty(t, reader.Calls(), "reader must not be touched")
		})
	}
}

func TestAction_FailureReportsCode(t *testing.T) {
	t.Parallel()

	reader := uhf.NewMockReader()
	reader.PowerErr = errors.New("antenna fault")
	s := newTestServer(t, reader)

	status, resp := do(t, s, http.MethodGet, "/api/set-power?level=10", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, resp.OK)
	assert.Equal(t, "POWER_FAILED", resp.Code)
	assert.Equal(t, "POWER_FAILED", resp.Error)
	assert.Equal(t, []string{"ERROR=POWER_FAILED"}, resp.Output)
	assert.Equal(t, 1, resp.ExitCode)
}

func TestAction_InventoryNoTag(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, uhf.NewMockReader())
	_, resp := do(t, s, http.MethodPost, "/api/inventory", url.Values{})
	assert.True(t, resp.OK)
	assert.Equal(t, []string{"NO_TAG"}, resp.Output)
}

func TestAction_ClearErasesUserMemory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		form      url.Values
		name      string
		wantWords uint32
	}{
		{name: "palabras", form: url.Values{"action": {"clear"}, "palabras": {"8"}}, wantWords: 8},
		{name: "words", form: url.Values{"action": {"clear"}, "words": {"4"}}, wantWords: 4},
		{name: "default", form: url.Values{"action": {"clear"}}, wantWords: bridge.DefaultClearUserWords},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reader := uhf.NewMockReader()
			reader.QueueTags(uhf.TagObservation{EPC: "E2801160", PC: "1000"})
			s := newTestServer(t, reader)

			status, resp := do(t, s, http.MethodPost, "/bridge", tt.form)
			assert.Equal(t, http.StatusOK, status)
			assert.True(t, resp.OK, resp.Output)
			assert.Equal(t, "clear", resp.Action)
			assert.Equal(t, []string{"OK"}, resp.Output)

			var writes []*uhf.WriteRequest
			for _, c := range reader.Calls() {
				if c.Method == "WriteMemory" {
					writes = append(writes, c.Write)
				}
			}
			require.Len(t, writes, 1)
			assert.Equal(t, uhf.BankUser, writes[0].Bank)
			assert.Equal(t, tt.wantWords, writes[0].WordCount)
		})
	}
}

func TestAction_ClearEPCZeroesEPC(t *testing.T) {
	t.Parallel()

	reader := uhf.NewMockReader()
	reader.SingleTag = &uhf.TagObservation{EPC: "E2801160", PC: "1000"}
	s := newTestServer(t, reader)

	_, resp := do(t, s, http.MethodGet, "/api/clear-epc", nil)
	assert.True(t, resp.OK)
	assert.Equal(t, []string{"WRITTEN=000000000000000000000000", "OK"}, resp.Output)
}

func TestAction_Busy(t *testing.T) {
	t.Parallel()

	reader := uhf.NewMockReader()
	s := newTestServer(t, reader)
	s.mu.Lock()
	defer s.mu.Unlock()

	status, resp := do(t, s, http.MethodGet, "/api/get-freq", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "reader busy", resp.Error)
	assert.Empty(t, reader.Calls())
}

func TestAction_FactoryError(t *testing.T) {
	t.Parallel()

	s, err := New(func(io.Writer) (*bridge.Processor, error) {
		return nil, errors.New("no device")
	}, discard())
	require.NoError(t, err)

	status, resp := do(t, s, http.MethodGet, "/api/get-freq", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, resp.Error, "failed to create processor: no device")
}

func TestListActionsAndHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, uhf.NewMockReader())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/actions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "clear", body["actions"][0])
	assert.Contains(t, body["actions"], "clear-user")
	assert.Contains(t, body["actions"], "clear-epc")
	assert.Len(t, body["actions"], len(actions))

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestScan_StreamsUntilDisconnect(t *testing.T) {
	t.Parallel()

	reader := uhf.NewMockReader()
	reader.RepeatTag(uhf.TagObservation{EPC: "E2801160", PC: "1000"})
	s := newTestServer(t, reader)
	srv := httptest.NewServer(s)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/scan", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "DETECTED=E2801160", lines.Text())
	require.True(t, lines.Scan())
	assert.Equal(t, "PRESENT=E2801160", lines.Text())
	cancel()

	assert.Eventually(t, func() bool { return reader.ReleaseCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		if !s.mu.TryLock() {
			return false
		}
		s.mu.Unlock()
		return true
	}, time.Second, 5*time.Millisecond)
}
