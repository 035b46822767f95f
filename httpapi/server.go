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

// Package httpapi exposes the command processor as a JSON action endpoint.
package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ZaparooProject/go-uhf/bridge"
)

// ProcessorFactory builds a processor writing result lines to out.
type ProcessorFactory func(out io.Writer) (*bridge.Processor, error)

// action describes one allowed request. params lists the accepted names of
// the single positional argument, the first being canonical. command is the
// processor command run for it, the action name when empty.
type action struct {
	command  string
	params   []string
	required bool
}

// HTTP "clear" erases USER memory as the PHP bridge did; zeroing the EPC
// needs the explicit "clear-epc".
var actions = map[string]action{
	"inventory":    {},
	"scan":         {},
	"read-epc":     {},
	"write-epc":    {params: []string{"epc"}, required: true},
	"clear":        {command: "clear-user", params: []string{"words", "palabras"}},
	"clear-epc":    {command: "clear"},
	"clear-user":   {params: []string{"words", "palabras"}},
	"clear-filter": {},
	"set-power":    {params: []string{"level", "nivel"}, required: true},
	"get-power":    {},
	"get-freq":     {},
	"set-freq":     {params: []string{"mode", "modo"}, required: true},
}

var (
	errMissingAction = errors.New("parameter 'action' is required")
	errNotAllowed    = errors.New("action not allowed")
	errBusy          = errors.New("reader busy")
)

// Response is the JSON body of every non-streaming reply.
type Response struct {
	Action   string   `json:"action,omitempty"`
	Error    string   `json:"error,omitempty"`
	Code     string   `json:"code,omitempty"`
	Output   []string `json:"output,omitempty"`
	ExitCode int      `json:"exit_code"`
	OK       bool     `json:"ok"`
}

// Server serializes requests onto one reader.
type Server struct {
	factory ProcessorFactory
	logger  *slog.Logger
	router  *mux.Router
	mu      sync.Mutex
}

// New creates a server.
func New(factory ProcessorFactory, logger *slog.Logger) (*Server, error) {
	if factory == nil {
		return nil, errors.New("processor factory cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{factory: factory, logger: logger, router: mux.NewRouter()}
	s.router.HandleFunc("/api/actions", s.listActions).Methods(http.MethodGet)
	s.router.HandleFunc("/api/{action}", s.handleAction).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/bridge", s.handleAction).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) listActions(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	s.writeJSON(w, http.StatusOK, map[string][]string{"actions": names})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name, args, err := parseRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, Response{Action: name, Error: err.Error(), ExitCode: 1})
		return
	}

	if !s.mu.TryLock() {
		s.writeJSON(w, http.StatusConflict, Response{Action: name, Error: errBusy.Error(), ExitCode: 1})
		return
	}
	defer s.mu.Unlock()

	if name == "scan" {
		s.stream(w, r, args)
		return
	}

	var buf bytes.Buffer
	proc, err := s.factory(&buf)
	if err != nil {
		err = errors.Wrap(err, "failed to create processor")
		s.logger.Error("processor setup", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, Response{Action: name, Error: err.Error(), ExitCode: 1})
		return
	}

	outcome := proc.Execute(r.Context(), args)
	resp := Response{
		Action:   name,
		OK:       !outcome.Failed(),
		Code:     string(outcome.Code),
		Output:   splitLines(buf.String()),
		ExitCode: outcome.ExitCode(),
	}
	if outcome.Failed() {
		resp.Error = string(outcome.Code)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// stream runs scan and flushes each result line until the client goes away.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, args []string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, Response{Action: "scan", Error: "streaming unsupported", ExitCode: 1})
		return
	}

	proc, err := s.factory(&flushWriter{w: w, f: flusher})
	if err != nil {
		err = errors.Wrap(err, "failed to create processor")
		s.writeJSON(w, http.StatusInternalServerError, Response{Action: "scan", Error: err.Error(), ExitCode: 1})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	outcome := proc.Execute(r.Context(), args)
	s.logger.Debug("scan stream closed", "lines", outcome.Lines, "code", outcome.Code)
}

func parseRequest(r *http.Request) (string, []string, error) {
	if err := r.ParseForm(); err != nil {
		return "", nil, errors.Wrap(err, "invalid form")
	}
	name := mux.Vars(r)["action"]
	if name == "" {
		name = r.Form.Get("action")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", nil, errMissingAction
	}

	want, ok := actions[name]
	if !ok {
		return name, nil, errors.Wrapf(errNotAllowed, "%q", name)
	}

	command := want.command
	if command == "" {
		command = name
	}
	args := []string{command}
	for _, p := range want.params {
		if v := strings.TrimSpace(r.Form.Get(p)); v != "" {
			args = append(args, v)
			break
		}
	}
	if want.required && len(args) == 1 {
		return name, nil, errors.Errorf("%s requires parameter '%s'", name, want.params[0])
	}
	return name, args, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

type flushWriter struct {
	w io.Writer
	f http.Flusher
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	fw.f.Flush()
	return n, err
}
