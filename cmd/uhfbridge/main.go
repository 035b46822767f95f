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

// Command uhfbridge runs one reader command and prints result tokens on
// stdout, or serves the commands over HTTP with -serve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	uhf "github.com/ZaparooProject/go-uhf"
	"github.com/ZaparooProject/go-uhf/bridge"
	"github.com/ZaparooProject/go-uhf/config"
	"github.com/ZaparooProject/go-uhf/detection"
	// Registers the serial detector.
	_ "github.com/ZaparooProject/go-uhf/detection/uart"
	"github.com/ZaparooProject/go-uhf/httpapi"
	"github.com/ZaparooProject/go-uhf/internal/mqtt"
	"github.com/ZaparooProject/go-uhf/transport/uart"
)

type flags struct {
	configPath *string
	device     *string
	serve      *string
	baud       *int
	debug      *bool
	detect     *bool
	probe      *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "", "YAML configuration file"),
		device: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyUSB0 or COM3). Leave empty for auto-detection."),
		baud:   flag.Int("baud", 0, "Serial baud rate (default from config, 57600)"),
		debug:  flag.Bool("debug", false, "Enable debug logging and frame tracing"),
		serve:  flag.String("serve", "", "Serve the JSON bridge on this address instead of running a command"),
		detect: flag.Bool("detect", false, "List candidate readers and exit"),
		probe:  flag.Bool("probe", false, "Open each candidate port during detection"),
	}
	flag.Parse()
	return f
}

func main() {
	os.Exit(run())
}

func run() int {
	f := parseFlags()

	cfg := config.Default()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = loaded
	}
	applyFlags(cfg, f)

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
		uhf.SetDebugEnabled(true)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	detectOpts := cfg.DetectOptions()
	if *f.probe {
		detectOpts.Mode = detection.Probe
	}
	if *f.detect {
		return listDevices(ctx, &detectOpts)
	}

	open := newOpener(ctx, cfg, &detectOpts, logger)

	sink, closeSink := connectSink(ctx, cfg, logger)
	defer closeSink()

	procOpts := func(diag io.Writer) []bridge.Option {
		opts := []bridge.Option{
			bridge.WithLogger(logger),
			bridge.WithInventoryConfig(cfg.InventoryConfig(logger)),
			bridge.WithDiagnostics(diag),
		}
		if sink != nil {
			opts = append(opts, bridge.WithEventSink(sink))
		}
		return opts
	}

	if *f.serve != "" {
		return serve(ctx, *f.serve, logger, func(out io.Writer) (*bridge.Processor, error) {
			return bridge.New(open, out, procOpts(io.Discard)...)
		})
	}

	proc, err := bridge.New(open, os.Stdout, procOpts(os.Stderr)...)
	if err != nil {
		logger.Error("failed to create processor", "err", err)
		return 1
	}
	return proc.Execute(ctx, flag.Args()).ExitCode()
}

func applyFlags(cfg *config.Config, f *flags) {
	if *f.device != "" {
		cfg.Reader.Device = *f.device
	}
	if *f.baud > 0 {
		cfg.Reader.Baud = *f.baud
	}
	if *f.debug {
		cfg.Debug = true
	}
	// "uhfbridge serve" listens on the configured address.
	if *f.serve == "" && flag.Arg(0) == "serve" {
		*f.serve = cfg.HTTP.Listen
	}
}

// newOpener returns an opener that resolves the device on first use, so
// commands that never touch the reader do not trigger detection. A detected
// path is reused until detection is needed again.
func newOpener(ctx context.Context, cfg *config.Config, opts *detection.Options, logger *slog.Logger) uhf.Opener {
	var (
		mu     sync.Mutex
		device = cfg.Reader.Device
	)
	return func() (uhf.Reader, error) {
		mu.Lock()
		defer mu.Unlock()
		if device == "" {
			logger.Info("auto-detecting UHF reader")
			info, err := detection.DetectFirst(ctx, opts)
			if err != nil {
				return nil, fmt.Errorf("auto-detect reader: %w", err)
			}
			device = info.Path
			logger.Info("using detected reader", "device", info.String())
		}
		reader, err := uart.New(device, cfg.ReaderOptions(logger)...)
		if err != nil {
			return nil, err
		}
		return reader, nil
	}
}

func connectSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bridge.EventSink, func()) {
	client, err := mqtt.New(mqtt.Config{
		Host:       cfg.MQTT.Host,
		Port:       cfg.MQTT.Port,
		Topic:      cfg.MQTT.Topic,
		ClientID:   cfg.MQTT.ClientID,
		CACert:     cfg.MQTT.CACert,
		ClientCert: cfg.MQTT.ClientCert,
		ClientKey:  cfg.MQTT.ClientKey,
	}, logger)
	if err != nil {
		logger.Warn("mqtt disabled", "err", err)
		return nil, func() {}
	}
	if !client.Enabled() {
		return nil, func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		logger.Warn("mqtt unavailable, scan events will not be published", "err", err)
		return nil, func() {}
	}
	return client, client.Disconnect
}

func listDevices(ctx context.Context, opts *detection.Options) int {
	devices, err := detection.DetectAll(ctx, opts)
	if err != nil {
		slog.Error("detection failed", "err", err)
		return 1
	}
	for _, d := range devices {
		status := "candidate"
		switch {
		case d.Verified:
			status = "verified"
		case d.Known:
			status = "known bridge"
		}
		_, _ = fmt.Printf("%s\t%s\t%s\n", d.Path, d.VIDPID, status)
	}
	return 0
}

func serve(ctx context.Context, addr string, logger *slog.Logger, factory httpapi.ProcessorFactory) int {
	handler, err := httpapi.New(factory, logger)
	if err != nil {
		logger.Error("failed to create http bridge", "err", err)
		return 1
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http bridge listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http bridge failed", "err", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}
	return 0
}
