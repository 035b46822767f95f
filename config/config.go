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

// Package config loads the bridge configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ZaparooProject/go-uhf/detection"
	"github.com/ZaparooProject/go-uhf/inventory"
	"github.com/ZaparooProject/go-uhf/transport/uart"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Reader    ReaderConfig    `yaml:"reader"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
	Inventory InventoryConfig `yaml:"inventory"`
	Debug     bool            `yaml:"debug"`
}

// ReaderConfig selects and tunes the serial reader. An empty Device means
// auto-detect.
type ReaderConfig struct {
	Device      string        `yaml:"device"`
	IgnorePaths []string      `yaml:"ignore_paths"`
	Blocklist   []string      `yaml:"blocklist"`
	Baud        int           `yaml:"baud"`
	Address     int           `yaml:"address"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	ScanTime    int           `yaml:"scan_time"`
	NoLock      bool          `yaml:"no_lock"`
}

// InventoryConfig holds inventory timing.
type InventoryConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	ScanInterval time.Duration `yaml:"scan_interval"`
}

// MQTTConfig holds broker settings. An empty Host disables publishing.
type MQTTConfig struct {
	Host       string `yaml:"host"`
	Topic      string `yaml:"topic"`
	ClientID   string `yaml:"client_id"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	Port       int    `yaml:"port"`
}

// HTTPConfig holds the JSON bridge settings.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	uartDefaults := uart.DefaultConfig()
	invDefaults := inventory.DefaultConfig()
	return &Config{
		Reader: ReaderConfig{
			Baud:      uartDefaults.BaudRate,
			Address:   int(uartDefaults.Address),
			Timeout:   uartDefaults.Timeout,
			Retries:   uartDefaults.MaxRetries,
			ScanTime:  int(uartDefaults.ScanTime),
			Blocklist: detection.DefaultBlocklist(),
		},
		Inventory: InventoryConfig{
			Timeout:      invDefaults.BoundedTimeout,
			ScanInterval: invDefaults.ScanInterval,
		},
		MQTT: MQTTConfig{
			Topic:    "uhf/tags",
			ClientID: "uhfbridge",
		},
		HTTP: HTTPConfig{
			Listen: "127.0.0.1:8089",
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Reader.Baud <= 0 {
		errs = append(errs, fmt.Errorf("reader.baud must be positive, got %d", c.Reader.Baud))
	}
	if c.Reader.Address < 0 || c.Reader.Address > 0xFF {
		errs = append(errs, fmt.Errorf("reader.address must be 0..255, got %d", c.Reader.Address))
	}
	if c.Reader.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("reader.timeout must be positive, got %v", c.Reader.Timeout))
	}
	if c.Reader.Retries < 0 {
		errs = append(errs, fmt.Errorf("reader.retries cannot be negative, got %d", c.Reader.Retries))
	}
	if c.Reader.ScanTime < 0 || c.Reader.ScanTime > 0xFF {
		errs = append(errs, fmt.Errorf("reader.scan_time must be 0..255, got %d", c.Reader.ScanTime))
	}
	if c.Inventory.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("inventory.timeout must be positive, got %v", c.Inventory.Timeout))
	}
	if c.Inventory.ScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("inventory.scan_interval must be positive, got %v", c.Inventory.ScanInterval))
	}
	if c.MQTT.Port < 0 || c.MQTT.Port > 65535 {
		errs = append(errs, fmt.Errorf("mqtt.port must be 0..65535, got %d", c.MQTT.Port))
	}
	if c.MQTT.Host != "" && c.MQTT.Topic == "" {
		errs = append(errs, errors.New("mqtt.topic is required when mqtt.host is set"))
	}
	return errors.Join(errs...)
}

// InventoryConfig converts the inventory section.
func (c *Config) InventoryConfig(logger *slog.Logger) *inventory.Config {
	return &inventory.Config{
		Logger:         logger,
		BoundedTimeout: c.Inventory.Timeout,
		ScanInterval:   c.Inventory.ScanInterval,
	}
}

// ReaderOptions converts the reader section into driver options.
func (c *Config) ReaderOptions(logger *slog.Logger) []uart.Option {
	return []uart.Option{
		uart.WithBaudRate(c.Reader.Baud),
		uart.WithAddress(byte(c.Reader.Address)),
		uart.WithTimeout(c.Reader.Timeout),
		uart.WithMaxRetries(c.Reader.Retries),
		uart.WithScanTime(byte(c.Reader.ScanTime)),
		uart.WithDeviceLock(!c.Reader.NoLock),
		uart.WithLogger(logger),
	}
}

// DetectOptions converts the reader section into discovery options.
func (c *Config) DetectOptions() detection.Options {
	return detection.Options{
		IgnorePaths: c.Reader.IgnorePaths,
		Blocklist:   c.Reader.Blocklist,
		BaudRate:    c.Reader.Baud,
	}
}
