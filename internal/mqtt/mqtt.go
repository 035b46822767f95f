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

// Package mqtt publishes scan events to an MQTT broker.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/ZaparooProject/go-uhf/inventory"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// Config holds broker settings.
type Config struct {
	Host       string
	Topic      string
	ClientID   string
	CACert     string
	ClientCert string
	ClientKey  string
	Port       int
	QoS        byte
}

// Client wraps a paho client. A client built without a host is disabled
// and every call is a no-op.
type Client struct {
	client  paho.Client
	logger  *slog.Logger
	topic   string
	qos     byte
	enabled bool
}

type factory func(*paho.ClientOptions) paho.Client

var pahoLogOnce sync.Once

// New creates a client. It does not connect.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	c, err := newClient(cfg, logger, paho.NewClient)
	if err != nil || !c.enabled {
		return c, err
	}
	pahoLogOnce.Do(func() {
		h := c.logger.Handler()
		paho.ERROR = slog.NewLogLogger(h, slog.LevelError)
		paho.CRITICAL = slog.NewLogLogger(h, slog.LevelError)
		paho.WARN = slog.NewLogLogger(h, slog.LevelWarn)
	})
	return c, nil
}

func newClient(cfg Config, logger *slog.Logger, build factory) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{logger: logger, topic: cfg.Topic, qos: cfg.QoS}

	if cfg.Host == "" {
		logger.Debug("mqtt disabled (no host configured)")
		return c, nil
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt topic is required")
	}
	c.enabled = true

	var broker string
	var tlsConfig *tls.Config
	if cfg.CACert != "" || cfg.ClientCert != "" {
		if cfg.Port == 0 {
			cfg.Port = 8883
		}
		broker = fmt.Sprintf("ssl://%s:%d", cfg.Host, cfg.Port)
		var err error
		tlsConfig, err = buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
	} else {
		if cfg.Port == 0 {
			cfg.Port = 1883
		}
		broker = fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetKeepAlive(30*time.Second).
		SetWill(c.statusTopic(), statusOffline, 1, true).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect)
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}
	c.client = build(opts)

	logger.Debug("mqtt configured", "broker", broker, "topic", cfg.Topic)
	return c, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CACert)
		}
		tlsConfig.RootCAs = caPool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Enabled reports whether a broker is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Connect connects to the broker, giving up when ctx ends.
func (c *Client) Connect(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if err := wait(ctx, c.client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Disconnect publishes the offline status and disconnects.
func (c *Client) Disconnect() {
	if !c.enabled || c.client == nil || !c.client.IsConnected() {
		return
	}
	c.client.Publish(c.statusTopic(), 1, true, statusOffline).WaitTimeout(250 * time.Millisecond)
	c.client.Disconnect(250)
}

// Publish sends ev as JSON to the configured topic.
func (c *Client) Publish(ctx context.Context, ev inventory.Event) error {
	if !c.enabled {
		return nil
	}
	payload, err := Payload(ev)
	if err != nil {
		return err
	}
	if err := wait(ctx, c.client.Publish(c.topic, c.qos, false, payload)); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

type eventPayload struct {
	Time   time.Time `json:"time"`
	EPC    string    `json:"epc"`
	PC     string    `json:"pc,omitempty"`
	Kind   string    `json:"kind"`
	Unique int       `json:"unique"`
}

// Payload renders the JSON body published for ev.
func Payload(ev inventory.Event) ([]byte, error) {
	data, err := json.Marshal(eventPayload{
		Time:   ev.When.UTC(),
		EPC:    ev.EPC,
		PC:     ev.PC,
		Kind:   ev.Kind.String(),
		Unique: ev.Unique,
	})
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

func (c *Client) statusTopic() string {
	return c.topic + "/status"
}

func (c *Client) handleConnect(client paho.Client) {
	c.logger.Info("mqtt connected")
	client.Publish(c.statusTopic(), 1, true, statusOnline)
}

func (c *Client) handleConnectionLost(_ paho.Client, err error) {
	c.logger.Warn("mqtt connection lost", "err", err)
}

func wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
