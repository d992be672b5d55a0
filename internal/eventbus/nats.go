/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus forwards in-process events to NATS so other services can
// react to schedule and meeting type changes.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/friendsincode/slotwise/internal/events"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "slotwise.events."

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		Name:          "slotwise",
		MaxReconnects: -1, // Unlimited
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// publisher is the subset of *nats.Conn used by the forwarder.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Forwarder relays bus events to NATS subjects.
type Forwarder struct {
	bus    *events.Bus
	pub    publisher
	conn   *nats.Conn
	logger zerolog.Logger
	nodeID string

	wg sync.WaitGroup
}

// Connect dials NATS and returns a forwarder for bus.
func Connect(cfg NATSConfig, bus *events.Bus, logger zerolog.Logger) (*Forwarder, error) {
	logger = logger.With().Str("component", "eventbus").Logger()

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	f := newForwarder(bus, conn, logger)
	f.conn = conn
	logger.Info().Str("url", cfg.URL).Str("node_id", f.nodeID).Msg("nats forwarder connected")
	return f, nil
}

func newForwarder(bus *events.Bus, pub publisher, logger zerolog.Logger) *Forwarder {
	return &Forwarder{
		bus:    bus,
		pub:    pub,
		logger: logger,
		nodeID: generateNodeID(),
	}
}

// Run forwards events until ctx is cancelled.
func (f *Forwarder) Run(ctx context.Context) {
	for _, eventType := range events.Types {
		sub := f.bus.Subscribe(eventType)
		f.wg.Add(1)
		go func(eventType events.EventType, sub events.Subscriber) {
			defer f.wg.Done()
			defer f.bus.Unsubscribe(eventType, sub)
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-sub:
					if !ok {
						return
					}
					f.forward(eventType, payload)
				}
			}
		}(eventType, sub)
	}
	f.wg.Wait()
}

func (f *Forwarder) forward(eventType events.EventType, payload events.Payload) {
	data, err := marshalNATSMessage(eventType, payload, f.nodeID)
	if err != nil {
		f.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("encode event")
		return
	}
	if err := f.pub.Publish(Subject(eventType), data); err != nil {
		f.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("publish event")
		return
	}
	f.logger.Debug().Str("event_type", string(eventType)).Msg("event forwarded")
}

// Close drains the NATS connection.
func (f *Forwarder) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Drain()
}

// Subject returns the NATS subject for an event type.
func Subject(eventType events.EventType) string {
	return SubjectPrefix + string(eventType)
}

// natsMessage represents a message published to NATS.
type natsMessage struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

func marshalNATSMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	msg := natsMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	}
	return json.Marshal(msg)
}

func generateNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "node"
	}
	return host + "-" + uuid.NewString()[:8]
}
