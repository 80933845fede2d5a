// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds the session configuration.
type Config struct {
	// Timeout bounds every transport read. An exchange whose response does
	// not arrive in full within this window fails with ErrTimeout.
	Timeout time.Duration

	// HostKey is the host half of the key exchange. The stock firmware
	// accepts any value; 0x00 matches the reference captures.
	HostKey byte

	// SyncRetries is the number of sync bytes sent before the handshake is
	// declared failed.
	SyncRetries int

	// Logger receives structured protocol events (state transitions,
	// exchanges, reset anomalies). Severity is chosen by the session;
	// callers select verbosity by configuring the logger's level.
	Logger zerolog.Logger
}

func defaultConfig() Config {
	return Config{
		Timeout:     2 * time.Second,
		HostKey:     0x00,
		SyncRetries: syncRetries,
		Logger:      zerolog.Nop(),
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithTimeout sets the transport read timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithHostKey sets the host half of the key exchange.
func WithHostKey(key byte) Option {
	return func(c *Config) {
		c.HostKey = key
	}
}

// WithSyncRetries sets the number of handshake sync attempts.
func WithSyncRetries(retries int) Option {
	return func(c *Config) {
		if retries > 0 {
			c.SyncRetries = retries
		}
	}
}

// WithLogger sets the structured event sink.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).Level(zerolog.DebugLevel)
//	s := mk312.NewSession(t, mk312.WithLogger(logger))
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
