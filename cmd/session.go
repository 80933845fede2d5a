// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

// withSession opens a transport, performs the handshake and runs fn with
// the live session. The session key is reset on the box and the transport
// closed when fn returns, and also on SIGINT/SIGTERM so an interrupted run
// does not leave the box keyed.
func withSession(fn func(*mk312.Session) error) error {
	transport, desc, err := openTransport()
	if err != nil {
		return err
	}

	session := mk312.NewSession(transport,
		mk312.WithTimeout(readTimeout),
		mk312.WithLogger(log),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		log.Warn().Str("signal", sig.String()).Msg("interrupted, resetting session key")
		session.Close()
		os.Exit(1)
	}()
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()

	log.Info().Str("connection", desc).Msg("connecting")

	if _, err := session.Handshake(); err != nil {
		transport.Close()
		return err
	}
	defer session.Close()

	return fn(session)
}

// withDevice runs fn against the register access layer on a fresh session.
func withDevice(fn func(*mk312.Device) error) error {
	return withSession(func(s *mk312.Session) error {
		return fn(mk312.NewDevice(s))
	})
}
