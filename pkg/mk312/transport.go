// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Transport is the duplex byte channel a Session drives. Reads must honor
// the timeout set via SetReadTimeout: a read that produces no bytes
// within the timeout returns n == 0 with a nil error (serial semantics)
// or an error for which IsTimeout reports true. Any other error is
// treated as fatal to the session.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(d time.Duration) error
	Close() error
}

// timeouter is implemented by transport errors that represent an expired
// read deadline rather than a broken channel (net.Error does).
type timeouter interface {
	Timeout() bool
}

// IsTimeout reports whether a transport read error is a deadline expiry.
func IsTimeout(err error) bool {
	t, ok := err.(timeouter)
	return ok && t.Timeout()
}

// SerialTransport drives the device over a local serial port.
type SerialTransport struct {
	port serial.Port
}

// OpenSerial opens portName with the fixed MK-312 link configuration:
// 19200 baud, 8 data bits, no parity, one stop bit. 19200 is the only
// baud rate the firmware speaks, so any other value is rejected here
// rather than producing garbage on the wire.
func OpenSerial(portName string, baudRate int) (*SerialTransport, error) {
	if baudRate != BaudRate {
		return nil, fmt.Errorf("unsupported baud rate %d: the MK-312 link runs at %d only", baudRate, BaudRate)
	}

	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return &SerialTransport{port: port}, nil
}

func (s *SerialTransport) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialTransport) SetReadTimeout(d time.Duration) error {
	return s.port.SetReadTimeout(d)
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}
