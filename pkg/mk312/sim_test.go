// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"bytes"
	"errors"
	"time"
)

// simDevice models the box's side of the link well enough to exercise
// the session state machine: sync/ready, key exchange with a fixed
// challenge byte, ciphered register reads/writes against an in-memory
// map, and key reset. It implements Transport and records every raw host
// write for wire-byte assertions.
//
// Fault injection knobs cover the failure-path tests: silent swallows
// everything (handshake timeout), dropNext swallows the next n responses
// (exchange timeout), corruptNext flips a checksum bit, echoWrongAddr
// answers with a bogus address echo, readErr fails reads outright
// (transport fatal).
type simDevice struct {
	challenge byte
	mem       map[uint16]byte

	keyed      bool
	sessionKey byte

	out    bytes.Buffer
	writes [][]byte
	closed bool

	silent        bool
	dropNext      int
	corruptNext   bool
	echoWrongAddr bool
	readErr       error
}

func newSimDevice(challenge byte) *simDevice {
	return &simDevice{
		challenge: challenge,
		mem:       make(map[uint16]byte),
	}
}

func (d *simDevice) Write(p []byte) (int, error) {
	if d.closed {
		return 0, errors.New("transport closed")
	}

	cp := append([]byte(nil), p...)
	d.writes = append(d.writes, cp)

	if !d.silent {
		d.process(cp)
	}
	return len(p), nil
}

func (d *simDevice) Read(p []byte) (int, error) {
	if d.readErr != nil {
		return 0, d.readErr
	}
	if d.closed {
		return 0, errors.New("transport closed")
	}
	if d.out.Len() == 0 {
		// Serial timeout semantics: window elapsed, nothing arrived.
		return 0, nil
	}
	return d.out.Read(p)
}

func (d *simDevice) SetReadTimeout(time.Duration) error { return nil }

func (d *simDevice) Close() error {
	d.closed = true
	return nil
}

func (d *simDevice) process(p []byte) {
	// Sync bytes travel outside the frame envelope. A box still holding a
	// stale key ignores the host's unkeyed sync, which is exactly the
	// documented stuck state.
	if len(p) == 1 {
		if !d.keyed && p[0] == SyncByte {
			if d.dropNext > 0 {
				d.dropNext--
				return
			}
			d.out.WriteByte(ReadyByte)
		}
		return
	}

	if len(p) < frameOverhead {
		return
	}
	marker, length := p[0], int(p[1])
	if len(p) != length+frameOverhead {
		return
	}
	if Checksum(p[:len(p)-1]) != p[len(p)-1] {
		return
	}

	payload := append([]byte(nil), p[2:2+length]...)
	for i := range payload {
		payload[i] ^= d.sessionKey
	}

	switch {
	case marker == OpKeyExchange && length == 1:
		if d.keyed {
			return
		}
		hostKey := payload[0]
		d.respond(ReplyKey, d.challenge)
		d.sessionKey = hostKey ^ d.challenge ^ KeyObfuscator
		d.keyed = true

	case marker == OpRead && length == 2:
		if !d.keyed {
			return
		}
		addr := uint16(payload[0])<<8 | uint16(payload[1])
		d.respond(ReplyRead, d.echo(payload[1]), d.mem[addr])

	case length >= 3 && marker == WriteOpcode(length-2):
		if !d.keyed {
			return
		}
		addr := uint16(payload[0])<<8 | uint16(payload[1])
		data := payload[2:]
		for i, b := range data {
			d.mem[addr+uint16(i)] = b
		}

		d.respond(ReplyWriteAck, d.echo(payload[1]))

		if addr == RegKey.Addr && len(data) == 1 && data[0] == 0x00 {
			d.keyed = false
			d.sessionKey = 0
		}
	}
}

func (d *simDevice) echo(addrLo byte) byte {
	if d.echoWrongAddr {
		return addrLo ^ 0xff
	}
	return addrLo
}

// respond frames and queues a reply, ciphering the payload with the
// current session key.
func (d *simDevice) respond(marker byte, payload ...byte) {
	if d.dropNext > 0 {
		d.dropNext--
		return
	}

	for i := range payload {
		payload[i] ^= d.sessionKey
	}

	frame := []byte{marker, byte(len(payload))}
	frame = append(frame, payload...)
	sum := Checksum(frame)
	if d.corruptNext {
		sum ^= 0x01
		d.corruptNext = false
	}
	frame = append(frame, sum)
	d.out.Write(frame)
}
