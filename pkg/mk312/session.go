// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"errors"
	"fmt"
)

// LinkState is the session's position in the protocol lifecycle. Exactly
// one LinkState exists per session and only Session methods mutate it.
type LinkState int

const (
	LinkDisconnected LinkState = iota
	LinkHandshakeInProgress
	LinkActive
	LinkResetInProgress
)

func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkHandshakeInProgress:
		return "handshake-in-progress"
	case LinkActive:
		return "active"
	case LinkResetInProgress:
		return "reset-in-progress"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session owns one MK-312 link: the transport, the session key, and the
// link state. The protocol is strictly request/response with one
// outstanding exchange; a Session must not be used from multiple
// goroutines without external serialization.
//
// A Session must be released with Close (or at minimum ResetKey) on every
// exit path. The device keeps its key across host disconnects (even
// briefly across power removal) and refuses a fresh handshake while
// keyed, so skipping the reset leaves the box stuck until its internal
// guard time elapses.
type Session struct {
	transport Transport
	cfg       Config

	key   byte
	state LinkState
}

// NewSession wraps an open transport. No bytes are exchanged until
// Handshake.
func NewSession(t Transport, opts ...Option) *Session {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		transport: t,
		cfg:       cfg,
		state:     LinkDisconnected,
	}
}

// Dial opens the named serial port and completes the handshake, returning
// a ready-to-use session. On handshake failure the port is closed before
// returning.
func Dial(portName string, opts ...Option) (*Session, error) {
	t, err := OpenSerial(portName, BaudRate)
	if err != nil {
		return nil, err
	}

	s := NewSession(t, opts...)
	if _, err := s.Handshake(); err != nil {
		t.Close()
		return nil, err
	}
	return s, nil
}

// State returns the current link state.
func (s *Session) State() LinkState {
	return s.state
}

// Key returns the current session key (0 when unkeyed).
func (s *Session) Key() byte {
	return s.key
}

// setState records a link state transition.
func (s *Session) setState(next LinkState) {
	if s.state == next {
		return
	}
	s.cfg.Logger.Debug().
		Stringer("from", s.state).
		Stringer("to", next).
		Msg("link state")
	s.state = next
}

// Handshake establishes the session key. It syncs the link (sync byte
// until the device answers ready, up to the configured retries), then
// runs the key exchange and derives the session key from the device's
// challenge byte. On success the link is Active and the derived key is
// returned. On timeout or a malformed response the link returns to
// Disconnected and the call fails with ErrHandshakeFailed; the caller may
// retry from scratch.
func (s *Session) Handshake() (byte, error) {
	if s.state != LinkDisconnected {
		return 0, fmt.Errorf("%w: handshake requires a disconnected link, not %s", ErrInvalidLinkState, s.state)
	}

	s.setState(LinkHandshakeInProgress)

	if err := s.sync(); err != nil {
		s.setState(LinkDisconnected)
		return 0, fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	frame, err := s.exchange(OpKeyExchange, []byte{s.cfg.HostKey}, ReplyKey, 1)
	if err != nil {
		s.setState(LinkDisconnected)
		return 0, fmt.Errorf("%w: key exchange: %w", ErrHandshakeFailed, err)
	}

	deviceKey := frame.Payload[0]
	s.key = s.cfg.HostKey ^ deviceKey ^ KeyObfuscator
	s.setState(LinkActive)

	s.cfg.Logger.Info().
		Uint8("device_key", deviceKey).
		Uint8("session_key", s.key).
		Msg("handshake complete")

	return s.key, nil
}

// sync repeats the raw sync byte until the device answers ready. The
// exchange runs outside the frame envelope: one byte out, one byte back.
func (s *Session) sync() error {
	var lastErr error = ErrTimeout

	for attempt := 0; attempt < s.cfg.SyncRetries; attempt++ {
		if err := s.writeWire([]byte{Obscure(SyncByte, s.key)}); err != nil {
			return err
		}

		var ready [1]byte
		err := s.readWire(ready[:])
		switch {
		case err == nil && ready[0] == ReadyByte:
			return nil
		case err == nil:
			return &MalformedFrameError{
				Reason: fmt.Sprintf("sync answered 0x%02X, want ready 0x%02X", ready[0], ReadyByte),
			}
		case isFatal(err):
			return err
		default:
			// No answer inside the window; the box may still be waking up.
			lastErr = err
		}
	}

	return lastErr
}

// ReadAddress reads one byte of device memory. Valid only while Active.
func (s *Session) ReadAddress(addr uint16) (byte, error) {
	if s.state != LinkActive {
		return 0, fmt.Errorf("%w: read requires an active link, not %s", ErrInvalidLinkState, s.state)
	}

	frame, err := s.exchange(OpRead, []byte{byte(addr >> 8), byte(addr)}, ReplyRead, 2)
	if err != nil {
		return 0, err
	}
	if frame.Payload[0] != byte(addr) {
		return 0, &UnexpectedResponseError{
			WantMarker: ReplyRead,
			GotMarker:  ReplyRead,
			WantAddr:   addr,
			EchoAddr:   frame.Payload[0],
		}
	}

	value := frame.Payload[1]
	s.cfg.Logger.Debug().
		Uint16("addr", addr).
		Uint8("value", value).
		Msg("read")
	return value, nil
}

// WriteAddress writes one or more bytes to consecutive device addresses
// starting at addr. Valid only while Active.
func (s *Session) WriteAddress(addr uint16, data ...byte) error {
	if s.state != LinkActive {
		return fmt.Errorf("%w: write requires an active link, not %s", ErrInvalidLinkState, s.state)
	}
	return s.writeAddress(addr, data...)
}

// writeAddress is WriteAddress without the state gate, shared with the
// key reset path.
func (s *Session) writeAddress(addr uint16, data ...byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: write needs at least one data byte", ErrValueRange)
	}
	if len(data) > MaxPayloadSize-2 {
		return &FrameTooLargeError{Size: len(data) + 2}
	}

	payload := make([]byte, 0, len(data)+2)
	payload = append(payload, byte(addr>>8), byte(addr))
	payload = append(payload, data...)

	frame, err := s.exchange(WriteOpcode(len(data)), payload, ReplyWriteAck, 1)
	if err != nil {
		return err
	}
	if frame.Payload[0] != byte(addr) {
		return &UnexpectedResponseError{
			WantMarker: ReplyWriteAck,
			GotMarker:  ReplyWriteAck,
			WantAddr:   addr,
			EchoAddr:   frame.Payload[0],
		}
	}

	s.cfg.Logger.Debug().
		Uint16("addr", addr).
		Hex("data", data).
		Msg("write")
	return nil
}

// ResetKey returns the device to the unkeyed state by writing 0x00 to the
// key register, then forces the link Disconnected. The reset is
// best-effort by design: if the acknowledgment is malformed or never
// arrives, the state still drops to Disconnected, because re-handshaking
// is self-correcting while remaining keyed is not. ResetKey never fails
// the caller-visible flow.
func (s *Session) ResetKey() {
	if s.state == LinkDisconnected {
		return
	}

	s.setState(LinkResetInProgress)

	if err := s.writeAddress(RegKey.Addr, 0x00); err != nil {
		s.cfg.Logger.Warn().
			Err(err).
			Msg("key reset unacknowledged; forcing link down")
	} else {
		s.cfg.Logger.Info().Msg("key reset")
	}

	s.key = 0
	s.setState(LinkDisconnected)
}

// Close releases the session: the key is reset (best-effort) and the
// transport is closed. Close is safe on every exit path, including after
// errors.
func (s *Session) Close() error {
	s.ResetKey()
	return s.transport.Close()
}

// exchange runs one framed request/response round trip: cipher the
// payload, frame it, write it, read the fixed-size response, validate,
// decipher. replyLen is the expected response payload length.
func (s *Session) exchange(opcode byte, payload []byte, replyMarker byte, replyLen int) (Frame, error) {
	tx := make([]byte, len(payload))
	copy(tx, payload)
	obscureBytes(tx, s.key)

	wire, err := EncodeFrame(opcode, tx)
	if err != nil {
		return Frame{}, err
	}

	s.cfg.Logger.Trace().Hex("tx", wire).Msg("frame out")
	if err := s.writeWire(wire); err != nil {
		return Frame{}, err
	}

	raw := make([]byte, replyLen+frameOverhead)
	if err := s.readWire(raw); err != nil {
		return Frame{}, err
	}
	s.cfg.Logger.Trace().Hex("rx", raw).Msg("frame in")

	frame, err := DecodeFrame(raw, replyMarker)
	if err != nil {
		s.cfg.Logger.Debug().Err(err).Hex("rx", raw).Msg("response rejected")
		return Frame{}, err
	}

	rx := make([]byte, len(frame.Payload))
	copy(rx, frame.Payload)
	obscureBytes(rx, s.key)
	frame.Payload = rx

	return frame, nil
}

// writeWire pushes bytes to the transport, classifying failures as fatal.
func (s *Session) writeWire(p []byte) error {
	if _, err := s.transport.Write(p); err != nil {
		return s.fatal("write", err)
	}
	return nil
}

// readWire fills buf within the configured timeout. A window with no
// bytes at all, or a partial response that stalls, is ErrTimeout; any
// transport failure is fatal.
func (s *Session) readWire(buf []byte) error {
	if err := s.transport.SetReadTimeout(s.cfg.Timeout); err != nil {
		return s.fatal("set read timeout", err)
	}

	got := 0
	for got < len(buf) {
		n, err := s.transport.Read(buf[got:])
		if err != nil {
			if IsTimeout(err) {
				return ErrTimeout
			}
			return s.fatal("read", err)
		}
		if n == 0 {
			// Serial timeout semantics: the window elapsed with nothing more
			// to read.
			return ErrTimeout
		}
		got += n
	}
	return nil
}

// fatal records a transport failure and forces the link down. The key is
// cleared too: with the channel gone there is nothing left to reset.
func (s *Session) fatal(op string, err error) error {
	terr := &TransportError{Op: op, Err: err}
	s.cfg.Logger.Error().Err(err).Str("op", op).Msg("transport failure")
	s.key = 0
	s.setState(LinkDisconnected)
	return terr
}

// isFatal reports whether an exchange error tore the session down.
func isFatal(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}
