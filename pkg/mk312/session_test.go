// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func newTestSession(d *simDevice, opts ...Option) *Session {
	opts = append([]Option{WithTimeout(50 * time.Millisecond)}, opts...)
	return NewSession(d, opts...)
}

func TestHandshake_DerivesKey(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	key, err := s.Handshake()
	if err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	// sessionKey = hostKey(0x00) ^ deviceKey(0xA7) ^ 0x55
	if key != 0xf2 {
		t.Errorf("Expected derived key 0xF2, got 0x%02X", key)
	}
	if s.Key() != key {
		t.Errorf("Session key 0x%02X differs from returned key 0x%02X", s.Key(), key)
	}
	if dev.sessionKey != key {
		t.Errorf("Device derived 0x%02X, host derived 0x%02X", dev.sessionKey, key)
	}
	if s.State() != LinkActive {
		t.Errorf("Expected Active after handshake, got %s", s.State())
	}
}

func TestHandshake_HostKeyEntersDerivation(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev, WithHostKey(0x10))

	key, err := s.Handshake()
	if err != nil {
		t.Fatalf("Handshake error: %v", err)
	}
	if key != 0x10^0xa7^0x55 {
		t.Errorf("Expected key 0x%02X, got 0x%02X", 0x10^0xa7^0x55, key)
	}
	if dev.sessionKey != key {
		t.Errorf("Host and device disagree on key: 0x%02X vs 0x%02X", key, dev.sessionKey)
	}
}

func TestHandshake_Timeout(t *testing.T) {
	dev := newSimDevice(0xa7)
	dev.silent = true
	s := newTestSession(dev)

	_, err := s.Handshake()
	if !errors.Is(err, ErrHandshakeFailed) {
		t.Fatalf("Expected ErrHandshakeFailed, got %v", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected wrapped ErrTimeout, got %v", err)
	}
	if s.State() != LinkDisconnected {
		t.Errorf("Expected Disconnected after timed-out handshake, got %s", s.State())
	}

	// All sync attempts should have gone out before giving up.
	if len(dev.writes) != syncRetries {
		t.Errorf("Expected %d sync attempts, got %d", syncRetries, len(dev.writes))
	}
}

func TestHandshake_RetriesSync(t *testing.T) {
	dev := newSimDevice(0xa7)
	dev.dropNext = 2 // swallow the first two sync replies
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake should survive dropped sync replies: %v", err)
	}
	if s.State() != LinkActive {
		t.Errorf("Expected Active, got %s", s.State())
	}
}

func TestHandshake_BadReadyByte(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)
	dev.out.WriteByte(0x05) // wrong answer already queued
	dev.silent = true

	_, err := s.Handshake()
	if !errors.Is(err, ErrHandshakeFailed) {
		t.Fatalf("Expected ErrHandshakeFailed, got %v", err)
	}
	if !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("Expected wrapped ErrMalformedFrame, got %v", err)
	}
	if s.State() != LinkDisconnected {
		t.Errorf("Expected Disconnected, got %s", s.State())
	}
}

func TestHandshake_CorruptKeyReply(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	// The sync reply is a raw byte outside the corruption knob, so arming
	// it here corrupts the first framed response: the key reply.
	dev.corruptNext = true

	_, err := s.Handshake()
	if !errors.Is(err, ErrHandshakeFailed) {
		t.Fatalf("Expected ErrHandshakeFailed, got %v", err)
	}
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected wrapped ErrChecksumMismatch, got %v", err)
	}
	if s.State() != LinkDisconnected {
		t.Errorf("Expected Disconnected, got %s", s.State())
	}
}

func TestHandshake_RequiresDisconnected(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}
	if _, err := s.Handshake(); !errors.Is(err, ErrInvalidLinkState) {
		t.Errorf("Second handshake on active link: expected ErrInvalidLinkState, got %v", err)
	}
}

func TestReadWriteAddress(t *testing.T) {
	dev := newSimDevice(0xa7)
	dev.mem[0x407b] = byte(ModeWaves)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	v, err := s.ReadAddress(0x407b)
	if err != nil {
		t.Fatalf("ReadAddress error: %v", err)
	}
	if v != byte(ModeWaves) {
		t.Errorf("Expected 0x%02X, got 0x%02X", byte(ModeWaves), v)
	}

	if err := s.WriteAddress(0x4064, 0x80); err != nil {
		t.Fatalf("WriteAddress error: %v", err)
	}
	if dev.mem[0x4064] != 0x80 {
		t.Errorf("Device memory not written: 0x%02X", dev.mem[0x4064])
	}

	// Multi-byte write lands on consecutive addresses.
	if err := s.WriteAddress(0x4088, 0x12, 0x34, 0x56); err != nil {
		t.Fatalf("Multi-byte WriteAddress error: %v", err)
	}
	for i, want := range []byte{0x12, 0x34, 0x56} {
		if got := dev.mem[0x4088+uint16(i)]; got != want {
			t.Errorf("mem[0x%04X]: expected 0x%02X, got 0x%02X", 0x4088+i, want, got)
		}
	}
}

func TestReadAddress_RequiresActive(t *testing.T) {
	s := newTestSession(newSimDevice(0xa7))

	if _, err := s.ReadAddress(0x407b); !errors.Is(err, ErrInvalidLinkState) {
		t.Errorf("Expected ErrInvalidLinkState, got %v", err)
	}
	if err := s.WriteAddress(0x4064, 0x00); !errors.Is(err, ErrInvalidLinkState) {
		t.Errorf("Expected ErrInvalidLinkState, got %v", err)
	}
}

func TestRead_TimeoutKeepsSessionActive(t *testing.T) {
	dev := newSimDevice(0xa7)
	dev.mem[0x407b] = 0x42
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	dev.dropNext = 1
	if _, err := s.ReadAddress(0x407b); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if s.State() != LinkActive {
		t.Errorf("Timeout must not change link state: got %s", s.State())
	}

	// The same operation succeeds on retry without a fresh handshake.
	v, err := s.ReadAddress(0x407b)
	if err != nil {
		t.Fatalf("Retry after timeout failed: %v", err)
	}
	if v != 0x42 {
		t.Errorf("Expected 0x42, got 0x%02X", v)
	}
}

func TestRead_ChecksumMismatchKeepsSessionActive(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	dev.corruptNext = true
	if _, err := s.ReadAddress(0x407b); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Expected ErrChecksumMismatch, got %v", err)
	}
	if s.State() != LinkActive {
		t.Errorf("Corrupted exchange must not change link state: got %s", s.State())
	}
}

func TestRead_WrongAddressEcho(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	dev.echoWrongAddr = true
	_, err := s.ReadAddress(0x407b)
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("Expected ErrUnexpectedResponse, got %v", err)
	}

	var uerr *UnexpectedResponseError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected UnexpectedResponseError, got %v", err)
	}
	if uerr.WantAddr != 0x407b {
		t.Errorf("Expected WantAddr 0x407B, got 0x%04X", uerr.WantAddr)
	}
}

func TestResetKey_CleanReconnect(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	s.ResetKey()
	if s.State() != LinkDisconnected {
		t.Errorf("Expected Disconnected after reset, got %s", s.State())
	}
	if s.Key() != 0 {
		t.Errorf("Expected neutral key after reset, got 0x%02X", s.Key())
	}
	if dev.keyed {
		t.Error("Device still keyed after reset")
	}

	// The clean reconnect path: a fresh handshake succeeds immediately.
	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Re-handshake after reset failed: %v", err)
	}
	if s.State() != LinkActive {
		t.Errorf("Expected Active after re-handshake, got %s", s.State())
	}
}

func TestResetKey_BestEffortOnTimeout(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	dev.dropNext = 1 // reset ack never arrives
	s.ResetKey()

	if s.State() != LinkDisconnected {
		t.Errorf("Reset must force Disconnected even on timeout, got %s", s.State())
	}
	if s.Key() != 0 {
		t.Errorf("Expected neutral key, got 0x%02X", s.Key())
	}
}

func TestResetKey_BestEffortOnMalformedAck(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	dev.corruptNext = true
	s.ResetKey()

	if s.State() != LinkDisconnected {
		t.Errorf("Reset must force Disconnected on malformed ack, got %s", s.State())
	}
}

func TestResetKey_NoopWhenDisconnected(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	s.ResetKey()
	if len(dev.writes) != 0 {
		t.Errorf("Reset on a disconnected link wrote %d times to the transport", len(dev.writes))
	}
}

func TestTransportFatal_ForcesDisconnected(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	dev.readErr = errors.New("device unplugged")
	_, err := s.ReadAddress(0x407b)

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if s.State() != LinkDisconnected {
		t.Errorf("Transport failure must force Disconnected, got %s", s.State())
	}
}

func TestClose_ResetsAndClosesTransport(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if s.State() != LinkDisconnected {
		t.Errorf("Expected Disconnected after Close, got %s", s.State())
	}
	if dev.keyed {
		t.Error("Device still keyed after Close")
	}
	if !dev.closed {
		t.Error("Transport not closed")
	}
}

func TestExactWireBytes_NeutralKey(t *testing.T) {
	// End-to-end fixture: challenge 0x55 with host key 0x00 derives the
	// neutral key (0x55 ^ 0x55), so the read request rides the wire in
	// clear.
	dev := newSimDevice(0x55)
	dev.mem[RegCurrentMode.Addr] = byte(ModeWaves)
	s := newTestSession(dev)

	key, err := s.Handshake()
	if err != nil {
		t.Fatalf("Handshake error: %v", err)
	}
	if key != 0x00 {
		t.Fatalf("Expected neutral key for challenge 0x55, got 0x%02X", key)
	}

	dev.writes = nil
	v, err := s.ReadAddress(RegCurrentMode.Addr)
	if err != nil {
		t.Fatalf("ReadAddress error: %v", err)
	}
	if v != byte(ModeWaves) {
		t.Errorf("Expected 0x%02X, got 0x%02X", byte(ModeWaves), v)
	}

	if len(dev.writes) != 1 {
		t.Fatalf("Expected exactly one wire write, got %d", len(dev.writes))
	}
	expected := []byte{0x3c, 0x02, 0x40, 0x7b, 0xf9}
	if !bytes.Equal(dev.writes[0], expected) {
		t.Errorf("Wire bytes mismatch:\n  expected % 02X\n  got      % 02X", expected, dev.writes[0])
	}
}

func TestExactWireBytes_CipheredRead(t *testing.T) {
	// Challenge 0xA7 derives key 0xF2; the address bytes go out obscured
	// while marker, length and checksum ride in clear.
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	dev.writes = nil
	if _, err := s.ReadAddress(0x407b); err != nil {
		t.Fatalf("ReadAddress error: %v", err)
	}

	// 0x40^0xF2=0xB2, 0x7B^0xF2=0x89, checksum 0x3C+0x02+0xB2+0x89 = 0x79
	expected := []byte{0x3c, 0x02, 0xb2, 0x89, 0x79}
	if !bytes.Equal(dev.writes[0], expected) {
		t.Errorf("Wire bytes mismatch:\n  expected % 02X\n  got      % 02X", expected, dev.writes[0])
	}
}

func TestHandshake_SyncWireBytes(t *testing.T) {
	dev := newSimDevice(0xa7)
	s := newTestSession(dev)

	if _, err := s.Handshake(); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}

	// First write is the raw sync byte, second is the key exchange frame
	// [0x2F][0x01][hostKey 0x00][checksum 0x30].
	if len(dev.writes) != 2 {
		t.Fatalf("Expected 2 wire writes for handshake, got %d", len(dev.writes))
	}
	if !bytes.Equal(dev.writes[0], []byte{SyncByte}) {
		t.Errorf("Sync bytes mismatch: % 02X", dev.writes[0])
	}
	expected := []byte{0x2f, 0x01, 0x00, 0x30}
	if !bytes.Equal(dev.writes[1], expected) {
		t.Errorf("Key exchange bytes mismatch:\n  expected % 02X\n  got      % 02X", expected, dev.writes[1])
	}
}

func TestLinkState_String(t *testing.T) {
	tests := []struct {
		state    LinkState
		expected string
	}{
		{LinkDisconnected, "disconnected"},
		{LinkHandshakeInProgress, "handshake-in-progress"},
		{LinkActive, "active"},
		{LinkResetInProgress, "reset-in-progress"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("LinkState(%d).String(): expected %q, got %q", int(tt.state), tt.expected, got)
		}
	}
}
