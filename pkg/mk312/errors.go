// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match these with errors.Is; the structured
// variants below additionally expose fields via errors.As.
var (
	// ErrTimeout is returned when no complete response arrives within the
	// configured read timeout. The link state is left unchanged (an Active
	// session stays Active) so the caller may retry the same operation.
	ErrTimeout = errors.New("mk312: response timeout")

	// ErrHandshakeFailed is returned when the handshake exchange times out
	// or yields an invalid response. The session returns to Disconnected;
	// the caller may retry the handshake from scratch.
	ErrHandshakeFailed = errors.New("mk312: handshake failed")

	// ErrChecksumMismatch matches any ChecksumError.
	ErrChecksumMismatch = errors.New("mk312: checksum mismatch")

	// ErrMalformedFrame matches any MalformedFrameError.
	ErrMalformedFrame = errors.New("mk312: malformed frame")

	// ErrUnexpectedResponse matches any UnexpectedResponseError.
	ErrUnexpectedResponse = errors.New("mk312: unexpected response")

	// ErrInvalidLinkState is returned for operations on a session that is
	// not in the state the operation requires: register access before the
	// handshake completed, or a handshake on an already-keyed link.
	ErrInvalidLinkState = errors.New("mk312: operation not valid in current link state")

	// ErrValueRange is returned when a value does not fit the target
	// register's declared width, or falls outside a device-imposed range
	// (multi-adjust). Local validation; nothing reaches the transport.
	ErrValueRange = errors.New("mk312: value out of range")
)

// ChecksumError reports a received frame whose trailing checksum does not
// match the sum of its bytes. The exchange is treated as corrupted, not
// fatal; the caller may retry the same logical operation.
type ChecksumError struct {
	Want byte // checksum carried by the frame
	Got  byte // checksum computed from the received bytes
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("mk312: checksum mismatch: frame carries 0x%02X, computed 0x%02X", e.Want, e.Got)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrChecksumMismatch }

// MalformedFrameError reports received bytes that fail structural
// validation before the checksum is even considered.
type MalformedFrameError struct {
	Reason string
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("mk312: malformed frame: %s", e.Reason)
}

func (e *MalformedFrameError) Is(target error) bool { return target == ErrMalformedFrame }

// UnexpectedResponseError reports a response that decoded cleanly but does
// not belong to the outstanding request: wrong reply marker, or an echoed
// address that differs from the one requested. It signals possible
// desynchronization; the caller should treat the session as suspect and
// re-handshake.
type UnexpectedResponseError struct {
	WantMarker byte
	GotMarker  byte
	WantAddr   uint16
	EchoAddr   byte
}

func (e *UnexpectedResponseError) Error() string {
	if e.WantMarker != e.GotMarker {
		return fmt.Sprintf("mk312: unexpected response marker 0x%02X (want 0x%02X)", e.GotMarker, e.WantMarker)
	}
	return fmt.Sprintf("mk312: response echoes address low byte 0x%02X, request was 0x%04X", e.EchoAddr, e.WantAddr)
}

func (e *UnexpectedResponseError) Is(target error) bool { return target == ErrUnexpectedResponse }

// FrameTooLargeError reports a command payload exceeding MaxPayloadSize.
// Local validation only; nothing reaches the transport.
type FrameTooLargeError struct {
	Size int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("mk312: frame payload too large: %d bytes (max %d)", e.Size, MaxPayloadSize)
}

// AccessModeError reports a register access rejected by its declared
// access mode (write to read-only, read of write-only). Local validation
// only; nothing reaches the transport.
type AccessModeError struct {
	Register Register
	Op       string // "read" or "write"
}

func (e *AccessModeError) Error() string {
	return fmt.Sprintf("mk312: register %s (0x%04X) does not permit %s (access %s)",
		e.Register.Name, e.Register.Addr, e.Op, e.Register.Access)
}

// TransportError reports a failure of the underlying byte channel. Always
// fatal to the session; the session forces itself Disconnected.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mk312: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
