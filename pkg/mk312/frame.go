// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import "fmt"

// Frame is a decoded wire frame: [marker][length][payload...][checksum],
// where length counts payload bytes only and checksum is the sum of
// marker, length and payload bytes mod 256. Frames are built per exchange
// and never mutated after the checksum is computed.
type Frame struct {
	Marker  byte
	Payload []byte
}

// Checksum computes the mod-256 sum checksum over the given bytes.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// EncodeFrame builds the wire bytes for a command frame. The payload is
// copied as-is; ciphering, when a session key is in effect, happens
// before encoding so the checksum covers the bytes actually on the wire.
func EncodeFrame(marker byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, &FrameTooLargeError{Size: len(payload)}
	}

	frame := make([]byte, 0, len(payload)+frameOverhead)
	frame = append(frame, marker, byte(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, Checksum(frame))
	return frame, nil
}

// DecodeFrame validates raw response bytes and returns the contained
// frame. It checks, in order: minimum size, that the declared length
// matches the bytes actually present, the trailing checksum, and the
// expected response marker. A corrupted frame is never interpreted as
// valid data.
//
// DecodeFrame is a pure function of its inputs; the returned payload
// aliases raw.
func DecodeFrame(raw []byte, wantMarker byte) (Frame, error) {
	if len(raw) < frameOverhead {
		return Frame{}, &MalformedFrameError{
			Reason: fmt.Sprintf("short frame: %d bytes", len(raw)),
		}
	}

	marker := raw[0]
	length := int(raw[1])

	if length > MaxPayloadSize {
		return Frame{}, &MalformedFrameError{
			Reason: fmt.Sprintf("declared payload length %d exceeds maximum %d", length, MaxPayloadSize),
		}
	}
	if len(raw) != length+frameOverhead {
		return Frame{}, &MalformedFrameError{
			Reason: fmt.Sprintf("declared payload length %d does not match %d frame bytes", length, len(raw)),
		}
	}

	body := raw[:len(raw)-1]
	want := raw[len(raw)-1]
	if got := Checksum(body); got != want {
		return Frame{}, &ChecksumError{Want: want, Got: got}
	}

	if marker != wantMarker {
		return Frame{}, &UnexpectedResponseError{WantMarker: wantMarker, GotMarker: marker}
	}

	return Frame{Marker: marker, Payload: raw[2 : 2+length]}, nil
}
