// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

// Package mk312 implements the serial protocol spoken by the MK-312
// stimulation control unit.
//
// The device exposes a register-addressable memory space over a 19200 baud
// 8N1 link. Before any register access the host must complete a handshake
// that establishes a shared one-byte session key; every payload byte after
// that is XORed with the key until the key is explicitly reset. This
// package provides the frame codec, the key cipher, the session state
// machine, and a named-register layer on top.
package mk312

// Link configuration. The MK-312 firmware only speaks 19200 8N1; BaudRate
// is the single baud rate accepted by the serial transport.
const (
	BaudRate = 19200
)

// Handshake bytes. The sync exchange is raw single bytes, outside the
// frame envelope.
const (
	SyncByte  = 0x00 // host -> device, repeated until the device answers
	ReadyByte = 0x07 // device -> host, link is ready for key exchange
)

// Command opcodes (host -> device). The opcode doubles as the frame
// marker. The write opcode carries the data byte count in its high
// nibble; see WriteOpcode.
const (
	OpKeyExchange = 0x2f
	OpRead        = 0x3c
)

// WriteOpcode returns the write opcode for n data bytes.
func WriteOpcode(n int) byte {
	return byte((0x3+n)<<4 | 0xd)
}

// Response markers (device -> host).
const (
	ReplyKey      = 0x21 // key exchange reply, payload [deviceKey]
	ReplyRead     = 0x22 // read reply, payload [addrLo, value]
	ReplyWriteAck = 0x06 // write acknowledgment, payload [addrLo]
)

// Frame size limits. A frame is [marker][length][payload...][checksum];
// length counts payload bytes only.
const (
	MaxPayloadSize = 16
	frameOverhead  = 3 // marker + length + checksum
	MaxFrameSize   = MaxPayloadSize + frameOverhead
)

// KeyObfuscator is XORed into the derived session key:
// sessionKey = hostKey ^ deviceKey ^ KeyObfuscator.
const KeyObfuscator = 0x55

// syncRetries is the default number of sync attempts before the
// handshake is declared failed.
const syncRetries = 4
