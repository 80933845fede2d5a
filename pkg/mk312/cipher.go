// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

// Obscure applies the session-key transformation to a single payload
// byte. The transformation is a per-byte XOR with the key, so Obscure and
// Reveal are mutual inverses for all byte/key pairs. Key 0 is the neutral
// (unkeyed) value.
func Obscure(b, key byte) byte {
	return b ^ key
}

// Reveal removes the session-key transformation from a single payload
// byte.
func Reveal(b, key byte) byte {
	return b ^ key
}

// obscureBytes transforms a payload in place and returns it.
func obscureBytes(p []byte, key byte) []byte {
	if key == 0 {
		return p
	}
	for i := range p {
		p[i] ^= key
	}
	return p
}
