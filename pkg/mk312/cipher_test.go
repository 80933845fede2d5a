// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"bytes"
	"testing"
)

func TestCipher_InverseLaw(t *testing.T) {
	// Reveal(Obscure(b, k), k) == b for every byte/key pair.
	for k := 0; k < 256; k++ {
		for b := 0; b < 256; b++ {
			obscured := Obscure(byte(b), byte(k))
			if got := Reveal(obscured, byte(k)); got != byte(b) {
				t.Fatalf("Inverse law broken for b=0x%02X k=0x%02X: got 0x%02X", b, k, got)
			}
		}
	}
}

func TestCipher_NeutralKey(t *testing.T) {
	for b := 0; b < 256; b++ {
		if got := Obscure(byte(b), 0x00); got != byte(b) {
			t.Errorf("Key 0x00 should be neutral: Obscure(0x%02X) = 0x%02X", b, got)
		}
	}
}

func TestCipher_KnownValue(t *testing.T) {
	if got := Obscure(0x3c, 0x55); got != 0x69 {
		t.Errorf("Obscure(0x3C, 0x55): expected 0x69, got 0x%02X", got)
	}
}

func TestObscureBytes_InPlace(t *testing.T) {
	p := []byte{0x40, 0x7b, 0x00}
	got := obscureBytes(p, 0xf2)

	expected := []byte{0xb2, 0x89, 0xf2}
	if !bytes.Equal(got, expected) {
		t.Errorf("Expected % 02X, got % 02X", expected, got)
	}

	// Applying the same key again restores the original.
	obscureBytes(p, 0xf2)
	if !bytes.Equal(p, []byte{0x40, 0x7b, 0x00}) {
		t.Errorf("Double application did not restore payload: % 02X", p)
	}
}
