package memzero

import (
	"bytes"
	"testing"
)

func TestZero(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	Zero(b)
	if !bytes.Equal(b, make([]byte, 4)) {
		t.Fatalf("Zero left residue: %x", b)
	}
}

func TestZeroEmpty(t *testing.T) {
	Zero(nil)
	Zero([]byte{})
}

func TestZero64(t *testing.T) {
	var d [64]byte
	for i := range d {
		d[i] = byte(i + 1)
	}
	Zero64(&d)
	if d != ([64]byte{}) {
		t.Fatalf("Zero64 left residue: %x", d)
	}
}
