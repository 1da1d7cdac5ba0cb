// Package memzero provides best-effort erasure of secret byte buffers.
package memzero

import (
	"crypto/subtle"
	"runtime"
)

// Zero overwrites b with zeros. The write goes through
// subtle.ConstantTimeCopy so the compiler cannot prove the buffer dead
// and elide the store.
//
//go:noinline
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
	runtime.KeepAlive(&b)
}

// Zero64 erases a 64-byte digest in place.
func Zero64(d *[64]byte) {
	Zero(d[:])
}
