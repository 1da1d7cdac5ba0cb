// Package seed creates and parses the 128-bit seeds that key derivation
// starts from.
package seed

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"keyfount/internal/derive"
	"keyfount/internal/util/memzero"
)

// SaltSize is the byte length of the salt required by Hardened.
const SaltSize = 16

// Generate returns a fresh random seed.
func Generate() (*derive.Seed, error) {
	var s derive.Seed
	if _, err := rand.Read(s[:]); err != nil {
		return nil, err
	}
	return &s, nil
}

// FromPassphrase derives a seed as the first 16 bytes of
// SHA-512(passphrase). This matches the historical passphrase scheme, so a
// passphrase chosen elsewhere reproduces the same account here.
func FromPassphrase(passphrase string) *derive.Seed {
	digest := sha512.Sum512([]byte(passphrase))
	defer memzero.Zero64(&digest)

	var s derive.Seed
	copy(s[:], digest[:derive.SeedSize])
	return &s
}

// Hardened stretches a passphrase into a seed with Argon2id. Unlike
// FromPassphrase, the result is salted and memory-hard, at the cost of not
// being reproducible without the salt.
func Hardened(passphrase string, salt []byte) (*derive.Seed, error) {
	if len(salt) != SaltSize {
		return nil, errors.New("invalid salt size")
	}

	key := argon2.IDKey([]byte(passphrase), salt, 1<<16, 8, 1, derive.SeedSize)
	defer memzero.Zero(key)

	var s derive.Seed
	copy(s[:], key)
	return &s, nil
}

// Parse decodes a seed from its 32-digit hex form.
func Parse(s string) (*derive.Seed, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid seed hex: %w", err)
	}
	defer memzero.Zero(raw)

	if len(raw) != derive.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d",
			derive.SeedSize, len(raw))
	}

	var out derive.Seed
	copy(out[:], raw)
	return &out, nil
}
