package derive

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"keyfount/internal/util/memzero"
)

// maxScalarAttempts bounds the rejection-sampling loop. A single attempt
// fails with probability under 2^-128, so hitting this bound means the hash
// is broken rather than unlucky.
const maxScalarAttempts = 1 << 16

// hashFunc is the 64-byte hash used to turn buffers into scalar candidates.
// It is a parameter so tests can substitute a biased hash and force the
// rejection loop to retry.
type hashFunc func([]byte) [sha512.Size]byte

func sha512Hash(b []byte) [sha512.Size]byte {
	return sha512.Sum512(b)
}

// deriveScalar maps prefix plus a big-endian 32-bit retry counter to a
// non-zero scalar below the group order. It hashes prefix||counter, reads
// the first 32 digest bytes as a big-endian integer and retries with an
// incremented counter until the candidate is in [1, N). It returns the
// accepted scalar and the counter value that produced it.
//
// The working buffer and every digest are erased before the function
// returns, on success and on failure alike.
func deriveScalar(prefix []byte, hash hashFunc) (*btcec.ModNScalar, uint32, error) {
	buf := make([]byte, len(prefix)+4)
	defer memzero.Zero(buf)
	copy(buf, prefix)

	for counter := uint32(0); counter < maxScalarAttempts; counter++ {
		binary.BigEndian.PutUint32(buf[len(prefix):], counter)

		digest := hash(buf)
		candidate := new(btcec.ModNScalar)
		overflow := candidate.SetByteSlice(digest[:32])
		memzero.Zero64(&digest)

		// Reject zero and anything at or above the group order.
		if !overflow && !candidate.IsZero() {
			return candidate, counter, nil
		}
		candidate.Zero()
	}

	return nil, 0, fmt.Errorf("%w after %d attempts",
		ErrDerivationExhausted, maxScalarAttempts)
}

// childPrefix builds the 37-byte hash prefix for child derivation: the
// 33-byte compressed public generator followed by the big-endian index.
// With the retry counter appended by deriveScalar the hashed buffer is the
// 41-byte generator||index||counter layout.
func childPrefix(pubGen []byte, index uint32) []byte {
	prefix := make([]byte, PointSize+4)
	copy(prefix, pubGen)
	binary.BigEndian.PutUint32(prefix[PointSize:], index)
	return prefix
}
