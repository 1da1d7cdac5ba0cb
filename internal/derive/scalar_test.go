package derive

import (
	"crypto/sha512"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

// hashRecorder is a hashFunc double. It replays any queued digests first and
// falls back to real SHA-512, while recording both the live buffer passed in
// and a snapshot of its contents at call time.
type hashRecorder struct {
	queued [][sha512.Size]byte
	bufs   [][]byte
	snaps  [][]byte
}

func (r *hashRecorder) hash(b []byte) [sha512.Size]byte {
	r.bufs = append(r.bufs, b)
	r.snaps = append(r.snaps, append([]byte(nil), b...))

	if len(r.queued) > 0 {
		d := r.queued[0]
		r.queued = r.queued[1:]
		return d
	}

	return sha512.Sum512(b)
}

// digestWithValue returns a digest whose first 32 bytes read as the given
// big-endian integer.
func digestWithValue(v byte) [sha512.Size]byte {
	var d [sha512.Size]byte
	d[31] = v
	return d
}

// overflowDigest returns a digest whose first 32 bytes exceed the group
// order.
func overflowDigest() [sha512.Size]byte {
	var d [sha512.Size]byte
	for i := 0; i < 32; i++ {
		d[i] = 0xff
	}
	return d
}

func TestDeriveScalarAcceptsFirstValidCandidate(t *testing.T) {
	rec := &hashRecorder{queued: [][sha512.Size]byte{digestWithValue(7)}}

	scalar, counter, err := deriveScalar([]byte("prefix"), rec.hash)
	require.NoError(t, err)
	require.Equal(t, uint32(0), counter)

	want := new(btcec.ModNScalar).SetInt(7)
	require.True(t, scalar.Equals(want))
}

func TestDeriveScalarSkipsZeroCandidate(t *testing.T) {
	rec := &hashRecorder{queued: [][sha512.Size]byte{
		{}, // zero candidate, must be rejected
		digestWithValue(7),
	}}

	scalar, counter, err := deriveScalar([]byte("prefix"), rec.hash)
	require.NoError(t, err)

	// The second candidate must be the one accepted.
	require.Equal(t, uint32(1), counter)
	require.True(t, scalar.Equals(new(btcec.ModNScalar).SetInt(7)))
}

func TestDeriveScalarSkipsOverflowCandidate(t *testing.T) {
	rec := &hashRecorder{queued: [][sha512.Size]byte{
		overflowDigest(), // >= N, must be rejected
		digestWithValue(9),
	}}

	scalar, counter, err := deriveScalar([]byte("prefix"), rec.hash)
	require.NoError(t, err)
	require.Equal(t, uint32(1), counter)
	require.True(t, scalar.Equals(new(btcec.ModNScalar).SetInt(9)))
}

func TestDeriveScalarExhausted(t *testing.T) {
	alwaysZero := func([]byte) [sha512.Size]byte {
		return [sha512.Size]byte{}
	}

	scalar, _, err := deriveScalar([]byte("prefix"), alwaysZero)
	require.ErrorIs(t, err, ErrDerivationExhausted)
	require.Nil(t, scalar)
}

func TestDeriveScalarRootBufferLayout(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	// Force one retry so two buffers are observed.
	rec := &hashRecorder{queued: [][sha512.Size]byte{{}}}

	_, counter, err := deriveScalar(seed, rec.hash)
	require.NoError(t, err)
	require.Equal(t, uint32(1), counter)
	require.Len(t, rec.snaps, 2)

	for i, snap := range rec.snaps {
		require.Len(t, snap, SeedSize+4)
		require.Equal(t, seed, snap[:SeedSize])
		require.Equal(t, uint32(i), binary.BigEndian.Uint32(snap[SeedSize:]))
	}
}

func TestDeriveScalarChildBufferLayout(t *testing.T) {
	seed := Seed{1}
	pair, err := Root(&seed)
	require.NoError(t, err)
	pubGen := pair.Pub.SerializeCompressed()

	const index = uint32(0xdeadbeef)
	rec := &hashRecorder{}

	_, _, err = deriveScalar(childPrefix(pubGen, index), rec.hash)
	require.NoError(t, err)
	require.Len(t, rec.snaps, 1)

	snap := rec.snaps[0]
	require.Len(t, snap, PointSize+8)
	require.Equal(t, pubGen, snap[:PointSize])
	require.Equal(t, index, binary.BigEndian.Uint32(snap[PointSize:PointSize+4]))
	require.Equal(t, uint32(0), binary.BigEndian.Uint32(snap[PointSize+4:]))
}

func TestDeriveScalarErasesBuffer(t *testing.T) {
	rec := &hashRecorder{queued: [][sha512.Size]byte{{}}}

	_, _, err := deriveScalar([]byte("super secret seed"), rec.hash)
	require.NoError(t, err)
	require.NotEmpty(t, rec.bufs)

	// The recorded slices alias the sampler's working buffer. It must be
	// zero-filled by the time deriveScalar returns.
	for _, buf := range rec.bufs {
		require.Equal(t, make([]byte, len(buf)), buf)
	}
}

func TestDeriveScalarErasesBufferOnFailure(t *testing.T) {
	rec := &hashRecorder{}
	alwaysZero := func(b []byte) [sha512.Size]byte {
		rec.hash(b)
		return [sha512.Size]byte{}
	}

	_, _, err := deriveScalar([]byte("super secret seed"), alwaysZero)
	require.ErrorIs(t, err, ErrDerivationExhausted)

	for _, buf := range rec.bufs {
		require.Equal(t, make([]byte, len(buf)), buf)
	}
}
