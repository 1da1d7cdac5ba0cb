package derive

import (
	"bytes"
	"crypto/sha512"
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func testSeed(fill byte) *Seed {
	var s Seed
	for i := range s {
		s[i] = fill
	}
	return &s
}

func TestRootDeterministic(t *testing.T) {
	seed := testSeed(0)

	first, err := Root(seed)
	require.NoError(t, err)
	second, err := Root(seed)
	require.NoError(t, err)

	require.Equal(t, first.Priv.Serialize(), second.Priv.Serialize())
	require.Equal(t,
		first.Pub.SerializeCompressed(),
		second.Pub.SerializeCompressed(),
	)
}

func TestRootScenario(t *testing.T) {
	// All-zero seed: derivation succeeds, the private scalar is non-zero
	// and the public point encodes to exactly 33 bytes.
	pair, err := Root(testSeed(0))
	require.NoError(t, err)
	require.False(t, pair.Priv.Key.IsZero())

	pubGen := pair.Pub.SerializeCompressed()
	require.Len(t, pubGen, PointSize)

	// Children at distinct indices are distinct points.
	child0, err := PublicChild(pubGen, 0)
	require.NoError(t, err)
	child1, err := PublicChild(pubGen, 1)
	require.NoError(t, err)
	require.False(t, child0.IsEqual(child1))
}

func TestRootLeavesSeedIntact(t *testing.T) {
	seed := testSeed(0x5a)
	want := *seed

	_, err := Root(seed)
	require.NoError(t, err)
	require.Equal(t, want, *seed)
}

func TestRootForcedRetry(t *testing.T) {
	seed := testSeed(3)

	unbiased, err := Root(seed)
	require.NoError(t, err)

	// A hash that rejects the first candidate moves the accepted counter
	// from 0 to 1, which must change the derived key.
	rec := &hashRecorder{queued: [][sha512.Size]byte{{}}}
	biased, err := root(seed, rec.hash)
	require.NoError(t, err)

	require.False(t, biased.Priv.Key.IsZero())
	require.NotEqual(t, unbiased.Priv.Serialize(), biased.Priv.Serialize())
}

func TestChildConsistency(t *testing.T) {
	seed := testSeed(0x11)
	pair, err := Root(seed)
	require.NoError(t, err)
	pubGen := pair.Pub.SerializeCompressed()

	for _, index := range []uint32{0, 1, 2, math.MaxUint32} {
		viaPublic, err := PublicChild(pubGen, index)
		require.NoError(t, err)

		viaPrivate, err := PrivateChild(pubGen, pair.Priv, index)
		require.NoError(t, err)

		require.True(t, viaPublic.IsEqual(viaPrivate.Pub),
			"index %d: public and private derivation disagree", index)

		// The derived private key must actually generate the derived
		// public point.
		require.True(t,
			viaPrivate.Priv.PubKey().IsEqual(viaPrivate.Pub),
			"index %d", index,
		)
	}
}

func TestChildEncodingRoundTrip(t *testing.T) {
	pair, err := Root(testSeed(0x22))
	require.NoError(t, err)
	pubGen := pair.Pub.SerializeCompressed()

	child, err := PublicChild(pubGen, 5)
	require.NoError(t, err)

	enc := child.SerializeCompressed()
	require.Len(t, enc, PointSize)

	decoded, err := btcec.ParsePubKey(enc)
	require.NoError(t, err)
	require.True(t, child.IsEqual(decoded))
}

func TestPublicChildRejectsWrongLength(t *testing.T) {
	// 32 bytes is a plausible-looking but wrong generator length.
	child, err := PublicChild(make([]byte, 32), 0)
	require.ErrorIs(t, err, ErrInvalidEncoding)
	require.Nil(t, child)

	child, err = PublicChild(nil, 0)
	require.ErrorIs(t, err, ErrInvalidEncoding)
	require.Nil(t, child)

	child, err = PublicChild(make([]byte, 65), 0)
	require.ErrorIs(t, err, ErrInvalidEncoding)
	require.Nil(t, child)
}

func TestPublicChildRejectsOffCurvePoint(t *testing.T) {
	// Correct length, but the X coordinate is not a field element.
	bad := bytes.Repeat([]byte{0xff}, PointSize)
	bad[0] = 0x02

	child, err := PublicChild(bad, 0)
	require.ErrorIs(t, err, ErrInvalidEncoding)
	require.Nil(t, child)
}

func TestPrivateChildRejectsWrongLength(t *testing.T) {
	pair, err := Root(testSeed(0x33))
	require.NoError(t, err)

	child, err := PrivateChild(make([]byte, 32), pair.Priv, 0)
	require.ErrorIs(t, err, ErrInvalidEncoding)
	require.Nil(t, child)
}

func TestPrivateChildDeterministic(t *testing.T) {
	pair, err := Root(testSeed(0x44))
	require.NoError(t, err)
	pubGen := pair.Pub.SerializeCompressed()

	first, err := PrivateChild(pubGen, pair.Priv, 9)
	require.NoError(t, err)
	second, err := PrivateChild(pubGen, pair.Priv, 9)
	require.NoError(t, err)

	require.Equal(t, first.Priv.Serialize(), second.Priv.Serialize())
}

func TestPrivateChildLeavesRootKeyIntact(t *testing.T) {
	pair, err := Root(testSeed(0x55))
	require.NoError(t, err)
	pubGen := pair.Pub.SerializeCompressed()
	want := pair.Priv.Serialize()

	_, err = PrivateChild(pubGen, pair.Priv, 0)
	require.NoError(t, err)
	require.Equal(t, want, pair.Priv.Serialize())
}

func TestDerivationErasesWorkingBuffers(t *testing.T) {
	seed := testSeed(0x66)

	rec := &hashRecorder{}
	pair, err := root(seed, rec.hash)
	require.NoError(t, err)

	for _, buf := range rec.bufs {
		require.Equal(t, make([]byte, len(buf)), buf)
	}

	pubGen := pair.Pub.SerializeCompressed()
	rec = &hashRecorder{}
	_, err = privateChild(pubGen, pair.Priv, 0, rec.hash)
	require.NoError(t, err)

	for _, buf := range rec.bufs {
		require.Equal(t, make([]byte, len(buf)), buf)
	}
}

func TestDerivationConcurrent(t *testing.T) {
	seed := testSeed(0x77)
	pair, err := Root(seed)
	require.NoError(t, err)
	pubGen := pair.Pub.SerializeCompressed()

	reference, err := PublicChild(pubGen, 0)
	require.NoError(t, err)

	const workers = 8
	results := make(chan *btcec.PublicKey, workers)
	for i := 0; i < workers; i++ {
		go func() {
			child, err := PublicChild(pubGen, 0)
			if err != nil {
				results <- nil
				return
			}
			results <- child
		}()
	}

	for i := 0; i < workers; i++ {
		child := <-results
		require.NotNil(t, child)
		require.True(t, reference.IsEqual(child))
	}
}
