package derive

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"keyfount/internal/util/memzero"
)

const (
	// SeedSize is the byte length of a derivation seed.
	SeedSize = 16

	// PointSize is the byte length of a compressed secp256k1 point, the
	// only external point representation used by this package.
	PointSize = 33
)

// Seed is a 128-bit secret from which a root key pair is derived.
type Seed [SeedSize]byte

// Zero erases the seed in place.
func (s *Seed) Zero() {
	memzero.Zero(s[:])
}

// RootKeyPair is the top-level key pair for one account. The compressed
// encoding of Pub is the public generator for all child derivations.
type RootKeyPair struct {
	Priv *btcec.PrivateKey
	Pub  *btcec.PublicKey
}

// Zero erases the private half of the pair.
func (r *RootKeyPair) Zero() {
	if r.Priv != nil {
		r.Priv.Zero()
	}
}

// ChildKeyPair is a derived key pair. Priv is nil when only public
// derivation was requested.
type ChildKeyPair struct {
	Priv *btcec.PrivateKey
	Pub  *btcec.PublicKey
}

// Zero erases the private half of the pair, if present.
func (c *ChildKeyPair) Zero() {
	if c.Priv != nil {
		c.Priv.Zero()
	}
}

// Root derives the root key pair for seed. The private scalar comes from
// rejection sampling over SHA-512(seed||counter) and the public point is
// its base-point multiple. The same seed always yields the same pair.
func Root(seed *Seed) (*RootKeyPair, error) {
	return root(seed, sha512Hash)
}

func root(seed *Seed, hash hashFunc) (*RootKeyPair, error) {
	scalar, _, err := deriveScalar(seed[:], hash)
	if err != nil {
		return nil, err
	}

	priv := &btcec.PrivateKey{Key: *scalar}
	scalar.Zero()

	pub := priv.PubKey()
	if !pub.IsOnCurve() {
		priv.Zero()
		return nil, fmt.Errorf("%w: root public key not on curve",
			ErrCurveOperation)
	}

	return &RootKeyPair{Priv: priv, Pub: pub}, nil
}

// PublicChild derives the child public key for index from the encoded
// public generator alone:
//
//	child := h*G + rootPub, h = deriveScalar(pubGen||index)
//
// No private material is touched, so this is safe to expose to parties
// holding only the generator.
func PublicChild(pubGen []byte, index uint32) (*btcec.PublicKey, error) {
	return publicChild(pubGen, index, sha512Hash)
}

func publicChild(pubGen []byte, index uint32,
	hash hashFunc) (*btcec.PublicKey, error) {

	rootPub, err := parseGenerator(pubGen)
	if err != nil {
		return nil, err
	}

	offset, _, err := deriveScalar(childPrefix(pubGen, index), hash)
	if err != nil {
		return nil, err
	}

	var offsetJ, rootJ, childJ btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(offset, &offsetJ)
	offset.Zero()

	rootPub.AsJacobian(&rootJ)
	btcec.AddNonConst(&offsetJ, &rootJ, &childJ)
	childJ.ToAffine()

	// The point at infinity has no compressed encoding and cannot serve
	// as a public key. ToAffine leaves both coordinates zero for it.
	if childJ.X.IsZero() && childJ.Y.IsZero() {
		return nil, fmt.Errorf("%w: child key is the point at infinity",
			ErrCurveOperation)
	}

	return btcec.NewPublicKey(&childJ.X, &childJ.Y), nil
}

// PrivateChild derives the child key pair for index from the encoded public
// generator and the root private key:
//
//	childPriv := (h + rootPriv) mod N, h = deriveScalar(pubGen||index)
//
// The offset scalar h is identical to the one PublicChild uses, so the
// returned public key matches PublicChild's output for the same generator
// and index.
func PrivateChild(pubGen []byte, rootPriv *btcec.PrivateKey,
	index uint32) (*ChildKeyPair, error) {

	return privateChild(pubGen, rootPriv, index, sha512Hash)
}

func privateChild(pubGen []byte, rootPriv *btcec.PrivateKey, index uint32,
	hash hashFunc) (*ChildKeyPair, error) {

	if len(pubGen) != PointSize {
		return nil, fmt.Errorf("%w: generator must be %d bytes, got %d",
			ErrInvalidEncoding, PointSize, len(pubGen))
	}

	offset, _, err := deriveScalar(childPrefix(pubGen, index), hash)
	if err != nil {
		return nil, err
	}

	offset.Add(&rootPriv.Key)
	if offset.IsZero() {
		return nil, fmt.Errorf("%w: derived child private key is zero",
			ErrCurveOperation)
	}

	priv := &btcec.PrivateKey{Key: *offset}
	offset.Zero()

	return &ChildKeyPair{Priv: priv, Pub: priv.PubKey()}, nil
}

// parseGenerator decodes a compressed public generator, rejecting any
// encoding that is not exactly the 33-byte compressed form.
func parseGenerator(pubGen []byte) (*btcec.PublicKey, error) {
	if len(pubGen) != PointSize {
		return nil, fmt.Errorf("%w: generator must be %d bytes, got %d",
			ErrInvalidEncoding, PointSize, len(pubGen))
	}

	pub, err := btcec.ParsePubKey(pubGen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	return pub, nil
}
