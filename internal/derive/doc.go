// Package derive implements deterministic secp256k1 key derivation from a
// 128-bit seed.
//
// Contents
//
//   - Root key pair derivation from a seed (Root)
//   - Child public key derivation from the encoded root public generator and
//     an index, with no access to private material (PublicChild)
//   - Child private key derivation from the generator, the root private key
//     and an index (PrivateChild)
//
// # Derivation scheme
//
// All scalars come from rejection sampling over a SHA-512 hash chain: the
// input prefix is suffixed with a big-endian 32-bit retry counter, hashed,
// and the first 32 digest bytes are read as a big-endian integer. The first
// candidate that is non-zero and below the group order is accepted. The root
// prefix is the 16-byte seed; the child prefix is the 33-byte compressed
// public generator followed by the big-endian 32-bit index. Child keys obey
//
//	PublicChild(G, i) == PrivateChild(G, k, i).Pub
//
// for a generator G encoding k*basepoint, since both sides derive the same
// offset scalar h and the child key is h*basepoint + G on one side and
// (h + k) mod N on the other.
//
// # Notes
//
// Every transient buffer holding seed bytes, hash digests or raw private
// scalar material is erased on all exit paths, including error paths.
// Functions here are pure and safe for concurrent use.
package derive
