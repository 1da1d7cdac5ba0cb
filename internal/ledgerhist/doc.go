// Package ledgerhist tracks recently seen immutable ledger snapshots and
// detects disagreement between locally built and network-validated ledgers.
//
// Contents
//
//   - A bounded, age-limited cache of ledgers keyed by hash, with a
//     sequence-number to hash index for validated ledgers
//   - Recording of the built and validated hash per sequence
//     (BuiltLedger, ValidatedLedger) with mismatch detection
//   - Mismatch analysis that classifies a disagreement as a prior-ledger
//     divergence, a close-time divergence, or a transaction-set difference,
//     logging each differing transaction
//
// # Implementation
//
// Caches are LRU with an entry timestamp; PurgeExpired sweeps entries past
// the configured age on demand. Optional loader callbacks let lookups fall
// back to external storage on a cache miss. All methods are safe for
// concurrent use.
package ledgerhist
