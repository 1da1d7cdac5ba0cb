package ledgerhist

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightninglabs/neutrino/cache/lru"
	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"
)

const (
	// defaultLedgerCapacity is the number of ledgers kept by hash.
	defaultLedgerCapacity = 96

	// defaultLedgerAge is how long a cached ledger stays sweepable-fresh.
	defaultLedgerAge = 2 * time.Minute

	// consensusCapacity is the number of per-sequence built/validated
	// hash pairs kept.
	consensusCapacity = 64

	// consensusAge is how long a built/validated pair stays fresh.
	consensusAge = 5 * time.Minute
)

// ErrLedgerNotFound is returned when a ledger is neither cached nor
// available from a configured loader.
var ErrLedgerNotFound = errors.New("ledger not found")

// Hash identifies a ledger or a transaction.
type Hash [32]byte

// IsZero reports whether the hash is all zero bytes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the full hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Ledger is an immutable snapshot of one closed ledger. Txs maps each
// transaction id to its metadata blob.
type Ledger struct {
	Seq        uint32
	Hash       Hash
	ParentHash Hash
	CloseTime  time.Time
	Txs        map[Hash][]byte
}

// cachedLedger wraps a ledger with its insertion time for age sweeping.
type cachedLedger struct {
	ledger  *Ledger
	addedAt time.Time
}

// Size returns the cache weight of an entry.
func (c *cachedLedger) Size() (uint64, error) {
	return 1, nil
}

// consensusEntry records the built and validated hashes seen for one
// sequence number. Either hash may be zero until reported.
type consensusEntry struct {
	built     Hash
	validated Hash
	addedAt   time.Time
}

// Size returns the cache weight of an entry.
func (e *consensusEntry) Size() (uint64, error) {
	return 1, nil
}

// Config carries the knobs for a History. Zero values select defaults.
type Config struct {
	// Capacity bounds the number of cached ledgers.
	Capacity int

	// MaxAge is the age past which PurgeExpired drops a cached ledger.
	MaxAge time.Duration

	// Clock supplies time; tests substitute clock.NewTestClock.
	Clock clock.Clock

	// Logger receives mismatch reports.
	Logger *zap.Logger

	// LoadByHash, when set, resolves cache misses by hash.
	LoadByHash func(Hash) (*Ledger, error)

	// LoadBySeq, when set, resolves cache misses by sequence.
	LoadBySeq func(uint32) (*Ledger, error)
}

// History caches ledgers and cross-checks built against validated hashes.
type History struct {
	cfg Config

	mtx        sync.Mutex
	byHash     *lru.Cache[Hash, *cachedLedger]
	byIndex    map[uint32]Hash
	consensus  *lru.Cache[uint32, *consensusEntry]
	mismatches uint64
}

// New builds a History from cfg, filling in defaults.
func New(cfg Config) *History {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultLedgerCapacity
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultLedgerAge
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &History{
		cfg:       cfg,
		byHash:    lru.NewCache[Hash, *cachedLedger](uint64(cfg.Capacity)),
		byIndex:   make(map[uint32]Hash),
		consensus: lru.NewCache[uint32, *consensusEntry](consensusCapacity),
	}
}

// AddLedger caches a ledger by hash and, when validated, records its
// sequence in the index. It reports whether the hash was already cached.
func (h *History) AddLedger(l *Ledger, validated bool) bool {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	_, err := h.byHash.Get(l.Hash)
	alreadyHad := err == nil

	_, _ = h.byHash.Put(l.Hash, &cachedLedger{
		ledger:  l,
		addedAt: h.cfg.Clock.Now(),
	})
	if validated {
		h.byIndex[l.Seq] = l.Hash
	}

	return alreadyHad
}

// LedgerHash returns the validated hash recorded for a sequence.
func (h *History) LedgerHash(seq uint32) (Hash, bool) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	hash, ok := h.byIndex[seq]
	return hash, ok
}

// LedgerByHash returns the cached ledger for hash, falling back to the
// configured loader on a miss.
func (h *History) LedgerByHash(hash Hash) (*Ledger, error) {
	h.mtx.Lock()
	entry, err := h.byHash.Get(hash)
	h.mtx.Unlock()
	if err == nil {
		return entry.ledger, nil
	}

	if h.cfg.LoadByHash == nil {
		return nil, ErrLedgerNotFound
	}
	l, err := h.cfg.LoadByHash(hash)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLedgerNotFound
	}
	if l.Hash != hash {
		return nil, fmt.Errorf("loader returned ledger %v for hash %v",
			l.Hash, hash)
	}

	h.mtx.Lock()
	_, _ = h.byHash.Put(l.Hash, &cachedLedger{
		ledger:  l,
		addedAt: h.cfg.Clock.Now(),
	})
	h.mtx.Unlock()

	return l, nil
}

// LedgerBySeq returns the ledger recorded for a sequence, consulting the
// index first and the configured loader second.
func (h *History) LedgerBySeq(seq uint32) (*Ledger, error) {
	h.mtx.Lock()
	hash, ok := h.byIndex[seq]
	h.mtx.Unlock()

	if ok {
		return h.LedgerByHash(hash)
	}

	if h.cfg.LoadBySeq == nil {
		return nil, ErrLedgerNotFound
	}
	l, err := h.cfg.LoadBySeq(seq)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLedgerNotFound
	}
	if l.Seq != seq {
		return nil, fmt.Errorf("loader returned ledger seq %d for seq %d",
			l.Seq, seq)
	}

	h.mtx.Lock()
	_, _ = h.byHash.Put(l.Hash, &cachedLedger{
		ledger:  l,
		addedAt: h.cfg.Clock.Now(),
	})
	h.byIndex[l.Seq] = l.Hash
	h.mtx.Unlock()

	return l, nil
}

// BuiltLedger records the hash of a locally built ledger. If a different
// validated hash was already recorded for the same sequence, the mismatch
// is counted and analyzed.
func (h *History) BuiltLedger(l *Ledger) {
	h.mtx.Lock()
	entry := h.consensusEntryLocked(l.Seq)

	var validated Hash
	report := false
	if entry.built != l.Hash {
		if !entry.validated.IsZero() && entry.validated != l.Hash {
			report = true
			validated = entry.validated
			h.mismatches++
		}
		entry.built = l.Hash
	}
	h.mtx.Unlock()

	if report {
		h.cfg.Logger.Error("mismatch between built and validated ledger",
			zap.Uint32("seq", l.Seq),
			zap.Stringer("validated", validated),
			zap.Stringer("built", l.Hash),
		)
		h.analyzeMismatch(l.Hash, validated)
	}
}

// ValidatedLedger records the hash of a network-validated ledger. If a
// different built hash was already recorded for the same sequence, the
// mismatch is counted and analyzed.
func (h *History) ValidatedLedger(l *Ledger) {
	h.mtx.Lock()
	entry := h.consensusEntryLocked(l.Seq)

	var built Hash
	report := false
	if entry.validated != l.Hash {
		if !entry.built.IsZero() && entry.built != l.Hash {
			report = true
			built = entry.built
			h.mismatches++
		}
		entry.validated = l.Hash
	}
	h.mtx.Unlock()

	if report {
		h.cfg.Logger.Error("mismatch between built and validated ledger",
			zap.Uint32("seq", l.Seq),
			zap.Stringer("built", built),
			zap.Stringer("validated", l.Hash),
		)
		h.analyzeMismatch(built, l.Hash)
	}
}

// consensusEntryLocked returns the consensus entry for seq, creating it if
// needed. The caller holds h.mtx.
func (h *History) consensusEntryLocked(seq uint32) *consensusEntry {
	entry, err := h.consensus.Get(seq)
	if err != nil {
		entry = &consensusEntry{addedAt: h.cfg.Clock.Now()}
		_, _ = h.consensus.Put(seq, entry)
	}
	return entry
}

// FixIndex repairs the validated hash recorded for a sequence. It returns
// false when an existing, different entry had to be overwritten.
func (h *History) FixIndex(seq uint32, hash Hash) bool {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	current, ok := h.byIndex[seq]
	if ok && current != hash {
		h.byIndex[seq] = hash
		return false
	}
	return true
}

// ClearPrior drops cached ledgers and index entries below seq.
func (h *History) ClearPrior(seq uint32) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	var stale []Hash
	h.byHash.Range(func(hash Hash, entry *cachedLedger) bool {
		if entry.ledger.Seq < seq {
			stale = append(stale, hash)
		}
		return true
	})
	for _, hash := range stale {
		h.byHash.Delete(hash)
	}

	for idx := range h.byIndex {
		if idx < seq {
			delete(h.byIndex, idx)
		}
	}
}

// PurgeExpired drops cached ledgers older than MaxAge and consensus
// entries older than their age limit. Callers drive the sweep; there is no
// background goroutine.
func (h *History) PurgeExpired() {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	now := h.cfg.Clock.Now()

	var staleLedgers []Hash
	h.byHash.Range(func(hash Hash, entry *cachedLedger) bool {
		if entry.addedAt.Add(h.cfg.MaxAge).Before(now) {
			staleLedgers = append(staleLedgers, hash)
		}
		return true
	})
	for _, hash := range staleLedgers {
		h.byHash.Delete(hash)
	}

	var staleSeqs []uint32
	h.consensus.Range(func(seq uint32, entry *consensusEntry) bool {
		if entry.addedAt.Add(consensusAge).Before(now) {
			staleSeqs = append(staleSeqs, seq)
		}
		return true
	})
	for _, seq := range staleSeqs {
		h.consensus.Delete(seq)
	}
}

// MismatchCount returns how many built/validated disagreements were seen.
func (h *History) MismatchCount() uint64 {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	return h.mismatches
}

// Len returns the number of cached ledgers.
func (h *History) Len() int {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	return h.byHash.Len()
}
