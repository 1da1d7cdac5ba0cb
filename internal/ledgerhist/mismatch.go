package ledgerhist

import (
	"bytes"
	"encoding/hex"
	"sort"

	"go.uber.org/zap"
)

type txInfo struct {
	id   Hash
	meta []byte
}

// sortedTxs flattens a ledger's transaction set into id order so two sets
// can be diffed with a single merge walk.
func sortedTxs(l *Ledger) []txInfo {
	txs := make([]txInfo, 0, len(l.Txs))
	for id, meta := range l.Txs {
		txs = append(txs, txInfo{id: id, meta: meta})
	}
	sort.Slice(txs, func(i, j int) bool {
		return bytes.Compare(txs[i].id[:], txs[j].id[:]) < 0
	})
	return txs
}

// analyzeMismatch explains a built/validated disagreement: a divergent
// parent hash points at a sync problem, a divergent close time at a
// consensus failure, and otherwise the transaction sets are diffed.
func (h *History) analyzeMismatch(built, validated Hash) {
	log := h.cfg.Logger

	builtLedger, errBuilt := h.LedgerByHash(built)
	validLedger, errValid := h.LedgerByHash(validated)
	if errBuilt != nil || errValid != nil {
		log.Error("ledger mismatch cannot be analyzed",
			zap.Stringer("built", built),
			zap.Stringer("validated", validated),
		)
		return
	}

	switch {
	case builtLedger.ParentHash != validLedger.ParentHash:
		log.Error("ledger mismatch on prior ledger",
			zap.Uint32("seq", builtLedger.Seq),
			zap.Stringer("built_parent", builtLedger.ParentHash),
			zap.Stringer("valid_parent", validLedger.ParentHash),
		)

	case !builtLedger.CloseTime.Equal(validLedger.CloseTime):
		log.Error("ledger mismatch on close time",
			zap.Uint32("seq", builtLedger.Seq),
			zap.Time("built_close", builtLedger.CloseTime),
			zap.Time("valid_close", validLedger.CloseTime),
		)

	default:
		h.diffTransactions(builtLedger, validLedger)
	}
}

// diffTransactions walks the sorted transaction sets of both ledgers in
// lockstep and logs every transaction present on only one side or carrying
// different metadata on the two sides.
func (h *History) diffTransactions(builtLedger, validLedger *Ledger) {
	log := h.cfg.Logger

	builtTxs := sortedTxs(builtLedger)
	validTxs := sortedTxs(validLedger)

	if txSetsEqual(builtTxs, validTxs) {
		log.Error("ledger mismatch with identical transactions",
			zap.Uint32("seq", builtLedger.Seq),
			zap.Int("tx_count", len(builtTxs)),
		)
		return
	}

	log.Error("ledger mismatch with differing transactions",
		zap.Uint32("seq", builtLedger.Seq),
		zap.Int("built_count", len(builtTxs)),
		zap.Int("valid_count", len(validTxs)),
	)

	b, v := 0, 0
	for b < len(builtTxs) && v < len(validTxs) {
		switch bytes.Compare(builtTxs[b].id[:], validTxs[v].id[:]) {
		case -1:
			h.logOnly(builtTxs[b], "built")
			b++
		case 1:
			h.logOnly(validTxs[v], "validated")
			v++
		default:
			if !bytes.Equal(builtTxs[b].meta, validTxs[v].meta) {
				log.Error("transaction metadata differs",
					zap.Stringer("tx", builtTxs[b].id),
					zap.String("built_meta",
						hex.EncodeToString(builtTxs[b].meta)),
					zap.String("valid_meta",
						hex.EncodeToString(validTxs[v].meta)),
				)
			}
			b++
			v++
		}
	}
	for ; b < len(builtTxs); b++ {
		h.logOnly(builtTxs[b], "built")
	}
	for ; v < len(validTxs); v++ {
		h.logOnly(validTxs[v], "validated")
	}
}

// logOnly reports a transaction that appears on one side of the diff only.
func (h *History) logOnly(tx txInfo, side string) {
	fields := []zap.Field{
		zap.Stringer("tx", tx.id),
		zap.String("only_in", side),
	}
	if len(tx.meta) > 0 {
		fields = append(fields,
			zap.String("metadata", hex.EncodeToString(tx.meta)))
	}
	h.cfg.Logger.Error("transaction in one ledger only", fields...)
}

func txSetsEqual(a, b []txInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].id != b[i].id || !bytes.Equal(a[i].meta, b[i].meta) {
			return false
		}
	}
	return true
}
