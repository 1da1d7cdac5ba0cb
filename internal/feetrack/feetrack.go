// Package feetrack scales transaction fees by the current server load.
//
// Load is expressed as a level relative to a reference of 256: local load
// rises when the server reports overload strikes and decays back toward the
// reference, while remote and cluster levels are set from outside. Fees are
// scaled by the highest applicable level with overflow-aware arithmetic.
package feetrack

import (
	"sync"

	"go.uber.org/zap"
)

const (
	// referenceLevel is the normal load level; fees scale by
	// level/referenceLevel.
	referenceLevel = 256

	// levelIncFraction raises the local level by 1/4 per accepted strike.
	levelIncFraction = 4

	// levelDecFraction lowers the local level by 1/4 per decay step.
	levelDecFraction = 4

	// maxLevel caps the local load level.
	maxLevel = referenceLevel * 1000000
)

// Tracker holds the local, remote and cluster load levels.
type Tracker struct {
	log *zap.Logger

	mtx         sync.Mutex
	localLevel  uint64
	remoteLevel uint64
	clusterLvl  uint64
	raiseCount  int
}

// New returns a Tracker at the reference load level.
func New(log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		log:         log,
		localLevel:  referenceLevel,
		remoteLevel: referenceLevel,
		clusterLvl:  referenceLevel,
	}
}

// ScaleFeeLoad scales a fee in fee units by the base fee and the current
// load. Admins pay the remote-level fee as long as local load stays under
// four times the remote level.
func (t *Tracker) ScaleFeeLoad(fee, baseFee, refFeeUnits uint64,
	admin bool) uint64 {

	const midrange = uint64(0x00000000ffffffff)

	// For big fees divide first to avoid overflow; for normal fees
	// multiply first to keep precision.
	big := fee > midrange
	if big {
		fee /= refFeeUnits
	} else {
		fee *= baseFee
	}

	t.mtx.Lock()
	feeFactor := max(t.localLevel, t.remoteLevel)
	remoteFee := max(t.remoteLevel, t.clusterLvl)
	if admin && feeFactor > remoteFee && feeFactor < 4*remoteFee {
		feeFactor = remoteFee
	}
	fee = mulDiv(fee, feeFactor, referenceLevel)
	t.mtx.Unlock()

	if big {
		fee *= baseFee
	} else {
		fee /= refFeeUnits
	}

	return fee
}

// ScaleFeeBase converts a fee in fee units to drops, ignoring load.
func (t *Tracker) ScaleFeeBase(fee, baseFee, refFeeUnits uint64) uint64 {
	return mulDiv(fee, baseFee, refFeeUnits)
}

// LoadBase returns the reference load level.
func (t *Tracker) LoadBase() uint64 {
	return referenceLevel
}

// LoadFactor returns the highest of the three load levels.
func (t *Tracker) LoadFactor() uint64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return max(t.clusterLvl, t.localLevel, t.remoteLevel)
}

// LocalLevel returns the local load level.
func (t *Tracker) LocalLevel() uint64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.localLevel
}

// RemoteLevel returns the remote load level.
func (t *Tracker) RemoteLevel() uint64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.remoteLevel
}

// SetRemoteLevel records the load level reported by the network.
func (t *Tracker) SetRemoteLevel(level uint64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.remoteLevel = level
}

// ClusterLevel returns the cluster load level.
func (t *Tracker) ClusterLevel() uint64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.clusterLvl
}

// SetClusterLevel records the load level reported by the cluster.
func (t *Tracker) SetClusterLevel(level uint64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.clusterLvl = level
}

// IsLoadedLocal reports whether this server itself is under load.
func (t *Tracker) IsLoadedLocal() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.raiseCount != 0 || t.localLevel != referenceLevel
}

// IsLoadedCluster reports whether this server or its cluster is under load.
func (t *Tracker) IsLoadedCluster() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.raiseCount != 0 ||
		t.localLevel != referenceLevel ||
		t.clusterLvl != referenceLevel
}

// RaiseLocalLevel registers an overload strike. The level only moves on the
// second consecutive strike; it then rises by a quarter, starting from the
// remote level if that is higher, up to the cap. It reports whether the
// level changed.
func (t *Tracker) RaiseLocalLevel() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.raiseCount++
	if t.raiseCount < 2 {
		return false
	}

	origLevel := t.localLevel
	if t.localLevel < t.remoteLevel {
		t.localLevel = t.remoteLevel
	}
	t.localLevel += t.localLevel / levelIncFraction
	if t.localLevel > maxLevel {
		t.localLevel = maxLevel
	}

	if origLevel == t.localLevel {
		return false
	}

	t.log.Debug("local load level raised",
		zap.Uint64("from", origLevel),
		zap.Uint64("to", t.localLevel),
	)
	return true
}

// LowerLocalLevel decays the local level by a quarter toward the reference
// and clears the strike count. It reports whether the level changed.
func (t *Tracker) LowerLocalLevel() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	origLevel := t.localLevel
	t.raiseCount = 0

	t.localLevel -= t.localLevel / levelDecFraction
	if t.localLevel < referenceLevel {
		t.localLevel = referenceLevel
	}

	if origLevel == t.localLevel {
		return false
	}

	t.log.Debug("local load level lowered",
		zap.Uint64("from", origLevel),
		zap.Uint64("to", t.localLevel),
	)
	return true
}

// mulDiv computes value*mul/div, dividing first for large values to avoid
// overflow and multiplying first otherwise to keep precision.
func mulDiv(value, mul, div uint64) uint64 {
	const boundary = uint64(0x00000000ffffffff)

	if value > boundary {
		return (value / div) * mul
	}
	return (value * mul) / div
}
