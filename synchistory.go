package sstv

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

/*
 * Sync history and mode arbiter.
 *
 * New relative to the teacher, which is VIS-only; the ring idiom is
 * grounded on the teacher's circular-buffer shape (pcm_buffer.go), and
 * the variance gate uses gonum/stat rather than a hand-rolled variance
 * loop since gonum is already the project's numerical dependency.
 */

// syncHistoryDepth bounds how many recent pulses of a given width are
// kept for interval statistics; spec.md doesn't name a count, so this is
// sized generously for a stable mean/stddev without unbounded growth.
const syncHistoryDepth = 8

type syncRecord struct {
	sampleIndex     int
	frequencyOffset float64
}

// syncRing is a bounded, most-recent-N history of sync pulses of one
// nominal width.
type syncRing struct {
	entries []syncRecord
}

func newSyncRing() *syncRing {
	return &syncRing{entries: make([]syncRecord, 0, syncHistoryDepth)}
}

func (r *syncRing) push(rec syncRecord) {
	r.entries = append(r.entries, rec)
	if len(r.entries) > syncHistoryDepth {
		r.entries = r.entries[len(r.entries)-syncHistoryDepth:]
	}
}

// shift subtracts k from every stored sample index, dropping entries
// that would go negative — the sync-history half of the ring buffer's
// origin-shift contract in spec.md §3/§8.
func (r *syncRing) shift(k int) {
	kept := r.entries[:0]
	for _, e := range r.entries {
		e.sampleIndex -= k
		if e.sampleIndex >= 0 {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

// intervals returns the inter-pulse sample deltas across the retained
// history, in chronological order.
func (r *syncRing) intervals() []float64 {
	if len(r.entries) < 2 {
		return nil
	}
	out := make([]float64, 0, len(r.entries)-1)
	for i := 1; i < len(r.entries); i++ {
		out = append(out, float64(r.entries[i].sampleIndex-r.entries[i-1].sampleIndex))
	}
	return out
}

func widthBucketIndex(widthMs float64) int {
	switch widthMs {
	case 5:
		return 0
	case 9:
		return 1
	default:
		return 2
	}
}

// modeArbiter implements spec.md §4.6's latch/override rules: a
// timing-based latch from sync-interval statistics, overridable by a
// successful VIS decode under the priority rule of §4.6's last bullet.
type modeArbiter struct {
	sampleRate float64
	rings      [3]*syncRing
	latched    *Mode
}

func newModeArbiter(sampleRate float64) *modeArbiter {
	return &modeArbiter{
		sampleRate: sampleRate,
		rings:      [3]*syncRing{newSyncRing(), newSyncRing(), newSyncRing()},
	}
}

// Shift rebases every ring's stored sample indices after a ring-buffer
// compaction, per the origin-shift contract.
func (a *modeArbiter) Shift(k int) {
	for _, r := range a.rings {
		r.shift(k)
	}
}

// Latched returns the currently latched mode, or nil.
func (a *modeArbiter) Latched() *Mode {
	return a.latched
}

// Observe records a new sync pulse and re-evaluates the timing-based
// latch. It returns the newly-latched mode and true only on a fresh
// timing latch (i.e. when no mode was previously latched); re-confirming
// an already-latched mode, or rejecting a drifted candidate, returns
// (currentLatch, false).
func (a *modeArbiter) Observe(event syncPulseEvent) (*Mode, bool) {
	ring := a.rings[widthBucketIndex(event.widthMs)]
	ring.push(syncRecord{sampleIndex: event.sampleIndex, frequencyOffset: event.frequencyOffset})

	intervals := ring.intervals()
	if len(intervals) < 2 {
		return a.latched, false
	}

	mean, std := stat.MeanStdDev(intervals, nil)
	oneMs := 0.001 * a.sampleRate
	if std > oneMs {
		return a.latched, false
	}

	if a.latched != nil {
		expected := a.latched.LineTime * a.sampleRate
		if math.Abs(mean-expected) <= oneMs {
			return a.latched, false
		}
		return a.latched, false // drift beyond tolerance: ignored, latch unchanged
	}

	best, dist := a.nearestCandidate(event.widthMs, mean)
	if best == nil || dist > oneMs {
		return nil, false
	}
	a.latched = best
	return best, true
}

func (a *modeArbiter) nearestCandidate(widthMs, meanInterval float64) (*Mode, float64) {
	w5, w9, w20 := CategorizeBySyncWidth()
	var pool []*Mode
	switch widthMs {
	case 5:
		pool = w5
	case 9:
		pool = w9
	default:
		pool = w20
	}

	var best *Mode
	bestDist := math.Inf(1)
	for _, m := range pool {
		expected := m.LineTime * a.sampleRate
		d := math.Abs(meanInterval - expected)
		if d < bestDist {
			bestDist = d
			best = m
		}
	}
	return best, bestDist
}

// ObserveVIS applies a successful VIS decode. imageFractionDecoded is the
// proportion (0..1) of the currently latched image already decoded. Per
// §4.6's override rule, VIS always wins when nothing is latched; when a
// mode is already latched, VIS overrides only if less than 10% of the
// image has been decoded, or the new mode's sync pulse width is within
// 5ms of the currently latched mode's.
func (a *modeArbiter) ObserveVIS(mode *Mode, imageFractionDecoded float64) (*Mode, bool) {
	if a.latched == nil {
		a.latched = mode
		return mode, true
	}
	withinProgress := imageFractionDecoded < 0.10
	withinSyncWidth := math.Abs(mode.SyncPulse*1000-a.latched.SyncPulse*1000) <= 5
	if withinProgress || withinSyncWidth {
		a.latched = mode
		return mode, true
	}
	return a.latched, false
}

// Reset clears the latch and all sync history, used on image completion
// or an explicit controller reset.
func (a *modeArbiter) Reset() {
	a.latched = nil
	a.rings = [3]*syncRing{newSyncRing(), newSyncRing(), newSyncRing()}
}
