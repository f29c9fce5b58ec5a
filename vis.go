package sstv

import "math"

/*
 * VIS (Vertical Interval Signaling) header decode.
 *
 * Wire format: 300ms 1900Hz leader, 10ms break, 300ms 1900Hz leader, then
 * ten 30ms bits (1200Hz start, seven LSB-first data bits at 1100/1300Hz,
 * one even-parity bit, 1200Hz stop).
 *
 * Grounded on the teacher's vis.go ProcessIteration, generalized from its
 * streaming circular-history search to decode against a candidate break
 * index directly, and extended with single-bit parity correction (the
 * teacher rejects outright on parity failure).
 */

const (
	visLeaderFreq      = 1900.0
	visLeaderTone      = 300e-3
	visBreakDuration   = 10e-3
	visBitDuration     = 30e-3
	visStartStopFreq   = 1200.0
	visBitOneFreq      = 1100.0
	visBitZeroFreq     = 1300.0
	visToneTolerance   = 100.0
	visLeaderTolerance = 100.0

	// visInvertedParityCode is R12BW's VIS code; uniquely among registered
	// modes it transmits odd (inverted) parity over its data bits.
	visInvertedParityCode = 0x06
)

// visCandidate is a queued VIS decode attempt, per spec.md §3's glossary
// entry: a breakIndex into the raw sample stream plus the carrier's
// measured frequency offset from nominal.
type visCandidate struct {
	breakIndex int
	freqOffset float64
}

// visRequiredSamples returns how many samples after breakIndex must be
// available before decodeVIS can be attempted.
func visRequiredSamples(sampleRate float64) int {
	// 300ms leader2 + 60ms tolerance + 300ms VIS body.
	return int((visLeaderTone + 60e-3 + visLeaderTone) * sampleRate)
}

// decodeVIS attempts to decode a VIS header at breakIndex within samples
// (raw audio, any consistent amplitude scale). Returns the resolved mode,
// the leader frequency offset in Hz from 1900, and whether decode
// succeeded.
func decodeVIS(samples []float64, sampleRate float64, breakIndex int, pf *peakFinder) (*Mode, float64, bool) {
	preBreak := int(60e-3 * sampleRate)
	if breakIndex < preBreak {
		return nil, 0, false
	}
	leaderWindow := samples[breakIndex-preBreak : breakIndex]
	refFreq := pf.peakInRange(leaderWindow, visLeaderFreq-300, visLeaderFreq+300)
	if math.Abs(refFreq-visLeaderFreq) > visLeaderTolerance {
		return nil, 0, false
	}

	bitSamples := int(visBitDuration * sampleRate)
	const skip = 5
	start := breakIndex + int(visBreakDuration*sampleRate) + int(visLeaderTone*sampleRate)
	if start+10*bitSamples > len(samples) {
		return nil, 0, false
	}

	bitFreq := make([]float64, 10)
	for i := 0; i < 10; i++ {
		lo := start + i*bitSamples + skip
		hi := start + (i+1)*bitSamples - skip
		if lo >= hi || hi > len(samples) {
			return nil, 0, false
		}
		bitFreq[i] = pf.peakInRange(samples[lo:hi], visBitZeroFreq-400, visStartStopFreq+400)
	}

	if math.Abs(bitFreq[0]-visStartStopFreq) > visToneTolerance ||
		math.Abs(bitFreq[9]-visStartStopFreq) > visToneTolerance {
		return nil, 0, false
	}

	bits := make([]uint8, 8)
	for k := 0; k < 8; k++ {
		f := bitFreq[1+k]
		switch {
		case math.Abs(f-visBitOneFreq) <= visToneTolerance:
			bits[k] = 1
		case math.Abs(f-visBitZeroFreq) <= visToneTolerance:
			bits[k] = 0
		default:
			return nil, 0, false
		}
	}

	code, ok := resolveVISParity(bits)
	if !ok {
		return nil, 0, false
	}

	mode := GetByVIS(code)
	if mode == nil || mode.Unsupported {
		return nil, 0, false
	}

	return mode, refFreq - visLeaderFreq, true
}

// visCodeAndExpectedParity computes the 7-bit code from data bits[0:7]
// and the parity bit that code should carry (even, except R12BW's code
// which is transmitted with inverted parity).
func visCodeAndExpectedParity(bits []uint8) (code, expectedParity uint8) {
	for i := 0; i < 7; i++ {
		code |= bits[i] << uint(i)
	}
	for i := 0; i < 7; i++ {
		expectedParity ^= bits[i]
	}
	if code == visInvertedParityCode {
		expectedParity = 1 - expectedParity
	}
	return code, expectedParity
}

// resolveVISParity decodes the 7-bit VIS code from 8 data bits (bits[0:7]
// LSB-first, bits[7] the parity bit). On parity mismatch it attempts
// single-bit correction: each of the 8 bits is flipped in turn, and the
// first flip producing a code registered to a known mode is accepted —
// per spec.md §4.5 step 4, an addition over the teacher's reject-outright
// behavior.
func resolveVISParity(bits []uint8) (uint8, bool) {
	if code, expected := visCodeAndExpectedParity(bits); expected == bits[7] {
		return code, true
	}

	flipped := make([]uint8, 8)
	for i := 0; i < 8; i++ {
		copy(flipped, bits)
		flipped[i] ^= 1
		code, expected := visCodeAndExpectedParity(flipped)
		if expected != flipped[7] {
			continue
		}
		if mode := GetByVIS(code); mode != nil && !mode.Unsupported {
			return code, true
		}
	}
	return 0, false
}
