package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// synthesizeVIS renders a complete VIS header for mode m at sampleRate:
// leader1, break, leader2, then the ten 30ms VIS bits. It returns the
// full sample buffer and breakIndex in the same sense decodeVIS expects
// it — the absolute sample index where the break tone starts (the end of
// the first leader).
func synthesizeVIS(m *Mode, sampleRate float64) ([]float64, int) {
	acc := &toneAccumulator{sampleRate: sampleRate}
	breakIdx := int(visLeaderTone * sampleRate) // encodeVIS's leader1 comes first
	encodeVIS(acc, m.VISCode)
	acc.tone(visLeaderFreq, 50e-3) // trailing pad so no window runs off the end
	return acc.out, breakIdx
}

func Test_decodeVIS_decodesCleanTransmission(t *testing.T) {
	sampleRate := 48000.0
	pf := newPeakFinder(sampleRate, 4096)
	m := GetByName("Scottie S1")

	samples, breakIdx := synthesizeVIS(m, sampleRate)

	mode, _, ok := decodeVIS(samples, sampleRate, breakIdx, pf)
	assert.True(t, ok)
	assert.Equal(t, m.Name, mode.Name)
}

// flipVISBit overwrites one 30ms data-bit window (bitIdx in 0..6, the
// seven data bits) with the opposite tone, simulating one corrupted bit
// in transit.
func flipVISBit(samples []float64, breakIndex int, sampleRate float64, bitIdx int) []float64 {
	out := make([]float64, len(samples))
	copy(out, samples)

	start := breakIndex + int(visBreakDuration*sampleRate) + int(visLeaderTone*sampleRate)
	bitSamples := int(visBitDuration * sampleRate)
	lo := start + (1+bitIdx)*bitSamples // wire bit 0 is the 1200Hz start delimiter
	hi := lo + bitSamples

	pf := newPeakFinder(sampleRate, 4096)
	freq := pf.peakInRange(samples[lo:hi], visBitZeroFreq-400, visBitOneFreq+400)
	newFreq := visBitOneFreq
	if math.Abs(freq-visBitOneFreq) < math.Abs(freq-visBitZeroFreq) {
		newFreq = visBitZeroFreq
	}

	acc := &toneAccumulator{sampleRate: sampleRate}
	acc.tone(newFreq, visBitDuration)
	copy(out[lo:hi], acc.out)
	return out
}

func Test_decodeVIS_singleBitParityCorrectionRecoversMode(t *testing.T) {
	sampleRate := 48000.0
	pf := newPeakFinder(sampleRate, 4096)
	m := GetByName("Scottie S1")
	assert.Equal(t, uint8(0x3C), m.VISCode)

	samples, breakIdx := synthesizeVIS(m, sampleRate)
	corrupted := flipVISBit(samples, breakIdx, sampleRate, 3)

	mode, _, ok := decodeVIS(corrupted, sampleRate, breakIdx, pf)
	assert.True(t, ok, "single-bit correction should recover a registered mode")
	assert.Equal(t, m.Name, mode.Name)
}

func Test_resolveVISParity_acceptsValidEvenParity(t *testing.T) {
	// Martin M1: 0x2C = 0b0101100
	code := uint8(0x2C)
	bits := make([]uint8, 8)
	var parity uint8
	for i := 0; i < 7; i++ {
		bits[i] = (code >> uint(i)) & 1
		parity ^= bits[i]
	}
	bits[7] = parity

	got, ok := resolveVISParity(bits)
	assert.True(t, ok)
	assert.Equal(t, code, got)
}

func Test_resolveVISParity_rejectsUncorrectableGarbage(t *testing.T) {
	// Code 0x50 with a wrong parity bit: neither 0x50 nor any code one
	// bit flip away from it is registered. (All ones would not do: seven
	// data ones plus a one parity bit is valid even parity, code 127.)
	bits := []uint8{0, 0, 0, 0, 1, 0, 1, 1}
	_, ok := resolveVISParity(bits)
	assert.False(t, ok)
}

func Test_visRequiredSamples_scalesWithSampleRate(t *testing.T) {
	low := visRequiredSamples(8000)
	high := visRequiredSamples(48000)
	assert.Less(t, low, high)
}
