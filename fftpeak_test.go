package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_pixelToFrequency_frequencyToPixel_roundTrip(t *testing.T) {
	for v := 0; v < 256; v++ {
		got := frequencyToPixel(pixelToFrequency(uint8(v)))
		assert.Equal(t, uint8(v), got, "pixel value %d did not round-trip", v)
	}
}

func Test_frequencyToPixel_clampsOutOfRange(t *testing.T) {
	assert.Equal(t, uint8(0), frequencyToPixel(0))
	assert.Equal(t, uint8(255), frequencyToPixel(5000))
}

func Test_peakInRange_resolvesKnownTone(t *testing.T) {
	sampleRate := 48000.0
	pf := newPeakFinder(sampleRate, 4096)

	freq := 1900.0
	n := int(0.05 * sampleRate)
	samples := make([]float64, n)
	phase := 0.0
	step := 2 * math.Pi * freq / sampleRate
	for i := range samples {
		samples[i] = math.Sin(phase)
		phase += step
	}

	got := pf.peakInRange(samples, 1700, 2100)
	assert.InDelta(t, freq, got, 15.0)
}
