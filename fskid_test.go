package sstv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_decodeFSKID_returnsFalseOnSilence(t *testing.T) {
	sampleRate := 48000.0
	r := newRingBuffer(int(2 * sampleRate))
	r.Push(make([]float64, int(1.5*sampleRate)))

	pf := newPeakFinder(sampleRate, 4096)
	_, ok := decodeFSKID(r, 0, sampleRate, pf)
	assert.False(t, ok)
}

func Test_decodeFSKID_returnsFalseWhenBufferUnderrun(t *testing.T) {
	sampleRate := 48000.0
	r := newRingBuffer(int(1 * sampleRate))
	r.Push(make([]float64, 10))

	pf := newPeakFinder(sampleRate, 4096)
	_, ok := decodeFSKID(r, 0, sampleRate, pf)
	assert.False(t, ok)
}

func Test_decodeFSKID_invalidSampleRateIsSafe(t *testing.T) {
	r := newRingBuffer(100)
	pf := newPeakFinder(48000, 4096)
	_, ok := decodeFSKID(r, 0, 0, pf)
	assert.False(t, ok)
}
