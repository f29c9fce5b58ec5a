package sstv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ringBuffer_lenNeverExceedsCapacity(t *testing.T) {
	r := newRingBuffer(100)
	for i := 0; i < 10; i++ {
		r.Push(make([]float64, 37))
		assert.LessOrEqual(t, r.Len(), 100)
	}
	assert.Equal(t, 100, r.Len())
}

func Test_ringBuffer_pushThenAtRoundTrips(t *testing.T) {
	r := newRingBuffer(16)
	samples := []float64{1, 2, 3, 4, 5}
	r.Push(samples)
	for i, want := range samples {
		got, err := r.At(i)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func Test_ringBuffer_atOutOfWindowErrors(t *testing.T) {
	r := newRingBuffer(8)
	r.Push([]float64{1, 2, 3})
	_, err := r.At(10)
	assert.Error(t, err)
}

func Test_ringBuffer_windowOutOfRangeErrors(t *testing.T) {
	r := newRingBuffer(8)
	r.Push([]float64{1, 2, 3, 4})
	_, err := r.Window(0, 10)
	assert.Error(t, err)
}

func Test_ringBuffer_compactShiftsOriginAndDiscardsStaleData(t *testing.T) {
	r := newRingBuffer(10)
	r.Push(make([]float64, 10)) // fills capacity exactly

	assert.True(t, r.Full())
	shift := r.Compact()
	assert.Equal(t, 5, shift) // half of capacity

	// An externally tracked index must be rebased by exactly `shift` and
	// anything landing below zero refers to discarded data.
	trackedIdx := 3
	trackedIdx -= shift
	assert.LessOrEqual(t, trackedIdx, 0)
}

func Test_ringBuffer_compactNoopWhenNotFull(t *testing.T) {
	r := newRingBuffer(10)
	r.Push(make([]float64, 4))
	assert.False(t, r.Full())
	assert.Equal(t, 0, r.Compact())
}

func Test_ringBuffer_lastIndexAdvancesWithPushes(t *testing.T) {
	r := newRingBuffer(100)
	r.Push(make([]float64, 5))
	assert.Equal(t, 4, r.LastIndex())
	r.Push(make([]float64, 3))
	assert.Equal(t, 7, r.LastIndex())
}

func Test_ringBuffer_resetClearsState(t *testing.T) {
	r := newRingBuffer(10)
	r.Push(make([]float64, 10))
	r.Compact()
	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Full())
}
