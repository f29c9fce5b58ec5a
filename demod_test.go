package sstv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Three 1200Hz sync pulses of 5, 9 and 20ms separated by 1500Hz porches
// must be reported, in order, with widths {5,9,20} and sample indices
// close to their true starts.
func Test_demodulator_classifiesSyncPulseWidths(t *testing.T) {
	sampleRate := 48000.0
	acc := &toneAccumulator{sampleRate: sampleRate}

	porch := 40e-3
	acc.tone(porchFreq, porch) // settle the filters before the first pulse
	start5 := len(acc.out)
	acc.tone(syncTargetFreq, 5e-3)
	acc.tone(porchFreq, porch)
	start9 := len(acc.out)
	acc.tone(syncTargetFreq, 9e-3)
	acc.tone(porchFreq, porch)
	start20 := len(acc.out)
	acc.tone(syncTargetFreq, 20e-3)
	acc.tone(porchFreq, porch)

	d := newDemodulator(sampleRate)
	_, events := d.Process(acc.out)

	assert.Len(t, events, 3)
	if len(events) != 3 {
		return
	}
	assert.Equal(t, 5.0, events[0].widthMs)
	assert.Equal(t, 9.0, events[1].widthMs)
	assert.Equal(t, 20.0, events[2].widthMs)

	assert.InDelta(t, start5, events[0].sampleIndex, 3)
	assert.InDelta(t, start9, events[1].sampleIndex, 3)
	assert.InDelta(t, start20, events[2].sampleIndex, 3)
}

func Test_demodulator_chunkedFeedMatchesSingleShot(t *testing.T) {
	sampleRate := 48000.0
	acc := &toneAccumulator{sampleRate: sampleRate}
	acc.tone(porchFreq, 40e-3)
	acc.tone(syncTargetFreq, 9e-3)
	acc.tone(porchFreq, 40e-3)

	d1 := newDemodulator(sampleRate)
	_, wholeEvents := d1.Process(acc.out)

	d2 := newDemodulator(sampleRate)
	var chunkedEvents []syncPulseEvent
	for off := 0; off < len(acc.out); off += 512 {
		end := off + 512
		if end > len(acc.out) {
			end = len(acc.out)
		}
		_, ev := d2.Process(acc.out[off:end])
		chunkedEvents = append(chunkedEvents, ev...)
	}

	assert.Equal(t, len(wholeEvents), len(chunkedEvents))
	for i := range wholeEvents {
		assert.Equal(t, wholeEvents[i].widthMs, chunkedEvents[i].widthMs)
		assert.InDelta(t, wholeEvents[i].sampleIndex, chunkedEvents[i].sampleIndex, 1)
	}
}
