package sstv

import "math"

/*
 * FM demodulator.
 *
 * Complex baseband down-conversion, Kaiser-windowed low-pass, phase-
 * difference FM demod, moving-average smoothing with a matched delay
 * line, and Schmitt-triggered sync-pulse detection with width
 * classification. Grounded on the teacher's video_demod.go
 * demodulateFrequency/detectSync, restructured from its two separate
 * adaptive-window FFT passes into the single streaming phase-difference
 * pipeline spec.md §4.3 describes.
 */

const (
	demodBandCenter    = 1900.0 // Hz; normalized frequency 0
	demodBandwidth     = 800.0  // Hz; normalized ±1 span
	demodLowpassCutoff = 900.0  // Hz
	demodKaiserAlpha   = 3.0

	syncTargetFreq = 1200.0 // Hz
	porchFreq      = 1500.0
)

// syncPulseEvent is emitted when the Schmitt trigger releases after a
// qualifying low interval: sampleIndex is the pulse's start (counted from
// the demodulator's first input sample, backdated by the pipeline's total
// group delay), widthMs is
// the classified nominal width (5, 9, or 20), and frequencyOffset is the
// delayed frequency's deviation from 1200Hz, in Hz.
type syncPulseEvent struct {
	sampleIndex     int
	widthMs         float64
	frequencyOffset float64
}

// normalizedTarget converts a frequency in Hz to the demodulator's
// normalized scale: 0 at demodBandCenter, ±1 spanning ±demodBandwidth/2.
func normalizedTarget(hz float64) float64 {
	return (hz - demodBandCenter) / (demodBandwidth / 2)
}

func classifyWidthMs(ms float64) float64 {
	switch {
	case ms < (5+9)/2.0:
		return 5
	case ms < (9+20)/2.0:
		return 9
	default:
		return 20
	}
}

// demodulator is a streaming FM demodulator over a fixed sample rate. It
// carries all DSP state across Process calls so audio can be fed in
// arbitrarily sized chunks.
type demodulator struct {
	sampleRate float64

	osc *phasor
	fir *complexFIR
	firDelay int

	smoothLen   int
	smoother    *movingSum
	matchDelay  *delayLine

	prevArg float64

	trigger      *schmittTrigger
	triggerWasLow bool
	syncCounter   int

	filterDelay int
	sampleIdx   int // running input-sample counter since construction

	minSyncSamples int
	maxSyncSamples int
}

func newDemodulator(sampleRate float64) *demodulator {
	firLen := oddLength(0.002 * sampleRate)
	taps := designLowpassFIR(firLen, demodLowpassCutoff, sampleRate, demodKaiserAlpha)
	smoothLen := oddLength(0.0025 * sampleRate)

	syncTargetNorm := normalizedTarget(syncTargetFreq)
	porchNorm := normalizedTarget(porchFreq)
	mid := (syncTargetNorm + porchNorm) / 2
	gap := 0.025 // ≈ 10 Hz of hysteresis on either side of the midpoint

	d := &demodulator{
		sampleRate:     sampleRate,
		osc:            newPhasor(-2 * math.Pi * demodBandCenter / sampleRate),
		fir:            newComplexFIR(taps),
		firDelay:       (firLen - 1) / 2,
		smoothLen:      smoothLen,
		smoother:       newMovingSum(smoothLen),
		matchDelay:     newDelayLine(smoothLen),
		trigger:        newSchmittTrigger(mid-gap, mid+gap),
		triggerWasLow:  false,
		minSyncSamples: int(math.Round(0.0025 * sampleRate)),
		maxSyncSamples: int(math.Round(0.025 * sampleRate)),
	}
	// The smoothed value crosses the trigger's low threshold once this
	// fraction of the moving-average window holds the sync tone (and the
	// high threshold at the same fraction on release), so the trigger lags
	// each true edge by the FIR delay plus that many samples.
	crossFrac := (porchNorm - (mid - gap)) / (porchNorm - syncTargetNorm)
	d.filterDelay = d.firDelay + int(math.Round(crossFrac*float64(smoothLen)))
	return d
}

// Process demodulates one chunk of real audio samples, returning the
// normalized-frequency stream (same length as input) and any sync-pulse
// events detected within it.
func (d *demodulator) Process(samples []float64) ([]float64, []syncPulseEvent) {
	out := make([]float64, len(samples))
	var events []syncPulseEvent

	for i, x := range samples {
		osc := d.osc.next()
		baseband := osc.mul(complexVal{x, 0})
		filtered := d.fir.step(baseband)

		arg := filtered.argument()
		diff := wrapPhase(arg - d.prevArg)
		d.prevArg = arg

		normFreq := diff * d.sampleRate / (demodBandwidth * math.Pi)
		out[i] = normFreq

		sum := d.smoother.push(normFreq)
		smoothed := sum / float64(d.smoothLen)
		delayed := d.matchDelay.step(smoothed)

		state := d.trigger.step(smoothed)
		if !state {
			d.syncCounter++
		} else if d.triggerWasLow {
			if ev, ok := d.classifySync(delayed); ok {
				events = append(events, ev)
			}
			d.syncCounter = 0
		}
		d.triggerWasLow = !state

		d.sampleIdx++
	}

	return out, events
}

func (d *demodulator) classifySync(delayedNorm float64) (syncPulseEvent, bool) {
	if d.syncCounter < d.minSyncSamples || d.syncCounter > d.maxSyncSamples {
		return syncPulseEvent{}, false
	}
	targetNorm := normalizedTarget(syncTargetFreq)
	toleranceNorm := 50.0 / (demodBandwidth / 2)
	if math.Abs(delayedNorm-targetNorm) > toleranceNorm {
		return syncPulseEvent{}, false
	}

	ms := float64(d.syncCounter) / d.sampleRate * 1000
	width := classifyWidthMs(ms)

	return syncPulseEvent{
		sampleIndex:     d.sampleIdx - d.filterDelay - d.syncCounter,
		widthMs:         width,
		frequencyOffset: (delayedNorm - targetNorm) * (demodBandwidth / 2),
	}, true
}

// wrapPhase wraps a phase difference into (-π, π].
func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p <= -math.Pi {
		p += 2 * math.Pi
	}
	return p
}
