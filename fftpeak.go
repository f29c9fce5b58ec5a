package sstv

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// defaultFFTSize is the FFT size used by the peak finder at the reference
// sample rate of 48 kHz, giving ≈ 11.7 Hz per bin.
const defaultFFTSize = 4096

// peakFinder performs windowed real-FFT peak estimation over audio
// windows of varying length, caching Hann windows by length (an LRU of
// bounded size, owned by the finder instance rather than global state).
type peakFinder struct {
	sampleRate float64
	fftSize    int

	windowCache    map[int][]float64
	windowCacheLRU []int
	cacheCap       int

	scratch []float64 // reused FFT input buffer, len == fftSize
	fft     *fourier.FFT
}

func newPeakFinder(sampleRate float64, fftSize int) *peakFinder {
	if fftSize <= 0 {
		fftSize = defaultFFTSize
	}
	return &peakFinder{
		sampleRate:  sampleRate,
		fftSize:     fftSize,
		windowCache: make(map[int][]float64),
		cacheCap:    8,
		scratch:     make([]float64, fftSize),
		fft:         fourier.NewFFT(fftSize),
	}
}

func (p *peakFinder) hann(n int) []float64 {
	if w, ok := p.windowCache[n]; ok {
		p.touchLRU(n)
		return w
	}
	w := hannWindow(n)
	p.windowCache[n] = w
	p.windowCacheLRU = append(p.windowCacheLRU, n)
	if len(p.windowCacheLRU) > p.cacheCap {
		evict := p.windowCacheLRU[0]
		p.windowCacheLRU = p.windowCacheLRU[1:]
		delete(p.windowCache, evict)
	}
	return w
}

func (p *peakFinder) touchLRU(n int) {
	for i, v := range p.windowCacheLRU {
		if v == n {
			p.windowCacheLRU = append(p.windowCacheLRU[:i], p.windowCacheLRU[i+1:]...)
			p.windowCacheLRU = append(p.windowCacheLRU, n)
			return
		}
	}
}

// peakInRange finds the dominant frequency in samples within [loFreq,
// hiFreq], returning the frequency estimate after quadratic sub-bin
// interpolation.
func (p *peakFinder) peakInRange(samples []float64, loFreq, hiFreq float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	win := p.hann(n)

	for i := range p.scratch {
		p.scratch[i] = 0
	}
	for i := 0; i < n && i < len(p.scratch); i++ {
		p.scratch[i] = samples[i] * win[i]
	}

	coeffs := p.fft.Coefficients(nil, p.scratch)

	loBin := int(loFreq / p.sampleRate * float64(p.fftSize))
	hiBin := int(hiFreq / p.sampleRate * float64(p.fftSize))
	if loBin < 0 {
		loBin = 0
	}
	if hiBin >= len(coeffs) {
		hiBin = len(coeffs) - 1
	}
	if hiBin <= loBin {
		return loFreq
	}

	kStar := loBin
	best := -1.0
	for k := loBin; k <= hiBin; k++ {
		mag := cmplxAbsSq(coeffs[k])
		if mag > best {
			best = mag
			kStar = k
		}
	}

	return p.interpolate(coeffs, kStar)
}

// peakPixel extracts a pixel value from a raw audio window centered on a
// pixel's nominal sample index, mapping the resolved frequency into
// [0, 255].
func (p *peakFinder) peakPixel(samples []float64) uint8 {
	freq := p.peakInRange(samples, 1000, 2800)
	return frequencyToPixel(freq)
}

// interpolate applies quadratic sub-bin peak interpolation around k*,
// clamped so the estimate can never move outside [k*-0.5, k*+0.5].
func (p *peakFinder) interpolate(coeffs []complex128, kStar int) float64 {
	if kStar <= 0 || kStar >= len(coeffs)-1 {
		return float64(kStar) * p.sampleRate / float64(p.fftSize)
	}
	yMinus := math.Sqrt(cmplxAbsSq(coeffs[kStar-1]))
	y0 := math.Sqrt(cmplxAbsSq(coeffs[kStar]))
	yPlus := math.Sqrt(cmplxAbsSq(coeffs[kStar+1]))

	denom := yMinus - 2*y0 + yPlus
	var delta float64
	if math.Abs(denom) > 1e-12 {
		delta = 0.5 * (yMinus - yPlus) / denom
		delta = clampf(delta, -0.5, 0.5)
	}
	return (float64(kStar) + delta) * p.sampleRate / float64(p.fftSize)
}

func cmplxAbsSq(c complex128) float64 {
	re, im := real(c), imag(c)
	return re*re + im*im
}

// frequencyToPixel maps a demodulated frequency to an 8-bit pixel value
// per the wire format's linear 1500-2300 Hz scale.
func frequencyToPixel(f float64) uint8 {
	v := math.Round((f - 1500) * 255 / 800)
	return clampByte(clampf(v, 0, 255))
}

// pixelToFrequency is the encoder-side inverse of frequencyToPixel.
func pixelToFrequency(v uint8) float64 {
	return 1500 + float64(v)*800/255
}
