package sstv

import "math"

// complexVal is a minimal complex number, kept distinct from the builtin
// complex128 so the NCO and FIR stages can carry their own normalization
// helpers without import friction in the rest of the package.
type complexVal struct {
	re, im float64
}

func (c complexVal) mul(o complexVal) complexVal {
	return complexVal{c.re*o.re - c.im*o.im, c.re*o.im + c.im*o.re}
}

func (c complexVal) conj() complexVal {
	return complexVal{c.re, -c.im}
}

func (c complexVal) add(o complexVal) complexVal {
	return complexVal{c.re + o.re, c.im + o.im}
}

func (c complexVal) scale(k float64) complexVal {
	return complexVal{c.re * k, c.im * k}
}

func (c complexVal) magnitude() float64 {
	return math.Hypot(c.re, c.im)
}

func (c complexVal) argument() float64 {
	return math.Atan2(c.im, c.re)
}

// phasor is a numerically-controlled oscillator: a unit-magnitude complex
// state rotated by a fixed angular step each tick, renormalized after every
// multiplication to prevent long-run magnitude drift.
type phasor struct {
	state complexVal
	delta complexVal
}

func newPhasor(freqNormalized float64) *phasor {
	return &phasor{
		state: complexVal{1, 0},
		delta: complexVal{math.Cos(freqNormalized), math.Sin(freqNormalized)},
	}
}

// next returns the current phasor value and rotates the state forward.
func (p *phasor) next() complexVal {
	v := p.state
	p.state = p.state.mul(p.delta)
	mag := p.state.magnitude()
	if mag > 0 {
		p.state = p.state.scale(1 / mag)
	}
	return v
}

// kaiserWindow returns the N-tap Kaiser window of shape parameter alpha.
func kaiserWindow(n int, alpha float64) []float64 {
	if n <= 0 {
		return nil
	}
	taps := make([]float64, n)
	denom := besselI0(math.Pi * alpha)
	for i := 0; i < n; i++ {
		x := 2*float64(i)/float64(n-1) - 1
		if n == 1 {
			x = 0
		}
		arg := math.Pi * alpha * math.Sqrt(1-x*x)
		taps[i] = besselI0(arg) / denom
	}
	return taps
}

// besselI0 is the modified Bessel function of the first kind, order zero,
// via its power series; sufficient precision for window generation.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	halfX := x / 2
	for k := 1; k < 40; k++ {
		term *= (halfX * halfX) / (float64(k) * float64(k))
		sum += term
		if term < 1e-15*sum {
			break
		}
	}
	return sum
}

// hannWindow returns the N-tap Hann window.
func hannWindow(n int) []float64 {
	if n <= 0 {
		return nil
	}
	taps := make([]float64, n)
	if n == 1 {
		taps[0] = 1
		return taps
	}
	for i := 0; i < n; i++ {
		taps[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return taps
}

// designLowpassFIR builds a windowed-sinc low-pass filter of length n,
// cutoff fc Hz at sample rate r Hz, windowed by a Kaiser window of shape
// alpha.
func designLowpassFIR(n int, fc, r, alpha float64) []float64 {
	win := kaiserWindow(n, alpha)
	taps := make([]float64, n)
	mid := float64(n-1) / 2
	for i := 0; i < n; i++ {
		x := float64(i) - mid
		var s float64
		if x == 0 {
			s = 2 * fc / r
		} else {
			arg := 2 * math.Pi * fc * x / r
			s = math.Sin(arg) / (math.Pi * x)
		}
		taps[i] = s * win[i]
	}
	return taps
}

// complexFIR is a length-N circular-buffer FIR filter over complex samples.
type complexFIR struct {
	taps []float64
	buf  []complexVal
	pos  int
}

func newComplexFIR(taps []float64) *complexFIR {
	return &complexFIR{
		taps: taps,
		buf:  make([]complexVal, len(taps)),
	}
}

// step pushes one new sample and returns the filtered output.
func (f *complexFIR) step(x complexVal) complexVal {
	n := len(f.taps)
	f.buf[f.pos] = x
	var out complexVal
	for i := 0; i < n; i++ {
		out = out.add(f.buf[(f.pos+i)%n].scale(f.taps[i]))
	}
	f.pos = (f.pos - 1 + n) % n
	return out
}

// movingSum maintains a running sum over the last N pushed values using a
// binary-heap-shaped segment tree, so each push is O(log N) rather than
// O(N) for a naive re-sum. The tree array is padded to a power of two
// (treeSize), but the ring itself wraps at the real window length n, so
// the padding leaves stay permanently zero and never contribute to the
// sum — the window is exactly n samples wide, not the padded size.
type movingSum struct {
	n        int
	treeSize int
	tree     []float64 // 1-indexed; leaves at [treeSize, 2*treeSize)
	pos      int
}

func newMovingSum(n int) *movingSum {
	size := 1
	for size < n {
		size *= 2
	}
	return &movingSum{
		n:        n,
		treeSize: size,
		tree:     make([]float64, 2*size),
	}
}

// push writes value v into the next leaf slot (wrapping at n), updates
// ancestor sums, and returns the total across all leaves.
func (m *movingSum) push(v float64) float64 {
	i := m.pos + m.treeSize
	m.tree[i] = v
	for i > 1 {
		i /= 2
		m.tree[i] = m.tree[2*i] + m.tree[2*i+1]
	}
	m.pos = (m.pos + 1) % m.n
	return m.tree[1]
}

// schmittTrigger is a latched boolean comparator with hysteresis: it
// flips true when the input exceeds high, false when it drops below low,
// and holds its state in between.
type schmittTrigger struct {
	low, high float64
	state     bool
}

func newSchmittTrigger(low, high float64) *schmittTrigger {
	return &schmittTrigger{low: low, high: high}
}

func (s *schmittTrigger) step(x float64) bool {
	switch {
	case x > s.high:
		s.state = true
	case x < s.low:
		s.state = false
	}
	return s.state
}

// delayLine returns the sample written L steps ago.
type delayLine struct {
	buf []float64
	pos int
}

func newDelayLine(length int) *delayLine {
	if length < 1 {
		length = 1
	}
	return &delayLine{buf: make([]float64, length)}
}

// step writes x and returns the value that was in the line L steps back.
func (d *delayLine) step(x float64) float64 {
	out := d.buf[d.pos]
	d.buf[d.pos] = x
	d.pos = (d.pos + 1) % len(d.buf)
	return out
}

func clampf(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// oddLength returns n rounded, forced to the nearest odd value ≥ 1 —
// the "| 1" idiom used throughout spec.md §4.3 for filter/average lengths.
func oddLength(n float64) int {
	v := int(math.Round(n))
	if v < 1 {
		v = 1
	}
	return v | 1
}
