package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_toneAccumulator_silenceIsLiteralZero(t *testing.T) {
	acc := &toneAccumulator{sampleRate: 48000}
	acc.tone(1900, 50e-3)
	acc.tone(0, 20e-3) // VOX gap
	n := int(0.02 * 48000)
	for _, s := range acc.out[len(acc.out)-n:] {
		assert.Equal(t, 0.0, s)
	}
}

// Consecutive tones must not jump phase at the boundary: the sample
// immediately after a tone switch continues the running phase rather
// than resetting to zero.
func Test_toneAccumulator_phaseContinuousAcrossToneBoundary(t *testing.T) {
	sampleRate := 48000.0
	acc := &toneAccumulator{sampleRate: sampleRate}

	f1, f2 := 1200.0, 1500.0
	n1 := int(math.Round(5e-3 * sampleRate))
	acc.tone(f1, 5e-3)
	acc.tone(f2, 5e-3)

	step1 := 2 * math.Pi * f1 / sampleRate
	expectedPhaseAtBoundary := math.Mod(float64(n1)*step1, 2*math.Pi)
	step2 := 2 * math.Pi * f2 / sampleRate

	want := math.Sin(expectedPhaseAtBoundary + step2)
	got := acc.out[n1+1]
	assert.InDelta(t, want, got, 1e-9)
}

func Test_Encode_rejectsMismatchedBufferLength(t *testing.T) {
	_, err := Encode(make([]uint8, 10), 10, 10, EncoderConfig{
		Mode:       GetByName("Martin M1"),
		SampleRate: 48000,
	})
	assert.Error(t, err)
}

func Test_Encode_rejectsNilMode(t *testing.T) {
	_, err := Encode(make([]uint8, 300), 10, 10, EncoderConfig{SampleRate: 48000})
	assert.Error(t, err)
}

func Test_Encode_rejectsInvalidSampleRate(t *testing.T) {
	m := GetByName("Martin M1")
	rgb := make([]uint8, m.Width*m.Height*3)
	_, err := Encode(rgb, m.Width, m.Height, EncoderConfig{Mode: m, SampleRate: 0})
	assert.Error(t, err)
}

// Scenario 1: encode a synthetic Martin M1 gradient image and decode it
// back; every pixel must match the source within a small tolerance.
func Test_Encode_Decode_MartinM1_roundTrip(t *testing.T) {
	m := GetByName("Martin M1")
	sampleRate := 48000.0

	rgb := make([]uint8, m.Width*m.Height*3)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := uint8(x % 256)
			i := (y*m.Width + x) * 3
			rgb[i], rgb[i+1], rgb[i+2] = v, v, v
		}
	}

	samples, err := Encode(rgb, m.Width, m.Height, EncoderConfig{
		Mode:       m,
		SampleRate: sampleRate,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, samples)

	img, err := DecodeOne(samples, StreamingConfig{SampleRate: sampleRate})
	assert.NoError(t, err)
	if !assert.NotNil(t, img) {
		return
	}
	assert.Equal(t, "Martin M1", img.Mode.Name)
	assert.Equal(t, m.Width, img.Width)

	lines := img.Height
	if img.LinesDecoded < lines {
		lines = img.LinesDecoded
	}

	var maxDiff int
	for y := 0; y < lines; y++ {
		for x := 0; x < m.Width; x++ {
			i := (y*m.Width + x) * 3
			for ch := 0; ch < 3; ch++ {
				d := int(img.RGB[i+ch]) - int(rgb[i+ch])
				if d < 0 {
					d = -d
				}
				if d > maxDiff {
					maxDiff = d
				}
			}
		}
	}
	assert.LessOrEqual(t, maxDiff, 8, "decoded pixels should closely match the source gradient")
}

// roundTripMaxDiff encodes a per-channel-distinct (non-gray) image in mode
// m and decodes it back, returning the largest per-byte deviation. A gray
// source (R=G=B) can't catch a channel permutation or chroma-plane swap
// bug, since every plane carries the same value either way.
func roundTripMaxDiff(t *testing.T, m *Mode, sampleRate float64) int {
	t.Helper()
	rgb := make([]uint8, m.Width*m.Height*3)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := (y*m.Width + x) * 3
			rgb[i] = uint8(x % 256)
			rgb[i+1] = uint8((x + 85) % 256)
			rgb[i+2] = uint8((x + 170) % 256)
		}
	}

	samples, err := Encode(rgb, m.Width, m.Height, EncoderConfig{Mode: m, SampleRate: sampleRate})
	require.NoError(t, err)

	img, err := DecodeOne(samples, StreamingConfig{SampleRate: sampleRate})
	require.NoError(t, err)
	require.NotNil(t, img)
	require.Equal(t, m.Name, img.Mode.Name)

	lines := img.Height
	if img.LinesDecoded < lines {
		lines = img.LinesDecoded
	}

	var maxDiff int
	for y := 0; y < lines; y++ {
		for x := 0; x < m.Width; x++ {
			i := (y*m.Width + x) * 3
			for ch := 0; ch < 3; ch++ {
				d := int(img.RGB[i+ch]) - int(rgb[i+ch])
				if d < 0 {
					d = -d
				}
				if d > maxDiff {
					maxDiff = d
				}
			}
		}
	}
	return maxDiff
}

// A GBR mode's ChannelOrder permutation must not be applied twice between
// encode and decode: a channel swap shows up as a large, systematic error
// a gray-gradient round trip can never expose.
func Test_Encode_Decode_MartinM1_nonGrayRoundTrip(t *testing.T) {
	assert.LessOrEqual(t, roundTripMaxDiff(t, GetByName("Martin M1"), 48000.0), 30)
}

// Likewise for a YCrCb mode: a V/U chroma-plane swap only shows up when
// the source isn't gray (Cr=Cb=128 either way for a gray source).
func Test_Encode_Decode_Robot36_nonGrayRoundTrip(t *testing.T) {
	assert.LessOrEqual(t, roundTripMaxDiff(t, GetByName("Robot 36"), 48000.0), 30)
}

func Test_resizeNearest_preservesCorners(t *testing.T) {
	src := []uint8{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
	}
	out := resizeNearest(src, 2, 2, 4, 4)
	assert.Equal(t, uint8(255), out[0])
	assert.Equal(t, uint8(0), out[1])
	assert.Equal(t, uint8(0), out[2])
}
