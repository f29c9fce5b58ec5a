package sstv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Every mode's declared LineTime must account for exactly the sync pulse,
// porch, scan times and separator pulses its own timing closures place —
// the last channel's offset plus its scan duration should land on
// LineTime within one sample at a representative sample rate.
func Test_modeTiming_accountsForFullLineTime(t *testing.T) {
	const sampleRate = 48000.0
	oneSample := 1.0 / sampleRate

	for _, m := range All() {
		if m.Unsupported {
			continue
		}
		last := m.ChannelCount - 1
		end := m.ChannelOffset(0, last) + m.ScanTime(0, last)
		assert.InDelta(t, m.LineTime, end, oneSample,
			"mode %s: end of last channel %g != LineTime %g", m.Name, end, m.LineTime)
	}
}

func Test_GetByVIS_resolvesRegisteredModes(t *testing.T) {
	m := GetByVIS(0x2C)
	assert.NotNil(t, m)
	assert.Equal(t, "Martin M1", m.Name)
}

func Test_GetByVIS_unknownCodeReturnsNil(t *testing.T) {
	assert.Nil(t, GetByVIS(0xFF))
}

func Test_GetByName_resolvesFullAndShortNames(t *testing.T) {
	byFull := GetByName("Martin M1")
	byShort := GetByName("M1")
	assert.NotNil(t, byFull)
	assert.Same(t, byFull, byShort)
}

func Test_GetByName_unknownNameReturnsNil(t *testing.T) {
	assert.Nil(t, GetByName("not a real mode"))
}

func Test_GetByExtendedVIS_resolvesMMSSTVModes(t *testing.T) {
	m := GetByExtendedVIS(37)
	assert.NotNil(t, m)
	assert.Equal(t, "MMSSTV MP73", m.Name)
	assert.True(t, m.ExtendedVIS)
}

func Test_CategorizeBySyncWidth_coversRegisteredModes(t *testing.T) {
	w5, w9, w20 := CategorizeBySyncWidth()
	total := len(w5) + len(w9) + len(w20)
	var supported int
	for _, m := range All() {
		if !m.Unsupported {
			supported++
		}
	}
	assert.Equal(t, supported, total)
}

func Test_ColorFormat_stringRoundTripsThroughYAML(t *testing.T) {
	for _, cf := range []ColorFormat{ColorFormatRGB, ColorFormatGBR, ColorFormatYCrCb, ColorFormatGrayscale} {
		s, err := cf.MarshalYAML()
		assert.NoError(t, err)
		var got ColorFormat
		assert.NoError(t, got.UnmarshalYAML(func(out interface{}) error {
			*(out.(*string)) = s.(string)
			return nil
		}))
		assert.Equal(t, cf, got)
	}
}

func Test_ChromaSubsampling_stringRoundTripsThroughYAML(t *testing.T) {
	for _, c := range []ChromaSubsampling{Chroma444, Chroma422, Chroma420} {
		s, err := c.MarshalYAML()
		assert.NoError(t, err)
		var got ChromaSubsampling
		assert.NoError(t, got.UnmarshalYAML(func(out interface{}) error {
			*(out.(*string)) = s.(string)
			return nil
		}))
		assert.Equal(t, c, got)
	}
}

func Test_widthBucketIndex_monotonicClassification(t *testing.T) {
	cases := []struct {
		widthMs float64
		want    int
	}{
		{5, 0},
		{9, 1},
		{20, 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, widthBucketIndex(c.widthMs))
	}
}

func Test_classifyWidthMs_monotonicBuckets(t *testing.T) {
	assert.Equal(t, 5.0, classifyWidthMs(2.5))
	assert.Equal(t, 5.0, classifyWidthMs(6.9))
	assert.Equal(t, 9.0, classifyWidthMs(7.0))
	assert.Equal(t, 9.0, classifyWidthMs(14.4))
	assert.Equal(t, 20.0, classifyWidthMs(14.5))
	assert.Equal(t, 20.0, classifyWidthMs(25))
}

func Test_clampByte_boundsToUint8Range(t *testing.T) {
	assert.Equal(t, uint8(0), clampByte(-50))
	assert.Equal(t, uint8(255), clampByte(400))
	assert.Equal(t, uint8(128), clampByte(128))
}

func Test_clampf_boundsWithinRange(t *testing.T) {
	assert.Equal(t, 0.0, clampf(-1, 0, 1))
	assert.Equal(t, 1.0, clampf(2, 0, 1))
	assert.Equal(t, 0.5, clampf(0.5, 0, 1))
}

func Test_oddLength_alwaysOdd(t *testing.T) {
	for _, n := range []float64{4, 5, 100, 101} {
		got := oddLength(n)
		assert.Equal(t, 1, got%2)
	}
}
