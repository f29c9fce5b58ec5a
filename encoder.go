package sstv

import (
	"fmt"
	"math"
)

/*
 * Encoder.
 *
 * Symmetric construction to the decoder per spec.md §4.10: a single
 * phase accumulator walked forward tone by tone (sin(φ), φ += 2πf/R,
 * wrapped mod 2π after every tone to bound floating-point drift over a
 * multi-second transmission), reusing the same Mode timing records and
 * the same pixelToFrequency/frequencyToPixel mapping (fftpeak.go) the
 * decoder reads back. There is no teacher encoder to port — ka9q_ubersdr
 * only ever receives — so this is grounded on inverting the decode path
 * this package already builds: modes.go's ChannelOffset/ScanTime closures
 * describe exactly when each channel starts and how long it runs, so the
 * same closures drive tone placement on the way out.
 */

const separatorToneFreq = 1500.0

// EncoderConfig parameterizes one Encode call.
type EncoderConfig struct {
	Mode                 *Mode
	SampleRate           float64
	AddCalibrationHeader bool
	AddVoxTones          bool
}

// toneAccumulator is the encoder's single running phase, per spec.md
// §4.10: a plain float64 carried across the whole transmission rather
// than reset at tone boundaries, wrapped mod 2π after each tone to
// bound precision loss over a multi-second encode.
type toneAccumulator struct {
	sampleRate float64
	phase      float64
	out        []float64
}

func (t *toneAccumulator) tone(freq, duration float64) {
	n := int(math.Round(duration * t.sampleRate))
	if freq == 0 { // true silence (VOX gap), not a 0 Hz carrier
		for i := 0; i < n; i++ {
			t.out = append(t.out, 0)
		}
		return
	}
	step := 2 * math.Pi * freq / t.sampleRate
	for i := 0; i < n; i++ {
		t.out = append(t.out, math.Sin(t.phase))
		t.phase += step
	}
	t.phase = math.Mod(t.phase, 2*math.Pi)
}

// Encode renders one complete SSTV transmission of the given image in
// cfg.Mode to a stream of real audio samples at cfg.SampleRate. The image
// is resized to the mode's canonical width/height via nearest-neighbor if
// it doesn't already match.
func Encode(rgb []uint8, width, height int, cfg EncoderConfig) ([]float64, error) {
	if cfg.Mode == nil {
		return nil, fmt.Errorf("sstv: encode requires a mode")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sstv: invalid sample rate %g", cfg.SampleRate)
	}
	if cfg.Mode.Unsupported {
		return nil, fmt.Errorf("sstv: mode %s has no wire format (placeholder entry)", cfg.Mode.Name)
	}
	if len(rgb) != width*height*3 {
		return nil, fmt.Errorf("sstv: rgb buffer length %d doesn't match %dx%d*3", len(rgb), width, height)
	}

	m := cfg.Mode
	if width != m.Width || height != m.Height {
		rgb = resizeNearest(rgb, width, height, m.Width, m.Height)
	}

	acc := &toneAccumulator{sampleRate: cfg.SampleRate}

	if cfg.AddVoxTones {
		acc.tone(1900, 100e-3)
		acc.tone(0, 100e-3) // silence: emitted as a zero-frequency "tone"
		acc.tone(1900, 100e-3)
	}
	if cfg.AddCalibrationHeader {
		acc.tone(1900, 300e-3)
		acc.tone(1200, 10e-3)
		acc.tone(1900, 300e-3)
		acc.tone(1200, 30e-3)
	}
	encodeVIS(acc, m.VISCode)

	rows := linesPerSync(m)
	for y := 0; y < m.Height; y += rows {
		encodeLine(acc, m, rgb, y, rows)
	}

	return acc.out, nil
}

// encodeVIS writes the full VIS header: the two 300ms 1900Hz leaders
// around a 10ms 1200Hz break, then the 7-bit VIS code (LSB-first, even
// parity except R12BW's inverted parity) bracketed by 1200 Hz start/stop
// delimiters — the same wire shape vis.go's decodeVIS reads back.
func encodeVIS(acc *toneAccumulator, code uint8) {
	acc.tone(visLeaderFreq, visLeaderTone)
	acc.tone(visStartStopFreq, visBreakDuration)
	acc.tone(visLeaderFreq, visLeaderTone)

	bits := make([]uint8, 7)
	parity := uint8(0)
	for i := 0; i < 7; i++ {
		bits[i] = (code >> uint(i)) & 1
		parity ^= bits[i]
	}
	if code == visInvertedParityCode {
		parity = 1 - parity
	}

	acc.tone(visStartStopFreq, visBitDuration)
	for i := 0; i < 7; i++ {
		if bits[i] == 1 {
			acc.tone(visBitOneFreq, visBitDuration)
		} else {
			acc.tone(visBitZeroFreq, visBitDuration)
		}
	}
	if parity == 1 {
		acc.tone(visBitOneFreq, visBitDuration)
	} else {
		acc.tone(visBitZeroFreq, visBitDuration)
	}
	acc.tone(visStartStopFreq, visBitDuration)
}

// encodeLine writes the sync/porch/separator/pixel-tone sequence for one
// transmitted "line" — a single image row for every shape except PD/MP,
// where rows==2 and one line covers an even/odd row pair (spec.md
// §4.10's chroma-averaging clause).
func encodeLine(acc *toneAccumulator, m *Mode, rgb []uint8, y, rows int) {
	cursor := 0.0
	for c := 0; c < m.ChannelCount; c++ {
		target := m.ChannelOffset(y, c)
		gap := target - cursor

		isSyncGap := (c == 0 && m.HasStartSync) || (c == m.SyncChannel && !m.HasStartSync && c != 0)
		switch {
		case isSyncGap:
			acc.tone(syncTargetFreq, m.SyncPulse)
			if porch := gap - m.SyncPulse; porch > 0 {
				acc.tone(porchFreq, porch)
			}
		case gap > 1e-9:
			acc.tone(separatorToneFreq, gap)
		}
		cursor = target

		scanDur := m.ScanTime(y, c)
		values := channelValues(m, rgb, y, rows, c)
		pixelDur := scanDur / float64(m.Width)
		for _, v := range values {
			acc.tone(pixelToFrequency(v), pixelDur)
		}
		cursor += scanDur
	}
}

// channelValues extracts the width pixel values channel c carries for
// transmitted row y, converting from interleaved RGB per the mode's
// color format and chroma layout (spec.md §4.10's color-space-conversion
// clause).
func channelValues(m *Mode, rgb []uint8, y, rows, c int) []uint8 {
	out := make([]uint8, m.Width)

	switch {
	case m.ChannelCount == 4: // PD/MP: 0=Y-even, 1=V, 2=U, 3=Y-odd, chroma averaged across the pair
		for x := 0; x < m.Width; x++ {
			switch c {
			case 0:
				out[x], _, _ = rgbToChannels(m, rgb, x, y)
			case 3:
				row := y
				if rows > 1 {
					row = y + 1
				}
				out[x], _, _ = rgbToChannels(m, rgb, x, row)
			case 1, 2:
				_, v0, u0 := rgbToChannels(m, rgb, x, y)
				v1, u1 := v0, u0
				if rows > 1 {
					_, v1, u1 = rgbToChannels(m, rgb, x, y+1)
				}
				if c == 1 {
					out[x] = uint8((int(v0) + int(v1)) / 2)
				} else {
					out[x] = uint8((int(u0) + int(u1)) / 2)
				}
			}
		}
	case m.ChannelCount == 2: // Robot 36/24: 0=luma, 1=chroma (V even lines, U odd lines)
		for x := 0; x < m.Width; x++ {
			if c == 0 {
				out[x], _, _ = rgbToChannels(m, rgb, x, y)
			} else if y%2 == 0 {
				_, out[x], _ = rgbToChannels(m, rgb, x, y)
			} else {
				_, _, out[x] = rgbToChannels(m, rgb, x, y)
			}
		}
	default: // sequential shapes: transmission order c maps to logical channel m.ChannelOrder[c]
		logical := m.ChannelOrder[c]
		for x := 0; x < m.Width; x++ {
			ch0, ch1, ch2 := rgbToChannels(m, rgb, x, y)
			switch logical {
			case 0:
				out[x] = ch0
			case 1:
				out[x] = ch1
			default:
				out[x] = ch2
			}
		}
	}
	return out
}

// rgbToChannels converts one pixel's RGB triple to the mode's three
// logical channel values (0/1/2, the same sense imagebuffer.go's
// convertLineToRGB reads them back in), inverting that function's
// per-ColorFormat cases up to byte rounding and clamping.
func rgbToChannels(m *Mode, rgb []uint8, x, y int) (ch0, ch1, ch2 uint8) {
	i := (y*m.Width + x) * 3
	r, g, b := rgb[i], rgb[i+1], rgb[i+2]

	switch m.ColorFormat {
	case ColorFormatRGB, ColorFormatGBR:
		// ChannelOrder alone handles GBR's wire-order permutation (see
		// channelValues' default branch); re-permuting here would apply
		// it twice.
		return r, g, b
	case ColorFormatYCrCb:
		rf, gf, bf := float64(r), float64(g), float64(b)
		y0 := 0.299*rf + 0.587*gf + 0.114*bf
		// R−Y and B−Y are divided by ycrcbToRGB's 1.40 and 1.78 gains so
		// the decoder's matrix maps them back to R and B.
		cr := clampByte((rf-y0)/1.40 + 128)
		cb := clampByte((bf-y0)/1.78 + 128)
		return clampByte(y0), cr, cb
	case ColorFormatGrayscale:
		rf, gf, bf := float64(r), float64(g), float64(b)
		lum := clampByte(0.299*rf + 0.587*gf + 0.114*bf)
		return lum, 0, 0
	default:
		return r, g, b
	}
}

// resizeNearest resizes an interleaved RGB buffer from srcW x srcH to
// dstW x dstH by nearest-neighbor sampling, per spec.md §6's encoder API.
func resizeNearest(src []uint8, srcW, srcH, dstW, dstH int) []uint8 {
	out := make([]uint8, dstW*dstH*3)
	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		if sy >= srcH {
			sy = srcH - 1
		}
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			if sx >= srcW {
				sx = srcW - 1
			}
			si := (sy*srcW + sx) * 3
			di := (y*dstW + x) * 3
			out[di], out[di+1], out[di+2] = src[si], src[si+1], src[si+2]
		}
	}
	return out
}
