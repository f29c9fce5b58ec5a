package sstv

import "math"

/*
 * Image channel buffer and RGB conversion.
 *
 * Planar per-channel pixel storage (one []uint8 per logical channel,
 * not the teacher's [][][]uint8 cube), YCrCb/BT.601-style conversion
 * lifted verbatim from the teacher's convertToRGB, and the EMA-based
 * slant correction spec.md §4.9 names in place of the teacher's
 * Hough-transform detector (sync.go, not carried forward — see
 * DESIGN.md).
 */

// DecodedImage is the final, public result of decoding one transmission.
type DecodedImage struct {
	Mode         *Mode
	Width        int
	Height       int
	RGB          []uint8 // width*height*3 bytes
	LinesDecoded int
	VISCode      uint8
	FSKCallsign  string // operator ID, if one was found trailing the image
}

// imageLineSlack is extra line capacity absorbing over-length
// transmissions, per spec.md §3's image-channel-buffer entry.
const imageLineSlack = 128

// imageBuffer accumulates one frame's worth of decoded pixels across up
// to three logical channels (0=Y/R, 1=Cr(V)/G, 2=Cb(U)/B) before RGB
// conversion.
// linesDecoded is mutated in exactly one place, advanceLine, so the
// per-line observer callback can never fire out of order with the
// count it reports — spec.md §9's "centralize linesDecoded mutation"
// note.
type imageBuffer struct {
	width, height int // height is the mode's nominal height; capacity is height+imageLineSlack
	capacity      int
	channels      [3][]uint8
	chromaSet     [2][]bool // tracks whether channel 1/2 has been written, for the 128 default
	linesDecoded  int
}

func newImageBuffer(width, height int) *imageBuffer {
	capacity := height + imageLineSlack
	b := &imageBuffer{width: width, height: height, capacity: capacity}
	for c := range b.channels {
		b.channels[c] = make([]uint8, width*capacity)
	}
	for c := range b.chromaSet {
		b.chromaSet[c] = make([]bool, width*capacity)
	}
	return b
}

func (b *imageBuffer) set(x, y, logicalCh int, v uint8) {
	if x < 0 || x >= b.width || y < 0 || y >= b.capacity {
		return
	}
	i := y*b.width + x
	b.channels[logicalCh][i] = v
	if logicalCh == 1 || logicalCh == 2 {
		b.chromaSet[logicalCh-1][i] = true
	}
}

// reset clears every channel and linesDecoded back to zero, for reuse
// across frames.
func (b *imageBuffer) reset() {
	for c := range b.channels {
		for i := range b.channels[c] {
			b.channels[c][i] = 0
		}
	}
	for c := range b.chromaSet {
		for i := range b.chromaSet[c] {
			b.chromaSet[c][i] = false
		}
	}
	b.linesDecoded = 0
}

// advanceLine renders line y, records it as decoded (linesDecoded only
// ever grows), and emits the single per-line observer callback. This is
// the one place linesDecoded changes, per spec.md §9.
func (b *imageBuffer) advanceLine(m *Mode, y int, isNoise bool, events *Events) []uint8 {
	rgbLine := b.convertLineToRGB(m, y)
	if y+1 > b.linesDecoded {
		b.linesDecoded = y + 1
	}
	events.emitLine(LineEvent{
		Line:         y,
		Pixels:       rgbLine,
		Width:        b.width,
		Height:       m.Height,
		ModeName:     m.Name,
		LinesDecoded: b.linesDecoded,
		IsNoise:      isNoise,
	})
	return rgbLine
}

// convertLineToRGB renders one decoded line to interleaved RGB bytes,
// per the mode's color format. Chroma channels default to 128 (neutral)
// wherever a pixel was never written, matching the teacher's
// zero-initialized cube for lines whose chroma hasn't arrived yet —
// except 128 is the correct neutral midpoint for signed chroma, where
// the teacher's 0 is not.
func (b *imageBuffer) convertLineToRGB(m *Mode, y int) []uint8 {
	line := make([]uint8, b.width*3)
	for x := 0; x < b.width; x++ {
		i := y*b.width + x
		off := x * 3

		y0 := b.channels[0][i]
		ch1 := b.chromaOrDefault(1, i)
		ch2 := b.chromaOrDefault(2, i)

		switch m.ColorFormat {
		case ColorFormatRGB, ColorFormatGBR:
			// ChannelOrder already normalizes transmission order to logical
			// [0]=R,[1]=G,[2]=B for both formats; GBR differs from RGB only
			// in wire order, not in plane assignment.
			line[off], line[off+1], line[off+2] = y0, ch1, ch2
		case ColorFormatYCrCb:
			r, g, bch := ycrcbToRGB(y0, ch1, ch2)
			line[off], line[off+1], line[off+2] = r, g, bch
		case ColorFormatGrayscale:
			line[off], line[off+1], line[off+2] = y0, y0, y0
		}
	}
	return line
}

func (b *imageBuffer) chromaOrDefault(logicalCh, i int) uint8 {
	if !b.chromaSet[logicalCh-1][i] {
		return 128
	}
	return b.channels[logicalCh][i]
}

// ycrcbToRGB is the teacher's BT.601-style full-range conversion
// (convertToRGB's ColorYUV case), unchanged: Y in channel 0, Cr in
// channel 1, Cb in channel 2.
func ycrcbToRGB(y, cr, cb uint8) (r, g, b uint8) {
	yf, crf, cbf := float64(y), float64(cr), float64(cb)
	r = clampByte((100*yf + 140*crf - 17850) / 100.0)
	g = clampByte((100*yf - 71*crf - 33*cbf + 13260) / 100.0)
	b = clampByte((100*yf + 178*cbf - 22695) / 100.0)
	return r, g, b
}

// toRGB renders the first `lines` rows of the buffer to a flat,
// row-major RGB byte slice — typically b.linesDecoded, so a flushed
// partial or over-length image reflects exactly what was decoded.
func (b *imageBuffer) toRGB(m *Mode, lines int) []uint8 {
	out := make([]uint8, b.width*lines*3)
	for y := 0; y < lines; y++ {
		copy(out[y*b.width*3:(y+1)*b.width*3], b.convertLineToRGB(m, y))
	}
	return out
}

// slantCorrect applies spec.md §4.9's per-line circular column shift to
// a flat row-major RGB image: pixelsPerLine = driftPerLine/expectedLineSamples
// * width; below 0.1 pixels the image is returned unchanged. Each row y
// is shifted by round(y * pixelsPerLine) columns, wrapping rather than
// leaving black edges.
func slantCorrect(rgb []uint8, width, height int, driftPerLine, expectedLineSamples float64) []uint8 {
	if expectedLineSamples == 0 {
		return rgb
	}
	pixelsPerLine := driftPerLine / expectedLineSamples * float64(width)
	if math.Abs(pixelsPerLine) < 0.1 {
		return rgb
	}

	out := make([]uint8, len(rgb))
	for y := 0; y < height; y++ {
		shift := int(math.Round(float64(y) * pixelsPerLine))
		shift = ((shift % width) + width) % width
		rowOff := y * width * 3
		for x := 0; x < width; x++ {
			srcX := ((x - shift) % width + width) % width
			copy(out[rowOff+x*3:rowOff+x*3+3], rgb[rowOff+srcX*3:rowOff+srcX*3+3])
		}
	}
	return out
}
