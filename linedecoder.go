package sstv

import "math"

/*
 * Per-line pixel extraction.
 *
 * Schedules a per-pixel raw-audio window (center sample index + window
 * length, per spec.md §4.7's channelStart/pixelTime/windowFactor
 * formulas) for every pixel of a line, then resolves each window's
 * dominant frequency via the FFT peak finder and maps it to an 8-bit
 * pixel value. Grounded on the teacher's video_demod.go
 * GetPixelGrid/Demodulate (per-mode channel layout, Robot-36/24 line-
 * parity chroma routing, the teacher's own unreachable PD four-channel
 * branch — see DESIGN.md's modes.go notes) generalized from the
 * teacher's single adaptive-window FFT pass over a running stream into
 * windowFactor-sized windows read directly from the raw ring buffer, as
 * spec.md §4.7 specifies.
 */

// pixelSample is one scheduled pixel read: the raw-audio window to
// extract it from (center sample index, window length in samples), the
// image coordinate it fills, and which of the mode's three logical
// channels (0=Y/R, 1=Cr(V)/G, 2=Cb(U)/B, matching ycrcbToRGB's channel
// sense) it belongs to.
type pixelSample struct {
	center, windowLen int
	x, y              int
	logicalCh         int
}

// buildPixelGrid schedules every pixel of `lines` lines of mode m, with
// the line's reference sync edge at syncIndex(y). lines may exceed
// m.Height: the streaming controller's timing-based resilience path
// (spec.md §4.9 step 5) keeps decoding into the image buffer's slack
// region past the mode's nominal height for over-length or
// noise-preview transmissions.
func buildPixelGrid(m *Mode, sampleRate float64, syncIndex func(y int) int, lines int) []pixelSample {
	switch m.ChannelCount {
	case 4:
		return buildPDGrid(m, sampleRate, syncIndex, lines)
	case 2:
		return buildRobotGrid(m, sampleRate, syncIndex, lines)
	default:
		return buildSequentialGrid(m, sampleRate, syncIndex, lines)
	}
}

// channelWindow computes, per spec.md §4.7, the window length (samples)
// for one pixel of channel c on line line.
func channelWindow(m *Mode, line, c int, sampleRate float64) int {
	pixelTime := m.ScanTime(line, c) / float64(m.Width)
	halfWindow := pixelTime * m.WindowFactor / 2
	return int(math.Round(2 * halfWindow * sampleRate))
}

func pixelCenter(syncIdx int, offset, pixelTime float64, p int, sampleRate float64) int {
	channelStart := syncIdx + int(math.Floor(offset*sampleRate))
	return channelStart + int(math.Round(float64(p)*pixelTime*sampleRate))
}

func buildSequentialGrid(m *Mode, sampleRate float64, syncIndex func(y int) int, lines int) []pixelSample {
	var out []pixelSample
	for y := 0; y < lines; y++ {
		base := syncIndex(y)
		for c := 0; c < m.ChannelCount; c++ {
			logical := m.ChannelOrder[c]
			offset := m.ChannelOffset(y, c)
			pixelTime := m.ScanTime(y, c) / float64(m.Width)
			winLen := channelWindow(m, y, c, sampleRate)
			for x := 0; x < m.Width; x++ {
				center := pixelCenter(base, offset, pixelTime, x, sampleRate)
				out = append(out, pixelSample{center: center, windowLen: winLen, x: x, y: y, logicalCh: logical})
			}
		}
	}
	return out
}

// buildRobotGrid schedules Robot 36/24's double-length luma channel and
// its single chroma channel. The chroma channel's logical target
// alternates between plane 1/V (even lines) and plane 2/U (odd lines),
// matching ycrcbToRGB's Cr=plane1/Cb=plane2 convention, and is written
// to both the current and following image line, per the teacher's
// line-parity switch and its "channels twice the height" duplication.
func buildRobotGrid(m *Mode, sampleRate float64, syncIndex func(y int) int, lines int) []pixelSample {
	var out []pixelSample
	for y := 0; y < lines; y++ {
		base := syncIndex(y)

		yOffset := m.ChannelOffset(y, 0)
		yPixelTime := m.ScanTime(y, 0) / float64(m.Width)
		yWin := channelWindow(m, y, 0, sampleRate)
		for x := 0; x < m.Width; x++ {
			center := pixelCenter(base, yOffset, yPixelTime, x, sampleRate)
			out = append(out, pixelSample{center: center, windowLen: yWin, x: x, y: y, logicalCh: 0})
		}

		chromaOffset := m.ChannelOffset(y, 1)
		chromaPixelTime := m.ScanTime(y, 1) / float64(m.Width)
		chromaWin := channelWindow(m, y, 1, sampleRate)
		chromaLogical := 1 // V, even lines
		if y%2 == 1 {
			chromaLogical = 2 // U, odd lines
		}
		for x := 0; x < m.Width; x++ {
			center := pixelCenter(base, chromaOffset, chromaPixelTime, x, sampleRate)
			out = append(out, pixelSample{center: center, windowLen: chromaWin, x: x, y: y, logicalCh: chromaLogical})
			if y+1 < lines {
				out = append(out, pixelSample{center: center, windowLen: chromaWin, x: x, y: y + 1, logicalCh: chromaLogical})
			}
		}
	}
	return out
}

// buildPDGrid schedules PD/MMSSTV-MP's four channels (Y-even, V, U,
// Y-odd) across one shared pair of image lines per radio frame, per the
// teacher's unreached numChans==4 branch in GetPixelGrid and spec.md
// §4.7's PD variant (channel 0 to Y-even, 3 to Y-odd, transmission
// channel 1/V to plane 1 and channel 2/U to plane 2, both shared across
// both lines, matching ycrcbToRGB's Cr=plane1/Cb=plane2 convention).
func buildPDGrid(m *Mode, sampleRate float64, syncIndex func(y int) int, lines int) []pixelSample {
	var out []pixelSample
	for y := 0; y < lines; y += 2 {
		base := syncIndex(y)
		for c := 0; c < 4; c++ {
			offset := m.ChannelOffset(y, c)
			pixelTime := m.ScanTime(y, c) / float64(m.Width)
			winLen := channelWindow(m, y, c, sampleRate)
			for x := 0; x < m.Width; x++ {
				center := pixelCenter(base, offset, pixelTime, x, sampleRate)
				switch c {
				case 0:
					out = append(out, pixelSample{center: center, windowLen: winLen, x: x, y: y, logicalCh: 0})
				case 1:
					out = append(out, pixelSample{center: center, windowLen: winLen, x: x, y: y, logicalCh: 1})
					if y+1 < lines {
						out = append(out, pixelSample{center: center, windowLen: winLen, x: x, y: y + 1, logicalCh: 1})
					}
				case 2:
					out = append(out, pixelSample{center: center, windowLen: winLen, x: x, y: y, logicalCh: 2})
					if y+1 < lines {
						out = append(out, pixelSample{center: center, windowLen: winLen, x: x, y: y + 1, logicalCh: 2})
					}
				case 3:
					if y+1 < lines {
						out = append(out, pixelSample{center: center, windowLen: winLen, x: x, y: y + 1, logicalCh: 0})
					}
				}
			}
		}
	}
	return out
}

// extractPixels resolves every scheduled pixel window against the raw
// ring buffer and writes the decoded value into buf. Windows that fall
// even partially outside the buffer's retained range are silently
// skipped, per spec.md §8's boundary behavior: the pixel keeps its
// default value.
func extractPixels(grid []pixelSample, raw *ringBuffer, pf *peakFinder, buf *imageBuffer) {
	for _, ps := range grid {
		if ps.windowLen <= 0 {
			continue
		}
		start := ps.center - ps.windowLen/2
		samples, err := raw.Window(start, ps.windowLen)
		if err != nil {
			continue
		}
		buf.set(ps.x, ps.y, ps.logicalCh, pf.peakPixel(samples))
	}
}
