package sstv

/*
 * SSTV mode registry.
 *
 * Timing constants ported from the teacher's 47-mode table (Martin,
 * Scottie, Robot, Wraase SC-2, PD, Pasokon, MMSSTV MP/MR/ML, FAX480),
 * re-expressed as immutable Mode records with two function-typed fields
 * instead of a format-discriminated switch consulted at decode time.
 */

// ColorFormat is the color representation a mode transmits.
type ColorFormat int

const (
	ColorFormatRGB ColorFormat = iota
	ColorFormatGBR
	ColorFormatYCrCb
	ColorFormatGrayscale
)

func (c ColorFormat) String() string {
	switch c {
	case ColorFormatRGB:
		return "rgb"
	case ColorFormatGBR:
		return "gbr"
	case ColorFormatYCrCb:
		return "ycrcb"
	case ColorFormatGrayscale:
		return "grayscale"
	default:
		return "unknown"
	}
}

// ChromaSubsampling describes how chroma planes are carried relative to luma.
type ChromaSubsampling int

const (
	Chroma444 ChromaSubsampling = iota
	Chroma422
	Chroma420
)

func (c ChromaSubsampling) String() string {
	switch c {
	case Chroma444:
		return "4:4:4"
	case Chroma422:
		return "4:2:2"
	case Chroma420:
		return "4:2:0"
	default:
		return "unknown"
	}
}

// timingFunc computes, for a given decoded line index and transmission-order
// channel, either the channel's offset from the line's reference sync edge
// or its scan duration — both in seconds.
type timingFunc func(line, channel int) float64

// Mode is an immutable per-mode parameter record. Structural per-mode
// quirks (Martin's line-start layout, Scottie's mid-line sync, Robot 36/24's
// double-length luma channel, PD's four-channel line pairs) live entirely in
// the two function fields; the rest of the engine never switches on mode
// name or color format to decide timing.
type Mode struct {
	Name      string
	ShortName string

	// VISCode is the standard 7-bit VIS code; ExtendedVIS additionally
	// marks modes reachable only through MMSSTV's extended VIS map.
	VISCode     uint8
	ExtendedVIS bool

	ColorFormat       ColorFormat
	ChromaSubsampling ChromaSubsampling

	Width, Height int

	SyncPulse, SyncPorch float64
	ChannelCount         int
	ChannelOrder         []int
	LineTime             float64
	HasStartSync         bool
	// SyncChannel is the transmission-order channel index before which the
	// mid-line sync pulse falls (Scottie-style). Zero means the sync
	// precedes channel 0, the common case.
	SyncChannel  int
	WindowFactor float64

	ChannelOffset timingFunc
	ScanTime      timingFunc

	Unsupported bool
}

func sequentialTiming(syncPulse, porch, septr, pixelTime float64, width int) (timingFunc, timingFunc) {
	scan := func(line, c int) float64 { return float64(width) * pixelTime }
	offset := func(line, c int) float64 {
		off := syncPulse + porch
		for i := 0; i < c; i++ {
			off += scan(line, i) + septr
		}
		return off
	}
	return offset, scan
}

// scottieTiming is Scottie's reversed layout: separator, G, separator, B,
// sync+porch, R. There is no leading full sync/porch pair — channel 0 is
// preceded only by a separator tone.
func scottieTiming(septr, syncPulse, porch, pixelTime float64, width int) (timingFunc, timingFunc) {
	scan := func(line, c int) float64 { return float64(width) * pixelTime }
	offset := func(line, c int) float64 {
		switch c {
		case 0:
			return septr
		case 1:
			return septr + scan(line, 0) + septr
		case 2:
			return septr + scan(line, 0) + septr + scan(line, 1) + syncPulse + porch
		default:
			return 0
		}
	}
	return offset, scan
}

// robot420Timing is Robot 36/24's shape: a double-length luma channel
// followed by a single chroma channel whose logical target (V on even
// lines, U on odd) is chosen by line parity in linedecoder.go's
// buildRobotGrid, not here.
func robot420Timing(syncPulse, porch, septr, pixelTime float64, width int) (timingFunc, timingFunc) {
	scan := func(line, c int) float64 {
		if c == 0 {
			return float64(width) * pixelTime * 2
		}
		return float64(width) * pixelTime
	}
	offset := func(line, c int) float64 {
		if c == 0 {
			return syncPulse + porch
		}
		return syncPulse + porch + scan(line, 0) + septr
	}
	return offset, scan
}

// pdTiming is the four-channel, no-separator shape shared by PD and MMSSTV
// MP modes: Y-even, V, U, Y-odd back to back after one sync+porch.
func pdTiming(syncPulse, porch, pixelTime float64, width int) (timingFunc, timingFunc) {
	scan := func(line, c int) float64 { return float64(width) * pixelTime }
	offset := func(line, c int) float64 {
		return syncPulse + porch + float64(c)*float64(width)*pixelTime
	}
	return offset, scan
}

func bwTiming(syncPulse, porch, pixelTime float64, width int) (timingFunc, timingFunc) {
	scan := func(line, c int) float64 { return float64(width) * pixelTime }
	offset := func(line, c int) float64 { return syncPulse + porch }
	return offset, scan
}

type shapeKind int

const (
	shapeSequential shapeKind = iota
	shapeScottie
	shapeRobot420
	shapePD
	shapeBW
	shapeUnsupported
)

// rawMode is the authored table: one row per mode, in the shape the
// timing-function builders above consume.
type rawMode struct {
	name, short             string
	visCode                 uint8
	extended                bool
	colorFormat             ColorFormat
	chroma                  ChromaSubsampling
	width, height           int
	syncPulse, porch, septr float64
	pixelTime, lineTime     float64
	shape                   shapeKind
	channelOrder            []int
	windowFactor            float64
}

var rawModes = []rawMode{
	{name: "Amiga Video Transceiver 24", short: "AVT24", visCode: 2, width: 128, height: 120, shape: shapeUnsupported},
	{name: "Amiga Video Transceiver 90", short: "AVT90", visCode: 3, width: 320, height: 256, shape: shapeUnsupported},
	{name: "Amiga Video Transceiver 94", short: "AVT94", visCode: 4, width: 320, height: 200, shape: shapeUnsupported},

	{name: "Martin M1", short: "M1", visCode: 0x2C, colorFormat: ColorFormatGBR, width: 320, height: 256,
		syncPulse: 4.862e-3, porch: 0.572e-3, septr: 0.572e-3, pixelTime: 0.4576e-3, lineTime: 446.446e-3,
		shape: shapeSequential, channelOrder: []int{1, 2, 0}, windowFactor: 1.0},
	{name: "Martin M2", short: "M2", visCode: 0x28, colorFormat: ColorFormatGBR, width: 320, height: 256,
		syncPulse: 4.862e-3, porch: 0.572e-3, septr: 0.572e-3, pixelTime: 0.2288e-3, lineTime: 226.798e-3,
		shape: shapeSequential, channelOrder: []int{1, 2, 0}, windowFactor: 1.0},
	{name: "Martin M3", short: "M3", visCode: 0x24, colorFormat: ColorFormatGBR, width: 320, height: 128,
		syncPulse: 4.862e-3, porch: 0.572e-3, septr: 0.572e-3, pixelTime: 0.4576e-3, lineTime: 446.446e-3,
		shape: shapeSequential, channelOrder: []int{1, 2, 0}, windowFactor: 1.0},
	{name: "Martin M4", short: "M4", visCode: 0x20, colorFormat: ColorFormatGBR, width: 320, height: 128,
		syncPulse: 4.862e-3, porch: 0.572e-3, septr: 0.572e-3, pixelTime: 0.2288e-3, lineTime: 226.798e-3,
		shape: shapeSequential, channelOrder: []int{1, 2, 0}, windowFactor: 1.0},

	{name: "Scottie S1", short: "S1", visCode: 0x3C, colorFormat: ColorFormatGBR, width: 320, height: 256,
		syncPulse: 9e-3, porch: 1.5e-3, septr: 1.5e-3, pixelTime: 0.4320125e-3, lineTime: 428.232e-3,
		shape: shapeScottie, channelOrder: []int{1, 2, 0}, windowFactor: 1.0},
	{name: "Scottie S2", short: "S2", visCode: 0x38, colorFormat: ColorFormatGBR, width: 320, height: 256,
		syncPulse: 9e-3, porch: 1.5e-3, septr: 1.5e-3, pixelTime: 0.2752e-3, lineTime: 277.692e-3,
		shape: shapeScottie, channelOrder: []int{1, 2, 0}, windowFactor: 1.0},
	{name: "Scottie DX", short: "SDX", visCode: 0x4C, colorFormat: ColorFormatGBR, width: 320, height: 256,
		syncPulse: 9e-3, porch: 1.5e-3, septr: 1.5e-3, pixelTime: 1.08e-3, lineTime: 1050.3e-3,
		shape: shapeScottie, channelOrder: []int{1, 2, 0}, windowFactor: 1.5},

	{name: "Robot 12", short: "R12", visCode: 0x00, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 320, height: 120,
		syncPulse: 9e-3, porch: 3e-3, septr: 6e-3, pixelTime: 0.085415625e-3, lineTime: 100e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "Robot 24", short: "R24", visCode: 0x04, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 120,
		syncPulse: 6e-3, porch: 2e-3, septr: 4e-3, pixelTime: 0.14375e-3, lineTime: 200e-3,
		shape: shapeRobot420, channelOrder: []int{0, 1}, windowFactor: 1.0},
	{name: "Robot 36", short: "R36", visCode: 0x08, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 240,
		syncPulse: 9e-3, porch: 3e-3, septr: 6e-3, pixelTime: 0.1375e-3, lineTime: 150e-3,
		shape: shapeRobot420, channelOrder: []int{0, 1}, windowFactor: 1.0},
	{name: "Robot 72", short: "R72", visCode: 0x0C, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 320, height: 240,
		syncPulse: 9e-3, porch: 3e-3, septr: 6e-3, pixelTime: 0.215625e-3, lineTime: 300e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "Robot 8 B/W", short: "R8-BW", visCode: 0x02, colorFormat: ColorFormatGrayscale, width: 320, height: 120,
		syncPulse: 6.666e-3, pixelTime: 0.1875e-3, lineTime: 66.666e-3,
		shape: shapeBW, channelOrder: []int{0}, windowFactor: 1.0},
	{name: "Robot 12 B/W", short: "R12-BW", visCode: 0x06, colorFormat: ColorFormatGrayscale, width: 320, height: 120,
		syncPulse: 7e-3, pixelTime: 0.290625e-3, lineTime: 100e-3,
		shape: shapeBW, channelOrder: []int{0}, windowFactor: 1.0},
	{name: "Robot 24 B/W", short: "R24-BW", visCode: 0x0A, colorFormat: ColorFormatGrayscale, width: 320, height: 240,
		syncPulse: 7e-3, pixelTime: 0.290625e-3, lineTime: 100e-3,
		shape: shapeBW, channelOrder: []int{0}, windowFactor: 1.0},
	{name: "Robot 36 B/W", short: "R36-BW", visCode: 0x0E, colorFormat: ColorFormatGrayscale, width: 320, height: 240,
		syncPulse: 7e-3, pixelTime: 0.446875e-3, lineTime: 150e-3,
		shape: shapeBW, channelOrder: []int{0}, windowFactor: 1.0},

	{name: "Wraase SC-2 60", short: "SC60", visCode: 0x3B, colorFormat: ColorFormatRGB, width: 320, height: 256,
		syncPulse: 5.5006e-3, porch: 0.5e-3, pixelTime: 0.24415e-3, lineTime: 240.3846e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "Wraase SC-2 120", short: "SC120", visCode: 0x3F, colorFormat: ColorFormatRGB, width: 320, height: 256,
		syncPulse: 5.52248e-3, porch: 0.5e-3, pixelTime: 0.4890625e-3, lineTime: 475.52248e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "Wraase SC-2 180", short: "SC180", visCode: 0x37, colorFormat: ColorFormatRGB, width: 320, height: 256,
		syncPulse: 5.5437e-3, porch: 0.5e-3, pixelTime: 0.734375e-3, lineTime: 711.0437e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},

	{name: "PD-50", short: "PD50", visCode: 0x5D, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 256,
		syncPulse: 20e-3, porch: 2.08e-3, pixelTime: 0.286e-3, lineTime: 388.16e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "PD-90", short: "PD90", visCode: 0x63, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 256,
		syncPulse: 20e-3, porch: 2.08e-3, pixelTime: 0.532e-3, lineTime: 703.04e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "PD-120", short: "PD120", visCode: 0x5F, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 640, height: 496,
		syncPulse: 20e-3, porch: 2.08e-3, pixelTime: 0.19e-3, lineTime: 508.48e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "PD-160", short: "PD160", visCode: 0x62, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 512, height: 400,
		syncPulse: 20e-3, porch: 2.08e-3, pixelTime: 0.382e-3, lineTime: 804.416e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "PD-180", short: "PD180", visCode: 0x60, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 640, height: 496,
		syncPulse: 20e-3, porch: 2.08e-3, pixelTime: 0.286e-3, lineTime: 754.24e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "PD-240", short: "PD240", visCode: 0x61, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 640, height: 496,
		syncPulse: 20e-3, porch: 2.08e-3, pixelTime: 0.382e-3, lineTime: 1000e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "PD-290", short: "PD290", visCode: 0x5E, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 800, height: 616,
		syncPulse: 20e-3, porch: 2.08e-3, pixelTime: 0.286e-3, lineTime: 937.28e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},

	{name: "Pasokon P3", short: "P3", visCode: 0x71, colorFormat: ColorFormatRGB, width: 640, height: 496,
		syncPulse: 25.0 / 4800.0, septr: 5.0 / 4800.0, pixelTime: 1.0 / 4800.0, lineTime: 409.375e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "Pasokon P5", short: "P5", visCode: 0x72, colorFormat: ColorFormatRGB, width: 640, height: 496,
		syncPulse: 25.0 / 3200.0, septr: 5.0 / 3200.0, pixelTime: 1.0 / 3200.0, lineTime: 614.0625e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "Pasokon P7", short: "P7", visCode: 0x73, colorFormat: ColorFormatRGB, width: 640, height: 496,
		syncPulse: 25.0 / 2400.0, septr: 5.0 / 2400.0, pixelTime: 1.0 / 2400.0, lineTime: 818.75e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},

	{name: "MMSSTV MP73", short: "MP73", visCode: 37, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, pixelTime: 0.4375e-3, lineTime: 570.0e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "MMSSTV MP115", short: "MP115", visCode: 41, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, pixelTime: 0.696875e-3, lineTime: 902.0e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "MMSSTV MP140", short: "MP140", visCode: 42, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, pixelTime: 0.84375e-3, lineTime: 1090.0e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},
	{name: "MMSSTV MP175", short: "MP175", visCode: 44, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma420, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, pixelTime: 1.0625e-3, lineTime: 1370.0e-3,
		shape: shapePD, channelOrder: []int{0, 1, 2, 3}, windowFactor: 1.0},

	{name: "MMSSTV MR73", short: "MR73", visCode: 69, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.215625e-3, lineTime: 286.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "MMSSTV MR90", short: "MR90", visCode: 70, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.2671875e-3, lineTime: 352.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "MMSSTV MR115", short: "MR115", visCode: 73, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.34375e-3, lineTime: 450.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "MMSSTV MR140", short: "MR140", visCode: 74, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.4203125e-3, lineTime: 548.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "MMSSTV MR175", short: "MR175", visCode: 76, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 320, height: 256,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.5265625e-3, lineTime: 684.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},

	{name: "MMSSTV ML180", short: "ML180", visCode: 5, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 640, height: 496,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.137890625e-3, lineTime: 363.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "MMSSTV ML240", short: "ML240", visCode: 6, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 640, height: 496,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.184765625e-3, lineTime: 483.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "MMSSTV ML280", short: "ML280", visCode: 9, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 640, height: 496,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.216796875e-3, lineTime: 565.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},
	{name: "MMSSTV ML320", short: "ML320", visCode: 10, extended: true, colorFormat: ColorFormatYCrCb, chroma: Chroma422, width: 640, height: 496,
		syncPulse: 9.0e-3, porch: 1.0e-3, septr: 0.1e-3, pixelTime: 0.248046875e-3, lineTime: 645.3e-3,
		shape: shapeSequential, channelOrder: []int{0, 1, 2}, windowFactor: 1.0},

	{name: "FAX480", short: "FAX480", visCode: 0x0D, colorFormat: ColorFormatGrayscale, width: 512, height: 480,
		syncPulse: 5.12e-3, pixelTime: 0.512e-3, lineTime: 267.264e-3,
		shape: shapeBW, channelOrder: []int{0}, windowFactor: 1.0},
}

func buildMode(r rawMode) Mode {
	m := Mode{
		Name:              r.name,
		ShortName:         r.short,
		VISCode:           r.visCode,
		ExtendedVIS:       r.extended,
		ColorFormat:       r.colorFormat,
		ChromaSubsampling: r.chroma,
		Width:             r.width,
		Height:            r.height,
		SyncPulse:         r.syncPulse,
		SyncPorch:         r.porch,
		ChannelOrder:      r.channelOrder,
		LineTime:          r.lineTime,
		WindowFactor:      r.windowFactor,
		Unsupported:       r.shape == shapeUnsupported,
	}

	if m.Unsupported {
		m.ChannelCount = 3
		m.ChannelOrder = []int{0, 1, 2}
		m.HasStartSync = true
		m.ChannelOffset = func(line, c int) float64 { return 0 }
		m.ScanTime = func(line, c int) float64 { return 0 }
		return m
	}

	switch r.shape {
	case shapeSequential:
		m.ChannelCount = len(r.channelOrder)
		m.HasStartSync = true
		m.ChannelOffset, m.ScanTime = sequentialTiming(r.syncPulse, r.porch, r.septr, r.pixelTime, r.width)
	case shapeScottie:
		m.ChannelCount = 3
		m.HasStartSync = false
		m.SyncChannel = 2
		m.ChannelOffset, m.ScanTime = scottieTiming(r.septr, r.syncPulse, r.porch, r.pixelTime, r.width)
	case shapeRobot420:
		m.ChannelCount = 2
		m.HasStartSync = true
		m.ChannelOffset, m.ScanTime = robot420Timing(r.syncPulse, r.porch, r.septr, r.pixelTime, r.width)
	case shapePD:
		m.ChannelCount = 4
		m.HasStartSync = true
		m.ChannelOffset, m.ScanTime = pdTiming(r.syncPulse, r.porch, r.pixelTime, r.width)
	case shapeBW:
		m.ChannelCount = 1
		m.HasStartSync = true
		m.ChannelOffset, m.ScanTime = bwTiming(r.syncPulse, r.porch, r.pixelTime, r.width)
	}

	return m
}

var (
	registry  []Mode
	visIndex  [128]*Mode
	visxIndex [128]*Mode
)

func init() {
	registry = make([]Mode, len(rawModes))
	for i, r := range rawModes {
		registry[i] = buildMode(r)
	}
	for i := range registry {
		m := &registry[i]
		if m.VISCode >= 128 {
			continue
		}
		if m.ExtendedVIS {
			visxIndex[m.VISCode] = m
		} else {
			visIndex[m.VISCode] = m
		}
	}
}

// GetByVIS resolves a standard 7-bit VIS code to its mode, or nil if unknown.
func GetByVIS(code uint8) *Mode {
	if code >= 128 {
		return nil
	}
	return visIndex[code]
}

// GetByExtendedVIS resolves an MMSSTV extended VIS code to its mode.
func GetByExtendedVIS(code uint8) *Mode {
	if code >= 128 {
		return nil
	}
	return visxIndex[code]
}

// All returns every registered mode (including unsupported placeholders).
func All() []Mode {
	return registry
}

// GetByName resolves a mode by its full name or short name (e.g. "Martin
// M1" or "M1"), for callers identifying a mode by id rather than by
// VIS code — spec.md §6's encoder API accepts either.
func GetByName(name string) *Mode {
	for i := range registry {
		m := &registry[i]
		if m.Name == name || m.ShortName == name {
			return m
		}
	}
	return nil
}

// syncWidthBucket classifies a mode by its nominal sync-pulse width bucket.
func syncWidthBucket(m *Mode) float64 {
	switch {
	case m.SyncPulse < 7e-3:
		return 5e-3
	case m.SyncPulse < 14.5e-3:
		return 9e-3
	default:
		return 20e-3
	}
}

// CategorizeBySyncWidth buckets all supported modes by nominal sync-pulse
// width (5, 9, or 20 ms), for the sync-history arbiter's candidate search.
func CategorizeBySyncWidth() (w5, w9, w20 []*Mode) {
	for i := range registry {
		m := &registry[i]
		if m.Unsupported {
			continue
		}
		switch syncWidthBucket(m) {
		case 5e-3:
			w5 = append(w5, m)
		case 9e-3:
			w9 = append(w9, m)
		default:
			w20 = append(w20, m)
		}
	}
	return
}
