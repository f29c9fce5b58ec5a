package sstv

import (
	"math"

	"github.com/google/uuid"
)

/*
 * Streaming controller.
 *
 * Grounded on the teacher's decoder.go decodeLoop/SSTVDecoder state
 * machine (StateInit/StateWaitingVIS/StateDecodingVideo/StateComplete,
 * a goroutine pumping chunks through the demodulator), restructured
 * per spec.md §4.9: the teacher only ever latches a mode from a VIS
 * header, where this controller also latches from sync-pulse timing
 * alone (synchistory.go's arbiter) and lets either source start or
 * re-arbitrate a decode. Output is the Events callback set (events.go)
 * rather than the teacher's websocket message channel.
 */

// ControllerState is the streaming controller's externally visible state.
type ControllerState int

const (
	StateSearching ControllerState = iota
	StateDecodingVIS
	StateDecodingImage
	StateCancelled
)

func (s ControllerState) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateDecodingVIS:
		return "decoding_vis"
	case StateDecodingImage:
		return "decoding_image"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StreamingConfig parameterizes one Controller.
type StreamingConfig struct {
	SampleRate float64

	// MaxBufferSeconds bounds the raw ring buffer; defaults to 10s.
	MaxBufferSeconds float64

	// FFTSize is the peak finder's transform size; defaults to 4096.
	FFTSize int

	// ForceMode, if set, starts the controller (and every Reset) already
	// locked to this mode. Detection is not switched off: a later VIS
	// header can still replace it unless AllowVISInterrupt is false, and
	// once its image completes the controller returns to Searching
	// without locking it again.
	ForceMode *Mode

	// OutputNoise, if true, emits Line events for timing-extrapolated
	// lines (IsNoise=true) as they're decoded rather than only on a
	// genuine sync-confirmed line. Off by default: these previews carry
	// no corroborating sync and are mainly useful for a live waterfall.
	OutputNoise bool

	// AllowVISInterrupt, if set to false, stops a successful mid-stream
	// VIS decode from overriding an already-latched mode via the
	// arbiter's §4.6 priority rule: later VIS candidates (e.g. a
	// neighboring station's header bleeding through) are ignored rather
	// than interrupting the current image. Left unset (nil), the
	// default is true — a fresh VIS header can interrupt an in-progress
	// decode, which is what lets back-to-back transmissions in
	// different modes hand off cleanly without waiting for the first
	// image's slack region to exhaust.
	AllowVISInterrupt *bool
}

func (c StreamingConfig) allowVISInterrupt() bool {
	return c.AllowVISInterrupt == nil || *c.AllowVISInterrupt
}

func (c StreamingConfig) withDefaults() StreamingConfig {
	if c.MaxBufferSeconds <= 0 {
		c.MaxBufferSeconds = 10
	}
	if c.FFTSize <= 0 {
		c.FFTSize = 4096
	}
	return c
}

// Controller is the stateful streaming SSTV decoder: feed it arbitrarily
// sized chunks of real audio via Process, and it emits images, lines, and
// mode changes through its Events as they are decoded.
type Controller struct {
	cfg    StreamingConfig
	events *Events

	sessionID uuid.UUID

	demod   *demodulator
	raw     *ringBuffer
	pf      *peakFinder
	arbiter *modeArbiter

	state ControllerState
	mode  *Mode
	buf   *imageBuffer

	visCandidates []visCandidate

	// originShift mirrors raw's cumulative Compact() shift, letting the
	// controller translate the demodulator's unshifted running sample
	// counter into raw-buffer-relative indices on demand.
	originShift int64

	lastSyncIndex       int // next line's expected sync index, raw-relative
	currentLineSamples  float64
	expectedLineSamples float64
	driftPerLine        float64
	havePrevSync        bool
	prevSyncIndex       int

	visCode uint8
}

// NewController builds a Controller ready to accept audio via Process.
func NewController(cfg StreamingConfig, events *Events) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		cfg:       cfg,
		events:    events,
		sessionID: uuid.New(),
		demod:     newDemodulator(cfg.SampleRate),
		raw:       newRingBuffer(int(cfg.MaxBufferSeconds * cfg.SampleRate)),
		pf:        newPeakFinder(cfg.SampleRate, cfg.FFTSize),
		arbiter:   newModeArbiter(cfg.SampleRate),
	}
	c.startState(StateSearching)
	if cfg.ForceMode != nil {
		c.lockMode(cfg.ForceMode, 0, DetectMethodTiming)
	}
	return c
}

// SessionID identifies this controller instance, for correlating its
// emitted events across a longer-lived caller (e.g. a log line per
// session rather than per event).
func (c *Controller) SessionID() uuid.UUID { return c.sessionID }

func (c *Controller) startState(s ControllerState) {
	c.state = s
	c.events.emitStateChange(s)
	if s == StateSearching {
		c.events.emitSearching(c.cfg.MaxBufferSeconds)
	}
}

// Process feeds one chunk of real audio samples through the controller.
// It returns false once the controller has been cancelled, signaling the
// caller to stop feeding further chunks.
func (c *Controller) Process(samples []float64) bool {
	if c.state == StateCancelled {
		return false
	}

	_, syncEvents := c.demod.Process(samples)
	c.raw.Push(samples)

	if shift := c.raw.Compact(); shift > 0 {
		c.originShift += int64(shift)
		c.arbiter.Shift(shift)
		c.lastSyncIndex -= shift
		c.prevSyncIndex -= shift
		for i := range c.visCandidates {
			c.visCandidates[i].breakIndex -= shift
		}
		c.dropNegativeCandidates()
	}

	for _, ev := range syncEvents {
		c.handleSync(ev)
	}

	c.checkVISCandidates()
	c.decodeByTiming()

	return true
}

func (c *Controller) dropNegativeCandidates() {
	kept := c.visCandidates[:0]
	for _, vc := range c.visCandidates {
		if vc.breakIndex >= 0 {
			kept = append(kept, vc)
		}
	}
	c.visCandidates = kept
}

func (c *Controller) toRelative(absIdx int) int {
	return absIdx - int(c.originShift)
}

func (c *Controller) handleSync(ev syncPulseEvent) {
	relIdx := c.toRelative(ev.sampleIndex)
	relEvent := syncPulseEvent{sampleIndex: relIdx, widthMs: ev.widthMs, frequencyOffset: ev.frequencyOffset}

	if ev.widthMs == 9 || ev.widthMs == 20 {
		c.visCandidates = append(c.visCandidates, visCandidate{breakIndex: relIdx, freqOffset: ev.frequencyOffset})
		if c.state == StateSearching {
			c.startState(StateDecodingVIS)
		}
	}

	mode, fresh := c.arbiter.Observe(relEvent)
	if fresh && c.mode == nil {
		c.lockMode(mode, relIdx, DetectMethodTiming)
		return
	}

	if c.mode != nil {
		c.noteLineSync(relIdx)
	}
}

// noteLineSync records a genuine (non-extrapolated) sync edge against the
// currently latched mode: it decodes the line at that edge, updates the
// EMA drift estimate against the previous genuine edge, and advances the
// controller's expectation for the next line.
func (c *Controller) noteLineSync(relIdx int) {
	y := c.buf.linesDecoded
	c.decodeLine(relIdx, y, false)

	if c.havePrevSync {
		interval := float64(relIdx - c.prevSyncIndex)
		deviation := interval - c.expectedLineSamples
		c.driftPerLine = 0.9*c.driftPerLine + 0.1*deviation
	}
	c.prevSyncIndex = relIdx
	c.havePrevSync = true

	c.lastSyncIndex = relIdx + int(math.Round(c.currentLineSamples))
}

// decodeByTiming is spec.md §4.9 step 5: once enough raw samples have
// accumulated past the last known (or extrapolated) sync position, decode
// the next line purely from timing, without waiting for a corroborating
// sync pulse. Each such line is marked IsNoise, since it carries no fresh
// sync confirmation.
func (c *Controller) decodeByTiming() {
	if c.mode == nil || c.currentLineSamples <= 0 {
		return
	}
	for c.raw.LastIndex()-c.lastSyncIndex >= int(c.currentLineSamples) {
		y := c.buf.linesDecoded
		c.decodeLine(c.lastSyncIndex, y, true)
		c.lastSyncIndex += int(math.Round(c.currentLineSamples))
	}
}

// linesPerSync is how many image rows one sync pulse's worth of
// channel data covers: PD/MMSSTV-MP's four-channel shape packs two rows
// (Y-even and Y-odd sharing one V/U pair) into each line time; every
// other shape is one row per sync, per buildPixelGrid's own grouping.
func linesPerSync(m *Mode) int {
	if m.ChannelCount == 4 {
		return 2
	}
	return 1
}

func (c *Controller) decodeLine(syncIdx, y int, isNoise bool) {
	rows := linesPerSync(c.mode)
	grid := buildPixelGrid(c.mode, c.cfg.SampleRate, func(line int) int { return syncIdx }, y+rows)
	// buildPixelGrid schedules every line up to y; only the newest rows
	// (1, or a pair for PD's paired-line layout) need extracting here
	// since earlier lines were already decoded on their own sync.
	var latest []pixelSample
	for _, ps := range grid {
		if ps.y < y {
			continue
		}
		// Robot 36/24 also copies each line's chroma into the following
		// line; a copy scheduled from line y-1 would be read here against
		// this line's sync, so only this line's own chroma plane is kept.
		if c.mode.ChannelCount == 2 && ps.logicalCh != 0 && ps.logicalCh != 1+ps.y%2 {
			continue
		}
		latest = append(latest, ps)
	}
	extractPixels(latest, c.raw, c.pf, c.buf)

	// Noise-preview lines still advance the buffer (so the final image
	// reflects them) but are only reported through Events when the
	// caller opted in via OutputNoise.
	lineEvents := c.events
	if isNoise && !c.cfg.OutputNoise {
		lineEvents = nil
	}
	for r := 0; r < rows; r++ {
		c.buf.advanceLine(c.mode, y+r, isNoise, lineEvents)
	}

	if y+rows >= c.mode.Height+imageLineSlack-1 {
		c.completeImage()
	}
}

// checkVISCandidates attempts to decode every queued VIS candidate whose
// required trailing window has fully arrived, discarding malformed ones
// silently (spec.md §7) and applying the arbiter's override rule to
// successful ones.
func (c *Controller) checkVISCandidates() {
	required := visRequiredSamples(c.cfg.SampleRate)
	var remaining []visCandidate
	for _, vc := range c.visCandidates {
		available := c.raw.LastIndex() - vc.breakIndex
		if available < required {
			remaining = append(remaining, vc)
			continue
		}
		samples, err := c.raw.Window(vc.breakIndex-int(60e-3*c.cfg.SampleRate), required+int(60e-3*c.cfg.SampleRate))
		if err != nil {
			continue // fell out of the ring before we could use it
		}
		mode, _, ok := decodeVIS(samples, c.cfg.SampleRate, int(60e-3*c.cfg.SampleRate), c.pf)
		if !ok {
			continue // malformed VIS header: discard, keep considering others
		}
		if c.mode != nil && !c.cfg.allowVISInterrupt() {
			continue // a mode's already latched and interrupts aren't allowed
		}

		fraction := 0.0
		if c.mode != nil && c.mode.Height > 0 {
			fraction = float64(c.buf.linesDecoded) / float64(c.mode.Height)
		}
		if _, accepted := c.arbiter.ObserveVIS(mode, fraction); accepted {
			if c.mode != nil {
				c.completeImage()
			}
			c.lockMode(mode, vc.breakIndex, DetectMethodVIS)
		}
	}
	c.visCandidates = remaining
}

// lockMode latches a newly detected mode, (re)initializing the image
// buffer and line-timing expectations, and emits ModeDetected.
func (c *Controller) lockMode(m *Mode, syncIdx int, method DetectMethod) {
	c.mode = m
	c.buf = newImageBuffer(m.Width, m.Height)
	c.currentLineSamples = m.LineTime * c.cfg.SampleRate
	c.expectedLineSamples = c.currentLineSamples
	c.driftPerLine = 0
	c.havePrevSync = false
	c.lastSyncIndex = syncIdx + int(math.Round(c.currentLineSamples))
	c.visCode = m.VISCode

	c.startState(StateDecodingImage)
	c.events.emitModeDetected(ModeDetectedEvent{Mode: m, VISCode: m.VISCode, Method: method})
}

// completeImage finalizes the current buffer into a DecodedImage (slant
// corrected), emits ImageComplete, and returns the controller to
// Searching for the next transmission.
func (c *Controller) completeImage() {
	if c.mode == nil || c.buf == nil || c.buf.linesDecoded == 0 {
		return
	}
	lines := c.buf.linesDecoded
	rgb := c.buf.toRGB(c.mode, lines)
	rgb = slantCorrect(rgb, c.mode.Width, lines, c.driftPerLine, c.expectedLineSamples)

	img := &DecodedImage{
		Mode:         c.mode,
		Width:        c.mode.Width,
		Height:       lines,
		RGB:          rgb,
		LinesDecoded: lines,
		VISCode:      c.visCode,
	}
	if callsign, ok := decodeFSKID(c.raw, c.lastSyncIndex, c.cfg.SampleRate, c.pf); ok {
		img.FSKCallsign = callsign
	}
	c.events.emitImageComplete(ImageCompleteEvent{Image: img, RGB: rgb, Width: c.mode.Width, Height: lines})

	c.mode = nil
	c.buf = nil
	c.arbiter.Reset()
	c.startState(StateSearching)
}

// Flush decodes any remaining partial line (if it has accumulated at
// least half a line's worth of samples) and finalizes the current image,
// if one is in progress. It returns the completed image, or nil if no
// mode was ever latched or no lines were ever decoded.
func (c *Controller) Flush() *DecodedImage {
	if c.mode == nil || c.buf == nil {
		return nil
	}

	remaining := c.raw.LastIndex() - c.lastSyncIndex
	if remaining >= int(c.currentLineSamples/2) {
		c.decodeLine(c.lastSyncIndex, c.buf.linesDecoded, true)
	}

	if c.buf.linesDecoded == 0 {
		c.mode = nil
		c.buf = nil
		c.startState(StateSearching)
		return nil
	}

	lines := c.buf.linesDecoded
	rgb := c.buf.toRGB(c.mode, lines)
	rgb = slantCorrect(rgb, c.mode.Width, lines, c.driftPerLine, c.expectedLineSamples)
	img := &DecodedImage{
		Mode:         c.mode,
		Width:        c.mode.Width,
		Height:       lines,
		RGB:          rgb,
		LinesDecoded: lines,
		VISCode:      c.visCode,
	}
	if callsign, ok := decodeFSKID(c.raw, c.lastSyncIndex, c.cfg.SampleRate, c.pf); ok {
		img.FSKCallsign = callsign
	}
	c.events.emitImageComplete(ImageCompleteEvent{Image: img, RGB: rgb, Width: c.mode.Width, Height: lines})

	c.mode = nil
	c.buf = nil
	c.arbiter.Reset()
	c.startState(StateSearching)
	return img
}

// Cancel transitions the controller to its terminal Cancelled state.
// Subsequent Process calls are no-ops (returning false).
func (c *Controller) Cancel() {
	if c.state == StateCancelled {
		return
	}
	c.state = StateCancelled
	c.events.emitStateChange(StateCancelled)
}

// Reset reinitializes all decode state as if the controller had just been
// constructed, reapplying ForceMode if the controller was built with one.
func (c *Controller) Reset() {
	c.demod = newDemodulator(c.cfg.SampleRate)
	c.raw = newRingBuffer(int(c.cfg.MaxBufferSeconds * c.cfg.SampleRate))
	c.arbiter = newModeArbiter(c.cfg.SampleRate)
	c.visCandidates = nil
	c.originShift = 0
	c.lastSyncIndex = 0
	c.currentLineSamples = 0
	c.expectedLineSamples = 0
	c.driftPerLine = 0
	c.havePrevSync = false
	c.prevSyncIndex = 0
	c.mode = nil
	c.buf = nil
	c.visCode = 0

	c.events.emitReset()
	c.startState(StateSearching)
	if c.cfg.ForceMode != nil {
		c.lockMode(c.cfg.ForceMode, 0, DetectMethodTiming)
	}
}

// GetPartialImage returns a snapshot of the image currently being
// decoded — every line the buffer holds so far, slant-corrected the
// same way a completed image would be — without disturbing decode
// state. It returns nil if no mode is latched or no lines have been
// decoded yet.
func (c *Controller) GetPartialImage() *DecodedImage {
	if c.mode == nil || c.buf == nil || c.buf.linesDecoded == 0 {
		return nil
	}
	lines := c.buf.linesDecoded
	rgb := c.buf.toRGB(c.mode, lines)
	rgb = slantCorrect(rgb, c.mode.Width, lines, c.driftPerLine, c.expectedLineSamples)
	return &DecodedImage{
		Mode:         c.mode,
		Width:        c.mode.Width,
		Height:       lines,
		RGB:          rgb,
		LinesDecoded: lines,
		VISCode:      c.visCode,
	}
}

// State returns the controller's current externally visible state.
func (c *Controller) State() ControllerState { return c.state }

// Mode returns the currently latched mode, or nil if the controller is
// still searching.
func (c *Controller) Mode() *Mode { return c.mode }
