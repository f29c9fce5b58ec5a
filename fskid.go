package sstv

/*
 * FSK callsign ID decode (supplemental — SSTV transmissions frequently
 * tag an image with a short operator callsign at 45.45 baud, independent
 * of the video payload itself).
 *
 * Ported from the teacher's fsk_id.go (itself from slowrx's fsk.c by Oona
 * Räisänen, OH2EIQ), rehosted onto ringbuffer.go's pull-based Window
 * instead of the teacher's SlidingPCMBuffer/AdvanceWindow, which blocked
 * with time.Sleep waiting for more live audio. A Controller only has
 * whatever the ring buffer currently retains, so this scans forward
 * through what's already there and reports however far it got rather
 * than blocking for more. Frequency resolution reuses fftpeak.go's peak
 * finder (closest of 1900/2100 Hz) instead of the teacher's raw two-band
 * power sum, consistent with how every other frequency decision in this
 * package is made.
 */

const (
	fskBitDuration  = 22e-3 // 45.45 baud
	fskSyncByte1    = 0x20
	fskSyncByte2    = 0x2a
	fskMaxCallsign  = 10
	fskSyncTestBits = 24
	fskSyncTimeout  = 300 // bit periods
)

// fskBitRev reverses a 6-bit value (slowrx transmits callsign bytes
// LSB-first).
var fskBitRev = [64]uint8{
	0x00, 0x20, 0x10, 0x30, 0x08, 0x28, 0x18, 0x38,
	0x04, 0x24, 0x14, 0x34, 0x0c, 0x2c, 0x1c, 0x3c,
	0x02, 0x22, 0x12, 0x32, 0x0a, 0x2a, 0x1a, 0x3a,
	0x06, 0x26, 0x16, 0x36, 0x0e, 0x2e, 0x1e, 0x3e,
	0x01, 0x21, 0x11, 0x31, 0x09, 0x29, 0x19, 0x39,
	0x05, 0x25, 0x15, 0x35, 0x0d, 0x2d, 0x1d, 0x3d,
	0x03, 0x23, 0x13, 0x33, 0x0b, 0x2b, 0x1b, 0x3b,
	0x07, 0x27, 0x17, 0x37, 0x0f, 0x2f, 0x1f, 0x3f,
}

// decodeFSKID scans the raw ring buffer forward from startIdx looking for
// a 45.45-baud FSK callsign transmission. It returns the decoded text and
// true if a complete identifier was read before the buffer ran out of
// retained samples; otherwise ("", false), in which case the caller may
// retry once more audio has arrived.
func decodeFSKID(raw *ringBuffer, startIdx int, sampleRate float64, pf *peakFinder) (string, bool) {
	bitSamples := int(sampleRate * fskBitDuration)
	if bitSamples <= 0 {
		return "", false
	}

	cursor := startIdx
	inSync := false
	testBits := make([]uint8, fskSyncTestBits)
	testPtr := 0

	var asciiByte uint8
	bitPtr := 0
	bytePtr := 0
	callsign := make([]byte, fskMaxCallsign)

	for {
		window, err := raw.Window(cursor, bitSamples)
		if err != nil {
			return "", false // ran out of retained samples
		}

		freq := pf.peakInRange(window, 1850, 2150)
		var bit uint8
		if freq-1900 < 2100-freq {
			bit = 1
		}

		cursor += bitSamples

		if !inSync {
			testBits[testPtr%fskSyncTestBits] = bit
			testNum := 0
			for i := 0; i < 12; i++ {
				tp := (testPtr - (fskSyncTestBits - 1 - i*2)) % fskSyncTestBits
				if tp < 0 {
					tp += fskSyncTestBits
				}
				testNum |= int(testBits[tp]) << uint(11-i)
			}
			byte1 := fskBitRev[(testNum>>6)&0x3f]
			byte2 := fskBitRev[testNum&0x3f]
			if byte1 == fskSyncByte1 && byte2 == fskSyncByte2 {
				inSync = true
				asciiByte, bitPtr, bytePtr = 0, 0, 0
			}
			testPtr++
			if testPtr > fskSyncTimeout {
				return "", false
			}
			continue
		}

		asciiByte |= bit << uint(bitPtr)
		bitPtr++
		if bitPtr < 6 {
			continue
		}
		if asciiByte < 0x0d || bytePtr >= fskMaxCallsign {
			return string(callsign[:bytePtr]), bytePtr > 0
		}
		callsign[bytePtr] = asciiByte + 0x20
		bytePtr++
		bitPtr, asciiByte = 0, 0
	}
}
