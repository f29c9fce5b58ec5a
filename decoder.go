package sstv

import "fmt"

/*
 * Batch decoder.
 *
 * The teacher's SSTVDecoder runs its own goroutine, decodeLoop, pumping
 * audio from a channel through the same detectVIS/decodeVideo/decodeFSKID
 * sequence a Controller runs per chunk, then emits binary messages on a
 * result channel. spec.md §9 folds that into one shared engine: a batch
 * decode is just a Controller fed every sample up front and then flushed,
 * per spec.md §4.2/§4.9's explicit note against maintaining two decode
 * implementations.
 */

// DecodeChunkSamples is the batch decoder's internal feed granularity;
// chunking (rather than one Controller.Process call over the whole clip)
// keeps peak-finder FFT windows and ring-buffer compaction behaving
// exactly as they would on a live stream, so the two entry points stay
// provably equivalent.
const DecodeChunkSamples = 4096

// Decode runs one or more complete SSTV transmissions to completion over
// a fixed buffer of audio samples and returns every image found. It never
// blocks waiting for more data: reaching the end of samples implicitly
// flushes whatever transmission was in progress.
//
// An empty or invalid sample buffer is an error (spec.md §7's invalid-
// input case); audio that never carries a recognizable transmission is
// not: Decode simply returns a nil, empty slice.
func Decode(samples []float64, cfg StreamingConfig) ([]*DecodedImage, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sstv: invalid sample rate %g", cfg.SampleRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("sstv: empty sample buffer")
	}

	var images []*DecodedImage
	events := &Events{
		ImageComplete: func(ev ImageCompleteEvent) {
			images = append(images, ev.Image)
		},
	}
	c := NewController(cfg, events)

	for off := 0; off < len(samples); off += DecodeChunkSamples {
		end := off + DecodeChunkSamples
		if end > len(samples) {
			end = len(samples)
		}
		if !c.Process(samples[off:end]) {
			break
		}
	}

	// Flush emits ImageComplete for any image in progress, which the
	// callback above has already appended.
	c.Flush()

	return images, nil
}

// DecodeOne is a convenience wrapper over Decode for callers who only
// expect (and want) the first transmission found, e.g. a single-shot CLI
// invocation. It returns nil if no transmission was ever detected.
func DecodeOne(samples []float64, cfg StreamingConfig) (*DecodedImage, error) {
	images, err := Decode(samples, cfg)
	if err != nil || len(images) == 0 {
		return nil, err
	}
	return images[0], nil
}
