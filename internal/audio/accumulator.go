package audio

import (
	"sync"
)

// ChunkAccumulator collects arbitrary-sized PCM byte chunks from a live
// stream and hands the whole buffer to analysis once enough audio has
// arrived. After each hand-off it keeps a trailing overlap so words
// spoken across a trigger boundary are not lost.
//
// A single mutex guards the buffer: the stream consumer appends while
// the trigger loop drains, and a drain must never observe a half-written
// append.
type ChunkAccumulator struct {
	mu sync.Mutex

	buf            []byte
	sampleRate     int
	triggerSeconds float64
	overlapSeconds float64
}

// NewChunkAccumulator creates an accumulator for 16-bit mono PCM at the
// given sample rate. overlapSeconds must be shorter than triggerSeconds
// (validated at config load).
func NewChunkAccumulator(sampleRate int, triggerSeconds, overlapSeconds float64) *ChunkAccumulator {
	return &ChunkAccumulator{
		sampleRate:     sampleRate,
		triggerSeconds: triggerSeconds,
		overlapSeconds: overlapSeconds,
	}
}

// AddChunk appends raw PCM bytes in arrival order.
func (a *ChunkAccumulator) AddChunk(data []byte) {
	if len(data) == 0 {
		return
	}
	a.mu.Lock()
	a.buf = append(a.buf, data...)
	a.mu.Unlock()
}

// BufferedDuration returns the buffered audio length in seconds.
func (a *ChunkAccumulator) BufferedDuration() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return DurationSeconds(len(a.buf), a.sampleRate)
}

// ShouldTrigger reports whether enough audio is buffered for analysis.
func (a *ChunkAccumulator) ShouldTrigger() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return DurationSeconds(len(a.buf), a.sampleRate) >= a.triggerSeconds
}

// TryDrain atomically checks the trigger threshold and, if reached,
// returns a copy of the entire buffer, resetting the internal buffer to
// the configured overlap tail. Returns (nil, false) below the threshold.
func (a *ChunkAccumulator) TryDrain() ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if DurationSeconds(len(a.buf), a.sampleRate) < a.triggerSeconds {
		return nil, false
	}
	return a.drainLocked(), true
}

// Flush returns whatever is buffered regardless of the threshold and
// clears the buffer entirely. Called once at end of stream so audio
// below the trigger threshold still gets analyzed.
func (a *ChunkAccumulator) Flush() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.buf) == 0 {
		return nil
	}
	out := make([]byte, len(a.buf))
	copy(out, a.buf)
	a.buf = nil
	return out
}

func (a *ChunkAccumulator) drainLocked() []byte {
	out := make([]byte, len(a.buf))
	copy(out, a.buf)

	tailBytes := int(a.overlapSeconds*float64(a.sampleRate)) * BytesPerSample
	if tailBytes > len(a.buf) {
		tailBytes = len(a.buf)
	}
	// Keep sample alignment
	tailBytes -= tailBytes % BytesPerSample

	tail := make([]byte, tailBytes)
	copy(tail, a.buf[len(a.buf)-tailBytes:])
	a.buf = tail

	return out
}
