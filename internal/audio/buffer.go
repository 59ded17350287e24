package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"
)

// Buffer is a rendered mono sample stream
type Buffer struct {
	Samples    []float32 // amplitudes, roughly in [-1, 1]
	SampleRate int       // samples per second
}

// Len returns the number of samples
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the playing time of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(len(b.Samples)) * int64(time.Second) / int64(b.SampleRate))
}

// Peak returns the largest absolute amplitude
func (b *Buffer) Peak() float64 {
	return CalculatePeak(b.Samples)
}

// RMS returns the root mean square of the buffer
func (b *Buffer) RMS() float64 {
	return CalculateRMS(b.Samples)
}

// Reader streams a Buffer as little-endian float32 bytes.
// The audio device Reads from its own goroutine while playback polls
// Remaining, so both are guarded.
type Reader struct {
	samples []float32
	pos     int
	mu      sync.RWMutex
}

// NewReader creates a reader positioned at the start of buf
func NewReader(buf *Buffer) *Reader {
	return &Reader{samples: buf.Samples}
}

// Read fills p with whole float32 samples.
// Returns io.EOF once every sample has been consumed.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}

	n := 0
	for n+4 <= len(p) && r.pos < len(r.samples) {
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(r.samples[r.pos]))
		r.pos++
		n += 4
	}

	return n, nil
}

// Remaining returns the number of samples not yet read
func (r *Reader) Remaining() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samples) - r.pos
}

// IsDrained returns true once every sample has been read
func (r *Reader) IsDrained() bool {
	return r.Remaining() == 0
}
