package sink

import (
	"errors"
	"io"
)

// MemoryWriter is an in-memory io.WriteSeeker, for encoding WAV data
// that is sent over the network instead of written to disk
type MemoryWriter struct {
	buf []byte
	pos int
}

// NewMemoryWriter creates an empty writer
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

// Write writes p at the current offset, growing the buffer as needed
func (m *MemoryWriter) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

// Seek implements io.Seeker
func (m *MemoryWriter) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("memory writer: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("memory writer: negative position")
	}
	m.pos = int(abs)
	return abs, nil
}

// Bytes returns everything written so far
func (m *MemoryWriter) Bytes() []byte {
	return m.buf
}

// Len returns the number of bytes written
func (m *MemoryWriter) Len() int {
	return len(m.buf)
}
