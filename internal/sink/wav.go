package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ar/cwgen/internal/audio"
	"github.com/ar/cwgen/internal/observability"
)

const (
	wavBitDepth    = 16
	wavChannels    = 1
	wavFormatPCM   = 1
	wavChunkFrames = 4096
)

// WAVFile writes buffers to a mono 16-bit PCM WAV file
type WAVFile struct {
	path string
}

// NewWAVFile creates a sink writing to path, replacing any existing file
func NewWAVFile(path string) *WAVFile {
	return &WAVFile{path: path}
}

// Name implements Sink
func (s *WAVFile) Name() string {
	return "wav"
}

// Path returns the output file path
func (s *WAVFile) Path() string {
	return s.path
}

// Consume implements Sink. A file left behind by a failed write is not guaranteed to be valid.
func (s *WAVFile) Consume(ctx context.Context, buf *audio.Buffer) error {
	logger := observability.WithComponent("sink.wav")

	err := s.write(ctx, buf)
	observability.RecordSinkWrite(s.Name(), err == nil)
	if err != nil {
		observability.RecordError("io", "sink.wav")
		logger.Error().Err(err).Str("path", s.path).Msg("WAV export failed")
		return err
	}

	logger.Info().
		Str("path", s.path).
		Int("samples", buf.Len()).
		Int("sample_rate", buf.SampleRate).
		Dur("duration", buf.Duration()).
		Msg("WAV export complete")
	return nil
}

func (s *WAVFile) write(ctx context.Context, buf *audio.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, s.path, err)
	}

	if err := EncodeWAV(f, buf); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, s.path, err)
	}
	return nil
}

// EncodeWAV writes buf as a mono 16-bit PCM WAV container.
// Samples are scaled by the int16 range and clamped.
func EncodeWAV(w io.WriteSeeker, buf *audio.Buffer) error {
	enc := wav.NewEncoder(w, buf.SampleRate, wavBitDepth, wavChannels, wavFormatPCM)

	format := &goaudio.Format{NumChannels: wavChannels, SampleRate: buf.SampleRate}
	chunk := &goaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, 0, wavChunkFrames),
		SourceBitDepth: wavBitDepth,
	}

	// the encoder emits its headers on the first Write, so an empty buffer still writes once
	if len(buf.Samples) == 0 {
		if err := enc.Write(chunk); err != nil {
			return fmt.Errorf("%w: write header: %v", ErrIO, err)
		}
	}

	for start := 0; start < len(buf.Samples); start += wavChunkFrames {
		end := start + wavChunkFrames
		if end > len(buf.Samples) {
			end = len(buf.Samples)
		}

		chunk.Data = chunk.Data[:0]
		for _, s := range buf.Samples[start:end] {
			chunk.Data = append(chunk.Data, int(audio.FloatToPCM16(s)))
		}
		if err := enc.Write(chunk); err != nil {
			return fmt.Errorf("%w: write samples: %v", ErrIO, err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: finalize wav: %v", ErrIO, err)
	}
	return nil
}

// DecodeWAV reads a PCM WAV container back into a float buffer
func DecodeWAV(r io.ReadSeeker) (*audio.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrIO)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read samples: %v", ErrIO, err)
	}
	if dec.BitDepth != wavBitDepth {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrIO, dec.BitDepth)
	}

	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = audio.PCM16ToFloat(int16(v))
	}

	return &audio.Buffer{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}
