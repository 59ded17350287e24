package audio

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/ar/cwgen/internal/morse"
)

const (
	// SignalAmplitude is the keyed tone peak, an S9 signal against the noise table
	SignalAmplitude = 0.25

	// attack and release ramps as fractions of the element gap
	attackFraction  = 0.15
	releaseFraction = 0.25

	// firstSampleGain softens the very first sample of a render
	firstSampleGain = 0.1

	PlaybackSampleRate = 44100
	FileSampleRate     = 8000
)

// Lookup resolves an uppercase character to its dot/dash code.
// ok is false for unmapped characters; an empty code means a silent character.
type Lookup interface {
	Code(r rune) (code string, ok bool)
}

// RenderConfig holds the tone and channel parameters of a render
type RenderConfig struct {
	SampleRate    int
	ToneFrequency float64  // Hz
	NoiseLevel    int      // QRM level 0-9
	Shape         Waveform // tone shape
	Drift         Drift
	Lookup        Lookup     // defaults to morse.Standard
	Rand          *rand.Rand // noise source; nil uses the process-wide source
}

// DefaultRenderConfig returns playback-rate settings for a 700 Hz sine with no QRM
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		SampleRate:    PlaybackSampleRate,
		ToneFrequency: 700,
		NoiseLevel:    0,
		Shape:         Sine,
		Drift:         NoDrift,
	}
}

// sequencer accumulates samples for one render
type sequencer struct {
	rate    int
	step    float64 // seconds per sample
	t       float64 // seconds since render start
	osc     *Oscillator
	noise   *Noise
	samples []float32
}

// quiet appends n noise-only samples
func (s *sequencer) quiet(n int) {
	for k := 0; k < n; k++ {
		s.samples = append(s.samples, s.noise.Next(s.rate))
		s.t += s.step
	}
}

// key appends one enveloped tone element of n samples over the noise
func (s *sequencer) key(n, attack, release int, first bool) {
	s.osc.StartSymbol(s.t)

	for i := 0; i < n; i++ {
		amp := float32(1.0)
		if i < attack {
			amp = float32(i) / float32(attack)
		}
		if i >= n-release {
			amp = float32(n-i) / float32(release)
		}
		if first && i == 0 {
			amp *= firstSampleGain
		}

		tone := s.osc.NextSample(s.t) * SignalAmplitude * amp
		s.samples = append(s.samples, tone+s.noise.Next(s.rate))
		s.t += s.step
	}
}

// maxPreallocSamples bounds the up-front allocation of a render; longer
// renders grow by append
const maxPreallocSamples = 1 << 22

// lengths are the element sizes of one render, in samples
type lengths struct {
	dot, dash int
	symGap    int // after every element
	chrGap    int // Chr-Sym, paid between characters
	wrdGap    int // Wrd-Chr, paid per space
}

func newLengths(timing morse.Timing, rate int) lengths {
	return lengths{
		dot:    timing.Samples(timing.Dot, rate),
		dash:   timing.Samples(timing.Dash, rate),
		symGap: timing.Samples(timing.Sym, rate),
		chrGap: timing.Samples(timing.Chr-timing.Sym, rate),
		wrdGap: timing.Samples(timing.Wrd-timing.Chr, rate),
	}
}

// walk calls emit for every keyed element and silence of text, in order.
// Characters without a code are skipped.
func walk(text string, lookup Lookup, l lengths, emit func(n int, keyed bool)) {
	// set after a keyed character, paid before whatever is keyed next
	pendingChrGap := false

	for _, ch := range text {
		up := morse.ToUpper(ch)

		if up == ' ' {
			if pendingChrGap {
				emit(l.chrGap, false)
				pendingChrGap = false
			}
			emit(l.wrdGap, false)
			continue
		}

		code, ok := lookup.Code(up)
		if !ok || code == "" {
			continue
		}

		if pendingChrGap {
			emit(l.chrGap, false)
		}

		for _, sym := range code {
			switch sym {
			case '.':
				emit(l.dot, true)
			case '-':
				emit(l.dash, true)
			default:
				continue
			}
			emit(l.symGap, false)
		}
		pendingChrGap = true
	}
}

// RenderedSamples returns the exact length Render would produce for text,
// without synthesizing anything.
func RenderedSamples(text string, timing morse.Timing, cfg RenderConfig) int64 {
	if cfg.SampleRate <= 0 {
		return 0
	}
	lookup := cfg.Lookup
	if lookup == nil {
		lookup = morse.Standard
	}

	var total int64
	walk(text, lookup, newLengths(timing, cfg.SampleRate), func(n int, keyed bool) {
		total += int64(n)
	})
	return total
}

// Render synthesizes text as keyed tone over continuous noise.
// Characters without a code are skipped. The context is only consulted
// before rendering starts; synthesis itself cannot fail.
func Render(ctx context.Context, text string, timing morse.Timing, cfg RenderConfig) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}

	lookup := cfg.Lookup
	if lookup == nil {
		lookup = morse.Standard
	}
	cfg.Lookup = lookup

	rate := cfg.SampleRate
	seq := &sequencer{
		rate:    rate,
		step:    1.0 / float64(rate),
		osc:     NewOscillator(cfg.ToneFrequency, rate, cfg.Shape, cfg.Drift),
		noise:   NewNoise(cfg.NoiseLevel, cfg.Rand),
		samples: make([]float32, 0, preallocSamples(text, timing, cfg)),
	}

	attack := int(float64(rate) * timing.Sym.Seconds() * attackFraction)
	release := int(float64(rate) * timing.Sym.Seconds() * releaseFraction)

	first := true
	walk(text, lookup, newLengths(timing, rate), func(n int, keyed bool) {
		if !keyed {
			seq.quiet(n)
			return
		}
		seq.key(n, attack, release, first)
		first = false
	})

	return &Buffer{Samples: seq.samples, SampleRate: rate}, nil
}

// preallocSamples sizes the output so short renders never reallocate
func preallocSamples(text string, timing morse.Timing, cfg RenderConfig) int {
	return int(min(RenderedSamples(text, timing, cfg), maxPreallocSamples))
}
