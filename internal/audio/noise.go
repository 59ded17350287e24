package audio

import (
	"math"
	"math/rand/v2"
)

const (
	// noiseSmoothing is the single-pole low-pass coefficient (about 3 kHz at 44.1 kHz)
	noiseSmoothing = 0.12

	// noiseCarrierHz shifts the band up so the noise sits near the tone
	noiseCarrierHz = 1000.0

	MinNoiseLevel = 0
	MaxNoiseLevel = 9
)

// noiseAmplitudes is the calibrated peak noise per QRM level, S1 through S9+20dB,
// against a signal peak of 0.25 (S9). Tuned by ear.
var noiseAmplitudes = [...]float32{
	0.01, // barely audible
	0.03,
	0.06,
	0.10,
	0.18, // noticeable, easy copy
	0.30,
	0.50, // significant interference
	0.80,
	1.20,
	2.00, // near impossible copy
}

// NoiseAmplitude returns the calibrated amplitude for a QRM level.
// Out of range levels get the level 0 amplitude.
func NoiseAmplitude(level int) float32 {
	if level < MinNoiseLevel || level > MaxNoiseLevel {
		return noiseAmplitudes[0]
	}
	return noiseAmplitudes[level]
}

// Noise generates single-sideband-like band-limited interference (QRM).
// State carries over between samples for the whole render.
type Noise struct {
	amplitude float32
	i         float32 // in-phase accumulator
	q         float32 // quadrature accumulator
	phase     float64 // carrier phase
	rng       *rand.Rand
}

// NewNoise creates a generator for a QRM level.
// A nil rng draws from the process-wide random source.
func NewNoise(level int, rng *rand.Rand) *Noise {
	return &Noise{
		amplitude: NoiseAmplitude(level),
		rng:       rng,
	}
}

func (n *Noise) white() float32 {
	if n.rng != nil {
		return n.rng.Float32()*2 - 1
	}
	return rand.Float32()*2 - 1
}

// Next returns the next noise sample
func (n *Noise) Next(sampleRate int) float32 {
	w := n.white()

	n.i += (w - n.i) * noiseSmoothing
	// Tracks the smoothed in-phase value rather than a true 90 degree shift.
	// Keep it: it is part of how the noise sounds.
	n.q += (n.i - n.q) * noiseSmoothing

	n.phase += twoPi * noiseCarrierHz / float64(sampleRate)
	if n.phase >= twoPi {
		n.phase -= twoPi
	}
	carI := float32(math.Cos(n.phase))
	carQ := float32(math.Sin(n.phase))

	// upper sideband only
	usb := n.i*carI - n.q*carQ
	return usb * n.amplitude
}

// Amplitude returns the calibrated peak for this generator's level
func (n *Noise) Amplitude() float32 {
	return n.amplitude
}
