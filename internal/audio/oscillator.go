package audio

import (
	"fmt"
	"math"
	"strings"
)

const (
	twoPi = 2 * math.Pi

	// shapedPeak is the peak of the square and sawtooth shapes; sine is unscaled
	shapedPeak = 0.8

	// driftDecayRate sets how fast a drifting tone settles, per second.
	// Tuned by ear; changing it changes the character of the drift.
	driftDecayRate = 1.2
)

// Waveform selects the oscillator shape
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
)

var waveformNames = map[Waveform]string{
	Sine:     "sine",
	Square:   "square",
	Sawtooth: "sawtooth",
}

func (w Waveform) String() string {
	if name, ok := waveformNames[w]; ok {
		return name
	}
	return fmt.Sprintf("waveform(%d)", int(w))
}

// ParseWaveform parses a shape name, case-insensitively
func ParseWaveform(name string) (Waveform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for w, n := range waveformNames {
		if n == name {
			return w, nil
		}
	}
	return Sine, fmt.Errorf("unknown tone shape %q (want sine, square or sawtooth)", name)
}

// Drift makes the tone sag toward a fraction of its base frequency during
// each symbol, like an unstable homebrew transmitter
type Drift struct {
	Enabled bool
	Percent int // target frequency as a percentage of base, 0-100
}

// NoDrift keeps the tone on its base frequency
var NoDrift = Drift{}

// DriftTo returns an enabled drift toward percent of the base frequency
func DriftTo(percent int) Drift {
	return Drift{Enabled: true, Percent: percent}
}

type oscillatorState int

const (
	oscIdle oscillatorState = iota
	oscSounding
)

// Oscillator generates the keyed tone, one sample per tick
type Oscillator struct {
	sampleRate  float64
	baseFreq    float64
	currentFreq float64
	phase       float64
	shape       Waveform
	drift       Drift
	symbolStart float64
	state       oscillatorState
}

// NewOscillator creates an idle oscillator
func NewOscillator(frequency float64, sampleRate int, shape Waveform, drift Drift) *Oscillator {
	return &Oscillator{
		sampleRate:  float64(sampleRate),
		baseFreq:    frequency,
		currentFreq: frequency,
		shape:       shape,
		drift:       drift,
		state:       oscIdle,
	}
}

// StartSymbol begins a dot or dash at time t (seconds into the render).
// The phase restarts at zero so every symbol opens without a click.
func (o *Oscillator) StartSymbol(t float64) {
	if o.drift.Enabled {
		o.symbolStart = t
		o.currentFreq = o.baseFreq
	}
	o.phase = 0
	o.state = oscSounding
}

// NextSample returns the tone sample at time t.
// An oscillator that has not started a symbol is silent.
func (o *Oscillator) NextSample(t float64) float32 {
	if o.state != oscSounding {
		return 0
	}

	if o.drift.Enabled {
		target := float64(o.drift.Percent) / 100.0
		elapsed := t - o.symbolStart
		o.currentFreq = o.baseFreq * (target + (1-target)*math.Exp(-driftDecayRate*elapsed))
	}

	o.phase += twoPi * o.currentFreq / o.sampleRate
	for o.phase >= twoPi {
		o.phase -= twoPi
	}

	switch o.shape {
	case Square:
		if o.phase < math.Pi {
			return shapedPeak
		}
		return -shapedPeak
	case Sawtooth:
		return float32((o.phase/twoPi*2 - 1) * shapedPeak)
	default:
		return float32(math.Sin(o.phase))
	}
}

// Frequency returns the instantaneous frequency in Hz
func (o *Oscillator) Frequency() float64 {
	return o.currentFreq
}

// Sounding reports whether a symbol has been started
func (o *Oscillator) Sounding() bool {
	return o.state == oscSounding
}
