package audio

import (
	"math"
	"testing"
)

func TestOscillator_OutputRange(t *testing.T) {
	shapes := []Waveform{Sine, Square, Sawtooth}

	for _, shape := range shapes {
		for pct := 0; pct <= 100; pct += 5 {
			osc := NewOscillator(700, 8000, shape, DriftTo(pct))
			tm := 0.0
			osc.StartSymbol(tm)
			for i := 0; i < 4000; i++ {
				s := osc.NextSample(tm)
				if s < -1 || s > 1 {
					t.Fatalf("%s drift %d%%: sample %d out of range: %f", shape, pct, i, s)
				}
				tm += 1.0 / 8000
			}
		}
	}
}

func TestOscillator_ShapePeaks(t *testing.T) {
	square := NewOscillator(700, 8000, Square, NoDrift)
	square.StartSymbol(0)
	for i := 0; i < 1000; i++ {
		if s := square.NextSample(0); s != 0.8 && s != -0.8 {
			t.Fatalf("Expected square sample of +/-0.8, got %f", s)
		}
	}

	saw := NewOscillator(700, 8000, Sawtooth, NoDrift)
	saw.StartSymbol(0)
	for i := 0; i < 1000; i++ {
		if s := saw.NextSample(0); s < -0.8 || s > 0.8 {
			t.Fatalf("Expected sawtooth within +/-0.8, got %f", s)
		}
	}
}

func TestOscillator_NoDriftHoldsFrequency(t *testing.T) {
	osc := NewOscillator(650, 44100, Sine, NoDrift)

	tm := 0.0
	for sym := 0; sym < 5; sym++ {
		osc.StartSymbol(tm)
		for i := 0; i < 2000; i++ {
			osc.NextSample(tm)
			tm += 1.0 / 44100
			if osc.Frequency() != 650 {
				t.Fatalf("Expected frequency to stay 650Hz, got %f", osc.Frequency())
			}
		}
	}
}

func TestOscillator_DriftConverges(t *testing.T) {
	for _, pct := range []int{0, 50, 75, 90, 100} {
		osc := NewOscillator(700, 8000, Sine, DriftTo(pct))
		osc.StartSymbol(2.0)

		osc.NextSample(2.0)
		if math.Abs(osc.Frequency()-700) > 1e-9 {
			t.Errorf("drift %d%%: expected base frequency at symbol start, got %f", pct, osc.Frequency())
		}

		osc.NextSample(12.0)
		want := 700 * float64(pct) / 100
		if math.Abs(osc.Frequency()-want) > 0.01 {
			t.Errorf("drift %d%%: expected frequency near %f, got %f", pct, want, osc.Frequency())
		}
	}
}

func TestOscillator_DriftDecreasesWithinSymbol(t *testing.T) {
	osc := NewOscillator(700, 8000, Sine, DriftTo(75))
	osc.StartSymbol(0)

	prev := math.Inf(1)
	for tm := 0.0; tm < 1.0; tm += 0.05 {
		osc.NextSample(tm)
		if osc.Frequency() > prev {
			t.Fatalf("Expected frequency to fall monotonically, rose to %f at %fs", osc.Frequency(), tm)
		}
		prev = osc.Frequency()
	}
}

func TestOscillator_StartSymbolRestoresBase(t *testing.T) {
	osc := NewOscillator(700, 8000, Sine, DriftTo(50))
	osc.StartSymbol(0)
	osc.NextSample(3.0)
	if osc.Frequency() >= 700 {
		t.Fatalf("Expected drift below base, got %f", osc.Frequency())
	}

	osc.StartSymbol(3.0)
	if osc.Frequency() != 700 {
		t.Errorf("Expected StartSymbol to restore 700Hz, got %f", osc.Frequency())
	}
}

func TestOscillator_StartSymbolResetsPhase(t *testing.T) {
	freq, rate := 700.0, 8000.0
	osc := NewOscillator(freq, int(rate), Sine, NoDrift)
	want := float32(math.Sin(twoPi * freq / rate))

	osc.StartSymbol(0)
	if s := osc.NextSample(0); s != want {
		t.Errorf("Expected first sample %f, got %f", want, s)
	}
	for i := 0; i < 123; i++ {
		osc.NextSample(0)
	}

	osc.StartSymbol(0)
	if s := osc.NextSample(0); s != want {
		t.Errorf("Expected first sample after restart %f, got %f", want, s)
	}
}

func TestOscillator_IdleIsSilent(t *testing.T) {
	osc := NewOscillator(700, 8000, Square, NoDrift)

	if osc.Sounding() {
		t.Error("Expected new oscillator to be idle")
	}
	if s := osc.NextSample(0); s != 0 {
		t.Errorf("Expected silence before StartSymbol, got %f", s)
	}

	osc.StartSymbol(0)
	if !osc.Sounding() {
		t.Error("Expected oscillator to be sounding after StartSymbol")
	}
}

func TestParseWaveform(t *testing.T) {
	cases := map[string]Waveform{
		"sine":      Sine,
		"Square":    Square,
		" sawtooth": Sawtooth,
	}
	for in, want := range cases {
		got, err := ParseWaveform(in)
		if err != nil {
			t.Errorf("ParseWaveform(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseWaveform(%q): expected %s, got %s", in, want, got)
		}
	}

	if _, err := ParseWaveform("triangle"); err == nil {
		t.Error("Expected error for unknown shape")
	}
	if Sawtooth.String() != "sawtooth" {
		t.Errorf("Expected name 'sawtooth', got %q", Sawtooth.String())
	}
}
