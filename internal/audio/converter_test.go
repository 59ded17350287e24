package audio

import (
	"math"
	"testing"
)

// one 16-bit step, plus float32 rounding of the rescaled value
const quantizationTolerance = 1.0/32767 + 1e-6

func TestFloatToPCM16(t *testing.T) {
	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16383},
		{-0.5, -16383},
		{2.0, 32767},   // clamped
		{-2.0, -32768}, // clamped
	}

	for _, c := range cases {
		if got := FloatToPCM16(c.in); got != c.want {
			t.Errorf("FloatToPCM16(%f): expected %d, got %d", c.in, c.want, got)
		}
	}
}

func TestPCM16_RoundTrip(t *testing.T) {
	for i := -1000; i <= 1000; i++ {
		sample := float32(i) / 1000
		recovered := PCM16ToFloat(FloatToPCM16(sample))

		diff := math.Abs(float64(recovered - sample))
		if diff > quantizationTolerance {
			t.Errorf("Round-trip failed for %f: recovered %f, diff %g", sample, recovered, diff)
		}
	}
}

func TestEncodeDecodePCM16LE(t *testing.T) {
	samples := []float32{0, 0.25, -0.25, 0.999, -1}

	data := EncodePCM16LE(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*2, len(data))
	}

	// 0.25 * 32767 = 8191.75 -> 8191 = 0x1FFF
	if data[2] != 0xFF || data[3] != 0x1F {
		t.Errorf("Expected little-endian 0x1FFF, got %02x %02x", data[2], data[3])
	}

	decoded, err := DecodePCM16LE(data)
	if err != nil {
		t.Fatalf("DecodePCM16LE failed: %v", err)
	}
	for i := range samples {
		if math.Abs(float64(decoded[i]-samples[i])) > quantizationTolerance {
			t.Errorf("Sample %d: expected %f, got %f", i, samples[i], decoded[i])
		}
	}
}

func TestDecodePCM16LE_OddLength(t *testing.T) {
	if _, err := DecodePCM16LE([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for odd-length PCM data")
	}
}

func TestCalculateRMS(t *testing.T) {
	if rms := CalculateRMS(nil); rms != 0 {
		t.Errorf("Expected RMS 0 for empty input, got %f", rms)
	}

	// Full-scale sine has RMS 1/sqrt(2)
	samples := make([]float32, 8000)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / 8000))
	}
	if rms := CalculateRMS(samples); math.Abs(rms-1/math.Sqrt2) > 0.001 {
		t.Errorf("Expected sine RMS ~0.7071, got %f", rms)
	}
}

func TestCalculatePeak(t *testing.T) {
	if peak := CalculatePeak([]float32{0.1, -0.9, 0.5}); math.Abs(peak-0.9) > 1e-6 {
		t.Errorf("Expected peak 0.9, got %f", peak)
	}
	if peak := CalculatePeak(nil); peak != 0 {
		t.Errorf("Expected peak 0 for empty input, got %f", peak)
	}
}
