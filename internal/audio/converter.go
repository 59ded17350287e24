package audio

import (
	"fmt"
	"math"
)

// FloatToPCM16 scales a float sample by the int16 range and clamps it.
// The fractional part is truncated toward zero.
func FloatToPCM16(sample float32) int16 {
	scaled := float64(sample) * math.MaxInt16
	if scaled > math.MaxInt16 {
		scaled = math.MaxInt16
	} else if scaled < math.MinInt16 {
		scaled = math.MinInt16
	}
	return int16(scaled)
}

// PCM16ToFloat is the inverse of FloatToPCM16, up to quantization
func PCM16ToFloat(sample int16) float32 {
	return float32(sample) / math.MaxInt16
}

// EncodePCM16LE converts float samples to little-endian 16-bit PCM bytes
func EncodePCM16LE(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := FloatToPCM16(s)
		data[i*2] = byte(v)
		data[i*2+1] = byte(v >> 8)
	}
	return data
}

// DecodePCM16LE converts little-endian 16-bit PCM bytes back to float samples
func DecodePCM16LE(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = PCM16ToFloat(v)
	}
	return samples, nil
}

// CalculateRMS calculates the root mean square (RMS) of float samples
func CalculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// CalculatePeak returns the largest absolute sample value
func CalculatePeak(samples []float32) float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}
