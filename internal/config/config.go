package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ar/cwgen/internal/audio"
	"github.com/ar/cwgen/internal/morse"
)

// Accepted parameter ranges
const (
	MinWPM        = 1
	MaxWPM        = 100
	MinTone       = 100
	MaxTone       = 3000
	MinFarnsworth = 5
	MaxFarnsworth = 40
	MinDrift      = 0
	MaxDrift      = 100
	MaxGapMs      = 10000

	// DriftOff and FarnsworthOff disable the respective feature
	DriftOff      = -1
	FarnsworthOff = 0
)

// ErrInvalidConfig is returned by Validate for out-of-range settings
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the generator and its render service
type Config struct {
	// Keying
	WPM        int `envconfig:"CW_WPM" default:"20"`       // Overall speed in words per minute
	Farnsworth int `envconfig:"CW_FARNSWORTH" default:"0"` // Character speed for Farnsworth timing, 0 disables
	GapMs      int `envconfig:"CW_GAP_MS" default:"0"`     // Extra gap between characters and words, in milliseconds

	// Tone and channel
	Tone  float64 `envconfig:"CW_TONE" default:"700"`   // Tone frequency in Hz
	Shape string  `envconfig:"CW_SHAPE" default:"sine"` // sine, square or sawtooth
	QRM   int     `envconfig:"CW_QRM" default:"0"`      // Background noise level 0-9
	Drift int     `envconfig:"CW_DRIFT" default:"-1"`   // Drift target as percent of tone, -1 disables

	// Sample rates
	PlaybackSampleRate int `envconfig:"PLAYBACK_SAMPLE_RATE" default:"44100"`
	FileSampleRate     int `envconfig:"FILE_SAMPLE_RATE" default:"8000"`

	// Render service configuration
	Port             string `envconfig:"PORT" default:"8080"`
	StreamFrameMs    int    `envconfig:"STREAM_FRAME_MS" default:"20"`     // Websocket frame length in milliseconds
	MaxTextLength    int    `envconfig:"MAX_TEXT_LENGTH" default:"4096"`   // Longest text accepted by the service
	MaxRenderSeconds int    `envconfig:"MAX_RENDER_SECONDS" default:"600"` // Longest audio the service will render

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every setting against its accepted range
func (c *Config) Validate() error {
	if c.WPM < MinWPM || c.WPM > MaxWPM {
		return fmt.Errorf("%w: wpm %d outside %d-%d", ErrInvalidConfig, c.WPM, MinWPM, MaxWPM)
	}
	if c.Farnsworth != FarnsworthOff {
		if c.Farnsworth < MinFarnsworth || c.Farnsworth > MaxFarnsworth {
			return fmt.Errorf("%w: farnsworth %d outside %d-%d", ErrInvalidConfig, c.Farnsworth, MinFarnsworth, MaxFarnsworth)
		}
		if c.Farnsworth <= c.WPM {
			return fmt.Errorf("%w: farnsworth %d must be greater than wpm %d", ErrInvalidConfig, c.Farnsworth, c.WPM)
		}
	}
	if c.GapMs < 0 || c.GapMs > MaxGapMs {
		return fmt.Errorf("%w: gap %d ms outside 0-%d", ErrInvalidConfig, c.GapMs, MaxGapMs)
	}
	if c.Tone < MinTone || c.Tone > MaxTone {
		return fmt.Errorf("%w: tone %.0f Hz outside %d-%d", ErrInvalidConfig, c.Tone, MinTone, MaxTone)
	}
	if _, err := audio.ParseWaveform(c.Shape); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.QRM < audio.MinNoiseLevel || c.QRM > audio.MaxNoiseLevel {
		return fmt.Errorf("%w: qrm %d outside %d-%d", ErrInvalidConfig, c.QRM, audio.MinNoiseLevel, audio.MaxNoiseLevel)
	}
	if c.Drift != DriftOff && (c.Drift < MinDrift || c.Drift > MaxDrift) {
		return fmt.Errorf("%w: drift %d outside %d-%d", ErrInvalidConfig, c.Drift, MinDrift, MaxDrift)
	}
	if c.PlaybackSampleRate <= 0 || c.FileSampleRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive", ErrInvalidConfig)
	}
	if c.StreamFrameMs <= 0 {
		return fmt.Errorf("%w: stream frame %d ms must be positive", ErrInvalidConfig, c.StreamFrameMs)
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("%w: max text length must be positive", ErrInvalidConfig)
	}
	if c.MaxRenderSeconds <= 0 {
		return fmt.Errorf("%w: max render seconds must be positive", ErrInvalidConfig)
	}
	return nil
}

// Timing builds the keying timing, using Farnsworth spacing when enabled
func (c *Config) Timing() (morse.Timing, error) {
	gap := time.Duration(c.GapMs) * time.Millisecond
	if c.Farnsworth == FarnsworthOff {
		if c.WPM <= 0 {
			return morse.Timing{}, fmt.Errorf("%w: %d WPM", morse.ErrInvalidSpeed, c.WPM)
		}
		return morse.NewTiming(c.WPM, gap), nil
	}
	return morse.NewFarnsworthTiming(c.Farnsworth, c.WPM, gap)
}

// RenderConfig builds synthesis settings at the given sample rate
func (c *Config) RenderConfig(sampleRate int) (audio.RenderConfig, error) {
	shape, err := audio.ParseWaveform(c.Shape)
	if err != nil {
		return audio.RenderConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	drift := audio.NoDrift
	if c.Drift != DriftOff {
		drift = audio.DriftTo(c.Drift)
	}

	return audio.RenderConfig{
		SampleRate:    sampleRate,
		ToneFrequency: c.Tone,
		NoiseLevel:    c.QRM,
		Shape:         shape,
		Drift:         drift,
		Lookup:        morse.Standard,
	}, nil
}
