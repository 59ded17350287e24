package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ar/cwgen/internal/audio"
	"github.com/ar/cwgen/internal/observability"
)

// pollInterval is how often a blocking playback checks for completion
const pollInterval = 10 * time.Millisecond

// Playback streams buffers to the default audio output device
type Playback struct{}

// NewPlayback creates a playback sink; the device is opened on first use
func NewPlayback() *Playback {
	return &Playback{}
}

// Name implements Sink
func (p *Playback) Name() string {
	return "playback"
}

// Consume implements Sink. It blocks until every sample has been played
// or ctx is done.
func (p *Playback) Consume(ctx context.Context, buf *audio.Buffer) error {
	logger := observability.WithComponent("sink.playback")

	if buf.Len() == 0 {
		logger.Debug().Msg("Nothing to play")
		return nil
	}

	start := time.Now()
	err := playBuffer(ctx, buf)
	observability.RecordSinkWrite(p.Name(), err == nil)
	if err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			observability.RecordError("device", "sink.playback")
		}
		logger.Error().Err(err).Msg("Playback failed")
		return err
	}

	logger.Info().
		Dur("duration", buf.Duration()).
		Dur("elapsed", time.Since(start)).
		Int("sample_rate", buf.SampleRate).
		Msg("Playback complete")
	return nil
}

// drain blocks while playing reports true, watching the reader the device
// pulls from. A device that stops before the reader is drained has failed.
func drain(ctx context.Context, playing func() bool, r *audio.Reader) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for playing() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("playback interrupted with %d samples unplayed: %w", r.Remaining(), ctx.Err())
		case <-ticker.C:
		}
	}

	if !r.IsDrained() {
		return fmt.Errorf("%w: device stopped with %d samples unplayed", ErrDeviceUnavailable, r.Remaining())
	}
	return nil
}
