package sink

import (
	"context"
	"errors"

	"github.com/ar/cwgen/internal/audio"
)

var (
	// ErrDeviceUnavailable is returned when no audio output can be opened
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrIO is returned when an output file cannot be created, written or finalized
	ErrIO = errors.New("audio output i/o failure")
)

// Sink consumes a rendered buffer exactly once
type Sink interface {
	// Consume delivers every sample of buf, blocking until done
	Consume(ctx context.Context, buf *audio.Buffer) error

	// Name identifies the sink in logs and metrics
	Name() string
}
