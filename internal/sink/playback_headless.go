//go:build headless

package sink

import (
	"context"
	"fmt"

	"github.com/ar/cwgen/internal/audio"
)

func playBuffer(ctx context.Context, buf *audio.Buffer) error {
	return fmt.Errorf("%w: built without audio output (headless)", ErrDeviceUnavailable)
}
