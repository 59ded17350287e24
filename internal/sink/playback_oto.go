//go:build !headless

package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ar/cwgen/internal/audio"
)

// oto allows one context per process, so the device is opened once at
// the rate of the first buffer played
var (
	deviceOnce sync.Once
	device     *oto.Context
	deviceRate int
	deviceErr  error
)

func openDevice(sampleRate int) (*oto.Context, error) {
	deviceOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			deviceErr = err
			return
		}
		<-ready

		device = ctx
		deviceRate = sampleRate
	})

	if deviceErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, deviceErr)
	}
	if deviceRate != sampleRate {
		return nil, fmt.Errorf("%w: device already open at %d Hz, buffer is %d Hz",
			ErrDeviceUnavailable, deviceRate, sampleRate)
	}
	return device, nil
}

func playBuffer(ctx context.Context, buf *audio.Buffer) error {
	dev, err := openDevice(buf.SampleRate)
	if err != nil {
		return err
	}

	reader := audio.NewReader(buf)
	player := dev.NewPlayer(reader)
	defer player.Close()

	player.Play()

	err = drain(ctx, player.IsPlaying, reader)
	if ctx.Err() != nil {
		player.Pause()
	}
	if perr := player.Err(); perr != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, perr)
	}
	return err
}
