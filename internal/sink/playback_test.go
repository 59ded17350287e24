package sink

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ar/cwgen/internal/audio"
)

func TestPlayback_EmptyBufferIsNoop(t *testing.T) {
	p := NewPlayback()
	if p.Name() != "playback" {
		t.Errorf("Expected name playback, got %s", p.Name())
	}
	if err := p.Consume(context.Background(), &audio.Buffer{SampleRate: 44100}); err != nil {
		t.Errorf("Expected nil error for empty buffer, got %v", err)
	}
}

// fakeDevice pulls from a reader in the background like an output device
type fakeDevice struct {
	playing atomic.Bool
	done    chan struct{}
}

func startFakeDevice(r io.Reader, chunk int) *fakeDevice {
	d := &fakeDevice{done: make(chan struct{})}
	d.playing.Store(true)

	go func() {
		defer close(d.done)
		defer d.playing.Store(false)

		p := make([]byte, chunk)
		for {
			if _, err := r.Read(p); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return d
}

func TestDrain_PlaysToEnd(t *testing.T) {
	r := audio.NewReader(testTone(4000, 8000))
	dev := startFakeDevice(r, 400*4)

	if err := drain(context.Background(), dev.playing.Load, r); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	<-dev.done
	if r.Remaining() != 0 {
		t.Errorf("Expected reader drained, %d samples remaining", r.Remaining())
	}
}

func TestDrain_Interrupted(t *testing.T) {
	r := audio.NewReader(testTone(8000, 8000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := drain(ctx, func() bool { return true }, r)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if !strings.Contains(err.Error(), "playback interrupted with 8000 samples unplayed") {
		t.Errorf("Expected interruption message, got %q", err.Error())
	}
}

func TestDrain_InterruptedMidway(t *testing.T) {
	r := audio.NewReader(testTone(8000, 8000))
	r.Read(make([]byte, 3000*4))

	ctx, cancel := context.WithTimeout(context.Background(), 3*pollInterval)
	defer cancel()

	err := drain(ctx, func() bool { return true }, r)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "5000 samples unplayed") {
		t.Errorf("Expected remaining samples in message, got %q", err.Error())
	}
}

func TestDrain_DeviceStoppedEarly(t *testing.T) {
	r := audio.NewReader(testTone(4000, 8000))
	r.Read(make([]byte, 1000*4))

	err := drain(context.Background(), func() bool { return false }, r)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Expected ErrDeviceUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "3000 samples unplayed") {
		t.Errorf("Expected remaining samples in message, got %q", err.Error())
	}
}
