package camera

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-trainer/pkg/metrics"
	"github.com/teslashibe/go-trainer/pkg/trainer"
	"gocv.io/x/gocv"
)

var jpegMagic = []byte{0xFF, 0xD8}

type fakeSource struct {
	remaining int
	closed    atomic.Bool
}

func (s *fakeSource) Read(frame *gocv.Mat) bool {
	if s.remaining == 0 {
		return false
	}
	s.remaining--
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer img.Close()
	img.CopyTo(frame)
	return true
}

func (s *fakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

// endlessSource yields frames until closed.
type endlessSource struct{ fakeSource }

func (s *endlessSource) Read(frame *gocv.Mat) bool {
	s.remaining = 1
	return s.fakeSource.Read(frame)
}

type fakeProcessor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakeProcessor) ProcessFrame(frame gocv.Mat) (gocv.Mat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return frame, p.err
}

func (p *fakeProcessor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errs   int
	}{
		{"default", func(*Config) {}, 0},
		{"negative device", func(c *Config) { c.Device = -1 }, 1},
		{"tiny frame", func(c *Config) { c.Width = 10; c.Height = 10 }, 2},
		{"zero fps", func(c *Config) { c.Framerate = 0 }, 1},
		{"quality too high", func(c *Config) { c.Quality = 101 }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if got := cfg.Validate(); len(got) != tt.errs {
				t.Errorf("Validate() = %v, want %d errors", got, tt.errs)
			}
		})
	}
}

func TestFrameBroadcaster(t *testing.T) {
	fb := NewFrameBroadcaster(nil)

	id, ch := fb.Subscribe()
	if fb.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", fb.ClientCount())
	}

	// Buffer holds two frames; the third is dropped, not blocked on.
	fb.Publish([]byte("a"))
	fb.Publish([]byte("b"))
	fb.Publish([]byte("c"))

	if got := string(<-ch); got != "a" {
		t.Errorf("first frame = %q, want a", got)
	}
	if got := string(<-ch); got != "b" {
		t.Errorf("second frame = %q, want b", got)
	}
	if got := string(fb.Latest()); got != "c" {
		t.Errorf("Latest() = %q, want c", got)
	}

	// Late subscribers start from the latest frame.
	_, late := fb.Subscribe()
	if got := string(<-late); got != "c" {
		t.Errorf("late subscriber first frame = %q, want c", got)
	}

	fb.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	fb.Unsubscribe(id) // no-op

	fb.Close()
	if _, ok := <-late; ok {
		t.Error("channel should be closed after Close")
	}
	_, after := fb.Subscribe()
	if _, ok := <-after; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
}

func TestLoop_PublishesEveryFrameThenFailsOnRead(t *testing.T) {
	src := &fakeSource{remaining: 3}
	proc := &fakeProcessor{}
	fb := NewFrameBroadcaster(nil)
	m := metrics.New()

	var published int
	loop := NewLoop(DefaultConfig(), proc, fb,
		WithOpener(func(Config) (Source, error) { return src, nil }),
		WithMetrics(m),
		WithFrameCallback(func() { published++ }),
	)

	err := loop.Run(context.Background())
	if !errors.Is(err, ErrReadFailed) {
		t.Fatalf("Run() error = %v, want ErrReadFailed", err)
	}
	if proc.Calls() != 3 || published != 3 {
		t.Errorf("processed %d, published %d, want 3 each", proc.Calls(), published)
	}
	if !bytes.HasPrefix(fb.Latest(), jpegMagic) {
		t.Error("latest frame is not a JPEG")
	}
	if got := m.FramesRead.Load(); got != 3 {
		t.Errorf("FramesRead = %d, want 3", got)
	}
	if got := m.ReadErrors.Load(); got != 1 {
		t.Errorf("ReadErrors = %d, want 1", got)
	}
	if !src.closed.Load() {
		t.Error("source should be closed")
	}
}

func TestLoop_EstimatorFailureStillPublishes(t *testing.T) {
	src := &fakeSource{remaining: 2}
	proc := &fakeProcessor{err: trainer.ErrEstimatorFailure}
	fb := NewFrameBroadcaster(nil)

	var published int
	loop := NewLoop(DefaultConfig(), proc, fb,
		WithOpener(func(Config) (Source, error) { return src, nil }),
		WithFrameCallback(func() { published++ }),
	)

	if err := loop.Run(context.Background()); !errors.Is(err, ErrReadFailed) {
		t.Fatalf("Run() error = %v, want ErrReadFailed", err)
	}
	if published != 2 {
		t.Errorf("published %d frames, want 2", published)
	}
}

func TestLoop_CancelStopsAndClosesSource(t *testing.T) {
	src := &endlessSource{}
	fb := NewFrameBroadcaster(nil)

	ctx, cancel := context.WithCancel(context.Background())
	var frames atomic.Int32
	loop := NewLoop(DefaultConfig(), &fakeProcessor{}, fb,
		WithOpener(func(Config) (Source, error) { return src, nil }),
		WithFrameCallback(func() {
			if frames.Add(1) == 5 {
				cancel()
			}
		}),
	)

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !src.closed.Load() {
		t.Error("source should be closed")
	}
}

func TestLoop_OpenFailureServesErrorFrame(t *testing.T) {
	fb := NewFrameBroadcaster(nil)
	proc := &fakeProcessor{}
	loop := NewLoop(DefaultConfig(), proc, fb,
		WithOpener(func(Config) (Source, error) { return nil, ErrOpenFailed }),
	)

	_, ch := fb.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case data := <-ch:
			if !bytes.HasPrefix(data, jpegMagic) {
				t.Fatal("error frame is not a JPEG")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no error frame published")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if proc.Calls() != 0 {
		t.Errorf("processor called %d times, want 0", proc.Calls())
	}
}

func TestEncodeJPEG(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	data, err := EncodeJPEG(img, 90)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	if !bytes.HasPrefix(data, jpegMagic) {
		t.Error("output is not a JPEG")
	}

	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("IMDecode() error = %v", err)
	}
	defer decoded.Close()
	if decoded.Cols() != 64 || decoded.Rows() != 48 {
		t.Errorf("decoded size = %dx%d, want 64x48", decoded.Cols(), decoded.Rows())
	}
}
