package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	// ErrOpenFailed is returned when the capture device cannot be opened.
	ErrOpenFailed = errors.New("camera: open failed")

	// ErrReadFailed is returned by Loop.Run when the device stops yielding frames.
	ErrReadFailed = errors.New("camera: read failed")
)

// Source yields BGR frames.
type Source interface {
	Read(frame *gocv.Mat) bool
	Close() error
}

// Opener opens a Source for a config.
type Opener func(cfg Config) (Source, error)

// OpenDevice opens a local webcam with OpenCV and requests the configured
// resolution and framerate. The driver may pick the nearest supported mode.
func OpenDevice(cfg Config) (Source, error) {
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrOpenFailed, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d not available", ErrOpenFailed, cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	return vc, nil
}

// EncodeJPEG encodes a frame at the given quality into a Go-owned buffer.
func EncodeJPEG(frame gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases C memory freed by Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}
