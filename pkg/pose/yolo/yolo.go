// Package yolo estimates single-person pose with a YOLOv8-pose ONNX model on OpenCV DNN.
package yolo

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-trainer/pkg/pose"
	"gocv.io/x/gocv"
)

// YOLOv8-pose output layout per candidate: cx, cy, w, h, score, then 17 x (x, y, conf).
const (
	boxFields     = 5
	keypointWidth = 3
	outputFields  = boxFields + pose.NumKeypoints*keypointWidth // 56
)

// ErrEmptyFrame is returned for frames with no pixels.
var ErrEmptyFrame = errors.New("yolo: empty frame")

// Config holds estimator configuration.
type Config struct {
	ModelPath        string  // Path to the ONNX model
	ConfidenceThresh float32 // Minimum person score
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns defaults for yolov8n-pose.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n-pose.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// Estimator runs YOLOv8-pose and returns the highest-scoring person's landmarks.
type Estimator struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex // Protects inference
	inputSize image.Point
}

// New loads the model.
func New(cfg Config) (*Estimator, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load pose model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Estimator{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Estimate returns landmarks in frame pixel coordinates. A frame with no person
// above the score threshold yields empty landmarks and no error.
func (e *Estimator) Estimate(frame gocv.Mat) (pose.Landmarks, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, e.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	// Output shape is [1, 56, N]; view it as 56 rows of N candidates.
	flat := output.Reshape(1, outputFields)
	defer flat.Close()

	data, err := flat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}

	scaleX := float64(frame.Cols()) / float64(e.config.InputWidth)
	scaleY := float64(frame.Rows()) / float64(e.config.InputHeight)
	return parseOutput(data, flat.Cols(), e.config.ConfidenceThresh, scaleX, scaleY), nil
}

// parseOutput picks the best person from a row-major [56 x n] tensor.
func parseOutput(data []float32, n int, thresh float32, scaleX, scaleY float64) pose.Landmarks {
	if n <= 0 || len(data) < outputFields*n {
		return pose.Landmarks{}
	}

	best := -1
	bestScore := thresh
	for i := 0; i < n; i++ {
		score := data[4*n+i]
		if score >= bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return pose.Landmarks{}
	}

	lm := make(pose.Landmarks, pose.NumKeypoints)
	for k := 0; k < pose.NumKeypoints; k++ {
		row := boxFields + k*keypointWidth
		lm[pose.Keypoint(k)] = pose.Landmark{
			X:          float64(data[row*n+best]) * scaleX,
			Y:          float64(data[(row+1)*n+best]) * scaleY,
			Confidence: float64(data[(row+2)*n+best]),
		}
	}
	return lm
}

// Close releases the network.
func (e *Estimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Close()
}
