// Package overlay draws the pose skeleton and workout HUD onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-trainer/pkg/pose"
	"github.com/teslashibe/go-trainer/pkg/trainer"
	"gocv.io/x/gocv"
)

// Style controls overlay appearance.
type Style struct {
	MinConfidence float64 // Landmarks below this are not drawn
	LineThickness int
	JointRadius   int
	FontScale     float64
	BoneColor     color.RGBA
	JointColor    color.RGBA
	TextColor     color.RGBA
	PanelColor    color.RGBA
}

// DefaultStyle returns the standard overlay look.
func DefaultStyle() Style {
	return Style{
		MinConfidence: 0.5,
		LineThickness: 2,
		JointRadius:   4,
		FontScale:     0.7,
		BoneColor:     color.RGBA{R: 0, G: 255, B: 0, A: 0},
		JointColor:    color.RGBA{R: 255, G: 0, B: 0, A: 0},
		TextColor:     color.RGBA{R: 255, G: 255, B: 255, A: 0},
		PanelColor:    color.RGBA{R: 40, G: 40, B: 40, A: 0},
	}
}

// Renderer implements trainer.Renderer with gocv drawing primitives.
type Renderer struct {
	style Style
}

// New creates a renderer.
func New(style Style) *Renderer {
	return &Renderer{style: style}
}

// DrawPose draws skeleton bones and joints for visible landmarks.
func (r *Renderer) DrawPose(frame *gocv.Mat, lm pose.Landmarks) {
	if frame == nil || frame.Empty() {
		return
	}

	for _, b := range pose.Skeleton {
		if !lm.Visible(b.From, r.style.MinConfidence) || !lm.Visible(b.To, r.style.MinConfidence) {
			continue
		}
		gocv.Line(frame, point(lm[b.From]), point(lm[b.To]), r.style.BoneColor, r.style.LineThickness)
	}

	for k, l := range lm {
		if !lm.Visible(k, r.style.MinConfidence) {
			continue
		}
		gocv.Circle(frame, point(l), r.style.JointRadius, r.style.JointColor, -1)
	}
}

// DrawStats draws the exercise name, rep count, feedback and rate in the top-left corner.
func (r *Renderer) DrawStats(frame *gocv.Mat, st trainer.Stats) {
	if frame == nil || frame.Empty() {
		return
	}

	lines := StatsLines(st)
	const lineHeight = 28
	panel := image.Rect(0, 0, 320, 12+lineHeight*len(lines))
	gocv.Rectangle(frame, panel, r.style.PanelColor, -1)

	for i, line := range lines {
		gocv.PutText(frame, line, image.Pt(10, 30+i*lineHeight),
			gocv.FontHersheySimplex, r.style.FontScale, r.style.TextColor, 2)
	}
}

// StatsLines formats the HUD text.
func StatsLines(st trainer.Stats) []string {
	return []string{
		st.Exercise.DisplayName(),
		fmt.Sprintf("Reps: %d", st.Reps),
		st.Feedback,
		fmt.Sprintf("Rate: %.1f/min", st.Rate),
	}
}

// ErrorFrame returns a black frame with msg in red, shown when the camera is unavailable.
// The caller closes the returned Mat.
func ErrorFrame(width, height int, msg string) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
	gocv.PutText(&img, msg, image.Pt(50, height/2),
		gocv.FontHersheySimplex, 1, color.RGBA{R: 255, G: 0, B: 0, A: 0}, 2)
	return img
}

func point(l pose.Landmark) image.Point {
	return image.Pt(int(l.X), int(l.Y))
}
