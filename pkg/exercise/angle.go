package exercise

import (
	"math"

	"github.com/teslashibe/go-trainer/pkg/pose"
)

// minSegment is the shortest limb segment (pixels) that still gives a usable angle.
const minSegment = 1e-6

// JointAngle returns the angle in degrees (0-180) at b between segments b->a and b->c.
// ok is false when either segment has zero length or a coordinate is NaN or infinite.
func JointAngle(a, b, c pose.Landmark) (deg float64, ok bool) {
	for _, v := range [6]float64{a.X, a.Y, b.X, b.Y, c.X, c.Y} {
		if !finite(v) {
			return 0, false
		}
	}
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	lenBA := math.Hypot(bax, bay)
	lenBC := math.Hypot(bcx, bcy)
	if lenBA < minSegment || lenBC < minSegment {
		return 0, false
	}

	cos := (bax*bcx + bay*bcy) / (lenBA * lenBC)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

// Signal extracts the exercise signal for def from one frame's landmarks.
//
// The candidate joint whose weakest landmark is most confident is measured. If no
// candidate has all three landmarks at or above minVisibility, Signal returns
// ErrLowConfidence.
func Signal(def Definition, lm pose.Landmarks, minVisibility float64) (float64, error) {
	best := -1
	bestConf := -1.0
	for i, j := range def.Joints {
		conf, ok := jointConfidence(j, lm)
		if !ok || conf < minVisibility {
			continue
		}
		if conf > bestConf {
			best, bestConf = i, conf
		}
	}
	if best < 0 {
		return 0, ErrLowConfidence
	}

	j := def.Joints[best]
	angle, ok := JointAngle(lm[j.A], lm[j.B], lm[j.C])
	if !ok {
		return 0, ErrLowConfidence
	}
	if def.Invert {
		angle = 180 - angle
	}
	return angle, nil
}

// jointConfidence returns the lowest confidence of the triple.
func jointConfidence(j Joint, lm pose.Landmarks) (float64, bool) {
	low := math.Inf(1)
	for _, k := range [3]pose.Keypoint{j.A, j.B, j.C} {
		l, ok := lm.Get(k)
		if !ok {
			return 0, false
		}
		if !finite(l.Confidence) {
			return 0, false
		}
		low = math.Min(low, l.Confidence)
	}
	return low, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
