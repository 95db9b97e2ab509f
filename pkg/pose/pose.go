// Package pose defines body landmarks as produced by a single-person pose estimator.
package pose

// Keypoint identifies a body landmark. Values follow the COCO-17 ordering used by
// YOLOv8-pose, so a keypoint is also its index in the model output.
type Keypoint int

const (
	Nose Keypoint = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	// NumKeypoints is the number of landmarks per person
	NumKeypoints = 17
)

var keypointNames = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// String returns the snake_case landmark name.
func (k Keypoint) String() string {
	if k < 0 || int(k) >= NumKeypoints {
		return "unknown"
	}
	return keypointNames[k]
}

// Landmark is a keypoint position in image pixels with the estimator's confidence (0-1).
// Z is zero for 2-D estimators.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Landmarks is one person's landmark set for a single frame.
type Landmarks map[Keypoint]Landmark

// Get returns the landmark and whether the estimator reported it.
func (l Landmarks) Get(k Keypoint) (Landmark, bool) {
	lm, ok := l[k]
	return lm, ok
}

// Visible reports whether k is present with at least minConfidence.
func (l Landmarks) Visible(k Keypoint, minConfidence float64) bool {
	lm, ok := l[k]
	return ok && lm.Confidence >= minConfidence
}

// Bone connects two keypoints for skeleton drawing.
type Bone struct {
	From, To Keypoint
}

// Skeleton lists the limb connections drawn on the overlay.
var Skeleton = []Bone{
	{LeftAnkle, LeftKnee}, {LeftKnee, LeftHip},
	{RightAnkle, RightKnee}, {RightKnee, RightHip},
	{LeftHip, RightHip},
	{LeftShoulder, LeftHip}, {RightShoulder, RightHip},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow}, {LeftElbow, LeftWrist},
	{RightShoulder, RightElbow}, {RightElbow, RightWrist},
	{LeftEye, RightEye}, {Nose, LeftEye}, {Nose, RightEye},
	{LeftEye, LeftEar}, {RightEye, RightEar},
	{LeftEar, LeftShoulder}, {RightEar, RightShoulder},
}
