// Package landmark defines the facial landmark sets consumed by the gaze pipeline.
//
// Landmarks follow the MediaPipe FaceMesh topology with refined iris points
// (478 points). Coordinates are normalized image space: x grows to the right
// of the raw (unmirrored) camera frame, y grows downward, both in 0..1.
package landmark

import "math"

// FaceMesh indices used by the pipeline.
// See: https://github.com/google/mediapipe/blob/master/mediapipe/modules/face_geometry/data/canonical_face_model_uv_visualization.png
const (
	// Eye on the image-left side of the raw frame (the subject's right eye).
	ImageLeftEyeOuter  = 33
	ImageLeftEyeInner  = 133
	ImageLeftEyeTop    = 159
	ImageLeftEyeBottom = 145
	ImageLeftIris      = 468

	// Eye on the image-right side of the raw frame (the subject's left eye).
	ImageRightEyeInner  = 362
	ImageRightEyeOuter  = 263
	ImageRightEyeTop    = 386
	ImageRightEyeBottom = 374
	ImageRightIris      = 473

	// NumRefined is the number of points in a refined FaceMesh result.
	NumRefined = 478
)

// OverlayIndices are the eye points drawn on the overlay.
var OverlayIndices = []int{
	ImageLeftEyeOuter, ImageLeftEyeInner, ImageRightEyeInner, ImageRightEyeOuter,
	ImageLeftIris, ImageRightIris,
	ImageLeftEyeTop, ImageLeftEyeBottom, ImageRightEyeTop, ImageRightEyeBottom,
}

// Point is a normalized landmark position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// IsFinite reports whether both image coordinates are real numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Set is one face's landmarks for a single frame, indexed by FaceMesh index.
type Set []Point

// Has reports whether every index is present in the set.
func (s Set) Has(indices ...int) bool {
	for _, i := range indices {
		if i < 0 || i >= len(s) {
			return false
		}
	}
	return true
}

// EyeIndices locates one eye inside a Set.
//
// Start and End are the two eye corners ordered by image x: Start is the
// corner nearer the image-left edge. Measuring both eyes in the same image
// direction keeps their horizontal ratios comparable so they can be averaged.
type EyeIndices struct {
	Iris      int
	Start     int
	End       int
	LidTop    int
	LidBottom int
}

// All returns every index the eye needs.
func (e EyeIndices) All() []int {
	return []int{e.Iris, e.Start, e.End, e.LidTop, e.LidBottom}
}

// ImageLeftEye is the eye nearer the image-left edge.
var ImageLeftEye = EyeIndices{
	Iris:      ImageLeftIris,
	Start:     ImageLeftEyeOuter,
	End:       ImageLeftEyeInner,
	LidTop:    ImageLeftEyeTop,
	LidBottom: ImageLeftEyeBottom,
}

// ImageRightEye is the eye nearer the image-right edge.
var ImageRightEye = EyeIndices{
	Iris:      ImageRightIris,
	Start:     ImageRightEyeInner,
	End:       ImageRightEyeOuter,
	LidTop:    ImageRightEyeTop,
	LidBottom: ImageRightEyeBottom,
}

// Eyes returns both eyes in image order.
func Eyes() []EyeIndices {
	return []EyeIndices{ImageLeftEye, ImageRightEye}
}

// First returns the first face from a detector result, or false when no face
// was detected. Additional faces are ignored.
func First(faces []Set) (Set, bool) {
	if len(faces) == 0 || len(faces[0]) == 0 {
		return nil, false
	}
	return faces[0], true
}
