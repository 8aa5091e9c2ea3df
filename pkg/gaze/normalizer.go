package gaze

import (
	"math"

	"github.com/teslashibe/go-gaze/pkg/landmark"
)

// minSpan is the smallest eye width or height accepted as non-degenerate.
const minSpan = 1e-6

// Ratios are the raw per-frame iris offsets, both expected near 0..1.
//
// X is measured along image +x for both eyes: 0 means the iris sits on the
// image-left corner of its eye. Y is 0 at the upper lid and 1 at the lower lid.
type Ratios struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Normalizer converts a face's landmarks into iris offset ratios.
//
// Each eye yields its own horizontal and vertical ratio; the two eyes are
// averaged per axis. The same per-eye convention is used on both axes.
type Normalizer struct {
	eyes []landmark.EyeIndices
}

// NewNormalizer creates a normalizer for the FaceMesh eye layout.
func NewNormalizer() *Normalizer {
	return &Normalizer{eyes: landmark.Eyes()}
}

// Normalize returns the raw ratios for the first face in faces.
// It returns ErrNoFace when faces is empty and ErrDegenerateGeometry when an
// eye has collapsed or the result would not be finite.
func (n *Normalizer) Normalize(faces []landmark.Set) (Ratios, error) {
	face, ok := landmark.First(faces)
	if !ok {
		return Ratios{}, ErrNoFace
	}
	return n.NormalizeSet(face)
}

// NormalizeSet returns the raw ratios for a single face.
func (n *Normalizer) NormalizeSet(face landmark.Set) (Ratios, error) {
	var sum Ratios
	for _, eye := range n.eyes {
		if !face.Has(eye.All()...) {
			return Ratios{}, ErrNoFace
		}
		r, err := eyeRatios(face, eye)
		if err != nil {
			return Ratios{}, err
		}
		sum.X += r.X
		sum.Y += r.Y
	}

	count := float64(len(n.eyes))
	out := Ratios{X: sum.X / count, Y: sum.Y / count}
	if !finite(out.X) || !finite(out.Y) {
		return Ratios{}, ErrDegenerateGeometry
	}
	return out, nil
}

// eyeRatios computes the offsets of one eye.
func eyeRatios(face landmark.Set, eye landmark.EyeIndices) (Ratios, error) {
	iris := face[eye.Iris]
	start, end := face[eye.Start], face[eye.End]
	top, bottom := face[eye.LidTop], face[eye.LidBottom]

	for _, p := range []landmark.Point{iris, start, end, top, bottom} {
		if !p.IsFinite() {
			return Ratios{}, ErrDegenerateGeometry
		}
	}

	width := end.X - start.X
	height := bottom.Y - top.Y
	if math.Abs(width) < minSpan || math.Abs(height) < minSpan {
		return Ratios{}, ErrDegenerateGeometry
	}

	return Ratios{
		X: (iris.X - start.X) / width,
		Y: (iris.Y - top.Y) / height,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
