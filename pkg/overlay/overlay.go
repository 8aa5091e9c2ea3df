// Package overlay renders the gaze diagnostic view as JPEG frames.
//
// Each frame shows the classified state as text, a dot at the adjusted
// gaze point and small markers on the eye landmarks. The dot and text are
// omitted while calibrating.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-gaze/pkg/gaze"
	"github.com/teslashibe/go-gaze/pkg/landmark"
)

var (
	textColor  = color.RGBA{R: 255, A: 255}               // red
	gazeColor  = color.RGBA{R: 50, G: 205, B: 50, A: 255} // lime
	pointColor = color.RGBA{G: 255, B: 255, A: 255}       // cyan
	background = color.RGBA{R: 16, G: 16, B: 16, A: 255}
)

const (
	gazeRadius  = 8
	pointRadius = 2
	jpegQuality = 80

	// maxCanvas bounds client-supplied canvas dimensions.
	maxCanvas = 4096
)

// ErrBadSize is returned for non-positive canvas dimensions.
var ErrBadSize = errors.New("overlay: width and height must be positive")

// Frame is everything drawn for one pipeline pass.
type Frame struct {
	Face   landmark.Set
	Result gaze.FrameResult

	// Background is an optional JPEG camera frame drawn underneath. When
	// empty a plain canvas is used.
	Background []byte

	// Width and Height size the plain canvas to match the source frame.
	// Zero uses the renderer size.
	Width, Height int
}

// Renderer draws overlay frames. It is safe for concurrent use.
type Renderer struct {
	width, height int
	mu            sync.Mutex
}

// NewRenderer creates a renderer for a width x height canvas.
func NewRenderer(width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrBadSize
	}
	return &Renderer{width: width, height: height}, nil
}

// Size returns the canvas size.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Render draws f and returns it JPEG encoded.
func (r *Renderer) Render(f Frame) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, err := r.canvas(f)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	w, h := float64(img.Cols()), float64(img.Rows())

	if f.Result.Status == gaze.StatusTracked {
		gocv.PutText(&img, "Gaze: "+f.Result.State.String(), image.Pt(20, 30),
			gocv.FontHersheySimplex, 0.8, textColor, 2)

		gx := int(f.Result.State.AdjustedX * w)
		gy := int(f.Result.State.AdjustedY * h)
		gocv.Circle(&img, image.Pt(gx, gy), gazeRadius, gazeColor, -1)
	}

	for _, i := range landmark.OverlayIndices {
		if !f.Face.Has(i) || !f.Face[i].IsFinite() {
			continue
		}
		p := f.Face[i]
		gocv.Circle(&img, image.Pt(int(p.X*w), int(p.Y*h)), pointRadius, pointColor, -1)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// canvas returns the decoded background, or a blank canvas sized to the
// source frame when there is none.
func (r *Renderer) canvas(f Frame) (gocv.Mat, error) {
	if len(f.Background) == 0 {
		w, h := r.width, r.height
		if f.Width > 0 && f.Height > 0 && f.Width <= maxCanvas && f.Height <= maxCanvas {
			w, h = f.Width, f.Height
		}
		img := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
		img.SetTo(gocv.NewScalar(float64(background.B), float64(background.G), float64(background.R), 0))
		return img, nil
	}

	img, err := gocv.IMDecode(f.Background, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode background: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, errors.New("overlay: empty background image")
	}
	return img, nil
}
