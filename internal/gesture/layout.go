package gesture

import (
	"image"

	"github.com/ayusman/mudra/internal/detector"
)

// Labels of the non-letter keys.
const (
	KeyBackspace = "CL"
	KeySpace     = "SP"
	KeyCaps      = "APR"
	KeyClear     = "CLR"
	KeyMic       = "MIC"
	KeyCommands  = "CMD"
)

// KeyRows is the on-screen keyboard, top row first.
var KeyRows = [][]string{
	{"Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P", KeyBackspace},
	{"A", "S", "D", "F", "G", "H", "J", "K", "L", ";", KeySpace},
	{"Z", "X", "C", "V", "B", "N", "M", ",", ".", "/", KeyCaps},
	{KeyMic, KeyClear, KeyCommands},
}

const (
	keyPitch  = 100
	keyMargin = 10
	keySize   = 70
)

// ButtonSpec is a virtual key drawn on the camera frame.
type ButtonSpec struct {
	X, Y  int
	W, H  int
	Label string
}

// Contains reports whether p lies strictly inside the key.
func (b ButtonSpec) Contains(p detector.Point2D) bool {
	return float64(b.X) < p.X && p.X < float64(b.X+b.W) &&
		float64(b.Y) < p.Y && p.Y < float64(b.Y+b.H)
}

// Rect returns the key bounds.
func (b ButtonSpec) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// DefaultLayout builds KeyRows on a 100 px grid.
func DefaultLayout() []ButtonSpec {
	var layout []ButtonSpec
	for row, keys := range KeyRows {
		for col, label := range keys {
			layout = append(layout, ButtonSpec{
				X:     keyPitch*col + keyMargin,
				Y:     keyPitch*row + keyMargin,
				W:     keySize,
				H:     keySize,
				Label: label,
			})
		}
	}
	return layout
}

// HitTest returns the index of the first key containing p, or NoKey.
func HitTest(layout []ButtonSpec, p detector.Point2D) int {
	for i, b := range layout {
		if b.Contains(p) {
			return i
		}
	}
	return NoKey
}
