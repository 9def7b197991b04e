// Package gesture turns per-frame hand landmarks into pointer motion,
// clicks and virtual key presses.
package gesture

import (
	"github.com/ayusman/mudra/internal/detector"
)

// DefaultSmoothing is the cursor smoothing factor used when none is configured.
const DefaultSmoothing = 5.0

// Size is a width and height in pixels.
type Size struct {
	W int
	H int
}

// MapToScreen linearly rescales a frame pixel position to screen pixels.
// Positions outside the frame clamp to the screen edge.
func MapToScreen(p detector.Point2D, frame, screen Size) detector.Point2D {
	return detector.Point2D{
		X: rescale(p.X, float64(frame.W), float64(screen.W)),
		Y: rescale(p.Y, float64(frame.H), float64(screen.H)),
	}
}

func rescale(v, from, to float64) float64 {
	switch {
	case from <= 0 || v <= 0:
		return 0
	case v >= from:
		return to
	default:
		return v / from * to
	}
}

// Smoother is a first-order low-pass filter over cursor positions:
// next = prev + (target - prev) / Factor.
type Smoother struct {
	factor float64
	prev   detector.Point2D
}

// NewSmoother returns a Smoother starting at the origin. Factors below 1
// would overshoot, so they fall back to DefaultSmoothing.
func NewSmoother(factor float64) *Smoother {
	if factor < 1 {
		factor = DefaultSmoothing
	}
	return &Smoother{factor: factor}
}

// Next moves the filter toward target and returns the new position.
func (s *Smoother) Next(target detector.Point2D) detector.Point2D {
	s.prev.X += (target.X - s.prev.X) / s.factor
	s.prev.Y += (target.Y - s.prev.Y) / s.factor
	return s.prev
}

// Current returns the last smoothed position.
func (s *Smoother) Current() detector.Point2D {
	return s.prev
}

// Factor returns the smoothing factor in use.
func (s *Smoother) Factor() float64 {
	return s.factor
}

// Reset returns the filter to the origin.
func (s *Smoother) Reset() {
	s.prev = detector.Point2D{}
}
