// Package detector provides the hand landmark source used by the gesture interpreter.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a normalized landmark as reported by the detector.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point2D is a position in pixel space (frame or screen).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// HandLandmarks represents the 21 normalized hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// LandmarkSet holds one hand's landmarks in frame pixel coordinates.
// It is rebuilt every frame and never stored.
type LandmarkSet [NumLandmarks]Point2D

// Pixels rescales the normalized landmarks to a width x height frame.
func (h *HandLandmarks) Pixels(width, height int) LandmarkSet {
	var set LandmarkSet
	for i, p := range h.Points {
		set[i] = Point2D{
			X: p.X * float64(width),
			Y: p.Y * float64(height),
		}
	}
	return set
}

// Dist returns the pixel distance between two landmarks of the set.
func (s *LandmarkSet) Dist(a, b int) float64 {
	return s[a].Distance(s[b])
}
