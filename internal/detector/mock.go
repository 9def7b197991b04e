package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// Queued results are returned one per Detect call; once the queue is empty
// the fixed hands (or error) are returned.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	queue  [][]HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned once the queue is drained.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Enqueue appends per-frame results; a nil entry means "no hand".
func (m *MockDetector) Enqueue(frames ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued result, the fixed hands, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PoseLandmarks builds a right hand whose index fingertip is at (x, y) in
// normalized coordinates, with the thumb and middle fingertips placed at the
// given offsets from it. The remaining joints hang below the fingertips.
func PoseLandmarks(x, y float64, thumb, middle Point3D) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: x - 0.05, Y: y + 0.35}

	h.Points[ThumbCMC] = Point3D{X: x + 0.02, Y: y + 0.30}
	h.Points[ThumbMCP] = Point3D{X: x + 0.05, Y: y + 0.25}
	h.Points[ThumbIP] = Point3D{X: x + thumb.X/2 + 0.03, Y: y + thumb.Y/2 + 0.1}
	h.Points[ThumbTip] = Point3D{X: x + thumb.X, Y: y + thumb.Y, Z: thumb.Z}

	h.Points[IndexMCP] = Point3D{X: x, Y: y + 0.2}
	h.Points[IndexPIP] = Point3D{X: x, Y: y + 0.13}
	h.Points[IndexDIP] = Point3D{X: x, Y: y + 0.06}
	h.Points[IndexTip] = Point3D{X: x, Y: y}

	h.Points[MiddleMCP] = Point3D{X: x - 0.04, Y: y + 0.2}
	h.Points[MiddlePIP] = Point3D{X: x + middle.X/2 - 0.02, Y: y + middle.Y/2 + 0.1}
	h.Points[MiddleDIP] = Point3D{X: x + middle.X*0.8, Y: y + middle.Y*0.8 + 0.03}
	h.Points[MiddleTip] = Point3D{X: x + middle.X, Y: y + middle.Y, Z: middle.Z}

	for i, dx := range []float64{-0.08, -0.12} {
		base := RingMCP + i*4
		h.Points[base] = Point3D{X: x + dx, Y: y + 0.22}
		h.Points[base+1] = Point3D{X: x + dx, Y: y + 0.26}
		h.Points[base+2] = Point3D{X: x + dx + 0.01, Y: y + 0.28}
		h.Points[base+3] = Point3D{X: x + dx + 0.02, Y: y + 0.27}
	}

	return h
}

// PointingLandmarks returns a hand pointing with the index finger at (x, y);
// thumb and middle fingertips are far from it, so no pinch or click registers.
func PointingLandmarks(x, y float64) HandLandmarks {
	return PoseLandmarks(x, y, Point3D{X: 0.12, Y: 0.15}, Point3D{X: -0.1, Y: 0.18})
}

// PinchLandmarks returns a hand with thumb and index fingertips touching at (x, y).
func PinchLandmarks(x, y float64) HandLandmarks {
	return PoseLandmarks(x, y, Point3D{X: 0.005, Y: 0.005}, Point3D{X: -0.1, Y: 0.18})
}

// TwoFingerLandmarks returns a hand with index and middle fingertips together at (x, y).
func TwoFingerLandmarks(x, y float64) HandLandmarks {
	return PoseLandmarks(x, y, Point3D{X: 0.12, Y: 0.15}, Point3D{X: -0.005, Y: 0.005})
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm.
// All fingers are extended and spread.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}
