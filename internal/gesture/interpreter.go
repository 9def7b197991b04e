package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Config holds interpreter thresholds, in frame pixels where applicable.
type Config struct {
	Smoothing      float64
	ClickThreshold float64
	ClickCooldown  time.Duration
	PinchThreshold float64
	DwellFrames    int
}

// DefaultConfig returns the thresholds the overlay and layout are sized for.
func DefaultConfig() Config {
	return Config{
		Smoothing:      DefaultSmoothing,
		ClickThreshold: 40,
		ClickCooldown:  500 * time.Millisecond,
		PinchThreshold: 50,
		DwellFrames:    10,
	}
}

// GestureState is what the interpreter derived from the latest frame.
// Cursor carries over between frames; the rest is rebuilt each frame.
type GestureState struct {
	Hand        bool
	Index       detector.Point2D // index fingertip, frame pixels
	Thumb       detector.Point2D // thumb tip, frame pixels
	Target      detector.Point2D // pointer target, screen pixels
	Cursor      detector.Point2D // smoothed pointer, screen pixels
	IndexMiddle float64
	ThumbIndex  float64
}

// MouseFrame is the result of one pointer-mode frame.
type MouseFrame struct {
	GestureState
	Left  bool
	Right bool
}

// KeyFrame is the result of one keyboard-mode frame.
type KeyFrame struct {
	GestureState
	Pinched bool
	Hover   int // key under the fingertip while pinched, or NoKey
	Pressed int // key that fired this frame, or NoKey
}

// Interpreter turns landmark sets into mode-specific gesture events.
// It is owned by the primary loop and is not safe for concurrent use.
type Interpreter struct {
	cfg    Config
	frame  Size
	screen Size
	layout []ButtonSpec

	smoother *Smoother
	clicks   *ClickDebouncer
	dwell    *DwellTracker
	state    GestureState
}

// NewInterpreter creates an interpreter for the given frame and screen sizes.
// A nil layout uses DefaultLayout.
func NewInterpreter(cfg Config, frame, screen Size, layout []ButtonSpec) *Interpreter {
	if layout == nil {
		layout = DefaultLayout()
	}
	return &Interpreter{
		cfg:      cfg,
		frame:    frame,
		screen:   screen,
		layout:   layout,
		smoother: NewSmoother(cfg.Smoothing),
		clicks:   NewClickDebouncer(cfg.ClickThreshold, cfg.ClickCooldown),
		dwell:    NewDwellTracker(cfg.DwellFrames),
	}
}

// SetClock replaces the click cooldown clock.
func (in *Interpreter) SetClock(now func() time.Time) {
	in.clicks.SetClock(now)
}

// Layout returns the virtual keyboard.
func (in *Interpreter) Layout() []ButtonSpec {
	return in.layout
}

// State returns the state derived from the latest frame.
func (in *Interpreter) State() GestureState {
	return in.state
}

// Mouse interprets a pointer-mode frame. A nil set means no hand: the
// cursor stays where it is and nothing fires.
func (in *Interpreter) Mouse(set *detector.LandmarkSet) MouseFrame {
	if !in.observe(set) {
		in.dwell.Reset()
		return MouseFrame{GestureState: in.state}
	}

	in.state.Target = MapToScreen(in.state.Index, in.frame, in.screen)
	in.state.Cursor = in.smoother.Next(in.state.Target)

	return MouseFrame{
		GestureState: in.state,
		Left:         in.clicks.Try(LeftClick, in.state.IndexMiddle),
		Right:        in.clicks.Try(RightClick, in.state.ThumbIndex),
	}
}

// Keyboard interprets a keyboard-mode frame. A nil set clears the dwell
// latch so a returning hand always starts unlatched.
func (in *Interpreter) Keyboard(set *detector.LandmarkSet) KeyFrame {
	out := KeyFrame{Hover: NoKey, Pressed: NoKey}
	if !in.observe(set) {
		in.dwell.Reset()
		out.GestureState = in.state
		return out
	}

	out.Pinched = in.state.ThumbIndex < in.cfg.PinchThreshold
	if out.Pinched {
		out.Hover = HitTest(in.layout, in.state.Index)
	}
	if key, ok := in.dwell.Update(out.Pinched, out.Hover); ok {
		out.Pressed = key
	}

	out.GestureState = in.state
	return out
}

func (in *Interpreter) observe(set *detector.LandmarkSet) bool {
	in.state.Hand = set != nil
	if set == nil {
		in.state.IndexMiddle = 0
		in.state.ThumbIndex = 0
		return false
	}

	in.state.Index = set[detector.IndexTip]
	in.state.Thumb = set[detector.ThumbTip]
	in.state.IndexMiddle = set.Dist(detector.IndexTip, detector.MiddleTip)
	in.state.ThumbIndex = set.Dist(detector.ThumbTip, detector.IndexTip)
	return true
}
