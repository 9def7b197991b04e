package gesture

// NoKey marks the absence of a key index.
const NoKey = -1

// DwellTracker turns a held pinch over a virtual key into discrete presses.
//
// A key fires when the pinch is held over it, it differs from the last
// fired key and no frame cooldown is running. The cooldown counts Window
// frames; when it expires the latch clears, so a continuous hold fires
// again once per window. Releasing the pinch clears both latch and cooldown.
type DwellTracker struct {
	Window int

	last     int
	cooldown int
}

// NewDwellTracker creates a tracker with the given frame window.
func NewDwellTracker(window int) *DwellTracker {
	if window < 1 {
		window = 1
	}
	return &DwellTracker{Window: window, last: NoKey}
}

// Update advances the tracker by one frame. hit is the index of the key
// under the fingertip or NoKey. It returns the key to fire, if any.
func (t *DwellTracker) Update(pinched bool, hit int) (int, bool) {
	if !pinched {
		t.Reset()
		return NoKey, false
	}

	fired := NoKey
	if t.cooldown == 0 && hit != NoKey && hit != t.last {
		t.last = hit
		t.cooldown = 1
		fired = hit
	}

	if t.cooldown > 0 {
		t.cooldown++
		if t.cooldown > t.Window {
			t.cooldown = 0
			t.last = NoKey
		}
	}

	return fired, fired != NoKey
}

// Cooling reports whether a frame cooldown is running.
func (t *DwellTracker) Cooling() bool {
	return t.cooldown > 0
}

// Last returns the latched key index, or NoKey.
func (t *DwellTracker) Last() int {
	return t.last
}

// Reset clears the latch and the cooldown.
func (t *DwellTracker) Reset() {
	t.last = NoKey
	t.cooldown = 0
}
