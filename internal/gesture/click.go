package gesture

import (
	"sync"
	"time"
)

// Click identifies a mouse button driven by a pinch.
type Click int

const (
	// LeftClick is fired by pinching index and middle fingertips.
	LeftClick Click = iota
	// RightClick is fired by pinching thumb and index fingertips.
	RightClick
)

// String returns the button name.
func (c Click) String() string {
	switch c {
	case LeftClick:
		return "left"
	case RightClick:
		return "right"
	default:
		return "unknown"
	}
}

// ClickDebouncer fires a click when a fingertip distance drops below
// Threshold, at most once per Cooldown for each button. Buttons keep
// independent clocks, so a left and a right click may fire back to back.
type ClickDebouncer struct {
	Threshold float64
	Cooldown  time.Duration

	mu   sync.Mutex
	now  func() time.Time
	last map[Click]time.Time
}

// NewClickDebouncer creates a debouncer using the wall clock.
func NewClickDebouncer(threshold float64, cooldown time.Duration) *ClickDebouncer {
	return &ClickDebouncer{
		Threshold: threshold,
		Cooldown:  cooldown,
		now:       time.Now,
		last:      make(map[Click]time.Time),
	}
}

// SetClock replaces the time source. Used by tests.
func (d *ClickDebouncer) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Try reports whether a click of the given kind fires for this distance.
// A fired click restarts that button's cooldown.
func (d *ClickDebouncer) Try(kind Click, distance float64) bool {
	if distance >= d.Threshold {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.last[kind]; ok && now.Sub(last) <= d.Cooldown {
		return false
	}
	d.last[kind] = now
	return true
}
