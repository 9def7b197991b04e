package capture

import (
	"time"

	"gocv.io/x/gocv"
)

// PacerConfig controls capture-rate adaptation.
type PacerConfig struct {
	IdleFPS   int
	ActiveFPS int
	// IdleAfter is how long the scene must stay still before the rate drops.
	IdleAfter time.Duration
	// Threshold is the changed-pixel percentage counted as motion.
	Threshold float64
}

// DefaultPacerConfig returns the pacing used by the gesture loops.
func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		IdleFPS:   10,
		ActiveFPS: DefaultFPS,
		IdleAfter: 2 * time.Second,
		Threshold: 1.0,
	}
}

// Pacer lowers the camera rate while the scene is still and restores it
// as soon as something moves. It only adjusts the rate; every frame that is
// read still goes to the detector.
type Pacer struct {
	config     PacerConfig
	camera     Camera
	motion     *MotionDetector
	now        func() time.Time
	lastMotion time.Time
	idle       bool
}

// NewPacer creates a pacer that starts in the active state.
func NewPacer(config PacerConfig, camera Camera) *Pacer {
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = DefaultFPS
	}
	if config.IdleFPS <= 0 || config.IdleFPS > config.ActiveFPS {
		config.IdleFPS = config.ActiveFPS
	}
	p := &Pacer{
		config: config,
		camera: camera,
		motion: NewMotionDetector(config.Threshold),
		now:    time.Now,
	}
	p.lastMotion = p.now()
	return p
}

// SetClock replaces the time source.
func (p *Pacer) SetClock(now func() time.Time) {
	p.now = now
	p.lastMotion = now()
}

// Observe runs motion detection on frame and adjusts the camera rate.
func (p *Pacer) Observe(frame *gocv.Mat) {
	moved, _ := p.motion.Detect(frame)
	p.Update(moved)
}

// Update records whether the latest frame showed motion and returns the
// rate now requested from the camera.
func (p *Pacer) Update(moved bool) int {
	now := p.now()
	switch {
	case moved:
		p.lastMotion = now
		if p.idle {
			p.idle = false
			p.camera.SetFPS(p.config.ActiveFPS)
		}
	case !p.idle && now.Sub(p.lastMotion) >= p.config.IdleAfter:
		p.idle = true
		p.camera.SetFPS(p.config.IdleFPS)
	}
	return p.camera.FPS()
}

// Idle reports whether the pacer has dropped to the idle rate.
func (p *Pacer) Idle() bool {
	return p.idle
}

// Close releases the motion detector.
func (p *Pacer) Close() {
	p.motion.Close()
}
