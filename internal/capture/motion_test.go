package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestMotionDetector_NoMotion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	detected, changed := md.Detect(&frame1)
	if detected || changed != 0 {
		t.Errorf("first frame = (%v, %f), want baseline only", detected, changed)
	}

	if detected, changed = md.Detect(&frame2); detected {
		t.Errorf("identical frames should not detect motion, changed = %f", changed)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	detected, changed := md.Detect(&white)
	if !detected {
		t.Errorf("black to white should detect motion, changed = %f", changed)
	}
	if changed < 50.0 {
		t.Errorf("changed = %f, expected > 50%%", changed)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	md.Detect(&frame)
	if !md.initialized {
		t.Error("detector should be initialized after first Detect")
	}

	md.Reset()
	if md.initialized || !md.prevGray.Empty() {
		t.Error("Reset should drop the baseline")
	}

	md.Close()
	md.Close()
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}
	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPacer(t *testing.T) {
	cam := NewMockCamera(nil, false)
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewPacer(PacerConfig{IdleFPS: 10, ActiveFPS: 30, IdleAfter: time.Second, Threshold: 1}, cam)
	defer p.Close()
	p.SetClock(clock.now)
	cam.SetFPS(30)

	clock.advance(500 * time.Millisecond)
	if got := p.Update(false); got != 30 {
		t.Errorf("still before IdleAfter: FPS = %d, want 30", got)
	}

	clock.advance(600 * time.Millisecond)
	if got := p.Update(false); got != 10 {
		t.Errorf("still past IdleAfter: FPS = %d, want 10", got)
	}
	if !p.Idle() {
		t.Error("pacer should be idle")
	}

	if got := p.Update(true); got != 30 {
		t.Errorf("motion: FPS = %d, want 30", got)
	}
	if p.Idle() {
		t.Error("motion should leave the idle state")
	}

	clock.advance(900 * time.Millisecond)
	if got := p.Update(false); got != 30 {
		t.Errorf("idle timer restarts on motion: FPS = %d, want 30", got)
	}
}

func TestPacer_ClampsIdleRate(t *testing.T) {
	cam := NewMockCamera(nil, false)
	p := NewPacer(PacerConfig{IdleFPS: 60, ActiveFPS: 30}, cam)
	defer p.Close()

	if p.config.IdleFPS != 30 {
		t.Errorf("IdleFPS = %d, want clamp to ActiveFPS", p.config.IdleFPS)
	}
}
