package input

import (
	"os/exec"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
	"github.com/go-vgo/robotgo"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"
)

// pasteSettle gives the clipboard owner time to publish new contents.
const pasteSettle = 80 * time.Millisecond

// Robot injects input through robotgo and launches programs with os/exec.
type Robot struct {
	logger zerolog.Logger
	goos   string
}

// NewRobot creates a Robot for the running platform.
func NewRobot(logger zerolog.Logger) *Robot {
	return &Robot{
		logger: logger.With().Str("component", "input").Logger(),
		goos:   runtime.GOOS,
	}
}

// MoveTo moves the pointer to screen coordinates.
func (r *Robot) MoveTo(x, y int) {
	robotgo.Move(x, y)
}

// Click clicks a mouse button.
func (r *Robot) Click(b Button) {
	robotgo.Click(b.String())
}

// Tap presses and releases key while holding modifiers.
func (r *Robot) Tap(key string, modifiers ...string) {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Strs("modifiers", modifiers).Msg("key tap failed")
	}
}

// Hotkey taps the last key while holding the others.
func (r *Robot) Hotkey(keys ...string) {
	if len(keys) == 0 {
		return
	}
	r.Tap(keys[len(keys)-1], keys[:len(keys)-1]...)
}

// Type types text into the focused window.
func (r *Robot) Type(text string) {
	robotgo.TypeStr(text)
}

// Paste replaces the clipboard with text and sends the paste shortcut.
func (r *Robot) Paste(text string) {
	if err := clipboard.WriteAll(text); err != nil {
		r.logger.Warn().Err(err).Msg("clipboard write failed, typing instead")
		r.Type(text)
		return
	}
	time.Sleep(pasteSettle)
	r.Tap("v", PasteModifier(r.goos))
}

// Scroll scrolls vertically; positive amounts scroll up.
func (r *Robot) Scroll(amount int) {
	robotgo.Scroll(0, amount)
}

// VolumeUp presses the volume-up media key.
func (r *Robot) VolumeUp() {
	r.Tap("audio_vol_up")
}

// VolumeDown presses the volume-down media key.
func (r *Robot) VolumeDown() {
	r.Tap("audio_vol_down")
}

// Mute toggles mute.
func (r *Robot) Mute() {
	r.Tap("audio_mute")
}

// Launch starts a program without waiting for it.
func (r *Robot) Launch(name string, args ...string) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		r.logger.Warn().Err(err).Str("program", name).Msg("launch failed")
		return
	}
	r.logger.Debug().Str("program", name).Int("pid", cmd.Process.Pid).Msg("launched")
	go cmd.Wait()
}

// OpenURL opens url in the default browser.
func (r *Robot) OpenURL(url string) {
	if err := browser.OpenURL(url); err != nil {
		r.logger.Warn().Err(err).Str("url", url).Msg("open url failed")
	}
}

// Screenshot captures the screen to a PNG at path.
func (r *Robot) Screenshot(path string) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		r.logger.Warn().Err(err).Msg("screen capture failed")
		return
	}
	if err := robotgo.Save(img, path); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("save screenshot failed")
		return
	}
	r.logger.Info().Str("path", path).Msg("screenshot saved")
}

// Lock locks the workstation.
func (r *Robot) Lock() {
	c := LockCommand(r.goos)
	r.Launch(c.Name, c.Args...)
}

// Sleep suspends the machine.
func (r *Robot) Sleep() {
	c := SleepCommand(r.goos)
	r.Launch(c.Name, c.Args...)
}

// Notify shows a desktop notification.
func (r *Robot) Notify(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		r.logger.Debug().Err(err).Msg("notification failed")
	}
}

// ScreenSize returns the main display size in pixels.
func (r *Robot) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}
