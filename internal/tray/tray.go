// Package tray provides the system tray main menu: pick a control mode,
// toggle voice commands, or quit.
package tray

import (
	"runtime"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/mode"
)

// Menu labels.
const (
	LabelMouse        = "Mouse Control"
	LabelKeyboard     = "Keyboard Control"
	LabelVoiceOn      = "Disable Voice Commands"
	LabelVoiceOff     = "Enable Voice Commands"
	LabelStatusPage   = "Open Status Page"
	LabelQuit         = "Quit"
	statusTitlePrefix = "Mode: "
)

// Tray is the system tray menu. Callbacks run on the tray's goroutine and
// must not block; mode changes are requests, not transitions.
type Tray struct {
	onMode       func(m mode.Mode)
	onVoice      func(enabled bool) bool
	onStatusPage func()
	onQuit       func()
	voice        bool
	mu           sync.RWMutex

	menuVoice  *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a Tray with voice commands shown as disabled.
func New() *Tray {
	return &Tray{}
}

// OnMode sets the callback for the mode items.
func (t *Tray) OnMode(fn func(m mode.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnVoice sets the callback for the voice toggle. It receives the desired
// state and returns the state actually reached.
func (t *Tray) OnVoice(fn func(enabled bool) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onVoice = fn
}

// OnStatusPage sets the callback for the status page item. The item is
// hidden when no callback is set.
func (t *Tray) OnStatusPage(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStatusPage = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray and blocks until Quit.
func (t *Tray) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand-gesture and voice control")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(statusTitlePrefix+mode.Menu.String(), "Current control mode")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuMouse := systray.AddMenuItem(LabelMouse, "Move the pointer with your index finger")
	menuKeyboard := systray.AddMenuItem(LabelKeyboard, "Type on the on-screen keyboard")
	systray.AddSeparator()

	t.menuVoice = systray.AddMenuItem(voiceLabel(t.voice), "Toggle spoken commands")
	systray.AddSeparator()

	menuStatusPage := systray.AddMenuItem(LabelStatusPage, "Open the local status page in a browser")
	if t.onStatusPage == nil {
		menuStatusPage.Hide()
	}
	menuQuit := systray.AddMenuItem(LabelQuit, "Quit Mudra")
	menuVoice := t.menuVoice
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-menuMouse.ClickedCh:
				t.handleMode(mode.Mouse)
			case <-menuKeyboard.ClickedCh:
				t.handleMode(mode.Keyboard)
			case <-menuVoice.ClickedCh:
				t.handleVoice()
			case <-menuStatusPage.ClickedCh:
				t.handleStatusPage()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleMode(m mode.Mode) {
	t.mu.RLock()
	callback := t.onMode
	t.mu.RUnlock()

	if callback != nil {
		callback(m)
	}
}

func (t *Tray) handleVoice() {
	t.mu.RLock()
	want := !t.voice
	callback := t.onVoice
	t.mu.RUnlock()

	got := want
	if callback != nil {
		got = callback(want)
	}
	t.SetVoice(got)
}

func (t *Tray) handleStatusPage() {
	t.mu.RLock()
	callback := t.onStatusPage
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetVoice updates the voice toggle to reflect enabled.
func (t *Tray) SetVoice(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.voice = enabled
	if t.menuVoice != nil {
		t.menuVoice.SetTitle(voiceLabel(enabled))
	}
}

// SetMode shows the current mode in the menu.
func (t *Tray) SetMode(m mode.Mode) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitlePrefix + m.String())
	}
}

// VoiceEnabled returns the state the toggle currently shows.
func (t *Tray) VoiceEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.voice
}

func voiceLabel(enabled bool) string {
	if enabled {
		return LabelVoiceOn
	}
	return LabelVoiceOff
}
