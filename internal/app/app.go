// Package app runs the primary loop of mudra: it owns the camera and the
// mode machine, drives the mouse and keyboard gesture loops, and exposes
// the controls the tray and the local server act through.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/mode"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/voice"
)

// View mirrors the mode and voice state in an outer surface such as the tray.
type View interface {
	SetMode(m mode.Mode)
	SetVoice(enabled bool)
}

// Window shows annotated frames and reports key presses.
type Window interface {
	Show(frame *gocv.Mat)
	// WaitKey waits up to delay milliseconds for a key and returns its
	// code, or -1.
	WaitKey(delay int) int
	// Closed reports whether the user closed the window.
	Closed() bool
	Close() error
}

// Config holds the collaborators of an App. Camera, Detector, Input,
// Modes, Dispatcher and Dictation are required.
type Config struct {
	Camera     capture.Camera
	Pacer      capture.PacerConfig
	Detector   detector.Detector
	Input      input.Injector
	Modes      *mode.Machine
	Dispatcher *voice.Dispatcher
	Dictation  *voice.Dictation
	Gesture    gesture.Config

	// Builtins are the commands aliases resolve against on reload.
	Builtins      []voice.Command
	Policy        voice.MatchPolicy
	Plugins       voice.PluginRunner
	PluginTimeout time.Duration

	// TypeDictation pastes dictated text into the focused window as well
	// as the on-screen text box.
	TypeDictation bool

	Store     *store.Store
	View      View
	Frames    *server.FrameHub
	Landmarks *server.LandmarkHub

	// OpenWindow creates the display window for a mode. Defaults to a
	// highgui window.
	OpenWindow func(title string) Window

	Logger zerolog.Logger
}

// App is the primary loop together with the controls other goroutines use.
// Only Run touches the camera, the windows and the gesture interpreter.
type App struct {
	config Config
	logger zerolog.Logger

	text *TextBuffer

	// reloadMu serializes command table rebuilds.
	reloadMu sync.Mutex
}

// New creates an App and registers its mode change hook.
func New(config Config) *App {
	if config.OpenWindow == nil {
		config.OpenWindow = openHighGUI
	}
	if config.Gesture == (gesture.Config{}) {
		config.Gesture = gesture.DefaultConfig()
	}

	a := &App{
		config: config,
		logger: config.Logger.With().Str("component", "app").Logger(),
		text:   NewTextBuffer(config.Input),
	}
	config.Modes.OnChange(a.modeChanged)
	return a
}

// Text returns the keyboard text buffer.
func (a *App) Text() *TextBuffer {
	return a.text
}

func (a *App) modeChanged(from, to mode.Mode) {
	a.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("mode changed")

	a.config.Input.Notify("Mudra", modeNotice(to))
	if a.config.View != nil {
		a.config.View.SetMode(to)
	}
	a.saveSetting(store.SettingLastMode, to.String())
}

func modeNotice(m mode.Mode) string {
	switch m {
	case mode.Mouse:
		return "Mouse control"
	case mode.Keyboard:
		return "Keyboard control"
	default:
		return "Main menu"
	}
}

func (a *App) saveSetting(key, value string) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Settings().Set(key, value); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("failed to save setting")
	}
}

// Status reports the state shown on the status endpoint.
func (a *App) Status() api.Status {
	return api.Status{
		Mode:              a.config.Modes.Current().String(),
		VoiceListening:    a.config.Dispatcher.Listening(),
		VoiceStatus:       a.config.Dispatcher.Status(),
		DictationActive:   a.config.Dictation.Active(),
		DictationFeedback: a.config.Dictation.Feedback(),
	}
}

// RequestMode queues a switch to the named mode. It reports false when the
// request queue is full.
func (a *App) RequestMode(name string) (bool, error) {
	m, err := mode.Parse(name)
	if err != nil {
		return false, err
	}
	return a.config.Modes.Request(m, "http"), nil
}

// SetVoice starts or stops voice commands and returns the state reached.
func (a *App) SetVoice(enabled bool) bool {
	d := a.config.Dispatcher
	if enabled {
		d.Start()
	} else {
		d.Stop()
	}

	got := d.Listening()
	if a.config.View != nil {
		a.config.View.SetVoice(got)
	}
	a.saveSetting(store.SettingVoiceEnabled, fmt.Sprint(got))
	return got
}

// Commands lists the active command table.
func (a *App) Commands() []api.Command {
	cmds := a.config.Dispatcher.Table().Commands()
	out := make([]api.Command, len(cmds))
	for i, c := range cmds {
		out[i] = api.Command{Phrase: c.Phrase, TakesArg: c.TakesArg, Source: c.Source}
	}
	return out
}

// ReloadCommands rebuilds the command table from the builtins and the
// stored aliases. Aliases that cannot be resolved are left out and
// reported in the returned error; the rest take effect immediately.
func (a *App) ReloadCommands() error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	var aliases []voice.Alias
	if a.config.Store != nil {
		var err error
		aliases, err = a.config.Store.Aliases().VoiceAliases()
		if err != nil {
			return fmt.Errorf("load aliases: %w", err)
		}
	}

	cmds, resolveErr := voice.ResolveAliases(a.config.Builtins, aliases, a.config.Plugins, a.config.PluginTimeout)
	table, err := voice.NewCommandTable(a.config.Policy, cmds...)
	if err != nil {
		return fmt.Errorf("build command table: %w", err)
	}
	a.config.Dispatcher.SetTable(table)

	a.logger.Info().Int("commands", len(cmds)).Int("aliases", len(aliases)).Msg("command table loaded")
	return resolveErr
}
