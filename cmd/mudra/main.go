// Command mudra controls the desktop with hand gestures seen by the webcam
// and with spoken commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/mode"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/stt"
	"github.com/ayusman/mudra/internal/tray"
	"github.com/ayusman/mudra/internal/voice"
)

// historyKeep is how many voice history entries survive the startup prune.
const historyKeep = 1000

func init() {
	// highgui windows must be driven from the main thread.
	runtime.LockOSThread()
}

type options struct {
	configPath string
	mode       string
	voice      bool
	noTray     bool
	addr       string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config file (default ~/.mudra/config.yaml)")
	flag.StringVar(&opts.mode, "mode", "menu", "initial mode: menu, mouse, keyboard or last")
	flag.BoolVar(&opts.voice, "voice", false, "start voice commands immediately")
	flag.BoolVar(&opts.noTray, "no-tray", false, "run without the system tray menu")
	flag.StringVar(&opts.addr, "addr", "", "status server address (overrides server.addr)")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logDir := ""
	if cfg.Log.File {
		logDir = cfg.LogDir()
	}
	lg, err := logging.New(logging.Config{Level: cfg.Log.Level, Console: cfg.Log.Console, Dir: logDir})
	if err != nil {
		return err
	}
	defer lg.Close()
	logger := lg.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.StorePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if n, err := st.History().Prune(ctx, historyKeep); err != nil {
		logger.Warn().Err(err).Msg("failed to prune voice history")
	} else if n > 0 {
		logger.Debug().Int64("removed", n).Msg("pruned voice history")
	}

	initial := opts.mode
	if initial == "last" {
		initial = st.Settings().GetDefault(store.SettingLastMode, mode.Menu.String())
	}
	start, err := mode.Parse(initial)
	if err != nil {
		return err
	}
	modes := mode.New(start)

	robot := input.NewRobot(lg.Component("input"))

	plugins := plugin.NewManager(cfg.Plugins.Dir, plugin.NewExecutor(cfg.Plugins.Timeout), lg.Component("plugin"))
	if err := plugins.Discover(); err != nil {
		logger.Warn().Err(err).Str("dir", cfg.Plugins.Dir).Msg("plugin discovery failed")
	}

	commandMic := openMicrophone(cfg.Voice.SampleRate, lg.Component("audio"), logger)
	defer commandMic.Close()
	dictationMic := openMicrophone(cfg.Voice.SampleRate, lg.Component("audio"), logger)
	defer dictationMic.Close()

	transcriber := stt.NewWhisperClient(stt.Config{
		Endpoint: cfg.STT.Endpoint,
		APIKey:   cfg.STT.APIKey,
		Model:    cfg.STT.Model,
		Language: cfg.STT.Language,
		Timeout:  cfg.STT.Timeout,
	}, lg.Component("stt"))

	policy, err := voice.ParseMatchPolicy(cfg.Voice.MatchPolicy)
	if err != nil {
		return err
	}
	builtins := voice.Builtins(voice.Deps{
		Input:         robot,
		Modes:         modes,
		ScreenshotDir: config.ScreenshotDir(),
	})
	table, err := voice.NewCommandTable(policy, builtins...)
	if err != nil {
		return err
	}

	dispatcher := voice.NewDispatcher(voice.Config{
		ListenTimeout:     cfg.Voice.ListenTimeout,
		PhraseLimit:       cfg.Voice.PhraseLimit,
		JoinTimeout:       cfg.Voice.JoinTimeout,
		CalibrateDuration: cfg.Voice.CalibrateDuration,
		SettleDelay:       cfg.Voice.SettleDelay,
		IdleDelay:         voice.DefaultConfig().IdleDelay,
	}, commandMic, transcriber, table, lg.Logger)
	dispatcher.SetHistory(st.History())
	defer dispatcher.Stop()

	dictCfg := voice.DefaultDictationConfig()
	dictCfg.CalibrateDuration = cfg.Dictation.CalibrateDuration
	dictCfg.ListenTimeout = cfg.Dictation.ListenTimeout
	dictCfg.PhraseLimit = cfg.Dictation.PhraseLimit
	dictation := voice.NewDictation(dictCfg, dictationMic, transcriber, lg.Logger)
	dictation.SetHistory(st.History())
	defer dictation.Close()

	camera := capture.NewCamera(capture.Config{
		DeviceID: cfg.Camera.DeviceID,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		FPS:      cfg.Camera.ActiveFPS,
		Mirror:   cfg.Camera.Mirror,
	})

	det := newDetector(cfg, lg.Component("detector"), logger)
	defer det.Close()

	var frames *server.FrameHub
	var landmarks *server.LandmarkHub
	if cfg.Server.Enabled {
		frames = server.NewFrameHub()
		landmarks = server.NewLandmarkHub(lg.Component("server"))
	}

	var menu *tray.Tray
	var view app.View
	if !opts.noTray {
		menu = tray.New()
		view = menu
	}

	a := app.New(app.Config{
		Camera: camera,
		Pacer: capture.PacerConfig{
			IdleFPS:   cfg.Camera.IdleFPS,
			ActiveFPS: cfg.Camera.ActiveFPS,
			IdleAfter: cfg.Camera.IdleAfter,
			Threshold: cfg.Camera.MotionThresh,
		},
		Detector:   det,
		Input:      robot,
		Modes:      modes,
		Dispatcher: dispatcher,
		Dictation:  dictation,
		Gesture: gesture.Config{
			Smoothing:      cfg.Gesture.Smoothing,
			ClickThreshold: cfg.Gesture.ClickThreshold,
			ClickCooldown:  cfg.Gesture.ClickCooldown,
			PinchThreshold: cfg.Gesture.PinchThreshold,
			DwellFrames:    cfg.Gesture.DwellFrames,
		},
		Builtins:      builtins,
		Policy:        policy,
		Plugins:       plugins,
		PluginTimeout: cfg.Plugins.Timeout,
		TypeDictation: cfg.Dictation.TypeIntoFocus,
		Store:         st,
		View:          view,
		Frames:        frames,
		Landmarks:     landmarks,
		Logger:        lg.Logger,
	})
	if err := a.ReloadCommands(); err != nil {
		logger.Warn().Err(err).Msg("some voice command aliases were skipped")
	}

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			Store:     st,
			Control:   a,
			Frames:    frames,
			Landmarks: landmarks,
			Logger:    lg.Component("server"),
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.Server.Addr).Msg("status server stopped")
			}
		}()
		logger.Info().Str("addr", cfg.Server.Addr).Msg("status server listening")
	}

	if menu != nil {
		menu.OnMode(func(m mode.Mode) {
			if !modes.Request(m, "tray") {
				logger.Warn().Str("mode", m.String()).Msg("mode request dropped, queue full")
			}
		})
		menu.OnVoice(a.SetVoice)
		if cfg.Server.Enabled {
			url := "http://" + cfg.Server.Addr + "/api/status"
			menu.OnStatusPage(func() { robot.OpenURL(url) })
		}
		menu.OnQuit(stop)
		go menu.Run()
		defer menu.Quit()
	}

	wantVoice := opts.voice || cfg.Voice.AutoStart ||
		st.Settings().GetDefault(store.SettingVoiceEnabled, "false") == "true"
	if wantVoice {
		a.SetVoice(true)
	}

	logger.Info().
		Str("mode", start.String()).
		Str("data_dir", cfg.DataDir).
		Int("plugins", len(plugins.List())).
		Msg("mudra started")

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info().Msg("shutting down")
	return err
}

// openMicrophone opens a PortAudio microphone. When PortAudio cannot start
// it returns a microphone whose every listen fails, so gesture control
// keeps working and the voice overlay shows the error.
func openMicrophone(sampleRate int, audioLogger, logger zerolog.Logger) *audio.Microphone {
	mic, err := audio.NewMicrophone(sampleRate, audioLogger)
	if err == nil {
		return mic
	}
	logger.Warn().Err(err).Msg("microphone unavailable, voice input disabled")
	fail := func(int, int) (audio.Source, error) { return nil, err }
	return audio.NewMicrophoneFrom(sampleRate, fail, audioLogger)
}

// newDetector starts the MediaPipe landmark service, or falls back to a
// detector that never sees a hand.
func newDetector(cfg *config.Config, detLogger, logger zerolog.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConf,
	}, cfg.DataDir, detLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("MediaPipe not available, using mock detector")
		return detector.NewMockDetector()
	}
	logger.Info().Msg("using MediaPipe hand detection")
	return mp
}
