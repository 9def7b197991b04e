// Package config provides configuration management for mudra.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Gesture   GestureConfig   `mapstructure:"gesture"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Dictation DictationConfig `mapstructure:"dictation"`
	STT       STTConfig       `mapstructure:"stt"`
	Server    ServerConfig    `mapstructure:"server"`
	Plugins   PluginsConfig   `mapstructure:"plugins"`
	Log       LogConfig       `mapstructure:"log"`
}

// CameraConfig configures frame capture.
type CameraConfig struct {
	DeviceID     int           `mapstructure:"device_id"`
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
	Mirror       bool          `mapstructure:"mirror"`
	IdleFPS      int           `mapstructure:"idle_fps"`
	ActiveFPS    int           `mapstructure:"active_fps"`
	MotionThresh float64       `mapstructure:"motion_threshold"`
	IdleAfter    time.Duration `mapstructure:"idle_after"`
}

// DetectorConfig configures the hand landmark service.
type DetectorConfig struct {
	MaxHands        int     `mapstructure:"max_hands"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	MinTrackingConf float64 `mapstructure:"min_tracking_confidence"`
}

// GestureConfig holds interpreter thresholds.
type GestureConfig struct {
	Smoothing      float64       `mapstructure:"smoothing"`
	ClickThreshold float64       `mapstructure:"click_threshold"`
	ClickCooldown  time.Duration `mapstructure:"click_cooldown"`
	PinchThreshold float64       `mapstructure:"pinch_threshold"`
	DwellFrames    int           `mapstructure:"dwell_frames"`
}

// VoiceConfig configures the continuous command listener.
type VoiceConfig struct {
	AutoStart         bool          `mapstructure:"auto_start"`
	ListenTimeout     time.Duration `mapstructure:"listen_timeout"`
	PhraseLimit       time.Duration `mapstructure:"phrase_limit"`
	JoinTimeout       time.Duration `mapstructure:"join_timeout"`
	CalibrateDuration time.Duration `mapstructure:"calibrate_duration"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	MatchPolicy       string        `mapstructure:"match_policy"` // all, first, longest
	SampleRate        int           `mapstructure:"sample_rate"`
}

// DictationConfig configures the one-shot keyboard dictation worker.
type DictationConfig struct {
	ListenTimeout     time.Duration `mapstructure:"listen_timeout"`
	PhraseLimit       time.Duration `mapstructure:"phrase_limit"`
	CalibrateDuration time.Duration `mapstructure:"calibrate_duration"`
	TypeIntoFocus     bool          `mapstructure:"type_into_focus"`
}

// STTConfig configures the transcription endpoint.
type STTConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the local status server.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// PluginsConfig configures external action plugins.
type PluginsConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultDataDir returns ~/.mudra, or ".mudra" when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())

	v.SetDefault("camera.device_id", 0)
	v.SetDefault("camera.width", 1280)
	v.SetDefault("camera.height", 720)
	v.SetDefault("camera.mirror", true)
	v.SetDefault("camera.idle_fps", 10)
	v.SetDefault("camera.active_fps", 30)
	v.SetDefault("camera.motion_threshold", 1.0)
	v.SetDefault("camera.idle_after", 2*time.Second)

	v.SetDefault("detector.max_hands", 1)
	v.SetDefault("detector.min_confidence", 0.7)
	v.SetDefault("detector.min_tracking_confidence", 0.7)

	v.SetDefault("gesture.smoothing", 5.0)
	v.SetDefault("gesture.click_threshold", 40.0)
	v.SetDefault("gesture.click_cooldown", 500*time.Millisecond)
	v.SetDefault("gesture.pinch_threshold", 50.0)
	v.SetDefault("gesture.dwell_frames", 10)

	v.SetDefault("voice.auto_start", false)
	v.SetDefault("voice.listen_timeout", 5*time.Second)
	v.SetDefault("voice.phrase_limit", 5*time.Second)
	v.SetDefault("voice.join_timeout", time.Second)
	v.SetDefault("voice.calibrate_duration", time.Second)
	v.SetDefault("voice.settle_delay", 500*time.Millisecond)
	v.SetDefault("voice.match_policy", "all")
	v.SetDefault("voice.sample_rate", 16000)

	v.SetDefault("dictation.listen_timeout", 6*time.Second)
	v.SetDefault("dictation.phrase_limit", 6*time.Second)
	v.SetDefault("dictation.calibrate_duration", 1500*time.Millisecond)
	v.SetDefault("dictation.type_into_focus", false)

	v.SetDefault("stt.endpoint", "https://api.openai.com/v1/audio/transcriptions")
	v.SetDefault("stt.api_key", "")
	v.SetDefault("stt.model", "whisper-1")
	v.SetDefault("stt.language", "en")
	v.SetDefault("stt.timeout", 8*time.Second)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", "127.0.0.1:8765")

	v.SetDefault("plugins.dir", "")
	v.SetDefault("plugins.timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", true)
}

// Load reads configuration from path (or config.yaml in the data directory
// and the working directory when path is empty) and from MUDRA_* environment
// variables. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MUDRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Plugins.Dir == "" {
		cfg.Plugins.Dir = filepath.Join(cfg.DataDir, "plugins")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	switch c.Voice.MatchPolicy {
	case "all", "first", "longest":
	default:
		return fmt.Errorf("voice.match_policy: unknown policy %q", c.Voice.MatchPolicy)
	}
	if c.Gesture.Smoothing < 1 {
		return fmt.Errorf("gesture.smoothing must be >= 1, got %v", c.Gesture.Smoothing)
	}
	if c.Gesture.DwellFrames < 1 {
		return fmt.Errorf("gesture.dwell_frames must be >= 1, got %d", c.Gesture.DwellFrames)
	}
	if c.Voice.SampleRate <= 0 {
		return fmt.Errorf("voice.sample_rate must be positive, got %d", c.Voice.SampleRate)
	}
	return nil
}

// StorePath returns the SQLite database location.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// LogDir returns the directory for log files.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ScreenshotDir returns the directory voice screenshots are saved to.
func ScreenshotDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Pictures")
}
