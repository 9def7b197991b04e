package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: "+dir+"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 1280, cfg.Camera.Width)
	assert.Equal(t, 720, cfg.Camera.Height)
	assert.True(t, cfg.Camera.Mirror)
	assert.Equal(t, 1, cfg.Detector.MaxHands)
	assert.InDelta(t, 0.7, cfg.Detector.MinConfidence, 1e-9)

	assert.InDelta(t, 5.0, cfg.Gesture.Smoothing, 1e-9)
	assert.InDelta(t, 40.0, cfg.Gesture.ClickThreshold, 1e-9)
	assert.Equal(t, 500*time.Millisecond, cfg.Gesture.ClickCooldown)
	assert.InDelta(t, 50.0, cfg.Gesture.PinchThreshold, 1e-9)
	assert.Equal(t, 10, cfg.Gesture.DwellFrames)

	assert.Equal(t, 5*time.Second, cfg.Voice.ListenTimeout)
	assert.Equal(t, 5*time.Second, cfg.Voice.PhraseLimit)
	assert.Equal(t, time.Second, cfg.Voice.JoinTimeout)
	assert.Equal(t, "all", cfg.Voice.MatchPolicy)

	assert.Equal(t, 6*time.Second, cfg.Dictation.ListenTimeout)
	assert.Equal(t, 8*time.Second, cfg.STT.Timeout)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
	assert.Equal(t, filepath.Join(dir, "plugins"), cfg.Plugins.Dir)
	assert.Equal(t, filepath.Join(dir, "mudra.db"), cfg.StorePath())
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data_dir: ` + dir + `
gesture:
  smoothing: 8
  dwell_frames: 15
voice:
  match_policy: longest
  listen_timeout: 3s
server:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 8.0, cfg.Gesture.Smoothing, 1e-9)
	assert.Equal(t, 15, cfg.Gesture.DwellFrames)
	assert.Equal(t, "longest", cfg.Voice.MatchPolicy)
	assert.Equal(t, 3*time.Second, cfg.Voice.ListenTimeout)
	assert.False(t, cfg.Server.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: "+dir+"\n"), 0644))

	t.Setenv("MUDRA_STT_MODEL", "whisper-large")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "whisper-large", cfg.STT.Model)
}

func TestLoad_InvalidPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("voice:\n  match_policy: random\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match_policy")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Gesture: GestureConfig{Smoothing: 5, DwellFrames: 10},
			Voice:   VoiceConfig{MatchPolicy: "all", SampleRate: 16000},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "smoothing below one", mutate: func(c *Config) { c.Gesture.Smoothing = 0.5 }, wantErr: true},
		{name: "zero dwell frames", mutate: func(c *Config) { c.Gesture.DwellFrames = 0 }, wantErr: true},
		{name: "first policy", mutate: func(c *Config) { c.Voice.MatchPolicy = "first" }},
		{name: "zero sample rate", mutate: func(c *Config) { c.Voice.SampleRate = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
