package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrUnknownAction is returned for actions missing from the manifest.
	ErrUnknownAction = errors.New("plugin action not declared")
)

// Manager discovers plugins and runs their actions.
type Manager struct {
	pluginDir string
	executor  *Executor
	logger    zerolog.Logger
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a Manager for pluginDir. Call Discover to load plugins.
func NewManager(pluginDir string, executor *Executor, logger zerolog.Logger) *Manager {
	if executor == nil {
		executor = NewExecutor(0)
	}
	return &Manager{
		pluginDir: pluginDir,
		executor:  executor,
		logger:    logger.With().Str("component", "plugin").Logger(),
		plugins:   make(map[string]*Plugin),
	}
}

// Discover scans each subdirectory of the plugin directory for a manifest.
// A missing directory yields no plugins; unreadable manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(pluginPath, ManifestFile))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			m.logger.Warn().Err(err).Str("dir", pluginPath).Msg("skipping plugin with invalid manifest")
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			m.logger.Warn().Str("dir", pluginPath).Msg("skipping plugin without name or executable")
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
	}

	m.logger.Info().Int("count", len(m.plugins)).Str("dir", m.pluginDir).Msg("plugins discovered")
	return nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return plugin, nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Manifest.Name < plugins[j].Manifest.Name })
	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}

// RunAction executes action on the named plugin and returns the message
// to show the user.
func (m *Manager) RunAction(ctx context.Context, name, action, arg string) (string, error) {
	p, err := m.Get(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if !p.HasAction(action) {
		return "", fmt.Errorf("%s %s: %w", name, action, ErrUnknownAction)
	}

	resp, err := m.executor.Execute(ctx, p, &Request{Action: action, Arg: arg})
	if err != nil {
		m.logger.Warn().Err(err).Str("plugin", name).Str("action", action).Msg("plugin action failed")
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%s %s: %s", name, action, resp.Error)
	}

	m.logger.Debug().Str("plugin", name).Str("action", action).Msg("plugin action ran")
	return resp.Message, nil
}
