// Package plugin discovers external action executables and runs them for
// voice command aliases.
package plugin

import "encoding/json"

// ManifestFile is the manifest name expected in each plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and the actions it accepts.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Action string          `json:"action"`
	Phrase string          `json:"phrase,omitempty"`
	Arg    string          `json:"arg,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout as JSON.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// HasAction reports whether the manifest declares action.
func (p *Plugin) HasAction(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}
