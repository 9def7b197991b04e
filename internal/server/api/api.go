// Package api provides the HTTP handlers of the local status server.
package api

import (
	"encoding/json"
	"net/http"
)

// Status is the runtime snapshot served by GET /api/status.
type Status struct {
	Mode              string `json:"mode"`
	VoiceListening    bool   `json:"voice_listening"`
	VoiceStatus       string `json:"voice_status"`
	DictationActive   bool   `json:"dictation_active"`
	DictationFeedback string `json:"dictation_feedback"`
}

// Command describes one entry of the active voice command table.
type Command struct {
	Phrase   string `json:"phrase"`
	TakesArg bool   `json:"takes_arg"`
	Source   string `json:"source"`
}

// Controller is the running application as seen by the API.
type Controller interface {
	Status() Status
	// RequestMode queues a mode switch and reports whether it was accepted.
	RequestMode(name string) (bool, error)
	// SetVoice enables or disables voice commands and returns the new state.
	SetVoice(enabled bool) bool
	// Commands lists the active voice command table.
	Commands() []Command
	// ReloadCommands rebuilds the voice command table from the store.
	ReloadCommands() error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
