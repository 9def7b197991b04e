// Package main provides a media control plugin. It taps the keyboard's
// media and brightness keys, so it works with any player that listens for
// them.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-vgo/robotgo"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Phrase string          `json:"phrase"`
	Arg    string          `json:"arg"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type mediaKey struct {
	key     string
	message string
}

// actions maps action names to the key they tap.
var actions = map[string]mediaKey{
	"play-pause":      {"audio_play", "Playback toggled"},
	"stop":            {"audio_stop", "Playback stopped"},
	"next":            {"audio_next", "Next track"},
	"previous":        {"audio_prev", "Previous track"},
	"brightness-up":   {"lights_mon_up", "Brightness increased"},
	"brightness-down": {"lights_mon_down", "Brightness decreased"},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	writeResponse(handle(req, robotgo.KeyTap))
}

// handle runs one request with tap standing in for the key injector.
func handle(req Request, tap func(key string, args ...interface{}) error) Response {
	a, ok := actions[req.Action]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}
	if err := tap(a.key); err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return Response{Success: true, Message: a.message}
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
