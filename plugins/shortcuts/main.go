// Package main provides a keyboard shortcut plugin. Named actions map to
// the usual editing and browser shortcuts for the current platform; the
// press action sends any combination.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

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

// PressParams defines the combination sent by the press action.
type PressParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // cmd, alt, ctrl, shift
}

// shortcuts maps action names to a key pressed with the platform's primary
// modifier, plus any extra modifiers.
var shortcuts = map[string][]string{
	"copy":        {"c"},
	"cut":         {"x"},
	"paste":       {"v"},
	"undo":        {"z"},
	"redo":        {"z", "shift"},
	"select-all":  {"a"},
	"save":        {"s"},
	"find":        {"f"},
	"new-tab":     {"t"},
	"close-tab":   {"w"},
	"reopen-tab":  {"t", "shift"},
	"zoom-in":     {"="},
	"zoom-out":    {"-"},
	"zoom-reset":  {"0"},
	"address-bar": {"l"},
}

// modifierAliases maps user-friendly modifier names to robotgo names.
var modifierAliases = map[string]string{
	"command": "cmd",
	"cmd":     "cmd",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

type tapFunc func(key string, args ...interface{}) error

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	writeResponse(handle(req, runtime.GOOS, robotgo.KeyTap))
}

func primaryModifier(goos string) string {
	if goos == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

func handle(req Request, goos string, tap tapFunc) Response {
	var key string
	var mods []string

	if req.Action == "press" {
		p, err := pressParams(req)
		if err != nil {
			return Response{Error: err.Error()}
		}
		key = p.Key
		for _, m := range p.Modifiers {
			name, ok := modifierAliases[strings.ToLower(m)]
			if !ok {
				return Response{Error: fmt.Sprintf("unknown modifier: %s", m)}
			}
			mods = append(mods, name)
		}
	} else {
		combo, ok := shortcuts[req.Action]
		if !ok {
			return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
		}
		key = combo[0]
		mods = append([]string{primaryModifier(goos)}, combo[1:]...)
	}

	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	if err := tap(key, args...); err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return Response{Success: true, Message: "Pressed " + strings.Join(append(mods, key), "+")}
}

// pressParams reads the combination from params, or from a spoken
// argument such as "ctrl shift t".
func pressParams(req Request) (PressParams, error) {
	var p PressParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return p, fmt.Errorf("failed to parse params: %w", err)
		}
	} else if fields := strings.Fields(strings.ReplaceAll(req.Arg, "+", " ")); len(fields) > 0 {
		p.Key = fields[len(fields)-1]
		p.Modifiers = fields[:len(fields)-1]
	}
	if p.Key == "" {
		return p, fmt.Errorf("key is required")
	}
	return p, nil
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
