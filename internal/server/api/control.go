package api

import (
	"encoding/json"
	"net/http"
)

// ControlHandler serves /api/status, /api/mode and /api/voice.
type ControlHandler struct {
	control Controller
}

// NewControlHandler creates a ControlHandler for c.
func NewControlHandler(c Controller) *ControlHandler {
	return &ControlHandler{control: c}
}

// Status handles GET /api/status.
func (h *ControlHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.control.Status())
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type modeResponse struct {
	Requested string `json:"requested"`
	Queued    bool   `json:"queued"`
}

// Mode handles POST /api/mode. The switch happens on the primary loop, so
// the response only says whether the request was queued.
func (h *ControlHandler) Mode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Mode == "" {
		writeError(w, http.StatusBadRequest, "mode is required")
		return
	}

	queued, err := h.control.RequestMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusAccepted
	if !queued {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, modeResponse{Requested: req.Mode, Queued: queued})
}

type voiceRequest struct {
	Enabled *bool `json:"enabled"`
}

type voiceResponse struct {
	Listening bool `json:"listening"`
}

// Voice handles POST /api/voice.
func (h *ControlHandler) Voice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	writeJSON(w, http.StatusOK, voiceResponse{Listening: h.control.SetVoice(*req.Enabled)})
}
