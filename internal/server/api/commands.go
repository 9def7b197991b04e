package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// CommandHandler handles HTTP requests for voice command aliases.
type CommandHandler struct {
	store   *store.Store
	control Controller
}

// NewCommandHandler creates a CommandHandler. control may be nil, in which
// case the active table is not listed and changes apply on next start.
func NewCommandHandler(s *store.Store, control Controller) *CommandHandler {
	return &CommandHandler{store: s, control: control}
}

// ServeHTTP routes /api/commands and /api/commands/{id}.
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/commands")
	id := strings.TrimPrefix(path, "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

type aliasRequest struct {
	Phrase  string `json:"phrase"`
	Target  string `json:"target"`
	Plugin  string `json:"plugin"`
	Action  string `json:"action"`
	Enabled *bool  `json:"enabled"`
}

type aliasResponse struct {
	ID        string `json:"id"`
	Phrase    string `json:"phrase"`
	Target    string `json:"target,omitempty"`
	Plugin    string `json:"plugin,omitempty"`
	Action    string `json:"action,omitempty"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
}

type listCommandsResponse struct {
	Active  []Command       `json:"active"`
	Aliases []aliasResponse `json:"aliases"`
}

// reloadResponse reports an alias change and whether the live table took it.
type reloadResponse struct {
	aliasResponse
	ReloadError string `json:"reload_error,omitempty"`
}

func toResponse(a *store.Alias) aliasResponse {
	return aliasResponse{
		ID:        a.ID,
		Phrase:    a.Phrase,
		Target:    a.Target,
		Plugin:    a.PluginName,
		Action:    a.ActionName,
		Enabled:   a.Enabled,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// validate normalizes req and returns a message for invalid input.
func (req *aliasRequest) validate() string {
	req.Phrase = strings.ToLower(strings.Join(strings.Fields(req.Phrase), " "))
	req.Target = strings.ToLower(strings.Join(strings.Fields(req.Target), " "))
	switch {
	case req.Phrase == "":
		return "phrase is required"
	case req.Target == "" && (req.Plugin == "" || req.Action == ""):
		return "either target or plugin and action are required"
	case req.Target != "" && req.Plugin != "":
		return "target and plugin are mutually exclusive"
	}
	return ""
}

func (h *CommandHandler) list(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.store.Aliases().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list aliases")
		return
	}

	resp := listCommandsResponse{
		Active:  []Command{},
		Aliases: make([]aliasResponse, 0, len(aliases)),
	}
	if h.control != nil {
		resp.Active = h.control.Commands()
	}
	for _, a := range aliases {
		resp.Aliases = append(resp.Aliases, toResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CommandHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.store.Aliases().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Alias not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get alias")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *CommandHandler) create(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.store.Aliases().GetByPhrase(req.Phrase); err == nil {
		writeError(w, http.StatusConflict, "Alias with this phrase already exists")
		return
	}

	a := &store.Alias{
		Phrase:     req.Phrase,
		Target:     req.Target,
		PluginName: req.Plugin,
		ActionName: req.Action,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Aliases().Create(a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create alias")
		return
	}

	writeJSON(w, http.StatusCreated, h.reload(a))
}

func (h *CommandHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := h.store.Aliases().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Alias not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get alias")
		return
	}

	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if other, err := h.store.Aliases().GetByPhrase(req.Phrase); err == nil && other.ID != id {
		writeError(w, http.StatusConflict, "Alias with this phrase already exists")
		return
	}

	existing.Phrase = req.Phrase
	existing.Target = req.Target
	existing.PluginName = req.Plugin
	existing.ActionName = req.Action
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}

	if err := h.store.Aliases().Update(existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update alias")
		return
	}
	writeJSON(w, http.StatusOK, h.reload(existing))
}

func (h *CommandHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Aliases().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Alias not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete alias")
		return
	}
	h.reload(nil)
	w.WriteHeader(http.StatusNoContent)
}

// reload pushes the stored aliases into the live table. Alias problems,
// such as an unknown target, do not fail the request; they are reported
// alongside the saved alias.
func (h *CommandHandler) reload(a *store.Alias) reloadResponse {
	var resp reloadResponse
	if a != nil {
		resp.aliasResponse = toResponse(a)
	}
	if h.control == nil {
		return resp
	}
	if err := h.control.ReloadCommands(); err != nil {
		resp.ReloadError = err.Error()
	}
	return resp
}
