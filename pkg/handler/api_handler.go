package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
	"github.com/tenkoh/awsswitch/pkg/logger"
	"github.com/tenkoh/awsswitch/pkg/switcher"
)

// ProfileProvider interface for dependency injection
type ProfileProvider interface {
	ListProfiles(includeReserved bool) []string
}

// ProfileSwitcher is the part of switcher.Switcher the API drives
type ProfileSwitcher interface {
	Suggest(query string) []string
	SwitchTo(name string) error
	Active() string
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Dependencies holds all the dependencies for the API handler
type Dependencies struct {
	ProfileProvider ProfileProvider
	Switcher        ProfileSwitcher
	Settings        switcher.SettingsPanel
	Logger          *slog.Logger
}

// APIHandler handles API requests with dependency injection
type APIHandler struct {
	deps     *Dependencies
	logger   *slog.Logger
	switchMu sync.Mutex

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// NewAPIHandler creates a new API handler with dependencies
func NewAPIHandler(deps *Dependencies) *APIHandler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &APIHandler{
		deps:     deps,
		logger:   logger.WithComponent(log, "api"),
		shutdown: make(chan struct{}),
	}
}

// ShutdownChannel is closed when a client requests shutdown
func (h *APIHandler) ShutdownChannel() <-chan struct{} {
	return h.shutdown
}

// ProfilesRequest is the body of POST /api/profiles
type ProfilesRequest struct {
	IncludeDefault bool   `json:"includeDefault"`
	Query          string `json:"query"`
}

// HandleProfiles handles POST /api/profiles
func (h *APIHandler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	var req ProfilesRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	var profiles []string
	if req.IncludeDefault {
		profiles = switcher.FilterProfiles(h.deps.ProfileProvider.ListProfiles(true), req.Query)
	} else {
		profiles = h.deps.Switcher.Suggest(req.Query)
	}

	h.writeResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"profiles": profiles,
		},
	})
}

// SwitchRequest is the body of POST /api/switch
type SwitchRequest struct {
	Profile string `json:"profile"`
}

// HandleSwitch handles POST /api/switch
func (h *APIHandler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeSwitchError(w, swerrors.NewInvalidInputError("body", err.Error()), http.StatusBadRequest)
		return
	}

	h.switchMu.Lock()
	err := h.deps.Switcher.SwitchTo(req.Profile)
	active := h.deps.Switcher.Active()
	h.switchMu.Unlock()

	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case swerrors.IsUserError(err):
			status = http.StatusBadRequest
		case swerrors.IsStoreError(err):
			h.logger.Warn("Credentials file unusable", "profile", req.Profile, "error", err)
		default:
			h.logger.Error("Failed to switch profile", "profile", req.Profile, "severity", swerrors.GetSeverity(err), "error", err)
		}
		h.writeSwitchError(w, err, status)
		return
	}

	h.writeResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"message": fmt.Sprintf("Selected %s as default", req.Profile),
			"active":  active,
		},
	})
}

// HandleStatus handles POST /api/status
func (h *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	h.writeResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"active": h.deps.Switcher.Active(),
		},
	})
}

// SettingsRequest is the body of POST /api/settings. A nil Value reads the
// setting without changing it.
type SettingsRequest struct {
	Value *string `json:"value"`
}

// HandleSettings handles POST /api/settings
func (h *APIHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	var req SettingsRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	if req.Value != nil {
		if err := h.deps.Settings.SetValue(*req.Value); err != nil {
			h.logger.Error("Failed to save settings", "error", err)
			h.writeError(w, fmt.Sprintf("Failed to save settings: %v", err), string(swerrors.GetCode(err)), http.StatusInternalServerError)
			return
		}
	}

	h.writeResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"value": h.deps.Settings.Value(),
		},
	})
}

// HandleShutdown handles POST /api/shutdown
func (h *APIHandler) HandleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	h.writeResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"message": "Server shutting down",
		},
	})

	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
}

// HandleHealth handles POST /api/health
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		},
	}
	h.writeResponse(w, response)
}

// Helper methods

// decodeOptional decodes a JSON body into v, accepting an empty body
func (h *APIHandler) decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.writeSwitchError(w, swerrors.NewInvalidInputError("body", err.Error()), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *APIHandler) writeResponse(w http.ResponseWriter, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeSwitchError renders err as a notice carrying its code
func (h *APIHandler) writeSwitchError(w http.ResponseWriter, err error, statusCode int) {
	h.writeError(w, switcher.Notice(err), string(swerrors.GetCode(err)), statusCode)
}

func (h *APIHandler) writeError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error:   message,
		Code:    code,
	}

	json.NewEncoder(w).Encode(response)
}
