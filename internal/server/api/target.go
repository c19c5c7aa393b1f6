package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/fretwise/internal/app"
	"github.com/ayusman/fretwise/internal/chord"
)

// Practice is the part of the application the target endpoint drives.
type Practice interface {
	Mode() app.Mode
	SetMode(app.Mode) error
	Target() (chord.Definition, bool)
	SetTarget(key string) error
}

// TargetHandler reads and changes the mode and practice target.
type TargetHandler struct {
	practice Practice
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(p Practice) *TargetHandler {
	return &TargetHandler{practice: p}
}

// ServeHTTP handles GET and PUT on /api/target.
func (h *TargetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// updateTargetRequest changes whichever fields are present. An empty target
// clears it.
type updateTargetRequest struct {
	Mode   *string `json:"mode"`
	Target *string `json:"target"`
}

type targetResponse struct {
	Mode   string         `json:"mode"`
	Target *chordResponse `json:"target"`
}

func (h *TargetHandler) state() targetResponse {
	resp := targetResponse{Mode: string(h.practice.Mode())}
	if def, ok := h.practice.Target(); ok {
		c := toResponse(def)
		resp.Target = &c
	}
	return resp
}

// get handles GET /api/target.
func (h *TargetHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state())
}

// update handles PUT /api/target.
func (h *TargetHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate the mode before touching anything so a bad request changes nothing.
	var mode app.Mode
	if req.Mode != nil {
		m, err := app.ParseMode(*req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid mode")
			return
		}
		mode = m
	}

	if req.Target != nil {
		if err := h.practice.SetTarget(*req.Target); err != nil {
			if errors.Is(err, chord.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Chord not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to set target")
			return
		}
	}

	if mode != "" {
		if err := h.practice.SetMode(mode); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid mode")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.state())
}
