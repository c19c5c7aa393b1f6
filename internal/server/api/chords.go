// Package api provides HTTP API handlers for the chord library and practice target.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/fretwise/internal/chord"
)

// ChordHandler serves the read-only chord library.
type ChordHandler struct {
	library *chord.Library
}

// NewChordHandler creates a new ChordHandler over lib.
func NewChordHandler(lib *chord.Library) *ChordHandler {
	return &ChordHandler{library: lib}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ChordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Expected paths: /api/chords or /api/chords/{key}
	key := strings.TrimPrefix(r.URL.Path, "/api/chords")
	key = strings.TrimPrefix(key, "/")

	if key == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, key)
}

// Request and response types

type chordResponse struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Frets        []int    `json:"frets"`
	Fingers      []int    `json:"fingers"`
	Instructions []string `json:"instructions"`
}

type listChordsResponse struct {
	Chords []chordResponse `json:"chords"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a chord.Definition to a chordResponse.
func toResponse(d chord.Definition) chordResponse {
	return chordResponse{
		Key:          d.Key,
		Name:         d.Name,
		Frets:        d.Frets[:],
		Fingers:      d.Fingers[:],
		Instructions: d.Instructions(),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
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

// list handles GET /api/chords and returns every chord in library order.
func (h *ChordHandler) list(w http.ResponseWriter, r *http.Request) {
	defs := h.library.Definitions()

	response := listChordsResponse{
		Chords: make([]chordResponse, 0, len(defs)),
	}
	for _, d := range defs {
		response.Chords = append(response.Chords, toResponse(d))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/chords/{key} and returns a single chord.
func (h *ChordHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	def, err := h.library.Lookup(key)
	if err != nil {
		if errors.Is(err, chord.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chord not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get chord")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(def))
}
