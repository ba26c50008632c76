package server

import (
	"encoding/json"
	"net/http"

	"cassette/core/fault"
)

// GetQueueHandler returns the acting user's playback queue in
// insertion order.
func (h *APIHandler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	entries, err := h.queueRepo.ListQueueByUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load queue", err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// AddToQueueHandler appends a song to the acting user's queue.
func (h *APIHandler) AddToQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SongID int64 `json:"songId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}
	if req.SongID <= 0 {
		writeError(w, fault.New(fault.Validation, "songId is required"))
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.AddToQueue(r.Context(), actor, req.SongID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

// ClearQueueHandler drops every entry of the acting user's queue.
func (h *APIHandler) ClearQueueHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.manager.ClearQueue(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// RateSongHandler appends a rating event for a song.
func (h *APIHandler) RateSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.Rate(r.Context(), actor, songID, req.Rating); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rated"})
}
