package server

import (
	"encoding/json"
	"net/http"

	"cassette/core/fault"
	"cassette/model"
)

// CreatePlaylistRequest represents the playlist creation body.
type CreatePlaylistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Access      string `json:"access"`
}

// MyPlaylistsHandler returns the playlists the acting user owns.
func (h *APIHandler) MyPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	playlists, err := h.playRepo.ListPlaylistsByUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to list playlists", err))
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// PublicPlaylistsHandler returns every playlist shared as public.
func (h *APIHandler) PublicPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playRepo.ListPublicPlaylists(r.Context())
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to list playlists", err))
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// GetPlaylistHandler returns one playlist with its member songs.
// Private playlists are only visible to their owner and the admin.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	playlist, err := h.playRepo.GetPlaylistByID(r.Context(), playlistID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load playlist", err))
		return
	}
	if playlist == nil {
		writeError(w, fault.Newf(fault.NotFound, "playlist %d does not exist", playlistID))
		return
	}

	actor := actorFromContext(r.Context())
	if playlist.Access == model.AccessPrivate && playlist.UserID != actor.ID && actor.Role != model.RoleAdmin {
		writeError(w, fault.New(fault.Authorization, "playlist is private"))
		return
	}

	songs, err := h.playRepo.GetPlaylistSongs(r.Context(), playlistID, actor.Role == model.RoleAdmin)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load playlist songs", err))
		return
	}
	writeJSON(w, http.StatusOK, model.PlaylistWithSongs{Playlist: *playlist, Songs: songs})
}

// CreatePlaylistHandler stores a new playlist owned by the actor.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}

	actor := actorFromContext(r.Context())
	playlist := &model.Playlist{
		Title:       req.Title,
		Description: req.Description,
		Access:      req.Access,
	}
	created, err := h.manager.CreatePlaylist(r.Context(), actor, playlist)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeletePlaylistHandler removes a playlist and its join rows.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.DeletePlaylist(r.Context(), actor, playlistID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddSongToPlaylistHandler links a song into a playlist the actor owns.
func (h *APIHandler) AddSongToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	songID, err := pathID(r, "song_id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.AddSongToPlaylist(r.Context(), actor, playlistID, songID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// RemoveSongFromPlaylistHandler drops a song from a playlist the actor
// owns.
func (h *APIHandler) RemoveSongFromPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	songID, err := pathID(r, "song_id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.RemoveSongFromPlaylist(r.Context(), actor, playlistID, songID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
