package server

import (
	"encoding/json"
	"net/http"
	"time"

	"cassette/core/fault"
	"cassette/model"
	"cassette/storage"
)

// albumMetadata carries the editable album fields.
type albumMetadata struct {
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	ReleaseDate string `json:"releaseDate"`
}

func (m albumMetadata) apply(album *model.Album) error {
	album.Title = m.Title
	album.Genre = m.Genre
	album.Description = m.Description
	if m.ReleaseDate != "" {
		parsed, err := time.Parse("2006-01-02", m.ReleaseDate)
		if err != nil {
			return fault.Newf(fault.Validation, "invalid release date %q, expected YYYY-MM-DD", m.ReleaseDate)
		}
		album.ReleaseDate = parsed
	}
	return nil
}

// ListAlbumsHandler returns the album catalog. Flagged albums are only
// visible to the admin.
func (h *APIHandler) ListAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	albums, err := h.albumRepo.ListAlbums(r.Context(), actor.Role == model.RoleAdmin)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to list albums", err))
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// MyAlbumsHandler returns the albums the acting creator owns.
func (h *APIHandler) MyAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	albums, err := h.albumRepo.ListAlbumsByUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to list albums", err))
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// GetAlbumHandler returns one album with its member songs.
func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	album, err := h.albumRepo.GetAlbumByID(r.Context(), albumID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load album", err))
		return
	}
	if album == nil {
		writeError(w, fault.Newf(fault.NotFound, "album %d does not exist", albumID))
		return
	}

	actor := actorFromContext(r.Context())
	songs, err := h.albumRepo.GetAlbumSongs(r.Context(), albumID, actor.Role == model.RoleAdmin)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load album songs", err))
		return
	}
	writeJSON(w, http.StatusOK, model.AlbumWithSongs{Album: *album, Songs: songs})
}

// CreateAlbumHandler stores a new album, with an optional cover image.
func (h *APIHandler) CreateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid multipart form"))
		return
	}

	meta := albumMetadata{
		Title:       r.FormValue("title"),
		Genre:       r.FormValue("genre"),
		Description: r.FormValue("description"),
		ReleaseDate: r.FormValue("releaseDate"),
	}
	album := &model.Album{}
	if err := meta.apply(album); err != nil {
		writeError(w, err)
		return
	}

	if coverFile, coverHeader, err := r.FormFile("cover"); err == nil {
		defer coverFile.Close()
		coverKey, err := storage.UploadCover(r.Context(), coverHeader.Filename, coverHeader.Header.Get("Content-Type"), coverFile, coverHeader.Size)
		if err != nil {
			writeError(w, fault.Wrap(fault.Persistence, "failed to store cover", err))
			return
		}
		album.CoverPath = coverKey
	}

	actor := actorFromContext(r.Context())
	created, err := h.manager.CreateAlbum(r.Context(), actor, album)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateStats(r.Context(), statsOverview)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAlbumHandler applies new metadata to an album.
func (h *APIHandler) UpdateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var meta albumMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}
	album := &model.Album{ID: albumID}
	if err := meta.apply(album); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	updated, err := h.manager.UpdateAlbum(r.Context(), actor, album)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAlbumHandler removes an album together with its member songs.
func (h *APIHandler) DeleteAlbumHandler(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.DeleteAlbum(r.Context(), actor, albumID); err != nil {
		writeError(w, err)
		return
	}

	h.invalidateStats(r.Context(), statsOverview, statsPlaysBySong, statsPlaysByUser, statsMonthlyUsage)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleAlbumFlagHandler flips the visibility flag on an album.
func (h *APIHandler) ToggleAlbumFlagHandler(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	album, err := h.manager.ToggleAlbumFlag(r.Context(), actor, albumID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// AddSongToAlbumHandler links a song into an album.
func (h *APIHandler) AddSongToAlbumHandler(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "id")
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
	if err := h.manager.AddSongToAlbum(r.Context(), actor, albumID, songID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// RemoveSongFromAlbumHandler drops a song from an album, keeping the
// song itself.
func (h *APIHandler) RemoveSongFromAlbumHandler(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "id")
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
	if err := h.manager.RemoveSongFromAlbum(r.Context(), actor, albumID, songID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
