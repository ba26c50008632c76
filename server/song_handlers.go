package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"cassette/core/fault"
	"cassette/logger"
	"cassette/model"
	"cassette/storage"
)

// songMetadata carries the editable song fields, shared by the upload
// form and the JSON update body.
type songMetadata struct {
	Title       string  `json:"title"`
	Singer      string  `json:"singer"`
	Genre       string  `json:"genre"`
	ReleaseDate string  `json:"releaseDate"`
	Duration    float64 `json:"duration"`
	Lyrics      string  `json:"lyrics"`
}

func (m songMetadata) apply(song *model.Song) error {
	song.Title = m.Title
	song.Singer = m.Singer
	song.Genre = m.Genre
	song.Duration = m.Duration
	song.Lyrics = m.Lyrics
	if m.ReleaseDate != "" {
		parsed, err := time.Parse("2006-01-02", m.ReleaseDate)
		if err != nil {
			return fault.Newf(fault.Validation, "invalid release date %q, expected YYYY-MM-DD", m.ReleaseDate)
		}
		song.ReleaseDate = parsed
	}
	return nil
}

// ListSongsHandler returns the catalog, optionally filtered by the q
// search parameter. Flagged songs are only visible to the admin.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	includeFlagged := actor.Role == model.RoleAdmin

	var songs []*model.Song
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		songs, err = h.songRepo.SearchSongs(r.Context(), q, includeFlagged)
	} else {
		songs, err = h.songRepo.ListSongs(r.Context(), includeFlagged)
	}
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to list songs", err))
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// MySongsHandler returns the songs the acting creator owns.
func (h *APIHandler) MySongsHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	songs, err := h.songRepo.ListSongsByUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to list songs", err))
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetSongHandler returns one song by id.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load song", err))
		return
	}
	if song == nil {
		writeError(w, fault.Newf(fault.NotFound, "song %d does not exist", songID))
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// UploadSongHandler stores the audio (and optional cover) in object
// storage and creates the song row.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid multipart form"))
		return
	}

	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)
	meta := songMetadata{
		Title:       r.FormValue("title"),
		Singer:      r.FormValue("singer"),
		Genre:       r.FormValue("genre"),
		ReleaseDate: r.FormValue("releaseDate"),
		Duration:    duration,
		Lyrics:      r.FormValue("lyrics"),
	}
	song := &model.Song{}
	if err := meta.apply(song); err != nil {
		writeError(w, err)
		return
	}

	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		writeError(w, fault.New(fault.Validation, "audio file is required"))
		return
	}
	defer audioFile.Close()

	audioKey, err := storage.UploadAudio(r.Context(), audioHeader.Filename, audioHeader.Header.Get("Content-Type"), audioFile, audioHeader.Size)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to store audio", err))
		return
	}
	song.FilePath = audioKey

	if coverFile, coverHeader, err := r.FormFile("cover"); err == nil {
		defer coverFile.Close()
		coverKey, err := storage.UploadCover(r.Context(), coverHeader.Filename, coverHeader.Header.Get("Content-Type"), coverFile, coverHeader.Size)
		if err != nil {
			writeError(w, fault.Wrap(fault.Persistence, "failed to store cover", err))
			return
		}
		song.CoverPath = coverKey
	}

	actor := actorFromContext(r.Context())
	created, err := h.manager.CreateSong(r.Context(), actor, song)
	if err != nil {
		// The song row was rejected, drop the orphaned objects.
		if removeErr := storage.RemoveObject(r.Context(), song.FilePath); removeErr != nil {
			logger.Warn("failed to remove orphaned audio", logger.ErrorField(removeErr))
		}
		if removeErr := storage.RemoveObject(r.Context(), song.CoverPath); removeErr != nil {
			logger.Warn("failed to remove orphaned cover", logger.ErrorField(removeErr))
		}
		writeError(w, err)
		return
	}

	h.invalidateStats(r.Context(), statsOverview)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateSongHandler applies new metadata to a song.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var meta songMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}
	song := &model.Song{ID: songID}
	if err := meta.apply(song); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	updated, err := h.manager.UpdateSong(r.Context(), actor, song)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSongHandler removes a song and everything referencing it.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load song", err))
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.DeleteSong(r.Context(), actor, songID); err != nil {
		writeError(w, err)
		return
	}

	// Rows are gone, now clean up the stored objects.
	if song != nil {
		if err := storage.RemoveObject(r.Context(), song.FilePath); err != nil {
			logger.Warn("failed to remove audio object", logger.ErrorField(err))
		}
		if err := storage.RemoveObject(r.Context(), song.CoverPath); err != nil {
			logger.Warn("failed to remove cover object", logger.ErrorField(err))
		}
	}

	h.invalidateStats(r.Context(), statsOverview, statsPlaysBySong, statsPlaysByUser, statsMonthlyUsage)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleSongFlagHandler flips the visibility flag on a song.
func (h *APIHandler) ToggleSongFlagHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	song, err := h.manager.ToggleSongFlag(r.Context(), actor, songID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// StreamSongHandler serves the audio object and records one play
// event at stream start.
func (h *APIHandler) StreamSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load song", err))
		return
	}
	if song == nil {
		writeError(w, fault.Newf(fault.NotFound, "song %d does not exist", songID))
		return
	}

	actor := actorFromContext(r.Context())
	if song.Flagged && actor.Role != model.RoleAdmin {
		writeError(w, fault.New(fault.NotFound, "song is not available"))
		return
	}

	if err := h.manager.RecordPlay(r.Context(), actor, songID); err != nil {
		writeError(w, err)
		return
	}

	object, err := storage.GetObject(r.Context(), song.FilePath)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to open audio", err))
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Accept-Ranges", "bytes")
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("stream interrupted",
			logger.Int64("songId", songID),
			logger.ErrorField(err))
	}
}
