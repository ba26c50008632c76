package server

import (
	"encoding/json"
	"net/http"

	"cassette/core/fault"
	"cassette/logger"
	"cassette/storage"
)

// MeHandler returns the acting user's profile.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	user, err := h.userRepo.GetUserByID(r.Context(), actor.ID)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to load profile", err))
		return
	}
	if user == nil {
		writeError(w, fault.New(fault.NotFound, "account no longer exists"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUsersHandler returns every account. Admin only.
func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.ListUsers(r.Context())
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to list users", err))
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUserHandler removes an account with everything it owns.
func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.DeleteUser(r.Context(), actor, targetID); err != nil {
		writeError(w, err)
		return
	}

	h.invalidateStats(r.Context(), statsOverview, statsPlaysBySong, statsPlaysByUser, statsMonthlyUsage)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleBlacklistHandler flips the blacklist flag on an account.
func (h *APIHandler) ToggleBlacklistHandler(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromContext(r.Context())
	user, err := h.manager.ToggleBlacklist(r.Context(), actor, targetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpgradeToCreatorHandler performs the one-way role change for the
// acting user.
func (h *APIHandler) UpgradeToCreatorHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	user, err := h.manager.UpgradeToCreator(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateStats(r.Context(), statsOverview)
	writeJSON(w, http.StatusOK, user)
}

// DarkModeHandler stores the acting user's display preference.
func (h *APIHandler) DarkModeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.manager.SetDarkMode(r.Context(), actor, req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"darkMode": req.Enabled})
}

// UploadProfilePicHandler stores a profile picture in object storage
// and records its key on the account.
func (h *APIHandler) UploadProfilePicHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		writeError(w, fault.New(fault.Validation, "picture file is required"))
		return
	}
	defer file.Close()

	key, err := storage.UploadProfilePic(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to store picture", err))
		return
	}

	actor := actorFromContext(r.Context())
	if err := h.userRepo.SetUserProfilePic(r.Context(), actor.ID, key); err != nil {
		writeError(w, fault.Wrap(fault.Persistence, "failed to update profile", err))
		return
	}

	logger.Info("profile picture updated", logger.Int64("userId", actor.ID))
	writeJSON(w, http.StatusOK, map[string]string{"profilePic": key})
}
