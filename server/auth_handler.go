package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cassette/core/auth"
	"cassette/core/fault"
	"cassette/core/lifecycle"
	"cassette/logger"
	"cassette/model"
)

type contextKey string

const actorKey contextKey = "actor"

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates a standard account and returns it with a
// session token.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}

	user, err := h.manager.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := auth.GenerateToken([]byte(h.cfg.JWTSecret), user.ID, user.Role, h.cfg.JWTExpiry)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		writeError(w, fault.Wrap(fault.Persistence, "failed to generate token", err))
		return
	}

	h.invalidateStats(r.Context(), statsOverview)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LoginHandler verifies credentials and returns a session token.
// Blacklisted accounts are rejected even with correct credentials.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.Validation, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, fault.New(fault.Validation, "email and password are required"))
		return
	}

	user, err := h.manager.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Failed logins are 401, not the 403 the taxonomy would map to.
		if fault.IsKind(err, fault.Authorization) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	token, err := auth.GenerateToken([]byte(h.cfg.JWTSecret), user.ID, user.Role, h.cfg.JWTExpiry)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		writeError(w, fault.Wrap(fault.Persistence, "failed to generate token", err))
		return
	}

	logger.Info("user logged in", logger.Int64("userId", user.ID))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LogoutHandler clears the actor's playback queue. The token itself
// simply expires client-side.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.manager.ClearQueue(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// AuthMiddleware validates the bearer token and stores the acting user
// in the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization header format"})
			return
		}

		claims, err := auth.ParseToken([]byte(h.cfg.JWTSecret), parts[1])
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		actor := lifecycle.Actor{ID: claims.UserID, Role: claims.Role}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireAdmin rejects non-admin actors before the handler runs.
func (h *APIHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		actor := actorFromContext(r.Context())
		if actor.Role != model.RoleAdmin {
			writeError(w, fault.New(fault.Authorization, "admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actorFromContext extracts the acting user placed by AuthMiddleware.
func actorFromContext(ctx context.Context) lifecycle.Actor {
	actor, _ := ctx.Value(actorKey).(lifecycle.Actor)
	return actor
}
