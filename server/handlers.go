package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cassette/cache"
	"cassette/config"
	"cassette/core/fault"
	"cassette/core/lifecycle"
	"cassette/core/stats"
	"cassette/logger"
	"cassette/repository"

	"github.com/gorilla/mux"
)

// APIHandler bundles the dependencies shared by the HTTP handlers.
type APIHandler struct {
	manager    *lifecycle.Manager
	engine     *stats.Engine
	userRepo   repository.UserRepository
	songRepo   repository.SongRepository
	albumRepo  repository.AlbumRepository
	playRepo   repository.PlaylistRepository
	queueRepo  repository.QueueRepository
	statsCache *cache.StatsCache
	cfg        *config.Config
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(
	manager *lifecycle.Manager,
	engine *stats.Engine,
	userRepo repository.UserRepository,
	songRepo repository.SongRepository,
	albumRepo repository.AlbumRepository,
	playRepo repository.PlaylistRepository,
	queueRepo repository.QueueRepository,
	statsCache *cache.StatsCache,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		manager:    manager,
		engine:     engine,
		userRepo:   userRepo,
		songRepo:   songRepo,
		albumRepo:  albumRepo,
		playRepo:   playRepo,
		queueRepo:  queueRepo,
		statsCache: statsCache,
		cfg:        cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

// writeError maps the fault taxonomy onto HTTP status codes. Unknown
// errors are reported as 500 without leaking their message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch fault.KindOf(err) {
	case fault.Validation:
		status = http.StatusBadRequest
		message = err.Error()
	case fault.Authorization:
		status = http.StatusForbidden
		message = err.Error()
	case fault.NotFound:
		status = http.StatusNotFound
		message = err.Error()
	case fault.Conflict:
		status = http.StatusConflict
		message = err.Error()
	case fault.Persistence:
		logger.Error("persistence failure", logger.ErrorField(err))
	default:
		logger.Error("unclassified failure", logger.ErrorField(err))
	}

	writeJSON(w, status, map[string]string{"error": message})
}

// pathID extracts a numeric path variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Newf(fault.Validation, "invalid %s %q", name, raw)
	}
	return id, nil
}
