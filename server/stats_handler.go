package server

import (
	"context"
	"net/http"
	"strconv"

	"cassette/core/fault"
	"cassette/core/stats"
	"cassette/logger"
	"cassette/model"
)

// Cached report names, shared between the dashboard reads and the
// mutation handlers that invalidate them.
const (
	statsOverview     = "overview"
	statsPlaysBySong  = "plays-by-song"
	statsPlaysByUser  = "plays-by-user"
	statsMonthlyUsage = "monthly-usage"
)

// cachedStats serves a report from the cache when present, otherwise
// computes it and stores the result under the cache TTL. A cache
// failure degrades to recomputing, never to an error.
func (h *APIHandler) cachedStats(w http.ResponseWriter, r *http.Request, name string, dest interface{}, compute func() (interface{}, error)) {
	found, err := h.statsCache.Get(r.Context(), name, dest)
	if err != nil {
		logger.Warn("stats cache read failed", logger.String("report", name), logger.ErrorField(err))
	}
	if found {
		writeJSON(w, http.StatusOK, dest)
		return
	}

	value, err := compute()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.statsCache.Set(r.Context(), name, value); err != nil {
		logger.Warn("stats cache write failed", logger.String("report", name), logger.ErrorField(err))
	}
	writeJSON(w, http.StatusOK, value)
}

// invalidateStats drops cached reports whose inputs just changed so
// the next dashboard read recomputes. Failures degrade to serving the
// stale entry until its TTL runs out.
func (h *APIHandler) invalidateStats(ctx context.Context, names ...string) {
	for _, name := range names {
		if err := h.statsCache.Invalidate(ctx, name); err != nil {
			logger.Warn("stats cache invalidation failed", logger.String("report", name), logger.ErrorField(err))
		}
	}
}

// OverviewHandler returns the admin dashboard counters.
func (h *APIHandler) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	h.cachedStats(w, r, statsOverview, &stats.Overview{}, func() (interface{}, error) {
		return h.engine.Overview(r.Context())
	})
}

// RankedSongsHandler returns songs ordered by descending average
// rating. The limit query parameter caps the result. Flagged songs
// only appear for admins, as in the listing endpoints.
func (h *APIHandler) RankedSongsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, fault.Newf(fault.Validation, "invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	actor := actorFromContext(r.Context())
	ranked, err := h.engine.RankedSongs(r.Context(), limit, actor.Role == model.RoleAdmin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

// SongRatingHandler returns the average rating of one song.
func (h *APIHandler) SongRatingHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	avg, err := h.engine.AverageRating(r.Context(), songID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"averageRating": avg})
}

// PlaysBySongHandler returns the play totals per song. Admin only.
func (h *APIHandler) PlaysBySongHandler(w http.ResponseWriter, r *http.Request) {
	h.cachedStats(w, r, statsPlaysBySong, &[]stats.Bucket{}, func() (interface{}, error) {
		return h.engine.PlaysBySong(r.Context())
	})
}

// PlaysByUserHandler returns the play totals per listener. Admin only.
func (h *APIHandler) PlaysByUserHandler(w http.ResponseWriter, r *http.Request) {
	h.cachedStats(w, r, statsPlaysByUser, &[]stats.Bucket{}, func() (interface{}, error) {
		return h.engine.PlaysByUser(r.Context())
	})
}

// MonthlyUsageHandler returns play totals bucketed by calendar month.
// Admin only.
func (h *APIHandler) MonthlyUsageHandler(w http.ResponseWriter, r *http.Request) {
	h.cachedStats(w, r, statsMonthlyUsage, &[]stats.Bucket{}, func() (interface{}, error) {
		return h.engine.MonthlyUsage(r.Context())
	})
}

// CreatorDashboardHandler returns the acting creator's aggregate view:
// average rating across their songs and per-song play totals.
func (h *APIHandler) CreatorDashboardHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if actor.Role != model.RoleCreator && actor.Role != model.RoleAdmin {
		writeError(w, fault.New(fault.Authorization, "creator access required"))
		return
	}

	avg, err := h.engine.CreatorAverageRating(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	plays, err := h.engine.PlaysForOwner(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"averageRating": avg,
		"playsBySong":   plays,
	})
}
