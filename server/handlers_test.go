package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cassette/cache"
	"cassette/core/fault"
	"cassette/core/lifecycle"
	"cassette/core/stats"
	"cassette/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", fault.New(fault.Validation, "title is required"), http.StatusBadRequest, "validation: title is required"},
		{"authorization", fault.New(fault.Authorization, "denied"), http.StatusForbidden, "authorization: denied"},
		{"not found", fault.New(fault.NotFound, "song 7 does not exist"), http.StatusNotFound, "not_found: song 7 does not exist"},
		{"conflict", fault.New(fault.Conflict, "duplicate title"), http.StatusConflict, "conflict: duplicate title"},
		{"persistence hides detail", fault.Wrap(fault.Persistence, "commit failed", errors.New("deadlock")), http.StatusInternalServerError, "internal server error"},
		{"unknown hides detail", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["error"] != tt.wantBody {
				t.Errorf("error = %q, want %q", body["error"], tt.wantBody)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/songs/abc", nil)
	if _, err := pathID(r, "id"); !fault.IsKind(err, fault.Validation) {
		t.Errorf("missing var error = %v, want validation", err)
	}
}

// recordingRatings captures the includeFlagged argument the ranked
// query is invoked with.
type recordingRatings struct {
	gotIncludeFlagged bool
}

func (f *recordingRatings) AverageRatingBySong(context.Context, int64) (float64, error)  { return 0, nil }
func (f *recordingRatings) AverageRatingByOwner(context.Context, int64) (float64, error) { return 0, nil }

func (f *recordingRatings) RankedSongs(_ context.Context, _ int, includeFlagged bool) ([]*model.RatedSong, error) {
	f.gotIncludeFlagged = includeFlagged
	return []*model.RatedSong{}, nil
}

func TestRankedSongsHandlerFlagVisibility(t *testing.T) {
	tests := []struct {
		name               string
		role               model.Role
		wantIncludeFlagged bool
	}{
		{"standard user hides flagged", model.RoleStandard, false},
		{"creator hides flagged", model.RoleCreator, false},
		{"admin sees flagged", model.RoleAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratings := &recordingRatings{}
			h := &APIHandler{engine: stats.NewEngine(ratings, nil, nil)}

			r := httptest.NewRequest(http.MethodGet, "/api/stats/ranked", nil)
			ctx := context.WithValue(r.Context(), actorKey, lifecycle.Actor{ID: 1, Role: tt.role})
			rec := httptest.NewRecorder()
			h.RankedSongsHandler(rec, r.WithContext(ctx))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if ratings.gotIncludeFlagged != tt.wantIncludeFlagged {
				t.Errorf("includeFlagged = %v, want %v", ratings.gotIncludeFlagged, tt.wantIncludeFlagged)
			}
		})
	}
}

func TestInvalidateStats(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := &APIHandler{statsCache: cache.NewStatsCache(client, time.Minute)}
	ctx := context.Background()

	for _, name := range []string{statsOverview, statsPlaysBySong} {
		if err := h.statsCache.Set(ctx, name, map[string]int64{"songs": 3}); err != nil {
			t.Fatalf("Set(%q) returned error: %v", name, err)
		}
	}

	h.invalidateStats(ctx, statsOverview, statsPlaysBySong)

	for _, name := range []string{statsOverview, statsPlaysBySong} {
		var dest map[string]int64
		found, err := h.statsCache.Get(ctx, name, &dest)
		if err != nil {
			t.Fatalf("Get(%q) returned error: %v", name, err)
		}
		if found {
			t.Errorf("report %q still cached after invalidation", name)
		}
	}
}

func TestInvalidateStatsWithoutCache(t *testing.T) {
	// Handlers run with a nil cache when redis is not configured.
	h := &APIHandler{}
	h.invalidateStats(context.Background(), statsOverview)
}
