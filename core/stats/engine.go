// Package stats computes the derived statistics consumed by the
// dashboards: rating averages, play totals and monthly usage. All
// aggregations are read-only and recomputed on demand.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"cassette/core/fault"
	"cassette/model"
)

// Bucket is one (label, value) point of a numeric series.
type Bucket struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Overview holds the admin dashboard counters.
type Overview struct {
	StandardUsers int64 `json:"standardUsers"`
	Creators      int64 `json:"creators"`
	Songs         int64 `json:"songs"`
	Albums        int64 `json:"albums"`
	Genres        int64 `json:"genres"`
}

// RatingSource provides the rating aggregates.
type RatingSource interface {
	AverageRatingBySong(ctx context.Context, songID int64) (float64, error)
	RankedSongs(ctx context.Context, limit int, includeFlagged bool) ([]*model.RatedSong, error)
	AverageRatingByOwner(ctx context.Context, ownerID int64) (float64, error)
}

// PlaySource provides the play aggregates.
type PlaySource interface {
	PlayTotalsBySong(ctx context.Context) ([]model.SongPlays, error)
	PlayTotalsByUser(ctx context.Context) ([]model.UserPlays, error)
	PlayTotalsForOwner(ctx context.Context, ownerID int64) ([]model.SongPlays, error)
	MonthlyPlayTotals(ctx context.Context) ([]model.MonthlyPlays, error)
}

// CatalogSource provides the entity counters.
type CatalogSource interface {
	CountUsersByRole(ctx context.Context, role model.Role) (int64, error)
	CountSongs(ctx context.Context) (int64, error)
	CountAlbums(ctx context.Context) (int64, error)
	CountGenres(ctx context.Context) (int64, error)
}

// Engine computes the aggregations over the sources.
type Engine struct {
	ratings RatingSource
	plays   PlaySource
	catalog CatalogSource
}

// NewEngine creates an aggregation engine.
func NewEngine(ratings RatingSource, plays PlaySource, catalog CatalogSource) *Engine {
	return &Engine{ratings: ratings, plays: plays, catalog: catalog}
}

// AverageRating returns the arithmetic mean of all rating rows for a
// song, 0 when no ratings exist.
func (e *Engine) AverageRating(ctx context.Context, songID int64) (float64, error) {
	avg, err := e.ratings.AverageRatingBySong(ctx, songID)
	if err != nil {
		return 0, fault.Wrap(fault.Persistence, "failed to compute average rating", err)
	}
	return avg, nil
}

// CreatorAverageRating returns the mean rating across every song the
// creator owns, 0 when none of them are rated.
func (e *Engine) CreatorAverageRating(ctx context.Context, ownerID int64) (float64, error) {
	avg, err := e.ratings.AverageRatingByOwner(ctx, ownerID)
	if err != nil {
		return 0, fault.Wrap(fault.Persistence, "failed to compute creator average", err)
	}
	return avg, nil
}

// RankedSongs returns songs ordered by descending average rating.
// Unrated songs carry average 0 and sort after rated ones. Flagged
// songs are only included when includeFlagged is set.
func (e *Engine) RankedSongs(ctx context.Context, limit int, includeFlagged bool) ([]*model.RatedSong, error) {
	ranked, err := e.ratings.RankedSongs(ctx, limit, includeFlagged)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to rank songs", err)
	}
	return ranked, nil
}

// PlaysBySong returns the summed play count per song as a series
// labeled by song id.
func (e *Engine) PlaysBySong(ctx context.Context) ([]Bucket, error) {
	rows, err := e.plays.PlayTotalsBySong(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to sum plays by song", err)
	}
	buckets := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, Bucket{Label: strconv.FormatInt(row.SongID, 10), Value: row.Total})
	}
	return buckets, nil
}

// PlaysByUser returns the summed play count per user as a series
// labeled by user id.
func (e *Engine) PlaysByUser(ctx context.Context) ([]Bucket, error) {
	rows, err := e.plays.PlayTotalsByUser(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to sum plays by user", err)
	}
	buckets := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, Bucket{Label: strconv.FormatInt(row.UserID, 10), Value: row.Total})
	}
	return buckets, nil
}

// PlaysForOwner returns the per-song play totals limited to songs the
// given creator owns, for the creator dashboard.
func (e *Engine) PlaysForOwner(ctx context.Context, ownerID int64) ([]Bucket, error) {
	rows, err := e.plays.PlayTotalsForOwner(ctx, ownerID)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to sum plays for owner", err)
	}
	buckets := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, Bucket{Label: strconv.FormatInt(row.SongID, 10), Value: row.Total})
	}
	return buckets, nil
}

// MonthlyUsage returns play totals bucketed by calendar month, labeled
// YYYY-MM and sorted chronologically ascending.
func (e *Engine) MonthlyUsage(ctx context.Context) ([]Bucket, error) {
	rows, err := e.plays.MonthlyPlayTotals(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to sum monthly plays", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Month < rows[j].Month
	})

	buckets := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, Bucket{
			Label: fmt.Sprintf("%04d-%02d", row.Year, row.Month),
			Value: row.Total,
		})
	}
	return buckets, nil
}

// Overview returns the admin dashboard counters.
func (e *Engine) Overview(ctx context.Context) (*Overview, error) {
	standard, err := e.catalog.CountUsersByRole(ctx, model.RoleStandard)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to count standard users", err)
	}
	creators, err := e.catalog.CountUsersByRole(ctx, model.RoleCreator)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to count creators", err)
	}
	songs, err := e.catalog.CountSongs(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to count songs", err)
	}
	albums, err := e.catalog.CountAlbums(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to count albums", err)
	}
	genres, err := e.catalog.CountGenres(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "failed to count genres", err)
	}

	return &Overview{
		StandardUsers: standard,
		Creators:      creators,
		Songs:         songs,
		Albums:        albums,
		Genres:        genres,
	}, nil
}
