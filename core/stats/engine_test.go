package stats

import (
	"context"
	"errors"
	"testing"

	"cassette/core/fault"
	"cassette/model"
)

type fakeRatings struct {
	bySong  map[int64]float64
	byOwner map[int64]float64
	ranked  []*model.RatedSong
	err     error
}

func (f *fakeRatings) AverageRatingBySong(_ context.Context, songID int64) (float64, error) {
	return f.bySong[songID], f.err
}

func (f *fakeRatings) AverageRatingByOwner(_ context.Context, ownerID int64) (float64, error) {
	return f.byOwner[ownerID], f.err
}

func (f *fakeRatings) RankedSongs(_ context.Context, limit int, includeFlagged bool) ([]*model.RatedSong, error) {
	if f.err != nil {
		return nil, f.err
	}
	ranked := make([]*model.RatedSong, 0, len(f.ranked))
	for _, entry := range f.ranked {
		if entry.Song.Flagged && !includeFlagged {
			continue
		}
		ranked = append(ranked, entry)
	}
	if limit > 0 && limit < len(ranked) {
		return ranked[:limit], nil
	}
	return ranked, nil
}

type fakePlays struct {
	bySong   []model.SongPlays
	byUser   []model.UserPlays
	forOwner []model.SongPlays
	monthly  []model.MonthlyPlays
	err      error
}

func (f *fakePlays) PlayTotalsBySong(_ context.Context) ([]model.SongPlays, error) {
	return f.bySong, f.err
}

func (f *fakePlays) PlayTotalsByUser(_ context.Context) ([]model.UserPlays, error) {
	return f.byUser, f.err
}

func (f *fakePlays) PlayTotalsForOwner(_ context.Context, _ int64) ([]model.SongPlays, error) {
	return f.forOwner, f.err
}

func (f *fakePlays) MonthlyPlayTotals(_ context.Context) ([]model.MonthlyPlays, error) {
	return f.monthly, f.err
}

type fakeCatalog struct {
	standard, creators, songs, albums, genres int64
}

func (f *fakeCatalog) CountUsersByRole(_ context.Context, role model.Role) (int64, error) {
	if role == model.RoleCreator {
		return f.creators, nil
	}
	return f.standard, nil
}

func (f *fakeCatalog) CountSongs(_ context.Context) (int64, error) { return f.songs, nil }
func (f *fakeCatalog) CountAlbums(_ context.Context) (int64, error) { return f.albums, nil }
func (f *fakeCatalog) CountGenres(_ context.Context) (int64, error) { return f.genres, nil }

func TestAverageRating(t *testing.T) {
	// Three ratings 3, 4, 5 average to 4; an unrated song reads 0.
	engine := NewEngine(&fakeRatings{bySong: map[int64]float64{1: 4}}, &fakePlays{}, &fakeCatalog{})

	avg, err := engine.AverageRating(context.Background(), 1)
	if err != nil {
		t.Fatalf("AverageRating returned error: %v", err)
	}
	if avg != 4 {
		t.Errorf("average = %v, want 4", avg)
	}

	avg, err = engine.AverageRating(context.Background(), 2)
	if err != nil {
		t.Fatalf("AverageRating returned error: %v", err)
	}
	if avg != 0 {
		t.Errorf("unrated average = %v, want 0", avg)
	}
}

func TestRankedSongsLimit(t *testing.T) {
	ranked := []*model.RatedSong{
		{Song: model.Song{ID: 1}, AverageRating: 5, RatingCount: 2},
		{Song: model.Song{ID: 2}, AverageRating: 3.5, RatingCount: 4},
		{Song: model.Song{ID: 3}, AverageRating: 0, RatingCount: 0},
	}
	engine := NewEngine(&fakeRatings{ranked: ranked}, &fakePlays{}, &fakeCatalog{})

	got, err := engine.RankedSongs(context.Background(), 2, false)
	if err != nil {
		t.Fatalf("RankedSongs returned error: %v", err)
	}
	if len(got) != 2 || got[0].Song.ID != 1 || got[1].Song.ID != 2 {
		t.Errorf("ranked = %+v, want top two by average", got)
	}
}

func TestRankedSongsHidesFlagged(t *testing.T) {
	ranked := []*model.RatedSong{
		{Song: model.Song{ID: 1, Flagged: true}, AverageRating: 5, RatingCount: 3},
		{Song: model.Song{ID: 2}, AverageRating: 4, RatingCount: 2},
	}
	engine := NewEngine(&fakeRatings{ranked: ranked}, &fakePlays{}, &fakeCatalog{})

	got, err := engine.RankedSongs(context.Background(), 0, false)
	if err != nil {
		t.Fatalf("RankedSongs returned error: %v", err)
	}
	if len(got) != 1 || got[0].Song.ID != 2 {
		t.Errorf("ranked = %+v, want only the unflagged song", got)
	}

	got, err = engine.RankedSongs(context.Background(), 0, true)
	if err != nil {
		t.Fatalf("RankedSongs returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ranked with flagged = %d entries, want 2", len(got))
	}
}

func TestPlaysBySongLabels(t *testing.T) {
	engine := NewEngine(&fakeRatings{}, &fakePlays{
		bySong: []model.SongPlays{{SongID: 7, Total: 12}, {SongID: 9, Total: 3}},
	}, &fakeCatalog{})

	buckets, err := engine.PlaysBySong(context.Background())
	if err != nil {
		t.Fatalf("PlaysBySong returned error: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(buckets))
	}
	if buckets[0].Label != "7" || buckets[0].Value != 12 {
		t.Errorf("bucket[0] = %+v", buckets[0])
	}
	if buckets[1].Label != "9" || buckets[1].Value != 3 {
		t.Errorf("bucket[1] = %+v", buckets[1])
	}
}

func TestMonthlyUsageOrderingAndLabels(t *testing.T) {
	engine := NewEngine(&fakeRatings{}, &fakePlays{
		monthly: []model.MonthlyPlays{
			{Year: 2025, Month: 3, Total: 5},
			{Year: 2024, Month: 12, Total: 8},
			{Year: 2025, Month: 1, Total: 2},
		},
	}, &fakeCatalog{})

	buckets, err := engine.MonthlyUsage(context.Background())
	if err != nil {
		t.Fatalf("MonthlyUsage returned error: %v", err)
	}

	wantLabels := []string{"2024-12", "2025-01", "2025-03"}
	wantValues := []int64{8, 2, 5}
	if len(buckets) != len(wantLabels) {
		t.Fatalf("buckets = %d, want %d", len(buckets), len(wantLabels))
	}
	for i := range buckets {
		if buckets[i].Label != wantLabels[i] || buckets[i].Value != wantValues[i] {
			t.Errorf("bucket[%d] = %+v, want {%s %d}", i, buckets[i], wantLabels[i], wantValues[i])
		}
	}
}

func TestOverview(t *testing.T) {
	engine := NewEngine(&fakeRatings{}, &fakePlays{}, &fakeCatalog{
		standard: 10, creators: 3, songs: 42, albums: 7, genres: 5,
	})

	overview, err := engine.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	want := Overview{StandardUsers: 10, Creators: 3, Songs: 42, Albums: 7, Genres: 5}
	if *overview != want {
		t.Errorf("overview = %+v, want %+v", *overview, want)
	}
}

func TestSourceErrorsArePersistence(t *testing.T) {
	cause := errors.New("connection lost")
	engine := NewEngine(&fakeRatings{err: cause}, &fakePlays{err: cause}, &fakeCatalog{})
	ctx := context.Background()

	if _, err := engine.AverageRating(ctx, 1); !fault.IsKind(err, fault.Persistence) {
		t.Errorf("AverageRating error = %v, want persistence", err)
	}
	if _, err := engine.MonthlyUsage(ctx); !fault.IsKind(err, fault.Persistence) {
		t.Errorf("MonthlyUsage error = %v, want persistence", err)
	}
	if _, err := engine.PlaysByUser(ctx); !fault.IsKind(err, fault.Persistence) {
		t.Errorf("PlaysByUser error = %v, want persistence", err)
	}
}
