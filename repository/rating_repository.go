package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cassette/model"
)

// RatingRepository defines the interface for rating data operations.
// Ratings are append-only history rows; aggregates average over every
// row a song has collected.
type RatingRepository interface {
	CreateRating(ctx context.Context, rating *model.Rating) (int64, error)
	AverageRatingBySong(ctx context.Context, songID int64) (float64, error)
	AverageRatingByOwner(ctx context.Context, ownerID int64) (float64, error)
	RankedSongs(ctx context.Context, limit int, includeFlagged bool) ([]*model.RatedSong, error)
}

// mysqlRatingRepository implements RatingRepository for MySQL.
type mysqlRatingRepository struct {
	db *sql.DB
}

// NewMySQLRatingRepository creates a new mysqlRatingRepository.
func NewMySQLRatingRepository(db *sql.DB) RatingRepository {
	return &mysqlRatingRepository{db: db}
}

// CreateRating appends a rating row.
func (r *mysqlRatingRepository) CreateRating(ctx context.Context, rating *model.Rating) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ratings (rating, user_id, song_id, created_at) VALUES (?, ?, ?, ?)",
		rating.Rating, rating.UserID, rating.SongID, rating.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert rating for song %d: %w", rating.SongID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for rating: %w", err)
	}
	return id, nil
}

// AverageRatingBySong computes the mean of every rating row for a
// song, 0 when the song has no ratings.
func (r *mysqlRatingRepository) AverageRatingBySong(ctx context.Context, songID int64) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE song_id = ?", songID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average ratings for song %d: %w", songID, err)
	}
	return avg, nil
}

// AverageRatingByOwner computes the mean rating across all songs owned
// by a creator, 0 when none of their songs are rated.
func (r *mysqlRatingRepository) AverageRatingByOwner(ctx context.Context, ownerID int64) (float64, error) {
	query := `SELECT COALESCE(AVG(rt.rating), 0)
	           FROM ratings rt JOIN songs s ON s.id = rt.song_id
	           WHERE s.user_id = ?`
	var avg float64
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average ratings for owner %d: %w", ownerID, err)
	}
	return avg, nil
}

// RankedSongs returns songs ordered by descending average rating. The
// LEFT JOIN keeps unrated songs in the result with average 0, sorted
// after every rated song. Flagged songs are hidden unless
// includeFlagged is set, matching the listing queries.
func (r *mysqlRatingRepository) RankedSongs(ctx context.Context, limit int, includeFlagged bool) ([]*model.RatedSong, error) {
	query := `SELECT s.id, s.user_id, s.title, s.singer, s.genre, s.release_date, s.duration,
	           s.file_path, s.lyrics, s.cover_path, s.flagged, s.created_at, s.updated_at,
	           COALESCE(AVG(rt.rating), 0) AS avg_rating, COUNT(rt.id) AS rating_count
	           FROM songs s LEFT JOIN ratings rt ON rt.song_id = s.id`
	if !includeFlagged {
		query += " WHERE s.flagged = false"
	}
	query += ` GROUP BY s.id
	           ORDER BY avg_rating DESC, rating_count DESC, s.id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked songs: %w", err)
	}
	defer rows.Close()

	ranked := make([]*model.RatedSong, 0)
	for rows.Next() {
		entry := &model.RatedSong{}
		var lyrics, coverPath sql.NullString
		err := rows.Scan(&entry.Song.ID, &entry.Song.UserID, &entry.Song.Title, &entry.Song.Singer,
			&entry.Song.Genre, &entry.Song.ReleaseDate, &entry.Song.Duration, &entry.Song.FilePath,
			&lyrics, &coverPath, &entry.Song.Flagged, &entry.Song.CreatedAt, &entry.Song.UpdatedAt,
			&entry.AverageRating, &entry.RatingCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranked song row: %w", err)
		}
		entry.Song.Lyrics = lyrics.String
		entry.Song.CoverPath = coverPath.String
		ranked = append(ranked, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ranked song rows iteration: %w", err)
	}
	return ranked, nil
}
