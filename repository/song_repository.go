package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cassette/model"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(ctx context.Context, song *model.Song) (int64, error)
	GetSongByID(ctx context.Context, id int64) (*model.Song, error)
	ListSongs(ctx context.Context, includeFlagged bool) ([]*model.Song, error)
	ListSongsByUser(ctx context.Context, userID int64) ([]*model.Song, error)
	SearchSongs(ctx context.Context, query string, includeFlagged bool) ([]*model.Song, error)
	UpdateSong(ctx context.Context, song *model.Song) error
	SetSongFlagged(ctx context.Context, id int64, flagged bool) error
	CountSongs(ctx context.Context) (int64, error)
	CountGenres(ctx context.Context) (int64, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

const songColumns = "id, user_id, title, singer, genre, release_date, duration, file_path, lyrics, cover_path, flagged, created_at, updated_at"

func scanSong(row interface{ Scan(...interface{}) error }) (*model.Song, error) {
	song := &model.Song{}
	var lyrics, coverPath sql.NullString
	err := row.Scan(&song.ID, &song.UserID, &song.Title, &song.Singer, &song.Genre,
		&song.ReleaseDate, &song.Duration, &song.FilePath, &lyrics, &coverPath,
		&song.Flagged, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}
	song.Lyrics = lyrics.String
	song.CoverPath = coverPath.String
	return song, nil
}

// CreateSong adds a new song to the database.
func (r *mysqlSongRepository) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	query := `INSERT INTO songs (user_id, title, singer, genre, release_date, duration, file_path, lyrics, cover_path, flagged, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		song.UserID, song.Title, song.Singer, song.Genre, song.ReleaseDate,
		song.Duration, song.FilePath, song.Lyrics, song.CoverPath, song.Flagged, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create song statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}
	return id, nil
}

// GetSongByID retrieves a song by its ID.
func (r *mysqlSongRepository) GetSongByID(ctx context.Context, id int64) (*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE id = ?"
	song, err := scanSong(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %d: %w", id, err)
	}
	return song, nil
}

// ListSongs retrieves songs, newest first. Flagged songs are hidden
// unless includeFlagged is set (admin listings).
func (r *mysqlSongRepository) ListSongs(ctx context.Context, includeFlagged bool) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs"
	if !includeFlagged {
		query += " WHERE flagged = false"
	}
	query += " ORDER BY created_at DESC"

	return r.querySongs(ctx, query)
}

// ListSongsByUser retrieves all songs owned by a user.
func (r *mysqlSongRepository) ListSongsByUser(ctx context.Context, userID int64) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE user_id = ? ORDER BY created_at DESC"
	return r.querySongs(ctx, query, userID)
}

// SearchSongs filters songs by a case-insensitive substring over
// title, singer and genre.
func (r *mysqlSongRepository) SearchSongs(ctx context.Context, search string, includeFlagged bool) ([]*model.Song, error) {
	pattern := "%" + search + "%"
	query := "SELECT " + songColumns + " FROM songs WHERE (title LIKE ? OR singer LIKE ? OR genre LIKE ?)"
	if !includeFlagged {
		query += " AND flagged = false"
	}
	query += " ORDER BY created_at DESC"

	return r.querySongs(ctx, query, pattern, pattern, pattern)
}

func (r *mysqlSongRepository) querySongs(ctx context.Context, query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during song rows iteration: %w", err)
	}
	return songs, nil
}

// UpdateSong stores new metadata for a song.
func (r *mysqlSongRepository) UpdateSong(ctx context.Context, song *model.Song) error {
	query := `UPDATE songs SET title = ?, singer = ?, genre = ?, release_date = ?, duration = ?,
	           file_path = ?, lyrics = ?, cover_path = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		song.Title, song.Singer, song.Genre, song.ReleaseDate, song.Duration,
		song.FilePath, song.Lyrics, song.CoverPath, time.Now(), song.ID)
	if err != nil {
		return fmt.Errorf("failed to execute update song for ID %d: %w", song.ID, err)
	}
	return nil
}

// SetSongFlagged sets the visibility flag on a song.
func (r *mysqlSongRepository) SetSongFlagged(ctx context.Context, id int64, flagged bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE songs SET flagged = ?, updated_at = NOW() WHERE id = ?", flagged, id)
	if err != nil {
		return fmt.Errorf("failed to update flag for song %d: %w", id, err)
	}
	return nil
}

// CountSongs counts every song in the catalog.
func (r *mysqlSongRepository) CountSongs(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}

// CountGenres counts distinct genres across the catalog.
func (r *mysqlSongRepository) CountGenres(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT genre) FROM songs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count genres: %w", err)
	}
	return count, nil
}
